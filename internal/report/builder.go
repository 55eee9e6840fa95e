package report

import (
	"math"
	"sort"
	"time"

	"BrentShift/internal/domain/models"
)

// meanEpsilon bounds the before-mean magnitude below which a percent
// change is reported as undefined. Log-returns average near zero by
// construction, so a near-zero baseline is expected, not exceptional.
const meanEpsilon = 1e-12

// Build reduces a trace to the single deterministic summary record. dates
// is the date index aligned with the return series the model was run on;
// the resolved index is clamped into its bounds.
func Build(trace *models.Trace, dates []time.Time) (*models.ChangePointReport, error) {
	if len(trace.Tau) == 0 {
		return nil, models.ErrEmptyPosterior
	}

	// Median rather than mode: robust to the multimodal posteriors a
	// discrete switch prior tends to produce.
	idx := int(math.Round(medianInt(trace.Tau)))
	if max := len(dates) - 1; idx > max {
		idx = max
	}
	if idx < 0 {
		idx = 0
	}

	meanBefore := meanOf(trace.Mu1)
	meanAfter := meanOf(trace.Mu2)
	delta := meanAfter - meanBefore

	var pct *float64
	if math.Abs(meanBefore) > meanEpsilon {
		v := delta / math.Abs(meanBefore) * 100
		pct = &v
	}

	matches := 0
	for _, t := range trace.Tau {
		if t == idx {
			matches++
		}
	}

	r := &models.ChangePointReport{
		Index:         idx,
		MeanBefore:    meanBefore,
		MeanAfter:     meanAfter,
		Delta:         delta,
		PercentChange: pct,
		Confidence:    float64(matches) / float64(len(trace.Tau)),
		StdDev:        meanOf(trace.Sigma),
	}
	if len(dates) > 0 {
		r.Date = dates[idx]
	}
	return r, nil
}

func medianInt(xs []int) float64 {
	s := make([]int, len(xs))
	copy(s, xs)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return (float64(s[mid-1]) + float64(s[mid])) / 2
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
