package models

import "time"

// Trace holds the posterior samples produced by one model run. All sample
// slices have identical length: one entry per retained draw per chain, in
// draw order, chains concatenated.
type Trace struct {
	Tau   []int
	Mu1   []float64
	Mu2   []float64
	Sigma []float64

	// Chains is the number of independent chains concatenated into the
	// sample slices. DrawsPerChain * Chains == len(Tau).
	Chains        int
	DrawsPerChain int

	// Diagnostics carries optional convergence quality signals. Never a
	// gate: a model run returns its trace regardless of mixing quality.
	Diagnostics TraceDiagnostics
}

// TraceDiagnostics reports split-chain potential scale reduction factors.
// Values near 1.0 indicate the chains agree; values above ~1.1 suggest the
// run should be repeated with more tuning.
type TraceDiagnostics struct {
	RHatMu1   float64
	RHatMu2   float64
	RHatSigma float64
	// MeanAccept is the average Metropolis acceptance rate of the
	// continuous block across chains, post tuning.
	MeanAccept float64
}

// Draws returns the total number of retained draws across chains.
func (t *Trace) Draws() int { return len(t.Tau) }

// ChangePointReport is the single durable summary record produced from a
// trace. PercentChange is nil when the before-mean is indistinguishable
// from zero, an expected condition for log-return series.
type ChangePointReport struct {
	Index         int
	Date          time.Time
	MeanBefore    float64
	MeanAfter     float64
	Delta         float64
	PercentChange *float64
	Confidence    float64
	StdDev        float64
}

// EventRecord is the wire shape of one detected-events table row, as served
// to the dashboard. Field order mirrors the canonical CSV schema.
type EventRecord struct {
	Date          string   `json:"Date"`
	MeanBefore    float64  `json:"MeanBefore"`
	MeanAfter     float64  `json:"MeanAfter"`
	Delta         float64  `json:"Delta"`
	PercentChange *float64 `json:"PercentChange"`
	Confidence    float64  `json:"Confidence"`
	StdDev        float64  `json:"StdDev"`
}

// Record converts a report into its canonical wire/table representation.
func (r *ChangePointReport) Record() EventRecord {
	return EventRecord{
		Date:          r.Date.Format("2006-01-02"),
		MeanBefore:    r.MeanBefore,
		MeanAfter:     r.MeanAfter,
		Delta:         r.Delta,
		PercentChange: r.PercentChange,
		Confidence:    r.Confidence,
		StdDev:        r.StdDev,
	}
}
