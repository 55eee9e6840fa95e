package report

import (
	"errors"
	"math"
	"testing"
	"time"

	"BrentShift/internal/domain/models"
)

func dateIndex(n int) []time.Time {
	out := make([]time.Time, n)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = base.AddDate(0, 0, i)
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func repeatInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBuildUsesMedianTau(t *testing.T) {
	trace := &models.Trace{
		Tau:   []int{7, 7, 7, 7, 2},
		Mu1:   repeat(0.01, 5),
		Mu2:   repeat(0.03, 5),
		Sigma: repeat(0.02, 5),
	}
	dates := dateIndex(20)
	r, err := Build(trace, dates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Index != 7 {
		t.Fatalf("expected index 7, got %d", r.Index)
	}
	if !r.Date.Equal(dates[7]) {
		t.Fatalf("date not resolved from index: %v", r.Date)
	}
}

func TestBuildClampsOutOfRangeTau(t *testing.T) {
	n := 5
	trace := &models.Trace{
		Tau:   repeatInt(n, 50), // one past the valid max index
		Mu1:   repeat(0, 50),
		Mu2:   repeat(0, 50),
		Sigma: repeat(0.01, 50),
	}
	r, err := Build(trace, dateIndex(n))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Index != n-1 {
		t.Fatalf("expected clamp to %d, got %d", n-1, r.Index)
	}
}

func TestBuildMeansAndDelta(t *testing.T) {
	trace := &models.Trace{
		Tau:   repeatInt(4, 100),
		Mu1:   repeat(0.01, 100),
		Mu2:   repeat(0.03, 100),
		Sigma: repeat(0.02, 100),
	}
	r, err := Build(trace, dateIndex(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r.MeanBefore-0.01) > 1e-12 || math.Abs(r.MeanAfter-0.03) > 1e-12 {
		t.Fatalf("unexpected means %v %v", r.MeanBefore, r.MeanAfter)
	}
	if math.Abs(r.Delta-0.02) > 1e-12 {
		t.Fatalf("unexpected delta %v", r.Delta)
	}
	if r.PercentChange == nil || math.Abs(*r.PercentChange-200) > 1e-6 {
		t.Fatalf("unexpected percent change %v", r.PercentChange)
	}
	if math.Abs(r.StdDev-0.02) > 1e-12 {
		t.Fatalf("unexpected stddev %v", r.StdDev)
	}
}

func TestBuildPercentChangeSentinelAtZeroBefore(t *testing.T) {
	trace := &models.Trace{
		Tau:   repeatInt(4, 100),
		Mu1:   repeat(0.0, 100),
		Mu2:   repeat(0.03, 100),
		Sigma: repeat(0.02, 100),
	}
	r, err := Build(trace, dateIndex(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.PercentChange != nil {
		t.Fatalf("expected nil percent change for zero before-mean, got %v", *r.PercentChange)
	}
}

func TestBuildConfidence(t *testing.T) {
	trace := &models.Trace{
		Tau:   []int{3, 3, 3, 5},
		Mu1:   repeat(0.01, 4),
		Mu2:   repeat(0.02, 4),
		Sigma: repeat(0.01, 4),
	}
	r, err := Build(trace, dateIndex(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		t.Fatalf("confidence out of bounds: %v", r.Confidence)
	}
	if math.Abs(r.Confidence-0.75) > 1e-12 {
		t.Fatalf("expected 0.75, got %v", r.Confidence)
	}

	all := &models.Trace{
		Tau:   repeatInt(6, 40),
		Mu1:   repeat(0.01, 40),
		Mu2:   repeat(0.02, 40),
		Sigma: repeat(0.01, 40),
	}
	r2, err := Build(all, dateIndex(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.Confidence != 1.0 {
		t.Fatalf("identical samples must give confidence 1, got %v", r2.Confidence)
	}
}

func TestBuildEmptyPosterior(t *testing.T) {
	_, err := Build(&models.Trace{}, dateIndex(10))
	if !errors.Is(err, models.ErrEmptyPosterior) {
		t.Fatalf("expected ErrEmptyPosterior, got %v", err)
	}
}
