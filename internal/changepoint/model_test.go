package changepoint

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"BrentShift/internal/domain/models"
)

func returnSeries(vals []float64) *models.ReturnSeries {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]models.ReturnPoint, len(vals))
	for i, v := range vals {
		pts[i] = models.ReturnPoint{Date: start.AddDate(0, 0, i), LogReturn: v}
	}
	return &models.ReturnSeries{Points: pts}
}

func TestSampleInsufficientData(t *testing.T) {
	m := New(DefaultConfig(), nil)

	_, err := m.Sample(context.Background(), returnSeries([]float64{0.01}))
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.N != 1 {
		t.Fatalf("expected N=1 in error, got %d", ide.N)
	}
}

func TestSampleTraceShape(t *testing.T) {
	cfg := Config{Draws: 200, Tune: 100, Chains: 3, Seed: 7}
	m := New(cfg, nil)

	vals := []float64{0.01, -0.02, 0.015, 0.03, -0.01, 0.02, -0.005, 0.01}
	trace, err := m.Sample(context.Background(), returnSeries(vals))
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	want := 200 * 3
	if trace.Draws() != want {
		t.Fatalf("expected %d combined draws, got %d", want, trace.Draws())
	}
	if len(trace.Mu1) != want || len(trace.Mu2) != want || len(trace.Sigma) != want {
		t.Fatalf("parameter slices not aligned: mu1=%d mu2=%d sigma=%d",
			len(trace.Mu1), len(trace.Mu2), len(trace.Sigma))
	}
	if trace.Chains != 3 || trace.DrawsPerChain != 200 {
		t.Fatalf("chain bookkeeping wrong: chains=%d draws_per_chain=%d",
			trace.Chains, trace.DrawsPerChain)
	}

	n := len(vals)
	for i, tau := range trace.Tau {
		if tau < 0 || tau >= n {
			t.Fatalf("draw %d: tau=%d outside [0,%d)", i, tau, n)
		}
	}
	for i, s := range trace.Sigma {
		if s <= 0 {
			t.Fatalf("draw %d: sigma=%v not positive", i, s)
		}
	}
	if trace.Diagnostics.MeanAccept <= 0 || trace.Diagnostics.MeanAccept > 1 {
		t.Fatalf("mean acceptance rate out of range: %v", trace.Diagnostics.MeanAccept)
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	cfg := Config{Draws: 100, Tune: 50, Chains: 2, Seed: 42}
	vals := []float64{0.01, -0.02, 0.015, 0.05, 0.055, 0.048, 0.052, 0.05}

	a, err := New(cfg, nil).Sample(context.Background(), returnSeries(vals))
	if err != nil {
		t.Fatalf("first sample: %v", err)
	}
	b, err := New(cfg, nil).Sample(context.Background(), returnSeries(vals))
	if err != nil {
		t.Fatalf("second sample: %v", err)
	}

	for i := range a.Tau {
		if a.Tau[i] != b.Tau[i] {
			t.Fatalf("tau draw %d differs between runs: %d vs %d", i, a.Tau[i], b.Tau[i])
		}
	}
	for i := range a.Mu1 {
		if a.Mu1[i] != b.Mu1[i] || a.Sigma[i] != b.Sigma[i] {
			t.Fatalf("continuous draw %d differs between runs", i)
		}
	}
}

func TestSampleRecoversSustainedShift(t *testing.T) {
	// Ten returns around zero followed by ten around +0.05. The posterior
	// over the split index should concentrate hard on the boundary.
	vals := make([]float64, 0, 20)
	jitter := []float64{0.001, -0.001, 0.002, -0.002, 0.0}
	for i := 0; i < 10; i++ {
		vals = append(vals, jitter[i%len(jitter)])
	}
	for i := 0; i < 10; i++ {
		vals = append(vals, 0.05+jitter[i%len(jitter)])
	}

	cfg := Config{Draws: 600, Tune: 300, Chains: 2, Seed: 42}
	trace, err := New(cfg, nil).Sample(context.Background(), returnSeries(vals))
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	atBoundary := 0
	for _, tau := range trace.Tau {
		if tau == 10 {
			atBoundary++
		}
	}
	frac := float64(atBoundary) / float64(trace.Draws())
	if frac < 0.5 {
		t.Fatalf("posterior mass at true split too low: %.3f", frac)
	}

	var mu1Sum, mu2Sum float64
	for i := range trace.Mu1 {
		mu1Sum += trace.Mu1[i]
		mu2Sum += trace.Mu2[i]
	}
	mu1Mean := mu1Sum / float64(len(trace.Mu1))
	mu2Mean := mu2Sum / float64(len(trace.Mu2))

	if math.Abs(mu1Mean) > 0.01 {
		t.Fatalf("pre-shift mean estimate off: %v", mu1Mean)
	}
	if mu2Mean < 0.03 || mu2Mean > 0.07 {
		t.Fatalf("post-shift mean estimate off: %v", mu2Mean)
	}
	if math.IsNaN(trace.Diagnostics.RHatMu2) {
		t.Fatalf("rhat should be computable with two full chains")
	}
}

func TestDrawTauPrefersResidualMinimizingSplit(t *testing.T) {
	// With sigma fixed and a clean level shift the categorical full
	// conditional should pick the boundary almost every draw.
	vals := []float64{0, 0, 0, 0, 0.05, 0.05, 0.05, 0.05}
	obs := newObservations(vals)
	th := theta{0, 0.05, math.Log(0.003)}
	rng := rand.New(rand.NewSource(1))

	logw := make([]float64, obs.n)
	hits := 0
	for i := 0; i < 200; i++ {
		if drawTau(obs, th, rng, logw) == 4 {
			hits++
		}
	}
	if hits < 190 {
		t.Fatalf("expected near-certain split at 4, got %d/200", hits)
	}
}
