package changepoint

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"BrentShift/internal/domain/models"
	applogger "BrentShift/pkg/logger"
)

// Config holds sampler settings and prior scales.
//
// The model is a two-regime mean switch on log-returns:
//
//	tau   ~ DiscreteUniform[0, n-1]
//	mu1   ~ Normal(0, MuSigma)
//	mu2   ~ Normal(0, MuSigma)
//	sigma ~ HalfNormal(SigmaScale)
//	y_t   ~ Normal(mu1 if t < tau else mu2, sigma)
//
// The switch is a hard step on the discrete index; no smoothing.
type Config struct {
	Draws        int
	Tune         int
	Chains       int
	TargetAccept float64
	Seed         int64
	MuSigma      float64
	SigmaScale   float64
}

// DefaultConfig mirrors the settings the reference analysis converged on
// for weekly-aggregated data.
func DefaultConfig() Config {
	return Config{
		Draws:        1000,
		Tune:         500,
		Chains:       2,
		TargetAccept: 0.9,
		Seed:         42,
		MuSigma:      0.05,
		SigmaScale:   0.05,
	}
}

func (c *Config) normalize() {
	if c.Draws <= 0 {
		c.Draws = 1000
	}
	if c.Tune < 0 {
		c.Tune = 500
	}
	if c.Chains <= 0 {
		c.Chains = 2
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		c.TargetAccept = 0.9
	}
	if c.MuSigma <= 0 {
		c.MuSigma = 0.05
	}
	if c.SigmaScale <= 0 {
		c.SigmaScale = 0.05
	}
}

// Model runs MCMC over the single-change-point posterior.
type Model struct {
	cfg Config
	log *applogger.Logger
}

func New(cfg Config, log *applogger.Logger) *Model {
	cfg.normalize()
	return &Model{cfg: cfg, log: log}
}

// Sample draws the posterior for the given return series and returns the
// combined trace. Chains run in parallel with independent RNGs and are
// concatenated, never averaged. Divergence or poor mixing is a quality
// signal surfaced through Trace.Diagnostics, not an error; the one hard
// precondition is a series long enough to carry a change point.
func (m *Model) Sample(ctx context.Context, series *models.ReturnSeries) (*models.Trace, error) {
	n := series.Len()
	if n < 2 {
		return nil, &models.InsufficientDataError{N: n, Min: 2}
	}

	obs := newObservations(series.Values())
	start := time.Now()

	chains := make([]*chainResult, m.cfg.Chains)
	var wg sync.WaitGroup
	for c := 0; c < m.cfg.Chains; c++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(m.cfg.Seed + int64(idx)*1_000_003))
			chains[idx] = runChain(ctx, obs, m.cfg, idx, rng)
		}(c)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trace := combine(chains, m.cfg)
	trace.Diagnostics = diagnose(chains)

	if m.log != nil {
		m.log.Info("mcmc sampling complete",
			applogger.Int("observations", n),
			applogger.Int("chains", m.cfg.Chains),
			applogger.Int("draws", trace.Draws()),
			applogger.Any("rhat_mu1", trace.Diagnostics.RHatMu1),
			applogger.Any("accept", trace.Diagnostics.MeanAccept),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return trace, nil
}

// combine concatenates per-chain draws into one trace, in draw order.
func combine(chains []*chainResult, cfg Config) *models.Trace {
	total := 0
	for _, c := range chains {
		total += len(c.tau)
	}
	t := &models.Trace{
		Tau:           make([]int, 0, total),
		Mu1:           make([]float64, 0, total),
		Mu2:           make([]float64, 0, total),
		Sigma:         make([]float64, 0, total),
		Chains:        len(chains),
		DrawsPerChain: cfg.Draws,
	}
	for _, c := range chains {
		t.Tau = append(t.Tau, c.tau...)
		t.Mu1 = append(t.Mu1, c.mu1...)
		t.Mu2 = append(t.Mu2, c.mu2...)
		t.Sigma = append(t.Sigma, c.sigma...)
	}
	return t
}
