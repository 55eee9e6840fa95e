package changepoint

import (
	"context"
	"math"
	"math/rand"
)

// observations precomputes prefix sums of the return series so that both
// the tau full-conditional and the continuous-block posterior evaluate in
// O(1) per split index.
type observations struct {
	n     int
	cumY  []float64 // cumY[k]  = sum of y_t for t < k
	cumY2 []float64 // cumY2[k] = sum of y_t^2 for t < k
}

func newObservations(y []float64) *observations {
	n := len(y)
	obs := &observations{
		n:     n,
		cumY:  make([]float64, n+1),
		cumY2: make([]float64, n+1),
	}
	for i, v := range y {
		obs.cumY[i+1] = obs.cumY[i] + v
		obs.cumY2[i+1] = obs.cumY2[i] + v*v
	}
	return obs
}

// sse1 is the sum of squared residuals against mu1 over indices t < k.
func (o *observations) sse1(k int, mu1 float64) float64 {
	return o.cumY2[k] - 2*mu1*o.cumY[k] + float64(k)*mu1*mu1
}

// sse2 is the sum of squared residuals against mu2 over indices t >= k.
func (o *observations) sse2(k int, mu2 float64) float64 {
	sy := o.cumY[o.n] - o.cumY[k]
	sy2 := o.cumY2[o.n] - o.cumY2[k]
	return sy2 - 2*mu2*sy + float64(o.n-k)*mu2*mu2
}

// theta is the continuous parameter block (mu1, mu2, log sigma). Sigma is
// sampled in log space so the Langevin proposals live on an unconstrained
// scale; the Jacobian term is included in the posterior.
type theta [3]float64

func (t theta) mu1() float64   { return t[0] }
func (t theta) mu2() float64   { return t[1] }
func (t theta) sigma() float64 { return math.Exp(t[2]) }

// logPost evaluates the unnormalized log posterior of the continuous block
// conditional on tau. Constant terms are dropped.
func logPost(obs *observations, cfg Config, tau int, th theta) float64 {
	l := th[2]
	inv2 := math.Exp(-2 * l)
	sse := obs.sse1(tau, th[0]) + obs.sse2(tau, th[1])
	s0 := cfg.MuSigma
	c := cfg.SigmaScale
	lp := -float64(obs.n)*l - inv2/2*sse
	lp += -th[0] * th[0] / (2 * s0 * s0)
	lp += -th[1] * th[1] / (2 * s0 * s0)
	lp += -math.Exp(2*l)/(2*c*c) + l // HalfNormal prior plus log-space Jacobian
	return lp
}

// gradLogPost is the analytic gradient of logPost in (mu1, mu2, log sigma).
func gradLogPost(obs *observations, cfg Config, tau int, th theta) theta {
	l := th[2]
	inv2 := math.Exp(-2 * l)
	s0 := cfg.MuSigma
	c := cfg.SigmaScale
	sse := obs.sse1(tau, th[0]) + obs.sse2(tau, th[1])

	var g theta
	g[0] = inv2*(obs.cumY[tau]-float64(tau)*th[0]) - th[0]/(s0*s0)
	g[1] = inv2*((obs.cumY[obs.n]-obs.cumY[tau])-float64(obs.n-tau)*th[1]) - th[1]/(s0*s0)
	g[2] = -float64(obs.n) + inv2*sse - math.Exp(2*l)/(c*c) + 1
	return g
}

// drawTau samples the change-point index from its full conditional, a
// categorical over [0, n-1] with log-weights given by the two-regime
// residuals. logw is scratch space of length n.
func drawTau(obs *observations, th theta, rng *rand.Rand, logw []float64) int {
	sig := th.sigma()
	inv := 1 / (2 * sig * sig)
	maxw := math.Inf(-1)
	for k := 0; k < obs.n; k++ {
		w := -(obs.sse1(k, th[0]) + obs.sse2(k, th[1])) * inv
		logw[k] = w
		if w > maxw {
			maxw = w
		}
	}
	total := 0.0
	for k := 0; k < obs.n; k++ {
		logw[k] = math.Exp(logw[k] - maxw)
		total += logw[k]
	}
	u := rng.Float64() * total
	for k := 0; k < obs.n; k++ {
		u -= logw[k]
		if u <= 0 {
			return k
		}
	}
	return obs.n - 1
}

// malaStep makes one Metropolis-adjusted Langevin proposal on the
// continuous block and returns the new state, whether it was accepted, and
// the acceptance probability used for step-size adaptation.
func malaStep(obs *observations, cfg Config, tau int, th theta, eps float64, rng *rand.Rand) (theta, bool, float64) {
	g := gradLogPost(obs, cfg, tau, th)
	half := eps * eps / 2

	var prop theta
	for i := 0; i < 3; i++ {
		prop[i] = th[i] + half*g[i] + eps*rng.NormFloat64()
	}

	gp := gradLogPost(obs, cfg, tau, prop)
	logFwd, logBwd := 0.0, 0.0
	for i := 0; i < 3; i++ {
		df := prop[i] - th[i] - half*g[i]
		db := th[i] - prop[i] - half*gp[i]
		logFwd += -df * df / (2 * eps * eps)
		logBwd += -db * db / (2 * eps * eps)
	}

	logAlpha := logPost(obs, cfg, tau, prop) - logPost(obs, cfg, tau, th) + logBwd - logFwd
	if math.IsNaN(logAlpha) {
		return th, false, 0
	}
	accept := math.Min(1, math.Exp(logAlpha))
	if math.Log(rng.Float64()) < logAlpha {
		return prop, true, accept
	}
	return th, false, accept
}

// chainResult holds one chain's retained draws and its post-tuning
// acceptance rate.
type chainResult struct {
	tau        []int
	mu1        []float64
	mu2        []float64
	sigma      []float64
	acceptRate float64
}

// runChain runs tuning plus retained draws for a single chain. Each chain
// owns its RNG and scratch buffers; nothing is shared until combine.
func runChain(ctx context.Context, obs *observations, cfg Config, idx int, rng *rand.Rand) *chainResult {
	res := &chainResult{
		tau:   make([]int, 0, cfg.Draws),
		mu1:   make([]float64, 0, cfg.Draws),
		mu2:   make([]float64, 0, cfg.Draws),
		sigma: make([]float64, 0, cfg.Draws),
	}

	// Spread chain starting points across the index range so agreement
	// between chains is informative.
	tau := obs.n * (idx + 1) / (cfg.Chains + 1)
	if tau > obs.n-1 {
		tau = obs.n - 1
	}
	th := theta{0, 0, math.Log(cfg.SigmaScale)}
	eps := 0.05

	logw := make([]float64, obs.n)
	total := cfg.Tune + cfg.Draws
	accepted := 0

	for it := 0; it < total; it++ {
		if it%512 == 0 && ctx.Err() != nil {
			return res
		}

		tau = drawTau(obs, th, rng, logw)

		var acc float64
		var ok bool
		th, ok, acc = malaStep(obs, cfg, tau, th, eps, rng)

		if it < cfg.Tune {
			// Robbins-Monro style step-size adaptation toward the
			// target acceptance rate, frozen after tuning.
			eps *= math.Exp(0.05 * (acc - cfg.TargetAccept))
			continue
		}
		if ok {
			accepted++
		}
		res.tau = append(res.tau, tau)
		res.mu1 = append(res.mu1, th[0])
		res.mu2 = append(res.mu2, th[1])
		res.sigma = append(res.sigma, th.sigma())
	}

	if cfg.Draws > 0 {
		res.acceptRate = float64(accepted) / float64(cfg.Draws)
	}
	return res
}
