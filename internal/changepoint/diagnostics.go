package changepoint

import (
	"math"

	"BrentShift/internal/domain/models"
)

// diagnose computes split-chain potential scale reduction factors for the
// continuous parameters, plus the mean acceptance rate. Each chain is cut
// in half so within-chain drift shows up as disagreement.
func diagnose(chains []*chainResult) models.TraceDiagnostics {
	var d models.TraceDiagnostics
	d.RHatMu1 = splitRHat(collect(chains, func(c *chainResult) []float64 { return c.mu1 }))
	d.RHatMu2 = splitRHat(collect(chains, func(c *chainResult) []float64 { return c.mu2 }))
	d.RHatSigma = splitRHat(collect(chains, func(c *chainResult) []float64 { return c.sigma }))
	for _, c := range chains {
		d.MeanAccept += c.acceptRate
	}
	if len(chains) > 0 {
		d.MeanAccept /= float64(len(chains))
	}
	return d
}

func collect(chains []*chainResult, f func(*chainResult) []float64) [][]float64 {
	out := make([][]float64, 0, len(chains)*2)
	for _, c := range chains {
		s := f(c)
		if len(s) < 4 {
			continue
		}
		half := len(s) / 2
		out = append(out, s[:half], s[half:])
	}
	return out
}

// splitRHat is the Gelman-Rubin statistic over the given (already split)
// chains. Returns NaN when there is not enough data to compare.
func splitRHat(chains [][]float64) float64 {
	m := len(chains)
	if m < 2 {
		return math.NaN()
	}
	n := len(chains[0])
	for _, c := range chains {
		if len(c) < n {
			n = len(c)
		}
	}
	if n < 2 {
		return math.NaN()
	}

	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range chains {
		means[i] = mean(c[:n])
		vars[i] = variance(c[:n], means[i])
	}

	grand := mean(means)
	b := 0.0
	for _, mu := range means {
		b += (mu - grand) * (mu - grand)
	}
	b *= float64(n) / float64(m-1)
	w := mean(vars)
	if w == 0 {
		return 1
	}
	varPlus := float64(n-1)/float64(n)*w + b/float64(n)
	return math.Sqrt(varPlus / w)
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func variance(xs []float64, mu float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += (x - mu) * (x - mu)
	}
	return s / float64(len(xs)-1)
}
