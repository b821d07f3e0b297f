package quest

import (
	"math"

	"questkit/domain/core"
)

// Weibull returns the probability of a correct response at relative
// intensity x under a Weibull psychometric function with steepness beta,
// lapse rate delta and guess rate gamma:
//
//	P(x) = delta*gamma + (1-delta)*(1 - (1-gamma)*exp(-10^(beta*x)))
func Weibull(beta, delta, gamma, x float64) float64 {
	return delta*gamma + (1-delta)*(1-(1-gamma)*math.Exp(-math.Pow(10, beta*x)))
}

// psychTable is the discretized psychometric function over relative
// intensities, covering twice the posterior grid's half-width and shifted so
// the criterion crossing sits at relative intensity 0.
type psychTable struct {
	x2         []float64 // relative intensities, length 2*dim+1
	p2         []float64 // hit probability at each relative intensity
	xThreshold float64   // offset at which the unshifted function crosses the criterion
}

// newPsychTable discretizes the Weibull function for the given parameters,
// locates the criterion crossing by monotone interpolation, and rebuilds the
// table shifted so that intensity 0 means "at threshold".
func newPsychTable(p Params, dim int) (*psychTable, error) {
	n := 2*dim + 1
	x2 := make([]float64, n)
	p2 := make([]float64, n)
	for j := range x2 {
		x2[j] = float64(j-dim) * p.Grain
		p2[j] = Weibull(p.Beta, p.Delta, p.Gamma, x2[j])
	}
	if p2[0] > p.Criterion || p2[n-1] < p.Criterion {
		return nil, core.NewCriterionError(p2[0], p2[n-1], p.Criterion)
	}
	if !allFinite(p2) {
		return nil, core.ErrTableNotFinite
	}

	// Interpolate the crossing over the strictly monotone subsequence only;
	// the Weibull saturates at both ends, so the table has flat stretches.
	ps, offs := strictlyMonotone(p2, x2)
	if len(ps) < 2 {
		return nil, core.NewMonotoneError(len(ps))
	}
	xThreshold := interpolate(p.Criterion, ps, offs)

	for j := range p2 {
		p2[j] = Weibull(p.Beta, p.Delta, p.Gamma, x2[j]+xThreshold)
	}
	if !allFinite(p2) {
		return nil, core.ErrTableNotFinite
	}
	return &psychTable{x2: x2, p2: p2, xThreshold: xThreshold}, nil
}

// strictlyMonotone selects the table points at which p strictly increases,
// returning the selected probabilities and their offsets.
func strictlyMonotone(p, x []float64) (ps, offs []float64) {
	for j := 0; j < len(p)-1; j++ {
		if p[j+1] != p[j] {
			ps = append(ps, p[j])
			offs = append(offs, x[j])
		}
	}
	return ps, offs
}

// responseKernel derives the two mirrored kernel rows used for Bayesian
// updates: row 0 is the probability of an incorrect response, row 1 of a
// correct one, both over the reversed table.
func (t *psychTable) responseKernel() [2][]float64 {
	n := len(t.p2)
	miss := make([]float64, n)
	hit := make([]float64, n)
	for j := 0; j < n; j++ {
		ph := t.p2[n-1-j]
		hit[j] = ph
		miss[j] = 1 - ph
	}
	return [2][]float64{miss, hit}
}

// machEps is the epsilon folded into the entropy terms to keep log(0) out of
// the quantile-order formula. The value matches classic QUEST trial sequences
// bit for bit.
const machEps = 2.2204e-16

// optimalQuantileOrder derives the "most informative" quantile order from the
// table's endpoint probabilities via the closed-form entropy expression of
// Pelli (1987). The formula is carried over verbatim from classic QUEST and
// verified numerically in tests.
func (t *psychTable) optimalQuantileOrder() float64 {
	pL := t.p2[0]
	pH := t.p2[len(t.p2)-1]
	pE := pH*math.Log(pH+machEps) - pL*math.Log(pL+machEps) +
		(1-pH+machEps)*math.Log(1-pH+machEps) - (1-pL+machEps)*math.Log(1-pL+machEps)
	pE = 1 / (1 + math.Exp(pE/(pL-pH)))
	return (pE - pL) / (pH - pL)
}

// prob returns the hit probability at relative intensity x, assuming the
// threshold is at x=0, clamped to the table's endpoints.
func (t *psychTable) prob(x float64) float64 {
	return interpolate(x, t.x2, t.p2)
}

// bounds returns the smallest and largest relative intensity the table covers.
func (t *psychTable) bounds() (lo, hi float64) {
	lo = t.x2[0]
	hi = t.x2[len(t.x2)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}
