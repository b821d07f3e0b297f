package quest

import (
	"math"

	"questkit/domain/core"
)

// posteriorGrid is the discretized posterior density over candidate threshold
// offsets relative to the prior mean. The density is kept unnormalized unless
// the owning estimator normalizes it; every query below works on raw weights.
type posteriorGrid struct {
	offsets []float64 // candidate offsets, length dim+1, symmetric around 0
	density []float64 // non-negative weights, same length
}

// newPosteriorGrid builds the grid with a Gaussian prior of standard
// deviation priorSD centered at offset 0, truncated to the grid and
// normalized to sum 1.
func newPosteriorGrid(dim int, grain, priorSD float64) *posteriorGrid {
	n := dim + 1
	g := &posteriorGrid{
		offsets: make([]float64, n),
		density: make([]float64, n),
	}
	for k := 0; k < n; k++ {
		x := float64(k-dim/2) * grain
		g.offsets[k] = x
		z := x / priorSD
		g.density[k] = math.Exp(-0.5 * z * z)
	}
	normalizeDensity(g.density)
	return g
}

// normalizeDensity scales the density in place so it sums to 1. It reports
// degeneracy instead of dividing by a zero or non-finite mass.
func normalizeDensity(density []float64) error {
	sum := 0.0
	for _, d := range density {
		sum += d
	}
	if !isFinite(sum) {
		return core.ErrDensityNotFinite
	}
	if sum == 0 {
		return core.ErrDensityAllZero
	}
	for k := range density {
		density[k] /= sum
	}
	return nil
}

// Mean returns the density-weighted mean offset.
func (g *posteriorGrid) Mean() float64 {
	var sum, wsum float64
	for k, d := range g.density {
		sum += d
		wsum += d * g.offsets[k]
	}
	return wsum / sum
}

// SD returns the density-weighted standard deviation of the offsets.
func (g *posteriorGrid) SD() float64 {
	var sum, wsum, wsum2 float64
	for k, d := range g.density {
		sum += d
		wsum += d * g.offsets[k]
		wsum2 += d * g.offsets[k] * g.offsets[k]
	}
	m := wsum / sum
	return math.Sqrt(wsum2/sum - m*m)
}

// Mode returns the offset of the first density maximum and the (raw,
// possibly unnormalized) density at that point.
func (g *posteriorGrid) Mode() (offset, density float64) {
	best := 0
	for k, d := range g.density {
		if d > g.density[best] {
			best = k
		}
	}
	return g.offsets[best], g.density[best]
}

// Quantile returns the offset at which the cumulative density mass reaches
// order (in [0,1]), interpolating linearly over the strictly increasing
// subsequence of the cumulative sum.
func (g *posteriorGrid) Quantile(order float64) (float64, error) {
	cum := make([]float64, len(g.density))
	total := 0.0
	for k, d := range g.density {
		total += d
		cum[k] = total
	}
	if !isFinite(total) {
		return 0, core.ErrDensityNotFinite
	}
	if total == 0 {
		return 0, core.ErrDensityAllZero
	}

	xs := make([]float64, 0, len(cum))
	offs := make([]float64, 0, len(cum))
	prev := -1.0
	for k, c := range cum {
		if c > prev {
			xs = append(xs, c)
			offs = append(offs, g.offsets[k])
			prev = c
		}
	}
	if len(xs) < 2 {
		return 0, core.NewDegenerateError(len(xs))
	}
	return interpolate(order*total, xs, offs), nil
}

// densityAtIndex returns the raw density at index i, clamped to the grid edges.
func (g *posteriorGrid) densityAtIndex(i int) float64 {
	if i < 0 {
		i = 0
	}
	if i > len(g.density)-1 {
		i = len(g.density) - 1
	}
	return g.density[i]
}
