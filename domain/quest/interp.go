package quest

import (
	"math"
	"sort"
)

// interpolate evaluates the piecewise-linear function through (xs, ys) at v,
// clamping to the endpoints outside the sampled interval. xs must be strictly
// increasing and at least two points long.
func interpolate(v float64, xs, ys []float64) float64 {
	last := len(xs) - 1
	if v <= xs[0] {
		return ys[0]
	}
	if v >= xs[last] {
		return ys[last]
	}
	j := sort.SearchFloat64s(xs, v)
	if xs[j] == v {
		return ys[j]
	}
	i := j - 1
	t := (v - xs[i]) / (xs[j] - xs[i])
	return ys[i] + t*(ys[j]-ys[i])
}

// allFinite reports whether every value is neither NaN nor infinite.
func allFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
