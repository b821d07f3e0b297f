package quest

import "math"

// RoundHalfAwayFromZero rounds x to the nearest integer with ties going away
// from zero: 0.5 rounds to 1 and -0.5 rounds to -1. Reference trial sequences
// were produced with this rule, so it is spelled out here rather than left to
// whatever the platform's default tie-breaking happens to be.
func RoundHalfAwayFromZero(x float64) int {
	return int(math.Copysign(math.Ceil(math.Floor(math.Abs(x)*2)/2), x))
}
