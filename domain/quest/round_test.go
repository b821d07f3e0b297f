package quest

import "testing"

// TestRoundHalfAwayFromZero pins the legacy tie-breaking rule that reference
// trial sequences depend on.
func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{-1, -1},
		{-0.5, -1},
		{0, 0},
		{0.5, 1},
		{0.7, 1},
		{1.0, 1},
		{1.5, 2},
		{2.1, 2},
		{2.5, 3},
		{2.6, 3},
		{3.5, 4},
		{-2.5, -3},
		{-1.5, -2},
		// the float just below 0.5 must not round up
		{0.49999999999999994, 0},
	}
	for _, c := range cases {
		if got := RoundHalfAwayFromZero(c.in); got != c.want {
			t.Errorf("RoundHalfAwayFromZero(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
