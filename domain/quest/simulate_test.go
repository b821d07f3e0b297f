package quest

import (
	"math/rand"
	"testing"
)

func TestSimulatedObserverRates(t *testing.T) {
	e := newDemoEstimator(t)
	rng := rand.New(rand.NewSource(1))
	obs := NewSimulatedObserver(e, 0.0, rng)

	const n = 2000
	countAt := func(tested float64) int {
		hits := 0
		for i := 0; i < n; i++ {
			hits += obs.Respond(tested)
		}
		return hits
	}

	// far above threshold: only lapses miss (p ~ 0.995)
	if hits := countAt(3.0); hits < n*95/100 {
		t.Errorf("far above threshold: %d/%d correct", hits, n)
	}
	// far below threshold: guessing (p ~ gamma = 0.5)
	hits := countAt(-3.0)
	if hits < n*42/100 || hits > n*58/100 {
		t.Errorf("far below threshold: %d/%d correct, want about half", hits, n)
	}
}

func TestSimulatedObserverClampsToTable(t *testing.T) {
	e := newDemoEstimator(t)
	obs := NewSimulatedObserver(e, 0.0, rand.New(rand.NewSource(2)))
	// intensities way outside the table must not panic; responses stay binary
	for _, tested := range []float64{-1e12, 1e12} {
		r := obs.Respond(tested)
		if r != 0 && r != 1 {
			t.Fatalf("response %d at intensity %v", r, tested)
		}
	}
	if obs.Threshold() != 0 {
		t.Errorf("threshold accessor = %v", obs.Threshold())
	}
}
