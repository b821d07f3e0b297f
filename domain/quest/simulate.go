package quest

import "math/rand"

// SimulatedObserver produces binary responses from a known latent threshold.
// It exists to generate synthetic trial sequences for validating an
// estimator; it holds no estimator state of its own.
type SimulatedObserver struct {
	table     *psychTable
	threshold float64
	rng       *rand.Rand
}

// NewSimulatedObserver builds an observer whose responses follow the
// estimator's psychometric model around the given latent threshold. Pass a
// seeded rng for reproducible sequences.
func NewSimulatedObserver(e *Estimator, threshold float64, rng *rand.Rand) *SimulatedObserver {
	return &SimulatedObserver{table: e.table, threshold: threshold, rng: rng}
}

// Respond simulates one trial at the tested intensity: the modeled hit
// probability at clamp(tested-threshold, table bounds) against a uniform
// draw. Returns 1 for a correct response, 0 otherwise.
func (o *SimulatedObserver) Respond(tested float64) int {
	t := tested - o.threshold
	lo, hi := o.table.bounds()
	if t < lo {
		t = lo
	}
	if t > hi {
		t = hi
	}
	if o.table.prob(t) > o.rng.Float64() {
		return 1
	}
	return 0
}

// Threshold returns the observer's latent threshold.
func (o *SimulatedObserver) Threshold() float64 {
	return o.threshold
}
