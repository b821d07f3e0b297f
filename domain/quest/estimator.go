package quest

import (
	"slices"

	"questkit/domain/core"
)

// Trial is one observed (intensity, response) pair. Response 1 means correct,
// 0 means incorrect.
type Trial struct {
	Intensity float64 `json:"intensity"`
	Response  int     `json:"response"`
}

// WarnFunc receives recoverable warnings (range clips, gamma reduction).
// Warnings never abort an operation.
type WarnFunc func(format string, args ...any)

// Option configures an Estimator at construction time.
type Option func(*Estimator)

// WithWarnFunc routes recoverable warnings to fn instead of discarding them.
func WithWarnFunc(fn WarnFunc) Option {
	return func(e *Estimator) { e.warnf = fn }
}

// WithoutNormalization keeps the posterior density unnormalized after
// updates. The prior is still normalized to sum 1.
func WithoutNormalization() Option {
	return func(e *Estimator) { e.normalize = false }
}

// WithoutDensityUpdates records trials without updating the posterior.
// Recompute rebuilds the posterior from the recorded history on demand.
func WithoutDensityUpdates() Option {
	return func(e *Estimator) { e.updateDensity = false }
}

// WithoutClipWarnings suppresses the out-of-range warning on Update.
func WithoutClipWarnings() Option {
	return func(e *Estimator) { e.warnOnClip = false }
}

// Estimator measures a perceptual threshold with the QUEST procedure
// (Watson & Pelli 1983): a discretized Bayesian posterior over candidate
// threshold offsets, updated trial by trial from binary responses against a
// Weibull psychometric model.
//
// An Estimator is owned by a single experiment loop. It is not safe for
// concurrent use; callers must serialize Update/Recompute with any reads on
// the same instance. Queries never mutate state.
type Estimator struct {
	params        Params
	dim           int
	grid          *posteriorGrid
	table         *psychTable
	kernel        [2][]float64
	quantileOrder float64
	trials        []Trial

	updateDensity bool
	warnOnClip    bool
	normalize     bool
	warnf         WarnFunc
}

// New builds an estimator from the given parameters and computes the prior
// posterior. Construction fails on any configuration error (bad range or
// grain, criterion outside the psychometric table, non-finite or flat table).
func New(p Params, opts ...Option) (*Estimator, error) {
	e := &Estimator{
		params:        p,
		updateDensity: true,
		warnOnClip:    true,
		normalize:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Recompute(); err != nil {
		return nil, err
	}
	return e, nil
}

// maxIntensity bounds incoming intensities so the grid shift stays finite.
const maxIntensity = 1e10

// renormEvery bounds how many replayed trials may multiply into the density
// between renormalizations. Pure underflow guard; it does not change the
// final normalized result.
const renormEvery = 100

// Recompute rebuilds the psychometric table and the posterior from the
// current parameters, then replays the full trial history in order. The
// estimator is left untouched if any step fails. A posterior rebuilt here is
// bit-identical to one built incrementally from the same updates.
func (e *Estimator) Recompute() error {
	p := e.params
	dim, err := gridDim(p.Grain, p.Range)
	if err != nil {
		return err
	}
	if p.Gamma > p.Criterion {
		e.warn("reducing gamma from %.2f to 0.5", p.Gamma)
		p.Gamma = 0.5
	}
	table, err := newPsychTable(p, dim)
	if err != nil {
		return err
	}
	kernel := table.responseKernel()
	grid := newPosteriorGrid(dim, p.Grain, p.PriorSD)

	// Replay history against the fresh model. Warnings stay silent here:
	// every clip was already reported when the trial first arrived.
	for k, tr := range e.trials {
		if err := applyTrial(grid.density, kernel, dim, p, tr.Intensity, tr.Response, nil); err != nil {
			return err
		}
		if e.normalize && (k+1)%renormEvery == 0 {
			if err := normalizeDensity(grid.density); err != nil {
				return err
			}
		}
	}
	if e.normalize {
		if err := normalizeDensity(grid.density); err != nil {
			return err
		}
	}
	if !allFinite(grid.density) {
		return core.ErrDensityNotFinite
	}

	e.params = p // keeps a clamped gamma for later refits
	e.dim = dim
	e.table = table
	e.kernel = kernel
	e.grid = grid
	e.quantileOrder = table.optimalQuantileOrder()
	return nil
}

// applyTrial multiplies one trial's response-kernel row into density at the
// grid shift matching the tested intensity. Shifts beyond the representable
// window are clipped to the nearest valid shift; warnf (if non-nil) is told
// that the resulting posterior is inexact.
func applyTrial(density []float64, kernel [2][]float64, dim int, p Params, intensity float64, response int, warnf WarnFunc) error {
	if response < 0 || response >= len(kernel) {
		return core.NewResponseError(response, len(kernel))
	}
	inten := intensity
	if inten > maxIntensity {
		inten = maxIntensity
	} else if inten < -maxIntensity {
		inten = -maxIntensity
	}
	shift := RoundHalfAwayFromZero((inten - p.PriorMean) / p.Grain)
	half := dim / 2
	if shift < -half || shift > half {
		if warnf != nil {
			warnf("intensity %.2f out of range %.2f to %.2f, posterior will be inexact",
				intensity, p.PriorMean-float64(half)*p.Grain, p.PriorMean+float64(half)*p.Grain)
		}
		if shift > half {
			shift = half
		} else {
			shift = -half
		}
	}
	row := kernel[response]
	for k := range density {
		density[k] *= row[k+half-shift]
	}
	return nil
}

// Update feeds one trial outcome into the estimator. The trial is appended to
// the history unconditionally (even when density updates are disabled); the
// posterior is only replaced once the whole update has succeeded, so a failed
// update leaves the estimator exactly as it was.
func (e *Estimator) Update(intensity float64, response int) error {
	if response < 0 || response >= len(e.kernel) {
		return core.NewResponseError(response, len(e.kernel))
	}
	if e.updateDensity {
		next := slices.Clone(e.grid.density)
		var warnf WarnFunc
		if e.warnOnClip {
			warnf = e.warn
		}
		if err := applyTrial(next, e.kernel, e.dim, e.params, intensity, response, warnf); err != nil {
			return err
		}
		if e.normalize {
			if err := normalizeDensity(next); err != nil {
				return err
			}
		}
		e.grid.density = next
	}
	e.trials = append(e.trials, Trial{Intensity: intensity, Response: response})
	return nil
}

// Recommend returns the next intensity to test under the given policy.
func (e *Estimator) Recommend(policy Policy) (float64, error) {
	switch policy {
	case PolicyQuantile, "":
		return e.Quantile(e.quantileOrder)
	case PolicyMean:
		return e.Mean(), nil
	case PolicyMode:
		t, _ := e.Mode()
		return t, nil
	}
	_, err := ParsePolicy(string(policy))
	return 0, err
}

// Quantile returns the absolute intensity at which the posterior's cumulative
// mass reaches order. Fails if the posterior has degenerated.
func (e *Estimator) Quantile(order float64) (float64, error) {
	off, err := e.grid.Quantile(order)
	if err != nil {
		return 0, err
	}
	return e.params.PriorMean + off, nil
}

// Mean returns the posterior-mean threshold estimate.
func (e *Estimator) Mean() float64 {
	return e.params.PriorMean + e.grid.Mean()
}

// SD returns the standard deviation of the posterior.
func (e *Estimator) SD() float64 {
	return e.grid.SD()
}

// Mode returns the posterior-mode threshold estimate and the (unnormalized)
// density at that point.
func (e *Estimator) Mode() (threshold, density float64) {
	off, d := e.grid.Mode()
	return e.params.PriorMean + off, d
}

// DensityAt returns the posterior density of candidate threshold t, clamped
// to the grid edges. The intensity is bounded like Update's so an overflowing
// division cannot flip a huge positive t onto the low edge.
func (e *Estimator) DensityAt(t float64) float64 {
	if t > maxIntensity {
		t = maxIntensity
	} else if t < -maxIntensity {
		t = -maxIntensity
	}
	i := RoundHalfAwayFromZero((t-e.params.PriorMean)/e.params.Grain) + e.dim/2
	return e.grid.densityAtIndex(i)
}

// ProbCorrect returns the modeled probability of a correct response at
// relative intensity x, assuming the threshold sits at x=0.
func (e *Estimator) ProbCorrect(x float64) float64 {
	return e.table.prob(x)
}

// CriterionOffset returns the intensity offset at which the unshifted
// psychometric function crosses the criterion probability. All reported
// intensities are relative to this zero-point.
func (e *Estimator) CriterionOffset() float64 {
	return e.table.xThreshold
}

// QuantileOrder returns the precomputed most-informative quantile order used
// by the default recommendation policy.
func (e *Estimator) QuantileOrder() float64 {
	return e.quantileOrder
}

// Params returns the current model parameters (gamma may have been clamped).
func (e *Estimator) Params() Params {
	return e.params
}

// Trials returns a copy of the trial history in observation order.
func (e *Estimator) Trials() []Trial {
	return slices.Clone(e.trials)
}

// TrialCount returns the number of recorded trials.
func (e *Estimator) TrialCount() int {
	return len(e.trials)
}

// Refit builds a new estimator with different model parameters and the same
// trial history, replayed from scratch. The receiver is left untouched.
func (e *Estimator) Refit(p Params) (*Estimator, error) {
	ne := &Estimator{
		params:        p,
		trials:        slices.Clone(e.trials),
		updateDensity: e.updateDensity,
		warnOnClip:    e.warnOnClip,
		normalize:     e.normalize,
		warnf:         e.warnf,
	}
	if err := ne.Recompute(); err != nil {
		return nil, err
	}
	return ne, nil
}

// Replay builds an estimator from parameters and a pre-recorded history.
func Replay(p Params, trials []Trial, opts ...Option) (*Estimator, error) {
	e := &Estimator{
		params:        p,
		trials:        slices.Clone(trials),
		updateDensity: true,
		warnOnClip:    true,
		normalize:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Recompute(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Estimator) warn(format string, args ...any) {
	if e.warnf != nil {
		e.warnf(format, args...)
	}
}
