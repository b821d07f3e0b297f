package quest

import (
	"fmt"
	"math"

	"questkit/domain/core"
)

// Policy selects how the estimator recommends the next test intensity.
type Policy string

const (
	// PolicyQuantile places the next trial at the most informative quantile
	// of the posterior (Pelli 1987). Default.
	PolicyQuantile Policy = "quantile"
	// PolicyMean places the next trial at the posterior mean (King-Smith et al. 1994).
	PolicyMean Policy = "mean"
	// PolicyMode places the next trial at the posterior mode (Watson & Pelli 1983).
	PolicyMode Policy = "mode"
)

// ParsePolicy converts a string into a recommendation Policy.
// An empty string selects the default quantile policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyQuantile, nil
	case PolicyQuantile, PolicyMean, PolicyMode:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown recommendation policy %q", s)
}

// Params holds the model parameters of a threshold estimator. Threshold is
// measured on an abstract intensity scale, usually log10 contrast.
type Params struct {
	// PriorMean is the prior threshold guess (the center of the grid).
	PriorMean float64 `json:"prior_mean"`
	// PriorSD is the standard deviation assigned to that guess.
	PriorSD float64 `json:"prior_sd"`
	// Criterion is the target probability of a correct response at threshold.
	Criterion float64 `json:"criterion"`
	// Beta controls the steepness of the Weibull psychometric function. Typically 3.5.
	Beta float64 `json:"beta"`
	// Delta is the lapse rate: the fraction of trials on which the observer
	// responds blindly. Typically 0.01.
	Delta float64 `json:"delta"`
	// Gamma is the guess rate: the probability of a correct response when the
	// stimulus is undetectable.
	Gamma float64 `json:"gamma"`
	// Grain is the quantization of the internal grid. Defaults to 0.01.
	Grain float64 `json:"grain"`
	// Range is the intensity span the grid can represent, centered on
	// PriorMean. Intensities outside [PriorMean-Range/2, PriorMean+Range/2]
	// have zero prior probability. Zero selects the default grid dimension.
	Range float64 `json:"range,omitempty"`
}

// DefaultParams returns the parameter set of the classic QUEST demo:
// a 2AFC task with threshold criterion 0.82.
func DefaultParams() Params {
	return Params{
		PriorSD:   2.0,
		Criterion: 0.82,
		Beta:      3.5,
		Delta:     0.01,
		Gamma:     0.5,
		Grain:     0.01,
	}
}

// defaultDim is the grid dimension used when no explicit range is given.
const defaultDim = 500

// gridDim derives the (even) grid dimension from grain and range.
func gridDim(grain, rng float64) (int, error) {
	if grain <= 0 {
		return 0, core.ErrInvalidGrain
	}
	if rng == 0 {
		return defaultDim, nil
	}
	if rng < 0 {
		return 0, core.ErrInvalidRange
	}
	// round up to an even integer so the grid stays symmetric around zero
	return 2 * int(math.Ceil(rng/grain/2)), nil
}
