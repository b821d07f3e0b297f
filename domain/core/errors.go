package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors (estimator construction / refit)
	ErrInvalidRange          = errors.New("grid range must be greater than zero")
	ErrInvalidGrain          = errors.New("grid grain must be greater than zero")
	ErrCriterionNotBracketed = errors.New("psychometric function range omits criterion")
	ErrTableNotFinite        = errors.New("psychometric function is not finite")
	ErrTableNotMonotone      = errors.New("psychometric function has too few strictly monotonic points")

	// Numerical degeneracy errors (posterior density operations)
	ErrDensityNotFinite  = errors.New("posterior density is not finite")
	ErrDensityAllZero    = errors.New("posterior density is all zero")
	ErrDensityDegenerate = errors.New("posterior density has too few strictly increasing points")

	// Input validation errors
	ErrInvalidResponse = errors.New("response code out of range")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session already finished")
)

// Error constructors with context

func NewCriterionError(low, high, criterion float64) error {
	return fmt.Errorf("%w: range [%.2f %.2f] omits %.2f threshold", ErrCriterionNotBracketed, low, high, criterion)
}

func NewMonotoneError(points int) error {
	return fmt.Errorf("%w: only %d strictly monotonic point(s)", ErrTableNotMonotone, points)
}

func NewDegenerateError(points int) error {
	return fmt.Errorf("%w: only %d nonzero point(s)", ErrDensityDegenerate, points)
}

func NewResponseError(response, rows int) error {
	return fmt.Errorf("%w: response %d out of range 0 to %d", ErrInvalidResponse, response, rows-1)
}

// Error checking helpers

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidGrain) ||
		errors.Is(err, ErrCriterionNotBracketed) ||
		errors.Is(err, ErrTableNotFinite) ||
		errors.Is(err, ErrTableNotMonotone)
}

func IsDegeneracyError(err error) bool {
	return errors.Is(err, ErrDensityNotFinite) ||
		errors.Is(err, ErrDensityAllZero) ||
		errors.Is(err, ErrDensityDegenerate)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}
