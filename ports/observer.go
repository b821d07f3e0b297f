package ports

// Observer yields a binary response to a presented stimulus intensity.
// Implementations may be simulated observers or bridges to real response
// capture; the estimator core never sees anything but the 0/1 outcome.
type Observer interface {
	Respond(intensity float64) int
}
