package confidence

import "errors"

// Sentinel kinds for confidence errors.
var (
	// ErrInsufficientData marks a session too young to score. Callers
	// should wait, not treat the session as invalid.
	ErrInsufficientData = errors.New("insufficient data")
)
