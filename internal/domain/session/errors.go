package session

import "errors"

// Sentinel kinds for session errors.
var (
	// ErrInvariantViolation marks a record whose counters cannot come
	// from honest telemetry; the session is escalated and blocked.
	ErrInvariantViolation = errors.New("verification invariant violated")

	// ErrSamplerFailureStorm marks a session whose client sampler
	// reported too many consecutive read failures.
	ErrSamplerFailureStorm = errors.New("sampler failure storm")

	// ErrSessionErrored rejects signals against a terminally errored
	// session.
	ErrSessionErrored = errors.New("session in error state")
)
