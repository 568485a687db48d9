package registry

import "errors"

var (
	// ErrBadSnapshot indicates a snapshot missing required fields.
	ErrBadSnapshot = errors.New("malformed telemetry snapshot")

	// ErrStaleSnapshot indicates a duplicate or out-of-order sequence
	// number. The snapshot is dropped, not an escalation.
	ErrStaleSnapshot = errors.New("stale telemetry snapshot")

	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded indicates telemetry arrived for an archived
	// session.
	ErrSessionEnded = errors.New("session already ended")
)
