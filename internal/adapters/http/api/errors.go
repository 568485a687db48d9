package api

import "errors"

var (
	// ErrBadRequest is the generic malformed-request error.
	ErrBadRequest = errors.New("bad request")

	ErrMissingSessionID = errors.New("missing sessionId")
	ErrMissingUserID    = errors.New("missing userId")
	ErrMissingSequence  = errors.New("missing sequenceNumber")
	ErrMissingTimestamp = errors.New("missing timestamp")
	ErrFutureTimestamp  = errors.New("timestamp too far in the future")

	// ErrSignatureRequired indicates the server demands sealed
	// submissions but the request carried a bare snapshot.
	ErrSignatureRequired = errors.New("signed telemetry required")
)
