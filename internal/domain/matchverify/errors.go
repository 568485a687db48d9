package matchverify

import "errors"

var (
	// ErrBadClaim indicates a claim missing required fields.
	ErrBadClaim = errors.New("malformed match claim")

	// ErrMatchNotFound indicates the oracle has no record of the match.
	ErrMatchNotFound = errors.New("match not found")

	// ErrPlayerNotInMatch indicates the claimant's handle does not
	// appear in the match participant list.
	ErrPlayerNotInMatch = errors.New("player not in match")

	// ErrOracleUnavailable indicates a transient oracle failure. The
	// claim may be retried.
	ErrOracleUnavailable = errors.New("match oracle unavailable")
)
