// Package session tracks the authoritative per-session play status
// through the verification state machine.
package session

import (
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/confidence"
)

// State is the verification state of one play session.
type State string

const (
	StateNotPlaying          State = "NOT_PLAYING"
	StateGameDetected        State = "GAME_DETECTED"
	StateActivePlayConfirmed State = "ACTIVE_PLAY_CONFIRMED"
	StatePaused              State = "PAUSED"
	// StateError is terminal for the session; a new session is required
	// to resume accrual.
	StateError State = "ERROR"
)

// durationTolerance allows activePlaySeconds to exceed the session
// duration by 10% before the record is considered tampered.
const durationTolerance = 1.1

// Record is the server-owned verification record for one session. It
// is mutated only through Machine.Apply under the registry's
// per-session lock, and archived rather than deleted on session end.
type Record struct {
	UserID                 string    `json:"userId"`
	SessionID              string    `json:"sessionId"`
	State                  State     `json:"state"`
	ActivePlaySeconds      int64     `json:"activePlaySeconds"`
	SessionDurationSeconds int64     `json:"sessionDurationSeconds"`
	GameProcessDetected    bool      `json:"gameProcessDetected"`
	GameForeground         bool      `json:"isGameForeground"`
	ConfidenceScore        int       `json:"confidenceScore"`
	LastTransitionAt       time.Time `json:"lastTransitionAt"`
	LastSequence           uint64    `json:"lastSequence"`
	StartedAt              time.Time `json:"startedAt"`
	EndedAt                time.Time `json:"endedAt,omitempty"`
}

// NewRecord creates a record in the initial state.
func NewRecord(userID, sessionID string, now time.Time) *Record {
	return &Record{
		UserID:           userID,
		SessionID:        sessionID,
		State:            StateNotPlaying,
		LastTransitionAt: now,
		StartedAt:        now,
	}
}

// DurationInvariantHolds reports whether active play stays within the
// tolerated share of the session duration.
func (r *Record) DurationInvariantHolds() bool {
	if r.SessionDurationSeconds == 0 {
		return r.ActivePlaySeconds == 0
	}
	return float64(r.ActivePlaySeconds) <= float64(r.SessionDurationSeconds)*durationTolerance
}

// Signal carries the facts from one applied telemetry snapshot.
type Signal struct {
	GameProcessDetected    bool
	GameForeground         bool
	ConfidenceScore        int
	ConfidenceValid        bool
	ActivePlaySeconds      int64
	SessionDurationSeconds int64
	FailureStorm           bool
	At                     time.Time
}

// Transition describes one applied state change.
type Transition struct {
	From    State
	To      State
	Changed bool
}

// Machine applies signals to records. It must be the single writer for
// a record; the registry serializes calls per session.
type Machine struct {
	policies *config.PolicyStore
}

// NewMachine creates a state machine bound to the live policy.
func NewMachine(policies *config.PolicyStore) *Machine {
	return &Machine{policies: policies}
}

// Apply folds a signal into the record and evaluates the transition
// table. Counters never rewind: a signal carrying smaller values than
// the record keeps the record's values. Applying the same signal twice
// yields the same record state, so duplicate deliveries cannot double
// count.
func (m *Machine) Apply(r *Record, sig Signal) (Transition, error) {
	p := m.policies.Current()
	from := r.State

	// Fold facts. Play-time counters are monotonic.
	if sig.ActivePlaySeconds > r.ActivePlaySeconds {
		r.ActivePlaySeconds = sig.ActivePlaySeconds
	}
	if sig.SessionDurationSeconds > r.SessionDurationSeconds {
		r.SessionDurationSeconds = sig.SessionDurationSeconds
	}
	r.GameProcessDetected = sig.GameProcessDetected
	r.GameForeground = sig.GameForeground
	r.ConfidenceScore = sig.ConfidenceScore

	if r.State == StateError {
		return Transition{From: from, To: StateError}, ErrSessionErrored
	}

	// Escalations take precedence over the transition table.
	if !r.DurationInvariantHolds() {
		m.escalate(r, sig.At)
		return Transition{From: from, To: StateError, Changed: true}, ErrInvariantViolation
	}
	if sig.FailureStorm {
		m.escalate(r, sig.At)
		return Transition{From: from, To: StateError, Changed: true}, ErrSamplerFailureStorm
	}

	to := next(r, sig, p)
	if to != from {
		r.State = to
		r.LastTransitionAt = sig.At
	}
	return Transition{From: from, To: to, Changed: to != from}, nil
}

// next evaluates the transition table for the current record.
func next(r *Record, sig Signal, p config.Policy) State {
	confident := sig.ConfidenceValid && sig.ConfidenceScore >= confidence.ValidFloor

	switch r.State {
	case StateNotPlaying:
		if sig.GameProcessDetected {
			return StateGameDetected
		}
	case StateGameDetected:
		if confident && sig.GameForeground && r.ActivePlaySeconds >= p.MinActivePlaySeconds {
			return StateActivePlayConfirmed
		}
	case StateActivePlayConfirmed:
		if !sig.GameForeground || !confident {
			return StatePaused
		}
	case StatePaused:
		if sig.GameForeground && confident {
			return StateActivePlayConfirmed
		}
	case StateError:
		// Terminal.
	}
	return r.State
}

// escalate forces the record into the terminal error state.
func (m *Machine) escalate(r *Record, at time.Time) {
	r.State = StateError
	r.LastTransitionAt = at
}

// End marks the record archived.
func (m *Machine) End(r *Record, at time.Time) {
	r.EndedAt = at
}
