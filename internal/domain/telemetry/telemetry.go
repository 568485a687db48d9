// Package telemetry contains the input telemetry value types passed
// between the sampler, the scorer, and the server.
package telemetry

import "time"

// Metrics holds the rolling per-session input counters. The sampler
// owns a Metrics value while the session is live and hands copies to
// the scorer; all counters are monotonically non-decreasing within a
// session.
type Metrics struct {
	TotalInputs       uint64    `json:"totalInputs"`
	MovementKeyEvents uint64    `json:"movementKeyEvents"`
	PointerDistance   float64   `json:"pointerDistance"`
	ClickEvents       uint64    `json:"clickEvents"`
	SessionStart      time.Time `json:"sessionStart"`
}

// Elapsed returns the session time accumulated at now.
func (m Metrics) Elapsed(now time.Time) time.Duration {
	if m.SessionStart.IsZero() || now.Before(m.SessionStart) {
		return 0
	}
	return now.Sub(m.SessionStart)
}

// Snapshot is one telemetry submission for a session. Snapshots carry a
// sequence number so the server can drop duplicates and out-of-order
// arrivals without rewinding session counters.
type Snapshot struct {
	SessionID              string    `json:"sessionId"`
	UserID                 string    `json:"userId"`
	Metrics                Metrics   `json:"metrics"`
	ActivePlaySeconds      int64     `json:"activePlaySeconds"`
	SessionDurationSeconds int64     `json:"sessionDurationSeconds"`
	GameProcessDetected    bool      `json:"gameProcessDetected"`
	GameForeground         bool      `json:"gameForeground"`
	FailureStorm           bool      `json:"failureStorm"`
	Timestamp              time.Time `json:"timestamp"`
	Sequence               uint64    `json:"sequenceNumber"`
}

// ReplayKey returns the dedupe key identifying this snapshot.
func (s Snapshot) ReplayKey() string {
	return s.SessionID + ":" + formatSequence(s.Sequence)
}

func formatSequence(seq uint64) string {
	// Avoid fmt for the hot ingestion path.
	if seq == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for seq > 0 {
		i--
		buf[i] = byte('0' + seq%10)
		seq /= 10
	}
	return string(buf[i:])
}
