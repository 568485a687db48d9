// Package simulator drives synthetic gameplay traffic against a
// running verification service for load and behavior checks.
package simulator

import (
	"sync"
	"time"
)

// Config controls one simulation run.
type Config struct {
	// BaseURL of the verification service.
	BaseURL string

	// Sessions is the number of concurrent play sessions to simulate.
	Sessions int

	// SnapshotsPerSession is how many telemetry snapshots each session
	// submits.
	SnapshotsPerSession int

	// Workers is the number of concurrent submitters.
	Workers int

	// Timeout bounds one HTTP request.
	Timeout time.Duration

	// FingerprintSecret, when set, seals submissions the way the real
	// client does.
	FingerprintSecret string

	// Verbose enables per-snapshot logging.
	Verbose bool
}

// Stats aggregates the outcome of a run.
type Stats struct {
	mu sync.Mutex

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	SnapshotsSubmitted int
	SnapshotsFailed    int
	SessionsConfirmed  int
	SessionsErrored    int
	EligibleSessions   int
	BlockedSessions    int
	ClaimsSubmitted    int
	ClaimsAccepted     int
	ClaimsRejected     int
}

func (s *Stats) addSubmitted(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SnapshotsSubmitted += n
}

func (s *Stats) addFailed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SnapshotsFailed += n
}
