// Package registry is the server-side store of verification records.
// It serializes all mutation per session so the state machine stays
// the single writer.
package registry

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/confidence"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/session"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/metrics"
)

const defaultShardCount = 16

// Ack reports the session status after one applied snapshot.
type Ack struct {
	State           session.State
	ConfidenceScore int
}

// entry pairs a record with its lock. The lock is per session, so
// contention is limited to one client's own submissions.
type entry struct {
	mu     sync.Mutex
	record *session.Record
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	archived map[string]*entry
}

// Registry stores live and archived verification records sharded by
// session id.
type Registry struct {
	shards  []*shard
	machine *session.Machine
	scorer  *confidence.Scorer
	log     logger.Logger
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithShardCount sets the number of shards.
func WithShardCount(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.shards = make([]*shard, n)
		}
	}
}

// WithLogger sets a custom logger for the registry.
func WithLogger(log logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a registry driven by the live policy.
func New(policies *config.PolicyStore, opts ...Option) *Registry {
	r := &Registry{
		shards:  make([]*shard, defaultShardCount),
		machine: session.NewMachine(policies),
		scorer:  confidence.NewScorer(policies),
		log:     logger.Get().Named("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.shards {
		r.shards[i] = &shard{
			sessions: make(map[string]*entry),
			archived: make(map[string]*entry),
		}
	}
	return r
}

func (r *Registry) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Apply folds one telemetry snapshot into the session's record,
// creating the record on first contact. Snapshots at or below the
// last applied sequence are dropped with ErrStaleSnapshot so replays
// and reordered deliveries cannot rewind counters.
func (r *Registry) Apply(ctx context.Context, snap telemetry.Snapshot) (Ack, error) {
	if snap.SessionID == "" {
		return Ack{}, fmt.Errorf("%w: empty sessionId", ErrBadSnapshot)
	}

	sh := r.shardFor(snap.SessionID)

	sh.mu.Lock()
	if _, archived := sh.archived[snap.SessionID]; archived {
		sh.mu.Unlock()
		return Ack{}, ErrSessionEnded
	}
	e, ok := sh.sessions[snap.SessionID]
	if !ok {
		e = &entry{record: session.NewRecord(snap.UserID, snap.SessionID, snap.Timestamp)}
		sh.sessions[snap.SessionID] = e
	}
	sh.mu.Unlock()
	if !ok {
		metrics.UpdateActiveSessions(r.ActiveCount())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if snap.Sequence <= e.record.LastSequence {
		metrics.RecordSnapshotStale()
		return Ack{State: e.record.State, ConfidenceScore: e.record.ConfidenceScore}, ErrStaleSnapshot
	}
	e.record.LastSequence = snap.Sequence

	breakdown := r.scorer.Score(snap.Metrics, snap.Metrics.Elapsed(snap.Timestamp))

	sig := session.Signal{
		GameProcessDetected:    snap.GameProcessDetected,
		GameForeground:         snap.GameForeground,
		ConfidenceScore:        breakdown.Score,
		ConfidenceValid:        breakdown.Valid(),
		ActivePlaySeconds:      snap.ActivePlaySeconds,
		SessionDurationSeconds: snap.SessionDurationSeconds,
		FailureStorm:           snap.FailureStorm,
		At:                     snap.Timestamp,
	}

	transition, err := r.machine.Apply(e.record, sig)
	if transition.Changed {
		metrics.RecordStateTransition(string(transition.From), string(transition.To))
		r.log.Info(ctx, "session transition",
			logger.String("sessionID", snap.SessionID),
			logger.String("from", string(transition.From)),
			logger.String("to", string(transition.To)),
		)
	}
	if err != nil {
		metrics.RecordSessionError()
		return Ack{State: e.record.State, ConfidenceScore: e.record.ConfidenceScore}, err
	}

	metrics.RecordSnapshotProcessed()
	return Ack{State: e.record.State, ConfidenceScore: e.record.ConfidenceScore}, nil
}

// Get returns a copy of the session's record, live or archived.
func (r *Registry) Get(sessionID string) (session.Record, error) {
	sh := r.shardFor(sessionID)

	sh.mu.RLock()
	e, ok := sh.sessions[sessionID]
	if !ok {
		e, ok = sh.archived[sessionID]
	}
	sh.mu.RUnlock()
	if !ok {
		return session.Record{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.record, nil
}

// End archives the session's record. Archived records stay readable
// for audits and claims but accept no further telemetry.
func (r *Registry) End(ctx context.Context, sessionID string, at time.Time) (session.Record, error) {
	sh := r.shardFor(sessionID)

	sh.mu.Lock()
	e, ok := sh.sessions[sessionID]
	if !ok {
		_, archived := sh.archived[sessionID]
		sh.mu.Unlock()
		if archived {
			return r.Get(sessionID)
		}
		return session.Record{}, ErrSessionNotFound
	}
	delete(sh.sessions, sessionID)
	sh.archived[sessionID] = e
	sh.mu.Unlock()

	e.mu.Lock()
	r.machine.End(e.record, at)
	rec := *e.record
	e.mu.Unlock()

	metrics.UpdateActiveSessions(r.ActiveCount())
	metrics.UpdateArchivedSessions(r.ArchivedCount())
	r.log.Info(ctx, "session archived", logger.String("sessionID", sessionID))
	return rec, nil
}

// ActiveCount returns the number of live sessions.
func (r *Registry) ActiveCount() int {
	total := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}

// ArchivedCount returns the number of archived sessions.
func (r *Registry) ArchivedCount() int {
	total := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		total += len(sh.archived)
		sh.mu.RUnlock()
	}
	return total
}
