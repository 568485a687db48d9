// Package sampler runs the 10 Hz input telemetry loop on the
// companion client and accumulates per-session counters.
package sampler

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/client/device"
	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

const (
	defaultInterval = 100 * time.Millisecond
	defaultRingSize = 600 // one minute of raw samples at 10 Hz
)

// RawSample is one forensic reading kept in the ring buffer. The ring
// exists for incident replay only and never feeds scoring.
type RawSample struct {
	At             time.Time
	Pointer        device.PointerSample
	Keys           device.KeyState
	ProcessRunning bool
	Foreground     bool
	Dropped        bool
}

// Sampler polls a device Capability at a fixed cadence and folds the
// readings into monotonic session counters. One Sampler serves one
// session; Run is the single writer, readers take value copies.
type Sampler struct {
	dev      device.Capability
	policies *config.PolicyStore
	interval time.Duration
	log      logger.Logger

	mu                  sync.Mutex
	metrics             telemetry.Metrics
	activePlay          time.Duration
	processRunning      bool
	foreground          bool
	consecutiveFailures int
	failureStorm        bool
	lastPointer         device.PointerSample
	havePointer         bool
	lastClickDown       bool

	ring     []RawSample
	ringNext int
	ringLen  int
}

// Option applies a configuration option to the Sampler.
type Option func(*Sampler)

// WithInterval overrides the sampling cadence.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRingSize bounds the forensic ring buffer.
func WithRingSize(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.ring = make([]RawSample, n)
		}
	}
}

// WithLogger sets a custom logger for the sampler.
func WithLogger(log logger.Logger) Option {
	return func(s *Sampler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSessionStart backdates the session origin. Replay tools use it
// to drive a session under synthetic time.
func WithSessionStart(t time.Time) Option {
	return func(s *Sampler) {
		if !t.IsZero() {
			s.metrics.SessionStart = t
		}
	}
}

// New creates a sampler over the given device for a fresh session.
func New(dev device.Capability, policies *config.PolicyStore, opts ...Option) *Sampler {
	s := &Sampler{
		dev:      dev,
		policies: policies,
		interval: defaultInterval,
		ring:     make([]RawSample, defaultRingSize),
		log:      logger.Get().Named("sampler"),
		metrics:  telemetry.Metrics{SessionStart: time.Now().UTC()},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the sampling loop until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info(ctx, "sampler started", logger.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "sampler stopped")
			return
		case now := <-ticker.C:
			s.Sample(ctx, now)
		}
	}
}

// Sample performs one probe round at the given instant. A failed read
// drops the sample: counters stay untouched and only the consecutive
// failure count moves.
func (s *Sampler) Sample(ctx context.Context, now time.Time) {
	running, err := s.dev.DetectProcess(ctx)
	if err != nil {
		s.recordFailure(now)
		return
	}
	foreground, err := s.dev.IsForeground(ctx)
	if err != nil {
		s.recordFailure(now)
		return
	}
	pointer, err := s.dev.SamplePointer(ctx)
	if err != nil {
		s.recordFailure(now)
		return
	}
	keys, err := s.dev.SampleKeys(ctx)
	if err != nil {
		s.recordFailure(now)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures = 0
	s.processRunning = running
	s.foreground = foreground

	clickEdge := keys.ClickDown && !s.lastClickDown
	s.lastClickDown = keys.ClickDown

	s.metrics.TotalInputs += keys.KeyEvents
	s.metrics.MovementKeyEvents += keys.MovementKeyEvents
	if clickEdge {
		s.metrics.ClickEvents++
		s.metrics.TotalInputs++
	}
	if s.havePointer {
		s.metrics.PointerDistance += math.Hypot(pointer.X-s.lastPointer.X, pointer.Y-s.lastPointer.Y)
	}
	s.lastPointer = pointer
	s.havePointer = true

	if running && foreground {
		s.activePlay += s.interval
	}

	s.push(RawSample{
		At:             now,
		Pointer:        pointer,
		Keys:           keys,
		ProcessRunning: running,
		Foreground:     foreground,
	})
}

// recordFailure notes a dropped sample and raises the failure storm
// flag when the consecutive threshold is crossed. The flag stays up
// for the rest of the session; escalation is the server's call.
func (s *Sampler) recordFailure(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures++
	threshold := s.policies.Current().FailureStormThreshold
	if !s.failureStorm && threshold > 0 && s.consecutiveFailures >= threshold {
		s.failureStorm = true
		s.log.Warn(context.Background(), "sampler failure storm",
			logger.Int("consecutiveFailures", s.consecutiveFailures),
		)
	}
	s.push(RawSample{At: now, Dropped: true})
}

// Metrics returns a copy of the session counters.
func (s *Sampler) Metrics() telemetry.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Snapshot packages the current counters for submission under the
// given sequence number.
func (s *Sampler) Snapshot(sessionID, userID string, seq uint64, now time.Time) telemetry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return telemetry.Snapshot{
		SessionID:              sessionID,
		UserID:                 userID,
		Metrics:                s.metrics,
		ActivePlaySeconds:      int64(s.activePlay / time.Second),
		SessionDurationSeconds: int64(s.metrics.Elapsed(now) / time.Second),
		GameProcessDetected:    s.processRunning,
		GameForeground:         s.foreground,
		FailureStorm:           s.failureStorm,
		Timestamp:              now,
		Sequence:               seq,
	}
}

// FailureStorm reports whether the storm flag has been raised.
func (s *Sampler) FailureStorm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failureStorm
}

// Recent returns up to n of the newest forensic samples, newest first.
func (s *Sampler) Recent(n int) []RawSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || s.ringLen == 0 {
		return nil
	}
	if n > s.ringLen {
		n = s.ringLen
	}
	out := make([]RawSample, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.ringNext - 1 - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out
}

// push appends to the ring, evicting the oldest entry when full.
// Caller holds s.mu.
func (s *Sampler) push(raw RawSample) {
	s.ring[s.ringNext] = raw
	s.ringNext = (s.ringNext + 1) % len(s.ring)
	if s.ringLen < len(s.ring) {
		s.ringLen++
	}
}
