package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

const (
	defaultEmitInterval = 10 * time.Second
	defaultHTTPTimeout  = 5 * time.Second
)

// SnapshotSource produces the snapshot to emit for the next sequence
// number. The sampler satisfies this through a thin closure in the
// simulator and the client shell.
type SnapshotSource interface {
	Snapshot(sessionID, userID string, seq uint64, now time.Time) telemetry.Snapshot
}

// Submission is the ingestion request body. Signed carries the sealed
// fingerprint when a sealer is configured; otherwise Snapshot rides
// in the clear.
type Submission struct {
	Signed   string              `json:"signed,omitempty"`
	Snapshot *telemetry.Snapshot `json:"snapshot,omitempty"`
}

// Ack is the ingestion response body.
type Ack struct {
	State           string `json:"state"`
	ConfidenceScore int    `json:"confidenceScore"`
}

// Emitter periodically packages the sampler's counters into a
// fingerprint and ships it to the ingestion endpoint.
type Emitter struct {
	source    SnapshotSource
	sealer    *Sealer
	endpoint  string
	sessionID string
	userID    string
	interval  time.Duration
	client    *http.Client
	log       logger.Logger

	seq uint64
}

// EmitterOption applies a configuration option to the Emitter.
type EmitterOption func(*Emitter)

// WithEmitInterval overrides the submission cadence.
func WithEmitInterval(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(c *http.Client) EmitterOption {
	return func(e *Emitter) {
		if c != nil {
			e.client = c
		}
	}
}

// WithSealer enables HMAC signing of emitted snapshots.
func WithSealer(s *Sealer) EmitterOption {
	return func(e *Emitter) { e.sealer = s }
}

// NewEmitter creates an emitter posting to endpoint for one session.
func NewEmitter(source SnapshotSource, endpoint, sessionID, userID string, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		source:    source,
		endpoint:  endpoint,
		sessionID: sessionID,
		userID:    userID,
		interval:  defaultEmitInterval,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		log:       logger.Get().Named("emitter"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run emits on a fixed cadence until ctx is cancelled. Failed
// submissions are logged and retried on the next tick; the sequence
// number still advances so the server never sees a reused sequence.
func (e *Emitter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.EmitOnce(ctx); err != nil {
				e.log.Warn(ctx, "telemetry submission failed", logger.Error(err))
			}
		}
	}
}

// EmitOnce packages and submits a single snapshot.
func (e *Emitter) EmitOnce(ctx context.Context) (Ack, error) {
	e.seq++
	snap := e.source.Snapshot(e.sessionID, e.userID, e.seq, time.Now().UTC())

	var sub Submission
	if e.sealer != nil {
		signed, err := e.sealer.Seal(snap)
		if err != nil {
			return Ack{}, err
		}
		sub.Signed = signed
	} else {
		sub.Snapshot = &snap
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return Ack{}, fmt.Errorf("encode telemetry submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("build telemetry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Ack{}, fmt.Errorf("submit telemetry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Ack{}, fmt.Errorf("telemetry rejected: status %d: %s", resp.StatusCode, payload)
	}

	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return Ack{}, fmt.Errorf("decode telemetry ack: %w", err)
	}
	return ack, nil
}
