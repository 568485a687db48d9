// Package service provides the core verification service that
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/audit"
	auditqueue "github.com/djjrip/gg-loop-platform-sub004/internal/adapters/mq/queue"
	auditworker "github.com/djjrip/gg-loop-platform-sub004/internal/adapters/mq/worker"
	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/registry"
	"github.com/djjrip/gg-loop-platform-sub004/internal/client/fingerprint"
	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/dedupe"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/guardrail"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/matchverify"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/session"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/metrics"
)

// Service implements the API dependencies for the verification engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	policies   *config.PolicyStore
	sessions   *registry.Registry
	deduper    dedupe.Deduper
	evaluator  *guardrail.Evaluator
	verifier   *matchverify.Verifier
	auditLog   *audit.Log
	auditQueue auditqueue.Queue
	auditPool  *auditworker.Pool
	sealer     *fingerprint.Sealer

	// Collaborator boundaries
	oracle   matchverify.Oracle
	resolver matchverify.Resolver
	awarder  matchverify.Awarder

	// Configuration
	workerCount    int
	auditQueueSize int
	dedupeSize     int
	shardCount     int
	oracleTimeout  time.Duration
	oracleRegion   string
	secret         string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(policies *config.PolicyStore, opts ...Option) *Service {
	s := &Service{
		policies:       policies,
		workerCount:    runtime.NumCPU() * 2,
		auditQueueSize: 100000,
		dedupeSize:     500000,
		shardCount:     16,
		oracleTimeout:  5 * time.Second,
		oracleRegion:   "na1",
		logger:         nil, // replaced when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.oracle == nil || s.resolver == nil || s.awarder == nil {
		return ErrMissingCollaborator
	}

	s.logger.Info(ctx, "starting verification service...")

	if s.secret != "" {
		sealer, err := fingerprint.NewSealer(s.secret)
		if err != nil {
			return fmt.Errorf("configure fingerprint sealer: %w", err)
		}
		s.sealer = sealer
	}

	s.sessions = registry.New(s.policies, registry.WithShardCount(s.shardCount))
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.auditLog = audit.NewLog()
	s.auditQueue = auditqueue.NewInMemoryQueue(
		auditqueue.WithCapacity(s.auditQueueSize),
		auditqueue.WithBufferSize(s.auditQueueSize),
	)
	s.auditPool = auditworker.NewPool(s.workerCount, s.auditQueue, s.auditLog)
	s.auditPool.Start(ctx)

	s.evaluator = guardrail.NewEvaluator(s.policies,
		guardrail.WithAuditor(&queueAuditor{queue: s.auditQueue}),
	)
	s.verifier = matchverify.NewVerifier(s.oracle, s.resolver, s.awarder, s.policies,
		matchverify.WithRegion(s.oracleRegion),
		matchverify.WithTimeout(s.oracleTimeout),
	)

	s.started = true
	s.logger.Info(ctx, "verification service started",
		logger.Int("workers", s.workerCount),
		logger.Int("auditQueueSize", s.auditQueueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("shards", s.shardCount),
		logger.Bool("signedTelemetry", s.sealer != nil),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping verification service...")

	// Shutting down the pool closes the queue and drains what remains.
	if s.auditPool != nil {
		_ = s.auditPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "verification service stopped")
}

// queueAuditor bridges guardrail evaluations onto the audit queue so
// the hot path never waits on audit persistence.
type queueAuditor struct {
	queue auditqueue.Queue
}

func (a *queueAuditor) Audit(r session.Record, res guardrail.Result) {
	a.queue.Enqueue(context.Background(), audit.Entry{
		At:            time.Now().UTC(),
		UserID:        r.UserID,
		SessionID:     r.SessionID,
		Allowed:       res.Allowed,
		Reason:        res.Reason,
		Score:         res.ConfidenceScore,
		Multiplier:    res.Multiplier,
		Warnings:      res.Warnings,
		PolicyVersion: res.PolicyVersion,
	})
}

// ApplyTelemetry folds one snapshot into its session record.
func (s *Service) ApplyTelemetry(ctx context.Context, snap telemetry.Snapshot) (registry.Ack, error) {
	return s.sessions.Apply(ctx, snap)
}

// SeenSnapshot atomically checks whether a replay key was ingested
// before and records it if not.
func (s *Service) SeenSnapshot(ctx context.Context, key string) bool {
	return s.deduper.SeenAndRecord(ctx, key)
}

// SignatureRequired reports whether only sealed submissions are
// accepted.
func (s *Service) SignatureRequired() bool {
	return s.sealer != nil
}

// VerifySubmission decodes a sealed submission into its snapshot.
func (s *Service) VerifySubmission(signed string) (telemetry.Snapshot, error) {
	if s.sealer == nil {
		return telemetry.Snapshot{}, fingerprint.ErrNoSecret
	}
	return s.sealer.Verify(signed)
}

// Eligibility evaluates the award guardrail for a session.
func (s *Service) Eligibility(ctx context.Context, sessionID string) (guardrail.Result, error) {
	record, err := s.sessions.Get(sessionID)
	if err != nil {
		return guardrail.Result{}, err
	}

	result := s.evaluator.Evaluate(record)

	decision := "blocked"
	if result.Allowed {
		decision = "allowed"
	}
	metrics.RecordGuardrailDecision(decision)
	metrics.RecordGuardrailScore(float64(result.ConfidenceScore))

	return result, nil
}

// SubmitClaim verifies a claimed match result.
func (s *Service) SubmitClaim(ctx context.Context, matchID, userID string, claimed matchverify.ResultKind) (matchverify.Outcome, error) {
	return s.verifier.Verify(ctx, matchID, userID, claimed)
}

// EndSession archives a session record.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.sessions.End(ctx, sessionID, time.Now().UTC())
	return err
}

// AuditTrail exposes the newest audit entries for operators.
func (s *Service) AuditTrail(n int) []audit.Entry {
	return s.auditLog.Recent(n)
}

// GetStats returns service statistics for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"service": "gameplay-verification",
		"status":  "running",
	}
	if !s.started {
		stats["status"] = "stopped"
		return stats
	}

	stats["active_sessions"] = s.sessions.ActiveCount()
	stats["archived_sessions"] = s.sessions.ArchivedCount()
	stats["dedupe_size"] = s.deduper.Size()
	stats["audit_entries"] = s.auditLog.Len()
	stats["audit_queue_depth"] = s.auditQueue.Len(context.Background())
	stats["policy_version"] = s.policies.Current().Version

	return stats
}
