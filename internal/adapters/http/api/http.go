// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/registry"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/guardrail"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/matchverify"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to implementations in other
// packages.
type Dependencies interface {
	// ApplyTelemetry folds one snapshot into its session.
	ApplyTelemetry(ctx context.Context, snap telemetry.Snapshot) (registry.Ack, error)

	// SeenSnapshot reports and records whether the snapshot's replay key
	// was already ingested.
	SeenSnapshot(ctx context.Context, key string) bool

	// SignatureRequired reports whether only sealed submissions are
	// accepted.
	SignatureRequired() bool

	// VerifySubmission decodes a sealed submission into its snapshot.
	VerifySubmission(signed string) (telemetry.Snapshot, error)

	// Eligibility evaluates the award guardrail for a session.
	Eligibility(ctx context.Context, sessionID string) (guardrail.Result, error)

	// EndSession archives a session record.
	EndSession(ctx context.Context, sessionID string) error

	// SubmitClaim verifies a claimed match result.
	SubmitClaim(ctx context.Context, matchID, userID string, claimed matchverify.ResultKind) (matchverify.Outcome, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	telemetryHandler *TelemetryHandler
	sessionsHandler  *SessionsHandler
	claimsHandler    *ClaimsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		telemetryHandler: NewTelemetryHandler(deps),
		sessionsHandler:  NewSessionsHandler(deps),
		claimsHandler:    NewClaimsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/telemetry", MetricsMiddleware(s.telemetryHandler.HandlePostTelemetry, "telemetry"))
	mux.HandleFunc("/v1/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSessions, "sessions"))
	mux.HandleFunc("/v1/claims", MetricsMiddleware(s.claimsHandler.HandlePostClaim, "claims"))
}

// snapshotValid checks the submission carries the identifying fields
// the registry needs.
func snapshotValid(snap telemetry.Snapshot) error {
	switch {
	case snap.SessionID == "":
		return ErrMissingSessionID
	case snap.UserID == "":
		return ErrMissingUserID
	case snap.Sequence == 0:
		return ErrMissingSequence
	case snap.Timestamp.IsZero():
		return ErrMissingTimestamp
	}
	// Reject clocks too far ahead; skew within a minute is tolerated.
	if snap.Timestamp.After(time.Now().Add(time.Minute)) {
		return ErrFutureTimestamp
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
