// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/registry"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/session"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/metrics"
)

// TelemetryHandler handles telemetry ingestion requests.
type TelemetryHandler struct {
	deps Dependencies
}

// NewTelemetryHandler creates a new telemetry handler.
func NewTelemetryHandler(deps Dependencies) *TelemetryHandler {
	return &TelemetryHandler{deps: deps}
}

// telemetryRequest mirrors the emitter's submission shape: either a
// sealed fingerprint token or a bare snapshot.
type telemetryRequest struct {
	Signed   string              `json:"signed,omitempty"`
	Snapshot *telemetry.Snapshot `json:"snapshot,omitempty"`
}

// telemetryAck reports the session status after ingestion.
type telemetryAck struct {
	State           string `json:"state"`
	ConfidenceScore int    `json:"confidenceScore"`
	Duplicate       bool   `json:"duplicate,omitempty"`
}

// HandlePostTelemetry handles POST /v1/telemetry requests.
func (h *TelemetryHandler) HandlePostTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req telemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var snap telemetry.Snapshot
	switch {
	case req.Signed != "":
		verified, err := h.deps.VerifySubmission(req.Signed)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_fingerprint", err)
			return
		}
		snap = verified
	case req.Snapshot != nil:
		if h.deps.SignatureRequired() {
			writeError(w, http.StatusUnauthorized, "signature_required", ErrSignatureRequired)
			return
		}
		snap = *req.Snapshot
	default:
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	if err := snapshotValid(snap); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if h.deps.SeenSnapshot(r.Context(), snap.ReplayKey()) {
		metrics.RecordSnapshotDuplicate()
		writeJSON(w, http.StatusOK, telemetryAck{Duplicate: true})
		return
	}

	ack, err := h.deps.ApplyTelemetry(r.Context(), snap)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrStaleSnapshot):
			// Session status still returned; the payload was dropped.
			writeJSON(w, http.StatusOK, telemetryAck{
				State:           string(ack.State),
				ConfidenceScore: ack.ConfidenceScore,
				Duplicate:       true,
			})
		case errors.Is(err, registry.ErrSessionEnded):
			writeError(w, http.StatusConflict, "session_ended", err)
		case errors.Is(err, registry.ErrBadSnapshot):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, session.ErrSessionErrored),
			errors.Is(err, session.ErrInvariantViolation),
			errors.Is(err, session.ErrSamplerFailureStorm):
			// Escalations are acknowledged with the terminal state so
			// the client stops submitting.
			writeJSON(w, http.StatusOK, telemetryAck{
				State:           string(ack.State),
				ConfidenceScore: ack.ConfidenceScore,
			})
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, telemetryAck{
		State:           string(ack.State),
		ConfidenceScore: ack.ConfidenceScore,
	})
}
