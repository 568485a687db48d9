// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/registry"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/guardrail"
)

// SessionsHandler handles per-session queries and lifecycle requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// eligibilityResponse is the caller-facing guardrail verdict. The
// sub-score breakdown stays internal so the heuristic cannot be
// gamed; callers get the verdict, reason, and multiplier only.
type eligibilityResponse struct {
	Allowed       bool     `json:"allowed"`
	Reason        string   `json:"reason"`
	Multiplier    float64  `json:"multiplier"`
	Warnings      []string `json:"warnings,omitempty"`
	PolicyVersion string   `json:"policyVersion"`
}

// HandleSessions dispatches /v1/sessions/{session_id}/... requests.
func (h *SessionsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	// Extract path parameters after /v1/sessions/
	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	sessionID, rest, found := strings.Cut(path, "/")
	if !found || sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case rest == "eligibility" && r.Method == http.MethodGet:
		h.handleEligibility(w, r, sessionID)
	case rest == "end" && r.Method == http.MethodPost:
		h.handleEnd(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

// handleEligibility handles GET /v1/sessions/{session_id}/eligibility requests.
func (h *SessionsHandler) handleEligibility(w http.ResponseWriter, r *http.Request, sessionID string) {
	result, err := h.deps.Eligibility(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, registry.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, toEligibilityResponse(result))
}

// handleEnd handles POST /v1/sessions/{session_id}/end requests. Ending
// a session archives its record; ending an archived session is a no-op.
func (h *SessionsHandler) handleEnd(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.deps.EndSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, registry.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func toEligibilityResponse(result guardrail.Result) eligibilityResponse {
	return eligibilityResponse{
		Allowed:       result.Allowed,
		Reason:        result.Reason,
		Multiplier:    result.Multiplier,
		Warnings:      result.Warnings,
		PolicyVersion: result.PolicyVersion,
	}
}
