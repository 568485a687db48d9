// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/matchverify"
)

// ClaimsHandler handles match claim submissions.
type ClaimsHandler struct {
	deps Dependencies
}

// NewClaimsHandler creates a new claims handler.
func NewClaimsHandler(deps Dependencies) *ClaimsHandler {
	return &ClaimsHandler{deps: deps}
}

// claimRequest mirrors the claim submission schema.
type claimRequest struct {
	MatchID       string `json:"matchId"`
	UserID        string `json:"userId"`
	ClaimedResult string `json:"claimedResult"`
}

func (c claimRequest) validate() error {
	switch {
	case strings.TrimSpace(c.MatchID) == "":
		return errors.New("missing matchId")
	case strings.TrimSpace(c.UserID) == "":
		return errors.New("missing userId")
	case strings.TrimSpace(c.ClaimedResult) == "":
		return errors.New("missing claimedResult")
	}
	if !matchverify.ResultKind(c.ClaimedResult).Valid() {
		return errors.New("claimedResult must be win or loss")
	}
	return nil
}

// HandlePostClaim handles POST /v1/claims requests.
func (h *ClaimsHandler) HandlePostClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	outcome, err := h.deps.SubmitClaim(r.Context(), req.MatchID, req.UserID, matchverify.ResultKind(req.ClaimedResult))
	if err != nil {
		switch {
		case errors.Is(err, matchverify.ErrBadClaim):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, matchverify.ErrMatchNotFound):
			writeError(w, http.StatusNotFound, "match_not_found", err)
		case errors.Is(err, matchverify.ErrPlayerNotInMatch):
			writeError(w, http.StatusUnprocessableEntity, "player_not_in_match", err)
		case errors.Is(err, matchverify.ErrOracleUnavailable):
			writeError(w, http.StatusServiceUnavailable, "oracle_unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
