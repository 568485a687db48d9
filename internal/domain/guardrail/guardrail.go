// Package guardrail gates point issuance over a verification record.
package guardrail

import (
	"math"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/session"
)

// Decision reasons surfaced to callers. The internal score breakdown is
// never exposed to end users.
const (
	ReasonMissingUser       = "User ID is required"
	ReasonNotConfirmed      = "Active play not confirmed"
	ReasonProcessNotFound   = "Game process not detected"
	ReasonMinActivePlay     = "Minimum 5 minutes active play required"
	ReasonPendingReview     = "Verification pending review"
	ReasonVerified          = "Verified gameplay"
	ReasonInvariantViolated = "Session flagged for investigation"
)

// Warning labels collected during soft scoring.
const (
	WarnNotForeground     = "game not in foreground"
	WarnSessionTooLong    = "session exceeds 24h"
	WarnLowActiveRatio    = "low active play ratio"
	WarnModestActiveRatio = "modest active play ratio"
	WarnDurationExceeded  = "active play exceeds session duration"
)

// Scoring adjustments. These encode award policy shape; the floors and
// bands they act against come from config.Policy.
const (
	penaltyNotForeground    = 30
	penaltySessionTooLong   = 20
	penaltyLowActiveRatio   = 25
	penaltyModestRatio      = 10
	penaltyDurationExceeded = 30
	bonusOneHourActive      = 5
	bonusTwoHoursActive     = 5

	maxSessionSeconds    = int64(24 * time.Hour / time.Second)
	oneHourActiveSeconds = int64(time.Hour / time.Second)
	twoHourActiveSeconds = 2 * oneHourActiveSeconds

	lowRatioFloor    = 0.5
	modestRatioFloor = 0.8

	allowFloor        = 50
	durationTolerance = 1.1
	scoreMax          = 100
)

// Result is the verdict of one guardrail evaluation.
type Result struct {
	Allowed         bool     `json:"allowed"`
	Reason          string   `json:"reason"`
	ConfidenceScore int      `json:"confidenceScore"`
	Multiplier      float64  `json:"multiplier"`
	Warnings        []string `json:"warnings,omitempty"`
	PolicyVersion   string   `json:"policyVersion"`

	// Escalate asks the state machine to force the session into the
	// error state. Server-internal, never serialized.
	Escalate bool `json:"-"`
}

// Evaluate decides whether points may be issued for the session behind
// r under policy p. Pure: identical inputs yield identical results.
//
// Hard rejections zero the confidence score and cannot be overridden by
// any soft adjustment.
func Evaluate(r session.Record, p config.Policy) Result {
	if r.UserID == "" {
		return rejected(ReasonMissingUser, p)
	}
	if r.State != session.StateActivePlayConfirmed {
		return rejected(ReasonNotConfirmed, p)
	}
	if !r.GameProcessDetected {
		return rejected(ReasonProcessNotFound, p)
	}
	if r.ActivePlaySeconds < p.MinActivePlaySeconds {
		return rejected(ReasonMinActivePlay, p)
	}

	score := clamp(r.ConfidenceScore)
	var warnings []string
	escalate := false

	if !r.GameForeground {
		score -= penaltyNotForeground
		warnings = append(warnings, WarnNotForeground)
	}
	if r.SessionDurationSeconds > maxSessionSeconds {
		score -= penaltySessionTooLong
		warnings = append(warnings, WarnSessionTooLong)
	}
	if r.SessionDurationSeconds > 0 {
		ratio := float64(r.ActivePlaySeconds) / float64(r.SessionDurationSeconds)
		switch {
		case ratio < lowRatioFloor:
			score -= penaltyLowActiveRatio
			warnings = append(warnings, WarnLowActiveRatio)
		case ratio < modestRatioFloor:
			score -= penaltyModestRatio
			warnings = append(warnings, WarnModestActiveRatio)
		}
		if float64(r.ActivePlaySeconds) > float64(r.SessionDurationSeconds)*durationTolerance {
			score -= penaltyDurationExceeded
			warnings = append(warnings, WarnDurationExceeded)
			escalate = true
		}
	}

	if r.ActivePlaySeconds >= oneHourActiveSeconds {
		score += bonusOneHourActive
	}
	if r.ActivePlaySeconds >= twoHourActiveSeconds {
		score += bonusTwoHoursActive
	}
	score = clamp(score)

	res := Result{
		ConfidenceScore: score,
		Multiplier:      p.MultiplierFor(score),
		Warnings:        warnings,
		PolicyVersion:   p.Version,
		Escalate:        escalate,
	}
	switch {
	case escalate:
		res.Allowed = false
		res.Reason = ReasonInvariantViolated
		res.Multiplier = 0
	case score < allowFloor:
		res.Allowed = false
		res.Reason = ReasonPendingReview
	default:
		res.Allowed = true
		res.Reason = ReasonVerified
	}
	return res
}

func rejected(reason string, p config.Policy) Result {
	return Result{
		Allowed:       false,
		Reason:        reason,
		PolicyVersion: p.Version,
	}
}

func clamp(score int) int {
	return int(math.Min(scoreMax, math.Max(0, float64(score))))
}

// Auditor receives one entry per evaluation. The audit trail is
// append-only and never drives retries of blocked awards.
type Auditor interface {
	Audit(r session.Record, res Result)
}

// Evaluator binds evaluation to the live policy and the audit trail.
type Evaluator struct {
	policies *config.PolicyStore
	auditor  Auditor
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithAuditor attaches an audit sink to the evaluator.
func WithAuditor(a Auditor) Option {
	return func(e *Evaluator) {
		if a != nil {
			e.auditor = a
		}
	}
}

// NewEvaluator creates an evaluator reading the live policy revision.
func NewEvaluator(policies *config.PolicyStore, opts ...Option) *Evaluator {
	e := &Evaluator{policies: policies}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the pure evaluation under the current policy and
// records the decision with the auditor.
func (e *Evaluator) Evaluate(r session.Record) Result {
	res := Evaluate(r, e.policies.Current())
	if e.auditor != nil {
		e.auditor.Audit(r, res)
	}
	return res
}
