// Package confidence computes the human-gameplay confidence score from
// rolling session metrics.
package confidence

import (
	"math"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
)

// Structural scoring constants. The score bands are part of the status
// contract; the rate thresholds they gate live in config.Policy.
const (
	subScoreMax = 25
	scoreMax    = 100

	// MinElapsed is the minimum session time before a score is
	// meaningful.
	MinElapsed = time.Minute

	// ValidFloor is the score at and above which sampled input is
	// treated as genuine gameplay.
	ValidFloor = 50

	excellentFloor  = 80
	goodFloor       = 60
	acceptableFloor = ValidFloor
	suspiciousFloor = 30
)

// Status is the qualitative verdict derived from a score.
type Status string

const (
	StatusExcellent        Status = "EXCELLENT"
	StatusGood             Status = "GOOD"
	StatusAcceptable       Status = "ACCEPTABLE"
	StatusSuspicious       Status = "SUSPICIOUS"
	StatusInvalid          Status = "INVALID"
	StatusInsufficientData Status = "INSUFFICIENT_DATA"
)

// Rank orders statuses from worst to best. StatusInsufficientData has
// no rank; it is a precondition failure, not a verdict.
func (s Status) Rank() int {
	switch s {
	case StatusInvalid:
		return 0
	case StatusSuspicious:
		return 1
	case StatusAcceptable:
		return 2
	case StatusGood:
		return 3
	case StatusExcellent:
		return 4
	default:
		return -1
	}
}

// Breakdown is the immutable result of scoring one metrics snapshot.
// The four sub-scores are each in [0,25] and sum to Score.
type Breakdown struct {
	InputFrequency    int    `json:"inputFrequency"`
	MovementKeyUsage  int    `json:"movementKeyUsage"`
	PointerMovement   int    `json:"pointerMovement"`
	InteractionClicks int    `json:"interactionClicks"`
	Score             int    `json:"score"`
	Status            Status `json:"status"`
}

// Valid reports whether the score clears the gameplay floor. Always
// false for insufficient data.
func (b Breakdown) Valid() bool {
	return b.Status != StatusInsufficientData && b.Score >= ValidFloor
}

// InsufficientData reports whether the session was too young to score.
func (b Breakdown) InsufficientData() bool {
	return b.Status == StatusInsufficientData
}

// Score computes a Breakdown from metrics and elapsed session time
// under policy p. Pure: no side effects, safe to call repeatedly on
// the same snapshot.
func Score(m telemetry.Metrics, elapsed time.Duration, p config.Policy) Breakdown {
	if elapsed < MinElapsed {
		return Breakdown{Status: StatusInsufficientData}
	}

	minutes := elapsed.Minutes()

	b := Breakdown{
		InputFrequency:    subScore(float64(m.TotalInputs)/minutes, p.InputsPerMinute),
		MovementKeyUsage:  subScore(float64(m.MovementKeyEvents)/minutes, p.MovementKeysPerMinute),
		PointerMovement:   subScore(m.PointerDistance/minutes, p.PointerPixelsPerMinute),
		InteractionClicks: subScore(float64(m.ClickEvents)/minutes, p.ClicksPerMinute),
	}
	b.Score = b.InputFrequency + b.MovementKeyUsage + b.PointerMovement + b.InteractionClicks
	b.Status = statusFor(b.Score)
	return b
}

// subScore scales rate against threshold into [0,25]: at or above the
// threshold earns the full sub-score, below is proportional, rounded
// to the nearest integer.
func subScore(rate, threshold float64) int {
	if threshold <= 0 || rate >= threshold {
		return subScoreMax
	}
	if rate <= 0 {
		return 0
	}
	return int(math.Round(subScoreMax * rate / threshold))
}

func statusFor(score int) Status {
	switch {
	case score >= excellentFloor:
		return StatusExcellent
	case score >= goodFloor:
		return StatusGood
	case score >= acceptableFloor:
		return StatusAcceptable
	case score >= suspiciousFloor:
		return StatusSuspicious
	default:
		return StatusInvalid
	}
}

// Scorer binds scoring to the live policy revision.
type Scorer struct {
	policies *config.PolicyStore
}

// NewScorer creates a scorer reading thresholds from policies.
func NewScorer(policies *config.PolicyStore) *Scorer {
	return &Scorer{policies: policies}
}

// Score computes a Breakdown under the current policy revision.
func (s *Scorer) Score(m telemetry.Metrics, elapsed time.Duration) Breakdown {
	return Score(m, elapsed, s.policies.Current())
}
