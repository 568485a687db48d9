package config

import (
	"sync/atomic"
)

// Band maps a minimum confidence score to a point multiplier.
type Band struct {
	MinScore   int     `koanf:"min_score"`
	Multiplier float64 `koanf:"multiplier"`
}

// Policy is the tunable verification policy. Every value here is an
// anti-fraud knob, not a structural constant: operators retune these
// without redeploying the evaluator.
type Policy struct {
	// Version identifies the policy revision in audit entries and tests.
	Version string `koanf:"version"`

	// Per-minute activity rate thresholds. A rate at or above its
	// threshold earns the full sub-score.
	InputsPerMinute        float64 `koanf:"inputs_per_minute"`
	MovementKeysPerMinute  float64 `koanf:"movement_keys_per_minute"`
	PointerPixelsPerMinute float64 `koanf:"pointer_pixels_per_minute"`
	ClicksPerMinute        float64 `koanf:"clicks_per_minute"`

	// MinActivePlaySeconds is the hard floor for point accrual.
	MinActivePlaySeconds int64 `koanf:"min_active_play_seconds"`

	// FailureStormThreshold is the number of consecutive dropped samples
	// after which a session escalates to the error state.
	FailureStormThreshold int `koanf:"failure_storm_threshold"`

	// Match point formula: base + kills*perKill + winBonus, capped.
	BasePoints     int `koanf:"base_points"`
	PerKillRate    int `koanf:"per_kill_rate"`
	WinBonus       int `koanf:"win_bonus"`
	MaxMatchPoints int `koanf:"max_match_points"`

	// MultiplierBands maps final confidence score to award multiplier,
	// ordered by descending MinScore.
	MultiplierBands []Band `koanf:"multiplier_bands"`
}

// DefaultPolicy returns policy revision v1.
func DefaultPolicy() Policy {
	return Policy{
		Version:                "v1",
		InputsPerMinute:        30,
		MovementKeysPerMinute:  10,
		PointerPixelsPerMinute: 300,
		ClicksPerMinute:        5,
		MinActivePlaySeconds:   300,
		FailureStormThreshold:  10,
		BasePoints:             50,
		PerKillRate:            2,
		WinBonus:               25,
		MaxMatchPoints:         200,
		MultiplierBands: []Band{
			{MinScore: 90, Multiplier: 1.0},
			{MinScore: 80, Multiplier: 0.95},
			{MinScore: 70, Multiplier: 0.85},
			{MinScore: 60, Multiplier: 0.75},
			{MinScore: 50, Multiplier: 0.5},
		},
	}
}

// MultiplierFor returns the award multiplier for a confidence score.
func (p Policy) MultiplierFor(score int) float64 {
	for _, b := range p.MultiplierBands {
		if score >= b.MinScore {
			return b.Multiplier
		}
	}
	return 0
}

// PolicyStore holds the live policy behind an atomic pointer so the
// evaluator picks up retuned values without a restart.
type PolicyStore struct {
	p atomic.Pointer[Policy]
}

// NewPolicyStore creates a store seeded with p.
func NewPolicyStore(p Policy) *PolicyStore {
	s := &PolicyStore{}
	s.p.Store(&p)
	return s
}

// Current returns the live policy by value.
func (s *PolicyStore) Current() Policy {
	return *s.p.Load()
}

// Swap installs a new policy revision.
func (s *PolicyStore) Swap(p Policy) {
	s.p.Store(&p)
}
