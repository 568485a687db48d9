// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializers that build values with defaults.
// - All loading functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration for the verification service.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// FingerprintSecret keys the HMAC over session fingerprints. When
	// empty, ingestion accepts unsigned snapshots (dev mode only).
	FingerprintSecret string `koanf:"fingerprint_secret"`

	// OracleBaseURL points at the match oracle HTTP API.
	OracleBaseURL string `koanf:"oracle_base_url"`

	// OracleTimeoutMS bounds a single oracle round trip.
	OracleTimeoutMS int `koanf:"oracle_timeout_ms"`

	// OracleRegion selects the oracle region for match lookups.
	OracleRegion string `koanf:"oracle_region"`

	// AuditQueueSize bounds the in-memory audit entry queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// WorkerCount sets the number of audit drain workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the snapshot replay cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SessionShardCount configures the number of shards in the session
	// registry.
	SessionShardCount int `koanf:"session_shard_count"`

	// Policy holds the tunable verification policy.
	Policy Policy `koanf:"policy"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		FingerprintSecret: "",
		OracleBaseURL:     "http://localhost:9091",
		OracleTimeoutMS:   5000,
		OracleRegion:      "na1",
		AuditQueueSize:    100_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        500_000,
		SessionShardCount: 16,
		Policy:            DefaultPolicy(),
	}
}
