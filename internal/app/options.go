// Package service provides the core verification service that
// implements the dependencies required by the HTTP API.
package service

import (
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/matchverify"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of audit worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithAuditQueueSize sets the maximum size of the audit queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueSize = size
		}
	}
}

// WithDedupeSize sets the size of the replay deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the session registry shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithOracle sets the match oracle client.
func WithOracle(o matchverify.Oracle) Option {
	return func(s *Service) {
		if o != nil {
			s.oracle = o
		}
	}
}

// WithResolver sets the identity resolver.
func WithResolver(r matchverify.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithAwarder sets the point award coordinator.
func WithAwarder(a matchverify.Awarder) Option {
	return func(s *Service) {
		if a != nil {
			s.awarder = a
		}
	}
}

// WithOracleTimeout bounds one oracle round trip.
func WithOracleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.oracleTimeout = d
		}
	}
}

// WithOracleRegion sets the oracle region for match lookups.
func WithOracleRegion(region string) Option {
	return func(s *Service) {
		if region != "" {
			s.oracleRegion = region
		}
	}
}

// WithFingerprintSecret enables signed telemetry with the given
// shared secret.
func WithFingerprintSecret(secret string) Option {
	return func(s *Service) {
		s.secret = secret
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
