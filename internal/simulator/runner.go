package simulator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

// Run executes one complete simulation against the target service.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("simulator")

	log.Info(ctx, "starting gameplay simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("snapshotsPerSession", cfg.SnapshotsPerSession),
		logger.Int("workers", cfg.Workers),
		logger.Bool("signed", cfg.FingerprintSecret != ""),
	)

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	scripts := generateScripts(cfg)

	acks, err := submitScripts(ctx, cfg, scripts, stats)
	if err != nil {
		return fmt.Errorf("snapshot submission failed: %w", err)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	for _, script := range scripts {
		ack := acks[script.SessionID]
		switch ack.State {
		case "ACTIVE_PLAY_CONFIRMED":
			stats.SessionsConfirmed++
		case "ERROR":
			stats.SessionsErrored++
		}

		verdict, err := fetchEligibility(ctx, cfg, client, script.SessionID)
		if err != nil {
			log.Warn(ctx, "eligibility query failed",
				logger.String("sessionID", script.SessionID),
				logger.Error(err),
			)
			continue
		}
		if verdict.Allowed {
			stats.EligibleSessions++
		} else {
			stats.BlockedSessions++
		}

		if cfg.Verbose {
			log.Info(ctx, "session verdict",
				logger.String("sessionID", script.SessionID),
				logger.String("profile", string(script.Profile)),
				logger.String("state", ack.State),
				logger.Bool("allowed", verdict.Allowed),
				logger.String("reason", verdict.Reason),
				logger.Float64("multiplier", verdict.Multiplier),
			)
		}
	}

	// Synthetic claims: one per eligible-looking session. Whether a
	// claim verifies depends on the oracle behind the service; the
	// point is to drive the full verification path under load.
	for _, script := range scripts {
		if script.Profile != ProfileLegit {
			continue
		}
		stats.ClaimsSubmitted++
		matchID := "sim-" + script.SessionID[:8]
		outcome, err := postClaimWithRetry(ctx, cfg, client, matchID, script.UserID)
		if err != nil {
			stats.ClaimsRejected++
			if cfg.Verbose {
				log.Info(ctx, "claim bounced",
					logger.String("matchID", matchID),
					logger.Error(err),
				)
			}
			continue
		}
		if !outcome.Valid {
			stats.ClaimsRejected++
			continue
		}
		stats.ClaimsAccepted++
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "simulation finished",
		logger.Duration("duration", stats.Duration),
		logger.Int("snapshotsSubmitted", stats.SnapshotsSubmitted),
		logger.Int("snapshotsFailed", stats.SnapshotsFailed),
		logger.Int("sessionsConfirmed", stats.SessionsConfirmed),
		logger.Int("sessionsErrored", stats.SessionsErrored),
		logger.Int("eligibleSessions", stats.EligibleSessions),
		logger.Int("blockedSessions", stats.BlockedSessions),
		logger.Int("claimsSubmitted", stats.ClaimsSubmitted),
		logger.Int("claimsAccepted", stats.ClaimsAccepted),
		logger.Int("claimsRejected", stats.ClaimsRejected),
	)

	return verifyRun(scripts, stats)
}

// verifyRun sanity-checks the aggregate outcome against the scripted
// profiles.
func verifyRun(scripts []SessionScript, stats *Stats) error {
	var legit, storms int
	for _, s := range scripts {
		switch s.Profile {
		case ProfileLegit:
			legit++
		case ProfileStorm:
			storms++
		case ProfileIdle:
		}
	}

	if stats.EligibleSessions > legit {
		return fmt.Errorf("more eligible sessions (%d) than legit scripts (%d)", stats.EligibleSessions, legit)
	}
	if stats.SessionsErrored < storms {
		return fmt.Errorf("expected at least %d errored sessions, saw %d", storms, stats.SessionsErrored)
	}
	return nil
}
