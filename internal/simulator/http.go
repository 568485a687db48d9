package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/oracle"
	"github.com/djjrip/gg-loop-platform-sub004/internal/client/fingerprint"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

const healthCheckTimeout = 5 * time.Second

// checkServiceHealth verifies the target service responds before the
// run starts.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := &http.Client{Timeout: healthCheckTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("service unreachable at %s: %w", cfg.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// submission mirrors the ingestion request body.
type submission struct {
	Signed   string              `json:"signed,omitempty"`
	Snapshot *telemetry.Snapshot `json:"snapshot,omitempty"`
}

type sessionAck struct {
	State           string `json:"state"`
	ConfidenceScore int    `json:"confidenceScore"`
	Duplicate       bool   `json:"duplicate,omitempty"`
}

type eligibilityVerdict struct {
	Allowed    bool    `json:"allowed"`
	Reason     string  `json:"reason"`
	Multiplier float64 `json:"multiplier"`
}

// submitScripts pushes every script's snapshots through a bounded
// worker pool, preserving per-session submission order.
func submitScripts(ctx context.Context, cfg *Config, scripts []SessionScript, stats *Stats) (map[string]sessionAck, error) {
	var sealer *fingerprint.Sealer
	if cfg.FingerprintSecret != "" {
		var err error
		sealer, err = fingerprint.NewSealer(cfg.FingerprintSecret)
		if err != nil {
			return nil, err
		}
	}

	client := &http.Client{Timeout: cfg.Timeout}
	work := make(chan SessionScript)
	finalAcks := make(map[string]sessionAck, len(scripts))

	var (
		wg    sync.WaitGroup
		ackMu sync.Mutex
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for script := range work {
				ack := submitSession(ctx, cfg, client, sealer, script, stats)
				ackMu.Lock()
				finalAcks[script.SessionID] = ack
				ackMu.Unlock()
			}
		}()
	}

	for _, script := range scripts {
		select {
		case work <- script:
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return finalAcks, fmt.Errorf("submission cancelled: %w", ctx.Err())
		}
	}
	close(work)
	wg.Wait()

	return finalAcks, nil
}

// submitSession sends one session's snapshots in order and returns
// the last acknowledged status.
func submitSession(ctx context.Context, cfg *Config, client *http.Client, sealer *fingerprint.Sealer, script SessionScript, stats *Stats) sessionAck {
	var last sessionAck
	for _, snap := range script.Snapshots {
		ack, err := postSnapshot(ctx, cfg, client, sealer, snap)
		if err != nil {
			stats.addFailed(1)
			if cfg.Verbose {
				logger.Get().Warn(ctx, "snapshot submission failed",
					logger.String("sessionID", script.SessionID),
					logger.Error(err),
				)
			}
			continue
		}
		stats.addSubmitted(1)
		last = ack
	}
	return last
}

func postSnapshot(ctx context.Context, cfg *Config, client *http.Client, sealer *fingerprint.Sealer, snap telemetry.Snapshot) (sessionAck, error) {
	var sub submission
	if sealer != nil {
		signed, err := sealer.Seal(snap)
		if err != nil {
			return sessionAck{}, err
		}
		sub.Signed = signed
	} else {
		sub.Snapshot = &snap
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return sessionAck{}, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v1/telemetry", bytes.NewReader(body))
	if err != nil {
		return sessionAck{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return sessionAck{}, fmt.Errorf("submit snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return sessionAck{}, fmt.Errorf("status %d: %s", resp.StatusCode, payload)
	}

	var ack sessionAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return sessionAck{}, fmt.Errorf("decode ack: %w", err)
	}
	return ack, nil
}

// claimSubmission mirrors the claims request body.
type claimSubmission struct {
	MatchID       string `json:"matchId"`
	UserID        string `json:"userId"`
	ClaimedResult string `json:"claimedResult"`
}

type claimOutcome struct {
	Valid     bool `json:"valid"`
	Points    int  `json:"points"`
	Duplicate bool `json:"duplicate"`
}

const claimAttempts = 3

// postClaimWithRetry retries a claim over the oracle backoff schedule
// while the service reports the oracle unavailable.
func postClaimWithRetry(ctx context.Context, cfg *Config, client *http.Client, matchID, userID string) (claimOutcome, error) {
	var lastErr error
	for attempt := 0; attempt < claimAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return claimOutcome{}, fmt.Errorf("claim retry cancelled: %w", ctx.Err())
			case <-time.After(oracle.Backoff(attempt - 1)):
			}
		}
		outcome, retryable, err := postClaim(ctx, cfg, client, matchID, userID)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return claimOutcome{}, lastErr
}

// postClaim submits one synthetic match claim. With no real oracle
// behind the service the claim is expected to bounce; the call still
// exercises the full verification path. The bool result reports
// whether the failure is worth retrying.
func postClaim(ctx context.Context, cfg *Config, client *http.Client, matchID, userID string) (claimOutcome, bool, error) {
	body, err := json.Marshal(claimSubmission{
		MatchID:       matchID,
		UserID:        userID,
		ClaimedResult: "win",
	})
	if err != nil {
		return claimOutcome{}, false, fmt.Errorf("encode claim: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v1/claims", bytes.NewReader(body))
	if err != nil {
		return claimOutcome{}, false, fmt.Errorf("build claim request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return claimOutcome{}, true, fmt.Errorf("submit claim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		retryable := resp.StatusCode == http.StatusServiceUnavailable
		return claimOutcome{}, retryable, fmt.Errorf("claim returned status %d: %s", resp.StatusCode, payload)
	}

	var outcome claimOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return claimOutcome{}, false, fmt.Errorf("decode claim outcome: %w", err)
	}
	return outcome, false, nil
}

// fetchEligibility queries the guardrail verdict for one session.
func fetchEligibility(ctx context.Context, cfg *Config, client *http.Client, sessionID string) (eligibilityVerdict, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s/eligibility", cfg.BaseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eligibilityVerdict{}, fmt.Errorf("build eligibility request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return eligibilityVerdict{}, fmt.Errorf("fetch eligibility: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eligibilityVerdict{}, fmt.Errorf("eligibility returned status %d", resp.StatusCode)
	}

	var verdict eligibilityVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return eligibilityVerdict{}, fmt.Errorf("decode eligibility: %w", err)
	}
	return verdict, nil
}
