// Package matchverify confirms claimed match results against the match
// oracle before bonus points are granted.
package matchverify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/metrics"
)

// ResultKind is a claimed or recorded match result.
type ResultKind string

const (
	ResultWin  ResultKind = "win"
	ResultLoss ResultKind = "loss"
)

// Valid reports whether k is a known result kind.
func (k ResultKind) Valid() bool {
	return k == ResultWin || k == ResultLoss
}

// Participant is one player's row in an oracle match record.
type Participant struct {
	Handle string `json:"handle"`
	Kills  int    `json:"kills"`
	Win    bool   `json:"win"`
}

// MatchRecord is the oracle's authoritative view of a match.
type MatchRecord struct {
	MatchID         string        `json:"matchId"`
	DurationSeconds int           `json:"durationSeconds"`
	Participants    []Participant `json:"participants"`
}

// Outcome is the verdict for one match claim. Repeated claims for the
// same match id return the committed outcome with Duplicate set.
type Outcome struct {
	MatchID       string     `json:"matchId"`
	UserID        string     `json:"userId"`
	Valid         bool       `json:"valid"`
	ClaimedResult ResultKind `json:"claimedResult"`
	ActualResult  ResultKind `json:"actualResult"`
	Points        int        `json:"points"`
	LedgerEntryID string     `json:"ledgerEntryId,omitempty"`
	Details       string     `json:"details,omitempty"`
	VerifiedAt    time.Time  `json:"verifiedAt"`
	Duplicate     bool       `json:"duplicate"`
}

// Oracle looks up matches by id. Implementations return
// ErrOracleUnavailable (wrapped) for transient failures and
// ErrMatchNotFound for unknown match ids.
type Oracle interface {
	MatchByID(ctx context.Context, matchID, region string) (MatchRecord, error)
}

// Resolver maps an internal user id to the externally verified player
// handle that appears in oracle participant rows.
type Resolver interface {
	HandleFor(ctx context.Context, userID string) (string, error)
}

// Awarder forwards verified points to the award coordinator. Must be
// idempotent on (userID, sourceKind, sourceID).
type Awarder interface {
	Award(ctx context.Context, userID string, points int, sourceKind, sourceID string) (string, error)
}

const awardSourceKind = "match"

// claimEntry tracks one in-flight or committed claim.
type claimEntry struct {
	done    chan struct{}
	outcome *Outcome
	err     error
}

// Verifier implements idempotent match claim verification.
type Verifier struct {
	oracle   Oracle
	resolver Resolver
	awarder  Awarder
	policies *config.PolicyStore

	region  string
	timeout time.Duration

	mu     sync.Mutex
	claims map[string]*claimEntry

	log logger.Logger
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithRegion sets the oracle region for match lookups.
func WithRegion(region string) Option {
	return func(v *Verifier) {
		if region != "" {
			v.region = region
		}
	}
}

// WithTimeout bounds one oracle round trip.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the verifier.
func WithLogger(log logger.Logger) Option {
	return func(v *Verifier) {
		if log != nil {
			v.log = log
		}
	}
}

// NewVerifier creates a verifier with the given collaborators.
func NewVerifier(oracle Oracle, resolver Resolver, awarder Awarder, policies *config.PolicyStore, opts ...Option) *Verifier {
	v := &Verifier{
		oracle:   oracle,
		resolver: resolver,
		awarder:  awarder,
		policies: policies,
		region:   "na1",
		timeout:  5 * time.Second,
		claims:   make(map[string]*claimEntry),
		log:      logger.Get().Named("matchverify"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify confirms a claimed match result. The first caller for a match
// id reserves the claim, queries the oracle without holding any lock,
// and commits the outcome; concurrent duplicates wait for the commit
// and later duplicates get the cached outcome without an oracle query.
//
// Terminal failures (match not found, player absent) are cached so
// retries cannot burn oracle quota; transient failures release the
// reservation so the caller may retry with backoff.
func (v *Verifier) Verify(ctx context.Context, matchID, userID string, claimed ResultKind) (Outcome, error) {
	if matchID == "" || userID == "" || !claimed.Valid() {
		return Outcome{}, fmt.Errorf("%w: matchID, userID and a win/loss claim are required", ErrBadClaim)
	}

	entry, first := v.reserve(matchID)
	if !first {
		return v.awaitCommitted(ctx, entry)
	}

	outcome, err := v.verifyFresh(ctx, matchID, userID, claimed)

	if err != nil && errors.Is(err, ErrOracleUnavailable) {
		// Transient: release the reservation so a retry can re-query.
		v.release(matchID, entry, err)
		return Outcome{}, err
	}

	v.commit(entry, outcome, err)
	return outcome, err
}

// verifyFresh performs one full verification against the oracle.
func (v *Verifier) verifyFresh(ctx context.Context, matchID, userID string, claimed ResultKind) (Outcome, error) {
	p := v.policies.Current()

	octx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	started := time.Now()
	rec, err := v.oracle.MatchByID(octx, matchID, v.region)
	metrics.RecordOracleLatency(float64(time.Since(started).Milliseconds()))
	if err != nil {
		switch {
		case errors.Is(err, ErrMatchNotFound):
			metrics.RecordOracleRequest("not_found")
			metrics.RecordClaim("rejected")
		case errors.Is(err, ErrOracleUnavailable):
			metrics.RecordOracleRequest("retryable")
		default:
			// Treat unknown transport failures as retryable.
			metrics.RecordOracleRequest("retryable")
			err = fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
		}
		return Outcome{}, err
	}
	metrics.RecordOracleRequest("ok")

	handle, err := v.resolver.HandleFor(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve player handle: %w", err)
	}

	var player *Participant
	for i := range rec.Participants {
		if rec.Participants[i].Handle == handle {
			player = &rec.Participants[i]
			break
		}
	}
	if player == nil {
		metrics.RecordClaim("rejected")
		return Outcome{}, fmt.Errorf("%w: %s in match %s", ErrPlayerNotInMatch, handle, matchID)
	}

	actual := ResultLoss
	if player.Win {
		actual = ResultWin
	}

	outcome := Outcome{
		MatchID:       matchID,
		UserID:        userID,
		ClaimedResult: claimed,
		ActualResult:  actual,
		VerifiedAt:    time.Now().UTC(),
	}

	if actual != claimed {
		// Report the mismatch; never silently correct it or award.
		outcome.Valid = false
		outcome.Details = "claimed result does not match the recorded outcome"
		metrics.RecordClaim("mismatch")
		v.log.Warn(ctx, "match claim mismatch",
			logger.String("matchID", matchID),
			logger.String("userID", userID),
			logger.String("claimed", string(claimed)),
			logger.String("actual", string(actual)),
		)
		return outcome, nil
	}

	outcome.Valid = true
	outcome.Points = matchPoints(p, player.Kills, player.Win)

	ledgerID, err := v.awarder.Award(ctx, userID, outcome.Points, awardSourceKind, matchID)
	if err != nil {
		// The coordinator is idempotent on the source triple, so a
		// retry after a transient failure cannot double award.
		return Outcome{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	outcome.LedgerEntryID = ledgerID

	metrics.RecordClaim("verified")
	metrics.RecordAwardIssued(outcome.Points)
	v.log.Info(ctx, "match claim verified",
		logger.String("matchID", matchID),
		logger.String("userID", userID),
		logger.Int("points", outcome.Points),
		logger.String("ledgerEntryID", ledgerID),
	)
	return outcome, nil
}

// matchPoints computes base + kills*perKill + winBonus, capped.
func matchPoints(p config.Policy, kills int, win bool) int {
	points := p.BasePoints + kills*p.PerKillRate
	if win {
		points += p.WinBonus
	}
	if points > p.MaxMatchPoints {
		points = p.MaxMatchPoints
	}
	return points
}

// reserve returns the claim entry for matchID and whether the caller
// is the first to claim it.
func (v *Verifier) reserve(matchID string) (*claimEntry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if entry, ok := v.claims[matchID]; ok {
		return entry, false
	}
	entry := &claimEntry{done: make(chan struct{})}
	v.claims[matchID] = entry
	return entry, true
}

// commit publishes the outcome (or terminal error) for all waiters.
func (v *Verifier) commit(entry *claimEntry, outcome Outcome, err error) {
	v.mu.Lock()
	if err != nil {
		entry.err = err
	} else {
		entry.outcome = &outcome
	}
	v.mu.Unlock()
	close(entry.done)
}

// release drops a reservation after a transient failure so the claim
// may be retried. Waiters receive the transient error.
func (v *Verifier) release(matchID string, entry *claimEntry, err error) {
	v.mu.Lock()
	delete(v.claims, matchID)
	entry.err = err
	v.mu.Unlock()
	close(entry.done)
}

// awaitCommitted waits for the first caller's verdict and returns it.
func (v *Verifier) awaitCommitted(ctx context.Context, entry *claimEntry) (Outcome, error) {
	select {
	case <-entry.done:
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("await claim verdict: %w", ctx.Err())
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if entry.outcome != nil {
		out := *entry.outcome
		out.Duplicate = true
		metrics.RecordClaim("duplicate")
		return out, nil
	}
	return Outcome{}, entry.err
}
