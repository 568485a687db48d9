// Package award is the boundary to the point award coordinator.
package award

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

// Coordinator issues points into the ledger. Award must be idempotent
// on (userID, sourceKind, sourceID): repeating a grant returns the
// original ledger entry id without issuing points again.
type Coordinator interface {
	Award(ctx context.Context, userID string, points int, sourceKind, sourceID string) (string, error)
}

// Entry is one committed ledger grant.
type Entry struct {
	LedgerEntryID string    `json:"ledgerEntryId"`
	UserID        string    `json:"userId"`
	Points        int       `json:"points"`
	SourceKind    string    `json:"sourceKind"`
	SourceID      string    `json:"sourceId"`
	GrantedAt     time.Time `json:"grantedAt"`
}

// InMemory is a process-local Coordinator used until the platform
// ledger service is wired in.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]Entry
	log     logger.Logger
}

// NewInMemory creates an empty in-memory coordinator.
func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]Entry),
		log:     logger.Get().Named("award"),
	}
}

func grantKey(userID, sourceKind, sourceID string) string {
	return userID + "/" + sourceKind + "/" + sourceID
}

// Award grants points, once per source triple.
func (a *InMemory) Award(ctx context.Context, userID string, points int, sourceKind, sourceID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := grantKey(userID, sourceKind, sourceID)
	if existing, ok := a.entries[key]; ok {
		return existing.LedgerEntryID, nil
	}

	entry := Entry{
		LedgerEntryID: uuid.NewString(),
		UserID:        userID,
		Points:        points,
		SourceKind:    sourceKind,
		SourceID:      sourceID,
		GrantedAt:     time.Now().UTC(),
	}
	a.entries[key] = entry

	a.log.Info(ctx, "points granted",
		logger.String("userID", userID),
		logger.Int("points", points),
		logger.String("sourceKind", sourceKind),
		logger.String("sourceID", sourceID),
		logger.String("ledgerEntryID", entry.LedgerEntryID),
	)
	return entry.LedgerEntryID, nil
}

// Entries returns a copy of all committed grants.
func (a *InMemory) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Entry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e)
	}
	return out
}
