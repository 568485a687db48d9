// Package identity maps internal user ids to externally verified
// player handles. Handle binding happens upstream on the platform;
// this adapter only reads the established mapping.
package identity

import (
	"context"
	"fmt"
	"sync"
)

// Static is a fixed in-memory handle mapping.
type Static struct {
	mu      sync.RWMutex
	handles map[string]string
}

// NewStatic creates a resolver over the given userID to handle map.
func NewStatic(handles map[string]string) *Static {
	m := make(map[string]string, len(handles))
	for k, v := range handles {
		m[k] = v
	}
	return &Static{handles: m}
}

// Bind records or replaces a user's handle.
func (s *Static) Bind(userID, handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[userID] = handle
}

// HandleFor returns the player handle bound to userID.
func (s *Static) HandleFor(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles[userID]
	if !ok {
		return "", fmt.Errorf("no handle bound for user %s", userID)
	}
	return h, nil
}

// Passthrough treats the user id itself as the player handle. Useful
// when the upstream platform already issues handle-equal ids.
type Passthrough struct{}

// HandleFor returns userID unchanged.
func (Passthrough) HandleFor(_ context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("empty user id")
	}
	return userID, nil
}
