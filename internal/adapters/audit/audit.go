// Package audit keeps the append-only record of guardrail decisions.
package audit

import (
	"sync"
	"time"
)

// Entry is one immutable audit record of an eligibility decision.
type Entry struct {
	At            time.Time `json:"at"`
	UserID        string    `json:"userId"`
	SessionID     string    `json:"sessionId"`
	Allowed       bool      `json:"allowed"`
	Reason        string    `json:"reason"`
	Score         int       `json:"score"`
	Multiplier    float64   `json:"multiplier"`
	Warnings      []string  `json:"warnings,omitempty"`
	PolicyVersion string    `json:"policyVersion"`
}

// Log is an in-memory append-only audit store. Entries are never
// mutated or removed once appended.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates an empty audit log.
func NewLog() *Log {
	return &Log{}
}

// Append records one decision.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Len returns the number of recorded decisions.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Recent returns up to n of the newest entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || len(l.entries) == 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}
