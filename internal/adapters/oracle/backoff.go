package oracle

import "time"

const (
	backoffBase = 500 * time.Millisecond
	backoffCap  = 30 * time.Second
)

// Backoff returns the wait before retry attempt (0-based), doubling
// from the base up to a fixed cap. Callers retry only errors marked
// retryable by the client.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := backoffBase << uint(attempt)
	if d <= 0 || d > backoffCap {
		return backoffCap
	}
	return d
}
