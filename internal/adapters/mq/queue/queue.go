// Package queue buffers audit entries between the guardrail hot path
// and the audit workers.
//
// Implementations may use channels or more advanced structures. The
// engine starts with an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/audit"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 100000
	defaultBufferSize    = 100000
)

// Entry is the payload type flowing through the queue.
type Entry = audit.Entry

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an entry to the queue.
	// Returns false if the queue is full and the entry was not enqueued.
	Enqueue(ctx context.Context, e Entry) bool

	// Dequeue returns a channel that will receive entries as they become
	// available. The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Entry

	// Len returns the current number of queued entries.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new entries can be enqueued and the dequeue
	// channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	entries    chan Entry
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.entries = make(chan Entry, q.bufferSize)

	metrics.UpdateAuditQueueCapacity(q.capacity)
	metrics.UpdateAuditQueueSize(0)
	metrics.UpdateAuditQueueUtilization(0.0)

	return q
}

// Enqueue adds an entry to the queue. A full queue sheds the entry
// rather than blocking the guardrail path.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "closed")
		return false
	}

	if len(q.entries) >= q.capacity {
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "capacity_exceeded")
		return false
	}

	select {
	case q.entries <- e:
		metrics.RecordAuditEnqueue()
		currentSize := len(q.entries)
		metrics.UpdateAuditQueueSize(currentSize)
		metrics.UpdateAuditQueueUtilization(float64(currentSize) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "context_cancelled")
		return false
	default:
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive entries as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Entry {
	dequeueChan := make(chan Entry)
	go func() {
		defer close(dequeueChan)
		for entry := range q.entries {
			select {
			case dequeueChan <- entry:
				metrics.RecordAuditDequeue()
				currentSize := len(q.entries)
				metrics.UpdateAuditQueueSize(currentSize)
				metrics.UpdateAuditQueueUtilization(float64(currentSize) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued entries.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.entries)
	metrics.UpdateAuditQueueSize(size)
	metrics.UpdateAuditQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.entries)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
