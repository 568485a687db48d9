package worker

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/audit"
	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/mq/queue"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func waitFor(cond func() bool, limit time.Duration) bool {
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorkerDrainsQueue(t *testing.T) {
	Convey("Given a worker over a queue and an audit log", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100), queue.WithBufferSize(100))
		log := audit.NewLog()
		w := NewInMemoryWorker(q, log, WithName("drain-test"))

		go w.Run(ctx)

		Convey("When entries are enqueued", func() {
			for i := 0; i < 5; i++ {
				So(q.Enqueue(ctx, Entry{SessionID: "sess-1", Score: i}), ShouldBeTrue)
			}

			Convey("Then they end up in the audit log", func() {
				So(waitFor(func() bool { return log.Len() == 5 }, 2*time.Second), ShouldBeTrue)
			})
		})

		Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			Convey("Then it stops cleanly", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestPoolShutdownDrains(t *testing.T) {
	Convey("Given a pool of workers over one queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(1000), queue.WithBufferSize(1000))
		log := audit.NewLog()
		p := NewPool(4, q, log)
		p.Start(ctx)

		const entries = 200
		for i := 0; i < entries; i++ {
			So(q.Enqueue(ctx, Entry{SessionID: "sess-pool", Score: i}), ShouldBeTrue)
		}

		Convey("When the pool shuts down", func() {
			err := p.Shutdown(context.Background())

			Convey("Then every queued entry was drained first", func() {
				So(err, ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				So(waitFor(func() bool { return log.Len() == entries }, 2*time.Second), ShouldBeTrue)
			})
		})
	})
}
