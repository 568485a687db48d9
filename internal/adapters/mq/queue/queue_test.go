package queue

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func testEntry(sessionID string) Entry {
	return Entry{
		At:        time.Now().UTC(),
		UserID:    "user-1",
		SessionID: sessionID,
		Allowed:   true,
		Reason:    "Verified gameplay session",
		Score:     92,
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given an in-memory audit queue", t, func() {
		ctx := context.Background()

		Convey("When entries are enqueued and dequeued", func() {
			q := NewInMemoryQueue(WithCapacity(10), WithBufferSize(10))

			So(q.Enqueue(ctx, testEntry("sess-1")), ShouldBeTrue)
			So(q.Enqueue(ctx, testEntry("sess-2")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			ch := q.Dequeue(ctx)
			first := <-ch
			second := <-ch

			Convey("Then entries arrive in order", func() {
				So(first.SessionID, ShouldEqual, "sess-1")
				So(second.SessionID, ShouldEqual, "sess-2")
			})
		})

		Convey("When the queue is at capacity", func() {
			q := NewInMemoryQueue(WithCapacity(2), WithBufferSize(2))

			So(q.Enqueue(ctx, testEntry("sess-1")), ShouldBeTrue)
			So(q.Enqueue(ctx, testEntry("sess-2")), ShouldBeTrue)

			Convey("Then further entries are shed without blocking", func() {
				So(q.Enqueue(ctx, testEntry("sess-3")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed", func() {
			q := NewInMemoryQueue(WithCapacity(10), WithBufferSize(10))
			So(q.Enqueue(ctx, testEntry("sess-1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue is refused and the dequeue channel drains then closes", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, testEntry("sess-2")), ShouldBeFalse)

				ch := q.Dequeue(ctx)
				entry, ok := <-ch
				So(ok, ShouldBeTrue)
				So(entry.SessionID, ShouldEqual, "sess-1")

				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})

			Convey("Then closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
