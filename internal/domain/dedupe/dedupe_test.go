package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(100))
		ctx := context.Background()

		Convey("When recording a new key", func() {
			seen := d.SeenAndRecord(ctx, "sess-1:1")

			Convey("Then it is newly recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a replay of the same key is detected", func() {
				So(d.SeenAndRecord(ctx, "sess-1:1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording keys for different sessions", func() {
			So(d.SeenAndRecord(ctx, "sess-1:1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "sess-2:1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 2)
		})
	})
}

func TestUnrecord(t *testing.T) {
	Convey("Given a deduper with a recorded key", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(100))
		ctx := context.Background()
		d.SeenAndRecord(ctx, "sess-1:7")

		Convey("When the key is unrecorded", func() {
			d.Unrecord(ctx, "sess-1:7")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "sess-1:7"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an absent key", func() {
			So(func() { d.Unrecord(ctx, "missing") }, ShouldNotPanic)
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	Convey("Given a deduper bounded to 10 keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10))
		ctx := context.Background()

		Convey("When recording more keys than the bound", func() {
			for i := 0; i < 25; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("sess-1:%d", i))
			}

			Convey("Then the size never exceeds the bound", func() {
				So(d.Size(), ShouldEqual, 10)
			})

			Convey("Then the oldest keys were evicted", func() {
				So(d.SeenAndRecord(ctx, "sess-1:0"), ShouldBeFalse)
			})

			Convey("Then the newest keys are still recorded", func() {
				So(d.SeenAndRecord(ctx, "sess-1:24"), ShouldBeTrue)
			})
		})
	})
}

func TestUnboundedMode(t *testing.T) {
	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		ctx := context.Background()

		Convey("When recording many keys", func() {
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("sess-1:%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "sess-1:0"), ShouldBeTrue)
			})
		})
	})
}

func TestConcurrentAccess(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10_000))
		ctx := context.Background()

		Convey("When many goroutines race on the same keys", func() {
			const workers = 8
			const keys = 500
			dupes := make([]int, workers)

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < keys; i++ {
						if d.SeenAndRecord(ctx, fmt.Sprintf("sess-9:%d", i)) {
							dupes[w]++
						}
					}
				}(w)
			}
			wg.Wait()

			Convey("Then each key is recorded exactly once", func() {
				So(d.Size(), ShouldEqual, keys)
				total := 0
				for _, n := range dupes {
					total += n
				}
				So(total, ShouldEqual, (workers-1)*keys)
			})
		})
	})
}
