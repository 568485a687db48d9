package sampler

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/djjrip/gg-loop-platform-sub004/internal/client/device"
	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func activeFrame(x, y float64, keys device.KeyState) device.Frame {
	return device.Frame{
		ProcessRunning: true,
		Foreground:     true,
		Pointer:        device.PointerSample{X: x, Y: y},
		Keys:           keys,
	}
}

func drive(s *Sampler, ticks int) {
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < ticks; i++ {
		now = now.Add(100 * time.Millisecond)
		s.Sample(ctx, now)
	}
}

func TestSampler(t *testing.T) {
	Convey("Given a sampler over a scripted device", t, func() {
		store := config.NewPolicyStore(config.DefaultPolicy())

		Convey("When frames report key and click activity", func() {
			fake := device.NewFake(
				activeFrame(0, 0, device.KeyState{KeyEvents: 3, MovementKeyEvents: 2}),
				activeFrame(3, 4, device.KeyState{ClickDown: true}),
				activeFrame(6, 8, device.KeyState{ClickDown: true}),
				activeFrame(6, 8, device.KeyState{}),
				activeFrame(6, 8, device.KeyState{ClickDown: true}),
			)
			s := New(fake, store)
			drive(s, 5)
			m := s.Metrics()

			Convey("Then counters accumulate with click edge detection", func() {
				// 3 key events plus two click edges (held click in the
				// third frame is not a new press).
				So(m.TotalInputs, ShouldEqual, 5)
				So(m.MovementKeyEvents, ShouldEqual, 2)
				So(m.ClickEvents, ShouldEqual, 2)
				// two 3-4-5 moves of 5px each
				So(m.PointerDistance, ShouldAlmostEqual, 10.0, 0.001)
			})
		})

		Convey("When a probe fails mid-session", func() {
			fake := device.NewFake(
				activeFrame(0, 0, device.KeyState{KeyEvents: 2}),
				device.Frame{Err: context.DeadlineExceeded},
				activeFrame(0, 0, device.KeyState{KeyEvents: 1}),
			)
			s := New(fake, store)
			drive(s, 3)
			m := s.Metrics()

			Convey("Then the dropped sample leaves counters untouched", func() {
				So(m.TotalInputs, ShouldEqual, 3)
				So(s.FailureStorm(), ShouldBeFalse)
			})
		})

		Convey("When failures exceed the consecutive threshold", func() {
			p := config.DefaultPolicy()
			p.FailureStormThreshold = 3
			store := config.NewPolicyStore(p)

			fake := device.NewFake(
				device.Frame{Err: context.DeadlineExceeded},
			)
			s := New(fake, store)
			drive(s, 3)

			Convey("Then the failure storm flag is raised and sticks", func() {
				So(s.FailureStorm(), ShouldBeTrue)

				fake.Append(activeFrame(0, 0, device.KeyState{}))
				drive(s, 1)
				So(s.FailureStorm(), ShouldBeTrue)
			})
		})

		Convey("When a recovery interrupts the failure run", func() {
			p := config.DefaultPolicy()
			p.FailureStormThreshold = 3
			store := config.NewPolicyStore(p)

			fake := device.NewFake(
				device.Frame{Err: context.DeadlineExceeded},
				device.Frame{Err: context.DeadlineExceeded},
				activeFrame(0, 0, device.KeyState{}),
				device.Frame{Err: context.DeadlineExceeded},
				device.Frame{Err: context.DeadlineExceeded},
			)
			s := New(fake, store)
			drive(s, 5)

			Convey("Then the consecutive count resets and no storm is flagged", func() {
				So(s.FailureStorm(), ShouldBeFalse)
			})
		})

		Convey("When the game is only intermittently foreground", func() {
			fake := device.NewFake(
				activeFrame(0, 0, device.KeyState{}),
				device.Frame{ProcessRunning: true, Foreground: false},
				activeFrame(0, 0, device.KeyState{}),
				activeFrame(0, 0, device.KeyState{}),
			)
			s := New(fake, store, WithInterval(time.Second))
			drive(s, 4)
			snap := s.Snapshot("sess-1", "user-1", 1, time.Now())

			Convey("Then only foreground ticks accrue active play", func() {
				So(snap.ActivePlaySeconds, ShouldEqual, 3)
				So(snap.GameProcessDetected, ShouldBeTrue)
				So(snap.GameForeground, ShouldBeTrue)
				So(snap.Sequence, ShouldEqual, 1)
			})
		})

		Convey("When more samples arrive than the ring holds", func() {
			fake := device.NewFake(activeFrame(0, 0, device.KeyState{KeyEvents: 1}))
			s := New(fake, store, WithRingSize(5))
			drive(s, 12)

			Convey("Then the ring keeps only the newest entries", func() {
				recent := s.Recent(10)
				So(len(recent), ShouldEqual, 5)
				So(recent[0].At.After(recent[4].At), ShouldBeTrue)
			})

			Convey("Then ring contents never feed the counters", func() {
				So(s.Metrics().TotalInputs, ShouldEqual, 12)
			})
		})
	})
}
