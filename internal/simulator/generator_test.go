package simulator

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerateScripts(t *testing.T) {
	Convey("Given a simulation config", t, func() {
		cfg := &Config{Sessions: 10, SnapshotsPerSession: 12}

		scripts := generateScripts(cfg)

		Convey("Then every session gets a full ordered script", func() {
			So(len(scripts), ShouldEqual, 10)
			for _, s := range scripts {
				So(s.SessionID, ShouldNotBeEmpty)
				So(len(s.Snapshots), ShouldEqual, 12)
				for i, snap := range s.Snapshots {
					So(snap.Sequence, ShouldEqual, uint64(i+1))
					So(snap.SessionID, ShouldEqual, s.SessionID)
				}
			}
		})

		Convey("Then profiles cycle across sessions", func() {
			So(scripts[0].Profile, ShouldEqual, ProfileLegit)
			So(scripts[3].Profile, ShouldEqual, ProfileIdle)
			So(scripts[4].Profile, ShouldEqual, ProfileStorm)
		})

		Convey("Then legit scripts carry sustained activity", func() {
			legit := scripts[0]
			last := legit.Snapshots[len(legit.Snapshots)-1]
			elapsedMin := last.Timestamp.Sub(last.Metrics.SessionStart).Minutes()

			So(elapsedMin, ShouldBeGreaterThan, 6)
			So(last.Metrics.TotalInputs, ShouldBeGreaterThan, uint64(elapsedMin*30))
			So(last.ActivePlaySeconds, ShouldEqual, last.SessionDurationSeconds)
			So(last.ActivePlaySeconds, ShouldBeGreaterThan, int64(300))
		})

		Convey("Then storm scripts raise the flag midway", func() {
			storm := scripts[4]
			So(storm.Snapshots[0].FailureStorm, ShouldBeFalse)
			So(storm.Snapshots[len(storm.Snapshots)-1].FailureStorm, ShouldBeTrue)
		})

		Convey("Then idle scripts stay below the scoring thresholds", func() {
			idle := scripts[3]
			last := idle.Snapshots[len(idle.Snapshots)-1]
			perMin := float64(last.Metrics.TotalInputs) / last.Timestamp.Sub(last.Metrics.SessionStart).Minutes()

			So(perMin, ShouldBeLessThan, 5)
			So(last.Metrics.ClickEvents, ShouldEqual, 0)
		})
	})
}

func TestVerifyRun(t *testing.T) {
	Convey("Given a finished run", t, func() {
		scripts := generateScripts(&Config{Sessions: 5, SnapshotsPerSession: 2})

		Convey("When outcomes match the scripted profiles", func() {
			stats := &Stats{EligibleSessions: 3, SessionsErrored: 1, Duration: time.Second}

			So(verifyRun(scripts, stats), ShouldBeNil)
		})

		Convey("When more sessions were eligible than scripted", func() {
			stats := &Stats{EligibleSessions: 4, SessionsErrored: 1}

			So(verifyRun(scripts, stats), ShouldNotBeNil)
		})

		Convey("When a storm session failed to escalate", func() {
			stats := &Stats{EligibleSessions: 3, SessionsErrored: 0}

			So(verifyRun(scripts, stats), ShouldNotBeNil)
		})
	})
}
