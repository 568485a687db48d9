package guardrail_test

import (
	"testing"

	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/guardrail"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func confirmedRecord() session.Record {
	return session.Record{
		UserID:                 "user-1",
		SessionID:              "sess-1",
		State:                  session.StateActivePlayConfirmed,
		ActivePlaySeconds:      3000,
		SessionDurationSeconds: 3300,
		GameProcessDetected:    true,
		GameForeground:         true,
		ConfidenceScore:        85,
	}
}

func TestEvaluateHardRejections(t *testing.T) {
	Convey("Given the default policy", t, func() {
		p := config.DefaultPolicy()

		Convey("When the user id is missing", func() {
			r := confirmedRecord()
			r.UserID = ""
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeFalse)
			So(res.Reason, ShouldEqual, guardrail.ReasonMissingUser)
			So(res.ConfidenceScore, ShouldEqual, 0)
		})

		Convey("When active play is not confirmed", func() {
			r := confirmedRecord()
			r.State = session.StatePaused
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeFalse)
			So(res.Reason, ShouldEqual, guardrail.ReasonNotConfirmed)
			So(res.ConfidenceScore, ShouldEqual, 0)
		})

		Convey("When the game process is not detected", func() {
			r := confirmedRecord()
			r.GameProcessDetected = false
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeFalse)
			So(res.Reason, ShouldEqual, guardrail.ReasonProcessNotFound)
			So(res.ConfidenceScore, ShouldEqual, 0)
		})

		Convey("When active play is 250 seconds", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 250
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeFalse)
			So(res.Reason, ShouldEqual, "Minimum 5 minutes active play required")
			So(res.ConfidenceScore, ShouldEqual, 0)
		})

		Convey("When hard checks are ordered by priority", func() {
			// Missing user wins over everything else.
			r := confirmedRecord()
			r.UserID = ""
			r.State = session.StateNotPlaying
			r.GameProcessDetected = false
			r.ActivePlaySeconds = 0
			res := guardrail.Evaluate(r, p)

			So(res.Reason, ShouldEqual, guardrail.ReasonMissingUser)
		})
	})
}

func TestEvaluateActivePlayBoundary(t *testing.T) {
	Convey("Given the 300 second hard floor", t, func() {
		p := config.DefaultPolicy()

		Convey("Then 299 seconds is rejected", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 299
			r.SessionDurationSeconds = 600
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeFalse)
			So(res.Reason, ShouldEqual, guardrail.ReasonMinActivePlay)
		})

		Convey("Then exactly 300 seconds is allowed", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 300
			r.SessionDurationSeconds = 330
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeTrue)
		})
	})
}

func TestEvaluateSoftPenalties(t *testing.T) {
	Convey("Given a confirmed record scoring 85", t, func() {
		p := config.DefaultPolicy()

		Convey("When the game is not foreground", func() {
			r := confirmedRecord()
			r.GameForeground = false
			res := guardrail.Evaluate(r, p)

			So(res.ConfidenceScore, ShouldEqual, 55) // 85 - 30
			So(res.Warnings, ShouldContain, guardrail.WarnNotForeground)
			So(res.Allowed, ShouldBeTrue)
			So(res.Multiplier, ShouldEqual, 0.5)
		})

		Convey("When the session exceeds 24 hours", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 80_000
			r.SessionDurationSeconds = 90_000
			res := guardrail.Evaluate(r, p)

			// 85 - 20 (long session) + 5 + 5 (active bonuses) = 75
			So(res.ConfidenceScore, ShouldEqual, 75)
			So(res.Warnings, ShouldContain, guardrail.WarnSessionTooLong)
		})

		Convey("When the active ratio is below half", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 1000
			r.SessionDurationSeconds = 2500
			res := guardrail.Evaluate(r, p)

			So(res.ConfidenceScore, ShouldEqual, 60) // 85 - 25
			So(res.Warnings, ShouldContain, guardrail.WarnLowActiveRatio)
		})

		Convey("When the active ratio is below 0.8", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 2100
			r.SessionDurationSeconds = 3000
			res := guardrail.Evaluate(r, p)

			So(res.ConfidenceScore, ShouldEqual, 75) // 85 - 10
			So(res.Warnings, ShouldContain, guardrail.WarnModestActiveRatio)
		})

		Convey("When active play exceeds the session duration tolerance", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 4000
			r.SessionDurationSeconds = 3500
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeFalse)
			So(res.Escalate, ShouldBeTrue)
			So(res.Multiplier, ShouldEqual, 0)
			So(res.Warnings, ShouldContain, guardrail.WarnDurationExceeded)
		})
	})
}

func TestEvaluateBonuses(t *testing.T) {
	Convey("Given long honest sessions", t, func() {
		p := config.DefaultPolicy()

		Convey("When one hour of active play accrued", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 3600
			r.SessionDurationSeconds = 4000
			res := guardrail.Evaluate(r, p)

			So(res.ConfidenceScore, ShouldEqual, 90) // 85 + 5
		})

		Convey("When two hours of active play accrued", func() {
			r := confirmedRecord()
			r.ActivePlaySeconds = 7200
			r.SessionDurationSeconds = 8000
			res := guardrail.Evaluate(r, p)

			So(res.ConfidenceScore, ShouldEqual, 95) // 85 + 5 + 5
			So(res.Multiplier, ShouldEqual, 1.0)
		})

		Convey("When bonuses would push past 100", func() {
			r := confirmedRecord()
			r.ConfidenceScore = 98
			r.ActivePlaySeconds = 7200
			r.SessionDurationSeconds = 8000
			res := guardrail.Evaluate(r, p)

			So(res.ConfidenceScore, ShouldEqual, 100)
		})
	})
}

func TestEvaluateMultiplierBands(t *testing.T) {
	Convey("Given the fixed multiplier bands", t, func() {
		p := config.DefaultPolicy()

		Convey("When the final score is 65", func() {
			r := confirmedRecord()
			r.ConfidenceScore = 65
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeTrue)
			So(res.ConfidenceScore, ShouldEqual, 65)
			So(res.Multiplier, ShouldEqual, 0.75)
		})

		Convey("When the final score falls below 50", func() {
			r := confirmedRecord()
			r.ConfidenceScore = 49
			res := guardrail.Evaluate(r, p)

			So(res.Allowed, ShouldBeFalse)
			So(res.Reason, ShouldEqual, guardrail.ReasonPendingReview)
			So(res.Multiplier, ShouldEqual, 0)
		})
	})
}

func TestEvaluatePure(t *testing.T) {
	Convey("Given one verification record", t, func() {
		p := config.DefaultPolicy()
		r := confirmedRecord()
		r.GameForeground = false
		r.ActivePlaySeconds = 4000
		r.SessionDurationSeconds = 9000

		Convey("When evaluated repeatedly", func() {
			first := guardrail.Evaluate(r, p)
			for i := 0; i < 20; i++ {
				So(guardrail.Evaluate(r, p), ShouldResemble, first)
			}
		})
	})
}

type recordingAuditor struct {
	entries int
	last    guardrail.Result
}

func (a *recordingAuditor) Audit(_ session.Record, res guardrail.Result) {
	a.entries++
	a.last = res
}

func TestEvaluatorAudits(t *testing.T) {
	Convey("Given an evaluator with an auditor", t, func() {
		store := config.NewPolicyStore(config.DefaultPolicy())
		aud := &recordingAuditor{}
		ev := guardrail.NewEvaluator(store, guardrail.WithAuditor(aud))

		Convey("When evaluating a record", func() {
			res := ev.Evaluate(confirmedRecord())

			Convey("Then the decision is audited", func() {
				So(aud.entries, ShouldEqual, 1)
				So(aud.last, ShouldResemble, res)
				So(res.PolicyVersion, ShouldEqual, "v1")
			})
		})
	})
}
