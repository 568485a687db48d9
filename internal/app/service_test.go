package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/award"
	"github.com/djjrip/gg-loop-platform-sub004/internal/adapters/registry"
	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/matchverify"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/session"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type staticOracle struct {
	records map[string]matchverify.MatchRecord
}

func (o staticOracle) MatchByID(_ context.Context, matchID, _ string) (matchverify.MatchRecord, error) {
	rec, ok := o.records[matchID]
	if !ok {
		return matchverify.MatchRecord{}, matchverify.ErrMatchNotFound
	}
	return rec, nil
}

type staticResolver map[string]string

func (r staticResolver) HandleFor(_ context.Context, userID string) (string, error) {
	h, ok := r[userID]
	if !ok {
		return "", fmt.Errorf("unknown user %s", userID)
	}
	return h, nil
}

func newTestService() *Service {
	oracle := staticOracle{records: map[string]matchverify.MatchRecord{
		"m-1": {
			MatchID:         "m-1",
			DurationSeconds: 1800,
			Participants: []matchverify.Participant{
				{Handle: "SummonerOne", Kills: 7, Win: true},
			},
		},
	}}

	return New(config.NewPolicyStore(config.DefaultPolicy()),
		WithOracle(oracle),
		WithResolver(staticResolver{"user-1": "SummonerOne"}),
		WithAwarder(award.NewInMemory()),
		WithWorkerCount(2),
		WithShardCount(4),
	)
}

func confirmedSnapshot(seq uint64, now time.Time) telemetry.Snapshot {
	return telemetry.Snapshot{
		SessionID: "sess-1",
		UserID:    "user-1",
		Metrics: telemetry.Metrics{
			TotalInputs:       400,
			MovementKeyEvents: 150,
			PointerDistance:   6000,
			ClickEvents:       60,
			SessionStart:      now.Add(-10 * time.Minute),
		},
		ActivePlaySeconds:      600,
		SessionDurationSeconds: 600,
		GameProcessDetected:    true,
		GameForeground:         true,
		Timestamp:              now,
		Sequence:               seq,
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

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a configured service", t, func() {
		ctx := context.Background()
		s := newTestService()

		Convey("When started and stopped", func() {
			So(s.Start(ctx), ShouldBeNil)
			So(s.Start(ctx), ShouldBeNil) // idempotent
			s.Stop()
			s.Stop() // idempotent

			Convey("Then stats reflect the stopped state", func() {
				So(s.GetStats()["status"], ShouldEqual, "stopped")
			})
		})

		Convey("When started without collaborators", func() {
			bare := New(config.NewPolicyStore(config.DefaultPolicy()))

			Convey("Then start fails", func() {
				So(errors.Is(bare.Start(ctx), ErrMissingCollaborator), ShouldBeTrue)
			})
		})
	})
}

func TestServiceVerificationFlow(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		now := time.Now().UTC()
		s := newTestService()
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		Convey("When telemetry drives the session to confirmed play", func() {
			ack, err := s.ApplyTelemetry(ctx, confirmedSnapshot(1, now))
			So(err, ShouldBeNil)
			So(ack.State, ShouldEqual, session.StateGameDetected)

			ack, err = s.ApplyTelemetry(ctx, confirmedSnapshot(2, now.Add(10*time.Second)))
			So(err, ShouldBeNil)
			So(ack.State, ShouldEqual, session.StateActivePlayConfirmed)

			Convey("Then the session is award eligible and the decision is audited", func() {
				result, err := s.Eligibility(ctx, "sess-1")
				So(err, ShouldBeNil)
				So(result.Allowed, ShouldBeTrue)
				So(result.Multiplier, ShouldEqual, 1.0)

				So(waitFor(func() bool { return len(s.AuditTrail(1)) == 1 }, 2*time.Second), ShouldBeTrue)
				trail := s.AuditTrail(1)
				So(trail[0].SessionID, ShouldEqual, "sess-1")
				So(trail[0].Allowed, ShouldBeTrue)
			})

			Convey("Then a matching claim is verified and awarded once", func() {
				out, err := s.SubmitClaim(ctx, "m-1", "user-1", matchverify.ResultWin)
				So(err, ShouldBeNil)
				So(out.Valid, ShouldBeTrue)
				So(out.Points, ShouldEqual, 89)

				repeat, err := s.SubmitClaim(ctx, "m-1", "user-1", matchverify.ResultWin)
				So(err, ShouldBeNil)
				So(repeat.Duplicate, ShouldBeTrue)
				So(repeat.LedgerEntryID, ShouldEqual, out.LedgerEntryID)
			})

			Convey("Then ending the session archives it", func() {
				So(s.EndSession(ctx, "sess-1"), ShouldBeNil)

				stats := s.GetStats()
				So(stats["active_sessions"], ShouldEqual, 0)
				So(stats["archived_sessions"], ShouldEqual, 1)

				_, err := s.ApplyTelemetry(ctx, confirmedSnapshot(3, now.Add(time.Minute)))
				So(errors.Is(err, registry.ErrSessionEnded), ShouldBeTrue)
			})
		})

		Convey("When a replayed snapshot key is checked", func() {
			So(s.SeenSnapshot(ctx, "sess-1:9"), ShouldBeFalse)
			So(s.SeenSnapshot(ctx, "sess-1:9"), ShouldBeTrue)
		})

		Convey("When no fingerprint secret is configured", func() {
			So(s.SignatureRequired(), ShouldBeFalse)
			_, err := s.VerifySubmission("anything")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestServiceSignedTelemetry(t *testing.T) {
	Convey("Given a service requiring signed telemetry", t, func() {
		ctx := context.Background()
		s := newTestService()
		WithFingerprintSecret("shared-secret")(s)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		Convey("Then signature enforcement is on", func() {
			So(s.SignatureRequired(), ShouldBeTrue)

			_, err := s.VerifySubmission("not-a-token")
			So(err, ShouldNotBeNil)
		})
	})
}
