package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/matchverify"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestClientMatchByID(t *testing.T) {
	Convey("Given an oracle server with one known match", t, func() {
		ctx := context.Background()
		var gotRegion string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRegion = r.URL.Query().Get("region")
			switch r.URL.Path {
			case "/matches/m-1":
				_ = json.NewEncoder(w).Encode(matchverify.MatchRecord{
					MatchID:         "m-1",
					DurationSeconds: 2100,
					Participants: []matchverify.Participant{
						{Handle: "SummonerOne", Kills: 4, Win: true},
					},
				})
			case "/matches/m-throttled":
				w.WriteHeader(http.StatusTooManyRequests)
			case "/matches/m-broken":
				w.WriteHeader(http.StatusInternalServerError)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		c := NewClient(srv.URL)

		Convey("When fetching a known match", func() {
			rec, err := c.MatchByID(ctx, "m-1", "euw1")

			Convey("Then the record decodes and the region is forwarded", func() {
				So(err, ShouldBeNil)
				So(rec.MatchID, ShouldEqual, "m-1")
				So(rec.DurationSeconds, ShouldEqual, 2100)
				So(len(rec.Participants), ShouldEqual, 1)
				So(gotRegion, ShouldEqual, "euw1")
			})
		})

		Convey("When the match does not exist", func() {
			_, err := c.MatchByID(ctx, "m-missing", "euw1")

			Convey("Then the error is terminal", func() {
				So(errors.Is(err, matchverify.ErrMatchNotFound), ShouldBeTrue)
				So(errors.Is(err, matchverify.ErrOracleUnavailable), ShouldBeFalse)
			})
		})

		Convey("When the oracle throttles or fails", func() {
			_, errThrottled := c.MatchByID(ctx, "m-throttled", "euw1")
			_, errBroken := c.MatchByID(ctx, "m-broken", "euw1")

			Convey("Then both errors are retryable", func() {
				So(errors.Is(errThrottled, matchverify.ErrOracleUnavailable), ShouldBeTrue)
				So(errors.Is(errBroken, matchverify.ErrOracleUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the oracle is unreachable", func() {
			down := NewClient("http://127.0.0.1:1", WithTimeout(200*time.Millisecond))
			_, err := down.MatchByID(ctx, "m-1", "euw1")

			Convey("Then the transport error is retryable", func() {
				So(errors.Is(err, matchverify.ErrOracleUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestBackoff(t *testing.T) {
	Convey("Given the retry backoff schedule", t, func() {
		Convey("Then waits double from the base up to the cap", func() {
			So(Backoff(0), ShouldEqual, 500*time.Millisecond)
			So(Backoff(1), ShouldEqual, time.Second)
			So(Backoff(3), ShouldEqual, 4*time.Second)
			So(Backoff(10), ShouldEqual, 30*time.Second)
			So(Backoff(-1), ShouldEqual, 500*time.Millisecond)
			So(Backoff(63), ShouldEqual, 30*time.Second)
		})
	})
}
