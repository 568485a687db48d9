package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/djjrip/gg-loop-platform-sub004/internal/client/device"
	"github.com/djjrip/gg-loop-platform-sub004/internal/client/sampler"
	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
)

// Profile shapes the synthetic activity of one simulated session.
type Profile string

const (
	// ProfileLegit looks like sustained real play and should end up
	// award eligible.
	ProfileLegit Profile = "legit"

	// ProfileIdle keeps the game open with barely any input, the way
	// idle farmers do.
	ProfileIdle Profile = "idle"

	// ProfileStorm simulates a client whose probes keep failing.
	ProfileStorm Profile = "storm"
)

// SessionScript is the full snapshot series for one simulated session.
type SessionScript struct {
	SessionID string
	UserID    string
	Profile   Profile
	Snapshots []telemetry.Snapshot
}

// Virtual sampling cadence. Each session replays a scripted device
// through a real sampler under synthetic time: a warmup long enough to
// accrue the minimum active play, then one snapshot per emission
// window.
const (
	sampleInterval     = 100 * time.Millisecond
	samplesPerSnapshot = 100  // 10s emission window at 10 Hz
	warmupSamples      = 3600 // six minutes of play before the first snapshot
)

var errProbeFailed = errors.New("probe failed")

// generateScripts builds one script per session, cycling profiles so
// every run exercises eligible, blocked, and escalated paths.
func generateScripts(cfg *Config) []SessionScript {
	profiles := []Profile{ProfileLegit, ProfileLegit, ProfileLegit, ProfileIdle, ProfileStorm}
	policies := config.NewPolicyStore(config.DefaultPolicy())

	scripts := make([]SessionScript, 0, cfg.Sessions)
	for i := 0; i < cfg.Sessions; i++ {
		profile := profiles[i%len(profiles)]
		scripts = append(scripts, buildScript(profile, cfg.SnapshotsPerSession, policies))
	}
	return scripts
}

// buildScript replays a scripted device through a sampler, backdated
// so the final snapshot lands at the present.
func buildScript(profile Profile, count int, policies *config.PolicyStore) SessionScript {
	script := SessionScript{
		SessionID: uuid.NewString(),
		UserID:    "user-" + uuid.NewString()[:8],
		Profile:   profile,
	}

	total := warmupSamples + count*samplesPerSnapshot
	start := time.Now().UTC().Add(-time.Duration(total) * sampleInterval)

	dev := device.NewFake(profileFrames(profile, total, count)...)
	s := sampler.New(dev, policies, sampler.WithSessionStart(start))

	ctx := context.Background()
	var seq uint64
	for i := 1; i <= total; i++ {
		at := start.Add(time.Duration(i) * sampleInterval)
		s.Sample(ctx, at)
		if i > warmupSamples && (i-warmupSamples)%samplesPerSnapshot == 0 {
			seq++
			script.Snapshots = append(script.Snapshots, s.Snapshot(script.SessionID, script.UserID, seq, at))
		}
	}
	return script
}

// profileFrames scripts the fake device for one session.
func profileFrames(profile Profile, total, count int) []device.Frame {
	frames := make([]device.Frame, 0, total)

	// Probes start failing midway through the emission phase.
	stormAt := warmupSamples + (count/2)*samplesPerSnapshot

	for i := 0; i < total; i++ {
		switch {
		case profile == ProfileStorm && i >= stormAt:
			frames = append(frames, device.Frame{Err: errProbeFailed})
		case profile == ProfileIdle:
			frames = append(frames, device.Frame{
				ProcessRunning: true,
				Foreground:     true,
				Pointer:        device.PointerSample{X: 400, Y: 300},
			})
		default:
			// Steady play: one key and one movement event per sample,
			// a click edge every other sample, pointer drifting a
			// pixel per tick.
			frames = append(frames, device.Frame{
				ProcessRunning: true,
				Foreground:     true,
				Pointer:        device.PointerSample{X: float64(i % 1920), Y: 300},
				Keys: device.KeyState{
					KeyEvents:         1,
					MovementKeyEvents: 1,
					ClickDown:         i%2 == 0,
				},
			})
		}
	}
	return frames
}
