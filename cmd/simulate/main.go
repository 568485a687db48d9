package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/simulator"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions    = 25
	defaultSnapshots   = 30
	defaultTimeout     = 10 * time.Second
	defaultRunDeadline = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9090", "Base URL of the service")
		sessions  = flag.Int("sessions", defaultSessions, "Number of simulated sessions")
		snapshots = flag.Int("snapshots", defaultSnapshots, "Snapshots submitted per session")
		workers   = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		secret    = flag.String("secret", "", "Fingerprint secret for signed submissions")
		verbose   = flag.Bool("verbose", false, "Enable per-session logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulator.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunDeadline)
	defer cancel()

	cfg := &simulator.Config{
		BaseURL:             *baseURL,
		Sessions:            *sessions,
		SnapshotsPerSession: *snapshots,
		Workers:             *workers,
		Timeout:             *timeout,
		FingerprintSecret:   *secret,
		Verbose:             *verbose,
	}

	if err := simulator.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
