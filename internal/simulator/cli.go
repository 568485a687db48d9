package simulator

import "os"

// ShowHelp prints CLI usage.
func ShowHelp() {
	os.Stdout.WriteString(`Gameplay verification traffic simulator

Drives synthetic play sessions against a running verification service:
legit players, idle farmers, and clients with failing probes. Reports
how many sessions were confirmed, blocked, or escalated.

Usage:
  simulate [flags]

Flags:
  -url string        Base URL of the service (default "http://localhost:9090")
  -sessions int      Number of simulated sessions (default 25)
  -snapshots int     Snapshots submitted per session (default 30)
  -workers int       Concurrent submitters (default NumCPU)
  -timeout duration  HTTP request timeout (default 10s)
  -secret string     Fingerprint secret for signed submissions
  -verbose           Per-session logging
  -help              Show this help
`)
}
