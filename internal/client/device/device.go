// Package device abstracts the host probes the companion client needs
// to observe gameplay: process presence, window focus, pointer
// position and key activity.
package device

import "context"

// PointerSample is one pointer position reading in screen pixels.
type PointerSample struct {
	X float64
	Y float64
}

// KeyState is one keyboard reading since the previous sample.
type KeyState struct {
	// KeyEvents is the number of key-down events observed.
	KeyEvents uint64
	// MovementKeyEvents counts events on the configured movement
	// bindings (WASD or arrows).
	MovementKeyEvents uint64
	// ClickDown reports whether a pointer button is currently held.
	ClickDown bool
}

// Capability is the per-platform probe surface. Implementations do a
// single cheap read per call; the sampler drives the cadence.
type Capability interface {
	// DetectProcess reports whether the target game process is running.
	DetectProcess(ctx context.Context) (bool, error)

	// IsForeground reports whether the game window has focus.
	IsForeground(ctx context.Context) (bool, error)

	// SamplePointer reads the current pointer position.
	SamplePointer(ctx context.Context) (PointerSample, error)

	// SampleKeys reads key activity accumulated since the last call.
	SampleKeys(ctx context.Context) (KeyState, error)
}
