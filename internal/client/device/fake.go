package device

import (
	"context"
	"sync"
)

// Frame is one scripted reading for the fake device. The fake replays
// frames in order and repeats the last one when the script runs out.
type Frame struct {
	ProcessRunning bool
	Foreground     bool
	Pointer        PointerSample
	Keys           KeyState
	// Err, when set, fails every probe for this frame.
	Err error
}

// Fake is a scripted Capability for tests and the traffic simulator.
// A probe round always opens with DetectProcess, so the fake advances
// to the next frame there and serves the remaining probes from it.
type Fake struct {
	mu      sync.Mutex
	frames  []Frame
	pos     int
	started bool
}

// NewFake creates a fake device that replays the given frames.
func NewFake(frames ...Frame) *Fake {
	return &Fake{frames: frames}
}

// Append adds frames to the end of the script.
func (f *Fake) Append(frames ...Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frames...)
}

func (f *Fake) current() Frame {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.frames) == 0 {
		return Frame{}
	}
	return f.frames[f.pos]
}

func (f *Fake) DetectProcess(_ context.Context) (bool, error) {
	f.mu.Lock()
	if f.started && f.pos < len(f.frames)-1 {
		f.pos++
	}
	f.started = true
	var frame Frame
	if len(f.frames) > 0 {
		frame = f.frames[f.pos]
	}
	f.mu.Unlock()
	return frame.ProcessRunning, frame.Err
}

func (f *Fake) IsForeground(_ context.Context) (bool, error) {
	frame := f.current()
	return frame.Foreground, frame.Err
}

func (f *Fake) SamplePointer(_ context.Context) (PointerSample, error) {
	frame := f.current()
	return frame.Pointer, frame.Err
}

func (f *Fake) SampleKeys(_ context.Context) (KeyState, error) {
	frame := f.current()
	return frame.Keys, frame.Err
}
