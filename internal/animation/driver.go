// Package animation steps the demo canvases through their stages on a
// fixed per-frame clock and drives progressive waveform reveals.
package animation

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Mode describes how the Driver paces frames.
type Mode int

const (
	// RealTime waits FrameInterval of wall-clock time between frames.
	RealTime Mode = iota
	// Accelerated runs frames back to back.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

const (
	// DefaultFrameInterval is one display frame at ~60 Hz.
	DefaultFrameInterval = 16 * time.Millisecond
	// FrameSeconds is how far CurrentTime moves per frame regardless of
	// pacing mode.
	FrameSeconds = 0.016
	// CycleSeconds is the length of one pass through every stage.
	CycleSeconds = 4.0
	// DefaultMaxSteps is the number of demo stages: digital, carrier,
	// process, output.
	DefaultMaxSteps = 4
)

// Frame is a snapshot of the driver state handed to listeners.
type Frame struct {
	Time     float64 `json:"current_time"`
	Step     int     `json:"current_step"`
	MaxSteps int     `json:"max_steps"`
	Playing  bool    `json:"is_playing"`
	Progress float64 `json:"progress"`
}

// Driver owns the animation clock. All methods are safe for concurrent use;
// listeners run on the calling goroutine after the lock is released.
type Driver struct {
	mu       sync.RWMutex
	interval time.Duration
	mode     Mode
	maxSteps int

	playing     bool
	currentTime float64
	step        int

	nextID    int
	listeners map[int]func(Frame)

	// wake is signalled by Play so an accelerated Run parked on a paused
	// driver resumes.
	wake  chan struct{}
	loops atomic.Int64
}

// NewDriver constructs a paused driver. Non-positive arguments fall back to
// DefaultFrameInterval and DefaultMaxSteps.
func NewDriver(interval time.Duration, mode Mode, maxSteps int) *Driver {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Driver{
		interval:  interval,
		mode:      mode,
		maxSteps:  maxSteps,
		listeners: make(map[int]func(Frame)),
		wake:      make(chan struct{}, 1),
	}
}

func (d *Driver) Interval() time.Duration { return d.interval }
func (d *Driver) Mode() Mode              { return d.mode }

// AddListener registers fn to be called on every frame and state change.
// The returned function removes it.
func (d *Driver) AddListener(fn func(Frame)) (remove func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// State returns the current frame without advancing.
func (d *Driver) State() Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frameLocked()
}

// Progress is the current step as a percentage of the last step.
func (d *Driver) Progress() float64 {
	return d.State().Progress
}

// Play starts the animation from the first stage. Calling Play while
// already playing is a no-op.
func (d *Driver) Play() Frame {
	d.mu.Lock()
	if d.playing {
		f := d.frameLocked()
		d.mu.Unlock()
		return f
	}
	d.playing = true
	d.step = 0
	d.currentTime = 0
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return d.commit()
}

// Pause stops advancing; the current stage stays on screen.
func (d *Driver) Pause() Frame {
	d.mu.Lock()
	d.playing = false
	return d.commit()
}

// Reset pauses and rewinds to the first stage.
func (d *Driver) Reset() Frame {
	d.mu.Lock()
	d.playing = false
	d.step = 0
	d.currentTime = 0
	return d.commit()
}

// StepForward moves one stage ahead, stopping at the last one.
func (d *Driver) StepForward() Frame {
	d.mu.Lock()
	if d.step < d.maxSteps-1 {
		d.step++
	}
	return d.commit()
}

// Advance runs a single frame. It does nothing while paused and reports
// whether a frame was produced.
func (d *Driver) Advance() (Frame, bool) {
	d.mu.Lock()
	if !d.playing {
		f := d.frameLocked()
		d.mu.Unlock()
		return f, false
	}
	d.currentTime += FrameSeconds
	d.step = StepAt(d.currentTime, d.maxSteps)
	return d.commit(), true
}

// StepAt maps an animation time to its stage within the CycleSeconds loop.
func StepAt(t float64, maxSteps int) int {
	phase := math.Mod(t, CycleSeconds) / CycleSeconds
	step := int(math.Floor(phase * float64(maxSteps)))
	return min(max(step, 0), maxSteps-1)
}

// Run advances frames until ctx is cancelled or, when frames > 0, that many
// frames have been attempted. It returns a channel closed on exit.
// An unbounded accelerated Run parks while paused until the next Play.
func (d *Driver) Run(ctx context.Context, frames int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var tick <-chan time.Time
		if d.mode == RealTime {
			ticker := time.NewTicker(d.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for n := 0; frames <= 0 || n < frames; n++ {
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}
			d.loops.Add(1)
			if _, ok := d.Advance(); !ok && tick == nil && frames <= 0 {
				select {
				case <-ctx.Done():
					return
				case <-d.wake:
				}
			}
		}
	}()
	return done
}

// commit snapshots the state, releases the lock taken by the caller and
// notifies listeners.
func (d *Driver) commit() Frame {
	f := d.frameLocked()
	fns := make([]func(Frame), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn(f)
	}
	return f
}

func (d *Driver) frameLocked() Frame {
	progress := 100.0
	if d.maxSteps > 1 {
		progress = float64(d.step) / float64(d.maxSteps-1) * 100
	}
	return Frame{
		Time:     d.currentTime,
		Step:     d.step,
		MaxSteps: d.maxSteps,
		Playing:  d.playing,
		Progress: progress,
	}
}
