package animation

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPlayResetsClock(t *testing.T) {
	d := NewDriver(0, Accelerated, 0)
	d.StepForward()
	d.StepForward()
	f := d.Play()
	if !f.Playing || f.Step != 0 || f.Time != 0 {
		t.Fatalf("Play() = %+v", f)
	}
	d.Advance()
	if again := d.Play(); again.Time == 0 {
		t.Fatal("Play while playing must not rewind")
	}
}

func TestAdvanceWhilePausedIsNoop(t *testing.T) {
	d := NewDriver(0, Accelerated, 0)
	if _, ok := d.Advance(); ok {
		t.Fatal("Advance produced a frame while paused")
	}
	if got := d.State().Time; got != 0 {
		t.Fatalf("time moved to %v", got)
	}
}

func TestAdvanceWalksThroughStages(t *testing.T) {
	d := NewDriver(0, Accelerated, 0)
	d.Play()

	var f Frame
	for i := 0; i < 62; i++ {
		f, _ = d.Advance()
	}
	if f.Step != 0 {
		t.Fatalf("step after %.3fs = %d, want 0", f.Time, f.Step)
	}
	f, _ = d.Advance()
	if f.Step != 1 {
		t.Fatalf("step after %.3fs = %d, want 1", f.Time, f.Step)
	}
	if math.Abs(f.Time-63*FrameSeconds) > 1e-9 {
		t.Fatalf("time = %v", f.Time)
	}
}

func TestStepAtWraps(t *testing.T) {
	cases := []struct {
		t    float64
		want int
	}{
		{0, 0},
		{0.99, 0},
		{1.0, 1},
		{2.5, 2},
		{3.99, 3},
		{4.0, 0},
		{5.2, 1},
	}
	for _, tc := range cases {
		if got := StepAt(tc.t, DefaultMaxSteps); got != tc.want {
			t.Errorf("StepAt(%v) = %d, want %d", tc.t, got, tc.want)
		}
	}
}

func TestStepForwardClampsAndProgress(t *testing.T) {
	d := NewDriver(0, RealTime, 0)
	want := []float64{100.0 / 3, 200.0 / 3, 100, 100}
	for i, w := range want {
		f := d.StepForward()
		if math.Abs(f.Progress-w) > 1e-9 {
			t.Fatalf("step %d progress = %v, want %v", i, f.Progress, w)
		}
	}
	if got := d.State().Step; got != DefaultMaxSteps-1 {
		t.Fatalf("step = %d", got)
	}
}

func TestResetPausesAndRewinds(t *testing.T) {
	d := NewDriver(0, Accelerated, 0)
	d.Play()
	for i := 0; i < 100; i++ {
		d.Advance()
	}
	f := d.Reset()
	if f.Playing || f.Step != 0 || f.Time != 0 || f.Progress != 0 {
		t.Fatalf("Reset() = %+v", f)
	}
}

func TestListeners(t *testing.T) {
	d := NewDriver(0, Accelerated, 0)
	var got []Frame
	remove := d.AddListener(func(f Frame) { got = append(got, f) })

	d.Play()
	d.Advance()
	d.Pause()
	d.Advance() // paused, no notification
	if len(got) != 3 {
		t.Fatalf("listener saw %d frames, want 3", len(got))
	}
	if got[2].Playing {
		t.Fatal("last frame should be paused")
	}

	remove()
	d.StepForward()
	if len(got) != 3 {
		t.Fatal("removed listener still called")
	}
}

func TestRunAcceleratedFrameLimit(t *testing.T) {
	d := NewDriver(time.Hour, Accelerated, 0)
	d.Play()
	<-d.Run(context.Background(), 10)
	if got := d.State().Time; math.Abs(got-10*FrameSeconds) > 1e-9 {
		t.Fatalf("time after 10 frames = %v", got)
	}
}

func TestRunRealTimeStopsOnCancel(t *testing.T) {
	d := NewDriver(time.Millisecond, RealTime, 0)
	d.Play()

	var mu sync.Mutex
	frames := 0
	d.AddListener(func(Frame) {
		mu.Lock()
		frames++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := d.Run(ctx, 0)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	if frames == 0 {
		t.Fatal("no frames ran")
	}
}

func TestRunAcceleratedParksWhilePaused(t *testing.T) {
	d := NewDriver(0, Accelerated, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := d.Run(ctx, 0)

	time.Sleep(20 * time.Millisecond)
	if n := d.loops.Load(); n > 1 {
		t.Fatalf("paused accelerated Run looped %d times", n)
	}

	d.Play()
	deadline := time.Now().Add(time.Second)
	for d.State().Time == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Run did not resume after Play")
		}
		time.Sleep(time.Millisecond)
	}

	d.Pause()
	time.Sleep(5 * time.Millisecond)
	parked := d.loops.Load()
	time.Sleep(20 * time.Millisecond)
	if n := d.loops.Load(); n > parked+1 {
		t.Fatalf("Run kept looping after Pause: %d -> %d", parked, n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
