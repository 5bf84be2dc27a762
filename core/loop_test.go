package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stepClock advances by a fixed step on every Now call.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := &Loop{Clock: &stepClock{step: 16 * time.Millisecond}}

	frames := 0
	err := loop.Run(ctx, func(info FrameInfo) error {
		frames++
		if frames == 3 {
			cancel()
		}
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run: expected context.Canceled, got %v", err)
	}
	if frames != 3 {
		t.Errorf("Run: expected 3 frames, got %d", frames)
	}
}

func TestLoopStopsOnErrStop(t *testing.T) {
	loop := &Loop{Clock: &stepClock{step: time.Millisecond}}
	frames := 0
	err := loop.Run(context.Background(), func(info FrameInfo) error {
		frames++
		if info.Index == 4 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Errorf("Run: expected nil, got %v", err)
	}
	if frames != 5 {
		t.Errorf("Run: expected 5 frames, got %d", frames)
	}
}

func TestLoopMaxFrames(t *testing.T) {
	loop := &Loop{Clock: &stepClock{step: time.Millisecond}, MaxFrames: 10}
	frames := 0
	if err := loop.Run(context.Background(), func(FrameInfo) error {
		frames++
		return nil
	}); err != nil {
		t.Fatalf("Run: unexpected error %v", err)
	}
	if frames != 10 {
		t.Errorf("MaxFrames: expected 10, got %d", frames)
	}
}

func TestLoopWrapsFrameError(t *testing.T) {
	boom := errors.New("boom")
	loop := &Loop{Clock: &stepClock{step: time.Millisecond}}
	err := loop.Run(context.Background(), func(info FrameInfo) error {
		if info.Index == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Run: expected wrapped boom, got %v", err)
	}
}

func TestLoopDeltaTime(t *testing.T) {
	loop := &Loop{
		Clock:     &stepClock{step: 100 * time.Millisecond},
		MaxFrames: 3,
		MaxDelta:  0.05,
	}
	var deltas []float32
	loop.Run(context.Background(), func(info FrameInfo) error {
		deltas = append(deltas, info.DeltaTime)
		return nil
	})
	for i, dt := range deltas {
		if dt != 0.05 {
			t.Errorf("frame %d: expected clamped delta 0.05, got %v", i, dt)
		}
	}
}

func TestLoopCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := (&Loop{}).Run(ctx, func(FrameInfo) error {
		called = true
		return nil
	})
	if called {
		t.Error("frame function ran after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run: expected context.Canceled, got %v", err)
	}
}
