package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStop can be returned by a frame function to end the loop without error.
var ErrStop = errors.New("stop frame loop")

// FrameInfo describes one iteration of the frame loop.
type FrameInfo struct {
	Index     uint64
	Time      time.Time
	DeltaTime float32 // seconds since the previous frame, clamped to Loop.MaxDelta
}

// Clock supplies frame timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// FrameFunc runs the work of one displayed frame.
type FrameFunc func(FrameInfo) error

// Loop is an explicit frame scheduler. It runs until its context is
// cancelled, the frame function returns ErrStop or an error, or MaxFrames
// frames have run.
type Loop struct {
	Clock     Clock   // nil uses the wall clock
	MaxFrames uint64  // 0 = unbounded
	MaxDelta  float32 // 0 = no clamp
}

// Run blocks until the loop exits. It returns ctx.Err() when the context was
// cancelled, nil on ErrStop or MaxFrames, and the wrapped frame error otherwise.
func (l *Loop) Run(ctx context.Context, frame FrameFunc) error {
	clock := l.Clock
	if clock == nil {
		clock = systemClock{}
	}

	last := clock.Now()
	var index uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.MaxFrames > 0 && index >= l.MaxFrames {
			return nil
		}

		now := clock.Now()
		dt := float32(now.Sub(last).Seconds())
		if dt < 0 {
			dt = 0
		}
		if l.MaxDelta > 0 && dt > l.MaxDelta {
			dt = l.MaxDelta
		}
		last = now

		err := frame(FrameInfo{Index: index, Time: now, DeltaTime: dt})
		if errors.Is(err, ErrStop) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", index, err)
		}
		index++
	}
}
