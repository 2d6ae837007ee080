package game

import (
	"context"
	"time"
)

// Input is what a player does during one frame.
type Input struct {
	Plus        bool
	Minus       bool
	Acknowledge bool
}

// Controller decides the input for the next frame from the current state.
type Controller func(State) Input

func (e *Engine) apply(s State, in Input) State {
	s.IsPlusHeld = in.Plus
	s.IsMinusHeld = in.Minus
	if in.Acknowledge {
		s = e.Acknowledge(s)
	}
	return s
}

// Step applies one frame of input and advances the state by dt.
func (e *Engine) Step(s State, ctrl Controller, dt float64) State {
	if ctrl != nil {
		s = e.apply(s, ctrl(s))
	}
	return e.Tick(s, dt)
}

// Run drives s in real time, one tick per interval, using the measured time between ticks
// as dt. It returns once the game leaves playing, or with ctx's error once ctx is done. No
// tick runs after Run returns.
func (e *Engine) Run(ctx context.Context, s State, interval time.Duration, ctrl Controller) (State, error) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for s.Status == StatusPlaying {
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s = e.Step(s, ctrl, dt)
		}
	}
	return s, nil
}

// Simulate runs a game headless with a fixed dt until it ends or maxTime seconds of game
// time have passed.
func (e *Engine) Simulate(ctx context.Context, s State, dt, maxTime float64, ctrl Controller) (State, error) {
	dt = clampDelta(dt)
	if dt == 0 {
		dt = MaxTickDelta
	}
	for s.Status == StatusPlaying && s.Timer < maxTime {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		s = e.Step(s, ctrl, dt)
	}
	return s, nil
}
