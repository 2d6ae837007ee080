package game

// Engine advances game states. It holds no per-game data, so one engine can drive any number
// of games; the only impurity is the injected Random.
type Engine struct {
	cfg Config
	rng Random
}

func NewEngine(cfg Config, rng Random) *Engine {
	if rng == nil {
		rng = NewRandom(1)
	}
	return &Engine{cfg: cfg, rng: rng}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Start returns a fresh playing state with the first interference interval drawn.
func (e *Engine) Start() State {
	return State{
		Comfort:           e.cfg.InitialComfort,
		Temperature:       e.cfg.InitialTemperature,
		TargetTemperature: e.cfg.TargetTemperature,
		InterferenceTimer: e.nextInterval(),
		Interference:      noInterference(),
		Status:            StatusPlaying,
	}
}

// Reset returns the idle state shown before a game starts.
func (e *Engine) Reset() State {
	s := e.Start()
	s.Status = StatusIdle
	return s
}

// Tick advances s by dt seconds. dt is clamped to [0, MaxTickDelta]. States that are not
// playing come back unchanged.
func (e *Engine) Tick(s State, dt float64) State {
	if s.Status != StatusPlaying {
		return s
	}
	dt = clampDelta(dt)

	s.Temperature = e.updateTemperature(s, dt)
	s.Comfort = e.updateComfort(s, dt)
	s = e.updateInterference(s, dt)
	s.SuccessHoldTimer = updateSuccessHold(s.SuccessHoldTimer, s.Comfort, dt)
	s.Timer += dt

	switch {
	case s.Comfort <= 0:
		s.Status = StatusFailure
	case s.SuccessHoldTimer >= e.cfg.SuccessHoldTime:
		s.Status = StatusSuccess
	}
	return s
}

// Acknowledge dismisses the active interference unless it is controls_reversed, which only
// expires on its own.
func (e *Engine) Acknowledge(s State) State {
	if s.Status != StatusPlaying || !s.Interference.Active || !s.Interference.Type.Clearable() {
		return s
	}
	return e.endInterference(s)
}

func (e *Engine) updateTemperature(s State, dt float64) float64 {
	up, down := s.IsPlusHeld, s.IsMinusHeld
	if s.ControlsReversed() {
		up, down = down, up
	}

	t := s.Temperature
	step := e.cfg.TemperatureChangeRate * dt
	if up {
		t += step
	}
	if down {
		t -= step
	}
	return clamp01(t)
}

func (e *Engine) updateComfort(s State, dt float64) float64 {
	step := e.cfg.ComfortChangeRate * dt
	if s.InTolerance(e.cfg) {
		return clamp01(s.Comfort + step)
	}
	return clamp01(s.Comfort - step)
}

func (e *Engine) updateInterference(s State, dt float64) State {
	if s.Interference.Active {
		s.Interference.Remaining -= dt
		if s.Interference.Remaining <= 0 {
			return e.endInterference(s)
		}
		return s
	}

	s.InterferenceTimer -= dt
	if s.InterferenceTimer < 0 {
		s.InterferenceTimer = 0
	}
	if s.InterferenceTimer == 0 {
		s = e.beginInterference(s)
	}
	return s
}

func (e *Engine) beginInterference(s State) State {
	kind := pickInterference(e.rng)
	s.Interference = Interference{
		Type:      kind,
		Active:    true,
		Duration:  e.cfg.InterferenceDuration,
		Remaining: e.cfg.InterferenceDuration,
	}
	if kind == InterferenceTemperatureShock {
		s.TargetTemperature = shockTarget(e.rng)
	}
	return s
}

func (e *Engine) endInterference(s State) State {
	s.Interference = noInterference()
	s.TargetTemperature = e.cfg.TargetTemperature
	s.InterferenceTimer = e.nextInterval()
	return s
}

func (e *Engine) nextInterval() float64 {
	return between(e.rng, e.cfg.InterferenceMinInterval, e.cfg.InterferenceMaxInterval)
}

func updateSuccessHold(hold, comfort, dt float64) float64 {
	if comfort >= 1 {
		return hold + dt
	}
	return 0
}

func clampDelta(dt float64) float64 {
	if dt < 0 {
		return 0
	}
	if dt > MaxTickDelta {
		return MaxTickDelta
	}
	return dt
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
