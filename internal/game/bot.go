package game

// Thermostat returns a controller that steers the temperature toward the effective target
// and dismisses clearable interference. With probability 1-skill per frame it mashes a
// random button instead.
func Thermostat(cfg Config, skill float64, rng Random) Controller {
	deadband := cfg.ToleranceWidth / 4
	return func(s State) Input {
		if rng != nil && rng.Float64() > skill {
			r := rng.Float64()
			return Input{Plus: r < 0.5, Minus: r >= 0.5}
		}

		var in Input
		switch {
		case s.Temperature < s.TargetTemperature-deadband:
			in.Plus = true
		case s.Temperature > s.TargetTemperature+deadband:
			in.Minus = true
		}
		if s.ControlsReversed() {
			in.Plus, in.Minus = in.Minus, in.Plus
		}
		in.Acknowledge = s.Interference.Active && s.Interference.Type.Clearable()
		return in
	}
}
