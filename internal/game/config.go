package game

import "time"

// Config holds the tuning knobs of one game. Rates are per second; temperatures and comfort
// live on [0,1].
type Config struct {
	TargetTemperature     float64
	ToleranceWidth        float64
	ComfortChangeRate     float64
	TemperatureChangeRate float64
	InitialComfort        float64
	InitialTemperature    float64

	SuccessHoldTime         float64
	InterferenceMinInterval float64
	InterferenceMaxInterval float64
	InterferenceDuration    float64
}

// MaxTickDelta caps the simulated time of a single tick.
const MaxTickDelta = 1.0 / 30

// DefaultFrameInterval is the loop cadence used when none is given.
const DefaultFrameInterval = time.Second / 60

const (
	shockHighTarget = 0.9
	shockLowTarget  = 0.1
)

func DefaultConfig() Config {
	return Config{
		TargetTemperature:       0.5,
		ToleranceWidth:          0.1,
		ComfortChangeRate:       0.2,
		TemperatureChangeRate:   0.5,
		InitialComfort:          0.5,
		InitialTemperature:      0.5,
		SuccessHoldTime:         5,
		InterferenceMinInterval: 5,
		InterferenceMaxInterval: 10,
		InterferenceDuration:    5,
	}
}
