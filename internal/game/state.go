package game

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type InterferenceType string

const (
	InterferenceNone              InterferenceType = "none"
	InterferenceControlsReversed  InterferenceType = "controls_reversed"
	InterferenceTemperatureShock  InterferenceType = "temperature_shock"
	InterferenceBubbleObstruction InterferenceType = "bubble_obstruction"
)

var interferenceTypes = []InterferenceType{
	InterferenceControlsReversed,
	InterferenceTemperatureShock,
	InterferenceBubbleObstruction,
}

// Clearable reports whether an acknowledgement may end the event early.
func (t InterferenceType) Clearable() bool {
	return t != InterferenceControlsReversed && t != InterferenceNone
}

type Interference struct {
	Type      InterferenceType `json:"type"`
	Active    bool             `json:"isActive"`
	Duration  float64          `json:"duration"`
	Remaining float64          `json:"remainingTime"`
}

func noInterference() Interference {
	return Interference{Type: InterferenceNone}
}

// State is one frame of a game. Timers are in seconds.
type State struct {
	Comfort           float64      `json:"comfortLevel"`
	Temperature       float64      `json:"currentTemperature"`
	TargetTemperature float64      `json:"targetTemperature"`
	Timer             float64      `json:"gameTimer"`
	InterferenceTimer float64      `json:"interferenceTimer"`
	Interference      Interference `json:"interferenceEvent"`
	SuccessHoldTimer  float64      `json:"successHoldTimer"`
	IsPlusHeld        bool         `json:"isPlusHeld"`
	IsMinusHeld       bool         `json:"isMinusHeld"`
	Status            Status       `json:"gameStatus"`
}

// ControlsReversed reports whether plus and minus are currently swapped.
func (s State) ControlsReversed() bool {
	return s.Interference.Active && s.Interference.Type == InterferenceControlsReversed
}

// InTolerance reports whether the temperature sits inside the comfort band around the
// effective target.
func (s State) InTolerance(cfg Config) bool {
	diff := s.Temperature - s.TargetTemperature
	if diff < 0 {
		diff = -diff
	}
	return diff <= cfg.ToleranceWidth/2
}
