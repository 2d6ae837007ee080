package game

import (
	"errors"
	"sync"
	"testing"
)

func TestParseButton(t *testing.T) {
	for _, name := range []string{"plus", "minus", "center"} {
		if b, err := ParseButton(name); err != nil || string(b) != name {
			t.Errorf("ParseButton(%q) = %q, %v", name, b, err)
		}
	}
	if _, err := ParseButton("left"); !errors.Is(err, ErrUnknownButton) {
		t.Errorf("ParseButton(left) error = %v, want ErrUnknownButton", err)
	}
}

func TestPress_HeldControls(t *testing.T) {
	e := NewEngine(quietConfig(), &seqRandom{vals: []float64{0}})
	s := e.Start()

	s = e.Press(s, ButtonPlus, true)
	s = e.Press(s, ButtonMinus, true)
	if !s.IsPlusHeld || !s.IsMinusHeld {
		t.Fatalf("held = %v/%v, want both", s.IsPlusHeld, s.IsMinusHeld)
	}
	s = e.Press(s, ButtonPlus, false)
	if s.IsPlusHeld || !s.IsMinusHeld {
		t.Errorf("held = %v/%v, want minus only", s.IsPlusHeld, s.IsMinusHeld)
	}
}

func TestPress_CenterAcknowledges(t *testing.T) {
	// 0.0 start interval, 0.9 picks bubble_obstruction
	e := NewEngine(DefaultConfig(), &seqRandom{vals: []float64{0, 0.9}})
	s := e.Start()
	s.InterferenceTimer = 0
	s = e.Tick(s, 0)
	if s.Interference.Type != InterferenceBubbleObstruction || !s.Interference.Active {
		t.Fatalf("Interference = %+v, want active bubble_obstruction", s.Interference)
	}

	if got := e.Press(s, ButtonCenter, false); !got.Interference.Active {
		t.Error("releasing center cleared the interference")
	}
	if got := e.Press(s, ButtonCenter, true); got.Interference.Active {
		t.Error("pressing center left the interference active")
	}
}

func TestLockedRandom_Concurrent(t *testing.T) {
	rng := NewLockedRandom(7)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if v := rng.Float64(); v < 0 || v >= 1 {
					t.Errorf("Float64() = %v, want [0, 1)", v)
				}
			}
		}()
	}
	wg.Wait()
}
