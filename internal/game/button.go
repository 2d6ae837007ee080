package game

import (
	"errors"
	"fmt"
)

// Button is one of the three on-screen controls.
type Button string

const (
	ButtonPlus   Button = "plus"
	ButtonMinus  Button = "minus"
	ButtonCenter Button = "center"
)

var ErrUnknownButton = errors.New("unknown button")

func ParseButton(s string) (Button, error) {
	switch b := Button(s); b {
	case ButtonPlus, ButtonMinus, ButtonCenter:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownButton, s)
}

// Press records a button going down or up. Plus and minus are held controls; the center
// button acknowledges the active interference on press and ignores release.
func (e *Engine) Press(s State, b Button, pressed bool) State {
	switch b {
	case ButtonPlus:
		s.IsPlusHeld = pressed
	case ButtonMinus:
		s.IsMinusHeld = pressed
	case ButtonCenter:
		if pressed {
			s = e.Acknowledge(s)
		}
	}
	return s
}
