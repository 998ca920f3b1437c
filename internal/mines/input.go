package mines

import "time"

// ButtonState is one mouse button during one tick: edges (Pressed,
// Released) and level (Down).
type ButtonState struct {
	Pressed  bool `json:"pressed"`
	Released bool `json:"released"`
	Down     bool `json:"down"`
}

// Input is everything the board consumes in one tick. Cursor has already
// been mapped to a grid cell by the caller; Elapsed is the wall time since
// the previous tick.
type Input struct {
	Cursor  Point
	Left    ButtonState
	Right   ButtonState
	Middle  ButtonState
	Elapsed time.Duration
}

type Gesture int8

const (
	NoGesture Gesture = iota
	Open
	Flag
	Chord
)

func (g Gesture) String() string {
	switch g {
	case Open:
		return "open"
	case Flag:
		return "flag"
	case Chord:
		return "chord"
	default:
		return "none"
	}
}

/*
Gesture decodes the buttons into at most one action.

A chord is both buttons pressed together, either button released while the
other is held, or a middle release. Otherwise a left press opens (unless the
right button is held, which means a chord is being set up) and a right
press toggles a flag.
*/
func (in Input) Gesture() Gesture {
	l, r, m := in.Left, in.Right, in.Middle
	switch {
	case l.Pressed && r.Pressed,
		l.Down && r.Released,
		r.Down && l.Released,
		m.Released:
		return Chord
	case l.Pressed && !r.Down:
		return Open
	case r.Pressed:
		return Flag
	default:
		return NoGesture
	}
}

// Click builds the input of a single press of g at p.
func Click(g Gesture, p Point) Input {
	in := Input{Cursor: p}
	switch g {
	case Open:
		in.Left = ButtonState{Pressed: true, Down: true}
	case Flag:
		in.Right = ButtonState{Pressed: true, Down: true}
	case Chord:
		in.Middle = ButtonState{Released: true}
	}
	return in
}
