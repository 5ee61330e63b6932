// math/point.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

///////////////////////////////////////////////////////////////////////////
// Point2

// Point2 is a horizontal position in the local frame: [0] is north, [1]
// is east. Names of the helpers are brief to avoid clutter.
type Point2 [2]float64

func (p Point2) North() float64 { return p[0] }
func (p Point2) East() float64  { return p[1] }

func (p Point2) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p[0], p[1])
}

// a-b
func Sub2(a, b Point2) Point2 {
	return Point2{a[0] - b[0], a[1] - b[1]}
}

func Length2(v Point2) float64 {
	return gomath.Sqrt(v[0]*v[0] + v[1]*v[1])
}

func Distance2(a, b Point2) float64 {
	return Length2(Sub2(a, b))
}

///////////////////////////////////////////////////////////////////////////
// Position3

// Frame records how the vertical component of a Position3 is to be
// interpreted.
type Frame int

const (
	// FrameNED: (north, east, down); down is positive toward the ground.
	FrameNED Frame = iota
	// FrameNEA: (north, east, altitude); altitude is positive up.
	FrameNEA
)

func (f Frame) String() string {
	switch f {
	case FrameNED:
		return "NED"
	case FrameNEA:
		return "NEA"
	default:
		return fmt.Sprintf("Frame(%d)", int(f))
	}
}

// Position3 is a local-frame position that always carries its vertical
// frame so that down and altitude can't be confused.
type Position3 struct {
	North, East float64
	Vertical    float64
	Frame       Frame
}

func NED(north, east, down float64) Position3 {
	return Position3{North: north, East: east, Vertical: down, Frame: FrameNED}
}

func NEA(north, east, altitude float64) Position3 {
	return Position3{North: north, East: east, Vertical: altitude, Frame: FrameNEA}
}

// Altitude returns the height above the origin, regardless of frame.
func (p Position3) Altitude() float64 {
	if p.Frame == FrameNED {
		return -p.Vertical
	}
	return p.Vertical
}

// Down returns the down-positive vertical component, regardless of frame.
func (p Position3) Down() float64 {
	return -p.Altitude()
}

func (p Position3) ToNED() Position3 {
	return NED(p.North, p.East, p.Down())
}

func (p Position3) ToNEA() Position3 {
	return NEA(p.North, p.East, p.Altitude())
}

func (p Position3) Horizontal() Point2 {
	return Point2{p.North, p.East}
}

func (p Position3) String() string {
	return fmt.Sprintf("%s(%.2f, %.2f, %.2f)", p.Frame, p.North, p.East, p.Vertical)
}
