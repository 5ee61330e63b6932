// vehicle/link.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package vehicle defines the boundary between the flight controller and
// the vehicle: the capabilities the controller relies on, the telemetry
// it observes, and a MAVLink implementation of both.
package vehicle

import (
	"errors"
	"fmt"

	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/plan"
)

var (
	ErrLinkDisconnected = errors.New("Vehicle link disconnected")
	ErrLinkClosed       = errors.New("Vehicle link closed")
)

// Event identifies which part of the vehicle's telemetry changed.
type Event int

const (
	PositionUpdate Event = iota
	VelocityUpdate
	StateUpdate
)

func (e Event) String() string {
	switch e {
	case PositionUpdate:
		return "position"
	case VelocityUpdate:
		return "velocity"
	case StateUpdate:
		return "state"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Telemetry is a snapshot of the vehicle's most recently reported state.
type Telemetry struct {
	LocalPosition  math.Position3 // NED, relative to home
	LocalVelocity  math.Position3 // NED
	GlobalPosition math.Geodetic
	GlobalHome     math.Geodetic
	Armed          bool
	Guided         bool
}

// HorizontalSpeed returns the magnitude of the north/east velocity.
func (t Telemetry) HorizontalSpeed() float64 {
	return math.Length2(t.LocalVelocity.Horizontal())
}

// Link is the set of vehicle capabilities the flight controller uses.
// Commands are asynchronous: a nil error means the request was sent, not
// that the vehicle acted on it; the outcome shows up in later telemetry.
type Link interface {
	Arm() error
	Disarm() error
	Takeoff(altitude float64) error
	Land() error
	CommandPosition(north, east, altitude, heading float64) error
	TakeControl() error
	ReleaseControl() error
	SetHomePosition(origin math.GeoOrigin) error

	// SendWaypoints writes the planned route to the link's raw transport
	// for display by the simulator.
	SendWaypoints(wps []plan.Waypoint) error

	Telemetry() Telemetry

	// Events delivers notifications in the order they were received.
	// The channel is closed when the link goes away, either through
	// Close or because the connection dropped.
	Events() <-chan Event

	Close() error
}
