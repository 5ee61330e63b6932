// mission/context.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mission

import (
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/plan"

	"github.com/brunoga/deep"
)

// Thresholds are the guard values for the state machine's transitions.
type Thresholds struct {
	// Takeoff completes once altitude reaches this fraction of the
	// target altitude.
	TakeoffFraction float64
	// A waypoint is reached when the horizontal distance to it is below
	// WaypointRadius.
	WaypointRadius float64
	// Landing starts at the last waypoint once horizontal speed is
	// below LandingSpeed.
	LandingSpeed float64
	// Landing completes when the altitude above home is below
	// HomeAltitude and the local vertical position is within Vertical
	// of zero.
	HomeAltitude float64
	Vertical     float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TakeoffFraction: 0.95,
		WaypointRadius:  1,
		LandingSpeed:    1,
		HomeAltitude:    0.1,
		Vertical:        0.01,
	}
}

// MissionContext is all of the mutable state of a mission.
type MissionContext struct {
	State     FlightState
	InMission bool

	TargetAltitude float64
	Thresholds     Thresholds

	// Set once planning succeeds.
	Planned bool
	Origin  math.GeoOrigin

	// Waypoints are consumed from the front; Target is the one most
	// recently commanded.
	Waypoints []plan.Waypoint
	Target    plan.Waypoint
}

func NewMissionContext(targetAltitude float64, th Thresholds) MissionContext {
	return MissionContext{
		State:          Manual,
		TargetAltitude: targetAltitude,
		Thresholds:     th,
	}
}

// Snapshot returns a copy of the context that shares no memory with it.
func (mc *MissionContext) Snapshot() MissionContext {
	return deep.MustCopy(*mc)
}
