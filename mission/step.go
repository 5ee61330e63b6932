// mission/step.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mission

import (
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/vehicle"
)

// Step is the flight state machine's transition function. Given the
// current context, the event that occurred and the vehicle's telemetry,
// it returns the updated context and the commands to issue. At most one
// transition happens per call; if no guard for the current state is
// satisfied, the context is returned unchanged with no commands.
//
// Step does not modify mc; the returned context may share its waypoint
// storage.
func Step(mc MissionContext, ev Event, tel vehicle.Telemetry) (MissionContext, []Command) {
	th := mc.Thresholds

	switch mc.State {
	case Manual:
		if ev == MissionStart && !mc.InMission {
			mc.State, mc.InMission = Arming, true
			return mc, []Command{{Kind: CmdArm}, {Kind: CmdTakeControl}}
		}

	case Arming:
		if ev == StateUpdate && tel.Armed {
			mc.State = Planning
			return mc, []Command{{Kind: CmdPlan}}
		}

	case Planning:
		if ev == PlanComplete {
			if !mc.Planned {
				mc.State, mc.InMission = Manual, false
				return mc, []Command{{Kind: CmdDisarm}, {Kind: CmdReleaseControl}, {Kind: CmdStop}}
			}
			mc.State = Takeoff
			return mc, []Command{{Kind: CmdTakeoff, Altitude: mc.TargetAltitude}}
		}

	case Takeoff:
		if ev == PositionUpdate && tel.LocalPosition.Altitude() >= th.TakeoffFraction*mc.TargetAltitude {
			if len(mc.Waypoints) == 0 {
				// Start and goal coincide; there's nowhere to go.
				mc.State = Landing
				return mc, []Command{{Kind: CmdLand}}
			}
			return nextWaypoint(mc)
		}

	case Waypoint:
		if ev == PositionUpdate &&
			math.Distance2(mc.Target.Horizontal(), tel.LocalPosition.Horizontal()) < th.WaypointRadius {
			if len(mc.Waypoints) > 0 {
				return nextWaypoint(mc)
			}
			if tel.HorizontalSpeed() < th.LandingSpeed {
				mc.State = Landing
				return mc, []Command{{Kind: CmdLand}}
			}
		}

	case Landing:
		if ev == VelocityUpdate &&
			tel.GlobalPosition.Altitude-tel.GlobalHome.Altitude < th.HomeAltitude &&
			math.Abs(tel.LocalPosition.Down()) < th.Vertical {
			mc.State = Disarming
			return mc, []Command{{Kind: CmdDisarm}, {Kind: CmdReleaseControl}}
		}

	case Disarming:
		if ev == StateUpdate && !tel.Armed && !tel.Guided {
			mc.State, mc.InMission = Manual, false
			return mc, []Command{{Kind: CmdStop}}
		}
	}

	return mc, nil
}

// nextWaypoint pops the head of the queue and makes it the target.
func nextWaypoint(mc MissionContext) (MissionContext, []Command) {
	mc.State = Waypoint
	mc.Target, mc.Waypoints = mc.Waypoints[0], mc.Waypoints[1:]
	return mc, []Command{{Kind: CmdPosition, Waypoint: mc.Target}}
}
