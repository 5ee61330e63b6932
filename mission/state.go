// mission/state.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mission

import (
	"fmt"

	"github.com/aerolab/motionplan/plan"
	"github.com/aerolab/motionplan/vehicle"
)

type FlightState int

const (
	Manual FlightState = iota
	Arming
	Takeoff
	Planning
	Waypoint
	Landing
	Disarming
)

func (s FlightState) String() string {
	if s < Manual || s > Disarming {
		return fmt.Sprintf("FlightState(%d)", int(s))
	}
	return [...]string{"Manual", "Arming", "Takeoff", "Planning", "Waypoint", "Landing", "Disarming"}[s]
}

// Event is what drives the state machine: either a telemetry
// notification from the vehicle or an internal completion.
type Event int

const (
	PositionUpdate Event = iota
	VelocityUpdate
	StateUpdate
	// MissionStart is raised once when the machine is started.
	MissionStart
	// PlanComplete follows a planning attempt, successful or not.
	PlanComplete
)

func (e Event) String() string {
	if e < PositionUpdate || e > PlanComplete {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return [...]string{"PositionUpdate", "VelocityUpdate", "StateUpdate", "MissionStart", "PlanComplete"}[e]
}

func linkEvent(ev vehicle.Event) Event {
	switch ev {
	case vehicle.PositionUpdate:
		return PositionUpdate
	case vehicle.VelocityUpdate:
		return VelocityUpdate
	case vehicle.StateUpdate:
		return StateUpdate
	default:
		panic(fmt.Sprintf("unhandled vehicle event %s", ev))
	}
}

type CommandKind int

const (
	CmdArm CommandKind = iota
	CmdDisarm
	CmdTakeControl
	CmdReleaseControl
	CmdPlan
	CmdTakeoff
	CmdPosition
	CmdLand
	CmdStop
)

// Command is a request the state machine makes of its environment.
// Altitude is set for CmdTakeoff and Waypoint for CmdPosition.
type Command struct {
	Kind     CommandKind
	Altitude float64
	Waypoint plan.Waypoint
}

func (c Command) String() string {
	switch c.Kind {
	case CmdArm:
		return "arm"
	case CmdDisarm:
		return "disarm"
	case CmdTakeControl:
		return "take control"
	case CmdReleaseControl:
		return "release control"
	case CmdPlan:
		return "plan"
	case CmdTakeoff:
		return fmt.Sprintf("takeoff %.1f", c.Altitude)
	case CmdPosition:
		return "position " + c.Waypoint.String()
	case CmdLand:
		return "land"
	case CmdStop:
		return "stop"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(c.Kind))
	}
}
