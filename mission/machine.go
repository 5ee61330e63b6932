// mission/machine.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aerolab/motionplan/log"
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/plan"
	"github.com/aerolab/motionplan/vehicle"
)

var (
	ErrPlanningFailed = errors.New("Planning failed")
	ErrMissionAborted = errors.New("Mission aborted")
)

// Planner computes the route from the vehicle's current position.
type Planner interface {
	Plan(ctx context.Context, position math.Geodetic) (*plan.Result, error)
}

type Transition struct {
	From, To FlightState
	Event    Event
}

// Machine runs a mission: it feeds vehicle events through Step and
// carries out the resulting commands. All of its work happens on the
// goroutine calling Run (or HandleEvent); the mutex only makes it safe
// to inspect the machine from elsewhere.
type Machine struct {
	link    vehicle.Link
	planner Planner
	lg      *log.Logger

	mu      sync.Mutex
	mc      MissionContext
	history []Transition
	stopped bool
	err     error
}

func NewMachine(link vehicle.Link, planner Planner, mc MissionContext, lg *log.Logger) *Machine {
	return &Machine{
		link:    link,
		planner: planner,
		mc:      mc,
		lg:      lg,
	}
}

// Run starts the mission and processes vehicle events until the mission
// ends, the link goes away, or ctx is canceled. The link is closed on
// return. A mission that ends with the vehicle back in Manual returns
// nil unless planning failed.
func (m *Machine) Run(ctx context.Context) error {
	defer m.link.Close()

	if err := m.HandleEvent(ctx, MissionStart); err != nil {
		return err
	}

	events := m.link.Events()
	for !m.Done() {
		select {
		case <-ctx.Done():
			m.abort("canceled")
			return fmt.Errorf("%w: %w", ErrMissionAborted, ctx.Err())

		case ev, ok := <-events:
			if !ok {
				if m.Done() {
					break
				}
				m.abort("link disconnected")
				return vehicle.ErrLinkDisconnected
			}
			if err := m.HandleEvent(ctx, linkEvent(ev)); err != nil {
				return err
			}
		}
	}

	return m.Err()
}

// HandleEvent runs a single event through the state machine along with
// any internal events that result from executing its commands. Errors
// from the link end the mission and are returned.
func (m *Machine) HandleEvent(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for queue := []Event{ev}; len(queue) > 0 && !m.stopped; {
		ev, queue = queue[0], queue[1:]

		tel := m.link.Telemetry()
		next, cmds := Step(m.mc, ev, tel) // every transition issues commands
		if len(cmds) > 0 {
			m.lg.Info("transition", slog.String("from", m.mc.State.String()),
				slog.String("to", next.State.String()), slog.String("event", ev.String()))
			m.history = append(m.history, Transition{From: m.mc.State, To: next.State, Event: ev})
		}
		m.mc = next

		for _, cmd := range cmds {
			follow, err := m.execute(ctx, cmd, tel)
			if err != nil {
				m.lg.Errorf("%s: %v", cmd, err)
				m.halt(ev)
				m.err = fmt.Errorf("%s: %w", cmd, err)
				return m.err
			}
			queue = append(queue, follow...)
		}
	}
	return nil
}

func (m *Machine) execute(ctx context.Context, cmd Command, tel vehicle.Telemetry) ([]Event, error) {
	m.lg.Debug("command", slog.String("command", cmd.String()))

	switch cmd.Kind {
	case CmdArm:
		return nil, m.link.Arm()
	case CmdDisarm:
		return nil, m.link.Disarm()
	case CmdTakeControl:
		return nil, m.link.TakeControl()
	case CmdReleaseControl:
		return nil, m.link.ReleaseControl()
	case CmdTakeoff:
		return nil, m.link.Takeoff(cmd.Altitude)
	case CmdPosition:
		wp := cmd.Waypoint
		return nil, m.link.CommandPosition(wp.North, wp.East, wp.Altitude, wp.Heading)
	case CmdLand:
		return nil, m.link.Land()
	case CmdPlan:
		return []Event{PlanComplete}, m.plan(ctx, tel)
	case CmdStop:
		m.stopped = true
		m.lg.Info("mission complete")
		return nil, m.link.Close()
	default:
		panic(fmt.Sprintf("unhandled command %s", cmd))
	}
}

// plan runs the planner and loads its waypoints. A planning failure is
// not returned; it's recorded and the state machine abandons the
// mission when it sees PlanComplete without a plan.
func (m *Machine) plan(ctx context.Context, tel vehicle.Telemetry) error {
	res, err := m.planner.Plan(ctx, tel.GlobalPosition)
	if err != nil {
		m.lg.Error("planning failed", slog.Any("error", err))
		m.err = fmt.Errorf("%w: %w", ErrPlanningFailed, err)
		return nil
	}

	if err := m.link.SetHomePosition(res.Origin); err != nil {
		return err
	}

	m.mc.Planned = true
	m.mc.Origin = res.Origin
	m.mc.Waypoints = slices.Clone(res.Waypoints)
	m.lg.Info("loaded waypoints", slog.Int("count", len(res.Waypoints)), slog.String("origin", res.Origin.String()))

	if len(res.Waypoints) > 0 {
		if err := m.link.SendWaypoints(res.Waypoints); err != nil {
			m.lg.Warnf("unable to send waypoints: %v", err)
		}
	}
	return nil
}

// halt drops the machine into Manual without issuing further commands.
func (m *Machine) halt(ev Event) {
	if m.mc.State != Manual {
		m.history = append(m.history, Transition{From: m.mc.State, To: Manual, Event: ev})
	}
	m.mc.State, m.mc.InMission = Manual, false
	m.stopped = true
}

func (m *Machine) lastEvent() Event {
	if len(m.history) == 0 {
		return MissionStart
	}
	return m.history[len(m.history)-1].Event
}

func (m *Machine) abort(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lg.Warn("mission aborted", slog.String("reason", reason), slog.String("state", m.mc.State.String()))
	m.halt(m.lastEvent())
}

// Done reports whether the mission has ended.
func (m *Machine) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Err returns the reason the mission failed, if it did.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Context returns a copy of the mission's current state.
func (m *Machine) Context() MissionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mc.Snapshot()
}

// History returns the state transitions so far, in order.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

// Trace returns the sequence of states the machine has been in,
// starting with the initial one.
func (m *Machine) Trace() []FlightState {
	h := m.History()
	if len(h) == 0 {
		return []FlightState{m.Context().State}
	}
	trace := []FlightState{h[0].From}
	for _, t := range h {
		trace = append(trace, t.To)
	}
	return trace
}
