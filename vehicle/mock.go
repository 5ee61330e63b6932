// vehicle/mock.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package vehicle

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/plan"
)

// MockLink is an in-memory Link that records the requests made of it.
// Tests drive it by updating its telemetry and emitting events.
type MockLink struct {
	// Err, if set, is returned by every command.
	Err error

	mu       sync.Mutex
	tel      Telemetry
	calls    []string
	home     math.GeoOrigin
	sent     [][]plan.Waypoint
	events   chan Event
	closed   bool
	detached bool
}

func NewMockLink() *MockLink {
	return &MockLink{events: make(chan Event, 256)}
}

func (m *MockLink) record(format string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, fmt.Sprintf(format, args...))
	if m.closed {
		return ErrLinkClosed
	} else if m.detached {
		return ErrLinkDisconnected
	}
	return m.Err
}

func (m *MockLink) Arm() error            { return m.record("arm") }
func (m *MockLink) Disarm() error         { return m.record("disarm") }
func (m *MockLink) Land() error           { return m.record("land") }
func (m *MockLink) TakeControl() error    { return m.record("take control") }
func (m *MockLink) ReleaseControl() error { return m.record("release control") }

func (m *MockLink) Takeoff(altitude float64) error {
	return m.record("takeoff %.1f", altitude)
}

func (m *MockLink) CommandPosition(north, east, altitude, heading float64) error {
	return m.record("position %.0f %.0f %.1f %.0f", north, east, altitude, heading)
}

func (m *MockLink) SetHomePosition(origin math.GeoOrigin) error {
	m.mu.Lock()
	m.home = origin
	m.mu.Unlock()
	return m.record("set home")
}

func (m *MockLink) SendWaypoints(wps []plan.Waypoint) error {
	m.mu.Lock()
	m.sent = append(m.sent, slices.Clone(wps))
	m.mu.Unlock()
	return m.record("send waypoints %d", len(wps))
}

func (m *MockLink) Telemetry() Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel
}

func (m *MockLink) Events() <-chan Event { return m.events }

func (m *MockLink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.calls = append(m.calls, "close")
		m.closed = true
		if !m.detached {
			close(m.events)
		}
	}
	return nil
}

// Update modifies the telemetry the link reports.
func (m *MockLink) Update(f func(*Telemetry)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.tel)
}

// Emit queues a notification; it is dropped if the link is gone.
func (m *MockLink) Emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed && !m.detached {
		select {
		case m.events <- ev:
		default:
			panic("MockLink event queue full")
		}
	}
}

// Disconnect simulates losing the connection to the vehicle.
func (m *MockLink) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed && !m.detached {
		m.detached = true
		close(m.events)
	}
}

// Calls returns the requests made so far, in order.
func (m *MockLink) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *MockLink) Home() math.GeoOrigin {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.home
}

// Sent returns each waypoint list passed to SendWaypoints.
func (m *MockLink) Sent() [][]plan.Waypoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

var _ Link = (*MockLink)(nil)
var _ Link = (*MAVLink)(nil)
