// vehicle/mavlink.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package vehicle

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/aerolab/motionplan/log"
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/plan"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

type MAVLinkConfig struct {
	Host string
	Port int

	// SystemID identifies us on the link.
	SystemID uint8
	// TargetSystem is the vehicle's system ID; if zero, it's taken from
	// the first heartbeat received.
	TargetSystem    uint8
	TargetComponent uint8

	DialTimeout time.Duration
}

func (c MAVLinkConfig) Address() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// MAVLink is a Link to a vehicle speaking MAVLink over TCP.
type MAVLink struct {
	cfg  MAVLinkConfig
	conn *lockedConn
	node *gomavlib.Node
	lg   *log.Logger

	mu           sync.Mutex
	tel          Telemetry
	targetSystem uint8
	closed       bool
	disconnected bool
	haveHome     bool
	// Set by a heartbeat while the home position is still unknown.
	homeWanted bool

	events chan Event
	done   chan struct{}
	once   sync.Once
}

// lockedConn serializes writes so that envelopes written directly to
// the connection don't interleave with MAVLink frames.
type lockedConn struct {
	net.Conn
	mu sync.Mutex
}

func (c *lockedConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.Write(b)
}

// DialMAVLink connects to the vehicle at tcp:<host>:<port> and starts
// delivering telemetry.
func DialMAVLink(cfg MAVLinkConfig, lg *log.Logger) (*MAVLink, error) {
	if cfg.SystemID == 0 {
		cfg.SystemID = 255
	}
	if cfg.TargetComponent == 0 {
		cfg.TargetComponent = 1
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	c, err := net.DialTimeout("tcp", cfg.Address(), cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Address(), err)
	}
	conn := &lockedConn{Conn: c}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{gomavlib.EndpointCustom{ReadWriteCloser: conn}},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: cfg.SystemID,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	l := &MAVLink{
		cfg:          cfg,
		conn:         conn,
		node:         node,
		lg:           lg.With(slog.String("link", cfg.Address())),
		targetSystem: cfg.TargetSystem,
		events:       make(chan Event, 64),
		done:         make(chan struct{}),
	}
	l.lg.Info("connected", slog.Int("system_id", int(cfg.SystemID)))

	go l.run()

	return l, nil
}

func (l *MAVLink) run() {
	forwarding := true
	stop := func() {
		if forwarding {
			forwarding = false
			close(l.events)
		}
	}
	defer stop()

	// gomavlib's event channel is drained until the node is closed, even
	// after we've stopped forwarding.
	for ev := range l.node.Events() {
		switch e := ev.(type) {
		case *gomavlib.EventFrame:
			if !forwarding {
				continue
			}
			evs := l.handleMessage(e.SystemID(), e.Message())
			if l.takeHomeRequest() {
				// Writing from this goroutine could block the node's event delivery.
				go l.requestHome()
			}
			for _, ev := range evs {
				if !forwarding {
					break
				}
				select {
				case l.events <- ev:
				case <-l.done:
					stop()
				}
			}

		case *gomavlib.EventChannelClose:
			l.mu.Lock()
			closed := l.closed
			l.disconnected = true
			l.mu.Unlock()

			if !closed {
				l.lg.Warn("connection lost")
			}
			stop()
		}
	}
}

// handleMessage updates the telemetry snapshot and returns the resulting
// notifications.
func (l *MAVLink) handleMessage(sysid uint8, msg message.Message) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.targetSystem == 0 {
		if _, ok := msg.(*common.MessageHeartbeat); !ok {
			return nil
		}
		l.targetSystem = sysid
		l.lg.Info("found vehicle", slog.Int("system_id", int(sysid)))
	} else if sysid != l.targetSystem {
		return nil
	}

	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		l.tel.Armed = m.BaseMode&common.MAV_MODE_FLAG_SAFETY_ARMED != 0
		l.tel.Guided = m.BaseMode&common.MAV_MODE_FLAG_GUIDED_ENABLED != 0
		l.homeWanted = !l.haveHome
		return []Event{StateUpdate}

	case *common.MessageLocalPositionNed:
		l.tel.LocalPosition = math.NED(float64(m.X), float64(m.Y), float64(m.Z))
		l.tel.LocalVelocity = math.NED(float64(m.Vx), float64(m.Vy), float64(m.Vz))
		return []Event{PositionUpdate, VelocityUpdate}

	case *common.MessageGlobalPositionInt:
		l.tel.GlobalPosition = math.Geodetic{
			Latitude:  float64(m.Lat) / 1e7,
			Longitude: float64(m.Lon) / 1e7,
			Altitude:  float64(m.Alt) / 1000,
		}

	case *common.MessageHomePosition:
		l.tel.GlobalHome = math.Geodetic{
			Latitude:  float64(m.Latitude) / 1e7,
			Longitude: float64(m.Longitude) / 1e7,
			Altitude:  float64(m.Altitude) / 1000,
		}
		l.haveHome, l.homeWanted = true, false
	}
	return nil
}

func (l *MAVLink) takeHomeRequest() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	want := l.homeWanted
	l.homeWanted = false
	return want
}

// requestHome asks the autopilot for HOME_POSITION, which not every
// autopilot streams on its own. It is repeated on each heartbeat until
// the home position arrives.
func (l *MAVLink) requestHome() {
	id := (&common.MessageHomePosition{}).GetID()
	if err := l.command(common.MAV_CMD_REQUEST_MESSAGE, float32(id)); err != nil {
		l.lg.Warn("unable to request home position", slog.Any("error", err))
	}
}

func (l *MAVLink) Telemetry() Telemetry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tel
}

func (l *MAVLink) Events() <-chan Event {
	return l.events
}

func (l *MAVLink) usable() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLinkClosed
	} else if l.disconnected {
		return ErrLinkDisconnected
	}
	return nil
}

func (l *MAVLink) write(msg message.Message) error {
	if err := l.usable(); err != nil {
		return err
	}
	l.node.WriteMessageAll(msg)
	return nil
}

func (l *MAVLink) command(cmd common.MAV_CMD, params ...float32) error {
	var p [7]float32
	copy(p[:], params)

	l.mu.Lock()
	target := l.targetSystem
	l.mu.Unlock()

	l.lg.Debug("command", slog.String("cmd", cmd.String()), slog.Any("params", p))
	return l.write(&common.MessageCommandLong{
		TargetSystem:    target,
		TargetComponent: l.cfg.TargetComponent,
		Command:         cmd,
		Param1:          p[0],
		Param2:          p[1],
		Param3:          p[2],
		Param4:          p[3],
		Param5:          p[4],
		Param6:          p[5],
		Param7:          p[6],
	})
}

func (l *MAVLink) Arm() error    { return l.command(common.MAV_CMD_COMPONENT_ARM_DISARM, 1) }
func (l *MAVLink) Disarm() error { return l.command(common.MAV_CMD_COMPONENT_ARM_DISARM, 0) }
func (l *MAVLink) Land() error   { return l.command(common.MAV_CMD_NAV_LAND) }

func (l *MAVLink) Takeoff(altitude float64) error {
	return l.command(common.MAV_CMD_NAV_TAKEOFF, 0, 0, 0, 0, 0, 0, float32(altitude))
}

func (l *MAVLink) TakeControl() error {
	return l.command(common.MAV_CMD_NAV_GUIDED_ENABLE, 1)
}

func (l *MAVLink) ReleaseControl() error {
	return l.command(common.MAV_CMD_NAV_GUIDED_ENABLE, 0)
}

func (l *MAVLink) SetHomePosition(origin math.GeoOrigin) error {
	return l.command(common.MAV_CMD_DO_SET_HOME, 0, 0, 0, 0,
		float32(origin.Latitude), float32(origin.Longitude), float32(origin.Altitude))
}

// positionOnly ignores everything in SET_POSITION_TARGET_LOCAL_NED but
// the position and yaw.
const positionOnly = common.POSITION_TARGET_TYPEMASK_VX_IGNORE | common.POSITION_TARGET_TYPEMASK_VY_IGNORE |
	common.POSITION_TARGET_TYPEMASK_VZ_IGNORE | common.POSITION_TARGET_TYPEMASK_AX_IGNORE |
	common.POSITION_TARGET_TYPEMASK_AY_IGNORE | common.POSITION_TARGET_TYPEMASK_AZ_IGNORE |
	common.POSITION_TARGET_TYPEMASK_YAW_RATE_IGNORE

func (l *MAVLink) CommandPosition(north, east, altitude, heading float64) error {
	l.mu.Lock()
	target := l.targetSystem
	l.mu.Unlock()

	return l.write(&common.MessageSetPositionTargetLocalNed{
		TargetSystem:    target,
		TargetComponent: l.cfg.TargetComponent,
		CoordinateFrame: common.MAV_FRAME_LOCAL_NED,
		TypeMask:        positionOnly,
		X:               float32(north),
		Y:               float32(east),
		Z:               float32(-altitude),
		Yaw:             float32(math.Radians(heading)),
	})
}

func (l *MAVLink) SendWaypoints(wps []plan.Waypoint) error {
	if err := l.usable(); err != nil {
		return err
	}
	buf, err := EncodeWaypoints(wps)
	if err != nil {
		return err
	}
	_, err = l.conn.Write(buf)
	return err
}

func (l *MAVLink) Close() error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		close(l.done)
		l.conn.Close()
		l.node.Close()
		l.lg.Info("closed")
	})
	return nil
}
