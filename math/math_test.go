// math/math_test.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
	"testing"
)

// The San Francisco obstacle map origin.
var sfOrigin = GeoOrigin{Latitude: 37.792480, Longitude: -122.397450, Altitude: 0}

func TestGlobalToLocalOrigin(t *testing.T) {
	p := GlobalToLocal(Geodetic(sfOrigin), sfOrigin)
	if Abs(p.North) > 1e-6 || Abs(p.East) > 1e-6 || Abs(p.Vertical) > 1e-6 {
		t.Errorf("origin should map to (0,0,0), got %s", p)
	}
	if p.Frame != FrameNED {
		t.Errorf("expected NED frame, got %s", p.Frame)
	}
}

func TestGlobalToLocalAxes(t *testing.T) {
	// One thousandth of a degree of latitude is ~111m north.
	north := GlobalToLocal(Geodetic{Latitude: sfOrigin.Latitude + 0.001, Longitude: sfOrigin.Longitude}, sfOrigin)
	if north.North < 110 || north.North > 112 || Abs(north.East) > 0.01 {
		t.Errorf("expected ~111m north, got %s", north)
	}

	east := GlobalToLocal(Geodetic{Latitude: sfOrigin.Latitude, Longitude: sfOrigin.Longitude + 0.001}, sfOrigin)
	if east.East < 87 || east.East > 89 || Abs(east.North) > 0.01 {
		t.Errorf("expected ~88m east, got %s", east)
	}

	up := GlobalToLocal(Geodetic{Latitude: sfOrigin.Latitude, Longitude: sfOrigin.Longitude, Altitude: 25}, sfOrigin)
	if !NearlyEqual(up.Down(), -25, 1e-6) || !NearlyEqual(up.Altitude(), 25, 1e-6) {
		t.Errorf("expected 25m up, got %s", up)
	}
}

func TestLocalGlobalRoundTrip(t *testing.T) {
	for _, p := range []Position3{
		NED(0, 0, 0),
		NED(315.2, -450.7, -10),
		NED(-1200, 800, 3.5),
		NEA(55, 12, 40),
	} {
		g := LocalToGlobal(p, sfOrigin)
		back := GlobalToLocal(g, sfOrigin)
		if Abs(back.North-p.North) > 1e-6 || Abs(back.East-p.East) > 1e-6 ||
			Abs(back.Down()-p.Down()) > 1e-6 {
			t.Errorf("%s: round trip gave %s via %s", p, back, g)
		}
	}
}

func TestPositionFrames(t *testing.T) {
	p := NED(1, 2, -10)
	if p.Altitude() != 10 || p.Down() != -10 {
		t.Errorf("NED altitude/down: got %f/%f", p.Altitude(), p.Down())
	}
	a := p.ToNEA()
	if a.Frame != FrameNEA || a.Vertical != 10 || a.Altitude() != 10 {
		t.Errorf("NEA conversion: got %s", a)
	}
	if b := a.ToNED(); b != p {
		t.Errorf("NED round trip: got %s expected %s", b, p)
	}
	if h := p.Horizontal(); h != (Point2{1, 2}) {
		t.Errorf("horizontal: got %s", h)
	}
}

func TestDistance(t *testing.T) {
	if s := Sub2(Point2{3, 5}, Point2{1, 1}); s != (Point2{2, 4}) {
		t.Errorf("sub: got %s", s)
	}
	if d := Distance2(Point2{0, 0}, Point2{3, 4}); d != 5 {
		t.Errorf("distance: got %f", d)
	}
}

func TestCore(t *testing.T) {
	if Round(2.5) != 3 || Round(-2.5) != -3 || Round(1.49) != 1 {
		t.Errorf("Round mismatch")
	}
	if FloorInt(-0.5) != -1 || CeilInt(-0.5) != 0 {
		t.Errorf("Floor/Ceil mismatch")
	}
	if Clamp(5, 0, 3) != 3 || Clamp(-1.0, 0, 3) != 0 {
		t.Errorf("Clamp mismatch")
	}
	if !NearlyEqual(Degrees(Radians(37.5)), 37.5, 1e-12) {
		t.Errorf("degree/radian round trip")
	}
	if Abs(Degrees(gomath.Pi)-180) > 1e-12 {
		t.Errorf("Degrees(pi) != 180")
	}
}
