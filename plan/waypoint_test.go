// plan/waypoint_test.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"testing"

	"github.com/aerolab/motionplan/math"
)

func TestToWaypoints(t *testing.T) {
	path := Path{{316, 445}, {320.4, 449.6}, {410, 500}}
	wps := ToWaypoints(path, -316, -445, 5)

	want := []Waypoint{{0, 0, 5, 0}, {4, 5, 5, 0}, {94, 55, 5, 0}}
	if len(wps) != len(want) {
		t.Fatalf("got %d waypoints, expected %d", len(wps), len(want))
	}
	for i := range want {
		if wps[i] != want[i] {
			t.Errorf("%d: got %s, expected %s", i, wps[i], want[i])
		}
	}

	if len(ToWaypoints(nil, 0, 0, 5)) != 0 {
		t.Errorf("expected no waypoints for an empty path")
	}
}

func TestWaypointGridRoundTrip(t *testing.T) {
	g := &OccupancyGrid{rows: 50, cols: 50, cells: make([]bool, 2500), NorthOffset: -20, EastOffset: -30}
	for _, c := range []GridCell{{0, 0}, {20, 30}, {49, 1}, {7, 49}} {
		wp := ToWaypoints(Path{c.Point()}, g.NorthOffset, g.EastOffset, 10)[0]
		if back := g.LocalToGrid(wp.Horizontal()); back != c {
			t.Errorf("%s -> %s -> %s", c, wp, back)
		}
	}
}

func TestWaypointPosition(t *testing.T) {
	wp := Waypoint{North: 3, East: -4, Altitude: 5}
	p := wp.Position()
	if p.North != 3 || p.East != -4 || p.Altitude() != 5 || p.Down() != -5 {
		t.Errorf("got %s", p)
	}
	if s := wp.String(); s != "[3, -4, 5.0, 0]" {
		t.Errorf("String: got %q", s)
	}
	if !math.NearlyEqual(math.Length2(wp.Horizontal()), 5, 1e-12) {
		t.Errorf("horizontal length %f", math.Length2(wp.Horizontal()))
	}
}
