// plan/waypoint.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"fmt"

	"github.com/aerolab/motionplan/math"
)

// Waypoint is a position command in the vehicle's local frame. North and
// East are whole units; Altitude is positive up. Heading is always 0
// since no yaw planning is done.
type Waypoint struct {
	North    float64
	East     float64
	Altitude float64
	Heading  float64
}

func (w Waypoint) Position() math.Position3 {
	return math.NEA(w.North, w.East, w.Altitude)
}

func (w Waypoint) Horizontal() math.Point2 {
	return math.Point2{w.North, w.East}
}

func (w Waypoint) String() string {
	return fmt.Sprintf("[%.0f, %.0f, %.1f, %.0f]", w.North, w.East, w.Altitude, w.Heading)
}

// ToWaypoints maps path positions in grid coordinates to local-frame
// commands at the given altitude.
func ToWaypoints(path Path, northOffset, eastOffset int, altitude float64) []Waypoint {
	wps := make([]Waypoint, len(path))
	for i, p := range path {
		wps[i] = Waypoint{
			North:    float64(math.Round(p[0]) + northOffset),
			East:     float64(math.Round(p[1]) + eastOffset),
			Altitude: altitude,
		}
	}
	return wps
}
