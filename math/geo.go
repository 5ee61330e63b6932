// math/geo.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

// WGS-84 ellipsoid
const (
	EarthSemiMajorAxis = 6378137.0
	EarthFlattening    = 1 / 298.257223563
	earthEccentricity2 = EarthFlattening * (2 - EarthFlattening)
)

// Geodetic is a position on the WGS-84 ellipsoid; latitude and longitude
// are in degrees and altitude is in meters above the ellipsoid.
type Geodetic struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

func (g Geodetic) String() string {
	return fmt.Sprintf("(lat %.7f, lon %.7f, alt %.2f)", g.Latitude, g.Longitude, g.Altitude)
}

// GeoOrigin is the reference point for local-frame conversions. It is
// set once per mission.
type GeoOrigin Geodetic

func (o GeoOrigin) Geodetic() Geodetic { return Geodetic(o) }

func (o GeoOrigin) String() string { return Geodetic(o).String() }

type ecef [3]float64

func geodeticToECEF(g Geodetic) ecef {
	lat, lon := Radians(g.Latitude), Radians(g.Longitude)
	slat, clat := gomath.Sincos(lat)
	slon, clon := gomath.Sincos(lon)

	n := EarthSemiMajorAxis / gomath.Sqrt(1-earthEccentricity2*slat*slat)
	return ecef{
		(n + g.Altitude) * clat * clon,
		(n + g.Altitude) * clat * slon,
		(n*(1-earthEccentricity2) + g.Altitude) * slat,
	}
}

func ecefToGeodetic(p ecef) Geodetic {
	lon := gomath.Atan2(p[1], p[0])
	r := gomath.Hypot(p[0], p[1])

	// Fixed-point iteration on latitude; converges to well below a
	// millimeter in a handful of steps away from the poles.
	lat := gomath.Atan2(p[2], r*(1-earthEccentricity2))
	var h float64
	for range 8 {
		slat := gomath.Sin(lat)
		n := EarthSemiMajorAxis / gomath.Sqrt(1-earthEccentricity2*slat*slat)
		if clat := gomath.Cos(lat); gomath.Abs(clat) > 1e-12 {
			h = r/clat - n
		} else {
			h = gomath.Abs(p[2]) - n*(1-earthEccentricity2)
		}
		lat = gomath.Atan2(p[2], r*(1-earthEccentricity2*n/(n+h)))
	}

	return Geodetic{Latitude: Degrees(lat), Longitude: Degrees(lon), Altitude: h}
}

// GlobalToLocal converts a geodetic position to a NED offset from the
// origin.
func GlobalToLocal(g Geodetic, origin GeoOrigin) Position3 {
	p, p0 := geodeticToECEF(g), geodeticToECEF(Geodetic(origin))
	dx, dy, dz := p[0]-p0[0], p[1]-p0[1], p[2]-p0[2]

	slat, clat := gomath.Sincos(Radians(origin.Latitude))
	slon, clon := gomath.Sincos(Radians(origin.Longitude))

	n := -slat*clon*dx - slat*slon*dy + clat*dz
	e := -slon*dx + clon*dy
	d := -clat*clon*dx - clat*slon*dy - slat*dz
	return NED(n, e, d)
}

// LocalToGlobal is the inverse of GlobalToLocal. The local position may
// be given in either vertical frame.
func LocalToGlobal(p Position3, origin GeoOrigin) Geodetic {
	n, e, d := p.North, p.East, p.Down()

	slat, clat := gomath.Sincos(Radians(origin.Latitude))
	slon, clon := gomath.Sincos(Radians(origin.Longitude))

	dx := -slat*clon*n - slon*e - clat*clon*d
	dy := -slat*slon*n + clon*e - clat*slon*d
	dz := clat*n - slat*d

	p0 := geodeticToECEF(Geodetic(origin))
	return ecefToGeodetic(ecef{p0[0] + dx, p0[1] + dy, p0[2] + dz})
}
