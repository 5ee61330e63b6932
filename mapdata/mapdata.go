// mapdata/mapdata.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package mapdata parses the obstacle and navigation graph datasets that
// are produced by the mapping pipeline.
package mapdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"strconv"
	"strings"

	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/util"
)

var ErrMapParse = errors.New("Malformed map dataset")

// MapParseError reports every problem found in a dataset.
type MapParseError struct {
	File    string
	Details string
}

func (e *MapParseError) Error() string {
	return fmt.Sprintf("%s: %s:\n%s", e.File, ErrMapParse, e.Details)
}

func (e *MapParseError) Unwrap() error { return ErrMapParse }

// Parsing gives up after this many bad lines.
const maxReportedErrors = 20

// Obstacle is an axis-aligned box in the local frame, given by its center
// and half extents. The vertical center is an altitude.
type Obstacle struct {
	North, East, Alt             float64
	HalfNorth, HalfEast, HalfAlt float64
}

// Top returns the altitude of the top of the obstacle.
func (o Obstacle) Top() float64 { return o.Alt + o.HalfAlt }

// Bounds returns the horizontal footprint of the obstacle, grown by
// margin on all sides, as (min north, max north, min east, max east).
func (o Obstacle) Bounds(margin float64) (float64, float64, float64, float64) {
	return o.North - o.HalfNorth - margin, o.North + o.HalfNorth + margin,
		o.East - o.HalfEast - margin, o.East + o.HalfEast + margin
}

// ObstacleMap is the parsed obstacle dataset.
type ObstacleMap struct {
	Origin    math.GeoOrigin
	Obstacles []Obstacle
}

// Edge is one undirected edge of the navigation graph.
type Edge struct {
	A, B   math.Point2
	Weight float64
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	cr.Comment = '#'
	return cr
}

func parseFloats(record []string) ([]float64, error) {
	v := make([]float64, len(record))
	for i, s := range record {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %q is not a number", i+1, s)
		} else if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return nil, fmt.Errorf("field %d: %q is not finite", i+1, s)
		}
		v[i] = f
	}
	return v, nil
}

// isHeaderRecord reports whether the record holds column names rather
// than data: none of its fields may parse as a number.
func isHeaderRecord(record []string) bool {
	for _, s := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return false
		}
	}
	return true
}

// parseOriginToken parses a header token of the form "<name> <value>".
func parseOriginToken(tok, name string) (float64, error) {
	f := strings.Fields(tok)
	if len(f) != 2 || f[0] != name {
		return 0, fmt.Errorf("expected %q header token, got %q", name+" <value>", tok)
	}
	v, err := strconv.ParseFloat(f[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, f[1])
	}
	return v, nil
}

// ParseObstacles reads an obstacle dataset. The first line carries the
// geodetic origin as "lat0 <value>, lon0 <value>"; an optional column
// header line may follow, and every remaining line is
// north,east,alt,half_north,half_east,half_alt.
func ParseObstacles(name string, r io.Reader) (*ObstacleMap, error) {
	var e util.ErrorLogger
	cr := newCSVReader(r)

	om := &ObstacleMap{}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MapParseError{File: name, Details: "empty dataset: missing lat0/lon0 header"}
	} else if err != nil {
		return nil, &MapParseError{File: name, Details: err.Error()}
	}
	e.Push("header")
	if len(header) < 2 {
		e.ErrorString("expected lat0 and lon0 header tokens, got %d token(s)", len(header))
	} else {
		if lat, err := parseOriginToken(header[0], "lat0"); err != nil {
			e.Error(err)
		} else if lat < -90 || lat > 90 {
			e.ErrorString("lat0 %f out of range", lat)
		} else {
			om.Origin.Latitude = lat
		}
		if lon, err := parseOriginToken(header[1], "lon0"); err != nil {
			e.Error(err)
		} else if lon < -180 || lon > 180 {
			e.ErrorString("lon0 %f out of range", lon)
		} else {
			om.Origin.Longitude = lon
		}
	}
	e.Pop()

	first := true
	for e.Count() < maxReportedErrors {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError includes the line number.
			e.Error(err)
			continue
		}
		line, _ := cr.FieldPos(0)
		e.Push(fmt.Sprintf("line %d", line))

		if first && isHeaderRecord(record) {
			// column names
		} else if len(record) != 6 {
			e.ErrorString("expected 6 fields, got %d", len(record))
		} else if v, err := parseFloats(record); err != nil {
			e.Error(err)
		} else if v[3] < 0 || v[4] < 0 || v[5] < 0 {
			e.ErrorString("negative half extent")
		} else {
			om.Obstacles = append(om.Obstacles, Obstacle{
				North: v[0], East: v[1], Alt: v[2],
				HalfNorth: v[3], HalfEast: v[4], HalfAlt: v[5],
			})
		}
		first = false

		e.Pop()
	}

	if e.HaveErrors() {
		return nil, &MapParseError{File: name, Details: e.String()}
	}
	return om, nil
}

// ParseGraph reads a navigation graph dataset: up to two leading header
// lines followed by n1,e1,n2,e2,weight rows, one undirected edge each.
func ParseGraph(name string, r io.Reader) ([]Edge, error) {
	var e util.ErrorLogger
	cr := newCSVReader(r)

	var edges []Edge
	headers := 0
	for e.Count() < maxReportedErrors {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.Error(err)
			continue
		}
		line, _ := cr.FieldPos(0)
		e.Push(fmt.Sprintf("line %d", line))

		if len(edges) == 0 && headers < 2 && isHeaderRecord(record) {
			headers++
		} else if len(record) != 5 {
			e.ErrorString("expected 5 fields, got %d", len(record))
		} else if v, err := parseFloats(record); err != nil {
			e.Error(err)
		} else if v[4] < 0 {
			e.ErrorString("negative edge weight %f", v[4])
		} else {
			edges = append(edges, Edge{
				A:      math.Point2{v[0], v[1]},
				B:      math.Point2{v[2], v[3]},
				Weight: v[4],
			})
		}

		e.Pop()
	}

	if e.HaveErrors() {
		return nil, &MapParseError{File: name, Details: e.String()}
	}
	if len(edges) == 0 {
		return nil, &MapParseError{File: name, Details: "no edges"}
	}
	return edges, nil
}
