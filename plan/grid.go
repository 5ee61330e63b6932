// plan/grid.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"fmt"

	"github.com/aerolab/motionplan/mapdata"
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/util"
)

// GridCell is an integer position in grid coordinates; N indexes rows
// (north) and E indexes columns (east).
type GridCell struct {
	N, E int
}

func (c GridCell) Point() math.Point2 {
	return math.Point2{float64(c.N), float64(c.E)}
}

func (c GridCell) String() string {
	return fmt.Sprintf("[%d, %d]", c.N, c.E)
}

// OccupancyGrid is a 1-unit-per-cell raster of the obstacles that intrude
// on a given flight altitude. Cell (0, 0) corresponds to local position
// (NorthOffset, EastOffset); both offsets are always <= 0 so that the
// local origin lies within the grid.
type OccupancyGrid struct {
	cells       []bool
	rows, cols  int
	NorthOffset int
	EastOffset  int
	Altitude    float64
	Margin      float64
}

// CreateGrid rasterizes the obstacles for flight at the given altitude
// with the given safety margin. An obstacle is marked if its top plus the
// margin reaches above the altitude; the cells marked are those touched
// by its footprint grown by the margin.
func CreateGrid(obstacles []mapdata.Obstacle, altitude, margin float64) (*OccupancyGrid, error) {
	if len(obstacles) == 0 {
		return nil, ErrEmptyGrid
	}
	if margin < 0 {
		return nil, fmt.Errorf("negative safety margin %f", margin)
	}

	nmin, nmax, emin, emax := obstacles[0].Bounds(margin)
	for _, o := range obstacles[1:] {
		n0, n1, e0, e1 := o.Bounds(margin)
		nmin, nmax = math.Min(nmin, n0), math.Max(nmax, n1)
		emin, emax = math.Min(emin, e0), math.Max(emax, e1)
	}

	g := &OccupancyGrid{
		NorthOffset: math.Min(math.FloorInt(nmin), 0),
		EastOffset:  math.Min(math.FloorInt(emin), 0),
		Altitude:    altitude,
		Margin:      margin,
	}
	g.rows = math.Max(math.CeilInt(nmax), 1) - g.NorthOffset
	g.cols = math.Max(math.CeilInt(emax), 1) - g.EastOffset
	g.cells = make([]bool, g.rows*g.cols)

	tall := util.FilterSlice(obstacles, func(o mapdata.Obstacle) bool { return o.Top()+margin > altitude })
	for _, o := range tall {
		n0, n1, e0, e1 := o.Bounds(margin)
		r0 := math.Clamp(math.FloorInt(n0)-g.NorthOffset, 0, g.rows-1)
		r1 := math.Clamp(math.FloorInt(n1)-g.NorthOffset, 0, g.rows-1)
		c0 := math.Clamp(math.FloorInt(e0)-g.EastOffset, 0, g.cols-1)
		c1 := math.Clamp(math.FloorInt(e1)-g.EastOffset, 0, g.cols-1)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				g.cells[r*g.cols+c] = true
			}
		}
	}

	return g, nil
}

func (g *OccupancyGrid) Rows() int { return g.rows }
func (g *OccupancyGrid) Cols() int { return g.cols }

func (g *OccupancyGrid) InBounds(c GridCell) bool {
	return c.N >= 0 && c.N < g.rows && c.E >= 0 && c.E < g.cols
}

// Occupied reports whether the cell is blocked; cells outside the grid
// are considered blocked.
func (g *OccupancyGrid) Occupied(c GridCell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.cells[c.N*g.cols+c.E]
}

// OccupiedCount returns the number of blocked cells.
func (g *OccupancyGrid) OccupiedCount() int {
	n := 0
	for _, b := range g.cells {
		if b {
			n++
		}
	}
	return n
}

// LocalToGrid returns the cell containing the given local position,
// rounding to the nearest cell center.
func (g *OccupancyGrid) LocalToGrid(p math.Point2) GridCell {
	return GridCell{N: math.Round(p[0]) - g.NorthOffset, E: math.Round(p[1]) - g.EastOffset}
}

// GridToLocal is the inverse of LocalToGrid for integer positions.
func (g *OccupancyGrid) GridToLocal(c GridCell) math.Point2 {
	return math.Point2{float64(c.N + g.NorthOffset), float64(c.E + g.EastOffset)}
}
