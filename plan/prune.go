// plan/prune.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// DefaultCollinearTolerance is the largest distance from the line through
// its neighbors at which an interior point is still dropped.
const DefaultCollinearTolerance = 1e-6

// PrunePath removes interior points that lie on the line between the
// points kept around them, using Douglas-Peucker with the given
// tolerance. The first and last points are always kept. The input is not
// modified.
func PrunePath(p Path, eps float64) Path {
	if len(p) < 3 {
		return append(Path(nil), p...)
	}

	// Simplify works in place, so it gets a copy.
	ls := orb.LineString(util.MapSlice(p, func(q math.Point2) orb.Point { return orb.Point(q) }))
	ls = simplify.DouglasPeucker(eps).LineString(ls)
	return util.MapSlice(ls, func(q orb.Point) math.Point2 { return math.Point2(q) })
}

// CellPath converts a grid search result to a Path.
func CellPath(cells []GridCell) Path {
	return util.MapSlice(cells, GridCell.Point)
}
