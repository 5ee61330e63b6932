// plan/errors.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import "errors"

var (
	ErrCellOccupied   = errors.New("Cell is occupied or outside the grid")
	ErrEmptyGrid      = errors.New("No obstacles to build a grid from")
	ErrGraphNotLoaded = errors.New("Navigation graph has no nodes")
	ErrNoFreeCell     = errors.New("Unable to find an unoccupied goal cell")
	ErrNoPathFound    = errors.New("No path found")
	ErrNodeNotInGraph = errors.New("Node is not in the navigation graph")
)
