// plan/astar.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"container/heap"
	"fmt"
	gomath "math"
	"slices"

	"github.com/aerolab/motionplan/math"
)

// Path is a sequence of positions from start to goal, inclusive.
type Path []math.Point2

// Length returns the sum of the Euclidean lengths of the path's segments.
func (p Path) Length() float64 {
	var l float64
	for i := 1; i < len(p); i++ {
		l += math.Distance2(p[i-1], p[i])
	}
	return l
}

// Heuristic estimates the remaining cost from a node to the goal.
type Heuristic func(node, goal math.Point2) float64

// Euclidean is the straight-line distance; it is admissible and
// consistent when edge weights are Euclidean lengths.
func Euclidean(node, goal math.Point2) float64 {
	return math.Distance2(node, goal)
}

type openItem struct {
	node     int
	cost     float64 // accumulated cost from the start
	priority float64 // cost + heuristic
	seq      int     // insertion order
}

// openSet is ordered by priority, then lower accumulated cost, then
// insertion order so that searches are reproducible.
type openSet []openItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].priority != o[j].priority {
		return o[i].priority < o[j].priority
	}
	if o[i].cost != o[j].cost {
		return o[i].cost < o[j].cost
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any)   { *o = append(*o, x.(openItem)) }
func (o *openSet) Pop() any {
	old := *o
	it := old[len(old)-1]
	*o = old[:len(old)-1]
	return it
}

// SearchStats records how much work a search did.
type SearchStats struct {
	Expanded int
	Pushed   int
}

// AStar finds the lowest-cost path between start and goal, which must
// both be nodes of the graph. It returns ErrNoPathFound if the goal is
// unreachable.
func AStar(g *NavGraph, h Heuristic, start, goal math.Point2) (Path, float64, error) {
	path, cost, _, err := AStarWithStats(g, h, start, goal)
	return path, cost, err
}

func AStarWithStats(g *NavGraph, h Heuristic, start, goal math.Point2) (Path, float64, SearchStats, error) {
	var stats SearchStats
	if g.NumNodes() == 0 {
		return nil, 0, stats, ErrGraphNotLoaded
	}
	si, ok := g.index[start]
	if !ok {
		return nil, 0, stats, fmt.Errorf("start %s: %w", start, ErrNodeNotInGraph)
	}
	gi, ok := g.index[goal]
	if !ok {
		return nil, 0, stats, fmt.Errorf("goal %s: %w", goal, ErrNodeNotInGraph)
	}
	if si == gi {
		return Path{start}, 0, stats, nil
	}

	n := g.NumNodes()
	best := make([]float64, n)
	for i := range best {
		best[i] = gomath.Inf(1)
	}
	parent := make([]int, n)
	closed := make([]bool, n)

	var open openSet
	seq := 0
	push := func(node int, cost float64) {
		heap.Push(&open, openItem{node: node, cost: cost, priority: cost + h(g.nodes[node], goal), seq: seq})
		seq++
		stats.Pushed++
	}

	best[si] = 0
	parent[si] = -1
	push(si, 0)

	for open.Len() > 0 {
		it := heap.Pop(&open).(openItem)
		if closed[it.node] {
			continue
		}
		closed[it.node] = true
		stats.Expanded++

		if it.node == gi {
			var path Path
			for i := gi; i != -1; i = parent[i] {
				path = append(path, g.nodes[i])
			}
			slices.Reverse(path)
			return path, it.cost, stats, nil
		}

		for _, nb := range g.adj[it.node] {
			if closed[nb.node] {
				continue
			}
			if c := it.cost + nb.weight; c < best[nb.node] {
				best[nb.node] = c
				parent[nb.node] = it.node
				push(nb.node, c)
			}
		}
	}

	return nil, 0, stats, ErrNoPathFound
}

///////////////////////////////////////////////////////////////////////////
// Grid search

var gridMoves = [...]struct {
	dn, de int
	cost   float64
}{
	{-1, 0, 1}, {1, 0, 1}, {0, -1, 1}, {0, 1, 1},
	{-1, -1, gomath.Sqrt2}, {-1, 1, gomath.Sqrt2}, {1, -1, gomath.Sqrt2}, {1, 1, gomath.Sqrt2},
}

// AStarGrid searches the occupancy grid directly using 8-connected moves,
// with diagonal moves costing sqrt(2). Both endpoints must be free cells.
func AStarGrid(grid *OccupancyGrid, start, goal GridCell) ([]GridCell, float64, error) {
	if grid.Occupied(start) {
		return nil, 0, fmt.Errorf("start %s: %w", start, ErrCellOccupied)
	}
	if grid.Occupied(goal) {
		return nil, 0, fmt.Errorf("goal %s: %w", goal, ErrCellOccupied)
	}
	if start == goal {
		return []GridCell{start}, 0, nil
	}

	idx := func(c GridCell) int { return c.N*grid.cols + c.E }
	cell := func(i int) GridCell { return GridCell{N: i / grid.cols, E: i % grid.cols} }
	hGoal := goal.Point()

	size := grid.rows * grid.cols
	best := make([]float64, size)
	for i := range best {
		best[i] = gomath.Inf(1)
	}
	parent := make([]int32, size)
	closed := make([]bool, size)

	var open openSet
	seq := 0
	push := func(i int, cost float64) {
		heap.Push(&open, openItem{node: i, cost: cost, priority: cost + math.Distance2(cell(i).Point(), hGoal), seq: seq})
		seq++
	}

	si, gi := idx(start), idx(goal)
	best[si] = 0
	parent[si] = -1
	push(si, 0)

	for open.Len() > 0 {
		it := heap.Pop(&open).(openItem)
		if closed[it.node] {
			continue
		}
		closed[it.node] = true

		if it.node == gi {
			var path []GridCell
			for i := gi; i != -1; i = int(parent[i]) {
				path = append(path, cell(i))
			}
			slices.Reverse(path)
			return path, it.cost, nil
		}

		c := cell(it.node)
		for _, m := range gridMoves {
			nc := GridCell{N: c.N + m.dn, E: c.E + m.de}
			if grid.Occupied(nc) {
				continue
			}
			ni := idx(nc)
			if closed[ni] {
				continue
			}
			if cost := it.cost + m.cost; cost < best[ni] {
				best[ni] = cost
				parent[ni] = int32(it.node)
				push(ni, cost)
			}
		}
	}

	return nil, 0, ErrNoPathFound
}
