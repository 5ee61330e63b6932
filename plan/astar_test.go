// plan/astar_test.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/aerolab/motionplan/mapdata"
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/rand"
)

// Dijkstra computes the shortest distance from start to every node with a
// brute-force O(n^2) scan; it's the reference that A* is checked against.
func Dijkstra(g *NavGraph, start math.Point2) map[math.Point2]float64 {
	n := g.NumNodes()
	dist := make([]float64, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = gomath.Inf(1)
	}
	dist[g.index[start]] = 0

	for range n {
		u := -1
		for i := range n {
			if !done[i] && (u == -1 || dist[i] < dist[u]) {
				u = i
			}
		}
		if u == -1 || gomath.IsInf(dist[u], 1) {
			break
		}
		done[u] = true
		for _, nb := range g.adj[u] {
			dist[nb.node] = math.Min(dist[nb.node], dist[u]+nb.weight)
		}
	}

	m := make(map[math.Point2]float64)
	for i, d := range dist {
		m[g.nodes[i]] = d
	}
	return m
}

// randomGraph returns a graph over random integer points with Euclidean
// edge weights.
func randomGraph(r *rand.Rand, nodes, edges int) *NavGraph {
	pts := make([]math.Point2, nodes)
	for i := range pts {
		pts[i] = math.Point2{float64(r.Intn(100)), float64(r.Intn(100))}
	}
	g := NewNavGraph()
	for range edges {
		a, b := rand.SampleSlice(r, pts), rand.SampleSlice(r, pts)
		g.AddEdge(a, b, math.Distance2(a, b))
	}
	return g
}

func checkWalk(t *testing.T, g *NavGraph, p Path, cost float64) {
	t.Helper()
	var sum float64
	for i := 1; i < len(p); i++ {
		w, ok := g.EdgeWeight(p[i-1], p[i])
		if !ok {
			t.Fatalf("path step %s -> %s is not an edge", p[i-1], p[i])
		}
		sum += w
	}
	if !math.NearlyEqual(sum, cost, 1e-9) {
		t.Errorf("path edges sum to %f but cost is %f", sum, cost)
	}
}

func TestAStarMatchesDijkstra(t *testing.T) {
	r := rand.Make(42)
	for trial := range 40 {
		g := randomGraph(r, 30, 60)
		nodes := g.Nodes()
		start := rand.SampleSlice(r, nodes)
		ref := Dijkstra(g, start)

		for _, goal := range nodes {
			path, cost, err := AStar(g, Euclidean, start, goal)
			if gomath.IsInf(ref[goal], 1) {
				if !errors.Is(err, ErrNoPathFound) {
					t.Errorf("trial %d: %s unreachable but got %v", trial, goal, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("trial %d: %s -> %s: %v", trial, start, goal, err)
			}
			if !math.NearlyEqual(cost, ref[goal], 1e-9) {
				t.Errorf("trial %d: %s -> %s: A* cost %f, Dijkstra %f", trial, start, goal, cost, ref[goal])
			}
			if path[0] != start || path[len(path)-1] != goal {
				t.Errorf("trial %d: path endpoints %s, %s", trial, path[0], path[len(path)-1])
			}
			checkWalk(t, g, path, cost)
		}
	}
}

func TestAStarDisconnected(t *testing.T) {
	g := BuildNavGraph([]mapdata.Edge{
		{A: math.Point2{0, 0}, B: math.Point2{1, 0}, Weight: 1},
		{A: math.Point2{1, 0}, B: math.Point2{2, 0}, Weight: 1},
		{A: math.Point2{10, 10}, B: math.Point2{11, 10}, Weight: 1},
	})
	if _, _, err := AStar(g, Euclidean, math.Point2{0, 0}, math.Point2{11, 10}); !errors.Is(err, ErrNoPathFound) {
		t.Errorf("expected ErrNoPathFound, got %v", err)
	}
	if _, _, err := AStar(g, Euclidean, math.Point2{0, 0}, math.Point2{5, 5}); !errors.Is(err, ErrNodeNotInGraph) {
		t.Errorf("expected ErrNodeNotInGraph, got %v", err)
	}
	if _, _, err := AStar(NewNavGraph(), Euclidean, math.Point2{0, 0}, math.Point2{1, 0}); !errors.Is(err, ErrGraphNotLoaded) {
		t.Errorf("expected ErrGraphNotLoaded, got %v", err)
	}
}

func TestAStarSameNode(t *testing.T) {
	g := BuildNavGraph([]mapdata.Edge{{A: math.Point2{0, 0}, B: math.Point2{3, 4}, Weight: 5}})
	path, cost, err := AStar(g, Euclidean, math.Point2{3, 4}, math.Point2{3, 4})
	if err != nil || cost != 0 || len(path) != 1 || path[0] != (math.Point2{3, 4}) {
		t.Errorf("got %v %f %v", path, cost, err)
	}
}

func TestAStarPrefersCheaperDetour(t *testing.T) {
	// The direct edge is heavily weighted; the three-hop route is cheaper.
	g := BuildNavGraph([]mapdata.Edge{
		{A: math.Point2{0, 0}, B: math.Point2{0, 10}, Weight: 100},
		{A: math.Point2{0, 0}, B: math.Point2{3, 3}, Weight: gomath.Hypot(3, 3)},
		{A: math.Point2{3, 3}, B: math.Point2{3, 7}, Weight: 4},
		{A: math.Point2{3, 7}, B: math.Point2{0, 10}, Weight: gomath.Hypot(3, 3)},
	})
	path, cost, err := AStar(g, Euclidean, math.Point2{0, 0}, math.Point2{0, 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 4 || !math.NearlyEqual(cost, 4+2*gomath.Hypot(3, 3), 1e-12) {
		t.Errorf("got path %v cost %f", path, cost)
	}
}

func TestAStarDeterministicTies(t *testing.T) {
	// Two routes of identical length; the result must not vary.
	edges := []mapdata.Edge{
		{A: math.Point2{0, 0}, B: math.Point2{1, 1}, Weight: 1},
		{A: math.Point2{0, 0}, B: math.Point2{1, -1}, Weight: 1},
		{A: math.Point2{1, 1}, B: math.Point2{2, 0}, Weight: 1},
		{A: math.Point2{1, -1}, B: math.Point2{2, 0}, Weight: 1},
	}
	first, _, err := AStar(BuildNavGraph(edges), Euclidean, math.Point2{0, 0}, math.Point2{2, 0})
	if err != nil {
		t.Fatal(err)
	}
	for range 20 {
		p, _, _ := AStar(BuildNavGraph(edges), Euclidean, math.Point2{0, 0}, math.Point2{2, 0})
		if len(p) != len(first) || p[1] != first[1] {
			t.Fatalf("nondeterministic tie: %v vs %v", p, first)
		}
	}
}

func TestAStarGrid(t *testing.T) {
	// A wall along north=5 with a gap at east=9.
	g := &OccupancyGrid{rows: 10, cols: 10, cells: make([]bool, 100)}
	for e := range 9 {
		g.cells[5*10+e] = true
	}

	cells, cost, err := AStarGrid(g, GridCell{0, 0}, GridCell{9, 0})
	if err != nil {
		t.Fatal(err)
	}
	if cells[0] != (GridCell{0, 0}) || cells[len(cells)-1] != (GridCell{9, 0}) {
		t.Errorf("endpoints: %v", cells)
	}
	for i, c := range cells {
		if g.Occupied(c) {
			t.Errorf("path goes through occupied cell %s", c)
		}
		if i > 0 {
			dn, de := math.Abs(c.N-cells[i-1].N), math.Abs(c.E-cells[i-1].E)
			if dn > 1 || de > 1 {
				t.Errorf("non-adjacent step %s -> %s", cells[i-1], c)
			}
		}
	}
	// Octile distance to the gap at (5,9) and back.
	if want := 9 + 9*gomath.Sqrt2; !math.NearlyEqual(cost, want, 1e-9) {
		t.Errorf("cost %f, expected %f", cost, want)
	}

	if _, _, err := AStarGrid(g, GridCell{5, 0}, GridCell{9, 0}); !errors.Is(err, ErrCellOccupied) {
		t.Errorf("expected ErrCellOccupied, got %v", err)
	}

	g.cells[5*10+9] = true
	if _, _, err := AStarGrid(g, GridCell{0, 0}, GridCell{9, 0}); !errors.Is(err, ErrNoPathFound) {
		t.Errorf("expected ErrNoPathFound with the gap closed, got %v", err)
	}
}

func TestNearest(t *testing.T) {
	g := NewNavGraph()
	if _, err := g.Nearest(math.Point2{0, 0}); !errors.Is(err, ErrGraphNotLoaded) {
		t.Errorf("expected ErrGraphNotLoaded, got %v", err)
	}

	g.AddEdge(math.Point2{2, 0}, math.Point2{-2, 0}, 4)
	g.AddEdge(math.Point2{0, 5}, math.Point2{-2, 0}, 1)

	// (0,0) is equidistant from (2,0) and (-2,0); (2,0) was added first.
	for range 3 {
		if n, err := g.Nearest(math.Point2{0, 0}); err != nil || n != (math.Point2{2, 0}) {
			t.Errorf("tie: got %s %v", n, err)
		}
	}
	if n, _ := g.Nearest(math.Point2{0, 4}); n != (math.Point2{0, 5}) {
		t.Errorf("got %s", n)
	}

	// Adding nodes invalidates memoized answers.
	g.AddEdge(math.Point2{0, 0.5}, math.Point2{0, 5}, 4.5)
	if n, _ := g.Nearest(math.Point2{0, 0}); n != (math.Point2{0, 0.5}) {
		t.Errorf("after adding a closer node got %s", n)
	}
}

func TestNavGraphEdges(t *testing.T) {
	g := NewNavGraph()
	g.AddEdge(math.Point2{0, 0}, math.Point2{1, 0}, 3)
	g.AddEdge(math.Point2{1, 0}, math.Point2{0, 0}, 1)
	g.AddEdge(math.Point2{1, 0}, math.Point2{1, 0}, 0)

	if g.NumNodes() != 2 || g.NumEdges() != 1 {
		t.Errorf("got %d nodes %d edges", g.NumNodes(), g.NumEdges())
	}
	if w, ok := g.EdgeWeight(math.Point2{0, 0}, math.Point2{1, 0}); !ok || w != 1 {
		t.Errorf("expected duplicate edge to keep weight 1, got %f %v", w, ok)
	}
	if w, ok := g.EdgeWeight(math.Point2{1, 0}, math.Point2{0, 0}); !ok || w != 1 {
		t.Errorf("reverse weight: got %f %v", w, ok)
	}
	count := 0
	for nb, w := range g.Neighbors(math.Point2{0, 0}) {
		if nb != (math.Point2{1, 0}) || w != 1 {
			t.Errorf("unexpected neighbor %s %f", nb, w)
		}
		count++
	}
	if count != 1 {
		t.Errorf("expected 1 neighbor, got %d", count)
	}
}
