// plan/graph.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"iter"

	"github.com/aerolab/motionplan/mapdata"
	"github.com/aerolab/motionplan/math"

	lru "github.com/hashicorp/golang-lru/v2"
)

type neighbor struct {
	node   int
	weight float64
}

// NavGraph is an undirected weighted graph over 2-D positions expressed
// in grid coordinates. Nodes are kept in the order they were first added,
// which makes iteration, and hence nearest-node ties, deterministic.
type NavGraph struct {
	nodes []math.Point2
	index map[math.Point2]int
	adj   [][]neighbor
	edges int

	// Memoized nearest-node queries; planning from the same map tends to
	// ask about the same handful of positions.
	nearest *lru.Cache[math.Point2, int]
}

func NewNavGraph() *NavGraph {
	nearest, err := lru.New[math.Point2, int](256)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	return &NavGraph{
		index:   make(map[math.Point2]int),
		nearest: nearest,
	}
}

// BuildNavGraph returns the graph that is the union of the given edges.
func BuildNavGraph(edges []mapdata.Edge) *NavGraph {
	g := NewNavGraph()
	for _, e := range edges {
		g.AddEdge(e.A, e.B, e.Weight)
	}
	return g
}

func (g *NavGraph) addNode(p math.Point2) int {
	if i, ok := g.index[p]; ok {
		return i
	}
	g.nodes = append(g.nodes, p)
	g.adj = append(g.adj, nil)
	g.index[p] = len(g.nodes) - 1
	return len(g.nodes) - 1
}

// AddEdge adds an undirected edge between a and b. Self loops are ignored;
// if the edge already exists, the lower of the two weights is kept.
func (g *NavGraph) AddEdge(a, b math.Point2, weight float64) {
	ia, ib := g.addNode(a), g.addNode(b)
	g.nearest.Purge()
	if ia == ib {
		return
	}

	for i, nb := range g.adj[ia] {
		if nb.node == ib {
			w := math.Min(nb.weight, weight)
			g.adj[ia][i].weight = w
			for j, nb := range g.adj[ib] {
				if nb.node == ia {
					g.adj[ib][j].weight = w
				}
			}
			return
		}
	}

	g.adj[ia] = append(g.adj[ia], neighbor{node: ib, weight: weight})
	g.adj[ib] = append(g.adj[ib], neighbor{node: ia, weight: weight})
	g.edges++
}

func (g *NavGraph) NumNodes() int { return len(g.nodes) }
func (g *NavGraph) NumEdges() int { return g.edges }

func (g *NavGraph) Contains(p math.Point2) bool {
	_, ok := g.index[p]
	return ok
}

// Nodes returns the graph's nodes in insertion order.
func (g *NavGraph) Nodes() []math.Point2 {
	return g.nodes
}

// Neighbors iterates over the nodes adjacent to p along with the weight
// of the connecting edge.
func (g *NavGraph) Neighbors(p math.Point2) iter.Seq2[math.Point2, float64] {
	return func(yield func(math.Point2, float64) bool) {
		i, ok := g.index[p]
		if !ok {
			return
		}
		for _, nb := range g.adj[i] {
			if !yield(g.nodes[nb.node], nb.weight) {
				return
			}
		}
	}
}

// EdgeWeight returns the weight of the edge between a and b, if there is
// one.
func (g *NavGraph) EdgeWeight(a, b math.Point2) (float64, bool) {
	ia, ok := g.index[a]
	if !ok {
		return 0, false
	}
	ib, ok := g.index[b]
	if !ok {
		return 0, false
	}
	for _, nb := range g.adj[ia] {
		if nb.node == ib {
			return nb.weight, true
		}
	}
	return 0, false
}

// Nearest returns the node closest to p; ties go to the node that was
// added first.
func (g *NavGraph) Nearest(p math.Point2) (math.Point2, error) {
	if len(g.nodes) == 0 {
		return math.Point2{}, ErrGraphNotLoaded
	}
	if i, ok := g.nearest.Get(p); ok {
		return g.nodes[i], nil
	}

	best, bestDist := 0, math.Distance2(p, g.nodes[0])
	for i, n := range g.nodes[1:] {
		if d := math.Distance2(p, n); d < bestDist {
			best, bestDist = i+1, d
		}
	}

	g.nearest.Add(p, best)
	return g.nodes[best], nil
}
