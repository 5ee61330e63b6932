// plan/planner.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/aerolab/motionplan/log"
	"github.com/aerolab/motionplan/mapdata"
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/rand"
	"github.com/aerolab/motionplan/util"
)

type GoalKind int

const (
	// GoalRandom picks a random unoccupied grid cell.
	GoalRandom GoalKind = iota
	// GoalGlobal uses a geodetic position.
	GoalGlobal
	// GoalLocal uses a local-frame north/east position.
	GoalLocal
)

func (k GoalKind) String() string {
	switch k {
	case GoalRandom:
		return "random"
	case GoalGlobal:
		return "global"
	case GoalLocal:
		return "local"
	default:
		return fmt.Sprintf("GoalKind(%d)", int(k))
	}
}

type Goal struct {
	Kind   GoalKind
	Global math.Geodetic
	Local  math.Point2
}

type Config struct {
	// Dataset locations; see util.OpenDataset. Without a graph, the
	// occupancy grid is searched directly.
	Obstacles string
	Graph     string

	Altitude       float64
	SafetyDistance float64
	Goal           Goal

	// Collinearity tolerance for path pruning; zero selects
	// DefaultCollinearTolerance.
	Tolerance float64

	// UseCache enables reusing searches from earlier runs.
	UseCache bool
}

// Result holds everything produced by a planning run. The grid and path
// positions are in grid coordinates; Waypoints are in the local frame.
type Result struct {
	Origin    math.GeoOrigin
	Grid      *OccupancyGrid
	Start     GridCell
	Goal      GridCell
	StartNode math.Point2
	GoalNode  math.Point2
	RawPath   Path
	Path      Path
	Cost      float64
	Waypoints []Waypoint
	Cached    bool
	Elapsed   time.Duration
}

// Planner runs the complete planning pipeline: dataset loading, grid and
// graph construction, goal selection, search, pruning and conversion to
// waypoints.
type Planner struct {
	cfg    Config
	loader *mapdata.Loader
	rand   *rand.Rand
	lg     *log.Logger
}

func NewPlanner(cfg Config, loader *mapdata.Loader, r *rand.Rand, lg *log.Logger) *Planner {
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultCollinearTolerance
	}
	if loader == nil {
		loader = mapdata.NewLoader(lg)
	}
	if r == nil {
		r = rand.Make(0)
	}
	return &Planner{cfg: cfg, loader: loader, rand: r, lg: lg}
}

// Plan plans from the given current vehicle position.
func (p *Planner) Plan(ctx context.Context, position math.Geodetic) (*Result, error) {
	return p.plan(ctx, func(origin math.GeoOrigin) math.Point2 {
		return math.GlobalToLocal(position, origin).Horizontal()
	})
}

// PlanLocal plans from a local-frame position relative to the map's
// origin.
func (p *Planner) PlanLocal(ctx context.Context, start math.Point2) (*Result, error) {
	return p.plan(ctx, func(math.GeoOrigin) math.Point2 { return start })
}

func (p *Planner) plan(ctx context.Context, startLocal func(math.GeoOrigin) math.Point2) (*Result, error) {
	t0 := time.Now()

	om, err := p.loader.Obstacles(ctx, p.cfg.Obstacles)
	if err != nil {
		return nil, err
	}

	grid, err := CreateGrid(om.Obstacles, p.cfg.Altitude, p.cfg.SafetyDistance)
	if err != nil {
		return nil, err
	}
	p.lg.Info("built grid", slog.Int("rows", grid.Rows()), slog.Int("cols", grid.Cols()),
		slog.Int("north_offset", grid.NorthOffset), slog.Int("east_offset", grid.EastOffset),
		slog.Int("occupied", grid.OccupiedCount()))

	res := &Result{Origin: om.Origin, Grid: grid}
	res.Start = grid.LocalToGrid(startLocal(om.Origin))
	if res.Goal, err = p.selectGoal(grid, om.Origin); err != nil {
		return nil, err
	}
	p.lg.Info("planning", slog.String("start", res.Start.String()), slog.String("goal", res.Goal.String()),
		slog.String("goal_kind", p.cfg.Goal.Kind.String()))

	if p.cfg.Graph != "" {
		edges, err := p.loader.Graph(ctx, p.cfg.Graph)
		if err != nil {
			return nil, err
		}
		err = p.searchGraph(BuildNavGraph(edges), res)
		if err != nil {
			return nil, err
		}
	} else {
		cells, cost, err := AStarGrid(grid, res.Start, res.Goal)
		if err != nil {
			return nil, err
		}
		res.StartNode, res.GoalNode = res.Start.Point(), res.Goal.Point()
		res.RawPath, res.Cost = CellPath(cells), cost
	}

	Finish(res, p.cfg.Altitude, p.cfg.Tolerance)
	res.Elapsed = time.Since(t0)

	p.lg.Info("planned path", slog.Int("raw_nodes", len(res.RawPath)), slog.Int("pruned_nodes", len(res.Path)),
		slog.Float64("cost", res.Cost), slog.Int("waypoints", len(res.Waypoints)),
		slog.Bool("cached", res.Cached), slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (p *Planner) searchGraph(g *NavGraph, res *Result) error {
	var err error
	if res.StartNode, err = g.Nearest(res.Start.Point()); err != nil {
		return err
	}
	if res.GoalNode, err = g.Nearest(res.Goal.Point()); err != nil {
		return err
	}

	key := p.cacheKey(res.StartNode, res.GoalNode)
	if p.cfg.UseCache {
		var c cachedSearch
		if _, err := util.CacheRetrieveObject(key, &c); err == nil && validPath(g, c.Path, res.StartNode, res.GoalNode) {
			res.RawPath, res.Cost, res.Cached = c.Path, c.Cost, true
			return nil
		}
	}

	path, cost, stats, err := AStarWithStats(g, Euclidean, res.StartNode, res.GoalNode)
	if err != nil {
		return fmt.Errorf("%s -> %s: %w", res.StartNode, res.GoalNode, err)
	}
	p.lg.Debug("graph search", slog.Int("expanded", stats.Expanded), slog.Int("pushed", stats.Pushed))
	res.RawPath, res.Cost = path, cost

	if p.cfg.UseCache {
		if err := util.CacheStoreObject(key, cachedSearch{Path: path, Cost: cost}); err != nil {
			p.lg.Warnf("%s: unable to cache search: %v", key, err)
		}
	}
	return nil
}

// Finish prunes the raw path and converts it to waypoints. A path that
// consists of a single node needs no movement and yields no waypoints.
func Finish(res *Result, altitude, tolerance float64) {
	res.Path = PrunePath(res.RawPath, tolerance)
	if len(res.Path) < 2 {
		res.Waypoints = nil
		return
	}
	res.Waypoints = ToWaypoints(res.Path, res.Grid.NorthOffset, res.Grid.EastOffset, altitude)
}

func (p *Planner) selectGoal(grid *OccupancyGrid, origin math.GeoOrigin) (GridCell, error) {
	switch p.cfg.Goal.Kind {
	case GoalGlobal:
		return grid.LocalToGrid(math.GlobalToLocal(p.cfg.Goal.Global, origin).Horizontal()), nil
	case GoalLocal:
		return grid.LocalToGrid(p.cfg.Goal.Local), nil
	default:
		return RandomFreeCell(grid, p.rand)
	}
}

// RandomFreeCell draws uniformly random cells until it finds one that is
// unoccupied. Mostly-occupied grids fall back to sampling the full list of
// cells.
func RandomFreeCell(grid *OccupancyGrid, r *rand.Rand) (GridCell, error) {
	for range 10000 {
		c := GridCell{N: r.Intn(grid.Rows()), E: r.Intn(grid.Cols())}
		if !grid.Occupied(c) {
			return c, nil
		}
	}

	cells := make([]GridCell, 0, grid.Rows()*grid.Cols())
	for n := range grid.Rows() {
		for e := range grid.Cols() {
			cells = append(cells, GridCell{N: n, E: e})
		}
	}
	if idx := rand.SampleFiltered(r, cells, func(c GridCell) bool { return !grid.Occupied(c) }); idx != -1 {
		return cells[idx], nil
	}
	return GridCell{}, ErrNoFreeCell
}

type cachedSearch struct {
	Path Path
	Cost float64
}

func (p *Planner) cacheKey(start, goal math.Point2) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%g|%g|%v|%v", p.cfg.Obstacles, p.cfg.Graph,
		p.cfg.Altitude, p.cfg.SafetyDistance, start, goal)))
	return "plans/" + hex.EncodeToString(h[:12]) + ".msgpack.zst"
}

// validPath checks that a cached path still describes a walk over g
// between the expected endpoints.
func validPath(g *NavGraph, p Path, start, goal math.Point2) bool {
	if len(p) == 0 || p[0] != start || p[len(p)-1] != goal {
		return false
	}
	for i := 1; i < len(p); i++ {
		if _, ok := g.EdgeWeight(p[i-1], p[i]); !ok {
			return false
		}
	}
	return true
}
