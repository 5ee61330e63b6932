// plan/planner_test.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aerolab/motionplan/log"
	"github.com/aerolab/motionplan/mapdata"
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/rand"
)

// The wall spans local north 7..13 and east -3..3 once the 1m safety
// margin is applied; the other two obstacles are below the flight
// altitude and only extend the grid. The resulting grid has offsets
// (-7, -7) and is 29x14.
const testColliders = `lat0 37.792480, lon0 -122.397450
posX,posY,posZ,halfSizeX,halfSizeY,halfSizeZ
10,0,10,2,2,10
-5,-5,1,1,1,1
20,5,0,1,1,0
`

// Node positions are in grid coordinates: (7,7) is the local origin and
// (27,7) is local (20,0). The direct edge crosses the wall and is
// weighted accordingly.
const testGraph = `n1,e1,n2,e2,weight
7,7,10,12,5.830951894845301
10,12,22,12,12
22,12,27,7,7.0710678118654755
7,7,27,7,1000
`

var testLogger = log.NewWithHandler(slog.NewTextHandler(io.Discard, nil))

func writeTestFile(t *testing.T, name, contents string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fn, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func testConfig(t *testing.T, withGraph bool) Config {
	cfg := Config{
		Obstacles:      writeTestFile(t, "colliders.csv", testColliders),
		Altitude:       5,
		SafetyDistance: 1,
		Goal:           Goal{Kind: GoalLocal, Local: math.Point2{20, 0}},
	}
	if withGraph {
		cfg.Graph = writeTestFile(t, "graph.csv", testGraph)
	}
	return cfg
}

func TestPlanGraph(t *testing.T) {
	p := NewPlanner(testConfig(t, true), nil, rand.Make(1), testLogger)
	res, err := p.PlanLocal(context.Background(), math.Point2{0.3, -0.2})
	if err != nil {
		t.Fatal(err)
	}

	if res.Grid.NorthOffset != -7 || res.Grid.EastOffset != -7 || res.Grid.Rows() != 29 || res.Grid.Cols() != 14 {
		t.Errorf("unexpected grid: offsets %d,%d size %dx%d", res.Grid.NorthOffset, res.Grid.EastOffset,
			res.Grid.Rows(), res.Grid.Cols())
	}
	if res.Start != (GridCell{7, 7}) || res.Goal != (GridCell{27, 7}) {
		t.Errorf("start %s goal %s", res.Start, res.Goal)
	}

	want := []Waypoint{{0, 0, 5, 0}, {3, 5, 5, 0}, {15, 5, 5, 0}, {20, 0, 5, 0}}
	if len(res.Waypoints) != len(want) {
		t.Fatalf("got waypoints %v, expected %v", res.Waypoints, want)
	}
	for i := range want {
		if res.Waypoints[i] != want[i] {
			t.Errorf("%d: got %s, expected %s", i, res.Waypoints[i], want[i])
		}
	}
	if wantCost := gomath.Hypot(3, 5) + 12 + gomath.Hypot(5, 5); !math.NearlyEqual(res.Cost, wantCost, 1e-9) {
		t.Errorf("cost %f, expected %f", res.Cost, wantCost)
	}
	if res.Cached {
		t.Errorf("caching wasn't enabled")
	}
}

func TestPlanGrid(t *testing.T) {
	p := NewPlanner(testConfig(t, false), nil, rand.Make(1), testLogger)
	res, err := p.PlanLocal(context.Background(), math.Point2{0, 0})
	if err != nil {
		t.Fatal(err)
	}

	for _, pt := range res.RawPath {
		if c := (GridCell{N: int(pt[0]), E: int(pt[1])}); res.Grid.Occupied(c) {
			t.Errorf("path crosses occupied cell %s", c)
		}
	}
	if len(res.Waypoints) < 3 {
		t.Fatalf("expected the path to turn around the wall, got %v", res.Waypoints)
	}
	first, last := res.Waypoints[0], res.Waypoints[len(res.Waypoints)-1]
	if first != (Waypoint{0, 0, 5, 0}) || last != (Waypoint{20, 0, 5, 0}) {
		t.Errorf("endpoints %s, %s", first, last)
	}
	for _, wp := range res.Waypoints {
		if wp.Altitude != 5 || wp.Heading != 0 {
			t.Errorf("bad waypoint %s", wp)
		}
		if wp.North != gomath.Trunc(wp.North) || wp.East != gomath.Trunc(wp.East) {
			t.Errorf("non-integer waypoint %s", wp)
		}
	}
	if res.Cost <= 20 {
		t.Errorf("cost %f can't beat the straight line through the wall", res.Cost)
	}
}

func TestPlanGlobal(t *testing.T) {
	cfg := testConfig(t, true)
	origin := math.GeoOrigin{Latitude: 37.792480, Longitude: -122.397450}
	cfg.Goal = Goal{Kind: GoalGlobal, Global: math.LocalToGlobal(math.NEA(20, 0, 0), origin)}

	p := NewPlanner(cfg, nil, rand.Make(1), testLogger)
	res, err := p.Plan(context.Background(), origin.Geodetic())
	if err != nil {
		t.Fatal(err)
	}
	if res.Origin != origin {
		t.Errorf("origin %s", res.Origin)
	}
	if res.Start != (GridCell{7, 7}) || res.Goal != (GridCell{27, 7}) {
		t.Errorf("start %s goal %s", res.Start, res.Goal)
	}
}

func TestPlanTrivial(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.Goal = Goal{Kind: GoalLocal, Local: math.Point2{0, 0}}

	res, err := NewPlanner(cfg, nil, rand.Make(1), testLogger).PlanLocal(context.Background(), math.Point2{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Path) != 1 || len(res.Waypoints) != 0 {
		t.Errorf("expected a single-node path with no waypoints, got %v / %v", res.Path, res.Waypoints)
	}
}

func TestPlanRandomGoal(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Goal = Goal{Kind: GoalRandom}
	loader := mapdata.NewLoader(testLogger)

	var goals []GridCell
	for range 2 {
		res, err := NewPlanner(cfg, loader, rand.Make(99), testLogger).PlanLocal(context.Background(), math.Point2{0, 0})
		if err != nil {
			t.Fatal(err)
		}
		if res.Grid.Occupied(res.Goal) {
			t.Errorf("random goal %s is occupied", res.Goal)
		}
		goals = append(goals, res.Goal)
	}
	if goals[0] != goals[1] {
		t.Errorf("same seed gave different goals %s and %s", goals[0], goals[1])
	}
}

func TestPlanErrors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, true)
	cfg.Obstacles = writeTestFile(t, "bad.csv", "lat0 37.79, lon0 -122.39\n1,2,3\n")
	if _, err := NewPlanner(cfg, nil, nil, testLogger).PlanLocal(ctx, math.Point2{}); !errors.Is(err, mapdata.ErrMapParse) {
		t.Errorf("expected ErrMapParse, got %v", err)
	}

	cfg = testConfig(t, false)
	cfg.Goal.Local = math.Point2{11, 0} // inside the wall
	if _, err := NewPlanner(cfg, nil, nil, testLogger).PlanLocal(ctx, math.Point2{}); !errors.Is(err, ErrCellOccupied) {
		t.Errorf("expected ErrCellOccupied, got %v", err)
	}

	cfg = testConfig(t, true)
	cfg.Graph = writeTestFile(t, "graph.csv", "n1,e1,n2,e2,weight\n7,7,8,8,1.5\n27,7,26,6,1.5\n")
	if _, err := NewPlanner(cfg, nil, nil, testLogger).PlanLocal(ctx, math.Point2{}); !errors.Is(err, ErrNoPathFound) {
		t.Errorf("expected ErrNoPathFound, got %v", err)
	}

	cfg = testConfig(t, false)
	cfg.Obstacles = filepath.Join(t.TempDir(), "missing.csv")
	if _, err := NewPlanner(cfg, nil, nil, testLogger).PlanLocal(ctx, math.Point2{}); err == nil {
		t.Errorf("expected an error for a missing dataset")
	}
}

func TestPlanCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cfg := testConfig(t, true)
	cfg.UseCache = true

	for i, cached := range []bool{false, true} {
		res, err := NewPlanner(cfg, nil, nil, testLogger).PlanLocal(context.Background(), math.Point2{})
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached != cached {
			t.Errorf("run %d: cached = %v", i, res.Cached)
		}
		if len(res.Waypoints) != 4 {
			t.Errorf("run %d: got waypoints %v", i, res.Waypoints)
		}
	}
}

func TestRandomFreeCell(t *testing.T) {
	g := &OccupancyGrid{rows: 3, cols: 3, cells: make([]bool, 9)}
	for i := range g.cells {
		g.cells[i] = i != 4
	}
	if c, err := RandomFreeCell(g, rand.Make(3)); err != nil || c != (GridCell{1, 1}) {
		t.Errorf("got %s %v", c, err)
	}

	g.cells[4] = true
	if _, err := RandomFreeCell(g, rand.Make(3)); !errors.Is(err, ErrNoFreeCell) {
		t.Errorf("expected ErrNoFreeCell, got %v", err)
	}
}

func ExampleFinish() {
	res := &Result{
		Grid:    &OccupancyGrid{NorthOffset: -10, EastOffset: -20},
		RawPath: Path{{10, 20}, {11, 21}, {12, 22}, {12, 25}},
	}
	Finish(res, 5, DefaultCollinearTolerance)
	fmt.Println(res.Waypoints)
	// Output: [[0, 0, 5.0, 0] [2, 2, 5.0, 0] [2, 5, 5.0, 0]]
}
