// cmd/motionplan/main.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// motionplan plans a collision-free route through a mapped obstacle
// field and flies a MAVLink vehicle along it: arm, take off, visit each
// waypoint, land and disarm.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aerolab/motionplan/config"
	"github.com/aerolab/motionplan/log"
	"github.com/aerolab/motionplan/mapdata"
	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/mission"
	"github.com/aerolab/motionplan/plan"
	"github.com/aerolab/motionplan/rand"
	"github.com/aerolab/motionplan/util"
	"github.com/aerolab/motionplan/vehicle"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"
	"golang.org/x/sync/errgroup"
)

var (
	port       = flag.Int("port", 5760, "vehicle TCP port")
	host       = flag.String("host", "127.0.0.1", "vehicle host")
	configFile = flag.String("config", "", "YAML mission configuration file")
	colliders  = flag.String("colliders", "", "obstacle dataset: path, gs://bucket/object, or s3://bucket/object")
	graph      = flag.String("graph", "", "navigation graph dataset; without one the occupancy grid is searched")
	seed       = flag.Int64("seed", 0, "seed for random goal selection (0: time-based)")
	logLevel   = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir     = flag.String("logdir", "", "log file directory")
	dumpPlan   = flag.Bool("dumpplan", false, "dump the planned waypoints to stdout")
	planOnly   = flag.Bool("planonly", false, "plan from the map origin to the goal and exit without connecting to a vehicle")
	cpuprofile = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	if err := run(lg); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(lg *log.Logger) error {
	profiler, err := util.StartProfiler(*cpuprofile, *memprofile)
	if err != nil {
		return err
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			lg.Warnf("profiler: %v", err)
		}
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	r, seed := makeRand(cfg.Goal.Seed)
	lg.Info("goal selection seed", slog.Int64("seed", seed))

	pl := plan.NewPlanner(cfg.PlanConfig(), mapdata.NewLoader(lg), r, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *planOnly {
		return runPlanOnly(ctx, pl, lg)
	}

	var planner mission.Planner = pl
	if *dumpPlan {
		planner = dumpingPlanner{pl}
	}
	return fly(ctx, cfg, planner, lg)
}

// loadConfig reads the configuration file, if any, and applies the
// command-line flags that were given on top of it.
// makeRand returns the generator for random goal selection along with its
// seed; a zero seed picks one from the clock.
func makeRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		return rand.MakeTimeSeeded()
	}
	return rand.Make(seed), seed
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return config.Config{}, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Link.Port = *port
		case "host":
			cfg.Link.Host = *host
		case "colliders":
			cfg.Colliders = *colliders
		case "graph":
			cfg.Graph = *graph
		case "seed":
			cfg.Goal.Seed = *seed
		}
	})
	return cfg, nil
}

func runPlanOnly(ctx context.Context, pl *plan.Planner, lg *log.Logger) error {
	res, err := pl.PlanLocal(ctx, math.Point2{})
	if err != nil {
		return err
	}

	lg.Info("plan only", slog.Int("waypoints", len(res.Waypoints)), slog.Duration("elapsed", res.Elapsed))
	if *dumpPlan {
		godump.Dump(res.Path)
		godump.Dump(res.Waypoints)
		return nil
	}

	fmt.Printf("origin %s, start %s, goal %s, cost %.2f, %d -> %d nodes\n", res.Origin, res.Start, res.Goal,
		res.Cost, len(res.RawPath), len(res.Path))
	for _, wp := range res.Waypoints {
		fmt.Println(wp)
	}
	return nil
}

func fly(ctx context.Context, cfg config.Config, planner mission.Planner, lg *log.Logger) error {
	link, err := vehicle.DialMAVLink(cfg.MAVLinkConfig(), lg)
	if err != nil {
		return err
	}

	m := mission.NewMachine(link, planner, cfg.MissionContext(), lg)

	eg, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	eg.Go(func() error {
		defer cancel()
		return m.Run(ctx)
	})
	eg.Go(func() error {
		reportStatus(ctx, m, link, lg)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	lg.Info("mission complete", slog.Any("trace", m.Trace()))
	return nil
}

// reportStatus periodically logs the mission's progress until ctx is
// canceled.
func reportStatus(ctx context.Context, m *mission.Machine, link vehicle.Link, lg *log.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mc, tel := m.Context(), link.Telemetry()
			lg.Info("status", slog.String("state", mc.State.String()),
				slog.String("position", tel.LocalPosition.String()),
				slog.Float64("speed", tel.HorizontalSpeed()),
				slog.Int("waypoints_left", len(mc.Waypoints)),
				slog.Bool("armed", tel.Armed), slog.Bool("guided", tel.Guided))
		}
	}
}

// dumpingPlanner prints each planning result as it's produced.
type dumpingPlanner struct {
	mission.Planner
}

func (d dumpingPlanner) Plan(ctx context.Context, position math.Geodetic) (*plan.Result, error) {
	res, err := d.Planner.Plan(ctx, position)
	if err == nil {
		godump.Dump(res.Waypoints)
	}
	return res, err
}
