// mapdata/loader.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mapdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aerolab/motionplan/log"
	"github.com/aerolab/motionplan/util"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Loader fetches and parses datasets, keeping recently parsed ones
// around so that replanning against the same map doesn't refetch it.
// The returned values are shared and must not be modified.
type Loader struct {
	obstacles *expirable.LRU[string, *ObstacleMap]
	graphs    *expirable.LRU[string, []Edge]
	lg        *log.Logger
}

func NewLoader(lg *log.Logger) *Loader {
	return &Loader{
		obstacles: expirable.NewLRU[string, *ObstacleMap](8, nil, 30*time.Minute),
		graphs:    expirable.NewLRU[string, []Edge](8, nil, 30*time.Minute),
		lg:        lg,
	}
}

func (l *Loader) Obstacles(ctx context.Context, uri string) (*ObstacleMap, error) {
	if om, ok := l.obstacles.Get(uri); ok {
		return om, nil
	}

	start := time.Now()
	r, err := util.OpenDataset(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	defer r.Close()

	om, err := ParseObstacles(uri, r)
	if err != nil {
		return nil, err
	}

	l.lg.Info("loaded obstacles", slog.String("uri", uri), slog.Int("count", len(om.Obstacles)),
		slog.String("origin", om.Origin.String()), slog.Duration("elapsed", time.Since(start)))
	l.obstacles.Add(uri, om)
	return om, nil
}

func (l *Loader) Graph(ctx context.Context, uri string) ([]Edge, error) {
	if edges, ok := l.graphs.Get(uri); ok {
		return edges, nil
	}

	start := time.Now()
	r, err := util.OpenDataset(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	defer r.Close()

	edges, err := ParseGraph(uri, r)
	if err != nil {
		return nil, err
	}

	l.lg.Info("loaded graph", slog.String("uri", uri), slog.Int("edges", len(edges)),
		slog.Duration("elapsed", time.Since(start)))
	l.graphs.Add(uri, edges)
	return edges, nil
}
