// config/config.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config loads and validates mission configuration files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/mission"
	"github.com/aerolab/motionplan/plan"
	"github.com/aerolab/motionplan/util"
	"github.com/aerolab/motionplan/vehicle"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("Invalid mission configuration")

type Config struct {
	// Target altitude and safety distance, in meters.
	Altitude       float64 `yaml:"altitude"`
	SafetyDistance float64 `yaml:"safety_distance"`

	// Dataset locations: local paths, gs://bucket/object or
	// s3://bucket/object, optionally zstd-compressed with a .zst suffix.
	Colliders string `yaml:"colliders"`
	Graph     string `yaml:"graph"`

	Goal       GoalConfig      `yaml:"goal"`
	Link       LinkConfig      `yaml:"link"`
	Thresholds ThresholdConfig `yaml:"thresholds"`

	// Cache reuses graph searches from earlier runs.
	Cache bool `yaml:"cache"`
}

type GoalConfig struct {
	// Kind is one of "random", "global", or "local".
	Kind string `yaml:"kind"`
	// Seed for random goal selection; zero seeds from the time.
	Seed int64 `yaml:"seed"`

	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	North     float64 `yaml:"north"`
	East      float64 `yaml:"east"`
}

type LinkConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	SystemID     uint8         `yaml:"system_id"`
	TargetSystem uint8         `yaml:"target_system"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
}

type ThresholdConfig struct {
	TakeoffFraction float64 `yaml:"takeoff_fraction"`
	WaypointRadius  float64 `yaml:"waypoint_radius"`
	LandingSpeed    float64 `yaml:"landing_speed"`
	HomeAltitude    float64 `yaml:"home_altitude"`
	Vertical        float64 `yaml:"vertical"`
}

func Default() Config {
	th := mission.DefaultThresholds()
	return Config{
		Altitude:       10,
		SafetyDistance: 5,
		Colliders:      "colliders.csv",
		Goal:           GoalConfig{Kind: "random"},
		Link: LinkConfig{
			Host:        "127.0.0.1",
			Port:        5760,
			SystemID:    255,
			DialTimeout: 10 * time.Second,
		},
		Thresholds: ThresholdConfig{
			TakeoffFraction: th.TakeoffFraction,
			WaypointRadius:  th.WaypointRadius,
			LandingSpeed:    th.LandingSpeed,
			HomeAltitude:    th.HomeAltitude,
			Vertical:        th.Vertical,
		},
	}
}

// Load reads a YAML configuration file. Settings that aren't given
// keep their default values; unknown settings are an error.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return Decode(path, f)
}

func Decode(name string, r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("%s: %w", name, err)
	}

	return cfg, nil
}

// Validate checks the configuration, reporting all of its problems
// together.
func (c *Config) Validate() error {
	var e util.ErrorLogger

	if c.Altitude <= 0 {
		e.ErrorString("altitude: must be positive, got %f", c.Altitude)
	}
	if c.SafetyDistance < 0 {
		e.ErrorString("safety_distance: must be non-negative, got %f", c.SafetyDistance)
	}
	if c.Colliders == "" {
		e.ErrorString("colliders: no dataset given")
	} else if _, err := util.ParseStorageLocation(c.Colliders); err != nil {
		e.ErrorString("colliders: %v", err)
	}
	if c.Graph != "" {
		if _, err := util.ParseStorageLocation(c.Graph); err != nil {
			e.ErrorString("graph: %v", err)
		}
	}

	e.Push("goal")
	switch strings.ToLower(c.Goal.Kind) {
	case "random", "local":
	case "global":
		if c.Goal.Latitude < -90 || c.Goal.Latitude > 90 {
			e.ErrorString("latitude %f out of range", c.Goal.Latitude)
		}
		if c.Goal.Longitude < -180 || c.Goal.Longitude > 180 {
			e.ErrorString("longitude %f out of range", c.Goal.Longitude)
		}
	default:
		e.ErrorString("kind: %q: expected \"random\", \"global\", or \"local\"", c.Goal.Kind)
	}
	e.Pop()

	e.Push("link")
	if c.Link.Host == "" {
		e.ErrorString("host: must be given")
	}
	if c.Link.Port <= 0 || c.Link.Port > 65535 {
		e.ErrorString("port: %d out of range", c.Link.Port)
	}
	if c.Link.DialTimeout < 0 {
		e.ErrorString("dial_timeout: must be non-negative")
	}
	e.Pop()

	e.Push("thresholds")
	th := c.Thresholds
	if th.TakeoffFraction <= 0 || th.TakeoffFraction > 1 {
		e.ErrorString("takeoff_fraction: %f must be in (0, 1]", th.TakeoffFraction)
	}
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"waypoint_radius", th.WaypointRadius},
		{"landing_speed", th.LandingSpeed},
		{"home_altitude", th.HomeAltitude},
		{"vertical", th.Vertical},
	} {
		if v.value <= 0 {
			e.ErrorString("%s: must be positive, got %f", v.name, v.value)
		}
	}
	e.Pop()

	return e.Err(ErrInvalidConfig)
}

func (c *Config) PlanConfig() plan.Config {
	pc := plan.Config{
		Obstacles:      c.Colliders,
		Graph:          c.Graph,
		Altitude:       c.Altitude,
		SafetyDistance: c.SafetyDistance,
		UseCache:       c.Cache,
	}
	switch strings.ToLower(c.Goal.Kind) {
	case "global":
		pc.Goal = plan.Goal{Kind: plan.GoalGlobal, Global: math.Geodetic{Latitude: c.Goal.Latitude, Longitude: c.Goal.Longitude}}
	case "local":
		pc.Goal = plan.Goal{Kind: plan.GoalLocal, Local: math.Point2{c.Goal.North, c.Goal.East}}
	default:
		pc.Goal = plan.Goal{Kind: plan.GoalRandom}
	}
	return pc
}

func (c *Config) MissionContext() mission.MissionContext {
	return mission.NewMissionContext(c.Altitude, mission.Thresholds{
		TakeoffFraction: c.Thresholds.TakeoffFraction,
		WaypointRadius:  c.Thresholds.WaypointRadius,
		LandingSpeed:    c.Thresholds.LandingSpeed,
		HomeAltitude:    c.Thresholds.HomeAltitude,
		Vertical:        c.Thresholds.Vertical,
	})
}

func (c *Config) MAVLinkConfig() vehicle.MAVLinkConfig {
	return vehicle.MAVLinkConfig{
		Host:         c.Link.Host,
		Port:         c.Link.Port,
		SystemID:     c.Link.SystemID,
		TargetSystem: c.Link.TargetSystem,
		DialTimeout:  c.Link.DialTimeout,
	}
}
