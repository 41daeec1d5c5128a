package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/plus3/spawnpool/swarm"
)

type Config struct {
	Run     RunConfig     `toml:"run"`
	Report  ReportConfig  `toml:"report"`
	Logging LoggingConfig `toml:"logging"`
}

type RunConfig struct {
	Duration   time.Duration `toml:"duration"`
	Capacity   int           `toml:"capacity"`
	Initial    int           `toml:"initial"`    // slots spawned before the first frame
	Churn      float64       `toml:"churn"`      // fraction of visited slots killed and respawned per frame (0.0-1.0)
	Systems    int           `toml:"systems"`    // component-filtered systems registered on the scheduler
	Components int           `toml:"components"` // distinct components handed out to spawns
	Seed       uint64        `toml:"seed"`
}

type ReportConfig struct {
	Format         string `toml:"format"`  // "text" or "yaml"
	Profile        string `toml:"profile"` // "none", "cpu" or "mem"
	ProfilePath    string `toml:"profile_path"`
	GCPauseMetrics bool   `toml:"gc_pause_metrics"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration:   10 * time.Second,
			Capacity:   20000,
			Initial:    10000,
			Churn:      0.05,
			Systems:    16,
			Components: 8,
			Seed:       1,
		},
		Report: ReportConfig{
			Format:      "text",
			Profile:     "none",
			ProfilePath: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Run.Duration <= 0 {
		errs = append(errs, fmt.Errorf("run.duration must be positive, got %s", c.Run.Duration))
	}
	if c.Run.Capacity < 0 {
		errs = append(errs, fmt.Errorf("run.capacity must not be negative, got %d", c.Run.Capacity))
	}
	if c.Run.Initial < 0 || c.Run.Initial > c.Run.Capacity {
		errs = append(errs, fmt.Errorf("run.initial must be within [0, %d], got %d", c.Run.Capacity, c.Run.Initial))
	}
	if c.Run.Churn < 0 || c.Run.Churn > 1 {
		errs = append(errs, fmt.Errorf("run.churn must be within [0, 1], got %g", c.Run.Churn))
	}
	if c.Run.Systems < 0 {
		errs = append(errs, fmt.Errorf("run.systems must not be negative, got %d", c.Run.Systems))
	}
	if c.Run.Components < 1 || c.Run.Components > swarm.MaxComponents {
		errs = append(errs, fmt.Errorf("run.components must be within [1, %d], got %d", swarm.MaxComponents, c.Run.Components))
	}
	switch c.Report.Format {
	case "text", "yaml":
	default:
		errs = append(errs, fmt.Errorf("report.format must be text or yaml, got %q", c.Report.Format))
	}
	switch c.Report.Profile {
	case "none", "cpu", "mem":
	default:
		errs = append(errs, fmt.Errorf("report.profile must be none, cpu or mem, got %q", c.Report.Profile))
	}
	return errors.Join(errs...)
}
