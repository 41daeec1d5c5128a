package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "swarm-stress: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if stop := startProfile(cfg.Report); stop != nil {
		defer stop()
	}

	log.Info("starting swarm stress test",
		zap.Duration("duration", cfg.Run.Duration),
		zap.Int("capacity", cfg.Run.Capacity),
		zap.Float64("churn", cfg.Run.Churn),
		zap.Int("systems", cfg.Run.Systems))

	sim := newSimulation(cfg.Run, log)

	placed := sim.populate(cfg.Run.Initial)
	log.Info("population complete", zap.Int("spawned", placed))

	report := &Report{
		Duration:       cfg.Run.Duration,
		Capacity:       cfg.Run.Capacity,
		Initial:        placed,
		Churn:          cfg.Run.Churn,
		Components:     cfg.Run.Components,
		Systems:        cfg.Run.Systems,
		GCPauseMetrics: cfg.Report.GCPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			sim.frame(deltaTime.Seconds())
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.World = *sim.pool.Properties()
	report.Pool = sim.pool.CollectStats()
	report.Scheduler = sim.scheduler.GetStats()

	log.Info("simulation finished",
		zap.Int64("updates", totalUpdates),
		zap.Int("active", report.Pool.Count))

	if cfg.Report.Format == "yaml" {
		return report.GenerateYAML(stdout)
	}
	if err := report.Generate(stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	return nil
}

// parseFlags loads the optional config file, then lets explicitly set flags
// override it.
func parseFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("swarm-stress", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a TOML config file.")
	duration := fs.Duration("duration", 0, "The total duration the test should run for.")
	capacity := fs.Int("capacity", 0, "The fixed capacity of the pool.")
	initial := fs.Int("initial", 0, "The number of slots spawned before the first frame.")
	churn := fs.Float64("churn", 0, "Fraction of slots killed and respawned each frame.")
	systems := fs.Int("systems", 0, "The number of component-filtered systems.")
	format := fs.String("format", "", "Report format: text or yaml.")
	prof := fs.String("profile", "", "Profile to record: none, cpu or mem.")
	gcPauseMetrics := fs.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := defaults()
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Run.Duration = *duration
		case "capacity":
			cfg.Run.Capacity = *capacity
		case "initial":
			cfg.Run.Initial = *initial
		case "churn":
			cfg.Run.Churn = *churn
		case "systems":
			cfg.Run.Systems = *systems
		case "format":
			cfg.Report.Format = *format
		case "profile":
			cfg.Report.Profile = *prof
		case "gc-pause-metrics":
			cfg.Report.GCPauseMetrics = *gcPauseMetrics
		}
	})

	// A smaller pool caps the initial population
	if cfg.Run.Initial > cfg.Run.Capacity {
		cfg.Run.Initial = cfg.Run.Capacity
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func startProfile(cfg ReportConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Profile {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook, profile.Quiet)
	return p.Stop
}

func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// Logs go to stderr so the report on stdout stays parseable
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
