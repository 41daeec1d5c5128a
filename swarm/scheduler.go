package swarm

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats summarizes the frames a scheduler has driven over its pool.
type SchedulerStats struct {
	Pool            string
	Frames          int64
	SystemCount     int
	TotalExecutions int64

	// Commands is the number of commands queued by systems and applied at
	// frame end. FlushErrors counts frames whose flush reported an error.
	Commands    int64
	FlushErrors int64
	LastFlush   time.Duration

	Systems []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// timing accumulates run durations for one system.
type timing struct {
	runs  int64
	total time.Duration
	last  time.Duration
	min   time.Duration
	max   time.Duration
}

func (t *timing) record(d time.Duration) {
	if t.runs == 0 || d < t.min {
		t.min = d
	}
	t.max = max(t.max, d)
	t.runs++
	t.last = d
	t.total += d
}

func (t *timing) snapshot(name string) SystemStats {
	out := SystemStats{
		Name:           name,
		ExecutionCount: t.runs,
		MinDuration:    t.min,
		MaxDuration:    t.max,
		LastDuration:   t.last,
		TotalDuration:  t.total,
	}
	if t.runs > 0 {
		out.AvgDuration = t.total / time.Duration(t.runs)
	}
	return out
}

type scheduled[T, P any] struct {
	runner Runner[T, P]
	name   string
	timing timing
}

// Scheduler runs registered systems against one pool, in registration order.
// Ordering between systems is entirely the caller's: there is no dependency
// resolution.
type Scheduler[T, P any] struct {
	pool     *Pool[T, P]
	systems  []*scheduled[T, P]
	commands *Commands[T, P]
	log      *zap.Logger

	frames      int64
	applied     int64
	flushErrors int64
	lastFlush   time.Duration
}

// NewScheduler creates a new scheduler for the given pool.
func NewScheduler[T, P any](pool *Pool[T, P], opts ...Option) *Scheduler[T, P] {
	o := buildOptions(opts)
	return &Scheduler[T, P]{
		pool:     pool,
		commands: NewCommands[T, P](),
		log:      o.logger,
	}
}

// Register appends a system to the run order.
func (s *Scheduler[T, P]) Register(system Runner[T, P]) {
	s.systems = append(s.systems, &scheduled[T, P]{
		runner: system,
		name:   runnerName(system),
	})
}

func runnerName(system any) string {
	if named, ok := system.(interface{ Name() string }); ok {
		return named.Name()
	}

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

// Commands returns the buffer flushed at the end of every frame.
func (s *Scheduler[T, P]) Commands() *Commands[T, P] {
	return s.commands
}

// Once executes all registered systems once with the given delta time, then
// flushes queued commands.
func (s *Scheduler[T, P]) Once(dt float64) {
	frame := newUpdateFrame(dt, s.pool, s.commands)

	for _, sys := range s.systems {
		start := time.Now()
		sys.runner.Execute(frame)
		sys.timing.record(time.Since(start))
	}
	s.frames++

	s.applied += int64(s.commands.Len())
	start := time.Now()
	err := s.commands.Flush(s.pool)
	s.lastFlush = time.Since(start)
	if err != nil {
		s.flushErrors++
		s.log.Debug("command flush failed",
			zap.String("pool", s.pool.name),
			zap.Int64("frame", s.frames),
			zap.Error(err))
	}
}

// Run executes all systems repeatedly at the given interval until the context is cancelled.
func (s *Scheduler[T, P]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// GetStats returns a snapshot of frame, flush and per-system statistics.
func (s *Scheduler[T, P]) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		Pool:        s.pool.name,
		Frames:      s.frames,
		SystemCount: len(s.systems),
		Commands:    s.applied,
		FlushErrors: s.flushErrors,
		LastFlush:   s.lastFlush,
		Systems:     make([]SystemStats, 0, len(s.systems)),
	}

	for _, sys := range s.systems {
		snap := sys.timing.snapshot(sys.name)
		stats.TotalExecutions += snap.ExecutionCount
		stats.Systems = append(stats.Systems, snap)
	}
	return stats
}
