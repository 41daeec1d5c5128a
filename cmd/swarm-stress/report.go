package main

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"text/template"
	"time"

	"github.com/plus3/spawnpool/swarm"
	"gopkg.in/yaml.v3"
)

type Report struct {
	// Configuration
	Duration   time.Duration
	Capacity   int
	Initial    int
	Churn      float64
	Components int
	Systems    int

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	UpdateTime     Stats
	World          World
	Pool           swarm.PoolStats
	Scheduler      *swarm.SchedulerStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P99     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))

	sorted := make([]time.Duration, len(s.Samples))
	copy(sorted, s.Samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s.P99 = sorted[(len(sorted)-1)*99/100]
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Swarm Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Pool Capacity:** {{.Capacity}}
- **Initial Spawns:** {{.Initial}}
- **Churn Rate:** {{printf "%.3f" .Churn}}
- **Components:** {{.Components}}
- **Filtered Systems:** {{.Systems}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
  - **P99:** {{.UpdateTime.P99}}

## Pool
- Active:         {{.Pool.Count}} / {{.Pool.Capacity}}
- Free List:      {{.Pool.FreeDepth}}
- Spawns:         {{.Pool.Spawns}} (refused: {{.Pool.Exhausted}})
- Kills:          {{.Pool.Kills}}
- Churned:        {{.World.Killed}} killed, {{.World.Spawned}} respawned, {{.World.Dropped}} dropped
- Expired:        {{.World.Expired}}
{{range $c, $n := .Pool.ComponentCounts}}- Component {{$c}}:    {{$n}}
{{end}}
## Systems
- Frames:         {{.Scheduler.Frames}}
- Commands:       {{.Scheduler.Commands}} (failed flushes: {{.Scheduler.FlushErrors}})
{{range .Scheduler.Systems}}- {{printf "%-12s" .Name}} avg {{.AvgDuration}}  min {{.MinDuration}}  max {{.MaxDuration}}  runs {{.ExecutionCount}}
{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}

type yamlReport struct {
	Config struct {
		Duration   string  `yaml:"duration"`
		Capacity   int     `yaml:"capacity"`
		Initial    int     `yaml:"initial"`
		Churn      float64 `yaml:"churn"`
		Components int     `yaml:"components"`
		Systems    int     `yaml:"systems"`
	} `yaml:"config"`
	Updates struct {
		Total int64  `yaml:"total"`
		Time  string `yaml:"time"`
		Avg   string `yaml:"avg"`
		Min   string `yaml:"min"`
		Max   string `yaml:"max"`
		P99   string `yaml:"p99"`
	} `yaml:"updates"`
	Pool struct {
		Active     int                     `yaml:"active"`
		Capacity   int                     `yaml:"capacity"`
		FreeDepth  int                     `yaml:"free_depth"`
		Spawns     uint64                  `yaml:"spawns"`
		Kills      uint64                  `yaml:"kills"`
		Exhausted  uint64                  `yaml:"exhausted"`
		Components map[swarm.Component]int `yaml:"components,omitempty"`
	} `yaml:"pool"`
	World     World `yaml:"world"`
	Scheduler struct {
		Frames      int64 `yaml:"frames"`
		Commands    int64 `yaml:"commands"`
		FlushErrors int64 `yaml:"flush_errors"`
	} `yaml:"scheduler"`
	Systems []yamlSystem `yaml:"systems"`
	Memory  struct {
		HeapAllocDelta  int64  `yaml:"heap_alloc_delta"`
		TotalAllocDelta int64  `yaml:"total_alloc_delta"`
		NumGC           uint32 `yaml:"num_gc"`
		GCPauseTotal    string `yaml:"gc_pause_total,omitempty"`
	} `yaml:"memory"`
}

type yamlSystem struct {
	Name string `yaml:"name"`
	Runs int64  `yaml:"runs"`
	Avg  string `yaml:"avg"`
	Max  string `yaml:"max"`
}

// GenerateYAML writes the report as a YAML document, for diffing runs.
func (r *Report) GenerateYAML(w io.Writer) error {
	var out yamlReport

	out.Config.Duration = r.Duration.String()
	out.Config.Capacity = r.Capacity
	out.Config.Initial = r.Initial
	out.Config.Churn = r.Churn
	out.Config.Components = r.Components
	out.Config.Systems = r.Systems

	out.Updates.Total = r.TotalUpdates
	out.Updates.Time = r.TotalTime.String()
	out.Updates.Avg = r.UpdateTime.Avg.String()
	out.Updates.Min = r.UpdateTime.Min.String()
	out.Updates.Max = r.UpdateTime.Max.String()
	out.Updates.P99 = r.UpdateTime.P99.String()

	out.Pool.Active = r.Pool.Count
	out.Pool.Capacity = r.Pool.Capacity
	out.Pool.FreeDepth = r.Pool.FreeDepth
	out.Pool.Spawns = r.Pool.Spawns
	out.Pool.Kills = r.Pool.Kills
	out.Pool.Exhausted = r.Pool.Exhausted
	out.Pool.Components = r.Pool.ComponentCounts

	out.World = r.World

	if r.Scheduler != nil {
		out.Scheduler.Frames = r.Scheduler.Frames
		out.Scheduler.Commands = r.Scheduler.Commands
		out.Scheduler.FlushErrors = r.Scheduler.FlushErrors
		for _, sys := range r.Scheduler.Systems {
			out.Systems = append(out.Systems, yamlSystem{
				Name: sys.Name,
				Runs: sys.ExecutionCount,
				Avg:  sys.AvgDuration.String(),
				Max:  sys.MaxDuration.String(),
			})
		}
	}

	out.Memory.HeapAllocDelta = int64(r.MemStatsEnd.HeapAlloc) - int64(r.MemStatsStart.HeapAlloc)
	out.Memory.TotalAllocDelta = int64(r.MemStatsEnd.TotalAlloc) - int64(r.MemStatsStart.TotalAlloc)
	out.Memory.NumGC = r.MemStatsEnd.NumGC - r.MemStatsStart.NumGC
	if r.GCPauseMetrics {
		out.Memory.GCPauseTotal = time.Duration(r.MemStatsEnd.PauseTotalNs).String()
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}
