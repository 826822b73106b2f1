package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/tickbox/ecs"
)

type Report struct {
	// Configuration
	MatchID  string
	Ticks    uint64
	TickRate time.Duration

	// Results
	Result         string
	TotalTime      time.Duration
	Scheduler      *ecs.SchedulerStats
	Storage        *ecs.StorageStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Match Report

## Configuration
- **Match:** {{.MatchID}}
- **Ticks:** {{.Ticks}}
- **Tick Rate:** {{if .TickRate}}{{.TickRate}}{{else}}unthrottled{{end}}

## Results
- **Results Line:** {{.Result}}
- **Completed Ticks:** {{.Scheduler.Ticks}}
- **Total Time:** {{.TotalTime}}
{{range .Scheduler.Systems}}
### {{.Name}}
  - **Runs:** {{.ExecutionCount}}
  - **Avg:** {{.AvgDuration}}
  - **Min:** {{.MinDuration}}
  - **Max:** {{.MaxDuration}}
{{end}}
## Storage
- **Archetypes:** {{.Storage.ArchetypeCount}}
- **Entities:** {{.Storage.TotalEntityCount}}
{{- range .Storage.ArchetypeBreakdown}}
  - {{.ID}} {{.ComponentTypes}}: {{.EntityCount}}
{{- end}}

## Memory Usage (MiB)
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} (start) -> {{mb .MemStatsEnd.HeapAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc)}}
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} (start) -> {{mb .MemStatsEnd.TotalAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc)}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{ns (u64sub .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs)}}
- **Num GC Cycles:** {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{end}}`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"u64sub": func(a, b uint64) uint64 {
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
