package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/tickbox/match"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		ticks       uint64
		matchID     string
		profileMode string
		gcMetrics   bool
		noReport    bool
	)

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run one match and print its results line",
		Example: "tickbox run --ticks 100 --profile cpu",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("ticks") {
				a.cfg.Ticks = ticks
			}

			stopProfile, err := startProfile(profileMode)
			if err != nil {
				return err
			}
			defer stopProfile()

			m, err := match.New(match.Config{
				Ticks:    a.cfg.Ticks,
				TickRate: a.cfg.TickRate,
				MatchID:  matchID,
			}, match.WithLogger(a.logger), match.WithDebugSinks(a.debugOut, a.debugOut))
			if err != nil {
				return err
			}
			defer m.Close()

			report := &Report{
				MatchID:        m.ID(),
				Ticks:          a.cfg.Ticks,
				TickRate:       a.cfg.TickRate,
				GCPauseMetrics: gcMetrics,
			}
			runtime.ReadMemStats(&report.MemStatsStart)
			start := time.Now()

			result, err := m.Run(cmd.Context())
			if err != nil {
				return err
			}

			report.TotalTime = time.Since(start)
			runtime.ReadMemStats(&report.MemStatsEnd)
			report.Result = result.String()
			report.Scheduler = m.SchedulerStats()
			report.Storage = m.StorageStats()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result)
			if noReport {
				return nil
			}
			return report.Generate(out)
		},
	}

	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "ticks to run (overrides TICKBOX_TICKS)")
	cmd.Flags().StringVar(&matchID, "match-id", "", "match id (random if empty)")
	cmd.Flags().StringVar(&profileMode, "profile", "", "write a cpu or mem profile to the working directory")
	cmd.Flags().BoolVar(&gcMetrics, "gc-pause-metrics", false, "include GC pause metrics in the report")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "print only the results line")
	return cmd
}

func startProfile(mode string) (func(), error) {
	var opt func(*profile.Profile)
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfileAllocs
	default:
		return nil, eris.Errorf("unknown profile mode %q (want cpu or mem)", mode)
	}
	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
	return p.Stop, nil
}
