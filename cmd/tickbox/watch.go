package main

import (
	"fmt"

	"github.com/plus3/tickbox/ebitendriver"
	"github.com/plus3/tickbox/match"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var ticks uint64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a match in a window, one tick per frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("ticks") {
				a.cfg.Ticks = ticks
			}

			m, err := match.New(match.Config{Ticks: a.cfg.Ticks}, match.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer m.Close()

			result, err := ebitendriver.NewGame(m).Run()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "ticks to run (overrides TICKBOX_TICKS)")
	return cmd
}
