package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/plus3/tickbox/config"
	"github.com/plus3/tickbox/debuglog"
	"github.com/plus3/tickbox/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand.
type app struct {
	cfg    config.Config
	logger zerolog.Logger

	// debugOut receives mirrored player debug lines.
	debugOut io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tickbox",
		Short:         "Run two-player matches of player code",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logger()
			log.Logger = a.logger

			if cfg.StatsdAddress != "" {
				if err := statsd.Init(cfg.StatsdAddress, cfg.StatsdTags); err != nil {
					return eris.Wrap(err, "failed to init statsd")
				}
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return statsd.Close()
		},
	}

	cmd.AddCommand(
		newRunCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{debugOut: debuglog.Stdout()}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("tickbox failed")
		stop()
		os.Exit(1)
	}
}
