package main

import (
	"github.com/plus3/tickbox/server"
	"github.com/plus3/tickbox/store"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP execute box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}

			results, closeStore, err := openStore(cmd, a)
			if err != nil {
				return err
			}
			defer closeStore()

			s, err := server.New(a.cfg, results, server.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return s.Serve(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides TICKBOX_PORT)")
	return cmd
}

// openStore connects to redis when an address is configured and falls back
// to process memory otherwise.
func openStore(cmd *cobra.Command, a *app) (store.ResultStore, func(), error) {
	if a.cfg.RedisAddress == "" {
		a.logger.Warn().Msg("no redis address configured, results are kept in memory")
		return store.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddress,
		Password: a.cfg.RedisPassword,
		DB:       0,
	})
	rs := store.NewRedisStore(client, a.cfg.ResultTTL)
	if err := rs.Ping(cmd.Context()); err != nil {
		_ = client.Close()
		return nil, nil, eris.Wrapf(err, "connecting to redis at %s", a.cfg.RedisAddress)
	}
	return rs, func() { _ = client.Close() }, nil
}
