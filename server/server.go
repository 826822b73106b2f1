// Package server exposes match execution over HTTP.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/plus3/tickbox/config"
	"github.com/plus3/tickbox/store"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	app     *fiber.App
	cfg     config.Config
	results store.ResultStore
	logger  zerolog.Logger
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New returns a server that runs matches with cfg and saves their results to
// results.
func New(cfg config.Config, results store.ResultStore, opts ...Option) (*Server, error) {
	if results == nil {
		return nil, eris.New("server requires a result store")
	}
	if err := cfg.ValidateServe(); err != nil {
		return nil, eris.Wrap(err, "invalid server config")
	}

	s := &Server{
		cfg:     cfg,
		results: results,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		Network:               "tcp",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             50 * 1024 * 1024,
	})
	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.logger))
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", GetHealth())

	s.app.Post("/execute", PostExecute(s.cfg, s.results, s.logger))

	m := s.app.Group("/matches", RequireSecret(s.cfg.SecretKey))
	m.Get("/", ListMatches(s.results))
	m.Get("/:id", GetMatch(s.results))

	s.app.Use(func(*fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// Serve blocks until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.logger.Info().Msgf("Starting HTTP server at %s", addr)
		if err := s.app.Listen(addr); err != nil {
			serverErr <- eris.Wrap(err, "error starting http server")
		}
	}()

	select {
	case err := <-serverErr:
		return eris.Wrap(err, "server encountered an error")
	case <-ctx.Done():
		if err := s.shutdown(); err != nil {
			return eris.Wrap(err, "error shutting down server")
		}
	}

	return nil
}

func (s *Server) shutdown() error {
	s.logger.Info().Msg("Shutting down server")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return eris.Wrap(err, "error shutting down server")
	}
	s.logger.Info().Msg("Successfully shut down server")
	return nil
}

func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
		return err
	}
}
