// Package config loads tickbox settings from the environment.
package config

import (
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Config struct {
	// Port the HTTP box listens on.
	Port int `env:"TICKBOX_PORT" envDefault:"8000"`

	// Shared secret callers must send as secretString.
	SecretKey string `env:"TICKBOX_SECRET_KEY"`

	// Ticks per match unless a request overrides it.
	Ticks uint64 `env:"TICKBOX_TICKS" envDefault:"1000"`

	// Wall-clock length of a tick. Zero runs matches unthrottled.
	TickRate time.Duration `env:"TICKBOX_TICK_RATE" envDefault:"0s"`

	// Matches still running after this long are reported UNDEFINED.
	MatchTimeout time.Duration `env:"TICKBOX_MATCH_TIMEOUT" envDefault:"30s"`

	// Redis holding results. Empty keeps results in memory.
	RedisAddress  string        `env:"TICKBOX_REDIS_ADDRESS"`
	RedisPassword string        `env:"TICKBOX_REDIS_PASSWORD"`
	ResultTTL     time.Duration `env:"TICKBOX_RESULT_TTL" envDefault:"24h"`

	// Empty disables metrics.
	StatsdAddress string   `env:"TICKBOX_STATSD_ADDRESS"`
	StatsdTags    []string `env:"TICKBOX_STATSD_TAGS" envSeparator:","`

	LogLevel  string `env:"TICKBOX_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"TICKBOX_LOG_PRETTY" envDefault:"false"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse tickbox config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

// Validate checks settings every command needs.
func (cfg *Config) Validate() error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return eris.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.Ticks == 0 {
		return eris.New("ticks must be positive")
	}
	if cfg.TickRate < 0 {
		return eris.New("tick rate cannot be negative")
	}
	if cfg.MatchTimeout <= 0 {
		return eris.New("match timeout must be positive")
	}
	if cfg.ResultTTL < 0 {
		return eris.New("result ttl cannot be negative")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return eris.Wrapf(err, "log level %q", cfg.LogLevel)
	}
	return nil
}

// ValidateServe adds the checks only the HTTP box needs.
func (cfg *Config) ValidateServe() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.SecretKey == "" {
		return eris.New("secret key cannot be empty")
	}
	return nil
}

// Logger builds the process logger. Pretty output goes through a console
// writer; otherwise lines are JSON.
func (cfg *Config) Logger() zerolog.Logger {
	return cfg.loggerTo(os.Stderr)
}

func (cfg *Config) loggerTo(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
