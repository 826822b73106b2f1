// Package statsd wraps the few statsd calls the match runner makes, so the
// datadog client stays behind a single file.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const namespace = "tickbox."

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitTickStat records the time since start under the "tick" timer, tagged
// with the stage.
func EmitTickStat(start time.Time, stage string) {
	duration := time.Since(start)
	err := Client().Timing("tick", duration, []string{"stage:" + stage}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit tick stat: %v", err)
	}
}

// EmitMatchResult counts a finished match by status.
func EmitMatchResult(status string) {
	err := Client().Incr("match.finished", []string{"status:" + status}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit match stat: %v", err)
	}
}

// Init replaces the no-op client with one sending to address.
func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		ddstatsd.WithNamespace(namespace),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return eris.Wrapf(err, "statsd client for %s", address)
	}
	client = newClient
	return nil
}

// Close flushes and closes the active client and restores the no-op client.
func Close() error {
	old := client
	client = &ddstatsd.NoOpClient{}
	return old.Close()
}
