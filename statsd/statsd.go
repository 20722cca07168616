// Package statsd is a helper package that wraps some common statsd methods.
// It hides the datadog dependency so if we decide to migrate away from datadog in the future, we only need to
// edit this single file. For example, the https://pkg.go.dev/github.com/cactus/go-statsd-client/statsd package roughly
// implements datadog's ClientInterface interface.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitTickStat emits the duration of one tick phase. The phase tag is one of
// "full_tick", "systems", or "flush".
func EmitTickStat(start time.Time, phase string) {
	duration := time.Since(start)
	err := Client().Timing("tick", duration, []string{phase}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit tick stat: %v", err)
	}
}

// EmitSystemStat emits one system's execution time within a tick.
func EmitSystemStat(duration time.Duration, system string) {
	err := Client().Timing("system", duration, []string{"system:" + system}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit system stat: %v", err)
	}
}

// EmitFaultStat counts isolated system faults.
func EmitFaultStat(system string) {
	err := Client().Incr("system_fault", []string{"system:" + system}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit fault stat: %v", err)
	}
}

// EmitEntityGauge reports the live entity count after a tick.
func EmitEntityGauge(count int) {
	err := Client().Gauge("entities", float64(count), nil, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit entity gauge: %v", err)
	}
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		// The statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace("aether"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return err
	}
	// Success! replace the global client
	client = newClient
	return nil
}

// Close flushes and shuts down the client. Safe to call when Init never ran.
func Close() error {
	err := client.Close()
	client = &ddstatsd.NoOpClient{}
	return err
}
