package aether

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	DefaultLogLevel    = "info"
	DefaultTickRate    = 20
	DefaultTickHistory = 16
)

// WorldConfig holds the runtime configuration for a world instance.
// Every field can be set through the environment variable named in its tag.
type WorldConfig struct {
	// LogLevel is the minimum level emitted by the world's logger.
	LogLevel string `env:"AETHER_LOG_LEVEL" envDefault:"info"`

	// LogPretty switches the logger to human-readable console output.
	LogPretty bool `env:"AETHER_LOG_PRETTY" envDefault:"false"`

	// TickRate is how many ticks the loop runs per second.
	TickRate int `env:"AETHER_TICK_RATE" envDefault:"20"`

	// TickHistory is how many recent tick reports are retained.
	TickHistory int `env:"AETHER_TICK_HISTORY" envDefault:"16"`

	// FatalFaults stops the world on any system fault instead of isolating it.
	FatalFaults bool `env:"AETHER_FATAL_FAULTS" envDefault:"false"`

	// StatsdAddress is the agent address for metrics. Empty disables statsd.
	StatsdAddress string `env:"AETHER_STATSD_ADDRESS"`

	// StatsdTags are extra tags attached to every metric.
	StatsdTags []string `env:"AETHER_STATSD_TAGS" envSeparator:","`

	// TraceEnabled turns on the tick tracer.
	TraceEnabled bool `env:"AETHER_TRACE_ENABLED" envDefault:"false"`

	// ProfilerEnabled turns on continuous profiling.
	ProfilerEnabled bool `env:"AETHER_PROFILER_ENABLED" envDefault:"false"`
}

// loadWorldConfig loads the world configuration from environment variables,
// applies the programmatic overrides on top, and validates the merged result.
// Options win over environment variables.
func loadWorldConfig(overrides ...func(*WorldConfig)) (*WorldConfig, error) {
	cfg := WorldConfig{}

	if err := env.Parse(&cfg); err != nil {
		return nil, eris.Wrap(err, "failed to parse world config")
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, eris.Wrap(err, "failed to validate config")
	}

	return &cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *WorldConfig) validate() error {
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return eris.Wrapf(err, "log level %q is invalid", cfg.LogLevel)
	}
	if cfg.TickRate <= 0 {
		return eris.New("tick rate must be positive")
	}
	if cfg.TickHistory <= 0 {
		return eris.New("tick history must be positive")
	}
	return nil
}
