package aether

import (
	"time"

	"github.com/rs/zerolog"
)

// WorldOption augments how an aether.World is configured and run. Options are
// applied after the environment configuration is loaded, so they win over
// environment variables.
type WorldOption struct {
	configOption func(*WorldConfig)
	worldOption  func(*World)
}

// separateOptions splits options into the config overrides, applied before
// validation, and the world mutations, applied once the world exists.
func separateOptions(opts []WorldOption) (configOpts []func(*WorldConfig), worldOpts []func(*World)) {
	for _, opt := range opts {
		if opt.configOption != nil {
			configOpts = append(configOpts, opt.configOption)
		}
		if opt.worldOption != nil {
			worldOpts = append(worldOpts, opt.worldOption)
		}
	}
	return configOpts, worldOpts
}

// WithTickChannel sets the channel that decides when the tick loop runs a
// tick. If unset, a ticker at the configured tick rate is used. Tests can
// pass in a channel they control for fine-grained control over when ticks
// are executed: WithTickChannel(make(chan time.Time)).
func WithTickChannel(ch <-chan time.Time) WorldOption {
	return WorldOption{
		worldOption: func(w *World) {
			w.tickChannel = ch
		},
	}
}

// WithTickDoneChannel sets a channel that receives each completed tick
// number. The channel is closed when the world stops. Useful in tests that
// assert at tick boundaries.
func WithTickDoneChannel(ch chan<- uint64) WorldOption {
	return WorldOption{
		worldOption: func(w *World) {
			w.tickDoneChannel = ch
		},
	}
}

// WithTickRate overrides the loop's ticks per second.
func WithTickRate(perSecond int) WorldOption {
	return WorldOption{
		configOption: func(cfg *WorldConfig) {
			cfg.TickRate = perSecond
		},
	}
}

// WithTickHistory overrides how many recent tick reports the world retains.
func WithTickHistory(window int) WorldOption {
	return WorldOption{
		configOption: func(cfg *WorldConfig) {
			cfg.TickHistory = window
		},
	}
}

// WithFatalFaults stops the world on any system fault, as if every system had
// been registered with WithFatalFaultsForSystem.
func WithFatalFaults() WorldOption {
	return WorldOption{
		configOption: func(cfg *WorldConfig) {
			cfg.FatalFaults = true
		},
	}
}

// WithLogger replaces the world's logger. The world instance id is still
// attached as a field.
func WithLogger(logger zerolog.Logger) WorldOption {
	return WorldOption{
		worldOption: func(w *World) {
			w.logger = logger.With().Str("world", w.id).Logger()
		},
	}
}

// WithPrettyLog switches the default logger to human-readable console output.
func WithPrettyLog() WorldOption {
	return WorldOption{
		configOption: func(cfg *WorldConfig) {
			cfg.LogPretty = true
		},
	}
}

// WithStatsdAddress points metrics at a statsd agent. An empty address keeps
// the no-op client.
func WithStatsdAddress(address string) WorldOption {
	return WorldOption{
		configOption: func(cfg *WorldConfig) {
			cfg.StatsdAddress = address
		},
	}
}

// WithTelemetry toggles the tracer and the continuous profiler.
func WithTelemetry(traceEnabled bool, profilerEnabled bool) WorldOption {
	return WorldOption{
		configOption: func(cfg *WorldConfig) {
			cfg.TraceEnabled = traceEnabled
			cfg.ProfilerEnabled = profilerEnabled
		},
	}
}
