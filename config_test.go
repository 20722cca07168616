package aether

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldConfigDefaults(t *testing.T) {
	cfg, err := loadWorldConfig()
	require.NoError(t, err)

	want := WorldConfig{
		LogLevel:    DefaultLogLevel,
		LogPretty:   false,
		TickRate:    DefaultTickRate,
		TickHistory: DefaultTickHistory,
		FatalFaults: false,
	}
	assert.Equal(t, want, *cfg)
}

func TestWorldConfigLoadFromEnv(t *testing.T) {
	want := WorldConfig{
		LogLevel:      "debug",
		LogPretty:     true,
		TickRate:      5,
		TickHistory:   64,
		FatalFaults:   true,
		StatsdAddress: "localhost:8125",
		StatsdTags:    []string{"env:test", "shard:7"},
		TraceEnabled:  true,
	}
	t.Setenv("AETHER_LOG_LEVEL", want.LogLevel)
	t.Setenv("AETHER_LOG_PRETTY", "true")
	t.Setenv("AETHER_TICK_RATE", "5")
	t.Setenv("AETHER_TICK_HISTORY", "64")
	t.Setenv("AETHER_FATAL_FAULTS", "true")
	t.Setenv("AETHER_STATSD_ADDRESS", want.StatsdAddress)
	t.Setenv("AETHER_STATSD_TAGS", "env:test,shard:7")
	t.Setenv("AETHER_TRACE_ENABLED", "true")

	cfg, err := loadWorldConfig()
	require.NoError(t, err)
	assert.Equal(t, want, *cfg)
}

func TestWorldConfigOptionsWinOverEnv(t *testing.T) {
	t.Setenv("AETHER_TICK_RATE", "5")
	t.Setenv("AETHER_TICK_HISTORY", "64")

	configOpts, worldOpts := separateOptions([]WorldOption{WithTickRate(90), WithPrettyLog()})
	assert.Empty(t, worldOpts)

	cfg, err := loadWorldConfig(configOpts...)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.TickRate)
	assert.Equal(t, 64, cfg.TickHistory, "untouched fields keep their env values")
	assert.True(t, cfg.LogPretty)
}

func TestWorldConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		override func(*WorldConfig)
	}{
		{name: "unknown log level", override: func(cfg *WorldConfig) { cfg.LogLevel = "whisper" }},
		{name: "zero tick rate", override: func(cfg *WorldConfig) { cfg.TickRate = 0 }},
		{name: "negative tick rate", override: func(cfg *WorldConfig) { cfg.TickRate = -3 }},
		{name: "zero tick history", override: func(cfg *WorldConfig) { cfg.TickHistory = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadWorldConfig(tc.override)
			assert.Error(t, err)
		})
	}
}

func TestWorldConfigRejectsMalformedEnv(t *testing.T) {
	t.Setenv("AETHER_TICK_RATE", "fast")
	_, err := loadWorldConfig()
	assert.Error(t, err)
}

func TestSeparateOptions(t *testing.T) {
	trigger := make(chan time.Time)
	configOpts, worldOpts := separateOptions([]WorldOption{
		WithTickRate(30),
		WithTickChannel(trigger),
		WithFatalFaults(),
	})
	assert.Len(t, configOpts, 2)
	assert.Len(t, worldOpts, 1)
}
