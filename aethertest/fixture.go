// Package aethertest provides a fixture that drives a world by hand, one tick
// per call, so tests control exactly when ticks happen and block until each
// one completes.
package aethertest

import (
	"context"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/glasswing-games/aether"
)

// TestWorld manages an aether.World for a test. It injects its own tick
// channel so ticks only happen through DoTick, and it shuts the world down
// automatically when the test ends.
type TestWorld struct {
	testing.TB
	*aether.World

	// TickTrigger starts a tick when sent a timestamp. Prefer DoTick, which
	// also blocks until the tick completes.
	TickTrigger chan time.Time

	// TickDone receives each completed tick number.
	TickDone <-chan uint64

	startOnce *sync.Once
	doCleanup func()
}

// NewTestWorld creates the fixture. Register components, resources, channels,
// and systems on it before the first DoTick.
func NewTestWorld(t testing.TB, opts ...aether.WorldOption) *TestWorld {
	t.Setenv("AETHER_LOG_PRETTY", "true")

	tickTrigger := make(chan time.Time)
	tickDone := make(chan uint64)

	defaultOpts := []aether.WorldOption{
		aether.WithTickChannel(tickTrigger),
		aether.WithTickDoneChannel(tickDone),
	}

	// Default options go first so user supplied options overwrite them.
	w, err := aether.NewWorld(append(defaultOpts, opts...)...)
	assert.NilError(t, err)

	return &TestWorld{
		TB:    t,
		World: w,

		TickTrigger: tickTrigger,
		TickDone:    tickDone,

		startOnce: &sync.Once{},
		doCleanup: func() {
			// Make sure completed ticks never block on the done channel.
			go func() {
				for range tickDone { //nolint:revive // drains the channel until closed
				}
			}()
			w.Shutdown()
		},
	}
}

// StartWorld seals the world and starts its tick loop, registering a cleanup
// that shuts the world down at the end of the test. Everything must be
// registered before calling this.
func (tw *TestWorld) StartWorld() {
	tw.startOnce.Do(func() {
		assert.NilError(tw, tw.World.StartTickLoop(context.Background()))
		tw.Cleanup(tw.doCleanup)
	})
}

// DoTick executes one tick and blocks until it completes. StartWorld is
// automatically called if it was not called before the first tick.
func (tw *TestWorld) DoTick() {
	tw.StartWorld()
	tw.TickTrigger <- time.Now()
	<-tw.TickDone
}
