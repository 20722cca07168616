package aether

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/glasswing-games/aether/ecs"
	"github.com/glasswing-games/aether/statsd"
	"github.com/glasswing-games/aether/telemetry"
	"github.com/glasswing-games/aether/worldstage"
)

// World wraps the runtime core with configuration, lifecycle stages, the tick
// loop driver, metrics, and the introspection catalog. One World is one
// independent runtime; nothing is shared between instances except process
// globals like the statsd client.
type World struct {
	id     string
	cfg    WorldConfig
	logger zerolog.Logger

	core      *ecs.World
	stage     *worldstage.Manager
	telemetry *telemetry.Manager

	componentSchemas map[string]json.RawMessage
	channelSchemas   map[string]json.RawMessage

	tickChannel     <-chan time.Time
	tickDoneChannel chan<- uint64
	waiters         tickWaiters

	loopStarted atomic.Bool
	stopOnce    sync.Once
}

// NewWorld creates a world from the environment configuration merged with the
// given options (options win). The world starts in the Idle stage with
// registration open.
func NewWorld(opts ...WorldOption) (*World, error) {
	configOpts, worldOpts := separateOptions(opts)

	cfg, err := loadWorldConfig(configOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config to start world")
	}

	w := &World{
		id:               uuid.New().String(),
		cfg:              *cfg,
		stage:            worldstage.NewManager(),
		componentSchemas: map[string]json.RawMessage{},
		channelSchemas:   map[string]json.RawMessage{},
	}
	w.logger = newWorldLogger(cfg).With().Str("world", w.id).Logger()

	// World options may replace the logger or inject tick plumbing.
	for _, opt := range worldOpts {
		opt(w)
	}

	w.core = ecs.NewWorld(ecs.WorldConfig{
		Logger:        w.logger,
		HistoryWindow: cfg.TickHistory,
		FatalFaults:   cfg.FatalFaults,
	})

	if w.tickChannel == nil {
		w.tickChannel = time.Tick(time.Second / time.Duration(cfg.TickRate))
	}

	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, cfg.StatsdTags); err != nil {
			return nil, eris.Wrap(err, "unable to init statsd")
		}
	} else {
		w.logger.Debug().Msg("statsd is disabled")
	}

	if cfg.TraceEnabled || cfg.ProfilerEnabled {
		tm, err := telemetry.New("aether", cfg.TraceEnabled, cfg.ProfilerEnabled)
		if err != nil {
			return nil, eris.Wrap(err, "failed to initialize telemetry")
		}
		w.telemetry = tm
	}

	w.logger.Info().
		Int("tick_rate", cfg.TickRate).
		Int("tick_history", cfg.TickHistory).
		Bool("fatal_faults", cfg.FatalFaults).
		Msg("created world")
	return w, nil
}

// newWorldLogger builds the world's root logger from the config: level,
// output format, and timestamping.
func newWorldLogger(cfg *WorldConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		// validate() already vetted the level; keep a usable logger anyway.
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// StartTickLoop seals the world and starts the loop goroutine that runs one
// tick per message on the tick channel. It returns once the loop is running;
// schedule errors (a same-tick channel cycle) surface here, before any tick.
// The loop stops when Shutdown is called, the context is canceled, or a fatal
// tick error occurs.
func (w *World) StartTickLoop(ctx context.Context) error {
	if err := w.core.Seal(); err != nil {
		return err
	}
	if !w.loopStarted.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	if current := w.stage.Current(); current != worldstage.Idle {
		return eris.Wrapf(ErrTickRejected, "cannot start tick loop in stage %s", current)
	}

	w.logger.Info().Msg("tick loop started")
	go func() {
		defer w.stop()
		for {
			select {
			case ts, ok := <-w.tickChannel:
				if !ok {
					w.logger.Error().Msg("tick channel closed; stopping world")
					return
				}
				if err := w.doTick(ts); err != nil {
					if eris.Is(err, ErrTickRejected) {
						// A stop request landed between the tick signal and
						// the tick itself.
						return
					}
					w.logger.Error().Err(err).Msg("world stopped by fatal tick error")
					return
				}
			case <-ctx.Done():
				w.logger.Info().Msg("tick loop context canceled")
				return
			case <-w.stage.NotifyOnStage(worldstage.ShuttingDown):
				return
			}
		}
	}()
	return nil
}

// DoTick runs exactly one tick at the given timestamp, for manual stepping in
// tools and tests. Worlds driven by StartTickLoop reject manual ticks. The
// returned error is nil for a normal tick, including ticks with isolated
// system faults; a non-nil error means the world has stopped.
func (w *World) DoTick(ts time.Time) error {
	if w.loopStarted.Load() {
		return ErrLoopRunning
	}
	return w.doTick(ts)
}

// doTick is the single tick path shared by the loop and manual stepping. It
// owns the Idle -> Running -> Idle stage round trip and the Stopped
// transition when a shutdown request or fatal fault lands during the tick.
func (w *World) doTick(ts time.Time) error {
	if !w.stage.CompareAndSwap(worldstage.Idle, worldstage.Running) {
		return eris.Wrapf(ErrTickRejected, "world stage is %s", w.stage.Current())
	}

	start := time.Now()
	span := tracer.StartSpan("aether.tick",
		tracer.Tag("tick", strconv.FormatUint(w.core.CurrentTick(), 10)))
	report, err := w.core.Tick(ts)
	span.Finish(tracer.WithError(err))

	if report != nil {
		statsd.EmitTickStat(start, "full_tick")
		for _, timing := range report.Systems {
			statsd.EmitSystemStat(timing.Duration, timing.System)
		}
		for _, fault := range report.Faults {
			statsd.EmitFaultStat(fault.System)
		}
		statsd.EmitEntityGauge(w.core.EntityCount())

		if w.tickDoneChannel != nil {
			w.tickDoneChannel <- report.Tick
		}
	}
	w.waiters.release()

	if err != nil {
		// Fatal: an init system failed or a fault was configured fatal.
		w.stage.Store(worldstage.ShuttingDown)
		if !w.loopStarted.Load() {
			w.stop()
		}
		return err
	}

	if !w.stage.CompareAndSwap(worldstage.Running, worldstage.Idle) {
		// A stop request landed mid-tick. The loop's defer finishes the
		// transition when it owns the ticks; the manual path finishes here.
		if !w.loopStarted.Load() {
			w.stop()
		}
	}
	return nil
}

// Shutdown requests a stop and blocks until the world reaches Stopped. A tick
// in progress completes all dispatched systems first; no new tick starts.
// Safe to call from any goroutine and more than once.
func (w *World) Shutdown() {
	was := w.stage.RequestStop()
	// A request that lands mid-tick is observed by the tick when it
	// completes, and the loop goroutine (when there is one) observes it
	// through its stage subscription. Only an idle, loop-less world has
	// nobody else to finish the stop.
	if was == worldstage.Idle && !w.loopStarted.Load() {
		w.stop()
	}
	<-w.stage.NotifyOnStage(worldstage.Stopped)
}

// stop finishes the transition to Stopped and releases everything attached to
// the world: tick waiters, the done channel, the statsd client, and the
// telemetry manager. Idempotent.
func (w *World) stop() {
	w.stopOnce.Do(func() {
		w.stage.Store(worldstage.Stopped)
		w.waiters.stop()
		if w.tickDoneChannel != nil {
			close(w.tickDoneChannel)
		}
		if err := statsd.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("failed to close statsd client")
		}
		if w.telemetry != nil {
			if err := w.telemetry.Shutdown(); err != nil {
				w.logger.Warn().Err(err).Msg("failed to shut down telemetry")
			}
		}
		w.logger.Info().Uint64("ticks", w.core.CurrentTick()).Msg("world stopped")
	})
}

// WaitForNextTick blocks until at least one tick completes, reporting whether
// one did. False means the world stopped while waiting.
func (w *World) WaitForNextTick() bool {
	startTick := w.CurrentTick()
	<-w.waiters.add()
	return w.CurrentTick() > startTick
}

// ID returns the world's instance id, also stamped on every log line.
func (w *World) ID() string {
	return w.id
}

// Stage returns the lifecycle stage as of this instant.
func (w *World) Stage() worldstage.Stage {
	return w.stage.Current()
}

// IsRunning reports whether a tick is executing right now.
func (w *World) IsRunning() bool {
	return w.stage.Current() == worldstage.Running
}

// CurrentTick returns the next tick number to run, which equals the number of
// completed ticks.
func (w *World) CurrentTick() uint64 {
	return w.core.CurrentTick()
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.core.EntityCount()
}

// FaultCount returns the number of isolated system faults since the world
// started.
func (w *World) FaultCount() uint64 {
	return w.core.FaultCount()
}

// TickReport returns the retained report for a completed tick. Ticks that
// have not run yet return ErrTickNotProcessed; ticks older than the retention
// window return ErrTickDiscarded.
func (w *World) TickReport(tick uint64) (*TickReport, error) {
	return w.core.Report(tick)
}

// Logger returns the world's logger.
func (w *World) Logger() *zerolog.Logger {
	return w.core.Logger()
}

// tickWaiters hands out channels that close when the next tick completes.
// Once the world stops, every handed-out and future channel is closed so
// nothing blocks on a world that will never tick again.
type tickWaiters struct {
	mu      sync.Mutex
	chans   []chan struct{}
	stopped bool
}

func (tw *tickWaiters) add() <-chan struct{} {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	ch := make(chan struct{})
	if tw.stopped {
		close(ch)
		return ch
	}
	tw.chans = append(tw.chans, ch)
	return ch
}

func (tw *tickWaiters) release() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	for _, ch := range tw.chans {
		close(ch)
	}
	tw.chans = nil
}

func (tw *tickWaiters) stop() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.stopped = true
	for _, ch := range tw.chans {
		close(ch)
	}
	tw.chans = nil
}
