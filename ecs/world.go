package ecs

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/glasswing-games/aether/types"
)

// DefaultHistoryWindow is how many tick reports a world retains when the
// config does not say otherwise.
const DefaultHistoryWindow = 16

// WorldConfig configures the runtime core. The zero value is usable: a nop
// logger, the default history window, and isolated faults.
type WorldConfig struct {
	Logger zerolog.Logger
	// HistoryWindow is how many recent tick reports to retain.
	HistoryWindow int
	// FatalFaults stops the world on any system fault, as if every system had
	// been registered with WithFatalFaults.
	FatalFaults bool
}

// World owns the storage state, the registered systems and channels, and the
// tick machinery. Registration happens up front; the first tick seals the
// world and registration errors after that.
type World struct {
	state    *state
	channels *channelRegistry

	systems     []*systemMeta
	initSystems []*systemMeta
	contexts    []*Context
	schedule    tickSchedule
	results     []systemResult

	history     *reportHistory
	logger      zerolog.Logger
	fatalFaults bool

	sealed   bool
	initDone bool
	tick     atomic.Uint64
	faults   atomic.Uint64
}

type systemResult struct {
	duration time.Duration
	fault    error
}

// NewWorld creates an empty world. Components, resources, channels, and
// systems are registered on it before the first tick.
func NewWorld(cfg WorldConfig) *World {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	return &World{
		state:       newState(),
		channels:    newChannelRegistry(),
		history:     newReportHistory(cfg.HistoryWindow),
		logger:      cfg.Logger,
		fatalFaults: cfg.FatalFaults,
	}
}

func (w *World) mustBeOpen() error {
	if w.sealed {
		return ErrWorldSealed
	}
	return nil
}

// Seal freezes registration and builds the tick schedule, verifying the
// same-tick channel graph is acyclic. The first tick seals implicitly;
// sealing up front surfaces schedule errors before the loop starts.
// Idempotent.
func (w *World) Seal() error {
	if w.sealed {
		return nil
	}
	if err := w.schedule.build(w.systems, w.channels); err != nil {
		return err
	}
	w.contexts = make([]*Context, len(w.systems))
	for i, sys := range w.systems {
		w.contexts[i] = newContext(w, sys)
	}
	w.results = make([]systemResult, len(w.systems))
	w.sealed = true
	w.logger.Info().
		Int("systems", len(w.systems)).
		Int("init_systems", len(w.initSystems)).
		Int("components", w.state.components.count()).
		Int("resources", w.state.resources.count()).
		Int("channels", w.channels.count()).
		Msg("world sealed")
	return nil
}

// Tick runs one complete tick: intake admission, init systems on the first
// tick, the scheduled systems, then the boundary flush that applies command
// buffers and channel policies. The returned report covers the tick that just
// ran. A non-nil error means the world must stop, either because an init
// system failed or because a fault was fatal.
func (w *World) Tick(ts time.Time) (*TickReport, error) {
	if err := w.Seal(); err != nil {
		return nil, err
	}

	tick := w.tick.Load()
	start := time.Now()
	report := &TickReport{Tick: tick, StartedAt: ts}

	for _, ch := range w.channels.channels {
		ch.admitIntake()
	}

	if !w.initDone {
		if err := w.runInitSystems(tick, ts, report); err != nil {
			return nil, err
		}
		w.initDone = true
	}

	fatal := w.runSystems(tick, ts, report)
	w.flush()

	report.Duration = time.Since(start)
	w.history.push(report)
	w.tick.Add(1)

	if fatal != nil {
		w.logger.Error().Err(fatal).Uint64("tick", tick).Msg("fatal system fault")
		return report, fatal
	}
	return report, nil
}

// runInitSystems runs the one-shot systems sequentially. Their buffered
// mutations and posts apply immediately after each one, so the first tick's
// regular systems observe them.
func (w *World) runInitSystems(tick uint64, ts time.Time, report *TickReport) error {
	for _, sys := range w.initSystems {
		ctx := newContext(w, sys)
		ctx.beginTick(tick, ts)
		start := time.Now()
		err := w.callSystem(ctx)
		report.Systems = append(report.Systems, SystemTiming{System: sys.name, Duration: time.Since(start)})
		if err != nil {
			ctx.cmds.discard(w.state)
			// An init failure leaves the starting state undefined, so it
			// always stops the world.
			return &SystemFaultError{System: sys.name, Tick: tick, Err: err}
		}
		ctx.cmds.apply(w.state)
		ctx.cmds.reset()
		for id := range ctx.staged {
			w.channels.at(channelID(id)).stagePosted(ctx.takeStaged(channelID(id))) //nolint:gosec // bounded by channel count
		}
	}
	return nil
}

// runSystems executes the tick schedule. Isolated faults are recorded on the
// report; the returned error is non-nil only when a fault must stop the
// world.
func (w *World) runSystems(tick uint64, ts time.Time, report *TickReport) error {
	for i := range w.results {
		w.results[i] = systemResult{}
	}
	for _, ctx := range w.contexts {
		ctx.beginTick(tick, ts)
	}

	runErr := w.schedule.run(func(systemID int) error {
		ctx := w.contexts[systemID]
		sys := w.systems[systemID]

		start := time.Now()
		err := w.callSystem(ctx)
		w.results[systemID].duration = time.Since(start)
		if err == nil {
			return nil
		}

		fault := &SystemFaultError{System: sys.name, Tick: tick, Err: err}
		w.results[systemID].fault = fault
		w.faults.Add(1)
		// The faulting system's buffered work is discarded. In-place value
		// writes it already made stand; they were race-free under its write
		// declaration.
		ctx.cmds.discard(w.state)
		for id := range ctx.staged {
			ctx.staged[id] = nil
		}

		fatal := sys.fatal || w.fatalFaults
		ctx.Logger().Error().Err(err).Bool("fatal", fatal).Msg("system fault")
		if fatal {
			return fault
		}
		return nil
	})

	for id, sys := range w.systems {
		report.Systems = append(report.Systems, SystemTiming{System: sys.name, Duration: w.results[id].duration})
		if w.results[id].fault != nil {
			report.Faults = append(report.Faults, Fault{System: sys.name, Err: w.results[id].fault})
		}
	}
	return runErr
}

// callSystem runs the system callback, converting panics into errors.
func (w *World) callSystem(ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Logger().Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("system panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ctx.sys.fn(ctx)
}

// flush applies the tick's buffered structural mutations and the channel
// boundary policies. Command buffers apply in system registration order;
// undrained staged posts merge the same way before retention and next-tick
// promotion run.
func (w *World) flush() {
	var spawns, despawns, inserts, removes int
	for _, ctx := range w.contexts {
		spawns += ctx.cmds.spawns
		despawns += ctx.cmds.despawns
		inserts += ctx.cmds.inserts
		removes += ctx.cmds.removes
		ctx.cmds.apply(w.state)
		ctx.cmds.reset()
	}

	for _, ctx := range w.contexts {
		for id := range ctx.staged {
			w.channels.at(channelID(id)).stagePosted(ctx.takeStaged(channelID(id))) //nolint:gosec // bounded by channel count
		}
	}
	for _, ch := range w.channels.channels {
		ch.endTick()
	}

	if spawns+despawns+inserts+removes > 0 {
		w.logger.Debug().
			Int("spawned", spawns).
			Int("despawned", despawns).
			Int("inserted", inserts).
			Int("removed", removes).
			Msg("applied structural changes")
	}
}

// CurrentTick returns the next tick number to run, which equals the number of
// completed ticks.
func (w *World) CurrentTick() uint64 {
	return w.tick.Load()
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.state.entities.count()
}

// FaultCount returns the number of isolated system faults since the world
// started.
func (w *World) FaultCount() uint64 {
	return w.faults.Load()
}

// Report returns the retained report for a completed tick.
func (w *World) Report(tick uint64) (*TickReport, error) {
	return w.history.get(tick)
}

// Sealed reports whether the first tick has frozen registration.
func (w *World) Sealed() bool {
	return w.sealed
}

// Logger returns the world's logger.
func (w *World) Logger() *zerolog.Logger {
	return &w.logger
}

// ComponentInfo describes one registered component type.
type ComponentInfo struct {
	Name string
	Type reflect.Type
}

// ResourceInfo describes one registered resource type.
type ResourceInfo struct {
	Type string
}

// ChannelInfo describes one registered channel.
type ChannelInfo struct {
	Name      string
	Type      reflect.Type
	Delivery  Delivery
	Retention Retention
	Pending   int
}

// SystemInfo describes one registered system and its declared access, with
// every set flattened to names.
type SystemInfo struct {
	Name            string
	Init            bool
	FatalFaults     bool
	Reads           []string
	Writes          []string
	ReadsResources  []string
	WritesResources []string
	Posts           []string
	Drains          []string
}

// DescribeComponents lists registered components in registration order.
func (w *World) DescribeComponents() []ComponentInfo {
	out := make([]ComponentInfo, 0, w.state.components.count())
	for _, tbl := range w.state.components.tables {
		out = append(out, ComponentInfo{Name: tbl.componentName(), Type: tbl.componentType()})
	}
	return out
}

// DescribeResources lists registered resource types in registration order.
func (w *World) DescribeResources() []ResourceInfo {
	out := make([]ResourceInfo, 0, w.state.resources.count())
	for _, name := range w.state.resources.names {
		out = append(out, ResourceInfo{Type: name})
	}
	return out
}

// DescribeChannels lists registered channels in registration order.
func (w *World) DescribeChannels() []ChannelInfo {
	out := make([]ChannelInfo, 0, w.channels.count())
	for _, ch := range w.channels.channels {
		out = append(out, ChannelInfo{
			Name:      ch.name,
			Type:      ch.typ,
			Delivery:  ch.delivery,
			Retention: ch.retention,
			Pending:   ch.pendingCount(),
		})
	}
	return out
}

// DescribeSystems lists registered systems, init systems last, each with its
// declared access flattened to names.
func (w *World) DescribeSystems() []SystemInfo {
	out := make([]SystemInfo, 0, len(w.systems)+len(w.initSystems))
	for _, sys := range w.systems {
		out = append(out, describeSystem(sys, false))
	}
	for _, sys := range w.initSystems {
		out = append(out, describeSystem(sys, true))
	}
	return out
}

func describeSystem(sys *systemMeta, init bool) SystemInfo {
	info := SystemInfo{Name: sys.name, Init: init, FatalFaults: sys.fatal}
	for _, c := range sys.decl.Reads {
		info.Reads = append(info.Reads, c.Name())
	}
	for _, c := range sys.decl.Writes {
		info.Writes = append(info.Writes, c.Name())
	}
	for _, r := range sys.decl.ReadsResources {
		info.ReadsResources = append(info.ReadsResources, reflect.TypeOf(r).String())
	}
	for _, r := range sys.decl.WritesResources {
		info.WritesResources = append(info.WritesResources, reflect.TypeOf(r).String())
	}
	for _, ref := range sys.decl.Posts {
		info.Posts = append(info.Posts, ref.Name())
	}
	for _, ref := range sys.decl.Drains {
		info.Drains = append(info.Drains, ref.Name())
	}
	return info
}

// ComponentTypes returns the registered component types keyed by name, for
// query-language resolvers and catalog output.
func (w *World) ComponentTypes() map[string]reflect.Type {
	out := make(map[string]reflect.Type, w.state.components.count())
	for _, tbl := range w.state.components.tables {
		out[tbl.componentName()] = tbl.componentType()
	}
	return out
}

// ComponentsOf returns copies of every component the entity holds, in
// registration order, or nil if the entity is not alive.
func (w *World) ComponentsOf(e types.Entity) []types.Component {
	return w.state.componentsOf(e)
}
