package ecs

import (
	"fmt"
	"reflect"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/glasswing-games/aether/filter"
	"github.com/glasswing-games/aether/types"
)

// Context is a system's view of one tick: the tick number and timestamp, a
// logger tagged with the system name, the system's command buffer, and its
// staged message posts. Contexts are reused across ticks and must not be
// retained after the system returns.
type Context struct {
	w      *World
	sys    *systemMeta
	tick   uint64
	ts     time.Time
	logger zerolog.Logger

	cmds   commandBuffer
	staged [][]any // posts per channel ID, merged at drain or tick boundary
}

func newContext(w *World, sys *systemMeta) *Context {
	return &Context{
		w:      w,
		sys:    sys,
		staged: make([][]any, w.channels.count()),
	}
}

func (ctx *Context) beginTick(tick uint64, ts time.Time) {
	ctx.tick = tick
	ctx.ts = ts
	ctx.logger = ctx.w.logger.With().
		Str("system", ctx.sys.name).
		Uint64("tick", tick).
		Logger()
	ctx.cmds.reset()
	for i := range ctx.staged {
		ctx.staged[i] = nil
	}
}

// Tick returns the current tick number.
func (ctx *Context) Tick() uint64 {
	return ctx.tick
}

// Timestamp returns the time the current tick started.
func (ctx *Context) Timestamp() time.Time {
	return ctx.ts
}

// Logger returns a logger tagged with the system name and tick number.
func (ctx *Context) Logger() *zerolog.Logger {
	return &ctx.logger
}

// CreateEntity allocates an entity handle. The handle is unique immediately
// and usable in this system's later buffered operations, but the entity only
// becomes live, and visible to queries, at the tick boundary.
func (ctx *Context) CreateEntity() (types.Entity, error) {
	e, err := ctx.w.state.entities.reserve()
	if err != nil {
		return types.Entity{}, err
	}
	ctx.cmds.reserved = append(ctx.cmds.reserved, e)
	ctx.cmds.spawns++
	ctx.cmds.push(func(s *state) { s.entities.commit(e) })
	return e, nil
}

// DestroyEntity queues the entity's destruction for the tick boundary. The
// entity stays visible for the remainder of the tick. Destroying through a
// stale or dead handle returns ErrNotFound.
func (ctx *Context) DestroyEntity(e types.Entity) error {
	if !ctx.w.state.entities.isAlive(e) && !ctx.reservedHere(e) {
		return eris.Wrapf(ErrNotFound, "entity %s is not alive", e)
	}
	ctx.cmds.despawns++
	ctx.cmds.push(func(s *state) {
		// earlier buffers this tick may already have destroyed it
		_ = s.destroyEntity(e)
	})
	return nil
}

func (ctx *Context) reservedHere(e types.Entity) bool {
	for _, r := range ctx.cmds.reserved {
		if r == e {
			return true
		}
	}
	return false
}

// Search starts a query against the tick's snapshot. Structural matching
// needs no declaration; reading matched values still goes through the
// declared component accessors. Where clauses are not available inside
// systems.
func (ctx *Context) Search(f filter.ComponentFilter) *Search {
	return newSearch(ctx.w, f, ctx)
}

func (ctx *Context) post(id channelID, name string, msg any) {
	if !ctx.sys.access.canPost(id) {
		panic(fmt.Sprintf("system %q posts to undeclared channel %q", ctx.sys.name, name))
	}
	ctx.staged[id] = append(ctx.staged[id], msg)
}

func (ctx *Context) drain(id channelID, name string) []any {
	if !ctx.sys.access.canDrain(id) {
		panic(fmt.Sprintf("system %q drains undeclared channel %q", ctx.sys.name, name))
	}
	ch := ctx.w.channels.at(id)
	if ch.delivery == DeliverySameTick {
		// Every poster ran before this system; fold their stages into the
		// pending queue in registration order.
		for _, posterID := range ch.posters {
			ch.stagePosted(ctx.w.contexts[posterID].takeStaged(id))
		}
	}
	return ch.takePending()
}

func (ctx *Context) takeStaged(id channelID) []any {
	msgs := ctx.staged[id]
	ctx.staged[id] = nil
	return msgs
}

// GetComponent reads component T on an entity. The system must declare T in
// its read or write set.
func GetComponent[T types.Component](ctx *Context, e types.Entity) (T, bool) {
	mustReadComponent[T](ctx)
	return Get[T](ctx.w, e)
}

// MutComponent returns a pointer to component T for in-place mutation. Value
// writes through the pointer are immediate; the single-writer rule makes them
// race-free. The system must declare T in its write set.
func MutComponent[T types.Component](ctx *Context, e types.Entity) (*T, bool) {
	mustWriteComponent[T](ctx)
	return GetMut[T](ctx.w, e)
}

// SetComponent overwrites component T in place when the entity already holds
// it, reporting whether a value was written. Giving a component to an entity
// that lacks it is a structural change and goes through AddComponent.
func SetComponent[T types.Component](ctx *Context, e types.Entity, value T) bool {
	mustWriteComponent[T](ctx)
	ptr, ok := GetMut[T](ctx.w, e)
	if !ok {
		return false
	}
	*ptr = value
	return true
}

// AddComponent queues insertion of component T for the tick boundary. The
// system must declare T in its write set.
func AddComponent[T types.Component](ctx *Context, e types.Entity, value T) {
	mustWriteComponent[T](ctx)
	ctx.cmds.inserts++
	ctx.cmds.push(func(s *state) {
		if !s.entities.isAlive(e) {
			return
		}
		if tbl := tableFor[T](s); tbl != nil {
			tbl.set(e, value)
		}
	})
}

// RemoveComponent queues removal of component T for the tick boundary. The
// system must declare T in its write set.
func RemoveComponent[T types.Component](ctx *Context, e types.Entity) {
	mustWriteComponent[T](ctx)
	ctx.cmds.removes++
	ctx.cmds.push(func(s *state) {
		if tbl := tableFor[T](s); tbl != nil {
			tbl.remove(e.Index())
		}
	})
}

// ReadResource returns the resource of type R for reading. The system must
// declare R in its resource read or write set.
func ReadResource[R any](ctx *Context) *R {
	id, ok := ctx.w.state.resources.idByType(reflect.TypeFor[R]())
	if !ok || !ctx.sys.access.canReadResource(id) {
		var zero R
		panic(fmt.Sprintf("system %q reads undeclared resource %T", ctx.sys.name, zero))
	}
	return ctx.w.state.resources.at(id).(*R)
}

// MutResource returns the resource of type R for mutation. The system must
// declare R in its resource write set.
func MutResource[R any](ctx *Context) *R {
	id, ok := ctx.w.state.resources.idByType(reflect.TypeFor[R]())
	if !ok || !ctx.sys.access.canWriteResource(id) {
		var zero R
		panic(fmt.Sprintf("system %q writes undeclared resource %T", ctx.sys.name, zero))
	}
	return ctx.w.state.resources.at(id).(*R)
}

func mustReadComponent[T types.Component](ctx *Context) {
	id, ok := ctx.w.state.components.idByType(reflect.TypeFor[T]())
	if !ok || !ctx.sys.access.canReadComponent(id) {
		var zero T
		panic(fmt.Sprintf("system %q reads undeclared component %q", ctx.sys.name, zero.Name()))
	}
}

func mustWriteComponent[T types.Component](ctx *Context) {
	id, ok := ctx.w.state.components.idByType(reflect.TypeFor[T]())
	if !ok || !ctx.sys.access.canWriteComponent(id) {
		var zero T
		panic(fmt.Sprintf("system %q writes undeclared component %q", ctx.sys.name, zero.Name()))
	}
}
