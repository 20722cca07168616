package aether

import (
	"iter"

	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/ecs"
	"github.com/glasswing-games/aether/types"
)

// Core vocabulary, re-exported so embedding code only imports this package
// and the filter package.
type (
	// Entity is an opaque generational handle to a world entity.
	Entity = types.Entity

	// Component is the interface user component types implement.
	Component = types.Component

	// Access declares the component, resource, and channel footprint of a
	// system. See ecs.Access for field semantics.
	Access = ecs.Access

	// Context is a system's view of the tick it is running in.
	Context = ecs.Context

	// System is a tick callback.
	System = ecs.System

	// SystemOption configures a system at registration.
	SystemOption = ecs.SystemOption

	// Channel is a typed handle to a registered message channel.
	Channel[T any] = ecs.Channel[T]

	// ChannelRef names a channel in an access declaration.
	ChannelRef = ecs.ChannelRef

	// ChannelOption configures a channel at registration.
	ChannelOption = ecs.ChannelOption

	// TickReport summarizes one completed tick.
	TickReport = ecs.TickReport

	// SystemTiming records one system execution within a tick.
	SystemTiming = ecs.SystemTiming

	// Fault records one isolated system failure within a tick.
	Fault = ecs.Fault
)

// Option re-exports, so call sites read aether.WithCarryOver rather than
// mixing packages.
var (
	WithFatalFaultsForSystem = ecs.WithFatalFaults
	WithNextTickDelivery     = ecs.WithNextTickDelivery
	WithCarryOver            = ecs.WithCarryOver
	ChannelByName            = ecs.ChannelByName
)

// RegisterComponent registers component type T with the world, capturing its
// JSON schema for the catalog. Registering two different types under the same
// component name fails with a report of how their schemas differ.
func RegisterComponent[T types.Component](w *World) error {
	var zero T
	name := zero.Name()

	schema, err := types.SchemaOf(zero)
	if err != nil {
		return eris.Wrapf(err, "component %q must be json serializable", name)
	}
	if prev, ok := w.componentSchemas[name]; ok {
		diff, diffErr := types.DiffSchemas(prev, schema)
		if diffErr != nil {
			return diffErr
		}
		if diff != "" {
			return eris.Errorf(
				"component name %q is already registered with a different schema: %s", name, diff)
		}
	}

	if err := ecs.RegisterComponent[T](w.core); err != nil {
		return err
	}
	w.componentSchemas[name] = schema
	return nil
}

// MustRegisterComponent is RegisterComponent that panics on error, for
// startup code where a registration failure is unrecoverable anyway.
func MustRegisterComponent[T types.Component](w *World) {
	if err := RegisterComponent[T](w); err != nil {
		panic(err)
	}
}

// RegisterResource stores value as the world's singleton of type R.
func RegisterResource[R any](w *World, value R) error {
	return ecs.RegisterResource(w.core, value)
}

// GetResource returns the world's resource of type R. The pointer stays valid
// for the life of the world. Inside systems use ReadResource and MutResource,
// which enforce the declared access sets.
func GetResource[R any](w *World) (*R, bool) {
	return ecs.GetResource[R](w.core)
}

// RegisterChannel creates a message channel carrying values of type T.
// Channels default to same-tick delivery and drop unconsumed messages at the
// tick boundary; WithNextTickDelivery and WithCarryOver change those policies
// per channel. The message type's JSON schema lands in the catalog.
func RegisterChannel[T any](w *World, name string, opts ...ChannelOption) (Channel[T], error) {
	var zero T
	schema, err := types.SchemaOf(zero)
	if err != nil {
		return Channel[T]{}, eris.Wrapf(err, "channel %q message type must be json serializable", name)
	}
	ch, err := ecs.RegisterChannel[T](w.core, name, opts...)
	if err != nil {
		return Channel[T]{}, err
	}
	w.channelSchemas[name] = schema
	return ch, nil
}

// RegisterSystem adds a system to the tick schedule under the given name.
// The access declaration is checked against every already registered system;
// overlapping writes are rejected with an AccessConflictError naming both
// systems and the clashing types.
func RegisterSystem(w *World, name string, access Access, fn System, opts ...SystemOption) error {
	return w.core.RegisterSystem(name, access, fn, opts...)
}

// RegisterInitSystem adds a system that runs exactly once, at the start of
// the first tick, before any regular system.
func RegisterInitSystem(w *World, name string, access Access, fn System, opts ...SystemOption) error {
	return w.core.RegisterInitSystem(name, access, fn, opts...)
}

// CreateEntity allocates a new live entity with no components. This is the
// direct form for setup and tests; inside a system use Context.CreateEntity,
// which defers to the tick boundary.
func CreateEntity(w *World) (Entity, error) {
	return ecs.CreateEntity(w.core)
}

// DestroyEntity removes the entity and every component it holds, returning
// ErrNotFound when the handle is dead or stale.
func DestroyEntity(w *World, e Entity) error {
	return ecs.DestroyEntity(w.core, e)
}

// Alive reports whether the handle refers to a live entity.
func Alive(w *World, e Entity) bool {
	return ecs.Alive(w.core, e)
}

// Insert stores a component value on the entity, returning the previous value
// if one was replaced. A dead or stale handle makes this a silent no-op.
func Insert[T types.Component](w *World, e Entity, value T) (T, bool) {
	return ecs.Insert(w.core, e, value)
}

// Remove drops component T from the entity and returns the removed value.
func Remove[T types.Component](w *World, e Entity) (T, bool) {
	return ecs.Remove[T](w.core, e)
}

// Get returns a copy of component T on the entity. Absence is (zero, false),
// never an error.
func Get[T types.Component](w *World, e Entity) (T, bool) {
	return ecs.Get[T](w.core, e)
}

// GetMut returns a pointer to component T on the entity, valid until the next
// structural change of T's table.
func GetMut[T types.Component](w *World, e Entity) (*T, bool) {
	return ecs.GetMut[T](w.core, e)
}

// Has reports whether the entity holds component T.
func Has[T types.Component](w *World, e Entity) bool {
	return ecs.Has[T](w.core, e)
}

// Each visits every entity holding component T in storage order.
func Each[T types.Component](w *World, fn func(Entity, *T) bool) {
	ecs.Each(w.core, fn)
}

// Iter returns a range-over-func iterator over entities holding T.
func Iter[T types.Component](w *World) iter.Seq2[Entity, *T] {
	return ecs.Iter[T](w.core)
}

// The in-tick accessors, re-exported from ecs. All of them check the calling
// system's declared access and panic on an undeclared touch, which surfaces
// as a SystemFault for that tick.

// GetComponent reads component T on an entity inside a system.
func GetComponent[T types.Component](ctx *Context, e Entity) (T, bool) {
	return ecs.GetComponent[T](ctx, e)
}

// MutComponent returns a pointer to component T for in-place mutation inside
// a system. Value writes through the pointer are immediate.
func MutComponent[T types.Component](ctx *Context, e Entity) (*T, bool) {
	return ecs.MutComponent[T](ctx, e)
}

// SetComponent overwrites component T in place when the entity already holds
// it. Giving a component to an entity that lacks one goes through
// AddComponent instead.
func SetComponent[T types.Component](ctx *Context, e Entity, value T) bool {
	return ecs.SetComponent(ctx, e, value)
}

// AddComponent queues insertion of component T for the tick boundary.
func AddComponent[T types.Component](ctx *Context, e Entity, value T) {
	ecs.AddComponent(ctx, e, value)
}

// RemoveComponent queues removal of component T for the tick boundary.
func RemoveComponent[T types.Component](ctx *Context, e Entity) {
	ecs.RemoveComponent[T](ctx, e)
}

// ReadResource returns the resource of type R for reading inside a system.
func ReadResource[R any](ctx *Context) *R {
	return ecs.ReadResource[R](ctx)
}

// MutResource returns the resource of type R for mutation inside a system.
func MutResource[R any](ctx *Context) *R {
	return ecs.MutResource[R](ctx)
}

// EachMessage drains channel ch and visits every pending message in order.
// It is sugar over Channel.Drain for the common consume-everything system.
func EachMessage[T any](ctx *Context, ch Channel[T], fn func(msg T) error) error {
	for _, msg := range ch.Drain(ctx) {
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}
