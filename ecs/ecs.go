package ecs

import (
	"iter"
	"reflect"

	"github.com/glasswing-games/aether/internal/assert"
	"github.com/glasswing-games/aether/types"
)

// This file is the direct storage plane: synchronous reads and writes against
// the world outside of ticks. Systems running inside a tick use the Context
// accessors instead, which enforce declared access and buffer structural
// changes.

// RegisterComponent creates the table for component type T. Registering the
// same type again is a no-op. Component names must be unique within a world.
func RegisterComponent[T types.Component](w *World) error {
	if err := w.mustBeOpen(); err != nil {
		return err
	}
	var zero T
	id, err := w.state.components.register(zero.Name(), reflect.TypeFor[T](), newTable[T]())
	if err != nil {
		return err
	}
	w.logger.Debug().
		Str("component", zero.Name()).
		Uint32("component_id", id).
		Msg("registered component")
	return nil
}

// RegisterResource stores value as the world's singleton of type R. Each
// resource type can be registered once.
func RegisterResource[R any](w *World, value R) error {
	if err := w.mustBeOpen(); err != nil {
		return err
	}
	ptr := new(R)
	*ptr = value
	id, err := w.state.resources.register(reflect.TypeFor[R](), ptr)
	if err != nil {
		return err
	}
	w.logger.Debug().
		Str("resource", w.state.resources.nameAt(id)).
		Msg("registered resource")
	return nil
}

// GetResource returns the world's resource of type R. The pointer stays valid
// for the life of the world. Access from inside systems goes through
// ReadResource and MutResource, which enforce the declared access.
func GetResource[R any](w *World) (*R, bool) {
	id, ok := w.state.resources.idByType(reflect.TypeFor[R]())
	if !ok {
		return nil, false
	}
	return w.state.resources.at(id).(*R), true
}

// CreateEntity allocates a new live entity with no components.
func CreateEntity(w *World) (types.Entity, error) {
	return w.state.entities.create()
}

// DestroyEntity removes the entity and every component it holds. Destroying
// through a stale or dead handle returns ErrNotFound.
func DestroyEntity(w *World, e types.Entity) error {
	return w.state.destroyEntity(e)
}

// Alive reports whether the handle refers to a live entity.
func Alive(w *World, e types.Entity) bool {
	return w.state.entities.isAlive(e)
}

// Insert stores a component value on the entity and returns the previous
// value if one was replaced. Inserting through a dead or stale handle is a
// silent no-op.
func Insert[T types.Component](w *World, e types.Entity, value T) (T, bool) {
	var zero T
	tbl := tableFor[T](w.state)
	assert.That(tbl != nil, "component %q is not registered", zero.Name())
	if tbl == nil || !w.state.entities.isAlive(e) {
		return zero, false
	}
	return tbl.set(e, value)
}

// Remove drops component T from the entity and returns the removed value.
// Removing a component the entity does not hold is a silent no-op.
func Remove[T types.Component](w *World, e types.Entity) (T, bool) {
	var zero T
	tbl := tableFor[T](w.state)
	assert.That(tbl != nil, "component %q is not registered", zero.Name())
	if tbl == nil || !w.state.entities.isAlive(e) {
		return zero, false
	}
	return tbl.remove(e.Index())
}

// Get returns a copy of component T on the entity.
func Get[T types.Component](w *World, e types.Entity) (T, bool) {
	var zero T
	tbl := tableFor[T](w.state)
	assert.That(tbl != nil, "component %q is not registered", zero.Name())
	if tbl == nil || !w.state.entities.isAlive(e) {
		return zero, false
	}
	ptr, ok := tbl.get(e.Index())
	if !ok {
		return zero, false
	}
	return *ptr, true
}

// GetMut returns a pointer to component T on the entity. The pointer stays
// valid until the next structural change of T's table.
func GetMut[T types.Component](w *World, e types.Entity) (*T, bool) {
	var zero T
	tbl := tableFor[T](w.state)
	assert.That(tbl != nil, "component %q is not registered", zero.Name())
	if tbl == nil || !w.state.entities.isAlive(e) {
		return nil, false
	}
	return tbl.get(e.Index())
}

// Has reports whether the entity holds component T.
func Has[T types.Component](w *World, e types.Entity) bool {
	tbl := tableFor[T](w.state)
	if tbl == nil || !w.state.entities.isAlive(e) {
		return false
	}
	_, ok := tbl.get(e.Index())
	return ok
}

// Each visits every entity holding component T in storage order. Return false
// from fn to stop early. The order is stable as long as no structural change
// happens between visits.
func Each[T types.Component](w *World, fn func(types.Entity, *T) bool) {
	tbl := tableFor[T](w.state)
	if tbl == nil {
		return
	}
	tbl.each(fn)
}

// Iter returns a range-over-func iterator over entities holding T.
func Iter[T types.Component](w *World) iter.Seq2[types.Entity, *T] {
	tbl := tableFor[T](w.state)
	if tbl == nil {
		return func(func(types.Entity, *T) bool) {}
	}
	return tbl.iter()
}
