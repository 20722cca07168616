package ecs

import (
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

const initialTableCapacity = 256

// componentTable is the type-erased view of a table, used for destruction
// cascades, filter evaluation, and introspection.
type componentTable interface {
	componentName() string
	componentType() reflect.Type

	// holders returns the bitmap of entity indices with a row in this table.
	// Callers must treat it as read-only.
	holders() bitmap.Bitmap

	removeAt(idx uint32) bool
	valueAt(idx uint32) (any, bool)
	rowCount() int
}

// table stores one component type as a sparse set: dense value rows mirrored
// by their owning entities, an index map from entity index to row, and a
// holder bitmap for filter evaluation. Removal swaps the last row into the
// hole, so row order only stays put between structural changes.
type table[T types.Component] struct {
	values   []T
	entities []types.Entity
	rows     *intmap.Map[uint32, uint32]
	owned    bitmap.Bitmap
}

func newTable[T types.Component]() *table[T] {
	return &table[T]{
		values:   make([]T, 0, initialTableCapacity),
		entities: make([]types.Entity, 0, initialTableCapacity),
		rows:     intmap.New[uint32, uint32](initialTableCapacity),
	}
}

// set stores value for the entity and returns the previous value if the
// entity already had a row.
func (t *table[T]) set(e types.Entity, value T) (T, bool) {
	idx := e.Index()
	if row, ok := t.rows.Get(idx); ok {
		prev := t.values[row]
		t.values[row] = value
		t.entities[row] = e
		return prev, true
	}
	t.rows.Put(idx, uint32(len(t.values)))
	t.values = append(t.values, value)
	t.entities = append(t.entities, e)
	t.owned.Set(idx)
	var zero T
	return zero, false
}

// get returns a pointer into the dense row for the entity index. The pointer
// is valid until the next structural change of this table.
func (t *table[T]) get(idx uint32) (*T, bool) {
	row, ok := t.rows.Get(idx)
	if !ok {
		return nil, false
	}
	return &t.values[row], true
}

// remove drops the entity's row and returns the removed value.
func (t *table[T]) remove(idx uint32) (T, bool) {
	row, ok := t.rows.Get(idx)
	if !ok {
		var zero T
		return zero, false
	}
	removed := t.values[row]
	last := uint32(len(t.values) - 1)
	if row != last {
		t.values[row] = t.values[last]
		t.entities[row] = t.entities[last]
		t.rows.Put(t.entities[row].Index(), row)
	}
	var zero T
	t.values[last] = zero // clear the vacated row for the GC
	t.values = t.values[:last]
	t.entities = t.entities[:last]
	t.rows.Del(idx)
	t.owned.Remove(idx)
	return removed, true
}

// each visits rows in dense order. Return false from fn to stop early.
func (t *table[T]) each(fn func(types.Entity, *T) bool) {
	for i := range t.values {
		if !fn(t.entities[i], &t.values[i]) {
			return
		}
	}
}

func (t *table[T]) iter() iter.Seq2[types.Entity, *T] {
	return func(yield func(types.Entity, *T) bool) {
		for i := range t.values {
			if !yield(t.entities[i], &t.values[i]) {
				return
			}
		}
	}
}

func (t *table[T]) componentName() string {
	var zero T
	return zero.Name()
}

func (t *table[T]) componentType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (t *table[T]) holders() bitmap.Bitmap {
	return t.owned
}

func (t *table[T]) removeAt(idx uint32) bool {
	_, ok := t.remove(idx)
	return ok
}

func (t *table[T]) valueAt(idx uint32) (any, bool) {
	ptr, ok := t.get(idx)
	if !ok {
		return nil, false
	}
	return *ptr, true
}

func (t *table[T]) rowCount() int {
	return len(t.values)
}
