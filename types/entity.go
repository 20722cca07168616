package types

import (
	"fmt"
	"math"
)

// MaxEntityIndex is the largest storage index the registry will hand out.
const MaxEntityIndex = math.MaxUint32 - 1

// Entity is an opaque handle to a world entity. It pairs a storage index with
// a generation counter so that a handle kept past the entity's destruction can
// be told apart from the entity that later reuses the same index.
//
// The zero Entity is never alive; live handles always carry a generation of at
// least 1.
type Entity struct {
	index      uint32
	generation uint32
}

// NewEntity assembles a handle from its raw parts. It is meant for the storage
// layer; building a handle that was never issued by the registry does not make
// the entity valid.
func NewEntity(index uint32, generation uint32) Entity {
	return Entity{index: index, generation: generation}
}

// Index returns the storage index of the handle.
func (e Entity) Index() uint32 {
	return e.index
}

// Generation returns the reuse counter of the handle.
func (e Entity) Generation() uint32 {
	return e.generation
}

// IsNil reports whether e is the zero handle.
func (e Entity) IsNil() bool {
	return e.generation == 0
}

func (e Entity) String() string {
	return fmt.Sprintf("%d.v%d", e.index, e.generation)
}
