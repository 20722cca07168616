package ecs

import (
	"sync"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/internal/assert"
	"github.com/glasswing-games/aether/types"
)

// entityRegistry issues generational entity handles. Indices of destroyed
// entities are recycled in FIFO order, and every reuse bumps the index's
// generation so a stale handle never matches the entity that took its place.
type entityRegistry struct {
	mu sync.Mutex

	// generations[i] is the generation of the newest handle issued for index
	// i. Fresh indices start at generation 1 so the zero handle stays dead.
	generations []uint32
	alive       bitmap.Bitmap
	free        []uint32
	nextIndex   uint32
	liveCount   int
}

func newEntityRegistry() *entityRegistry {
	return &entityRegistry{
		generations: make([]uint32, 0, 1024),
		free:        make([]uint32, 0, 256),
	}
}

// create issues a handle and makes it live immediately.
func (r *entityRegistry) create() (types.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.issue()
	if err != nil {
		return types.Entity{}, err
	}
	r.alive.Set(e.Index())
	r.liveCount++
	return e, nil
}

// reserve issues a handle without making it live. Reserved handles become
// live through commit at the tick boundary, or go back to the free queue
// through release when the reserving system's buffer is discarded.
func (r *entityRegistry) reserve() (types.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.issue()
}

func (r *entityRegistry) commit(e types.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := e.Index()
	assert.That(int(idx) < len(r.generations) && r.generations[idx] == e.Generation(),
		"commit of unreserved entity %s", e)
	if r.alive.Contains(idx) {
		return
	}
	r.alive.Set(idx)
	r.liveCount++
}

func (r *entityRegistry) release(e types.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := e.Index()
	if int(idx) < len(r.generations) && r.generations[idx] == e.Generation() && !r.alive.Contains(idx) {
		r.free = append(r.free, idx)
	}
}

// issue pops the oldest free index or mints a new one. Callers must hold mu.
func (r *entityRegistry) issue() (types.Entity, error) {
	if len(r.free) > 0 {
		idx := r.free[0]
		r.free = r.free[1:]
		r.generations[idx]++
		return types.NewEntity(idx, r.generations[idx]), nil
	}
	if r.nextIndex > types.MaxEntityIndex {
		return types.Entity{}, eris.Wrap(ErrEntityExhausted, "no free entity indices")
	}
	idx := r.nextIndex
	r.nextIndex++
	r.generations = append(r.generations, 1)
	return types.NewEntity(idx, 1), nil
}

// destroy retires a live handle and queues its index for reuse.
func (r *entityRegistry) destroy(e types.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.aliveLocked(e) {
		return eris.Wrapf(ErrNotFound, "entity %s is not alive", e)
	}
	idx := e.Index()
	r.alive.Remove(idx)
	r.liveCount--
	r.free = append(r.free, idx)
	return nil
}

func (r *entityRegistry) isAlive(e types.Entity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aliveLocked(e)
}

func (r *entityRegistry) aliveLocked(e types.Entity) bool {
	if e.IsNil() {
		return false
	}
	idx := e.Index()
	return int(idx) < len(r.generations) &&
		r.generations[idx] == e.Generation() &&
		r.alive.Contains(idx)
}

// resolve rebuilds live handles for a set of indices under a single lock.
// Indices without a live entity are skipped.
func (r *entityRegistry) resolve(indices bitmap.Bitmap) []types.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Entity, 0, indices.Count())
	indices.Range(func(idx uint32) {
		if int(idx) < len(r.generations) && r.alive.Contains(idx) {
			out = append(out, types.NewEntity(idx, r.generations[idx]))
		}
	})
	return out
}

// liveSet returns the bitmap of live indices. Callers must treat it as
// read-only and must not hold it across structural changes.
func (r *entityRegistry) liveSet() bitmap.Bitmap {
	return r.alive
}

func (r *entityRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveCount
}
