package ecs

import (
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/types"
)

// state is the complete data of a world: the entity registry, one table per
// component type, and the resource catalog. It implements filter.Index.
type state struct {
	entities   *entityRegistry
	components *componentCatalog
	resources  *resourceCatalog
}

func newState() *state {
	return &state{
		entities:   newEntityRegistry(),
		components: newComponentCatalog(),
		resources:  newResourceCatalog(),
	}
}

// Universe implements filter.Index.
func (s *state) Universe() bitmap.Bitmap {
	return s.entities.liveSet()
}

// HoldersOf implements filter.Index.
func (s *state) HoldersOf(component types.Component) (bitmap.Bitmap, error) {
	id, ok := s.components.idByName(component.Name())
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotRegistered, "component %q", component.Name())
	}
	return s.components.tableAt(id).holders(), nil
}

// HoldersOutside implements filter.Index.
func (s *state) HoldersOutside(components []types.Component) bitmap.Bitmap {
	return s.components.holdersOutside(components)
}

// destroyEntity retires the entity and drops every component row it owns.
func (s *state) destroyEntity(e types.Entity) error {
	if !s.entities.isAlive(e) {
		return eris.Wrapf(ErrNotFound, "entity %s is not alive", e)
	}
	idx := e.Index()
	for _, tbl := range s.components.tables {
		tbl.removeAt(idx)
	}
	return s.entities.destroy(e)
}

// componentsOf returns copies of every component the entity holds, for debug
// output and naive match checks.
func (s *state) componentsOf(e types.Entity) []types.Component {
	if !s.entities.isAlive(e) {
		return nil
	}
	var out []types.Component
	for _, tbl := range s.components.tables {
		if v, ok := tbl.valueAt(e.Index()); ok {
			out = append(out, v.(types.Component))
		}
	}
	return out
}

// tableFor resolves the table of component type T, or nil if T was never
// registered with this world.
func tableFor[T types.Component](s *state) *table[T] {
	id, ok := s.components.idByType(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	return s.components.tableAt(id).(*table[T])
}
