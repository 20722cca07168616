package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

type resourceID = uint32

// resourceCatalog stores world-global singleton values keyed by type. IDs are
// dense so access sets can track resources in bitmaps alongside components.
type resourceCatalog struct {
	byType map[reflect.Type]resourceID
	values []any // *R for each registered resource type
	names  []string
}

func newResourceCatalog() *resourceCatalog {
	return &resourceCatalog{byType: map[reflect.Type]resourceID{}}
}

func (c *resourceCatalog) register(typ reflect.Type, ptr any) (resourceID, error) {
	if _, ok := c.byType[typ]; ok {
		return 0, eris.Errorf("resource type %s already registered", typ)
	}
	id := resourceID(len(c.values)) //nolint:gosec // resource count stays tiny
	c.byType[typ] = id
	c.values = append(c.values, ptr)
	c.names = append(c.names, typ.String())
	return id, nil
}

func (c *resourceCatalog) idByType(typ reflect.Type) (resourceID, bool) {
	id, ok := c.byType[typ]
	return id, ok
}

func (c *resourceCatalog) at(id resourceID) any {
	return c.values[id]
}

func (c *resourceCatalog) nameAt(id resourceID) string {
	return c.names[id]
}

func (c *resourceCatalog) count() int {
	return len(c.values)
}
