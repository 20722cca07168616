package ecs

import (
	"reflect"
	"regexp"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/internal/assert"
	"github.com/glasswing-games/aether/types"
)

type componentID = uint32

// validName constrains component, channel, and system names so they stay
// usable in query text and log fields.
var validName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// componentCatalog maps component types and names to their tables. IDs are
// dense and issued in registration order, which makes them usable as bit
// positions in access sets.
type componentCatalog struct {
	byName map[string]componentID
	byType map[reflect.Type]componentID
	tables []componentTable
}

func newComponentCatalog() *componentCatalog {
	return &componentCatalog{
		byName: map[string]componentID{},
		byType: map[reflect.Type]componentID{},
	}
}

// register adds a table for a component type. Registering the same type again
// returns the existing ID. Reusing a name for a different type is an error.
func (c *componentCatalog) register(name string, typ reflect.Type, tbl componentTable) (componentID, error) {
	if id, ok := c.byType[typ]; ok {
		if c.tables[id].componentName() != name {
			return 0, eris.Errorf("component type %s already registered as %q", typ, c.tables[id].componentName())
		}
		return id, nil
	}
	if !validName.MatchString(name) {
		return 0, eris.Errorf("component name %q must match %s", name, validName)
	}
	if _, ok := c.byName[name]; ok {
		return 0, eris.Errorf("component name %q already registered to a different type", name)
	}
	id := componentID(len(c.tables)) //nolint:gosec // table count stays tiny
	c.tables = append(c.tables, tbl)
	c.byName[name] = id
	c.byType[typ] = id
	assert.That(len(c.byName) == len(c.tables), "component catalog out of sync")
	return id, nil
}

func (c *componentCatalog) idByType(typ reflect.Type) (componentID, bool) {
	id, ok := c.byType[typ]
	return id, ok
}

func (c *componentCatalog) idByName(name string) (componentID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

func (c *componentCatalog) tableAt(id componentID) componentTable {
	return c.tables[id]
}

func (c *componentCatalog) nameAt(id componentID) string {
	return c.tables[id].componentName()
}

func (c *componentCatalog) count() int {
	return len(c.tables)
}

// holdersOutside returns the union of holder bitmaps for every registered
// type whose name is not in the given set.
func (c *componentCatalog) holdersOutside(components []types.Component) bitmap.Bitmap {
	result := bitmap.Bitmap{}
	for _, tbl := range c.tables {
		if !nameIn(components, tbl.componentName()) {
			result.Or(tbl.holders())
		}
	}
	return result
}

func nameIn(components []types.Component, name string) bool {
	for _, c := range components {
		if c.Name() == name {
			return true
		}
	}
	return false
}
