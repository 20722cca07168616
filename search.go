package aether

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/ecs"
	"github.com/glasswing-games/aether/eql"
	"github.com/glasswing-games/aether/filter"
	"github.com/glasswing-games/aether/types"
)

// Search is a single-use query over the world's entities.
type Search = ecs.Search

// Search starts a query on the direct plane. Pass nil to match every entity.
//
//	count, err := w.Search(filter.Contains(Position{})).Count()
func (w *World) Search(f filter.ComponentFilter) *Search {
	return ecs.NewSearch(w.core, f)
}

// QueryString starts a query from query text, for callers that receive
// filters at runtime rather than building them in code:
//
//	s, err := w.QueryString("CONTAINS(Position) & !CONTAINS(Frozen)")
//
// The grammar supports CONTAINS(...), EXACT(...), ALL(), ! for negation,
// parentheses, and the binary operators & and |. Component names resolve
// against the world's registrations.
func (w *World) QueryString(query string) (*Search, error) {
	f, err := eql.Parse(query, w.componentResolver())
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse query %q", query)
	}
	return ecs.NewSearch(w.core, f), nil
}

// componentResolver maps component names from query text to zero values of
// the registered component types.
func (w *World) componentResolver() eql.Resolver {
	registered := w.core.ComponentTypes()
	return func(name string) (types.Component, error) {
		typ, ok := registered[name]
		if !ok {
			return nil, eris.Wrapf(ecs.ErrNotFound, "component %q is not registered", name)
		}
		comp, ok := reflect.New(typ).Elem().Interface().(types.Component)
		if !ok {
			return nil, eris.Errorf("type %s for component %q is not a component", typ, name)
		}
		return comp, nil
	}
}
