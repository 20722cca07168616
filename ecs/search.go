package ecs

import (
	"iter"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/filter"
	"github.com/glasswing-games/aether/types"
)

// Search is a query over the world's entities. The component filter resolves
// against per-type holder bitmaps, so evaluation cost scales with the tables
// the filter names rather than with every entity times every type.
//
// A Search is cheap to build and single-use; build a fresh one per query.
type Search struct {
	w        *World
	filter   filter.ComponentFilter
	excluded []types.Component
	whereSrc string
	prog     *vm.Program
	inTick   *Context
	err      error
}

// NewSearch starts a query on the direct plane, outside of ticks.
func NewSearch(w *World, f filter.ComponentFilter) *Search {
	return newSearch(w, f, nil)
}

func newSearch(w *World, f filter.ComponentFilter, ctx *Context) *Search {
	if f == nil {
		f = filter.All()
	}
	return &Search{w: w, filter: f, inTick: ctx}
}

// Without excludes entities holding any of the given component types,
// whatever the main filter says.
func (s *Search) Without(components ...types.Component) *Search {
	s.excluded = append(s.excluded, components...)
	return s
}

// Where narrows the match with a boolean expression over component values.
// Component fields are addressed by component name, and _id is the entity's
// storage index, e.g. "Health.Current < 10 && Position.X > 0". The expression
// should only reference components the filter guarantees, since evaluation
// fails on entities that lack a referenced component. Expressions read values
// without access declarations, so Where is rejected inside systems.
func (s *Search) Where(src string) *Search {
	if s.err != nil {
		return s
	}
	if s.inTick != nil {
		s.err = eris.New("where clauses are not available inside systems")
		return s
	}
	// Compile the expression and check that the return type is boolean.
	prog, err := expr.Compile(src, expr.AsBool())
	if err != nil {
		s.err = eris.Wrapf(err, "failed to parse where clause %q", src)
		return s
	}
	s.whereSrc = src
	s.prog = prog
	return s
}

// Err returns the first error the search hit while being built or evaluated.
func (s *Search) Err() error {
	return s.err
}

// evaluate resolves the filter to the set of matching entity indices.
func (s *Search) evaluate() (bitmap.Bitmap, error) {
	if s.err != nil {
		return nil, s.err
	}
	matched, err := s.filter.Evaluate(s.w.state)
	if err != nil {
		s.err = err
		return nil, err
	}
	for _, c := range s.excluded {
		holders, err := s.w.state.HoldersOf(c)
		if err != nil {
			s.err = err
			return nil, err
		}
		matched.AndNot(holders)
	}
	matched.And(s.w.state.Universe())
	if s.prog != nil {
		if err := s.applyWhere(matched); err != nil {
			s.err = err
			return nil, err
		}
	}
	return matched, nil
}

// applyWhere drops matched indices whose component values fail the compiled
// expression.
func (s *Search) applyWhere(matched bitmap.Bitmap) error {
	var failed []uint32
	var evalErr error
	matched.Range(func(idx uint32) {
		if evalErr != nil {
			return
		}
		env := map[string]any{"_id": idx}
		for _, tbl := range s.w.state.components.tables {
			if v, ok := tbl.valueAt(idx); ok {
				env[tbl.componentName()] = v
			}
		}
		out, err := expr.Run(s.prog, env)
		if err != nil {
			evalErr = eris.Wrapf(err, "where clause %q failed", s.whereSrc)
			return
		}
		// Compilation can't fully check the return type without the env, so
		// the bool assertion happens late, per entity.
		keep, ok := out.(bool)
		if !ok || !keep {
			failed = append(failed, idx)
		}
	})
	if evalErr != nil {
		return evalErr
	}
	for _, idx := range failed {
		matched.Remove(idx)
	}
	return nil
}

// Each visits every matching entity. Return false from fn to stop early. The
// match set is fixed when Each starts; entities destroyed by the callback
// simply fail later lookups.
func (s *Search) Each(fn func(types.Entity) bool) error {
	matched, err := s.evaluate()
	if err != nil {
		return err
	}
	for _, e := range s.w.state.entities.resolve(matched) {
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// Iter returns a range-over-func iterator over matching entities. Evaluation
// errors end the iteration early and surface through Err.
func (s *Search) Iter() iter.Seq[types.Entity] {
	return func(yield func(types.Entity) bool) {
		matched, err := s.evaluate()
		if err != nil {
			return
		}
		for _, e := range s.w.state.entities.resolve(matched) {
			if !yield(e) {
				return
			}
		}
	}
}

// Count returns the number of matching entities.
func (s *Search) Count() (int, error) {
	matched, err := s.evaluate()
	if err != nil {
		return 0, err
	}
	return matched.Count(), nil
}

// First returns the matching entity with the lowest storage index, or
// ErrNotFound if nothing matches.
func (s *Search) First() (types.Entity, error) {
	matched, err := s.evaluate()
	if err != nil {
		return types.Entity{}, err
	}
	idx, ok := matched.Min()
	if !ok {
		return types.Entity{}, eris.Wrap(ErrNotFound, "search matched no entities")
	}
	resolved := s.w.state.entities.resolve(bitmapOf(idx))
	if len(resolved) == 0 {
		return types.Entity{}, eris.Wrap(ErrNotFound, "search matched no entities")
	}
	return resolved[0], nil
}

// Collect returns all matching entities in storage index order.
func (s *Search) Collect() ([]types.Entity, error) {
	matched, err := s.evaluate()
	if err != nil {
		return nil, err
	}
	return s.w.state.entities.resolve(matched), nil
}

func bitmapOf(indices ...uint32) bitmap.Bitmap {
	b := bitmap.Bitmap{}
	for _, idx := range indices {
		b.Set(idx)
	}
	return b
}
