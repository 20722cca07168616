package filter

import (
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

type not struct {
	filter ComponentFilter
}

// Not matches entities that do not satisfy the child filter.
func Not(filter ComponentFilter) ComponentFilter {
	return &not{filter: filter}
}

func (f *not) MatchesComponents(components []types.Component) bool {
	return !f.filter.MatchesComponents(components)
}

func (f *not) Evaluate(idx Index) (bitmap.Bitmap, error) {
	matched, err := f.filter.Evaluate(idx)
	if err != nil {
		return nil, err
	}
	result := idx.Universe().Clone(nil)
	result.AndNot(matched)
	return result, nil
}
