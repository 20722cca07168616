package filter

import (
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

type and struct {
	filters []ComponentFilter
}

// And matches entities that satisfy every child filter.
func And(filters ...ComponentFilter) ComponentFilter {
	return &and{filters: filters}
}

func (f *and) MatchesComponents(components []types.Component) bool {
	for _, filter := range f.filters {
		if !filter.MatchesComponents(components) {
			return false
		}
	}
	return true
}

func (f *and) Evaluate(idx Index) (bitmap.Bitmap, error) {
	if len(f.filters) == 0 {
		return idx.Universe().Clone(nil), nil
	}
	result, err := f.filters[0].Evaluate(idx)
	if err != nil {
		return nil, err
	}
	for _, filter := range f.filters[1:] {
		matched, err := filter.Evaluate(idx)
		if err != nil {
			return nil, err
		}
		result.And(matched)
	}
	return result, nil
}
