package filter

import (
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

type or struct {
	filters []ComponentFilter
}

// Or matches entities that satisfy at least one child filter.
func Or(filters ...ComponentFilter) ComponentFilter {
	return &or{filters: filters}
}

func (f *or) MatchesComponents(components []types.Component) bool {
	for _, filter := range f.filters {
		if filter.MatchesComponents(components) {
			return true
		}
	}
	return false
}

func (f *or) Evaluate(idx Index) (bitmap.Bitmap, error) {
	result := bitmap.Bitmap{}
	for _, filter := range f.filters {
		matched, err := filter.Evaluate(idx)
		if err != nil {
			return nil, err
		}
		result.Or(matched)
	}
	return result, nil
}
