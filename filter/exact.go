package filter

import (
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

type exact struct {
	components []types.Component
}

// Exact matches entities that hold exactly the components specified, no more.
func Exact(components ...types.Component) ComponentFilter {
	return &exact{components: components}
}

func (f *exact) MatchesComponents(components []types.Component) bool {
	if len(components) != len(f.components) {
		return false
	}
	for _, componentType := range components {
		if !MatchComponent(f.components, componentType) {
			return false
		}
	}
	return true
}

func (f *exact) Evaluate(idx Index) (bitmap.Bitmap, error) {
	inner := Contains(f.components...)
	result, err := inner.Evaluate(idx)
	if err != nil {
		return nil, err
	}
	outside := idx.HoldersOutside(f.components)
	result.AndNot(outside)
	return result, nil
}
