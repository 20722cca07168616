package filter

import (
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

type contains struct {
	components []types.Component
}

// Contains matches entities that hold all the components specified.
func Contains(components ...types.Component) ComponentFilter {
	return &contains{components: components}
}

func (f *contains) MatchesComponents(components []types.Component) bool {
	for _, componentType := range f.components {
		if !MatchComponent(components, componentType) {
			return false
		}
	}
	return true
}

func (f *contains) Evaluate(idx Index) (bitmap.Bitmap, error) {
	if len(f.components) == 0 {
		return idx.Universe().Clone(nil), nil
	}
	first, err := idx.HoldersOf(f.components[0])
	if err != nil {
		return nil, err
	}
	result := first.Clone(nil)
	for _, componentType := range f.components[1:] {
		holders, err := idx.HoldersOf(componentType)
		if err != nil {
			return nil, err
		}
		result.And(holders)
	}
	return result, nil
}
