package filter

import (
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

type all struct{}

// All matches every live entity.
func All() ComponentFilter {
	return &all{}
}

func (f *all) MatchesComponents(_ []types.Component) bool {
	return true
}

func (f *all) Evaluate(idx Index) (bitmap.Bitmap, error) {
	return idx.Universe().Clone(nil), nil
}
