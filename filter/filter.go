// Package filter describes which entities a search matches, as a composable
// expression over the component types an entity holds.
//
// Filters evaluate in two ways. MatchesComponents answers the question for a
// single entity given its component list, which is what tests and one-off
// checks want. Evaluate resolves the whole filter against the storage index
// in terms of per-type holder bitmaps, so a search never walks entities that
// cannot match.
package filter

import (
	"github.com/kelindar/bitmap"

	"github.com/glasswing-games/aether/types"
)

// ComponentFilter is a filter that selects entities based on their components.
type ComponentFilter interface {
	// MatchesComponents returns true if an entity holding exactly the given
	// components matches the filter.
	MatchesComponents(components []types.Component) bool

	// Evaluate resolves the filter against a storage index and returns the
	// bitmap of matching entity indices. The returned bitmap is owned by the
	// caller; the bitmaps handed out by the index are never mutated.
	Evaluate(idx Index) (bitmap.Bitmap, error)
}

// Index is the storage-side view a filter evaluates against.
type Index interface {
	// Universe returns the bitmap of all live entity indices. Callers must
	// treat the returned bitmap as read-only.
	Universe() bitmap.Bitmap

	// HoldersOf returns the bitmap of entity indices holding the given
	// component type, or an error if the type was never registered. Callers
	// must treat the returned bitmap as read-only.
	HoldersOf(component types.Component) (bitmap.Bitmap, error)

	// HoldersOutside returns the union of holder bitmaps for every registered
	// component type not named in the given set. The returned bitmap is owned
	// by the caller.
	HoldersOutside(components []types.Component) bitmap.Bitmap
}

// Component returns the zero value of component type T for use in filter
// expressions, where spelling out a composite literal would be noisy.
func Component[T types.Component]() types.Component {
	var x T
	return x
}
