package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glasswing-games/aether/types"
)

func TestEntityParts(t *testing.T) {
	t.Parallel()

	e := types.NewEntity(42, 7)
	assert.Equal(t, uint32(42), e.Index())
	assert.Equal(t, uint32(7), e.Generation())
	assert.Equal(t, "42.v7", e.String())
}

func TestZeroEntityIsNil(t *testing.T) {
	t.Parallel()

	var zero types.Entity
	assert.True(t, zero.IsNil())
	assert.False(t, types.NewEntity(0, 1).IsNil(), "generation 1 at index 0 is a real handle")
}

func TestEntityComparability(t *testing.T) {
	t.Parallel()

	// Handles are value types; the same parts compare equal, and the same
	// index with a different generation does not.
	assert.Equal(t, types.NewEntity(3, 1), types.NewEntity(3, 1))
	assert.NotEqual(t, types.NewEntity(3, 1), types.NewEntity(3, 2))
}
