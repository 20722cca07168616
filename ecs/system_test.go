package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasswing-games/aether/ecs"
	. "github.com/glasswing-games/aether/internal/testutils"
	"github.com/glasswing-games/aether/types"
)

func nopSystem(*ecs.Context) error { return nil }

func TestRegisterSystemValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sysName string
		fn      ecs.System
		wantIn  string
	}{
		{name: "nil callback", sysName: "broken", fn: nil, wantIn: "nil callback"},
		{name: "empty name", sysName: "", fn: nopSystem, wantIn: "must match"},
		{name: "name with spaces", sysName: "two words", fn: nopSystem, wantIn: "must match"},
		{name: "name starting with digit", sysName: "9lives", fn: nopSystem, wantIn: "must match"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := newTestWorld(t)
			err := w.RegisterSystem(tc.sysName, ecs.Access{}, tc.fn)
			require.ErrorIs(t, err, ecs.ErrAccessConflict)
			assert.Contains(t, err.Error(), tc.wantIn)
		})
	}
}

func TestRegisterSystemDuplicateName(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	require.NoError(t, w.RegisterSystem("mover", ecs.Access{}, nopSystem))
	assert.ErrorIs(t, w.RegisterSystem("mover", ecs.Access{}, nopSystem), ecs.ErrAccessConflict)

	require.NoError(t, w.RegisterInitSystem("seeder", ecs.Access{}, nopSystem))
	assert.ErrorIs(t, w.RegisterSystem("seeder", ecs.Access{}, nopSystem),
		ecs.ErrAccessConflict, "init and regular systems share the namespace")
}

func TestRegisterSystemUnknownDeclarations(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)

	err := w.RegisterSystem("reader", ecs.Access{Reads: []types.Component{Level{}}}, nopSystem)
	require.ErrorIs(t, err, ecs.ErrAccessConflict)
	assert.Contains(t, err.Error(), "component")

	err = w.RegisterSystem("clock", ecs.Access{ReadsResources: []any{worldClock{}}}, nopSystem)
	require.ErrorIs(t, err, ecs.ErrAccessConflict)
	assert.Contains(t, err.Error(), "resource")

	err = w.RegisterSystem("poster", ecs.Access{Posts: []ecs.ChannelRef{ecs.ChannelByName("missing")}}, nopSystem)
	require.ErrorIs(t, err, ecs.ErrAccessConflict)
	assert.Contains(t, err.Error(), "channel")
}

func TestAccessConflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		first  ecs.Access
		second ecs.Access
		modes  [2]string
	}{
		{
			name:   "write against write",
			first:  ecs.Access{Writes: []types.Component{Health{}}},
			second: ecs.Access{Writes: []types.Component{Health{}}},
			modes:  [2]string{"write", "write"},
		},
		{
			name:   "write against read",
			first:  ecs.Access{Writes: []types.Component{Health{}}},
			second: ecs.Access{Reads: []types.Component{Health{}}},
			modes:  [2]string{"write", "read"},
		},
		{
			name:   "read against write",
			first:  ecs.Access{Reads: []types.Component{Health{}}},
			second: ecs.Access{Writes: []types.Component{Health{}}},
			modes:  [2]string{"read", "write"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := newTestWorld(t)
			require.NoError(t, w.RegisterSystem("first", tc.first, nopSystem))

			err := w.RegisterSystem("second", tc.second, nopSystem)
			require.ErrorIs(t, err, ecs.ErrAccessConflict)

			var conflict *ecs.AccessConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, "first", conflict.SystemA)
			assert.Equal(t, "second", conflict.SystemB)
			require.Len(t, conflict.Overlaps, 1)
			assert.Equal(t, "Health", conflict.Overlaps[0].Name)
			assert.Equal(t, tc.modes[0], conflict.Overlaps[0].ModeA)
			assert.Equal(t, tc.modes[1], conflict.Overlaps[0].ModeB)
		})
	}
}

func TestResourceAccessConflicts(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	require.NoError(t, ecs.RegisterResource(w, worldClock{}))
	require.NoError(t, w.RegisterSystem("ticker", ecs.Access{WritesResources: []any{worldClock{}}}, nopSystem))

	err := w.RegisterSystem("watcher", ecs.Access{ReadsResources: []any{worldClock{}}}, nopSystem)
	require.ErrorIs(t, err, ecs.ErrAccessConflict)

	var conflict *ecs.AccessConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Overlaps, 1)
	assert.Equal(t, "resource", conflict.Overlaps[0].Kind)
}

func TestDisjointAccessCoexists(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	assert.NoError(t, w.RegisterSystem("healer", ecs.Access{Writes: []types.Component{Health{}}}, nopSystem))
	assert.NoError(t, w.RegisterSystem("mover", ecs.Access{Writes: []types.Component{Position{}}, Reads: []types.Component{Velocity{}}}, nopSystem))
	assert.NoError(t, w.RegisterSystem("hud", ecs.Access{Reads: []types.Component{Health{}}}, nopSystem),
		"shared reads never conflict")
	assert.NoError(t, w.RegisterSystem("minimap", ecs.Access{Reads: []types.Component{Health{}, Velocity{}}}, nopSystem))
}

func TestChannelDrainerIsExclusive(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	_, err := ecs.RegisterChannel[int](w, "damage")
	require.NoError(t, err)

	drains := ecs.Access{Drains: []ecs.ChannelRef{ecs.ChannelByName("damage")}}
	require.NoError(t, w.RegisterSystem("resolver", drains, nopSystem))

	err = w.RegisterSystem("usurper", drains, nopSystem)
	require.ErrorIs(t, err, ecs.ErrAccessConflict)

	var conflict *ecs.AccessConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "resolver", conflict.SystemA)
	require.Len(t, conflict.Overlaps, 1)
	assert.Equal(t, "channel", conflict.Overlaps[0].Kind)
	assert.Equal(t, "damage", conflict.Overlaps[0].Name)
}

func TestManyPostersOneDrainer(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	_, err := ecs.RegisterChannel[int](w, "damage")
	require.NoError(t, err)

	posts := ecs.Access{Posts: []ecs.ChannelRef{ecs.ChannelByName("damage")}}
	assert.NoError(t, w.RegisterSystem("swords", posts, nopSystem))
	assert.NoError(t, w.RegisterSystem("arrows", posts, nopSystem))
	assert.NoError(t, w.RegisterSystem("resolver", ecs.Access{Drains: []ecs.ChannelRef{ecs.ChannelByName("damage")}}, nopSystem))
}

func TestInitSystemCannotDrain(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	ch, err := ecs.RegisterChannel[int](w, "damage")
	require.NoError(t, err)

	err = w.RegisterInitSystem("seeder", ecs.Access{Drains: []ecs.ChannelRef{ch.Ref()}}, nopSystem)
	require.ErrorIs(t, err, ecs.ErrAccessConflict)
	assert.Contains(t, err.Error(), "cannot drain")

	assert.NoError(t, w.RegisterInitSystem("announcer", ecs.Access{Posts: []ecs.ChannelRef{ch.Ref()}}, nopSystem),
		"init systems may post")
}

func TestInitSystemsSkipOverlapChecks(t *testing.T) {
	t.Parallel()

	// Init systems run sequentially before the schedule, so they may overlap
	// each other and the regular systems.
	w := newTestWorld(t)
	writes := ecs.Access{Writes: []types.Component{Health{}}}
	require.NoError(t, w.RegisterSystem("regen", writes, nopSystem))
	assert.NoError(t, w.RegisterInitSystem("seed-a", writes, nopSystem))
	assert.NoError(t, w.RegisterInitSystem("seed-b", writes, nopSystem))
}

func TestSelfDrainRejectedAtSeal(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	ch, err := ecs.RegisterChannel[int](w, "echo")
	require.NoError(t, err)

	require.NoError(t, w.RegisterSystem("loopback", ecs.Access{
		Posts:  []ecs.ChannelRef{ch.Ref()},
		Drains: []ecs.ChannelRef{ch.Ref()},
	}, nopSystem))

	err = w.Seal()
	require.ErrorIs(t, err, ecs.ErrAccessConflict)
	assert.Contains(t, err.Error(), "loopback")
}

func TestSelfDrainLegalOnNextTickChannel(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	ch, err := ecs.RegisterChannel[int](w, "echo", ecs.WithNextTickDelivery())
	require.NoError(t, err)

	require.NoError(t, w.RegisterSystem("loopback", ecs.Access{
		Posts:  []ecs.ChannelRef{ch.Ref()},
		Drains: []ecs.ChannelRef{ch.Ref()},
	}, nopSystem))

	assert.NoError(t, w.Seal())
}

func TestSameTickCycleRejectedAtSeal(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	ab, err := ecs.RegisterChannel[int](w, "a-to-b")
	require.NoError(t, err)
	ba, err := ecs.RegisterChannel[int](w, "b-to-a")
	require.NoError(t, err)

	require.NoError(t, w.RegisterSystem("alform", ecs.Access{
		Posts:  []ecs.ChannelRef{ab.Ref()},
		Drains: []ecs.ChannelRef{ba.Ref()},
	}, nopSystem))
	require.NoError(t, w.RegisterSystem("belform", ecs.Access{
		Posts:  []ecs.ChannelRef{ba.Ref()},
		Drains: []ecs.ChannelRef{ab.Ref()},
	}, nopSystem))

	err = w.Seal()
	require.ErrorIs(t, err, ecs.ErrAccessConflict)
	assert.Contains(t, err.Error(), "cycle")
}
