package aether_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasswing-games/aether"
	. "github.com/glasswing-games/aether/internal/testutils"
)

// wideHealth collides with Health on name but not on shape.
type wideHealth struct {
	Value int
	Max   int
}

func (wideHealth) Name() string { return "Health" }

type gameClock struct {
	Elapsed int
}

func TestRegisterComponentDuplicateNames(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)

	require.NoError(t, aether.RegisterComponent[Health](w))
	require.NoError(t, aether.RegisterComponent[Health](w), "re-registering the same type is a no-op")

	err = aether.RegisterComponent[wideHealth](w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `component name "Health" is already registered with a different schema`)
}

func TestMustRegisterComponentPanics(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)

	aether.MustRegisterComponent[Health](w)
	assert.Panics(t, func() {
		aether.MustRegisterComponent[wideHealth](w)
	})
}

func TestRegisterChannelDuplicateNames(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)

	_, err = aether.RegisterChannel[string](w, "chat")
	require.NoError(t, err)
	_, err = aether.RegisterChannel[int](w, "chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `channel "chat" already registered`)
}

func TestDataPlaneAccessors(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)
	aether.MustRegisterComponent[Health](w)
	aether.MustRegisterComponent[Position](w)

	e, err := aether.CreateEntity(w)
	require.NoError(t, err)
	require.True(t, aether.Alive(w, e))

	_, replaced := aether.Insert(w, e, Health{Value: 10})
	assert.False(t, replaced)
	prev, replaced := aether.Insert(w, e, Health{Value: 25})
	assert.True(t, replaced)
	assert.Equal(t, Health{Value: 10}, prev)

	assert.True(t, aether.Has[Health](w, e))
	assert.False(t, aether.Has[Position](w, e))

	got, ok := aether.Get[Health](w, e)
	require.True(t, ok)
	assert.Equal(t, Health{Value: 25}, got)

	ptr, ok := aether.GetMut[Health](w, e)
	require.True(t, ok)
	ptr.Value = 30
	got, _ = aether.Get[Health](w, e)
	assert.Equal(t, Health{Value: 30}, got)

	visited := 0
	aether.Each(w, func(_ aether.Entity, h *Health) bool {
		visited++
		assert.Equal(t, 30, h.Value)
		return true
	})
	assert.Equal(t, 1, visited)

	for range aether.Iter[Health](w) {
		visited++
	}
	assert.Equal(t, 2, visited)

	removed, ok := aether.Remove[Health](w, e)
	require.True(t, ok)
	assert.Equal(t, Health{Value: 30}, removed)
	assert.False(t, aether.Has[Health](w, e))

	require.NoError(t, aether.DestroyEntity(w, e))
	assert.False(t, aether.Alive(w, e))
}

func TestInTickAccessors(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)
	aether.MustRegisterComponent[Health](w)
	aether.MustRegisterComponent[PlayerTag](w)
	require.NoError(t, aether.RegisterResource(w, gameClock{}))

	e, err := aether.CreateEntity(w)
	require.NoError(t, err)
	aether.Insert(w, e, Health{Value: 1})

	require.NoError(t, aether.RegisterSystem(w, "mutator",
		aether.Access{
			Writes:          []aether.Component{Health{}, PlayerTag{}},
			WritesResources: []any{gameClock{}},
		},
		func(ctx *aether.Context) error {
			h, ok := aether.GetComponent[Health](ctx, e)
			if !ok {
				return nil
			}
			aether.SetComponent(ctx, e, Health{Value: h.Value * 2})
			if _, tagged := aether.GetComponent[PlayerTag](ctx, e); !tagged {
				aether.AddComponent(ctx, e, PlayerTag{})
			}
			aether.MutResource[gameClock](ctx).Elapsed++
			return nil
		}))

	require.NoError(t, w.DoTick(time.Now()))
	got, _ := aether.Get[Health](w, e)
	assert.Equal(t, Health{Value: 2}, got, "SetComponent lands within the tick")
	assert.True(t, aether.Has[PlayerTag](w, e), "AddComponent lands at the boundary")

	require.NoError(t, w.DoTick(time.Now()))
	got, _ = aether.Get[Health](w, e)
	assert.Equal(t, Health{Value: 4}, got)

	clock, ok := aether.GetResource[gameClock](w)
	require.True(t, ok)
	assert.Equal(t, 2, clock.Elapsed)
}

func TestChannelRoundTrip(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)

	damage, err := aether.RegisterChannel[int](w, "damage")
	require.NoError(t, err)
	assert.Equal(t, "damage", damage.Name())

	var drained []int
	require.NoError(t, aether.RegisterSystem(w, "resolver",
		aether.Access{Drains: []aether.ChannelRef{damage.Ref()}},
		func(ctx *aether.Context) error {
			return aether.EachMessage(ctx, damage, func(msg int) error {
				drained = append(drained, msg)
				return nil
			})
		}))
	require.NoError(t, aether.RegisterSystem(w, "attacker",
		aether.Access{Posts: []aether.ChannelRef{damage.Ref()}},
		func(ctx *aether.Context) error {
			damage.Post(ctx, 7)
			damage.Post(ctx, 3)
			return nil
		}))

	// External messages become visible at the next tick start.
	damage.Enqueue(100)

	require.NoError(t, w.DoTick(time.Now()))
	assert.Equal(t, []int{100, 7, 3}, drained, "enqueued first, then same-tick posts in post order")
	assert.Equal(t, 0, damage.Pending())
}

func TestEachMessageStopsOnError(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)

	chat, err := aether.RegisterChannel[string](w, "chat")
	require.NoError(t, err)

	seen := 0
	require.NoError(t, aether.RegisterSystem(w, "moderator",
		aether.Access{Drains: []aether.ChannelRef{chat.Ref()}},
		func(ctx *aether.Context) error {
			return aether.EachMessage(ctx, chat, func(msg string) error {
				seen++
				if msg == "ban" {
					return assert.AnError
				}
				return nil
			})
		}))

	chat.Enqueue("hello")
	chat.Enqueue("ban")
	chat.Enqueue("world")

	require.NoError(t, w.DoTick(time.Now()))
	assert.Equal(t, 2, seen, "the callback error stops the drain loop")

	report, err := w.TickReport(0)
	require.NoError(t, err)
	require.Len(t, report.Faults, 1)
	assert.ErrorIs(t, report.Faults[0].Err, assert.AnError)
}

func TestChannelPolicies(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)

	drop, err := aether.RegisterChannel[int](w, "dropped")
	require.NoError(t, err)
	carry, err := aether.RegisterChannel[int](w, "carried", aether.WithCarryOver())
	require.NoError(t, err)

	// Nothing drains either channel.
	drop.Enqueue(1)
	carry.Enqueue(1)

	require.NoError(t, w.DoTick(time.Now()))
	assert.Equal(t, 0, drop.Pending(), "undrained messages drop at the boundary")
	assert.Equal(t, 1, carry.Pending(), "carry-over keeps undrained messages pending")

	require.NoError(t, w.DoTick(time.Now()))
	assert.Equal(t, 1, carry.Pending())
}

func TestChannelByNameDeclaration(t *testing.T) {
	w, err := aether.NewWorld()
	require.NoError(t, err)

	_, err = aether.RegisterChannel[int](w, "spawn-requests")
	require.NoError(t, err)

	err = aether.RegisterSystem(w, "spawner",
		aether.Access{Drains: []aether.ChannelRef{aether.ChannelByName("spawn-requests")}},
		func(*aether.Context) error { return nil })
	assert.NoError(t, err)
}
