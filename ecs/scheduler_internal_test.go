package ecs

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scheduleFixture wires systems and same-tick channel edges by hand.
// edges[i] = (poster, drainer) pairs, one channel per pair.
func scheduleFixture(t *testing.T, systemCount int, edges [][2]int) ([]*systemMeta, *channelRegistry) {
	t.Helper()
	systems := make([]*systemMeta, systemCount)
	for i := range systems {
		systems[i] = &systemMeta{id: i, name: string(rune('a' + i))}
	}
	reg := newChannelRegistry()
	for i, e := range edges {
		id, err := reg.register("ch-"+string(rune('0'+i)), reflect.TypeFor[int](), DeliverySameTick, RetentionDrop)
		require.NoError(t, err)
		ch := reg.at(id)
		ch.posters = []int{e[0]}
		ch.drainer = e[1]
	}
	return systems, reg
}

func TestScheduleRunsEverySystemOnce(t *testing.T) {
	t.Parallel()

	systems, reg := scheduleFixture(t, 5, nil)
	var s tickSchedule
	require.NoError(t, s.build(systems, reg))

	var mu sync.Mutex
	ran := map[int]int{}
	err := s.run(func(id int) error {
		mu.Lock()
		defer mu.Unlock()
		ran[id]++
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, ran, 5)
	for id, count := range ran {
		assert.Equal(t, 1, count, "system %d", id)
	}
}

func TestSchedulePostersRunBeforeDrainer(t *testing.T) {
	t.Parallel()

	// 0 and 1 post to a channel drained by 2; 2 posts to a channel drained
	// by 3; 4 is free.
	systems, reg := scheduleFixture(t, 5, [][2]int{{0, 2}, {1, 2}, {2, 3}})
	var s tickSchedule
	require.NoError(t, s.build(systems, reg))

	for trial := 0; trial < 20; trial++ {
		var mu sync.Mutex
		var order []int
		err := s.run(func(id int) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, id)
			return nil
		})
		require.NoError(t, err)
		require.Len(t, order, 5)

		position := make(map[int]int, len(order))
		for pos, id := range order {
			position[id] = pos
		}
		assert.Less(t, position[0], position[2])
		assert.Less(t, position[1], position[2])
		assert.Less(t, position[2], position[3])
	}
}

func TestScheduleRejectsSelfDrain(t *testing.T) {
	t.Parallel()

	systems, reg := scheduleFixture(t, 1, [][2]int{{0, 0}})
	var s tickSchedule
	err := s.build(systems, reg)
	assert.ErrorIs(t, err, ErrAccessConflict)
}

func TestScheduleRejectsCycle(t *testing.T) {
	t.Parallel()

	// 0 -> 1 -> 2 -> 0 through three channels.
	systems, reg := scheduleFixture(t, 3, [][2]int{{0, 1}, {1, 2}, {2, 0}})
	var s tickSchedule
	err := s.build(systems, reg)
	require.ErrorIs(t, err, ErrAccessConflict)
	assert.Contains(t, err.Error(), "cycle")
}

func TestScheduleIgnoresNextTickChannels(t *testing.T) {
	t.Parallel()

	systems := []*systemMeta{{id: 0, name: "a"}, {id: 1, name: "b"}}
	reg := newChannelRegistry()
	id, err := reg.register("delayed", reflect.TypeFor[int](), DeliveryNextTick, RetentionDrop)
	require.NoError(t, err)
	ch := reg.at(id)
	ch.posters = []int{1}
	ch.drainer = 0

	var s tickSchedule
	require.NoError(t, s.build(systems, reg), "next-tick channels impose no ordering")
	assert.Len(t, s.tier0, 2)
}

func TestScheduleSurvivesRepeatedRuns(t *testing.T) {
	t.Parallel()

	// The indegree buffers alternate between runs; a run must leave the next
	// buffer primed.
	systems, reg := scheduleFixture(t, 3, [][2]int{{0, 1}, {1, 2}})
	var s tickSchedule
	require.NoError(t, s.build(systems, reg))

	for run := 0; run < 6; run++ {
		var mu sync.Mutex
		var order []int
		err := s.run(func(id int) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, id)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, order, "run %d", run)
	}
}

func TestScheduleReturnsExecErrorAfterFullRun(t *testing.T) {
	t.Parallel()

	systems, reg := scheduleFixture(t, 3, [][2]int{{0, 1}, {1, 2}})
	var s tickSchedule
	require.NoError(t, s.build(systems, reg))

	var mu sync.Mutex
	ran := map[int]bool{}
	err := s.run(func(id int) error {
		mu.Lock()
		ran[id] = true
		mu.Unlock()
		if id == 0 {
			return assert.AnError
		}
		return nil
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, ran, 3, "dependents still run so every system executes once per tick")
}

func TestScheduleEmpty(t *testing.T) {
	t.Parallel()

	var s tickSchedule
	require.NoError(t, s.build(nil, newChannelRegistry()))
	assert.NoError(t, s.run(func(int) error { return assert.AnError }))
}
