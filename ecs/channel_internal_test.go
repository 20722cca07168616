package ecs

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChannel(t *testing.T, delivery Delivery, retention Retention) *channel {
	t.Helper()
	reg := newChannelRegistry()
	id, err := reg.register("test-channel", reflect.TypeFor[int](), delivery, retention)
	require.NoError(t, err)
	return reg.at(id)
}

func TestChannelRegistry_Register(t *testing.T) {
	t.Parallel()

	reg := newChannelRegistry()

	id, err := reg.register("combat-events", reflect.TypeFor[int](), DeliverySameTick, RetentionDrop)
	require.NoError(t, err)
	assert.Equal(t, channelID(0), id)

	ch := reg.at(id)
	assert.Equal(t, "combat-events", ch.name)
	assert.Equal(t, -1, ch.drainer, "channels start with no drainer")

	got, ok := reg.idByName("combat-events")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, err = reg.register("combat-events", reflect.TypeFor[string](), DeliverySameTick, RetentionDrop)
	assert.Error(t, err, "channel names are unique")

	_, err = reg.register("bad name!", reflect.TypeFor[int](), DeliverySameTick, RetentionDrop)
	assert.Error(t, err)
}

func TestChannel_IntakeBecomesPendingAtAdmit(t *testing.T) {
	t.Parallel()

	ch := newTestChannel(t, DeliverySameTick, RetentionDrop)
	ch.enqueue(1)
	ch.enqueue(2)

	assert.Equal(t, 0, ch.pendingCount(), "enqueued messages wait in intake")

	ch.admitIntake()
	assert.Equal(t, 2, ch.pendingCount())
	assert.Equal(t, []any{1, 2}, ch.takePending())
	assert.Nil(t, ch.takePending(), "a second take returns nothing")
}

func TestChannel_StagePostedSameTick(t *testing.T) {
	t.Parallel()

	ch := newTestChannel(t, DeliverySameTick, RetentionDrop)
	ch.stagePosted([]any{10, 11})
	assert.Equal(t, []any{10, 11}, ch.takePending())
}

func TestChannel_StagePostedNextTick(t *testing.T) {
	t.Parallel()

	ch := newTestChannel(t, DeliveryNextTick, RetentionDrop)
	ch.stagePosted([]any{10})

	assert.Nil(t, ch.takePending(), "next-tick posts are invisible within the posting tick")

	ch.endTick()
	assert.Equal(t, []any{10}, ch.takePending(), "promotion happens at the tick boundary")
}

func TestChannel_EndTickRetention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		retention Retention
		want      int
	}{
		{name: "drop discards undrained messages", retention: RetentionDrop, want: 0},
		{name: "carry keeps undrained messages", retention: RetentionCarry, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ch := newTestChannel(t, DeliverySameTick, tt.retention)
			ch.stagePosted([]any{1, 2})

			ch.endTick()
			assert.Equal(t, tt.want, ch.pendingCount())
		})
	}
}

func TestChannel_CarriedMessagesStayOrderedAheadOfNewPosts(t *testing.T) {
	t.Parallel()

	ch := newTestChannel(t, DeliverySameTick, RetentionCarry)
	ch.stagePosted([]any{1})
	ch.endTick()

	ch.stagePosted([]any{2})
	assert.Equal(t, []any{1, 2}, ch.takePending(), "carried messages drain before this tick's posts")
}

func TestDeliveryAndRetentionStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "same-tick", DeliverySameTick.String())
	assert.Equal(t, "next-tick", DeliveryNextTick.String())
	assert.Equal(t, "drop", RetentionDrop.String())
	assert.Equal(t, "carry", RetentionCarry.String())
}
