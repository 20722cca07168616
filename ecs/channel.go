package ecs

import (
	"reflect"
	"sync"

	"github.com/rotisserie/eris"
)

type channelID = uint32

// Delivery controls when posted messages become visible to the drainer.
type Delivery uint8

const (
	// DeliverySameTick makes posts visible to the draining system within the
	// tick they were posted. The scheduler orders every posting system ahead
	// of the drainer.
	DeliverySameTick Delivery = iota

	// DeliveryNextTick holds posts back until the next tick begins.
	DeliveryNextTick
)

func (d Delivery) String() string {
	if d == DeliveryNextTick {
		return "next-tick"
	}
	return "same-tick"
}

// Retention controls what happens to messages still pending when a tick ends.
type Retention uint8

const (
	// RetentionDrop discards unconsumed messages at the tick boundary.
	RetentionDrop Retention = iota

	// RetentionCarry keeps unconsumed messages pending into the next tick.
	RetentionCarry
)

func (r Retention) String() string {
	if r == RetentionCarry {
		return "carry"
	}
	return "drop"
}

// channel is one registered message stream. Posts made by systems are staged
// per system during the tick and merged in system registration order, so the
// pending queue reads the same no matter how systems were parallelized.
type channel struct {
	id        channelID
	name      string
	typ       reflect.Type
	delivery  Delivery
	retention Retention

	// mu guards intake only. pending and next are touched by the tick loop
	// and the drainer alone.
	mu      sync.Mutex
	intake  []any
	pending []any
	next    []any

	posters []int // IDs of posting systems, ascending
	drainer int   // ID of the draining system, -1 if none
}

// enqueue adds a message from outside the tick loop. It becomes pending at
// the start of the next tick.
func (ch *channel) enqueue(msg any) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.intake = append(ch.intake, msg)
}

// admitIntake moves externally enqueued messages into the pending queue. The
// world calls this at the start of every tick.
func (ch *channel) admitIntake() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.intake) == 0 {
		return
	}
	ch.pending = append(ch.pending, ch.intake...)
	ch.intake = ch.intake[:0]
}

// stagePosted merges one system's posts. Same-tick posts land in the pending
// queue, next-tick posts in the next queue.
func (ch *channel) stagePosted(msgs []any) {
	if len(msgs) == 0 {
		return
	}
	if ch.delivery == DeliverySameTick {
		ch.pending = append(ch.pending, msgs...)
	} else {
		ch.next = append(ch.next, msgs...)
	}
}

// takePending removes and returns the pending queue.
func (ch *channel) takePending() []any {
	msgs := ch.pending
	ch.pending = nil
	return msgs
}

// endTick applies the retention policy and promotes next-tick messages.
func (ch *channel) endTick() {
	if ch.retention == RetentionDrop {
		ch.pending = nil
	}
	if len(ch.next) > 0 {
		ch.pending = append(ch.pending, ch.next...)
		ch.next = nil
	}
}

// pendingCount reports the queue depth for introspection.
func (ch *channel) pendingCount() int {
	return len(ch.pending)
}

// channelRegistry owns every channel of a world.
type channelRegistry struct {
	byName   map[string]channelID
	channels []*channel
}

func newChannelRegistry() *channelRegistry {
	return &channelRegistry{byName: map[string]channelID{}}
}

func (r *channelRegistry) register(name string, typ reflect.Type, delivery Delivery, retention Retention) (channelID, error) {
	if !validName.MatchString(name) {
		return 0, eris.Errorf("channel name %q must match %s", name, validName)
	}
	if _, ok := r.byName[name]; ok {
		return 0, eris.Errorf("channel %q already registered", name)
	}
	id := channelID(len(r.channels)) //nolint:gosec // channel count stays tiny
	r.channels = append(r.channels, &channel{
		id:        id,
		name:      name,
		typ:       typ,
		delivery:  delivery,
		retention: retention,
		drainer:   -1,
	})
	r.byName[name] = id
	return id, nil
}

func (r *channelRegistry) at(id channelID) *channel {
	return r.channels[id]
}

func (r *channelRegistry) idByName(name string) (channelID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

func (r *channelRegistry) count() int {
	return len(r.channels)
}
