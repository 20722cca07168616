package ecs

import (
	"reflect"
)

// Channel is a typed handle to a registered message channel.
type Channel[T any] struct {
	w    *World
	id   channelID
	name string
}

type channelSettings struct {
	delivery  Delivery
	retention Retention
}

// ChannelOption configures a channel at registration.
type ChannelOption func(*channelSettings)

// WithNextTickDelivery defers message visibility to the tick after the post.
// The default is same-tick delivery, which orders posting systems ahead of
// the drainer within one tick.
func WithNextTickDelivery() ChannelOption {
	return func(s *channelSettings) { s.delivery = DeliveryNextTick }
}

// WithCarryOver keeps unconsumed messages pending across tick boundaries
// instead of dropping them at tick end.
func WithCarryOver() ChannelOption {
	return func(s *channelSettings) { s.retention = RetentionCarry }
}

// RegisterChannel creates a message channel carrying values of type T.
// Channels default to same-tick delivery and drop unconsumed messages at the
// tick boundary.
func RegisterChannel[T any](w *World, name string, opts ...ChannelOption) (Channel[T], error) {
	if err := w.mustBeOpen(); err != nil {
		return Channel[T]{}, err
	}
	var settings channelSettings
	for _, opt := range opts {
		opt(&settings)
	}
	id, err := w.channels.register(name, reflect.TypeFor[T](), settings.delivery, settings.retention)
	if err != nil {
		return Channel[T]{}, err
	}
	w.logger.Debug().
		Str("channel", name).
		Str("delivery", settings.delivery.String()).
		Str("retention", settings.retention.String()).
		Msg("registered channel")
	return Channel[T]{w: w, id: id, name: name}, nil
}

// Name returns the channel's registered name.
func (c Channel[T]) Name() string {
	return c.name
}

// Ref returns the reference used in system access declarations.
func (c Channel[T]) Ref() ChannelRef {
	return ChannelRef{name: c.name}
}

// Post stages a message from inside a system. The posting system must declare
// the channel in its post set. Posts from parallel systems merge in system
// registration order, so the channel's content is deterministic for a given
// tick regardless of scheduling.
func (c Channel[T]) Post(ctx *Context, msg T) {
	ctx.post(c.id, c.name, msg)
}

// Drain removes and returns all pending messages, oldest first. The calling
// system must be the channel's registered drainer. A second drain within the
// same tick returns nil.
func (c Channel[T]) Drain(ctx *Context) []T {
	raw := ctx.drain(c.id, c.name)
	if len(raw) == 0 {
		return nil
	}
	msgs := make([]T, len(raw))
	for i, m := range raw {
		msgs[i] = m.(T)
	}
	return msgs
}

// Enqueue adds a message from outside the tick loop, such as an input adapter
// or a test. It becomes visible at the start of the next tick.
func (c Channel[T]) Enqueue(msg T) {
	c.w.channels.at(c.id).enqueue(msg)
}

// Pending reports how many messages are waiting to be drained. Meant for
// introspection between ticks.
func (c Channel[T]) Pending() int {
	return c.w.channels.at(c.id).pendingCount()
}

// ChannelRef names a channel in a system's access declaration.
type ChannelRef struct {
	name string
}

// ChannelByName builds a declaration reference without a typed handle.
func ChannelByName(name string) ChannelRef {
	return ChannelRef{name: name}
}

func (r ChannelRef) Name() string {
	return r.name
}
