package runtime

import (
	"context"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"log/slog"
	"time"
)

// EventBus publishes domain events to the subscriptions held by a Registry.
// It keeps no history: an event published while nobody listens is dropped.
type EventBus struct {
	log          *slog.Logger
	registry     *Registry
	orderTimeout time.Duration
}

func NewEventBus(log *slog.Logger, registry *Registry, orderTimeout time.Duration) *EventBus {
	return &EventBus{log: log, registry: registry, orderTimeout: orderTimeout}
}

// Publish enqueues evt on its topic and returns without waiting for delivery.
func (b *EventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	d, err := b.registry.dispatcher(evt.Topic())
	if err != nil {
		return err
	}
	return d.Publish(ctx, evt, nil)
}

// PublishOrdered publishes evts in sequence. Each event is fully fanned out
// before the next one is enqueued, and before PublishOrdered returns, so a
// sink listening to several topics observes them in this order, also across
// consecutive calls from the same goroutine. A fan-out slower than
// orderTimeout is logged and the sequence goes on.
func (b *EventBus) PublishOrdered(ctx context.Context, evts ...event.DomainEvent) error {
	for _, evt := range evts {
		d, err := b.registry.dispatcher(evt.Topic())
		if err != nil {
			return err
		}
		done := make(chan struct{})
		if err = d.Publish(ctx, evt, done); err != nil {
			return err
		}
		if err = b.await(ctx, done, d.Stopped(), evt.Topic()); err != nil {
			return err
		}
	}
	return nil
}

func (b *EventBus) await(ctx context.Context, done <-chan struct{}, stopped <-chan struct{}, topic event.Topic) error {
	timer := time.NewTimer(b.orderTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-stopped:
		return errors.ErrBusStopped
	case <-timer.C:
		b.log.Warn("Ordered fan-out still running, publishing next event", "topic", string(topic))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
