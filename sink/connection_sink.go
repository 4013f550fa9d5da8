package sink

import (
	"context"
	"convo-hub/contract"
	"convo-hub/domain/event"
	"log/slog"
	"sync/atomic"
)

// Delivery is an event tagged with the subscription it was admitted for.
type Delivery struct {
	SubscriptionID string
	Event          event.DomainEvent
}

// ConnectionSink buffers the deliveries of every subscription of one client
// connection in a single queue, so events keep the order in which dispatchers
// produced them. When the buffer is full the oldest delivery is dropped: a
// client that stops reading never blocks a dispatcher.
type ConnectionSink struct {
	log        *slog.Logger
	Deliveries chan Delivery
	dropped    atomic.Uint64
}

func NewConnectionSink(log *slog.Logger, bufferSize int) *ConnectionSink {
	return &ConnectionSink{log: log, Deliveries: make(chan Delivery, bufferSize)}
}

// For returns the sink to register for subscriptionID.
func (s *ConnectionSink) For(subscriptionID string) contract.EventSink {
	return taggedSink{owner: s, subscriptionID: subscriptionID}
}

// Dropped returns the number of deliveries evicted so far.
func (s *ConnectionSink) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *ConnectionSink) push(ctx context.Context, d Delivery) error {
	for {
		select {
		case s.Deliveries <- d:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		select {
		case <-s.Deliveries:
			s.dropped.Add(1)
			s.log.Debug("Connection buffer full, oldest delivery dropped",
				"subscription_id", d.SubscriptionID)
		default:
		}
	}
}

type taggedSink struct {
	owner          *ConnectionSink
	subscriptionID string
}

// Consume is called by the topic dispatcher.
// The connection handler takes it from the Deliveries channel.
func (t taggedSink) Consume(ctx context.Context, e event.DomainEvent) error {
	return t.owner.push(ctx, Delivery{SubscriptionID: t.subscriptionID, Event: e})
}
