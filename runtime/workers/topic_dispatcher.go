package workers

import (
	"context"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/subscription"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type registerCommand struct {
	sub *subscription.Subscription
	ack chan struct{}
}

type unregisterCommand struct {
	id uuid.UUID
}

type publishCommand struct {
	evt  event.DomainEvent
	done chan struct{} // optional, closed once fanned out
}

// TopicDispatcher owns the listener set of a single topic.
//
// Register, unregister and publish all go through one inbox and are applied
// by Run, one at a time. The set itself is never shared, so publishes on the
// topic are fanned out in FIFO order and a subscriber registered after a
// publish was enqueued never sees it.
//
// Each delivery is isolated: a panicking filter or sink is recovered and
// logged, a slow sink is abandoned after sinkTimeout.
type TopicDispatcher struct {
	log            *slog.Logger
	topic          event.Topic
	inbox          chan any
	stopped        chan struct{}
	stopOnce       sync.Once
	subscribers    map[uuid.UUID]*subscription.Subscription
	sinkTimeout    time.Duration
	publishTimeout time.Duration
}

func NewTopicDispatcher(log *slog.Logger, topic event.Topic, bufferSize int,
	sinkTimeout, publishTimeout time.Duration) *TopicDispatcher {
	return &TopicDispatcher{
		log:            log.With("topic", string(topic)),
		topic:          topic,
		inbox:          make(chan any, bufferSize),
		stopped:        make(chan struct{}),
		subscribers:    make(map[uuid.UUID]*subscription.Subscription),
		sinkTimeout:    sinkTimeout,
		publishTimeout: publishTimeout,
	}
}

func (d *TopicDispatcher) Topic() event.Topic { return d.topic }

// Register blocks until the dispatcher has added sub to its set.
func (d *TopicDispatcher) Register(ctx context.Context, sub *subscription.Subscription) error {
	cmd := registerCommand{sub: sub, ack: make(chan struct{})}
	select {
	case d.inbox <- cmd:
	case <-d.stopped:
		return errors.ErrBusStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.ack:
		return nil
	case <-d.stopped:
		return errors.ErrBusStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister never blocks. The subscription must already be closed: if the
// inbox is full the command is dropped and the closed subscription is purged
// at the next publish instead.
func (d *TopicDispatcher) Unregister(id uuid.UUID) {
	select {
	case d.inbox <- unregisterCommand{id: id}:
	default:
		d.log.Debug("Inbox full, unregister deferred to next publish", "subscription_id", id)
	}
}

// Publish enqueues evt. It waits at most publishTimeout for room in the inbox.
// done, when not nil, is closed after evt has been offered to every subscriber.
func (d *TopicDispatcher) Publish(ctx context.Context, evt event.DomainEvent, done chan struct{}) error {
	select {
	case <-d.stopped:
		return errors.ErrBusStopped
	default:
	}
	timer := time.NewTimer(d.publishTimeout)
	defer timer.Stop()
	select {
	case d.inbox <- publishCommand{evt: evt, done: done}:
		return nil
	case <-d.stopped:
		return errors.ErrBusStopped
	case <-timer.C:
		d.log.Warn("Dispatcher inbox full, event dropped")
		return errors.ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped is closed once the dispatcher stopped accepting commands.
func (d *TopicDispatcher) Stopped() <-chan struct{} {
	return d.stopped
}

// Stop marks the dispatcher stopped even if Run never got to execute.
// Pending and future Register and Publish calls fail with ErrBusStopped.
func (d *TopicDispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopped)
	})
}

func (d *TopicDispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return nil
		case cmd := <-d.inbox:
			switch c := cmd.(type) {
			case registerCommand:
				if !c.sub.Closed() {
					d.subscribers[c.sub.ID] = c.sub
				}
				close(c.ack)
			case unregisterCommand:
				delete(d.subscribers, c.id)
			case publishCommand:
				d.fanout(ctx, c.evt)
				if c.done != nil {
					close(c.done)
				}
			}
		}
	}
}

func (d *TopicDispatcher) fanout(ctx context.Context, evt event.DomainEvent) {
	if len(d.subscribers) == 0 {
		d.log.Debug("No subscriber, event dropped")
		return
	}
	for id, sub := range d.subscribers {
		if sub.Closed() {
			delete(d.subscribers, id)
			continue
		}
		switch d.admit(sub, evt) {
		case event.Admit:
			d.deliver(ctx, sub, evt)
		case event.AuthError:
			d.log.Warn("Subscriber has no valid session, closing subscription",
				"subscription_id", sub.ID, "session_id", sub.SessionID)
			sub.Close(errors.ErrMissingSession)
			delete(d.subscribers, id)
		case event.Deny:
		}
	}
}

func (d *TopicDispatcher) admit(sub *subscription.Subscription, evt event.DomainEvent) (admission event.Admission) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Filter panicked, event denied",
				"subscription_id", sub.ID, "panic", fmt.Sprint(r))
			admission = event.Deny
		}
	}()
	if sub.Filter == nil {
		return event.Admit
	}
	return sub.Filter(evt)
}

func (d *TopicDispatcher) deliver(ctx context.Context, sub *subscription.Subscription, evt event.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Sink panicked, event dropped",
				"subscription_id", sub.ID, "panic", fmt.Sprint(r))
		}
	}()
	// Cancelled while the filter ran: discard.
	if sub.Closed() {
		return
	}
	sinkCtx, cancel := context.WithTimeout(ctx, d.sinkTimeout)
	defer cancel()
	if err := sub.Sink.Consume(sinkCtx, evt); err != nil {
		d.log.Warn("Delivery failed, event dropped",
			"subscription_id", sub.ID, "error", err)
	}
}

func (d *TopicDispatcher) shutdown() {
	for id, sub := range d.subscribers {
		sub.Close(errors.ErrBusStopped)
		delete(d.subscribers, id)
	}
	d.Stop()
	d.log.Debug("Context done, dispatcher stopped")
}
