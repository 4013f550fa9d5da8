// Package subscription holds the live registration of one client on one topic.
package subscription

import (
	"convo-hub/contract"
	"convo-hub/domain/event"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handle identifies a registered subscription. It is what callers keep to
// cancel it later.
type Handle struct {
	ID    uuid.UUID
	Topic event.Topic
}

// Subscription is owned by the connection that opened it. The registry and
// the topic dispatcher only keep a reference for delivery.
type Subscription struct {
	ID        uuid.UUID
	Topic     event.Topic
	SessionID string
	Filter    event.Filter
	Sink      contract.EventSink

	closed atomic.Bool
	once   sync.Once
	done   chan struct{}
	err    error
}

func New(topic event.Topic, sessionID string, filter event.Filter, sink contract.EventSink) *Subscription {
	return &Subscription{
		ID:        uuid.New(),
		Topic:     topic,
		SessionID: sessionID,
		Filter:    filter,
		Sink:      sink,
		done:      make(chan struct{}),
	}
}

func (s *Subscription) Handle() Handle {
	return Handle{ID: s.ID, Topic: s.Topic}
}

// Close ends the subscription. Only the first call records its cause;
// a nil cause means a regular cancellation. Reports whether this call closed it.
func (s *Subscription) Close(cause error) bool {
	closed := false
	s.once.Do(func() {
		s.err = cause
		s.closed.Store(true)
		close(s.done)
		closed = true
	})
	return closed
}

func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Done is closed once the subscription ends, whatever the reason.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the cause given to Close. Only meaningful after Done.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
