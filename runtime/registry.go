package runtime

import (
	"context"
	"convo-hub/contract"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/runtime/workers"
	"convo-hub/subscription"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Set map[uuid.UUID]struct{}

// Registry tracks every live subscription and routes it to the dispatcher
// owning its topic.
//
// The per-topic listener sets live inside the dispatchers. The registry only
// keeps the handle directory and the session index used to tear down all
// subscriptions of a connection at once.
type Registry struct {
	mu            sync.RWMutex
	log           *slog.Logger
	dispatchers   map[event.Topic]*workers.TopicDispatcher
	subscriptions map[uuid.UUID]*subscription.Subscription // handle -> subscription
	sessions      map[string]Set                           // session -> handles
}

func NewRegistry(log *slog.Logger, bufferSize int, sinkTimeout, publishTimeout time.Duration) *Registry {
	dispatchers := lo.SliceToMap(event.Topics, func(t event.Topic) (event.Topic, *workers.TopicDispatcher) {
		return t, workers.NewTopicDispatcher(log, t, bufferSize, sinkTimeout, publishTimeout)
	})
	return &Registry{
		log:           log,
		dispatchers:   dispatchers,
		subscriptions: make(map[uuid.UUID]*subscription.Subscription),
		sessions:      make(map[string]Set),
	}
}

// Workers returns one dispatcher per topic, to be run by the supervisor.
func (r *Registry) Workers() []contract.Worker {
	return lo.Map(event.Topics, func(t event.Topic, _ int) contract.Worker {
		return r.dispatchers[t]
	})
}

func (r *Registry) dispatcher(topic event.Topic) (*workers.TopicDispatcher, error) {
	d, ok := r.dispatchers[topic]
	if !ok {
		return nil, errors.ErrUnknownTopic
	}
	return d, nil
}

// Register adds sub to its topic's listener set and returns its handle.
// Once Register returns, every later publish on the topic reaches sub.
func (r *Registry) Register(ctx context.Context, sub *subscription.Subscription) (subscription.Handle, error) {
	d, err := r.dispatcher(sub.Topic)
	if err != nil {
		return subscription.Handle{}, err
	}

	// Indexed first so that a concurrent UnregisterAll of the same session
	// also catches it.
	r.mu.Lock()
	r.subscriptions[sub.ID] = sub
	if _, ok := r.sessions[sub.SessionID]; !ok {
		r.sessions[sub.SessionID] = make(Set)
	}
	r.sessions[sub.SessionID][sub.ID] = struct{}{}
	r.mu.Unlock()

	if err = d.Register(ctx, sub); err != nil {
		r.forget(sub.ID)
		sub.Close(err)
		return subscription.Handle{}, err
	}
	return sub.Handle(), nil
}

// Unregister cancels the subscription behind handle. Calling it twice, or on
// a subscription already closed by the bus, is a no-op.
func (r *Registry) Unregister(handle subscription.Handle) {
	sub := r.forget(handle.ID)
	if sub == nil {
		return
	}
	r.release(sub)
}

// UnregisterAll releases every subscription owned by sessionID and reports
// how many there were. Called once per connection teardown.
func (r *Registry) UnregisterAll(sessionID string) int {
	r.mu.Lock()
	ids := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	subs := make([]*subscription.Subscription, 0, len(ids))
	for id := range ids {
		if sub, ok := r.subscriptions[id]; ok {
			subs = append(subs, sub)
			delete(r.subscriptions, id)
		}
	}
	r.mu.Unlock()

	for _, sub := range subs {
		r.release(sub)
	}
	r.log.Debug("Session subscriptions released", "session_id", sessionID, "count", len(subs))
	return len(subs)
}

// Stop marks every dispatcher stopped and closes the subscriptions still
// tracked with ErrBusStopped. Called once the dispatchers are no longer
// supervised, whether or not they ever ran.
func (r *Registry) Stop() {
	for _, d := range r.dispatchers {
		d.Stop()
	}
	r.mu.RLock()
	subs := lo.Values(r.subscriptions)
	r.mu.RUnlock()
	for _, sub := range subs {
		sub.Close(errors.ErrBusStopped)
	}
}

// Count returns the number of subscriptions currently tracked.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscriptions)
}

// SessionCount returns the number of subscriptions owned by sessionID.
func (r *Registry) SessionCount(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[sessionID])
}

// release closes sub first, so in-flight deliveries are discarded, then asks
// the dispatcher to drop it.
func (r *Registry) release(sub *subscription.Subscription) {
	sub.Close(nil)
	if d, err := r.dispatcher(sub.Topic); err == nil {
		d.Unregister(sub.ID)
	}
}

func (r *Registry) forget(id uuid.UUID) *subscription.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscriptions[id]
	if !ok {
		return nil
	}
	delete(r.subscriptions, id)
	if members, ok := r.sessions[sub.SessionID]; ok {
		delete(members, id)
		// No subscription left for the session, drop the entry entirely
		if len(members) == 0 {
			delete(r.sessions, sub.SessionID)
		}
	}
	return sub
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Subscriptions int
	Sessions      int
	PerTopic      map[event.Topic]int
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	perTopic := lo.CountValuesBy(lo.Values(r.subscriptions), func(s *subscription.Subscription) event.Topic {
		return s.Topic
	})
	return Stats{
		Subscriptions: len(r.subscriptions),
		Sessions:      len(r.sessions),
		PerTopic:      perTopic,
	}
}
