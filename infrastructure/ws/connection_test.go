package ws

import (
	"context"
	"convo-hub/contract"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/services"
	"convo-hub/subscription"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// stubSubscriptions hands out bare subscriptions and keeps their sinks so a
// test can deliver into them directly.
type stubSubscriptions struct {
	mu    sync.Mutex
	subs  map[subscription.Handle]*subscription.Subscription
	sinks []contract.EventSink
}

func newStubSubscriptions() *stubSubscriptions {
	return &stubSubscriptions{subs: make(map[subscription.Handle]*subscription.Subscription)}
}

func (s *stubSubscriptions) Subscribe(_ context.Context, _ *domain.Session, connectionID string,
	req services.SubscribeRequest, sink contract.EventSink) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := subscription.New(req.Topic, connectionID, nil, sink)
	s.subs[sub.Handle()] = sub
	s.sinks = append(s.sinks, sink)
	return sub, nil
}

func (s *stubSubscriptions) Unsubscribe(handle subscription.Handle) {
	s.mu.Lock()
	sub := s.subs[handle]
	delete(s.subs, handle)
	s.mu.Unlock()
	if sub != nil {
		sub.Close(nil)
	}
}

func (s *stubSubscriptions) Disconnect(string) int { return 0 }

func (s *stubSubscriptions) sink(i int) contract.EventSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinks[i]
}

func messageCreated(conversationID string) event.MessageCreated {
	return event.NewMessageCreated(domain.Message{ID: "m1", ConversationID: conversationID, Content: "hi"})
}

func nextControl(t *testing.T, c *connection) ServerFrame {
	t.Helper()
	select {
	case frame := <-c.control:
		return frame
	case <-time.After(time.Second):
		t.Fatal("no control frame")
		return ServerFrame{}
	}
}

func TestConnection_UnsubscribeDiscardsBufferedDeliveries(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	subs := newStubSubscriptions()
	c := newConnection("conn-1", logs.GetLoggerFromLevel(slog.LevelDebug), nil,
		&domain.Session{UserID: "A"}, subs, DefaultConfig(8))

	// Given a delivery buffered for s1 but not yet written
	c.subscribe(ctx, ClientFrame{Type: FrameSubscribe, ID: "s1", Topic: string(event.MessageCreatedTopic), ConversationID: "c1"})
	req.NoError(subs.sink(0).Consume(ctx, messageCreated("c1")))

	// When the client unsubscribes
	c.unsubscribe("s1")

	// Then the buffered delivery no longer routes anywhere
	stale := <-c.sink.Deliveries
	_, ok := c.resolve(stale.SubscriptionID)
	req.False(ok)

	// And the only frame for s1 is complete
	frame := nextControl(t, c)
	req.Equal(FrameComplete, frame.Type)
	req.Equal("s1", frame.ID)
}

func TestConnection_ResubscribeSameIDRightAway(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	subs := newStubSubscriptions()
	c := newConnection("conn-1", logs.GetLoggerFromLevel(slog.LevelDebug), nil,
		&domain.Session{UserID: "A"}, subs, DefaultConfig(8))

	frame := ClientFrame{Type: FrameSubscribe, ID: "s1", Topic: string(event.MessageCreatedTopic), ConversationID: "c1"}
	c.subscribe(ctx, frame)
	req.NoError(subs.sink(0).Consume(ctx, messageCreated("c1")))
	c.unsubscribe("s1")

	// When s1 is reused before the old subscription was reported complete
	c.subscribe(ctx, frame)
	req.NoError(subs.sink(1).Consume(ctx, messageCreated("c1")))

	// Then the old delivery is dropped and the new one routes to s1
	stale := <-c.sink.Deliveries
	_, ok := c.resolve(stale.SubscriptionID)
	req.False(ok)

	fresh := <-c.sink.Deliveries
	id, ok := c.resolve(fresh.SubscriptionID)
	req.True(ok)
	req.Equal("s1", id)

	// And no "already in use" error was sent
	req.Equal(FrameComplete, nextControl(t, c).Type)
}
