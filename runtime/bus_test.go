package runtime_test

import (
	"context"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/sink"
	"convo-hub/subscription"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestEventBus_DeliversExactlyOncePerSubscriber(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	sinks := []*recordingSink{newRecordingSink(), newRecordingSink()}
	for i, s := range sinks {
		_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, fmt.Sprint("conn-", i), admitAll, s))
		req.NoError(err)
	}

	req.NoError(bus.Publish(ctx, created("c1")))

	for _, s := range sinks {
		evt := s.next(time.Second)
		req.NotNil(evt)
		req.Equal("c1", evt.(event.ConversationCreated).Conversation.ID)
		req.Nil(s.next(quiet))
	}
}

func TestEventBus_SubscriberRegisteredAfterPublishMissesIt(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	early := newRecordingSink()
	_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-1", admitAll, early))
	req.NoError(err)

	// Given an event published before the second subscription exists
	req.NoError(bus.Publish(ctx, created("c1")))
	late := newRecordingSink()
	_, err = registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-2", admitAll, late))
	req.NoError(err)

	// Then only the first subscriber sees it, there is no replay
	req.NotNil(early.next(time.Second))
	req.Nil(late.next(quiet))

	// And both see what comes next
	req.NoError(bus.Publish(ctx, created("c2")))
	req.Equal("c2", early.next(time.Second).(event.ConversationCreated).Conversation.ID)
	req.Equal("c2", late.next(time.Second).(event.ConversationCreated).Conversation.ID)
}

func TestEventBus_PublishWithoutSubscriberIsDropped(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	req.NoError(bus.Publish(ctx, created("c1")))

	s := newRecordingSink()
	_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-1", admitAll, s))
	req.NoError(err)
	req.Nil(s.next(quiet))
}

func TestEventBus_PreservesPublishOrderPerTopic(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()
	s := newRecordingSink()
	_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-1", admitAll, s))
	req.NoError(err)

	for i := range 50 {
		req.NoError(bus.Publish(ctx, created(fmt.Sprint("c", i))))
	}

	for i := range 50 {
		evt := s.next(time.Second)
		req.NotNil(evt)
		req.Equal(fmt.Sprint("c", i), evt.(event.ConversationCreated).Conversation.ID)
	}
}

func TestEventBus_FilterDecidesDelivery(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	alice := newRecordingSink()
	carol := newRecordingSink()
	_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-1",
		event.ConversationCreatedFilter(&domain.Session{UserID: "alice"}), alice))
	req.NoError(err)
	_, err = registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-2",
		event.ConversationCreatedFilter(&domain.Session{UserID: "carol"}), carol))
	req.NoError(err)

	req.NoError(bus.Publish(ctx, created("c1")))

	req.NotNil(alice.next(time.Second))
	req.Nil(carol.next(quiet))
}

func TestEventBus_AuthErrorClosesSubscription(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	s := newRecordingSink()
	sub := subscription.New(event.ConversationCreatedTopic, "conn-1", event.ConversationCreatedFilter(nil), s)
	_, err := registry.Register(ctx, sub)
	req.NoError(err)

	req.NoError(bus.Publish(ctx, created("c1")))

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		req.Fail("subscription should have been closed")
	}
	req.ErrorIs(sub.Err(), errors.ErrMissingSession)
	req.Nil(s.next(quiet))
}

func TestEventBus_IsolatesPanickingFilterAndSink(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-1",
		func(event.DomainEvent) event.Admission { panic("filter exploded") }, newRecordingSink()))
	req.NoError(err)
	_, err = registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-2", admitAll, panickingSink{}))
	req.NoError(err)
	healthy := newRecordingSink()
	_, err = registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-3", admitAll, healthy))
	req.NoError(err)

	req.NoError(bus.Publish(ctx, created("c1")))
	req.NoError(bus.Publish(ctx, created("c2")))

	// Then the healthy subscriber gets both events and the dispatcher survived
	req.Equal("c1", healthy.next(time.Second).(event.ConversationCreated).Conversation.ID)
	req.Equal("c2", healthy.next(time.Second).(event.ConversationCreated).Conversation.ID)
}

func TestEventBus_SlowSinkIsAbandoned(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-1", admitAll, blockingSink{}))
	req.NoError(err)
	fast := newRecordingSink()
	_, err = registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-2", admitAll, fast))
	req.NoError(err)

	req.NoError(bus.Publish(ctx, created("c1")))

	req.NotNil(fast.next(sinkTimeout + time.Second))
}

func TestEventBus_UnregisterDuringPublish(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()

	// Given a subscriber whose filter cancels another subscription mid fan-out
	var victim subscription.Handle
	victimSink := newRecordingSink()
	var calls atomic.Int32
	cancelling := func(event.DomainEvent) event.Admission {
		if calls.Add(1) == 1 {
			registry.Unregister(victim)
		}
		return event.Admit
	}
	first := newRecordingSink()
	_, err := registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-1", cancelling, first))
	req.NoError(err)
	victim, err = registry.Register(ctx, subscription.New(event.ConversationCreatedTopic, "conn-2", admitAll, victimSink))
	req.NoError(err)

	// When events are published
	req.NoError(bus.Publish(ctx, created("c1")))
	req.NoError(bus.Publish(ctx, created("c2")))

	// Then the dispatcher keeps going and the victim gets at most the first one
	req.NotNil(first.next(time.Second))
	req.NotNil(first.next(time.Second))
	if evt := victimSink.next(quiet); evt != nil {
		req.Equal("c1", evt.(event.ConversationCreated).Conversation.ID)
	}
	req.Nil(victimSink.next(quiet))
}

func TestEventBus_PublishOrderedAcrossTopics(t *testing.T) {
	req := require.New(t)
	registry, bus, _ := startBus(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given one connection listening to messages and conversation updates
	connection := sink.NewConnectionSink(log, 256)
	_, err := registry.Register(ctx, subscription.New(event.MessageCreatedTopic, "conn-1",
		event.MessageCreatedFilter("c1"), connection.For("messages")))
	req.NoError(err)
	_, err = registry.Register(ctx, subscription.New(event.ConversationUpdatedTopic, "conn-1",
		event.ConversationUpdatedFilter(&domain.Session{UserID: "alice"}), connection.For("conversations")))
	req.NoError(err)

	conversation := created("c1").Conversation
	for i := range 20 {
		req.NoError(bus.PublishOrdered(ctx,
			event.NewMessageCreated(domain.Message{ID: fmt.Sprint("m", i), ConversationID: "c1"}),
			event.NewConversationUpdated(conversation, nil, nil)))
	}

	// Then every message is observed before the update that follows it
	for i := range 20 {
		first := <-connection.Deliveries
		req.Equal("messages", first.SubscriptionID)
		req.Equal(fmt.Sprint("m", i), first.Event.(event.MessageCreated).Message.ID)
		second := <-connection.Deliveries
		req.Equal("conversations", second.SubscriptionID)
	}
}

func TestEventBus_StopClosesSubscriptionsAndRejectsPublish(t *testing.T) {
	req := require.New(t)
	registry, bus, stop := startBus(t)
	ctx := context.Background()

	sub := subscription.New(event.ConversationCreatedTopic, "conn-1", admitAll, newRecordingSink())
	_, err := registry.Register(ctx, sub)
	req.NoError(err)

	stop()

	req.True(sub.Closed())
	req.ErrorIs(sub.Err(), errors.ErrBusStopped)
	req.ErrorIs(bus.Publish(ctx, created("c1")), errors.ErrBusStopped)
}
