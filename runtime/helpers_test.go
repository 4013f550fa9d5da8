package runtime_test

import (
	"context"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/runtime"
	"convo-hub/runtime/workers"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
)

const (
	bufferSize     = 64
	sinkTimeout    = 100 * time.Millisecond
	publishTimeout = 500 * time.Millisecond
	orderTimeout   = time.Second
	quiet          = 50 * time.Millisecond
)

// startBus runs an orchestrator until the test ends. The returned stop
// cancels it early and waits for every dispatcher to return.
func startBus(t *testing.T) (*runtime.Registry, *runtime.EventBus, func()) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry(log, bufferSize, sinkTimeout, publishTimeout)
	bus := runtime.NewEventBus(log, registry, orderTimeout)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), registry, bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()
	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		<-done
	}
	t.Cleanup(stop)
	return registry, bus, stop
}

type recordingSink struct {
	events chan event.DomainEvent
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(chan event.DomainEvent, 256)}
}

func (s *recordingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// next waits for one event, or returns nil after d.
func (s *recordingSink) next(d time.Duration) event.DomainEvent {
	select {
	case e := <-s.events:
		return e
	case <-time.After(d):
		return nil
	}
}

type panickingSink struct{}

func (panickingSink) Consume(context.Context, event.DomainEvent) error {
	panic("sink exploded")
}

// blockingSink never returns before its context is done.
type blockingSink struct{}

func (blockingSink) Consume(ctx context.Context, _ event.DomainEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func admitAll(event.DomainEvent) event.Admission { return event.Admit }

func created(id string) event.ConversationCreated {
	return event.NewConversationCreated(domain.Conversation{
		ID: id,
		Participants: []domain.Participant{
			{ID: id + ":alice", ConversationID: id, User: domain.User{ID: "alice"}},
			{ID: id + ":bob", ConversationID: id, User: domain.User{ID: "bob"}},
		},
	})
}
