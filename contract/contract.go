//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"convo-hub/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery end of a subscription.
// Consume must honour ctx: the dispatcher gives up once it is done.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IEventBus is what mutation handlers publish through.
type IEventBus interface {
	Publish(ctx context.Context, evt event.DomainEvent) error
	// PublishOrdered publishes evts one after the other, each one fanned out
	// before the next is enqueued, even across topics.
	PublishOrdered(ctx context.Context, evts ...event.DomainEvent) error
}
