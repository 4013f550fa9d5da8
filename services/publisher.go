package services

import (
	"context"
	"convo-hub/contract"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"fmt"
	"log/slog"
	"sync"
)

// Publisher sends the events of committed mutations to the bus.
//
// A failed publish never undoes the store change and is not retried. It is
// logged and kept as a pending fault for the user who triggered it; their
// next operation reports it as an internal error.
type Publisher struct {
	mu      sync.Mutex
	log     *slog.Logger
	bus     contract.IEventBus
	pending map[string]error // user -> first unreported failure
}

func NewPublisher(log *slog.Logger, bus contract.IEventBus) *Publisher {
	return &Publisher{log: log, bus: bus, pending: make(map[string]error)}
}

// Publish sends evts in order on behalf of userID. The mutation already
// happened, so a cancelled request does not cancel the fan-out.
func (p *Publisher) Publish(ctx context.Context, userID string, evts ...event.DomainEvent) {
	if len(evts) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if len(evts) == 1 {
		err = p.bus.Publish(ctx, evts[0])
	} else {
		err = p.bus.PublishOrdered(ctx, evts...)
	}
	if err == nil {
		return
	}
	p.log.Error("Event publication failed after commit",
		"user_id", userID, "topic", string(evts[0].Topic()), "error", err)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[userID]; !ok {
		p.pending[userID] = err
	}
}

// TakeFault returns, and forgets, the pending failure of userID.
func (p *Publisher) TakeFault(userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err, ok := p.pending[userID]
	if !ok {
		return nil
	}
	delete(p.pending, userID)
	return fmt.Errorf("%w: %v", errors.ErrPendingFanoutFailure, err)
}
