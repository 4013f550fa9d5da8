// Package runtime handles event propagation to live subscribers.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"convo-hub/contract"
	"log/slog"
	"sync"
)

// Orchestrator puts the topic dispatchers of a Registry under supervision.
// The bus it exposes is usable as soon as Start has been called.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   *Registry
	bus        *EventBus
	started    bool
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry *Registry, bus *EventBus) *Orchestrator {
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		bus:        bus,
	}
}

func (o *Orchestrator) Registry() *Registry { return o.registry }
func (o *Orchestrator) Bus() *EventBus      { return o.bus }

// Start registers one dispatcher per topic and runs the supervisor.
// It blocks until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if !o.started {
		o.supervisor.Add(o.registry.Workers()...)
		o.started = true
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised dispatchers")
	o.supervisor.Run(ctx)
	// A dispatcher cancelled before its first Run must still refuse work.
	o.registry.Stop()
	o.log.Info("Orchestrator stopped")
}

// Stop initiates a graceful shutdown: dispatchers close their subscriptions
// and Start returns.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
