package workers

import (
	"context"
	"convo-hub/contract"
	"convo-hub/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultRestartInterval = 200 * time.Millisecond

// Supervisor owns the lifetime of background workers (topic dispatchers).
// Each worker runs in its own goroutine; a panic or an error restarts it
// after restartInterval, a nil return ends it for good, and cancelling the
// parent context stops everything. Run returns once all workers are gone.
type Supervisor struct {
	mu              sync.Mutex
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = defaultRestartInterval
	}
	return &Supervisor{log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts every added worker under a context derived from ctx and blocks
// until they have all returned.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	workers := append([]contract.Worker(nil), s.workers...)
	s.mu.Unlock()
	defer cancel()

	for _, worker := range workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// Start runs a worker under supervision.
// A failure in one worker never stops the supervisor itself.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// Stop cancels the supervised context. Run returns once workers exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
