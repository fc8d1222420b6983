package workflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/rsanzante/facturae-pipeline/pkg/lifecycle"
)

// Dispatcher runs workflow instances in the background with a bounded
// number of concurrent executions. Triggers hand off an instance id and
// return; failures are recorded on the instance, not surfaced to the
// trigger.
type Dispatcher struct {
	orchestrator *Orchestrator
	sem          *semaphore.Weighted
	logger       *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher allowing up to concurrency workflow
// executions at once.
func NewDispatcher(orchestrator *Orchestrator, concurrency int64, logger *slog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		orchestrator: orchestrator,
		sem:          semaphore.NewWeighted(concurrency),
		logger:       logger.With("system", "dispatcher"),
	}
}

// Start binds the dispatcher to the process lifecycle. Shutdown stops
// accepting dispatches and waits for in-flight executions; interrupted
// instances stay Running and resume on the next trigger.
func (d *Dispatcher) Start(lc *lifecycle.Coordinator) {
	d.mu.Lock()
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.mu.Unlock()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.mu.Lock()
		d.cancel()
		d.mu.Unlock()
		d.wg.Wait()
		d.logger.Info("dispatcher drained")
	})
}

// Dispatch queues the instance for execution, blocking only while the
// concurrency limit is saturated.
func (d *Dispatcher) Dispatch(id uuid.UUID) error {
	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)

		if err := d.orchestrator.Run(ctx, id); err != nil {
			d.logger.Error("workflow run failed", "id", id, "error", err)
		}
	}()
	return nil
}
