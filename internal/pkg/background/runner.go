package background

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Runner executes fire-and-forget side effects after the primary response.
// Failures are logged and never propagated; Wait lets shutdown and tests run
// pending work to completion.
type Runner struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewRunner creates a runner whose tasks are bounded by timeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{timeout: timeout}
}

// Go runs fn on its own goroutine with a bounded context. A panicking task is
// recovered and logged like any other failure.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("[Background] Task %s panicked: %v", name, rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Errorf("[Background] Task %s failed: %v", name, err)
		}
	}()
}

// Wait blocks until all submitted tasks have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

var defaultRunner = NewRunner(30 * time.Second)

// Go submits a task to the process-wide runner.
func Go(name string, fn func(ctx context.Context) error) {
	defaultRunner.Go(name, fn)
}

// Wait drains the process-wide runner.
func Wait() {
	defaultRunner.Wait()
}
