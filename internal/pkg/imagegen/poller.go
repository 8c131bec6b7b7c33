package imagegen

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	DefaultPollInterval    = 3 * time.Second
	DefaultPollMaxAttempts = 60
)

// Poller drives a task through PENDING → RUNNING → {SUCCEEDED|FAILED} by
// re-querying the provider on a fixed interval. Nothing is persisted across
// restarts; a crash loses the wait but not the provider-side job.
type Poller struct {
	provider    Provider
	interval    time.Duration
	maxAttempts int
}

// NewPoller builds a poller. Non-positive interval or attempts fall back to
// the defaults.
func NewPoller(provider Provider, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	return &Poller{provider: provider, interval: interval, maxAttempts: maxAttempts}
}

// Wait polls until the task reaches a terminal status, the attempt budget is
// exhausted (ErrPollTimeout), or ctx is cancelled. A FAILED task is returned
// with a nil error; the provider's message travels in Task.Error. Transient
// status-check failures consume an attempt but do not abort the loop.
func (p *Poller) Wait(ctx context.Context, taskID string) (*Task, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last *Task
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		task, err := p.provider.CheckStatus(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			log.Warnf("[Poller] Status check %d/%d for task %s failed: %v", attempt, p.maxAttempts, taskID, err)
		} else {
			last = task
			if task.Status.Terminal() {
				return task, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}

	return last, fmt.Errorf("task %s still not terminal after %d attempts: %w", taskID, p.maxAttempts, ErrPollTimeout)
}
