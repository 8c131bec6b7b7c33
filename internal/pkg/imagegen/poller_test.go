package imagegen

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedProvider replays a fixed sequence of status-check outcomes.
type scriptedProvider struct {
	checks []func() (*Task, error)
	calls  int
}

func (p *scriptedProvider) Name() string      { return "scripted" }
func (p *scriptedProvider) MaxBatchSize() int { return 1 }

func (p *scriptedProvider) Submit(ctx context.Context, req SubmitRequest) (*Task, error) {
	return &Task{TaskID: "scripted-1", Model: "scripted", Status: StatusPending}, nil
}

func (p *scriptedProvider) CheckStatus(ctx context.Context, taskID string) (*Task, error) {
	idx := p.calls
	if idx >= len(p.checks) {
		idx = len(p.checks) - 1
	}
	p.calls++
	return p.checks[idx]()
}

func pending() func() (*Task, error) {
	return func() (*Task, error) { return &Task{TaskID: "t", Status: StatusPending}, nil }
}

func running() func() (*Task, error) {
	return func() (*Task, error) { return &Task{TaskID: "t", Status: StatusRunning}, nil }
}

func succeeded(url string) func() (*Task, error) {
	return func() (*Task, error) {
		return &Task{TaskID: "t", Status: StatusSucceeded, ResultURL: url}, nil
	}
}

func failed(msg string) func() (*Task, error) {
	return func() (*Task, error) {
		return &Task{TaskID: "t", Status: StatusFailed, Error: msg}, nil
	}
}

func checkErr(err error) func() (*Task, error) {
	return func() (*Task, error) { return nil, err }
}

func TestPoller_Wait_SucceedsAfterPendingAndRunning(t *testing.T) {
	provider := &scriptedProvider{checks: []func() (*Task, error){
		pending(), pending(), running(), succeeded("https://cdn.example/result.png"),
	}}
	poller := NewPoller(provider, time.Millisecond, 10)

	task, err := poller.Wait(context.Background(), "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s", task.Status)
	}
	if task.ResultURL != "https://cdn.example/result.png" {
		t.Fatalf("result URL not carried through: %q", task.ResultURL)
	}
	if provider.calls != 4 {
		t.Fatalf("expected 4 status checks, got %d", provider.calls)
	}
}

func TestPoller_Wait_FailedTaskIsNotAnError(t *testing.T) {
	provider := &scriptedProvider{checks: []func() (*Task, error){
		running(), failed("nsfw content detected"),
	}}
	poller := NewPoller(provider, time.Millisecond, 10)

	task, err := poller.Wait(context.Background(), "t")
	if err != nil {
		t.Fatalf("provider-side failure must not be a poll error, got: %v", err)
	}
	if task.Status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", task.Status)
	}
	if task.Error != "nsfw content detected" {
		t.Fatalf("provider message lost: %q", task.Error)
	}
}

func TestPoller_Wait_TimeoutAfterBudget(t *testing.T) {
	provider := &scriptedProvider{checks: []func() (*Task, error){running()}}
	poller := NewPoller(provider, time.Millisecond, 5)

	task, err := poller.Wait(context.Background(), "t")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if task == nil || task.Status != StatusRunning {
		t.Fatalf("last-known task should be returned alongside the timeout")
	}
	if provider.calls != 5 {
		t.Fatalf("expected exactly 5 attempts, got %d", provider.calls)
	}
}

func TestPoller_Wait_TransientErrorsConsumeAttempts(t *testing.T) {
	provider := &scriptedProvider{checks: []func() (*Task, error){
		checkErr(errors.New("connection reset")),
		checkErr(errors.New("connection reset")),
		succeeded("https://cdn.example/r.png"),
	}}
	poller := NewPoller(provider, time.Millisecond, 10)

	task, err := poller.Wait(context.Background(), "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != StatusSucceeded {
		t.Fatalf("expected recovery after transient errors, got %s", task.Status)
	}
}

func TestPoller_Wait_ContextCancellation(t *testing.T) {
	provider := &scriptedProvider{checks: []func() (*Task, error){running()}}
	poller := NewPoller(provider, 50*time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := poller.Wait(ctx, "t")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPoller_DefaultsOnInvalidConfig(t *testing.T) {
	poller := NewPoller(&scriptedProvider{}, 0, -1)
	if poller.interval != DefaultPollInterval {
		t.Fatalf("expected default interval, got %v", poller.interval)
	}
	if poller.maxAttempts != DefaultPollMaxAttempts {
		t.Fatalf("expected default attempts, got %d", poller.maxAttempts)
	}
}
