package imagegen

import "context"

// TaskStatus is the normalized lifecycle of an externally-hosted generation
// job. Providers report their own vocabularies; adapters map them onto these
// four states before anything crosses back into application logic.
type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusRunning   TaskStatus = "RUNNING"
	StatusSucceeded TaskStatus = "SUCCEEDED"
	StatusFailed    TaskStatus = "FAILED"
)

// Terminal reports whether the status ends the polling loop.
func (s TaskStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Supported provider models.
const (
	ModelFlux    = "flux"
	ModelSDTurbo = "sd-turbo"
)

// Task is the transient view of a provider-side generation job. The
// application holds no authoritative copy; every poll re-queries the provider.
type Task struct {
	TaskID    string     `json:"task_id"`
	Model     string     `json:"model"`
	Status    TaskStatus `json:"status"`
	ResultURL string     `json:"result_url,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// SubmitRequest carries the normalized generation parameters. Fields a
// provider does not support are dropped by its adapter; Count is clamped to
// the provider's batch limit.
type SubmitRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Style          string `json:"style,omitempty"`
	Size           string `json:"size,omitempty"`
	Count          int    `json:"count,omitempty"`
}

// Provider is the uniform interface over heterogeneous image-generation
// backends. Adapters are stateless per call and never retry internally;
// bounded retries belong to the caller.
type Provider interface {
	Name() string
	MaxBatchSize() int
	Submit(ctx context.Context, req SubmitRequest) (*Task, error)
	CheckStatus(ctx context.Context, taskID string) (*Task, error)
}
