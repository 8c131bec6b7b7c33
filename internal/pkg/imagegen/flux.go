package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/plateful-app/plateful/internal/pkg/env"
)

const fluxMaxBatchSize = 4

// fluxProvider talks to the Flux text-to-image HTTP API. Flux supports style
// and size hints and batches of up to four images per task.
type fluxProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewFluxProvider builds the Flux adapter from environment configuration.
// A missing API key is a ConfigurationError so callers can fail fast before
// touching the ledger.
func NewFluxProvider(httpClient *http.Client) (Provider, error) {
	apiKey := env.GetEnv("FLUX_API_KEY", "")
	if apiKey == "" {
		return nil, &ConfigurationError{Provider: ModelFlux, Missing: "FLUX_API_KEY"}
	}
	return &fluxProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(env.GetEnv("FLUX_API_URL", "https://api.flux.dev"), "/"),
		httpClient: httpClient,
	}, nil
}

func (p *fluxProvider) Name() string {
	return ModelFlux
}

func (p *fluxProvider) MaxBatchSize() int {
	return fluxMaxBatchSize
}

type fluxSubmitRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Style          string `json:"style,omitempty"`
	Size           string `json:"size,omitempty"`
	NumImages      int    `json:"num_images"`
}

type fluxTaskResponse struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Submit enqueues a generation task. Count is clamped to the provider limit.
func (p *fluxProvider) Submit(ctx context.Context, req SubmitRequest) (*Task, error) {
	count := req.Count
	if count < 1 {
		count = 1
	}
	if count > fluxMaxBatchSize {
		count = fluxMaxBatchSize
	}

	body, err := json.Marshal(fluxSubmitRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Style:          req.Style,
		Size:           req.Size,
		NumImages:      count,
	})
	if err != nil {
		return nil, &SubmissionError{Provider: ModelFlux, Err: err}
	}

	resp, err := p.do(ctx, http.MethodPost, p.baseURL+"/v1/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Provider: ModelFlux, Err: err}
	}
	return p.toTask(resp), nil
}

// CheckStatus re-queries the provider for the current task state.
func (p *fluxProvider) CheckStatus(ctx context.Context, taskID string) (*Task, error) {
	resp, err := p.do(ctx, http.MethodGet, fmt.Sprintf("%s/v1/tasks/%s", p.baseURL, taskID), nil)
	if err != nil {
		return nil, err
	}
	task := p.toTask(resp)
	task.TaskID = taskID
	return task, nil
}

func (p *fluxProvider) do(ctx context.Context, method, url string, body io.Reader) (*fluxTaskResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flux request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("flux response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("flux returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out fluxTaskResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("flux response decode failed: %w", err)
	}
	return &out, nil
}

// toTask maps the Flux status vocabulary onto the normalized lifecycle.
// Anything unrecognized counts as still in flight.
func (p *fluxProvider) toTask(resp *fluxTaskResponse) *Task {
	task := &Task{
		TaskID:    resp.TaskID,
		Model:     ModelFlux,
		ResultURL: resp.ResultURL,
		Error:     resp.Error,
	}
	switch strings.ToLower(resp.Status) {
	case "queued", "pending":
		task.Status = StatusPending
	case "processing", "running":
		task.Status = StatusRunning
	case "succeeded", "completed":
		task.Status = StatusSucceeded
	case "failed", "error":
		task.Status = StatusFailed
	default:
		task.Status = StatusRunning
	}
	return task
}
