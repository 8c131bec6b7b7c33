package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/plateful-app/plateful/internal/pkg/env"
)

// sdTurboProvider talks to the SD-Turbo render endpoint. SD-Turbo takes only
// prompt and negative prompt, renders a single image per task, and reports
// status through a query-parameter endpoint.
type sdTurboProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSDTurboProvider builds the SD-Turbo adapter from environment
// configuration.
func NewSDTurboProvider(httpClient *http.Client) (Provider, error) {
	apiKey := env.GetEnv("SDTURBO_API_KEY", "")
	if apiKey == "" {
		return nil, &ConfigurationError{Provider: ModelSDTurbo, Missing: "SDTURBO_API_KEY"}
	}
	return &sdTurboProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(env.GetEnv("SDTURBO_API_URL", "https://render.sdturbo.io"), "/"),
		httpClient: httpClient,
	}, nil
}

func (p *sdTurboProvider) Name() string {
	return ModelSDTurbo
}

func (p *sdTurboProvider) MaxBatchSize() int {
	return 1
}

type sdTurboSubmitRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

type sdTurboStatusResponse struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	ImageURL      string `json:"image_url,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Submit enqueues a render. Style, size and batch count are not supported by
// this provider and are dropped after normalization.
func (p *sdTurboProvider) Submit(ctx context.Context, req SubmitRequest) (*Task, error) {
	body, err := json.Marshal(sdTurboSubmitRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
	})
	if err != nil {
		return nil, &SubmissionError{Provider: ModelSDTurbo, Err: err}
	}

	resp, err := p.do(ctx, http.MethodPost, p.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Provider: ModelSDTurbo, Err: err}
	}
	return p.toTask(resp), nil
}

// CheckStatus re-queries the provider for the current render state.
func (p *sdTurboProvider) CheckStatus(ctx context.Context, taskID string) (*Task, error) {
	endpoint := fmt.Sprintf("%s/status?id=%s", p.baseURL, url.QueryEscape(taskID))
	resp, err := p.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	task := p.toTask(resp)
	task.TaskID = taskID
	return task, nil
}

func (p *sdTurboProvider) do(ctx context.Context, method, endpoint string, body io.Reader) (*sdTurboStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sd-turbo request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("sd-turbo response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("sd-turbo returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out sdTurboStatusResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("sd-turbo response decode failed: %w", err)
	}
	return &out, nil
}

// toTask maps the SD-Turbo state vocabulary onto the normalized lifecycle.
func (p *sdTurboProvider) toTask(resp *sdTurboStatusResponse) *Task {
	task := &Task{
		TaskID:    resp.ID,
		Model:     ModelSDTurbo,
		ResultURL: resp.ImageURL,
		Error:     resp.FailureReason,
	}
	switch strings.ToLower(resp.State) {
	case "waiting", "queued":
		task.Status = StatusPending
	case "rendering", "processing":
		task.Status = StatusRunning
	case "done", "completed":
		task.Status = StatusSucceeded
	case "error", "failed":
		task.Status = StatusFailed
	default:
		task.Status = StatusRunning
	}
	return task
}
