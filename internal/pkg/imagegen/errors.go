package imagegen

import (
	"errors"
	"fmt"
)

// ErrPollTimeout marks a polling loop that exhausted its attempt budget
// before the task reached a terminal state. Distinct from a provider-side
// FAILED so logs can tell "gave up waiting" from "the job broke".
var ErrPollTimeout = errors.New("image generation polling timed out")

// ErrUnknownModel is returned when no adapter exists for a requested model.
var ErrUnknownModel = errors.New("unknown image model")

// ConfigurationError means the provider cannot be used at all (missing
// credentials or endpoint). It must surface before any ledger mutation.
type ConfigurationError struct {
	Provider string
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s is not configured: %s missing", e.Provider, e.Missing)
}

// SubmissionError means the provider accepted the connection but rejected the
// job, or the call itself failed.
type SubmissionError struct {
	Provider string
	Message  string
	Err      error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("provider %s rejected submission: %s", e.Provider, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("provider %s submission failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("provider %s submission failed", e.Provider)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
