package ai

import (
	"errors"
	"fmt"
)

// ErrUnavailable means the provider is not configured (missing key); it is
// distinct from an upstream failure.
var ErrUnavailable = errors.New("ai provider unavailable")

// InferenceError is an upstream provider failure. It carries the provider
// name and upstream message so callers can show "AI provider error" rather
// than a generic failure. The adapter never retries; retry policy belongs to
// the orchestrator.
type InferenceError struct {
	Provider string
	Message  string
	Err      error
}

func (e *InferenceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s inference failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s inference failed: %v", e.Provider, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

func inferenceErr(provider string, err error) error {
	return &InferenceError{Provider: provider, Message: err.Error(), Err: err}
}
