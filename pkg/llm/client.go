// Package llm defines the model-invocation collaborator consumed by the
// llm_call node handler.
package llm

import (
	"context"
	"errors"
)

// ErrUpstreamUnavailable indicates the model provider could not be reached
// or returned a failure. Distinguishable from input/configuration errors so
// the executor can report a meaningful instance failure.
var ErrUpstreamUnavailable = errors.New("model provider unavailable")

// Client sends a prompt to a model and returns the completion text.
type Client interface {
	Complete(ctx context.Context, modelID, prompt string) (string, error)
}
