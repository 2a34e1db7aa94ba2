// Package llmcall implements the llm_call node: it sends the prompt from
// the data bag to the model-invocation collaborator and stores the
// completion under the output key.
package llmcall

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluxion-ai/fluxion/pkg/llm"
	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
)

const (
	PromptKey    = "prompt"
	OutputKey    = "output"
	DefaultModel = "gpt-4o-mini"
)

// ErrMissingPrompt indicates the prompt key is absent from the data bag.
// Kept distinct from llm.ErrUpstreamUnavailable so failures are attributable.
var ErrMissingPrompt = errors.New("missing required input key \"prompt\"")

type Handler struct {
	client  llm.Client
	modelID string
}

func (h *Handler) Execute(ctx context.Context, _ *models.WorkflowNode, data *models.WorkflowData) error {
	prompt, ok := data.GetString(PromptKey)
	if !ok || prompt == "" {
		return ErrMissingPrompt
	}

	completion, err := h.client.Complete(ctx, h.modelID, prompt)
	if err != nil {
		return fmt.Errorf("model invocation failed for %s: %w", h.modelID, err)
	}

	data.Set(OutputKey, completion)
	data.Set("model", h.modelID)

	return nil
}

type Factory struct {
	client llm.Client
}

func NewFactory(client llm.Client) *Factory {
	return &Factory{client: client}
}

func (f *Factory) ID() string {
	return models.NodeTypeLlmCall
}

func (f *Factory) Create(config map[string]any) (protocol.NodeHandler, error) {
	if f.client == nil {
		return nil, errors.New("llm client is not configured")
	}

	modelID := DefaultModel
	if m, ok := config["model"].(string); ok && m != "" {
		modelID = m
	}

	return &Handler{client: f.client, modelID: modelID}, nil
}
