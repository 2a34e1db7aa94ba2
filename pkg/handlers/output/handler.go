// Package output implements the output node: the terminal marker that
// signals instance completion.
package output

import (
	"context"

	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
)

const DefaultResultKey = "result"

// Handler copies the designated result key onto itself. The copy is an
// idempotent passthrough; a missing result key is an expected condition,
// not an error.
type Handler struct {
	resultKey string
}

func (h *Handler) Execute(_ context.Context, _ *models.WorkflowNode, data *models.WorkflowData) error {
	if value, ok := data.Get(h.resultKey); ok {
		data.Set(h.resultKey, value)
	}

	return nil
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeOutput
}

func (f *Factory) Create(config map[string]any) (protocol.NodeHandler, error) {
	resultKey := DefaultResultKey
	if key, ok := config["result_key"].(string); ok && key != "" {
		resultKey = key
	}

	return &Handler{resultKey: resultKey}, nil
}
