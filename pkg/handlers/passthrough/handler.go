// Package passthrough provides the no-op handler shared by the start,
// input and end node types. Initial input parameters are seeded into the
// data bag before these nodes run, so there is nothing to do here.
package passthrough

import (
	"context"

	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
)

type Handler struct{}

func (h *Handler) Execute(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
	return nil
}

// Factory creates passthrough handlers under a given node type id.
type Factory struct {
	nodeType string
}

// NewFactory builds a passthrough factory for the given node type.
func NewFactory(nodeType string) *Factory {
	return &Factory{nodeType: nodeType}
}

func (f *Factory) ID() string {
	return f.nodeType
}

func (f *Factory) Create(_ map[string]any) (protocol.NodeHandler, error) {
	return &Handler{}, nil
}
