// Package notimplemented provides registration slots for node types that
// are part of the taxonomy but have no bound implementation yet. Executing
// one fails loudly with the type name instead of silently skipping.
package notimplemented

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
)

// ErrNotImplemented indicates a registered node type without an implementation.
var ErrNotImplemented = errors.New("node type not implemented")

type Handler struct {
	nodeType string
}

func (h *Handler) Execute(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
	return fmt.Errorf("%w: %q", ErrNotImplemented, h.nodeType)
}

type Factory struct {
	nodeType string
}

// NewFactory builds a not-implemented slot for the given node type.
func NewFactory(nodeType string) *Factory {
	return &Factory{nodeType: nodeType}
}

func (f *Factory) ID() string {
	return f.nodeType
}

func (f *Factory) Create(_ map[string]any) (protocol.NodeHandler, error) {
	return &Handler{nodeType: f.nodeType}, nil
}
