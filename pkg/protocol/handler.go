// Package protocol defines the contracts between the execution core and
// pluggable node handlers.
package protocol

import (
	"context"
	"errors"

	"github.com/fluxion-ai/fluxion/pkg/models"
)

// ErrSuspendRequested is returned by a handler to suspend the instance at
// the current node boundary instead of failing it. The executor stores the
// current node pointer and data snapshot so a later resume continues here.
var ErrSuspendRequested = errors.New("handler requested suspension")

// NodeHandler executes the logic bound to one node type. Implementations
// are stateless with respect to instances: all per-run state lives in the
// WorkflowData bag. Handlers must not fail for expected business
// conditions such as missing optional input.
type NodeHandler interface {
	Execute(ctx context.Context, node *models.WorkflowNode, data *models.WorkflowData) error
}

// HandlerFactory creates handlers for one node type.
type HandlerFactory interface {
	// ID returns the node type discriminator; must be stable and unique
	// across all registered factories.
	ID() string

	// Create builds a handler from the node-level configuration.
	Create(config map[string]any) (NodeHandler, error)
}
