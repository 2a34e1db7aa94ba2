package workflow

import (
	"errors"

	"github.com/fluxion-ai/fluxion/pkg/models"
)

// ErrEmptyDefinition indicates a workflow with no nodes to execute.
var ErrEmptyDefinition = errors.New("workflow definition has no nodes")

// Plan is the compiled, ordered execution plan for one workflow version.
//
// Nodes execute in declaration order. Connections are persisted and
// validated but not traversed: selector and loop nodes annotate the data
// bag instead of redirecting control flow. A connection-following graph
// walk is a product decision that has not been taken (see DESIGN.md).
type Plan struct {
	Nodes []*models.WorkflowNode
}

// Compile builds the execution plan from a workflow definition.
func Compile(workflow *models.Workflow) (*Plan, error) {
	if len(workflow.Nodes) == 0 {
		return nil, ErrEmptyDefinition
	}

	nodes := make([]*models.WorkflowNode, len(workflow.Nodes))
	copy(nodes, workflow.Nodes)

	return &Plan{Nodes: nodes}, nil
}

// IndexOf returns the plan position of a node id, or -1.
func (p *Plan) IndexOf(nodeID string) int {
	for i, node := range p.Nodes {
		if node.ID == nodeID {
			return i
		}
	}

	return -1
}
