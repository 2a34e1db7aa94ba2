// Package selector implements the selector node: it evaluates a boolean
// expression against the data bag and records which branch was taken.
// The execution plan is linear, so the result only annotates the data bag;
// it does not redirect control flow.
package selector

import (
	"context"
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
)

const DefaultResultKey = "condition_result"

type Handler struct {
	program   *vm.Program
	resultKey string
}

func (h *Handler) Execute(_ context.Context, _ *models.WorkflowNode, data *models.WorkflowData) error {
	output, err := expr.Run(h.program, data.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to evaluate selector expression: %w", err)
	}

	result, ok := output.(bool)
	if !ok {
		return fmt.Errorf("selector expression must evaluate to a boolean, got %T", output)
	}

	data.Set(h.resultKey, result)

	return nil
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeSelector
}

func (f *Factory) Create(config map[string]any) (protocol.NodeHandler, error) {
	expression, ok := config["expression"].(string)
	if !ok || expression == "" {
		return nil, errors.New("missing required config field 'expression'")
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid selector expression: %w", err)
	}

	resultKey := DefaultResultKey
	if key, ok := config["result_key"].(string); ok && key != "" {
		resultKey = key
	}

	return &Handler{program: program, resultKey: resultKey}, nil
}
