// Package customcode implements the custom_code node: it runs an
// expr-lang expression against the data bag and stores the result under a
// configurable key.
package customcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
)

const DefaultResultKey = "result"

type Handler struct {
	program   *vm.Program
	resultKey string
}

func (h *Handler) Execute(_ context.Context, _ *models.WorkflowNode, data *models.WorkflowData) error {
	output, err := expr.Run(h.program, data.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to run custom code: %w", err)
	}

	data.Set(h.resultKey, output)

	return nil
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeCustomCode
}

func (f *Factory) Create(config map[string]any) (protocol.NodeHandler, error) {
	code, ok := config["code"].(string)
	if !ok || code == "" {
		return nil, errors.New("missing required config field 'code'")
	}

	program, err := expr.Compile(code, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid custom code expression: %w", err)
	}

	resultKey := DefaultResultKey
	if key, ok := config["result_key"].(string); ok && key != "" {
		resultKey = key
	}

	return &Handler{program: program, resultKey: resultKey}, nil
}
