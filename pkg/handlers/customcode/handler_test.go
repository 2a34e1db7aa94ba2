package customcode

import (
	"testing"

	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	factory := NewFactory()

	handler, err := factory.Create(map[string]any{"code": "price * quantity"})
	require.NoError(t, err)

	data := models.NewWorkflowDataFrom(map[string]any{"price": 5, "quantity": 3})
	require.NoError(t, handler.Execute(t.Context(), nil, data))

	result, ok := data.Get(DefaultResultKey)
	require.True(t, ok)
	assert.EqualValues(t, 15, result)
}

func TestHandler_ExecuteCustomResultKey(t *testing.T) {
	factory := NewFactory()

	handler, err := factory.Create(map[string]any{
		"code":       "upper(name)",
		"result_key": "name_upper",
	})
	require.NoError(t, err)

	data := models.NewWorkflowDataFrom(map[string]any{"name": "ada"})
	require.NoError(t, handler.Execute(t.Context(), nil, data))

	result, ok := data.Get("name_upper")
	require.True(t, ok)
	assert.Equal(t, "ADA", result)
}

func TestFactory_CreateMissingCode(t *testing.T) {
	factory := NewFactory()

	_, err := factory.Create(map[string]any{})
	assert.Error(t, err)
}
