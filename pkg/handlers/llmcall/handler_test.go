package llmcall

import (
	"testing"

	"github.com/fluxion-ai/fluxion/pkg/llm"
	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	factory := NewFactory(&llm.Static{Response: "a completion"})

	handler, err := factory.Create(map[string]any{"model": "gpt-4o"})
	require.NoError(t, err)

	data := models.NewWorkflowDataFrom(map[string]any{PromptKey: "summarize this"})

	require.NoError(t, handler.Execute(t.Context(), nil, data))

	output, ok := data.GetString(OutputKey)
	require.True(t, ok)
	assert.Equal(t, "a completion", output)

	model, ok := data.GetString("model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", model)
}

func TestHandler_ExecuteMissingPrompt(t *testing.T) {
	factory := NewFactory(&llm.Static{Response: "unused"})

	handler, err := factory.Create(nil)
	require.NoError(t, err)

	err = handler.Execute(t.Context(), nil, models.NewWorkflowData())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPrompt)
}

func TestHandler_ExecuteUpstreamUnavailable(t *testing.T) {
	factory := NewFactory(&llm.Static{Err: llm.ErrUpstreamUnavailable})

	handler, err := factory.Create(nil)
	require.NoError(t, err)

	data := models.NewWorkflowDataFrom(map[string]any{PromptKey: "summarize this"})

	err = handler.Execute(t.Context(), nil, data)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUpstreamUnavailable)

	_, ok := data.Get(OutputKey)
	assert.False(t, ok)
}

func TestFactory_DefaultModel(t *testing.T) {
	factory := NewFactory(&llm.Static{Response: "ok"})

	handler, err := factory.Create(map[string]any{})
	require.NoError(t, err)

	data := models.NewWorkflowDataFrom(map[string]any{PromptKey: "hi"})
	require.NoError(t, handler.Execute(t.Context(), nil, data))

	model, _ := data.GetString("model")
	assert.Equal(t, DefaultModel, model)
}

func TestFactory_NilClient(t *testing.T) {
	factory := NewFactory(nil)

	_, err := factory.Create(nil)
	assert.Error(t, err)
}
