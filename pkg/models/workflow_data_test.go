package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowData_GetSet(t *testing.T) {
	data := NewWorkflowData()

	_, ok := data.Get("missing")
	assert.False(t, ok)

	data.Set("customer_id", "c-42")

	v, ok := data.Get("customer_id")
	require.True(t, ok)
	assert.Equal(t, "c-42", v)

	data.Set("customer_id", "c-43")

	s, ok := data.GetString("customer_id")
	require.True(t, ok)
	assert.Equal(t, "c-43", s)
}

func TestWorkflowData_GetString(t *testing.T) {
	data := NewWorkflowDataFrom(map[string]any{"count": 3})

	_, ok := data.GetString("count")
	assert.False(t, ok)

	_, ok = data.GetString("absent")
	assert.False(t, ok)
}

func TestWorkflowData_Snapshot(t *testing.T) {
	data := NewWorkflowDataFrom(map[string]any{"a": 1})

	snapshot := data.Snapshot()
	snapshot["b"] = 2

	_, ok := data.Get("b")
	assert.False(t, ok, "mutating the snapshot must not touch the bag")
}

func TestWorkflowData_JSONRoundTrip(t *testing.T) {
	data := NewWorkflowDataFrom(map[string]any{
		"input": "hello",
		"nested": map[string]any{
			"flag": true,
		},
	})

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	restored := NewWorkflowData()
	require.NoError(t, json.Unmarshal(raw, restored))

	v, ok := restored.Get("input")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.ElementsMatch(t, []string{"input", "nested"}, restored.Keys())
}
