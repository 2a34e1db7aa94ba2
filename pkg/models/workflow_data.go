package models

import "encoding/json"

// WorkflowData is the schema-free key/value bag threaded through node
// execution. Handlers are independently authored, so the contract is
// purely by convention: any handler may read any key written upstream.
// Not safe for concurrent use; nodes within one instance run sequentially.
type WorkflowData struct {
	values map[string]any
}

// NewWorkflowData creates an empty data bag.
func NewWorkflowData() *WorkflowData {
	return &WorkflowData{values: make(map[string]any)}
}

// NewWorkflowDataFrom creates a data bag seeded with the given values.
func NewWorkflowDataFrom(seed map[string]any) *WorkflowData {
	data := NewWorkflowData()
	for k, v := range seed {
		data.values[k] = v
	}

	return data
}

// Get returns the value for key. The second return reports presence;
// reading an absent key is never an error.
func (d *WorkflowData) Get(key string) (any, bool) {
	v, ok := d.values[key]

	return v, ok
}

// GetString returns the value for key rendered as a string, if present.
func (d *WorkflowData) GetString(key string) (string, bool) {
	v, ok := d.values[key]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// Set stores value under key, replacing any previous value.
func (d *WorkflowData) Set(key string, value any) {
	d.values[key] = value
}

// Keys returns the present keys in unspecified order.
func (d *WorkflowData) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}

	return keys
}

// Snapshot returns a copy of the underlying map for read-only use
// (expression environments, event payloads).
func (d *WorkflowData) Snapshot() map[string]any {
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}

	return out
}

// MarshalJSON serializes the bag as a plain JSON object.
func (d *WorkflowData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.values)
}

// UnmarshalJSON restores the bag from a plain JSON object.
func (d *WorkflowData) UnmarshalJSON(raw []byte) error {
	values := make(map[string]any)
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}

	d.values = values

	return nil
}
