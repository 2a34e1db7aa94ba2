// Package events defines instance lifecycle notifications published by the
// execution service.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "fluxion.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	InstanceStartedEvent   EventType = "instance.started"
	InstanceCompletedEvent EventType = "instance.completed"
	InstanceFailedEvent    EventType = "instance.failed"
	InstanceSuspendedEvent EventType = "instance.suspended"
	InstanceResumedEvent   EventType = "instance.resumed"
	InstanceCancelledEvent EventType = "instance.cancelled"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
	InstanceID string    `json:"instance_id"`
}

func NewBaseEvent(eventType EventType, workflowID, instanceID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		InstanceID: instanceID,
	}
}

type InstanceStarted struct {
	BaseEvent

	WorkflowVersion int            `json:"workflow_version"`
	InputParameters map[string]any `json:"input_parameters,omitempty"`
}

func (e InstanceStarted) GetType() EventType {
	return InstanceStartedEvent
}

type InstanceCompleted struct {
	BaseEvent

	DurationMs    int64 `json:"duration_ms"`
	NodesExecuted int   `json:"nodes_executed"`
}

func (e InstanceCompleted) GetType() EventType {
	return InstanceCompletedEvent
}

type InstanceFailed struct {
	BaseEvent

	NodeID string `json:"node_id"`
	Error  string `json:"error"`
}

func (e InstanceFailed) GetType() EventType {
	return InstanceFailedEvent
}

type InstanceSuspended struct {
	BaseEvent

	NodeID string `json:"node_id"`
}

func (e InstanceSuspended) GetType() EventType {
	return InstanceSuspendedEvent
}

type InstanceResumed struct {
	BaseEvent

	NodeID string `json:"node_id"`
}

func (e InstanceResumed) GetType() EventType {
	return InstanceResumedEvent
}

type InstanceCancelled struct {
	BaseEvent

	NodeID string `json:"node_id"`
}

func (e InstanceCancelled) GetType() EventType {
	return InstanceCancelledEvent
}
