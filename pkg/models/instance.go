package models

import (
	"fmt"
	"time"
)

// InstanceStatus represents the lifecycle state of a workflow instance.
type InstanceStatus string

const (
	InstanceStatusRunning   InstanceStatus = "running"
	InstanceStatusSuspended InstanceStatus = "suspended"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusFailed    InstanceStatus = "failed"
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

// instanceTransitions enumerates the legal instance status transitions.
// Completed, Failed and Cancelled are terminal; Running and Suspended
// flip back and forth via explicit suspend/resume.
var instanceTransitions = map[InstanceStatus][]InstanceStatus{
	InstanceStatusRunning: {
		InstanceStatusSuspended,
		InstanceStatusCompleted,
		InstanceStatusFailed,
		InstanceStatusCancelled,
	},
	InstanceStatusSuspended: {
		InstanceStatusRunning,
		InstanceStatusCancelled,
		InstanceStatusFailed,
	},
	InstanceStatusCompleted: {},
	InstanceStatusFailed:    {},
	InstanceStatusCancelled: {},
}

// IsTerminalInstanceStatus reports whether no further transitions are accepted.
func IsTerminalInstanceStatus(status InstanceStatus) bool {
	return len(instanceTransitions[status]) == 0
}

// CanTransitionInstance reports whether an instance may move between statuses.
func CanTransitionInstance(from, to InstanceStatus) bool {
	for _, allowed := range instanceTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// ValidateInstanceTransition returns a typed error when the transition is illegal.
func ValidateInstanceTransition(from, to InstanceStatus) error {
	if !CanTransitionInstance(from, to) {
		return fmt.Errorf("%w: instance %s -> %s", ErrInvalidTransition, from, to)
	}

	return nil
}

// WorkflowInstance is one execution of a specific workflow version.
// The version is pinned at creation so later definition edits never
// affect in-flight executions.
type WorkflowInstance struct {
	ID                    string         `json:"id"`
	ReferenceID           string         `json:"reference_id,omitempty"`
	WorkflowID            string         `json:"workflow_id"      validate:"required"`
	WorkflowVersion       int            `json:"workflow_version"`
	Status                InstanceStatus `json:"status"`
	CurrentNodeID         string         `json:"current_node_id,omitempty"`
	Data                  *WorkflowData  `json:"data"`
	StartedAt             time.Time      `json:"started_at"`
	EndedAt               *time.Time     `json:"ended_at,omitempty"`
	ErrorMessage          string         `json:"error_message,omitempty"`
	ExternalCorrelationID string         `json:"external_correlation_id,omitempty"`
}

// Transition applies a validated status change. Terminal transitions stamp EndedAt.
func (i *WorkflowInstance) Transition(to InstanceStatus) error {
	if err := ValidateInstanceTransition(i.Status, to); err != nil {
		return err
	}

	i.Status = to

	if IsTerminalInstanceStatus(to) {
		now := time.Now().UTC()
		i.EndedAt = &now
	}

	return nil
}
