// Package models defines the core domain models for node-based workflow execution.
package models

import (
	"errors"
	"fmt"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"     // Editable, not executable
	WorkflowStatusPublished WorkflowStatus = "published" // Executable by new instances
	WorkflowStatusArchived  WorkflowStatus = "archived"  // Frozen, not executable
	WorkflowStatusDeleted   WorkflowStatus = "deleted"   // Soft-deleted, existing instances unaffected
)

// ErrInvalidTransition is returned when a status change violates the lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// workflowTransitions enumerates the legal workflow status transitions.
// Deleted is reachable from any non-deleted state.
var workflowTransitions = map[WorkflowStatus][]WorkflowStatus{
	WorkflowStatusDraft:     {WorkflowStatusPublished, WorkflowStatusDeleted},
	WorkflowStatusPublished: {WorkflowStatusArchived, WorkflowStatusDeleted},
	WorkflowStatusArchived:  {WorkflowStatusDeleted},
	WorkflowStatusDeleted:   {},
}

// CanTransitionWorkflow reports whether a workflow may move from one status to another.
// All mutating operations must go through this check rather than writing status directly.
func CanTransitionWorkflow(from, to WorkflowStatus) bool {
	for _, allowed := range workflowTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// ValidateWorkflowTransition returns a typed error when the transition is illegal.
func ValidateWorkflowTransition(from, to WorkflowStatus) error {
	if !CanTransitionWorkflow(from, to) {
		return fmt.Errorf("%w: workflow %s -> %s", ErrInvalidTransition, from, to)
	}

	return nil
}

// Workflow represents a versioned, named node graph bound to a workspace.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"                 validate:"required,min=3"`
	Description string          `json:"description"`
	Version     int             `json:"version"`
	Status      WorkflowStatus  `json:"status"               validate:"required"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Connections []*Connection   `json:"connections"`
	AgentID     *string         `json:"agent_id,omitempty"`
	WorkspaceID string          `json:"workspace_id"         validate:"required"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsExecutable reports whether new instances may be started from this workflow.
func (w *Workflow) IsExecutable() bool {
	return w.Status == WorkflowStatusPublished
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
