// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/fluxion-ai/fluxion/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string                 `json:"name"         validate:"required,min=3"`
	Description string                 `json:"description"`
	WorkspaceID string                 `json:"workspace_id" validate:"required"`
	Nodes       []*models.WorkflowNode `json:"nodes"`
	Connections []*models.Connection   `json:"connections"`
	Tags        []string               `json:"tags,omitempty"`
	AgentID     *string                `json:"agent_id,omitempty"`
}

// UpdateWorkflowRequest represents the request body for a structural update.
// The update bumps the workflow version; running instances are unaffected.
type UpdateWorkflowRequest struct {
	Name        string                 `json:"name"        validate:"required,min=3"`
	Description string                 `json:"description"`
	Nodes       []*models.WorkflowNode `json:"nodes"`
	Connections []*models.Connection   `json:"connections"`
	Tags        []string               `json:"tags,omitempty"`
}

// UpdateStatusRequest represents a workflow lifecycle transition request.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// BindAgentRequest represents the request body for binding an agent.
type BindAgentRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
}

// ExecuteWorkflowRequest represents the request body for starting an instance.
type ExecuteWorkflowRequest struct {
	ReferenceID     string            `json:"reference_id,omitempty"`
	InputParameters map[string]string `json:"input_parameters,omitempty"`
	InputData       string            `json:"input_data,omitempty"`
}
