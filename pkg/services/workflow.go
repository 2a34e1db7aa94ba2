package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/persistence"
	"github.com/google/uuid"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// WorkspaceChecker validates the workspace binding at creation time. The
// workspace service itself is an external collaborator.
type WorkspaceChecker interface {
	Exists(ctx context.Context, workspaceID string) (bool, error)
}

// AllowAllWorkspaces accepts every workspace id. Used when no workspace
// service is wired.
type AllowAllWorkspaces struct{}

func (AllowAllWorkspaces) Exists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// Workflow is the workflow management service: creation, structural
// updates, status lifecycle, agent binding and queries. Execution lives in
// pkg/workflow.
type Workflow struct {
	persistence persistence.Persistence
	workspaces  WorkspaceChecker
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(p persistence.Persistence, workspaces WorkspaceChecker) *Workflow {
	if workspaces == nil {
		workspaces = AllowAllWorkspaces{}
	}

	return &Workflow{persistence: p, workspaces: workspaces}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := w.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create adds a new workflow: Draft status, version 1.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return nil, ErrWorkflowNameRequired
	}

	if strings.TrimSpace(workflow.WorkspaceID) == "" {
		return nil, ErrWorkspaceRequired
	}

	exists, err := w.workspaces.Exists(ctx, workflow.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check workspace %s: %w", workflow.WorkspaceID, err)
	}

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workflow.WorkspaceID)
	}

	if err := validateDefinition(workflow); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.Version = 1
	workflow.Status = models.WorkflowStatusDraft
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces the structural definition and bumps the version.
// Existing instances keep their pinned version and are unaffected.
func (w *Workflow) Update(ctx context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return nil, ErrWorkflowNameRequired
	}

	existing, err := w.fetch(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.Status == models.WorkflowStatusDeleted {
		return nil, fmt.Errorf("%w: workflow %s is deleted", models.ErrInvalidTransition, workflowID)
	}

	if err := validateDefinition(workflow); err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.Version = existing.Version + 1
	workflow.Status = existing.Status
	workflow.WorkspaceID = existing.WorkspaceID
	workflow.AgentID = existing.AgentID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// UpdateStatus applies a validated lifecycle transition
// (Draft -> Published -> Archived; Deleted from any state).
func (w *Workflow) UpdateStatus(ctx context.Context, workflowID string, status models.WorkflowStatus) (*models.Workflow, error) {
	switch status {
	case models.WorkflowStatusDraft, models.WorkflowStatusPublished,
		models.WorkflowStatusArchived, models.WorkflowStatusDeleted:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	existing, err := w.fetch(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateWorkflowTransition(existing.Status, status); err != nil {
		return nil, err
	}

	existing.Status = status
	existing.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update workflow status: %w", err)
	}

	return existing, nil
}

// BindAgent sets the optional agent association. No effect on running instances.
func (w *Workflow) BindAgent(ctx context.Context, workflowID, agentID string) (*models.Workflow, error) {
	return w.setAgent(ctx, workflowID, &agentID)
}

// UnbindAgent clears the agent association.
func (w *Workflow) UnbindAgent(ctx context.Context, workflowID string) (*models.Workflow, error) {
	return w.setAgent(ctx, workflowID, nil)
}

func (w *Workflow) setAgent(ctx context.Context, workflowID string, agentID *string) (*models.Workflow, error) {
	existing, err := w.fetch(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	existing.AgentID = agentID
	existing.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update workflow agent: %w", err)
	}

	return existing, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.fetch(ctx, id)
}

// ListByWorkspace retrieves workflows of a workspace with an optional status filter.
func (w *Workflow) ListByWorkspace(ctx context.Context, workspaceID string, status *models.WorkflowStatus) ([]*models.Workflow, error) {
	return w.persistence.WorkflowRepository().ListByWorkspace(ctx, workspaceID, status)
}

func (w *Workflow) fetch(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("GetByID", id, ErrWorkflowNotFound)
	}

	return workflow, nil
}
