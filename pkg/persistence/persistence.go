// Package persistence provides the data storage abstraction for workflows
// and workflow instances.
package persistence

import (
	"context"

	"github.com/fluxion-ai/fluxion/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	InstanceRepository() InstanceRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions. Save keeps a snapshot of
// every version so instances can pin the version they were created from.
type WorkflowRepository interface {
	Save(ctx context.Context, workflow *models.Workflow) error

	// GetByID returns the current record, or (nil, nil) when missing.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// GetByIDAndVersion returns the pinned version snapshot, or (nil, nil).
	GetByIDAndVersion(ctx context.Context, id string, version int) (*models.Workflow, error)

	// ListByWorkspace returns workflows of one workspace, optionally
	// filtered by status. Soft-deleted workflows are excluded unless the
	// filter asks for them.
	ListByWorkspace(ctx context.Context, workspaceID string, status *models.WorkflowStatus) ([]*models.Workflow, error)

	Delete(ctx context.Context, id string) error
}

// InstanceRepository stores workflow instances. Save overwrites the full
// record; the execution service serializes writers per instance.
type InstanceRepository interface {
	Save(ctx context.Context, instance *models.WorkflowInstance) error

	// GetByID returns the instance, or (nil, nil) when missing.
	GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error)

	// ListByWorkflow returns instances of one workflow, optionally
	// filtered by status.
	ListByWorkflow(ctx context.Context, workflowID string, status *models.InstanceStatus) ([]*models.WorkflowInstance, error)
}
