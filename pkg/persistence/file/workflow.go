package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fluxion-ai/fluxion/pkg/models"
)

// WorkflowRepository handles workflow-related file operations. The current
// record lives at workflows/<id>.json; every saved version also gets a
// snapshot at workflows/versions/<id>-v<N>.json so instances can pin it.
type WorkflowRepository struct {
	root string
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) workflowsDir() string {
	return path.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) versionsDir() string {
	return path.Join(wr.root, "workflows", "versions")
}

// Save writes the current record and its version snapshot.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if err := os.MkdirAll(wr.versionsDir(), 0750); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	currentPath := path.Join(wr.workflowsDir(), workflow.ID+".json")
	if err := os.WriteFile(currentPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	versionPath := path.Join(wr.versionsDir(), workflow.ID+"-v"+strconv.Itoa(workflow.Version)+".json")

	return os.WriteFile(versionPath, data, 0600)
}

// GetByID retrieves the current workflow record, or (nil, nil) when missing.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	return wr.readWorkflow(path.Join(wr.workflowsDir(), workflowID+".json"), workflowID)
}

// GetByIDAndVersion retrieves a pinned version snapshot, or (nil, nil).
func (wr *WorkflowRepository) GetByIDAndVersion(_ context.Context, workflowID string, version int) (*models.Workflow, error) {
	versionPath := path.Join(wr.versionsDir(), workflowID+"-v"+strconv.Itoa(version)+".json")

	return wr.readWorkflow(versionPath, workflowID)
}

func (wr *WorkflowRepository) readWorkflow(filePath, workflowID string) (*models.Workflow, error) {
	body, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &workflow, nil
}

// ListByWorkspace returns workflows of one workspace with an optional
// status filter. Soft-deleted workflows are skipped unless asked for.
func (wr *WorkflowRepository) ListByWorkspace(ctx context.Context, workspaceID string, status *models.WorkflowStatus) ([]*models.Workflow, error) {
	root := os.DirFS(wr.workflowsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-5] // Remove .json extension

		workflow, err := wr.GetByID(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		if workflow == nil || workflow.WorkspaceID != workspaceID {
			continue
		}

		if status != nil {
			if workflow.Status != *status {
				continue
			}
		} else if workflow.Status == models.WorkflowStatusDeleted {
			continue
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// Delete removes the current record. Version snapshots are kept so
// existing instances remain resumable.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	filePath := path.Join(wr.workflowsDir(), id+".json")

	err := os.Remove(filePath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
