package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/fluxion-ai/fluxion/pkg/models"
)

// InstanceRepository handles workflow instance file operations.
type InstanceRepository struct {
	root string
}

func NewInstanceRepository(root string) *InstanceRepository {
	return &InstanceRepository{root: root}
}

func (ir *InstanceRepository) instancesDir() string {
	return path.Join(ir.root, "instances")
}

// Save writes the full instance record.
func (ir *InstanceRepository) Save(_ context.Context, instance *models.WorkflowInstance) error {
	if err := os.MkdirAll(ir.instancesDir(), 0750); err != nil {
		return fmt.Errorf("failed to create instances directory: %w", err)
	}

	data, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal instance %s: %w", instance.ID, err)
	}

	filePath := path.Join(ir.instancesDir(), instance.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// GetByID retrieves an instance, or (nil, nil) when missing.
func (ir *InstanceRepository) GetByID(_ context.Context, instanceID string) (*models.WorkflowInstance, error) {
	filePath := filepath.Clean(path.Join(ir.instancesDir(), instanceID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch instance %s: %w", instanceID, err)
	}

	var instance models.WorkflowInstance

	if err := json.Unmarshal(body, &instance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance %s: %w", instanceID, err)
	}

	return &instance, nil
}

// ListByWorkflow returns instances of one workflow with an optional status filter.
func (ir *InstanceRepository) ListByWorkflow(ctx context.Context, workflowID string, status *models.InstanceStatus) ([]*models.WorkflowInstance, error) {
	root := os.DirFS(ir.instancesDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list instance files: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		instanceID := file[:len(file)-5]

		instance, err := ir.GetByID(ctx, instanceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load instance %s: %w", instanceID, err)
		}

		if instance == nil || instance.WorkflowID != workflowID {
			continue
		}

		if status != nil && instance.Status != *status {
			continue
		}

		instances = append(instances, instance)
	}

	return instances, nil
}
