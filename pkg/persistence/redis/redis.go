// Package redis provides Redis-backed persistence for workflows and instances.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	workflowPrefix        = "fluxion:workflow:"
	workflowVersionPrefix = "fluxion:workflow-version:"
	instancePrefix        = "fluxion:instance:"

	workspaceIndexPrefix = "fluxion:workspace-workflows:"
	workflowIndexPrefix  = "fluxion:workflow-instances:"

	pingTimeout = 5 * time.Second
)

// Persistence implements persistence.Persistence on top of Redis. Records
// are stored as JSON under prefixed keys; workspace and workflow indexes
// are kept as sets for the list queries.
type Persistence struct {
	client       *redis.Client
	workflowRepo *workflowRepository
	instanceRepo *instanceRepository
}

// NewPersistence connects to Redis using the given URL (redis://...).
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Persistence{
		client:       client,
		workflowRepo: &workflowRepository{client: client},
		instanceRepo: &instanceRepository{client: client},
	}, nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) InstanceRepository() persistence.InstanceRepository {
	return p.instanceRepo
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func setJSON(ctx context.Context, client *redis.Client, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

func getJSON[T any](ctx context.Context, client *redis.Client, key string) (*T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return &value, nil
}

type workflowRepository struct {
	client *redis.Client
}

func versionKey(id string, version int) string {
	return workflowVersionPrefix + id + ":" + strconv.Itoa(version)
}

func (wr *workflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if err := setJSON(ctx, wr.client, workflowPrefix+workflow.ID, workflow); err != nil {
		return err
	}

	if err := setJSON(ctx, wr.client, versionKey(workflow.ID, workflow.Version), workflow); err != nil {
		return err
	}

	return wr.client.SAdd(ctx, workspaceIndexPrefix+workflow.WorkspaceID, workflow.ID).Err()
}

func (wr *workflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return getJSON[models.Workflow](ctx, wr.client, workflowPrefix+id)
}

func (wr *workflowRepository) GetByIDAndVersion(ctx context.Context, id string, version int) (*models.Workflow, error) {
	return getJSON[models.Workflow](ctx, wr.client, versionKey(id, version))
}

func (wr *workflowRepository) ListByWorkspace(ctx context.Context, workspaceID string, status *models.WorkflowStatus) ([]*models.Workflow, error) {
	ids, err := wr.client.SMembers(ctx, workspaceIndexPrefix+workspaceID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if workflow == nil {
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

func (wr *workflowRepository) Delete(ctx context.Context, id string) error {
	return wr.client.Del(ctx, workflowPrefix+id).Err()
}

type instanceRepository struct {
	client *redis.Client
}

func (ir *instanceRepository) Save(ctx context.Context, instance *models.WorkflowInstance) error {
	if err := setJSON(ctx, ir.client, instancePrefix+instance.ID, instance); err != nil {
		return err
	}

	return ir.client.SAdd(ctx, workflowIndexPrefix+instance.WorkflowID, instance.ID).Err()
}

func (ir *instanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return getJSON[models.WorkflowInstance](ctx, ir.client, instancePrefix+id)
}

func (ir *instanceRepository) ListByWorkflow(ctx context.Context, workflowID string, status *models.InstanceStatus) ([]*models.WorkflowInstance, error) {
	ids, err := ir.client.SMembers(ctx, workflowIndexPrefix+workflowID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow instances: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(ids))

	for _, id := range ids {
		instance, err := ir.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if instance == nil {
			continue
		}

		if status != nil && instance.Status != *status {
			continue
		}

		instances = append(instances, instance)
	}

	return instances, nil
}
