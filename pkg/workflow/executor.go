// Package workflow implements the workflow execution service: it turns a
// published definition into a running, resumable instance and owns the
// instance status machine.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fluxion-ai/fluxion/pkg/eventbus"
	"github.com/fluxion-ai/fluxion/pkg/events"
	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/otelhelper"
	"github.com/fluxion-ai/fluxion/pkg/persistence"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
	"github.com/fluxion-ai/fluxion/pkg/registry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	// ErrWorkflowNotExecutable indicates the workflow is not in Published status.
	ErrWorkflowNotExecutable = errors.New("workflow is not executable")

	// ErrNodeNotInPlan indicates a stored current-node pointer that no longer
	// resolves against the pinned definition.
	ErrNodeNotInPlan = errors.New("current node not found in execution plan")
)

// DefaultNodeTimeout bounds a single handler invocation. The reference
// behavior had no per-node timeout; this is a hardening addition.
const DefaultNodeTimeout = 60 * time.Second

// Executor orchestrates instance creation, execution, suspension,
// resumption and cancellation. It is the only component that touches
// instance persistence.
//
// Node-to-node sequencing within one instance is strictly sequential.
// Mutating calls against the same instance id are serialized through a
// per-instance mutex; suspend and cancel are cooperative, checked at node
// boundaries only.
type Executor struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	nodeTimeout time.Duration
	locks       sync.Map // instance id -> *sync.Mutex
}

// Option configures an Executor.
type Option func(*Executor)

// WithEventBus publishes instance lifecycle events to the given bus.
func WithEventBus(bus eventbus.EventPublisher) Option {
	return func(e *Executor) {
		e.eventBus = bus
	}
}

// WithTracer records a span per instance run and per node execution.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithNodeTimeout overrides the per-node handler deadline.
func WithNodeTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.nodeTimeout = timeout
	}
}

func NewExecutor(logger *slog.Logger, p persistence.Persistence, r *registry.Registry, opts ...Option) *Executor {
	executor := &Executor{
		logger:      logger,
		persistence: p,
		registry:    r,
		tracer:      noop.NewTracerProvider().Tracer("fluxion"),
		nodeTimeout: DefaultNodeTimeout,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

func (e *Executor) instanceLock(instanceID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(instanceID, &sync.Mutex{})

	return mu.(*sync.Mutex)
}

// Execute loads a published workflow, creates a new instance pinned to the
// workflow's current version and runs it synchronously on the calling
// goroutine. Handler failures are recorded on the instance (status Failed)
// rather than returned; the error return is reserved for configuration and
// persistence problems.
func (e *Executor) Execute(ctx context.Context, workflowID, referenceID string, inputParameters map[string]string, inputData string) (*models.WorkflowInstance, error) {
	logger := e.logger.With("workflow_id", workflowID)

	workflow, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("Execute", workflowID, persistence.ErrWorkflowNotFound)
	}

	if !workflow.IsExecutable() {
		return nil, fmt.Errorf("%w: workflow %s is %s", ErrWorkflowNotExecutable, workflowID, workflow.Status)
	}

	plan, err := Compile(workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow %s: %w", workflowID, err)
	}

	instance := &models.WorkflowInstance{
		ID:              uuid.New().String(),
		ReferenceID:     referenceID,
		WorkflowID:      workflow.ID,
		WorkflowVersion: workflow.Version,
		Status:          models.InstanceStatusRunning,
		Data:            seedData(inputParameters, inputData),
		StartedAt:       time.Now().UTC(),
	}

	if err := e.persistence.InstanceRepository().Save(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	logger = logger.With("instance_id", instance.ID, "workflow_version", instance.WorkflowVersion)
	logger.Info("Starting workflow instance")

	e.publish(ctx, instance, events.InstanceStarted{
		BaseEvent:       events.NewBaseEvent(events.InstanceStartedEvent, workflow.ID, instance.ID),
		WorkflowVersion: instance.WorkflowVersion,
	})

	if err := e.run(ctx, logger, plan, instance, 0); err != nil {
		return nil, err
	}

	return instance, nil
}

// seedData builds the initial data bag from the caller-supplied input.
// inputData is merged when it parses as a JSON object, otherwise kept raw
// under the input_data key.
func seedData(inputParameters map[string]string, inputData string) *models.WorkflowData {
	data := models.NewWorkflowData()

	for key, value := range inputParameters {
		data.Set(key, value)
	}

	if inputData != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(inputData), &parsed); err == nil {
			for key, value := range parsed {
				data.Set(key, value)
			}
		} else {
			data.Set("input_data", inputData)
		}
	}

	return data
}

// run advances the instance through the plan starting at startIndex.
// Before each node the persisted status is re-read so operator suspend and
// cancel take effect at the next node boundary.
func (e *Executor) run(ctx context.Context, logger *slog.Logger, plan *Plan, instance *models.WorkflowInstance, startIndex int) error {
	runCtx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.instance.run",
		attribute.String(otelhelper.WorkflowIDKey, instance.WorkflowID),
		attribute.Int(otelhelper.WorkflowVersionKey, instance.WorkflowVersion),
		attribute.String(otelhelper.InstanceIDKey, instance.ID),
	)
	defer span.End()

	nodesExecuted := 0

	for index := startIndex; index < len(plan.Nodes); index++ {
		node := plan.Nodes[index]

		instance.CurrentNodeID = node.ID

		proceed, err := e.checkpoint(runCtx, instance)
		if err != nil {
			return err
		}

		if !proceed {
			logger.Info("Instance interrupted by operator", "status", instance.Status, "node_id", node.ID)

			return nil
		}

		if err := e.executeNode(runCtx, logger, node, instance); err != nil {
			if errors.Is(err, protocol.ErrSuspendRequested) {
				return e.suspendAt(runCtx, logger, instance, node)
			}

			return e.fail(runCtx, logger, instance, node, err)
		}

		nodesExecuted++

		if node.IsTerminal() {
			return e.complete(runCtx, logger, instance, nodesExecuted)
		}
	}

	return e.complete(runCtx, logger, instance, nodesExecuted)
}

// executeNode resolves the handler and invokes it under the node deadline.
func (e *Executor) executeNode(ctx context.Context, logger *slog.Logger, node *models.WorkflowNode, instance *models.WorkflowInstance) error {
	handler, err := e.registry.Resolve(node.Type, node.Config)
	if err != nil {
		return err
	}

	nodeCtx, cancel := context.WithTimeout(ctx, e.nodeTimeout)
	defer cancel()

	nodeCtx, span := otelhelper.StartSpan(nodeCtx, e.tracer, "workflow.node.execute",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
	)
	defer span.End()

	logger.Debug("Executing node", "node_id", node.ID, "node_type", node.Type)

	if err := handler.Execute(nodeCtx, node, instance.Data); err != nil {
		if !errors.Is(err, protocol.ErrSuspendRequested) {
			otelhelper.SetError(span, err)
		}

		return err
	}

	return nil
}

// checkpoint persists execution progress. It returns false when an
// operator moved the instance out of Running since the last boundary, in
// which case the stored record wins and the loop must stop.
func (e *Executor) checkpoint(ctx context.Context, instance *models.WorkflowInstance) (bool, error) {
	mu := e.instanceLock(instance.ID)
	mu.Lock()
	defer mu.Unlock()

	stored, err := e.persistence.InstanceRepository().GetByID(ctx, instance.ID)
	if err != nil {
		return false, fmt.Errorf("failed to re-read instance %s: %w", instance.ID, err)
	}

	if stored != nil && stored.Status != models.InstanceStatusRunning {
		instance.Status = stored.Status
		instance.EndedAt = stored.EndedAt

		return false, nil
	}

	if err := e.persistence.InstanceRepository().Save(ctx, instance); err != nil {
		return false, fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	return true, nil
}

func (e *Executor) complete(ctx context.Context, logger *slog.Logger, instance *models.WorkflowInstance, nodesExecuted int) error {
	mu := e.instanceLock(instance.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := instance.Transition(models.InstanceStatusCompleted); err != nil {
		return err
	}

	instance.CurrentNodeID = ""

	if err := e.persistence.InstanceRepository().Save(ctx, instance); err != nil {
		return fmt.Errorf("failed to save completed instance %s: %w", instance.ID, err)
	}

	logger.Info("Workflow instance completed", "nodes_executed", nodesExecuted)

	e.publish(ctx, instance, events.InstanceCompleted{
		BaseEvent:     events.NewBaseEvent(events.InstanceCompletedEvent, instance.WorkflowID, instance.ID),
		DurationMs:    time.Since(instance.StartedAt).Milliseconds(),
		NodesExecuted: nodesExecuted,
	})

	return nil
}

// fail records a handler or configuration failure on the instance and
// stops further node execution. Errors inside one instance never affect
// other instances or the workflow definition.
func (e *Executor) fail(ctx context.Context, logger *slog.Logger, instance *models.WorkflowInstance, node *models.WorkflowNode, cause error) error {
	mu := e.instanceLock(instance.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := instance.Transition(models.InstanceStatusFailed); err != nil {
		return err
	}

	instance.ErrorMessage = cause.Error()

	if err := e.persistence.InstanceRepository().Save(ctx, instance); err != nil {
		return fmt.Errorf("failed to save failed instance %s: %w", instance.ID, err)
	}

	logger.Error("Workflow instance failed", "node_id", node.ID, "error", cause)

	e.publish(ctx, instance, events.InstanceFailed{
		BaseEvent: events.NewBaseEvent(events.InstanceFailedEvent, instance.WorkflowID, instance.ID),
		NodeID:    node.ID,
		Error:     cause.Error(),
	})

	return nil
}

// suspendAt handles handler-initiated suspension: the current node pointer
// stays on the suspending node so a resume re-runs it.
func (e *Executor) suspendAt(ctx context.Context, logger *slog.Logger, instance *models.WorkflowInstance, node *models.WorkflowNode) error {
	mu := e.instanceLock(instance.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := instance.Transition(models.InstanceStatusSuspended); err != nil {
		return err
	}

	if err := e.persistence.InstanceRepository().Save(ctx, instance); err != nil {
		return fmt.Errorf("failed to save suspended instance %s: %w", instance.ID, err)
	}

	logger.Info("Workflow instance suspended by handler", "node_id", node.ID)

	e.publish(ctx, instance, events.InstanceSuspended{
		BaseEvent: events.NewBaseEvent(events.InstanceSuspendedEvent, instance.WorkflowID, instance.ID),
		NodeID:    node.ID,
	})

	return nil
}

// Suspend moves a Running instance to Suspended. The running loop observes
// the change at the next node boundary.
func (e *Executor) Suspend(ctx context.Context, instanceID string) (*models.WorkflowInstance, error) {
	return e.transitionInstance(ctx, instanceID, models.InstanceStatusSuspended, func(instance *models.WorkflowInstance) eventbus.Event {
		return events.InstanceSuspended{
			BaseEvent: events.NewBaseEvent(events.InstanceSuspendedEvent, instance.WorkflowID, instance.ID),
			NodeID:    instance.CurrentNodeID,
		}
	})
}

// Cancel terminates a Running or Suspended instance. Cancellation is
// cooperative: a node already mid-flight finishes, but nothing after it runs.
func (e *Executor) Cancel(ctx context.Context, instanceID string) (*models.WorkflowInstance, error) {
	return e.transitionInstance(ctx, instanceID, models.InstanceStatusCancelled, func(instance *models.WorkflowInstance) eventbus.Event {
		return events.InstanceCancelled{
			BaseEvent: events.NewBaseEvent(events.InstanceCancelledEvent, instance.WorkflowID, instance.ID),
			NodeID:    instance.CurrentNodeID,
		}
	})
}

// Resume moves a Suspended instance back to Running and synchronously
// continues execution from the stored current-node pointer using the
// stored data snapshot. Completed nodes are not replayed.
func (e *Executor) Resume(ctx context.Context, instanceID string) (*models.WorkflowInstance, error) {
	instance, err := e.transitionInstance(ctx, instanceID, models.InstanceStatusRunning, func(instance *models.WorkflowInstance) eventbus.Event {
		return events.InstanceResumed{
			BaseEvent: events.NewBaseEvent(events.InstanceResumedEvent, instance.WorkflowID, instance.ID),
			NodeID:    instance.CurrentNodeID,
		}
	})
	if err != nil {
		return nil, err
	}

	workflow, err := e.persistence.WorkflowRepository().GetByIDAndVersion(ctx, instance.WorkflowID, instance.WorkflowVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", instance.WorkflowID, err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("Resume", instance.WorkflowID, persistence.ErrWorkflowVersionNotFound)
	}

	plan, err := Compile(workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow %s: %w", instance.WorkflowID, err)
	}

	startIndex := 0
	if instance.CurrentNodeID != "" {
		startIndex = plan.IndexOf(instance.CurrentNodeID)
		if startIndex < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotInPlan, instance.CurrentNodeID)
		}
	}

	logger := e.logger.With("workflow_id", instance.WorkflowID, "instance_id", instance.ID)
	logger.Info("Resuming workflow instance", "node_id", instance.CurrentNodeID)

	if err := e.run(ctx, logger, plan, instance, startIndex); err != nil {
		return nil, err
	}

	return instance, nil
}

// transitionInstance applies a validated status change under the
// per-instance lock. Attempts against terminal instances surface
// models.ErrInvalidTransition, never a silent no-op.
func (e *Executor) transitionInstance(ctx context.Context, instanceID string, to models.InstanceStatus, eventFor func(*models.WorkflowInstance) eventbus.Event) (*models.WorkflowInstance, error) {
	mu := e.instanceLock(instanceID)
	mu.Lock()
	defer mu.Unlock()

	instance, err := e.persistence.InstanceRepository().GetByID(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instance %s: %w", instanceID, err)
	}

	if instance == nil {
		return nil, persistence.NewInstanceError("Transition", instanceID, persistence.ErrInstanceNotFound)
	}

	if err := instance.Transition(to); err != nil {
		return nil, err
	}

	if err := e.persistence.InstanceRepository().Save(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save instance %s: %w", instanceID, err)
	}

	e.publish(ctx, instance, eventFor(instance))

	return instance, nil
}

// GetInstance returns the instance by id. Read-only; never mutates state.
func (e *Executor) GetInstance(ctx context.Context, instanceID string) (*models.WorkflowInstance, error) {
	instance, err := e.persistence.InstanceRepository().GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance == nil {
		return nil, persistence.NewInstanceError("GetByID", instanceID, persistence.ErrInstanceNotFound)
	}

	return instance, nil
}

// ListInstances returns instances of one workflow with an optional status filter.
func (e *Executor) ListInstances(ctx context.Context, workflowID string, status *models.InstanceStatus) ([]*models.WorkflowInstance, error) {
	return e.persistence.InstanceRepository().ListByWorkflow(ctx, workflowID, status)
}

func (e *Executor) publish(ctx context.Context, instance *models.WorkflowInstance, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, instance.WorkflowID, event); err != nil {
		e.logger.Warn("Failed to publish instance event", "instance_id", instance.ID, "event_type", event.GetType(), "error", err)
	}
}
