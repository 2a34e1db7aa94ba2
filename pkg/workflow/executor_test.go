package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fluxion-ai/fluxion/pkg/handlers/llmcall"
	"github.com/fluxion-ai/fluxion/pkg/handlers/output"
	"github.com/fluxion-ai/fluxion/pkg/handlers/passthrough"
	"github.com/fluxion-ai/fluxion/pkg/llm"
	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/persistence"
	"github.com/fluxion-ai/fluxion/pkg/persistence/file"
	"github.com/fluxion-ai/fluxion/pkg/protocol"
	"github.com/fluxion-ai/fluxion/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcHandler adapts a closure into a node handler for test workflows.
type funcHandler struct {
	fn func(ctx context.Context, node *models.WorkflowNode, data *models.WorkflowData) error
}

func (h *funcHandler) Execute(ctx context.Context, node *models.WorkflowNode, data *models.WorkflowData) error {
	return h.fn(ctx, node, data)
}

type funcFactory struct {
	nodeType string
	handler  protocol.NodeHandler
}

func (f *funcFactory) ID() string { return f.nodeType }

func (f *funcFactory) Create(_ map[string]any) (protocol.NodeHandler, error) {
	return f.handler, nil
}

func testRegistry(t *testing.T, llmClient llm.Client) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	reg.MustRegister(passthrough.NewFactory(models.NodeTypeStart))
	reg.MustRegister(passthrough.NewFactory(models.NodeTypeInput))
	reg.MustRegister(passthrough.NewFactory(models.NodeTypeEnd))
	reg.MustRegister(output.NewFactory())
	reg.MustRegister(llmcall.NewFactory(llmClient))

	return reg
}

func saveWorkflow(t *testing.T, p persistence.Persistence, workflow *models.Workflow) {
	t.Helper()
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), workflow))
}

func linearWorkflow(nodes ...*models.WorkflowNode) *models.Workflow {
	return &models.Workflow{
		ID:          "wf-1",
		Name:        "Test workflow",
		Version:     1,
		Status:      models.WorkflowStatusPublished,
		WorkspaceID: "ws-1",
		Nodes:       nodes,
	}
}

func TestExecutor_ExecuteCompletes(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "the summary"})
	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "llm-1", Type: models.NodeTypeLlmCall},
		&models.WorkflowNode{ID: "output-1", Type: models.NodeTypeOutput, Config: map[string]any{"result_key": "output"}},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "ref-1", map[string]string{"prompt": "summarize"}, "")
	require.NoError(t, err)
	require.NotNil(t, instance)

	assert.Equal(t, models.InstanceStatusCompleted, instance.Status)
	assert.Equal(t, 1, instance.WorkflowVersion)
	assert.Equal(t, "ref-1", instance.ReferenceID)
	assert.Empty(t, instance.CurrentNodeID)
	require.NotNil(t, instance.EndedAt)

	result, ok := instance.Data.GetString("output")
	require.True(t, ok)
	assert.Equal(t, "the summary", result)

	// The terminal record is persisted, not just in memory.
	stored, err := executor.GetInstance(t.Context(), instance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusCompleted, stored.Status)
}

func TestExecutor_ExecuteStopsAtTerminalNode(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})

	executed := false
	reg.MustRegister(&funcFactory{nodeType: "probe", handler: &funcHandler{
		fn: func(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
			executed = true

			return nil
		},
	}})

	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "end-1", Type: models.NodeTypeEnd},
		&models.WorkflowNode{ID: "probe-1", Type: "probe"},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusCompleted, instance.Status)
	assert.False(t, executed, "nodes after a terminal node must not run")
}

func TestExecutor_ExecuteHandlerFailure(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Err: llm.ErrUpstreamUnavailable})
	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "llm-1", Type: models.NodeTypeLlmCall},
		&models.WorkflowNode{ID: "output-1", Type: models.NodeTypeOutput},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "", map[string]string{"prompt": "summarize"}, "")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, instance.Status)
	assert.Equal(t, "llm-1", instance.CurrentNodeID, "failure must be attributable to the failing node")
	assert.Contains(t, instance.ErrorMessage, "upstream")
	require.NotNil(t, instance.EndedAt)

	// A failed instance accepts no further transitions.
	_, err = executor.Resume(t.Context(), instance.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestExecutor_ExecuteUnknownNodeType(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "mystery-1", Type: "teleport"},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, instance.Status)
	assert.Contains(t, instance.ErrorMessage, "not supported")
}

func TestExecutor_ExecuteNotPublished(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	executor := NewExecutor(slog.Default(), p, reg)

	workflow := linearWorkflow(&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart})
	workflow.Status = models.WorkflowStatusDraft
	saveWorkflow(t, p, workflow)

	_, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowNotExecutable)
}

func TestExecutor_ExecuteWorkflowNotFound(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	executor := NewExecutor(slog.Default(), p, reg)

	_, err := executor.Execute(t.Context(), "missing", "", nil, "")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecutor_ExecuteSeedsInputData(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "", map[string]string{"tenant": "t-1"}, `{"count": 2}`)
	require.NoError(t, err)

	tenant, _ := instance.Data.GetString("tenant")
	assert.Equal(t, "t-1", tenant)

	count, ok := instance.Data.Get("count")
	require.True(t, ok)
	assert.EqualValues(t, 2, count)
}

func TestExecutor_SuspendAndResume(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})

	beforeRuns := 0
	reg.MustRegister(&funcFactory{nodeType: "count_before", handler: &funcHandler{
		fn: func(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
			beforeRuns++

			return nil
		},
	}})

	// The review node asks for suspension on its first run only, the way a
	// human-approval step would.
	reviewRuns := 0
	reg.MustRegister(&funcFactory{nodeType: "review", handler: &funcHandler{
		fn: func(_ context.Context, _ *models.WorkflowNode, data *models.WorkflowData) error {
			reviewRuns++
			if reviewRuns == 1 {
				return protocol.ErrSuspendRequested
			}

			data.Set("approved", true)

			return nil
		},
	}})

	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "before-1", Type: "count_before"},
		&models.WorkflowNode{ID: "review-1", Type: "review"},
		&models.WorkflowNode{ID: "output-1", Type: models.NodeTypeOutput},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusSuspended, instance.Status)
	assert.Equal(t, "review-1", instance.CurrentNodeID)
	assert.Nil(t, instance.EndedAt)

	resumed, err := executor.Resume(t.Context(), instance.ID)
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusCompleted, resumed.Status)
	assert.Equal(t, 1, beforeRuns, "completed nodes must not be replayed")
	assert.Equal(t, 2, reviewRuns, "the suspending node is re-run on resume")

	approved, ok := resumed.Data.Get("approved")
	require.True(t, ok)
	assert.Equal(t, true, approved)
}

func TestExecutor_CancelSuspendedInstance(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	reg.MustRegister(&funcFactory{nodeType: "review", handler: &funcHandler{
		fn: func(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
			return protocol.ErrSuspendRequested
		},
	}})

	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "review-1", Type: "review"},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)
	require.Equal(t, models.InstanceStatusSuspended, instance.Status)

	cancelled, err := executor.Cancel(t.Context(), instance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.EndedAt)

	// Cancelled is terminal.
	_, err = executor.Resume(t.Context(), instance.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = executor.Cancel(t.Context(), instance.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestExecutor_ResumeUsesPinnedVersion(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	reg.MustRegister(&funcFactory{nodeType: "review", handler: &funcHandler{
		fn: func(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
			return protocol.ErrSuspendRequested
		},
	}})

	v2Runs := 0
	reg.MustRegister(&funcFactory{nodeType: "v2_only", handler: &funcHandler{
		fn: func(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
			v2Runs++

			return nil
		},
	}})

	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "review-1", Type: "review"},
		&models.WorkflowNode{ID: "end-1", Type: models.NodeTypeEnd},
	))

	instance, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)
	require.Equal(t, models.InstanceStatusSuspended, instance.Status)

	// Publish a new definition version while the instance sleeps. The
	// review node disappears; resuming against v2 would panic the pointer.
	saveWorkflow(t, p, &models.Workflow{
		ID:          "wf-1",
		Name:        "Test workflow",
		Version:     2,
		Status:      models.WorkflowStatusPublished,
		WorkspaceID: "ws-1",
		Nodes: []*models.WorkflowNode{
			{ID: "start-1", Type: models.NodeTypeStart},
			{ID: "v2-1", Type: "v2_only"},
			{ID: "end-1", Type: models.NodeTypeEnd},
		},
	})

	// The review handler suspends every run, so resume suspends again
	// rather than completing. What matters is that it resumed against the
	// pinned v1 plan.
	resumed, err := executor.Resume(t.Context(), instance.ID)
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusSuspended, resumed.Status)
	assert.Equal(t, 1, resumed.WorkflowVersion)
	assert.Equal(t, "review-1", resumed.CurrentNodeID)
	assert.Zero(t, v2Runs, "nodes introduced after pinning must not run")
}

func TestExecutor_GetInstanceNotFound(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	executor := NewExecutor(slog.Default(), p, reg)

	_, err := executor.GetInstance(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestExecutor_SuspendNotFound(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	executor := NewExecutor(slog.Default(), p, reg)

	_, err := executor.Suspend(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestExecutor_ListInstances(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
	))

	_, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)

	_, err = executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)

	all, err := executor.ListInstances(t.Context(), "wf-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := models.InstanceStatusCompleted
	filtered, err := executor.ListInstances(t.Context(), "wf-1", &completed)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
	assert.Equal(t, models.InstanceStatusCompleted, filtered[0].Status)
}

func TestExecutor_InstanceFailureDoesNotTouchWorkflow(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	reg := testRegistry(t, &llm.Static{Response: "unused"})
	reg.MustRegister(&funcFactory{nodeType: "boom", handler: &funcHandler{
		fn: func(_ context.Context, _ *models.WorkflowNode, _ *models.WorkflowData) error {
			return errors.New("node exploded")
		},
	}})

	executor := NewExecutor(slog.Default(), p, reg)

	saveWorkflow(t, p, linearWorkflow(
		&models.WorkflowNode{ID: "start-1", Type: models.NodeTypeStart},
		&models.WorkflowNode{ID: "boom-1", Type: "boom"},
	))

	failed, err := executor.Execute(t.Context(), "wf-1", "", nil, "")
	require.NoError(t, err)
	require.Equal(t, models.InstanceStatusFailed, failed.Status)

	// The definition stays published and other instances keep working.
	workflow, err := p.WorkflowRepository().GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPublished, workflow.Status)
}
