package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/fluxion-ai/fluxion/pkg/channels/gochannel"
	"github.com/fluxion-ai/fluxion/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Logf("Failed to close event bus: %v", err)
		}
	})

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan any, 1)
	require.NoError(t, bus.Handle(events.InstanceCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	require.NoError(t, bus.Subscribe(t.Context()))

	event := events.InstanceCompleted{
		BaseEvent:     events.NewBaseEvent(events.InstanceCompletedEvent, "wf-1", "inst-1"),
		DurationMs:    120,
		NodesExecuted: 3,
	}

	require.NoError(t, bus.Publish(t.Context(), "wf-1", event))

	select {
	case got := <-received:
		completed, ok := got.(*events.InstanceCompleted)
		require.True(t, ok)
		assert.Equal(t, "wf-1", completed.WorkflowID)
		assert.Equal(t, "inst-1", completed.InstanceID)
		assert.Equal(t, 3, completed.NodesExecuted)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
