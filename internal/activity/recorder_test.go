package activity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-recipes/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestQueueRecorder_Record(t *testing.T) {
	enq := &fakeEnqueuer{}
	rec := NewQueueRecorder(enq, slog.New(slog.NewTextHandler(io.Discard, nil)))
	fixed := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	rec.Record(context.Background(), EntityEvent(3, "recipe", VerbDelete, 11, "10.0.0.1"))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, tasks.TypeActivityRecord, enq.tasks[0].Type())

	var payload tasks.ActivityPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, tasks.ActivityPayload{
		UserID:     3,
		Action:     "recipe.delete",
		EntityType: "recipe",
		EntityID:   11,
		IPAddress:  "10.0.0.1",
		OccurredAt: fixed,
	}, payload)
}

func TestQueueRecorder_EnqueueFailureIsSwallowed(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis unavailable")}
	rec := NewQueueRecorder(enq, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), Event{UserID: 1, Action: ActionTokenIssue})
	})
}

func TestQueueRecorder_CanceledRequestContext(t *testing.T) {
	enq := &fakeEnqueuer{}
	rec := NewQueueRecorder(enq, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, Event{UserID: 1, Action: ActionUserCreate})

	assert.Len(t, enq.tasks, 1)
}
