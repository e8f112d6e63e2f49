package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-recipes/internal/tasks"
)

const (
	ActionUserCreate    = "user.create"
	ActionTokenIssue    = "token.issue"
	ActionProfileUpdate = "user.update"

	VerbCreate = "create"
	VerbUpdate = "update"
	VerbDelete = "delete"
)

// Event is one user action worth auditing.
type Event struct {
	UserID     uint
	Action     string
	EntityType string
	EntityID   uint
	IPAddress  string
}

// EntityEvent builds an event such as "recipe.delete" for one row.
func EntityEvent(userID uint, entityType, verb string, entityID uint, ip string) Event {
	return Event{
		UserID:     userID,
		Action:     entityType + "." + verb,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  ip,
	}
}

// Recorder accepts audit events. Recording never fails the caller.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Enqueuer is the part of *asynq.Client the recorder needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueRecorder hands events to the worker through asynq.
type QueueRecorder struct {
	client Enqueuer
	logger *slog.Logger
	now    func() time.Time
}

func NewQueueRecorder(client Enqueuer, logger *slog.Logger) *QueueRecorder {
	return &QueueRecorder{client: client, logger: logger, now: time.Now}
}

func (r *QueueRecorder) Record(ctx context.Context, event Event) {
	task, err := tasks.NewActivityTask(tasks.ActivityPayload{
		UserID:     event.UserID,
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		IPAddress:  event.IPAddress,
		OccurredAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.Error("failed to build activity task", "action", event.Action, "error", err)
		return
	}

	// The request may finish before the enqueue does.
	ctx = context.WithoutCancel(ctx)
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		r.logger.Warn("failed to enqueue activity", "action", event.Action, "user_id", event.UserID, "error", err)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(context.Context, Event) {}

var (
	_ Recorder = (*QueueRecorder)(nil)
	_ Recorder = Discard{}
	_ Enqueuer = (*asynq.Client)(nil)
)
