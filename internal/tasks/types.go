package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeActivityRecord = "activity:record"
	TypeActivityPrune  = "activity:prune"
)

// ActivityPayload describes one thing a user did through the API
type ActivityPayload struct {
	UserID     uint      `json:"user_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   uint      `json:"entity_id,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewActivityTask(payload ActivityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeActivityRecord, data, asynq.Queue("low"), asynq.MaxRetry(5)), nil
}

// ActivityPrunePayload removes activity older than RetentionDays
type ActivityPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

func NewActivityPruneTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(ActivityPrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeActivityPrune, data, asynq.Queue("low"), asynq.MaxRetry(1)), nil
}
