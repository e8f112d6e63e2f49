package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-recipes/internal/database/models"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeActivityRecord, h.HandleActivityRecord)
	mux.HandleFunc(TypeActivityPrune, h.HandleActivityPrune)
}

func (h *Handler) HandleActivityRecord(ctx context.Context, t *asynq.Task) error {
	var payload ActivityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Action == "" {
		return fmt.Errorf("activity without action: %w", asynq.SkipRetry)
	}

	entry := models.ActivityLog{
		UserID:     payload.UserID,
		Action:     payload.Action,
		EntityType: payload.EntityType,
		EntityID:   payload.EntityID,
		IPAddress:  payload.IPAddress,
	}
	entry.CreatedAt = payload.OccurredAt

	if err := h.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("storing activity: %w", err)
	}

	h.logger.Debug("activity recorded",
		"user_id", payload.UserID,
		"action", payload.Action,
		"entity_id", payload.EntityID,
	)
	return nil
}

func (h *Handler) HandleActivityPrune(ctx context.Context, t *asynq.Task) error {
	var payload ActivityPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionDays <= 0 {
		h.logger.Info("activity retention disabled, nothing to prune")
		return nil
	}

	cutoff := h.now().Add(-time.Duration(payload.RetentionDays) * 24 * time.Hour)
	result := h.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return fmt.Errorf("pruning activity: %w", result.Error)
	}

	h.logger.Info("activity pruned", "deleted", result.RowsAffected, "cutoff", cutoff)
	return nil
}
