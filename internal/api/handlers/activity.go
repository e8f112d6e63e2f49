package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/internal/validation"
	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityHandler lets staff read the audit trail.
type ActivityHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewActivityHandler(db *gorm.DB, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{db: db, logger: logger}
}

// List handles GET /api/admin/activity, newest first. Optional filters:
// user_id, action, limit.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := h.db.WithContext(r.Context()).Model(&models.ActivityLog{}).Order("created_at DESC")

	if raw := query.Get("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, h.logger, validation.Errors{"user_id": "A valid integer is required."})
			return
		}
		q = q.Where("user_id = ?", userID)
	}
	if action := query.Get("action"); action != "" {
		q = q.Where("action = ?", action)
	}

	limit := defaultActivityLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, h.logger, validation.Errors{"limit": "A valid positive integer is required."})
			return
		}
		limit = min(n, maxActivityLimit)
	}

	logs := []models.ActivityLog{}
	if err := q.Limit(limit).Find(&logs).Error; err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
