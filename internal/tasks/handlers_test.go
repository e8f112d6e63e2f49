package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)

	handler := NewHandler(db, testutil.DiscardLogger())

	assert.NotNil(t, handler)
	assert.NotNil(t, handler.db)
	assert.NotNil(t, handler.logger)
}

func TestHandleActivityRecord(t *testing.T) {
	setup := testutil.NewTestContext(t)
	handler := NewHandler(setup.DB, testutil.DiscardLogger())

	occurred := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	task, err := NewActivityTask(ActivityPayload{
		UserID:     setup.User.ID,
		Action:     "recipe.create",
		EntityType: "recipe",
		EntityID:   42,
		IPAddress:  "203.0.113.5",
		OccurredAt: occurred,
	})
	require.NoError(t, err)
	assert.Equal(t, TypeActivityRecord, task.Type())

	require.NoError(t, handler.HandleActivityRecord(context.Background(), task))

	var logs []models.ActivityLog
	require.NoError(t, setup.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, setup.User.ID, logs[0].UserID)
	assert.Equal(t, "recipe.create", logs[0].Action)
	assert.Equal(t, uint(42), logs[0].EntityID)
	assert.Equal(t, "203.0.113.5", logs[0].IPAddress)
	assert.True(t, occurred.Equal(logs[0].CreatedAt))
	assert.NotEmpty(t, logs[0].ID.String())
}

func TestHandleActivityRecord_InvalidPayload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewHandler(db, testutil.DiscardLogger())

	err := handler.HandleActivityRecord(context.Background(), asynq.NewTask(TypeActivityRecord, []byte("invalid json")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal payload")
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	task, err := NewActivityTask(ActivityPayload{UserID: 1})
	require.NoError(t, err)
	err = handler.HandleActivityRecord(context.Background(), task)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleActivityPrune(t *testing.T) {
	setup := testutil.NewTestContext(t)
	handler := NewHandler(setup.DB, testutil.DiscardLogger())
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }

	for _, age := range []time.Duration{time.Hour, 10 * 24 * time.Hour, 100 * 24 * time.Hour} {
		entry := models.ActivityLog{UserID: setup.User.ID, Action: "token.issue"}
		entry.CreatedAt = now.Add(-age)
		require.NoError(t, setup.DB.Create(&entry).Error)
	}

	task, err := NewActivityPruneTask(30)
	require.NoError(t, err)
	require.NoError(t, handler.HandleActivityPrune(context.Background(), task))

	var remaining int64
	setup.DB.Model(&models.ActivityLog{}).Count(&remaining)
	assert.Equal(t, int64(2), remaining)

	t.Run("zero retention keeps everything", func(t *testing.T) {
		task, err := NewActivityPruneTask(0)
		require.NoError(t, err)
		require.NoError(t, handler.HandleActivityPrune(context.Background(), task))

		var count int64
		setup.DB.Model(&models.ActivityLog{}).Count(&count)
		assert.Equal(t, int64(2), count)
	})
}

func TestRegisterHandlers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewHandler(db, testutil.DiscardLogger())

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	for _, taskType := range []string{TypeActivityRecord, TypeActivityPrune} {
		_, pattern := mux.Handler(asynq.NewTask(taskType, nil))
		assert.Equal(t, taskType, pattern)
	}
}
