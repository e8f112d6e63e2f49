package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActivity(t *testing.T, s *testServer, userID uint, action string, at time.Time) {
	t.Helper()
	entry := models.ActivityLog{UserID: userID, Action: action}
	entry.CreatedAt = at
	require.NoError(t, s.DB.Create(&entry).Error)
}

func TestActivityHandler_List(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.DB.Model(s.User).Update("is_staff", true).Error)
	other, otherToken := s.AddUser(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seedActivity(t, s, s.User.ID, "token.issue", base)
	seedActivity(t, s, other.ID, "recipe.create", base.Add(time.Minute))
	seedActivity(t, s, other.ID, "recipe.delete", base.Add(2*time.Minute))

	t.Run("newest first", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/admin/activity", nil, s.Token)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp []models.ActivityLog
		testutil.ParseJSONResponse(t, rr, &resp)
		require.Len(t, resp, 3)
		assert.Equal(t, "recipe.delete", resp[0].Action)
		assert.Equal(t, "token.issue", resp[2].Action)
	})

	t.Run("filters", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, fmt.Sprintf("/api/admin/activity?user_id=%d&limit=1", other.ID), nil, s.Token)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp []models.ActivityLog
		testutil.ParseJSONResponse(t, rr, &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, "recipe.delete", resp[0].Action)

		rr = s.do(t, http.MethodGet, "/api/admin/activity?action=token.issue", nil, s.Token)
		testutil.ParseJSONResponse(t, rr, &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, s.User.ID, resp[0].UserID)
	})

	t.Run("bad parameters", func(t *testing.T) {
		for _, query := range []string{"user_id=me", "limit=0", "limit=ten"} {
			rr := s.do(t, http.MethodGet, "/api/admin/activity?"+query, nil, s.Token)
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		}
	})

	t.Run("staff only", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/admin/activity", nil, otherToken)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}
