package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hugh/go-recipes/internal/api/dto"
	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_Create(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]interface{}
		wantStatus  int
		wantDetails []string
	}{
		{
			name: "success",
			body: map[string]interface{}{
				"email":    "test@example.com",
				"password": "testpass123",
				"name":     "Test Name",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "short password",
			body: map[string]interface{}{
				"email":    "short@example.com",
				"password": "pw",
				"name":     "Test Name",
			},
			wantStatus:  http.StatusBadRequest,
			wantDetails: []string{"password"},
		},
		{
			name: "invalid email",
			body: map[string]interface{}{
				"email":    "not-an-email",
				"password": "testpass123",
			},
			wantStatus:  http.StatusBadRequest,
			wantDetails: []string{"email"},
		},
		{
			name:        "missing fields",
			body:        map[string]interface{}{},
			wantStatus:  http.StatusBadRequest,
			wantDetails: []string{"email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			rr := s.do(t, http.MethodPost, "/api/user/create", tt.body, "")
			testutil.AssertStatus(t, rr, tt.wantStatus)

			if tt.wantStatus != http.StatusCreated {
				var resp errorBody
				testutil.ParseJSONResponse(t, rr, &resp)
				for _, field := range tt.wantDetails {
					assert.Contains(t, resp.Details, field)
				}

				var count int64
				s.DB.Model(&models.User{}).Where("email = ?", tt.body["email"]).Count(&count)
				assert.Zero(t, count)
				return
			}

			var resp map[string]interface{}
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Equal(t, "test@example.com", resp["email"])
			assert.Equal(t, "Test Name", resp["name"])
			assert.NotContains(t, resp, "password")
			assert.Equal(t, []string{"user.create"}, s.recorder.actions())
		})
	}
}

func TestUserHandler_CreateDuplicate(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/user/create", map[string]string{
		"email":    strings.ToUpper(s.User.Email),
		"password": "testpass123",
	}, "")
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	var resp errorBody
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "user with this email already exists.", resp.Details["email"])
}

func TestUserHandler_CreateInvalidJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/user/create", strings.NewReader(`{"email":`))
	rr := s.doRaw(t, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	var resp errorBody
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "Invalid JSON body.", resp.Details["payload"])
}

func TestUserHandler_Token(t *testing.T) {
	s := newTestServer(t)

	t.Run("valid credentials", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/user/token", map[string]string{
			"email":    s.User.Email,
			"password": testutil.TestPassword,
		}, "")
		testutil.AssertStatus(t, rr, http.StatusOK)

		var first dto.TokenResponse
		testutil.ParseJSONResponse(t, rr, &first)
		assert.Equal(t, s.Token, first.Token)

		// Trailing slashes are accepted.
		rr = s.do(t, http.MethodPost, "/api/user/token/", map[string]string{
			"email":    s.User.Email,
			"password": testutil.TestPassword,
		}, "")
		testutil.AssertStatus(t, rr, http.StatusOK)

		var second dto.TokenResponse
		testutil.ParseJSONResponse(t, rr, &second)
		assert.Equal(t, first.Token, second.Token)
	})

	t.Run("new user gets a token", func(t *testing.T) {
		user, _ := s.AddUser(t)
		s.DB.Where("user_id = ?", user.ID).Delete(&models.AuthToken{})

		rr := s.do(t, http.MethodPost, "/api/user/token", map[string]string{
			"email":    user.Email,
			"password": testutil.TestPassword,
		}, "")
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.TokenResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Len(t, resp.Token, 40)
	})

	t.Run("bad credentials", func(t *testing.T) {
		for _, body := range []map[string]string{
			{"email": s.User.Email, "password": "wrongpass"},
			{"email": "nobody@example.com", "password": testutil.TestPassword},
		} {
			rr := s.do(t, http.MethodPost, "/api/user/token", body, "")
			testutil.AssertStatus(t, rr, http.StatusBadRequest)

			var resp errorBody
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Equal(t, "Unable to authenticate with provided credentials.", resp.Details["non_field_errors"])
		}
	})

	t.Run("blank password", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/user/token", map[string]string{
			"email":    s.User.Email,
			"password": "",
		}, "")
		testutil.AssertStatus(t, rr, http.StatusBadRequest)

		var resp errorBody
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Details, "password")
	})
}

func TestUserHandler_Me(t *testing.T) {
	s := newTestServer(t)

	t.Run("requires authentication", func(t *testing.T) {
		rr := s.doRaw(t, testutil.UnauthenticatedRequest(t, http.MethodGet, "/api/user/me", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		rr = s.do(t, http.MethodGet, "/api/user/me", nil, "not-a-real-token")
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("returns profile", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/user/me", nil, s.Token)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.UserResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, s.User.Email, resp.Email)
		assert.Equal(t, s.User.Name, resp.Name)
	})

	t.Run("post not allowed", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/user/me", map[string]string{}, s.Token)
		testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)

		var resp errorBody
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, `Method "POST" not allowed.`, resp.Error)
	})
}

func TestUserHandler_UpdateMe(t *testing.T) {
	s := newTestServer(t)

	t.Run("patch name and password", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, "/api/user/me", map[string]string{
			"name":     "Updated Name",
			"password": "newpassword123",
		}, s.Token)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.UserResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Updated Name", resp.Name)

		rr = s.do(t, http.MethodPost, "/api/user/token", map[string]string{
			"email":    s.User.Email,
			"password": "newpassword123",
		}, "")
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = s.do(t, http.MethodPost, "/api/user/token", map[string]string{
			"email":    s.User.Email,
			"password": testutil.TestPassword,
		}, "")
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("email is read only", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, "/api/user/me", map[string]string{
			"email": "other@example.com",
		}, s.Token)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.UserResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, s.User.Email, resp.Email)
	})

	t.Run("put requires password", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/api/user/me", map[string]string{"name": "Only Name"}, s.Token)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)

		var resp errorBody
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "This field is required.", resp.Details["password"])
	})

	t.Run("short password rejected", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, "/api/user/me", map[string]string{"password": "pw"}, s.Token)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("records activity", func(t *testing.T) {
		require.Contains(t, s.recorder.actions(), "user.update")
	})
}
