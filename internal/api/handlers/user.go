package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/go-recipes/internal/activity"
	"github.com/hugh/go-recipes/internal/api/dto"
	"github.com/hugh/go-recipes/internal/api/middleware"
	"github.com/hugh/go-recipes/internal/auth"
	"github.com/hugh/go-recipes/internal/database/models"
)

type UserHandler struct {
	users    auth.Authenticator
	tokens   auth.TokenIssuer
	activity activity.Recorder
	logger   *slog.Logger
}

func NewUserHandler(users auth.Authenticator, tokens auth.TokenIssuer, recorder activity.Recorder, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, activity: recorder, logger: logger}
}

func userResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{Email: u.Email, Name: u.Name}
}

// Create handles POST /api/user/create
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), auth.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.activity.Record(r.Context(), activity.EntityEvent(user.ID, "user", activity.VerbCreate, user.ID, middleware.ClientIP(r)))
	writeJSON(w, http.StatusCreated, userResponse(user))
}

// Token handles POST /api/user/token
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.activity.Record(r.Context(), activity.Event{
		UserID:    token.UserID,
		Action:    activity.ActionTokenIssue,
		IPAddress: middleware.ClientIP(r),
	})
	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token.Key})
}

// Me handles GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Authentication credentials were not provided."})
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// UpdateMe handles PUT (partial=false) and PATCH (partial=true) /api/user/me
func (h *UserHandler) UpdateMe(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Authentication credentials were not provided."})
			return
		}

		var req dto.UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err := req.Validate(partial); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		user, err := h.users.UpdateProfile(r.Context(), userID, auth.ProfileUpdate{
			Name:     req.Name,
			Password: req.Password,
		})
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		h.activity.Record(r.Context(), activity.Event{
			UserID:     user.ID,
			Action:     activity.ActionProfileUpdate,
			EntityType: "user",
			EntityID:   user.ID,
			IPAddress:  middleware.ClientIP(r),
		})
		writeJSON(w, http.StatusOK, userResponse(user))
	}
}
