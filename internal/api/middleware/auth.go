package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hugh/go-recipes/internal/auth"
	"github.com/hugh/go-recipes/internal/database/models"
)

type contextKey string

const (
	UserKey   contextKey = "user"
	UserIDKey contextKey = "user_id"
)

// TokenResolver maps a token key to its owner.
type TokenResolver interface {
	ResolveToken(ctx context.Context, key string) (*models.User, error)
}

// Auth requires an "Authorization: <scheme> <key>" header naming a live token.
// Schemes are matched case-insensitively; "Token" is accepted when none are given.
func Auth(resolver TokenResolver, schemes []string, logger *slog.Logger) func(http.Handler) http.Handler {
	if len(schemes) == 0 {
		schemes = []string{"Token"}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := tokenFromHeader(r.Header.Get("Authorization"), schemes)
			if !ok {
				unauthorized(w, schemes[0], "Authentication credentials were not provided.")
				return
			}

			user, err := resolver.ResolveToken(r.Context(), key)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					unauthorized(w, schemes[0], "Invalid token.")
					return
				}
				logger.Error("resolving token failed", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			// Add user to context
			ctx := r.Context()
			ctx = context.WithValue(ctx, UserKey, user)
			ctx = context.WithValue(ctx, UserIDKey, user.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromHeader(header string, schemes []string) (string, bool) {
	scheme, key, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsRune(key, ' ') {
		return "", false
	}
	for _, s := range schemes {
		if strings.EqualFold(scheme, s) {
			return key, true
		}
	}
	return "", false
}

func unauthorized(w http.ResponseWriter, scheme, message string) {
	w.Header().Set("WWW-Authenticate", scheme)
	writeError(w, http.StatusUnauthorized, message)
}

// Helper functions to extract values from context
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserKey).(*models.User); ok {
		return user
	}
	return nil
}

func GetUserID(ctx context.Context) uint {
	if id, ok := ctx.Value(UserIDKey).(uint); ok {
		return id
	}
	return 0
}

// WithUser returns a copy of ctx carrying user, as Auth does.
func WithUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, UserKey, user)
	return context.WithValue(ctx, UserIDKey, user.ID)
}

// RequireStaff only lets staff users through.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsStaff {
			writeError(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
