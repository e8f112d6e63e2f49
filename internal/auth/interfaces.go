package auth

import (
	"context"

	"github.com/hugh/go-recipes/internal/database/models"
)

// Authenticator defines the interface for user account operations.
type Authenticator interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenIssuer defines the interface for auth token operations.
type TokenIssuer interface {
	IssueToken(ctx context.Context, email, password string) (*models.AuthToken, error)
	ResolveToken(ctx context.Context, key string) (*models.User, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator = (*Service)(nil)
	_ TokenIssuer   = (*TokenService)(nil)
	_ TokenCache    = (*RedisTokenCache)(nil)
)
