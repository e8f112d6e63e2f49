package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugh/go-recipes/internal/database/models"
	"gorm.io/gorm"
)

var ErrInvalidToken = errors.New("invalid token")

const keyBytes = 20

// GenerateKey returns a random 40 character hex token key.
func GenerateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// TokenService issues and resolves opaque per-user tokens.
type TokenService struct {
	db       *gorm.DB
	users    *Service
	ttl      time.Duration
	cache    TokenCache
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type TokenOption func(*TokenService)

// WithCache puts a lookup cache in front of the token table.
func WithCache(cache TokenCache, ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service. A zero ttl means tokens never expire.
func NewTokenService(db *gorm.DB, users *Service, ttl time.Duration, logger *slog.Logger, opts ...TokenOption) *TokenService {
	s := &TokenService{
		db:     db,
		users:  users,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueToken checks the credentials and returns the user's token, creating it
// on first login or when the previous one has expired.
func (s *TokenService) IssueToken(ctx context.Context, email, password string) (*models.AuthToken, error) {
	user, err := s.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, replaced, err := s.getOrCreate(ctx, user.ID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent login created the token first.
		token, replaced, err = s.getOrCreate(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	if replaced != "" {
		s.evict(ctx, replaced)
	}
	token.User = user
	return token, nil
}

func (s *TokenService) getOrCreate(ctx context.Context, userID uint) (*models.AuthToken, string, error) {
	var (
		token    models.AuthToken
		replaced string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&token).Error
		switch {
		case err == nil:
			if !token.Expired(s.ttl, s.now()) {
				return nil
			}
			if err := tx.Delete(&token).Error; err != nil {
				return err
			}
			replaced = token.Key
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		key, err := GenerateKey()
		if err != nil {
			return err
		}
		token = models.AuthToken{Key: key, UserID: userID, CreatedAt: s.now()}
		return tx.Create(&token).Error
	})
	if err != nil {
		return nil, "", err
	}
	return &token, replaced, nil
}

// ResolveToken returns the active owner of key. Every failure is ErrInvalidToken.
func (s *TokenService) ResolveToken(ctx context.Context, key string) (*models.User, error) {
	if key == "" || len(key) > 2*keyBytes {
		return nil, ErrInvalidToken
	}

	if user := s.fromCache(ctx, key); user != nil {
		return user, nil
	}

	var token models.AuthToken
	err := s.db.WithContext(ctx).Preload("User").Where(&models.AuthToken{Key: key}).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading token: %w", err)
	}

	now := s.now()
	if token.Expired(s.ttl, now) {
		if err := s.db.WithContext(ctx).Delete(&token).Error; err != nil {
			s.logger.Warn("failed to delete expired token", "user_id", token.UserID, "error", err)
		}
		return nil, ErrInvalidToken
	}

	if token.User == nil || !token.User.IsActive {
		return nil, ErrInvalidToken
	}

	s.remember(ctx, &token, now)
	return token.User, nil
}

func (s *TokenService) fromCache(ctx context.Context, key string) *models.User {
	if s.cache == nil {
		return nil
	}

	userID, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("token cache lookup failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || !user.IsActive {
		s.evict(ctx, key)
		return nil
	}
	return user
}

// remember caches the token for at most its remaining lifetime.
func (s *TokenService) remember(ctx context.Context, token *models.AuthToken, now time.Time) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	ttl := s.cacheTTL
	if s.ttl > 0 {
		if left := token.CreatedAt.Add(s.ttl).Sub(now); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return
	}

	if err := s.cache.Set(ctx, token.Key, token.UserID, ttl); err != nil {
		s.logger.Warn("token cache write failed", "error", err)
	}
}

func (s *TokenService) evict(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("token cache eviction failed", "error", err)
	}
}
