package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
)

const maxNameLength = 255

// Service owns user accounts and their password hashes.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
}

// ProfileUpdate carries the fields a user may change about themselves. Nil
// fields are left alone.
type ProfileUpdate struct {
	Name     *string
	Password *string
}

func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	return s.createUser(ctx, input, false)
}

// CreateSuperuser creates a staff account with every permission.
func (s *Service) CreateSuperuser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	return s.createUser(ctx, input, true)
}

func (s *Service) createUser(ctx context.Context, input CreateUserInput, superuser bool) (*models.User, error) {
	email := validation.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	errs := validation.Errors{}
	switch {
	case email == "":
		errs.Add("email", "This field may not be blank.")
	case !validation.IsValidEmail(email):
		errs.Add("email", "Enter a valid email address.")
	}
	if msg := passwordProblem(input.Password); msg != "" {
		errs.Add("password", msg)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		errs.Add("name", "Ensure this field has no more than 255 characters.")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	// Check if user exists
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &user, nil
}

// VerifyCredentials returns the active user matching email and password. Every
// failure is reported as ErrInvalidCredentials.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			burnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) (*models.User, error) {
	changes := map[string]interface{}{}
	errs := validation.Errors{}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if utf8.RuneCountInString(name) > maxNameLength {
			errs.Add("name", "Ensure this field has no more than 255 characters.")
		}
		changes["name"] = name
	}

	if update.Password != nil {
		if msg := passwordProblem(*update.Password); msg != "" {
			errs.Add("password", msg)
		} else {
			hash, err := HashPassword(*update.Password)
			if err != nil {
				return nil, fmt.Errorf("hashing password: %w", err)
			}
			changes["password_hash"] = hash
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("updating user: %w", err)
		}
	}

	return s.GetUserByID(ctx, id)
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
