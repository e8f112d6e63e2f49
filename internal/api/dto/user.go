package dto

import "github.com/hugh/go-recipes/internal/validation"

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
}

func (r CreateUserRequest) Validate() error {
	return validation.Struct(r)
}

type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r TokenRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateProfileRequest is the body of PUT and PATCH /api/user/me. Email is
// read-only and ignored when sent.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Password *string `json:"password"`
}

// Validate checks the request. A full update must carry a password.
func (r UpdateProfileRequest) Validate(partial bool) error {
	errs := validation.Errors{}
	if err := validation.Struct(r); err != nil {
		verrs, ok := validation.As(err)
		if !ok {
			return err
		}
		errs = verrs
	}
	if !partial && r.Password == nil {
		errs.Add("password", "This field is required.")
	}
	return errs.Err()
}

type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
