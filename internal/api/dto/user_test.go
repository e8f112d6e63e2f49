package dto

import (
	"testing"

	"github.com/hugh/go-recipes/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRequest_Validate(t *testing.T) {
	assert.NoError(t, TokenRequest{Email: "a@b.com", Password: "x"}.Validate())

	errs, ok := validation.As(TokenRequest{Email: "one", Password: ""}.Validate())
	require.True(t, ok)
	assert.Equal(t, "This field is required.", errs["password"])
	assert.NotContains(t, errs, "email")
}

func TestCreateUserRequest_Validate(t *testing.T) {
	errs, ok := validation.As(CreateUserRequest{}.Validate())
	require.True(t, ok)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.NotContains(t, errs, "name")
}

func TestUpdateProfileRequest_Validate(t *testing.T) {
	name := "chef"
	password := "newpass1"

	assert.NoError(t, UpdateProfileRequest{Name: &name}.Validate(true))
	assert.NoError(t, UpdateProfileRequest{Password: &password}.Validate(false))

	errs, ok := validation.As(UpdateProfileRequest{Name: &name}.Validate(false))
	require.True(t, ok)
	assert.Equal(t, "This field is required.", errs["password"])

	long := string(make([]byte, 300))
	errs, ok = validation.As(UpdateProfileRequest{Name: &long}.Validate(true))
	require.True(t, ok)
	assert.Contains(t, errs, "name")
}
