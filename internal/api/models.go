package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/uservault/uservault-api/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Login    string `json:"login"    validate:"required,alphanum"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateAccountRequest defines the payload for the account creation endpoint.
// Field patterns are re-checked by the domain layer; the struct tags reject
// the obviously malformed payloads before the service is involved.
type CreateAccountRequest struct {
	Login    string     `json:"login"    validate:"required,alphanum"`
	Password string     `json:"password" validate:"required,alphanum"`
	Name     string     `json:"name"     validate:"required"`
	Gender   int        `json:"gender"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Admin    bool       `json:"admin"`
}

// CreateAccountResponse carries the new account's ID.
type CreateAccountResponse struct {
	ID uuid.UUID `json:"id"`
}

// RenameRequest defines the payload for the display-name change endpoint.
type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

// ChangePasswordRequest defines the payload for the password change endpoint.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,alphanum"`
}

// ChangeLoginRequest defines the payload for the login change endpoint.
type ChangeLoginRequest struct {
	NewLogin string `json:"new_login" validate:"required,alphanum"`
}

// ProfileResponse is the public projection of an account.
// It never carries the password or its hash.
type ProfileResponse struct {
	Login    string     `json:"login"`
	Name     string     `json:"name"`
	Gender   int        `json:"gender"`
	Birthday *time.Time `json:"birthday,omitempty"`
	IsActive bool       `json:"is_active"`
}

// NewProfileResponse projects an account into its public profile.
func NewProfileResponse(account *domain.Account) ProfileResponse {
	return ProfileResponse{
		Login:    account.Login,
		Name:     account.Name,
		Gender:   account.Gender,
		Birthday: account.Birthday,
		IsActive: account.IsActive(),
	}
}

// NewProfileResponses projects a list of accounts into public profiles.
func NewProfileResponses(accounts []*domain.Account) []ProfileResponse {
	profiles := make([]ProfileResponse, 0, len(accounts))
	for _, account := range accounts {
		profiles = append(profiles, NewProfileResponse(account))
	}
	return profiles
}
