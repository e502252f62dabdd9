package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/uservault/uservault-api/internal/domain"
)

// JWTService defines operations for managing JWT authentication tokens.
//
// Tokens are the identity assertions of the system: opaque to clients,
// verifiable by the server, and carrying the account's login and role
// flag so authorization decisions need no store round trip.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the account.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, account *domain.Account) (string, error)

	// ValidateToken validates the provided access token string and extracts
	// the claims. Returns an error if validation fails (expired, invalid
	// signature, wrong token type, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed JWT refresh token for the account.
	// Refresh tokens have a longer lifetime and are used to obtain new
	// access tokens.
	GenerateRefreshToken(ctx context.Context, account *domain.Account) (string, error)

	// ValidateRefreshToken validates the provided refresh token string and
	// extracts the claims. Returns an error if validation fails (expired,
	// invalid signature, wrong token type, etc.).
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with application-specific fields.
type Claims struct {
	// AccountID is the unique identifier of the account the token was issued for.
	AccountID uuid.UUID `json:"uid,omitempty"`

	// Login is the account's login at issuance time. Authorization gates
	// compare it against target logins case-insensitively.
	Login string `json:"login,omitempty"`

	// Admin is the account's role flag at issuance time.
	Admin bool `json:"adm,omitempty"`

	// TokenType indicates the purpose of the token ("access" or "refresh").
	// Used to prevent token misuse across different contexts.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
