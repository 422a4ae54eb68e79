package auth

import (
	"context"
	"time"

	"github.com/SFrisendal/overflow/internal/domain"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the given identity.
	// The token carries both the user ID and the display name so handlers can
	// attribute questions and answers without a user lookup.
	GenerateToken(ctx context.Context, identity domain.Identity) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns the claims containing user information if the token is valid,
	// or an error if validation fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with application-specific fields.
type Claims struct {
	// Identity is the authenticated user the token was issued for.
	Identity domain.Identity

	// TokenType indicates the purpose of the token. Only "access" is issued.
	TokenType string

	// Standard registered JWT claims
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
