package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields read from an identity provider token. Subject is the
// user id recorded on audit entries.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator is implemented by JWTTokenGenerator.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type RoleRepository interface {
	RolesForUser(ctx context.Context, userID string) ([]string, error)
	AssignRoles(ctx context.Context, userID string, roles []string) error
}
