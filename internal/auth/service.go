package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

type Service struct {
	tokens TokenValidator
	roles  RoleRepository
	logger *slog.Logger
}

func NewService(tokens TokenValidator, roles RoleRepository, logger *slog.Logger) *Service {
	return &Service{
		tokens: tokens,
		roles:  roles,
		logger: logger,
	}
}

// Authenticate resolves a bearer token to the calling actor. Roles come from
// the token; user_roles is consulted when the identity provider sends none.
// Unknown role names are dropped.
func (s *Service) Authenticate(ctx context.Context, token string) (internal.Actor, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return internal.Actor{}, err
	}

	roles := knownRoles(claims.Roles)
	if len(roles) == 0 && s.roles != nil {
		stored, err := s.roles.RolesForUser(ctx, claims.Subject)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to load user roles", "user_id", claims.Subject, "error", err)
			return internal.Actor{}, internal.NewInternalError("failed to load user roles", err)
		}
		roles = knownRoles(stored)
	}

	return internal.Actor{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  roles,
	}, nil
}

// AssignRoles stores roles for a user. Used by seeding and local setup.
func (s *Service) AssignRoles(ctx context.Context, userID string, roles []string) error {
	v := validation.NewValidator()
	v.Field("user_id", userID).Required()
	for _, r := range roles {
		v.Field("roles", r).OneOf(enums.Strings(enums.Roles)...)
	}
	if err := v.Validate(); err != nil {
		return err
	}

	if err := s.roles.AssignRoles(ctx, userID, roles); err != nil {
		s.logger.ErrorContext(ctx, "failed to assign roles", "user_id", userID, "error", err)
		return internal.NewInternalError("failed to assign roles", err)
	}
	s.logger.InfoContext(ctx, "roles assigned", "user_id", userID, "roles", roles)
	return nil
}

func knownRoles(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if enums.HasAnyRole([]string{n}, enums.Roles...) {
			out = append(out, n)
		}
	}
	return out
}
