package auth

import (
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

// RequireAnyRole lets a request through when the actor holds at least one of
// roles. It must run after AuthMiddleware.
func (h *Handler) RequireAnyRole(roles ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := internal.ActorFromContext(r.Context())
			if !ok || actor.UserID == "" {
				h.WriteAppError(w, r, internal.ErrUnauthorizedAccess)
				return
			}

			if !enums.HasAnyRole(actor.Roles, roles...) {
				logger.From(r.Context()).WarnContext(r.Context(), "access denied: missing role",
					"user_id", actor.UserID,
					"required_roles", roles,
					"user_roles", actor.Roles)
				h.WriteAppError(w, r, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
