package auth

import (
	"context"
	"net"
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, token string) (internal.Actor, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper(), nil),
		Service:     svc,
	}
}

// AuthMiddleware requires a valid bearer token and puts the resolved actor,
// with the request's ip and user agent, on the context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, r, internal.ErrUnauthorizedAccess)
			return
		}

		actor, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}
		actor.IPAddress = clientIP(r)
		actor.UserAgent = r.UserAgent()

		ctx := internal.ContextWithActor(r.Context(), actor)
		ctx = logger.With(ctx, "user_id", actor.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Me returns the caller as the API sees it.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrUnauthorizedAccess)
		return
	}
	h.WriteData(w, http.StatusOK, actor)
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
