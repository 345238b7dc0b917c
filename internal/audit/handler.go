package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper(), nil),
		Service:     service,
	}
}

// ListAuditLogs serves GET /audit-logs?action=&entity_type=&entity_id=&limit=.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := h.Pagination(r, DefaultLimit, MaxLimit)
	entries, err := h.Service.List(r.Context(), Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Limit:      limit,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, entries)
}
