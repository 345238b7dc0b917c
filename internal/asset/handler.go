package asset

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	CreateAsset(ctx context.Context, dto CreateAssetDTO) (*Asset, []string, error)
	UpdateAsset(ctx context.Context, id string, dto UpdateAssetDTO) (*Asset, []string, error)
	UpdateAssetStatus(ctx context.Context, id string, dto UpdateStatusDTO) (*Asset, []string, error)
	GetAssetWithHistory(ctx context.Context, id string) (*Detail, error)
	ListAssets(ctx context.Context, filter ListFilter) ([]*Asset, error)
	Now() time.Time
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, schemas transport.SchemaValidator) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper(), schemas),
		Service:     service,
	}
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := h.Pagination(r, DefaultListLimit, MaxListLimit)
	filter := ListFilter{
		Status:    q.Get("status"),
		Type:      q.Get("type"),
		Ownership: q.Get("ownership"),
		Search:    q.Get("search"),
		Limit:     limit,
		Offset:    offset,
	}

	list, err := h.Service.ListAssets(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   ToResponses(list, h.Service.Now()),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	detail, err := h.Service.GetAssetWithHistory(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, detail)
}

func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var dto CreateAssetDTO
	if err := h.DecodeBody(r, "CreateAssetRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	a, keys, err := h.Service.CreateAsset(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusCreated, a.ToResponse(h.Service.Now()), keys)
}

func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateAssetDTO
	if err := h.DecodeBody(r, "UpdateAssetRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	a, keys, err := h.Service.UpdateAsset(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusOK, a.ToResponse(h.Service.Now()), keys)
}

func (h *Handler) UpdateAssetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateStatusDTO
	if err := h.DecodeBody(r, "UpdateAssetStatusRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	a, keys, err := h.Service.UpdateAssetStatus(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusOK, a.ToResponse(h.Service.Now()), keys)
}
