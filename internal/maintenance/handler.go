package maintenance

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	LogMaintenance(ctx context.Context, assetID string, dto LogMaintenanceDTO) (*Event, []string, error)
	LogFormatting(ctx context.Context, assetID string, dto LogFormattingDTO) (*Event, []string, error)
	ListForAsset(ctx context.Context, assetID string) ([]*Event, error)
	ListAll(ctx context.Context, limit int) ([]*Event, error)
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

func (h *Handler) LogMaintenance(w http.ResponseWriter, r *http.Request) {
	assetID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto LogMaintenanceDTO
	if err := h.DecodeBody(r, "LogMaintenanceRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	event, keys, err := h.Service.LogMaintenance(r.Context(), assetID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusCreated, event.ToResponse(), keys)
}

func (h *Handler) LogFormatting(w http.ResponseWriter, r *http.Request) {
	assetID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto LogFormattingDTO
	if err := h.DecodeBody(r, "LogFormattingRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	event, keys, err := h.Service.LogFormatting(r.Context(), assetID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusCreated, event.ToResponse(), keys)
}

func (h *Handler) ListForAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	list, err := h.Service.ListForAsset(r.Context(), assetID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, ToResponses(list))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, _ := h.Pagination(r, DefaultListLimit, MaxListLimit)
	list, err := h.Service.ListAll(r.Context(), limit)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, ToResponses(list))
}
