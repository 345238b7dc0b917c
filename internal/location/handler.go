package location

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	CreateLocation(ctx context.Context, dto CreateLocationDTO) (*Location, []string, error)
	UpdateLocation(ctx context.Context, id string, dto UpdateLocationDTO) (*Location, []string, error)
	MoveAssetToLocation(ctx context.Context, assetID string, dto MoveAssetDTO) (*HistoryEntry, []string, error)
	GetLocationWithAssets(ctx context.Context, id string) (*DetailResponse, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]*Location, error)
	HistoryForAsset(ctx context.Context, assetID string) ([]*HistoryEntry, error)
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

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListLocations(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, ToResponses(list))
}

func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	detail, err := h.Service.GetLocationWithAssets(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, detail)
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var dto CreateLocationDTO
	if err := h.DecodeBody(r, "CreateLocationRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	loc, keys, err := h.Service.CreateLocation(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusCreated, loc.ToResponse(), keys)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateLocationDTO
	if err := h.DecodeBody(r, "UpdateLocationRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	loc, keys, err := h.Service.UpdateLocation(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusOK, loc.ToResponse(), keys)
}

func (h *Handler) MoveAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto MoveAssetDTO
	if err := h.DecodeBody(r, "MoveAssetRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	entry, keys, err := h.Service.MoveAssetToLocation(r.Context(), assetID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusOK, entry.ToResponse(), keys)
}

func (h *Handler) AssetHistory(w http.ResponseWriter, r *http.Request) {
	assetID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	list, err := h.Service.HistoryForAsset(r.Context(), assetID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, HistoryResponses(list))
}
