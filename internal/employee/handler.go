package employee

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	CreateEmployee(ctx context.Context, dto CreateEmployeeDTO) (*Employee, []string, error)
	UpdateEmployee(ctx context.Context, id string, dto UpdateEmployeeDTO) (*Employee, []string, error)
	MarkEmployeeAsLeft(ctx context.Context, id string, dto MarkLeftDTO) (*Employee, []string, error)
	OffboardingPreview(ctx context.Context, id string) (*Preview, error)
	GetEmployeeWithAssignments(ctx context.Context, id string) (*Detail, error)
	ListEmployees(ctx context.Context, filter ListFilter) ([]*Employee, error)
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

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := h.Pagination(r, DefaultListLimit, MaxListLimit)
	filter := ListFilter{
		Status:     q.Get("status"),
		Department: q.Get("department"),
		Search:     q.Get("search"),
		Limit:      limit,
		Offset:     offset,
	}
	list, err := h.Service.ListEmployees(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   ToResponses(list),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	detail, err := h.Service.GetEmployeeWithAssignments(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, detail)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeDTO
	if err := h.DecodeBody(r, "CreateEmployeeRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	e, keys, err := h.Service.CreateEmployee(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusCreated, e.ToResponse(), keys)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateEmployeeDTO
	if err := h.DecodeBody(r, "UpdateEmployeeRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	e, keys, err := h.Service.UpdateEmployee(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusOK, e.ToResponse(), keys)
}

func (h *Handler) MarkAsLeft(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto MarkLeftDTO
	if err := h.DecodeBody(r, "MarkEmployeeLeftRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	e, keys, err := h.Service.MarkEmployeeAsLeft(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteMutation(w, http.StatusOK, e.ToResponse(), keys)
}

func (h *Handler) OffboardingPreview(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	preview, err := h.Service.OffboardingPreview(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, preview)
}
