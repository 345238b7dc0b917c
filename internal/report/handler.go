package report

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	AssetRegister(ctx context.Context) (*Workbook, error)
	EmployeeAssignments(ctx context.Context, employeeID string) (*Workbook, error)
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

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Dashboard(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, stats)
}

func (h *Handler) AssetRegister(w http.ResponseWriter, r *http.Request) {
	book, err := h.Service.AssetRegister(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeWorkbook(w, r, book)
}

func (h *Handler) EmployeeAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	book, err := h.Service.EmployeeAssignments(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeWorkbook(w, r, book)
}

func (h *Handler) writeWorkbook(w http.ResponseWriter, r *http.Request, book *Workbook) {
	w.Header().Set("Content-Type", ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", book.Filename))
	w.WriteHeader(http.StatusOK)
	if err := book.Write(w); err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to stream workbook", "file", book.Filename, "error", err)
	}
}
