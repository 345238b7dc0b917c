package assignment

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/transport"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

type ServiceAPI interface {
	CreateAssignment(ctx context.Context, dto CreateAssignmentDTO) (*Outcome, error)
	AcceptAssignment(ctx context.Context, id string, dto AcceptAssignmentDTO) (*Outcome, error)
	RequestReturn(ctx context.Context, id string, dto RequestReturnDTO) (*Outcome, error)
	ReturnAssignment(ctx context.Context, id string, dto ReturnAssignmentDTO) (*Outcome, error)
	CloseAssignment(ctx context.Context, id string, dto CloseAssignmentDTO) (*Outcome, error)
	ReplaceAssetForEmployee(ctx context.Context, currentAssignmentID string, dto ReplaceAssetDTO) (*Outcome, error)
	UpdateAssignment(ctx context.Context, id string, dto UpdateAssignmentDTO) (*Outcome, error)
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	ListAssignments(ctx context.Context, filter ListFilter) ([]*Assignment, error)
	HistoryForAsset(ctx context.Context, assetID string) ([]*Assignment, error)
	HistoryForEmployee(ctx context.Context, employeeID string) ([]*Assignment, error)
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

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := h.Pagination(r, DefaultListLimit, MaxListLimit)
	filter := ListFilter{
		Status:     q.Get("status"),
		EmployeeID: q.Get("employee_id"),
		AssetID:    q.Get("asset_id"),
		OpenOnly:   q.Get("open") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	list, err := h.Service.ListAssignments(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   h.withActions(r, list),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	a, err := h.Service.GetAssignment(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteData(w, http.StatusOK, h.withActions(r, []*Assignment{a})[0])
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var dto CreateAssignmentDTO
	if err := h.DecodeBody(r, "CreateAssignmentRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	outcome, err := h.Service.CreateAssignment(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeOutcome(w, r, http.StatusCreated, outcome)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateAssignmentDTO
	if err := h.DecodeBody(r, "UpdateAssignmentRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	outcome, err := h.Service.UpdateAssignment(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeOutcome(w, r, http.StatusOK, outcome)
}

func (h *Handler) AcceptAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto AcceptAssignmentDTO
	if err := h.DecodeBody(r, "AcceptAssignmentRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	outcome, err := h.Service.AcceptAssignment(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeOutcome(w, r, http.StatusOK, outcome)
}

func (h *Handler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto RequestReturnDTO
	if err := h.DecodeBody(r, "RequestReturnRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	outcome, err := h.Service.RequestReturn(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeOutcome(w, r, http.StatusOK, outcome)
}

func (h *Handler) ReturnAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto ReturnAssignmentDTO
	if err := h.DecodeBody(r, "ReturnAssignmentRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	outcome, err := h.Service.ReturnAssignment(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeOutcome(w, r, http.StatusOK, outcome)
}

func (h *Handler) CloseAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto CloseAssignmentDTO
	if err := h.DecodeBody(r, "CloseAssignmentRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	outcome, err := h.Service.CloseAssignment(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeOutcome(w, r, http.StatusOK, outcome)
}

func (h *Handler) ReplaceAsset(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto ReplaceAssetDTO
	if err := h.DecodeBody(r, "ReplaceAssetRequest", &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	outcome, err := h.Service.ReplaceAssetForEmployee(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.writeOutcome(w, r, http.StatusCreated, outcome)
}

func (h *Handler) AssetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	list, err := h.Service.HistoryForAsset(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, h.withActions(r, list))
}

func (h *Handler) EmployeeHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	list, err := h.Service.HistoryForEmployee(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteData(w, http.StatusOK, h.withActions(r, list))
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, status int, outcome *Outcome) {
	data := map[string]interface{}{
		"assignment": h.withActions(r, []*Assignment{outcome.Assignment})[0],
	}
	if outcome.Replaced != nil {
		data["replaced"] = outcome.Replaced.ToResponse()
	}
	h.WriteMutation(w, status, data, outcome.Invalidate)
}

func (h *Handler) withActions(r *http.Request, list []*Assignment) []Response {
	actor, _ := internal.ActorFromContext(r.Context())
	out := make([]Response, 0, len(list))
	for _, a := range list {
		resp := a.ToResponse()
		resp.AllowedActions = AllowedActions(a, actor.Roles)
		out = append(out, resp)
	}
	return out
}
