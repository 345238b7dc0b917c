package assignment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

type mockService struct {
	assignment.ServiceAPI
	createDTO   assignment.CreateAssignmentDTO
	outcome     *assignment.Outcome
	createError error
	acceptError error
	found       *assignment.Assignment
}

func (m *mockService) CreateAssignment(_ context.Context, dto assignment.CreateAssignmentDTO) (*assignment.Outcome, error) {
	m.createDTO = dto
	if m.createError != nil {
		return nil, m.createError
	}
	return m.outcome, nil
}

func (m *mockService) AcceptAssignment(_ context.Context, _ string, _ assignment.AcceptAssignmentDTO) (*assignment.Outcome, error) {
	if m.acceptError != nil {
		return nil, m.acceptError
	}
	return m.outcome, nil
}

func (m *mockService) GetAssignment(_ context.Context, id string) (*assignment.Assignment, error) {
	if m.found == nil || m.found.ID != id {
		return nil, internal.ErrAssignmentNotFound
	}
	return m.found, nil
}

var _ = Describe("Assignment Handler", func() {
	const (
		assetID    = "8a7c1d0e-3c55-4b8f-9d6e-0f4b8c2a1e11"
		employeeID = "5f0d3c7e-9d54-4c1e-8b1f-2e6a9b7c4d22"
	)

	var (
		svc     *mockService
		handler *assignment.Handler
		router  *chi.Mux
		pending *assignment.Assignment
	)

	do := func(method, path string, body interface{}, roles ...string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req = req.WithContext(internal.ContextWithActor(req.Context(), internal.Actor{UserID: "u-1", Roles: roles}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var out map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&out)).To(Succeed())
		return out
	}

	BeforeEach(func() {
		now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
		pending = assignment.NewAssignment(assetID, employeeID, now, nil, "u-1", now)
		svc = &mockService{
			outcome: &assignment.Outcome{Assignment: pending, Invalidate: pending.InvalidationKeys()},
			found:   pending,
		}
		handler = assignment.NewHandler(svc, nil)

		router = chi.NewRouter()
		router.Post("/assignments", handler.CreateAssignment)
		router.Get("/assignments/{id}", handler.GetAssignment)
		router.Post("/assignments/{id}/accept", handler.AcceptAssignment)
	})

	It("wraps a created assignment with its invalidation keys", func() {
		w := do(http.MethodPost, "/assignments", map[string]string{
			"asset_id":    assetID,
			"employee_id": employeeID,
			"start_date":  "2024-01-10",
		}, "it")

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(svc.createDTO.StartDate).To(Equal("2024-01-10"))

		body := decode(w)
		Expect(body["invalidate"]).To(ContainElement("asset:" + assetID))
		data := body["data"].(map[string]interface{})["assignment"].(map[string]interface{})
		Expect(data["status"]).To(Equal(string(enums.AssignmentPendingAcceptance)))
		Expect(data["start_date"]).To(Equal("2024-01-10"))
		Expect(data["allowed_actions"]).To(ContainElement("accept"))
	})

	It("renders precondition failures as 409 with the error kind", func() {
		svc.createError = internal.ErrDuplicateActiveAssignment
		w := do(http.MethodPost, "/assignments", map[string]string{
			"asset_id":    assetID,
			"employee_id": employeeID,
			"start_date":  "2024-01-10",
		}, "it")

		Expect(w.Code).To(Equal(http.StatusConflict))
		errBody := decode(w)["error"].(map[string]interface{})
		Expect(errBody["type"]).To(Equal(string(internal.ErrorTypePrecondition)))
		Expect(errBody["code"]).To(Equal(string(internal.ErrCodeDuplicateActiveAssignment)))
	})

	It("rejects malformed JSON before reaching the service", func() {
		req := httptest.NewRequest(http.MethodPost, "/assignments", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(svc.createDTO.AssetID).To(BeEmpty())
	})

	It("validates path ids", func() {
		w := do(http.MethodGet, "/assignments/not-a-uuid", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		details := decode(w)["error"].(map[string]interface{})["details"].(map[string]interface{})
		first := details["errors"].([]interface{})[0].(map[string]interface{})
		Expect(first["field"]).To(Equal("id"))
		Expect(first["code"]).To(Equal(string(internal.ErrCodeInvalidID)))
	})

	It("hides transitions from read-only roles", func() {
		w := do(http.MethodGet, "/assignments/"+pending.ID, nil, "auditor")
		Expect(w.Code).To(Equal(http.StatusOK))
		data := decode(w)["data"].(map[string]interface{})
		Expect(data).NotTo(HaveKey("allowed_actions"))
	})

	It("maps invalid transitions", func() {
		svc.acceptError = internal.ErrInvalidTransition
		w := do(http.MethodPost, "/assignments/"+pending.ID+"/accept", map[string]interface{}{}, "it")
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(decode(w)["error"].(map[string]interface{})["code"]).To(Equal(string(internal.ErrCodeInvalidTransition)))
	})
})
