package rest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-lifecycle/api"
	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/auth"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	"github.com/frahmantamala/asset-lifecycle/internal/metrics"
	"github.com/frahmantamala/asset-lifecycle/internal/report"
	"github.com/frahmantamala/asset-lifecycle/internal/transport/rest"
)

// tokenRoles treats the bearer token as a role name.
type tokenRoles struct{}

func (tokenRoles) Authenticate(_ context.Context, token string) (internal.Actor, error) {
	if token == "bad" {
		return internal.Actor{}, internal.ErrInvalidToken
	}
	return internal.Actor{UserID: "u-" + token, Roles: []string{token}}, nil
}

type emptyAudit struct{}

func (emptyAudit) List(context.Context, audit.Filter) ([]audit.Entry, error) { return nil, nil }

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		dbErr  error
	)

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		dbErr = nil
		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Auth:        auth.NewHandler(tokenRoles{}),
			Assignments: assignment.NewHandler(nil, nil),
			Assets:      asset.NewHandler(nil, nil),
			Employees:   employee.NewHandler(nil, nil),
			Locations:   location.NewHandler(nil, nil),
			Maintenance: maintenance.NewHandler(nil, nil),
			Audit:       audit.NewHandler(emptyAudit{}),
			Reports:     report.NewHandler(nil),
			Health: rest.NewHealthHandler(map[string]rest.Pinger{
				"database": rest.PingFunc(func(context.Context) error { return dbErr }),
			}),
			Metrics: metrics.New(),
			Spec:    api.Spec,
		}, rest.Options{})
	})

	It("serves probes without a token", func() {
		Expect(do(http.MethodGet, "/api/v1/ping", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/api/v1/health", "").Code).To(Equal(http.StatusOK))

		dbErr = errors.New("connection refused")
		Expect(do(http.MethodGet, "/api/v1/health", "").Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("requires a bearer token for the api", func() {
		Expect(do(http.MethodGet, "/api/v1/me", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/api/v1/me", "bad").Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/api/v1/me", "it").Code).To(Equal(http.StatusOK))
	})

	It("keeps the audit trail to auditors and admins", func() {
		Expect(do(http.MethodGet, "/api/v1/audit-logs", "it").Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodGet, "/api/v1/audit-logs", "auditor").Code).To(Equal(http.StatusOK))
	})

	It("gates assignment changes before the handler runs", func() {
		w := do(http.MethodPost, "/api/v1/assignments/8a7c1d0e-3c55-4b8f-9d6e-0f4b8c2a1e11/accept", "hr")
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("serves the api document and metrics", func() {
		w := do(http.MethodGet, "/openapi.yml", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("openapi: 3.0.3"))

		Expect(do(http.MethodGet, "/metrics", "").Code).To(Equal(http.StatusOK))
	})

	It("answers unknown routes with a JSON 404", func() {
		w := do(http.MethodGet, "/api/v1/nothing-here", "it")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
	})
})
