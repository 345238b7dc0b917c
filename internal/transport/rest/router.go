package rest

import (
	"net/http"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/auth"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	"github.com/frahmantamala/asset-lifecycle/internal/metrics"
	"github.com/frahmantamala/asset-lifecycle/internal/report"
	"github.com/frahmantamala/asset-lifecycle/internal/transport/middleware"
	"github.com/frahmantamala/asset-lifecycle/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth        *auth.Handler
	Assignments *assignment.Handler
	Assets      *asset.Handler
	Employees   *employee.Handler
	Locations   *location.Handler
	Maintenance *maintenance.Handler
	Audit       *audit.Handler
	Reports     *report.Handler
	Health      *HealthHandler
	Metrics     *metrics.Metrics
	Spec        []byte
}

type Options struct {
	AllowedOrigins string
	RequestTimeout time.Duration
	MetricsPath    string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RecoveryMiddleware)
	if h.Metrics != nil {
		router.Use(h.Metrics.Middleware())
	}
	router.Use(middleware.LoggingMiddleware)
	if opts.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	}

	if len(h.Spec) > 0 {
		router.Get(swagger.SpecPath, swagger.SpecHandler(h.Spec))
		router.Handle("/swagger/*", swagger.Handler())
	}
	if h.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, h.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", h.Health.Ping)
		r.Get("/health", h.Health.Health)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			gate := h.Auth.RequireAnyRole

			pr.Get("/me", h.Auth.Me)

			pr.Route("/assignments", func(ar chi.Router) {
				ar.Get("/", h.Assignments.ListAssignments)
				ar.Get("/{id}", h.Assignments.GetAssignment)
				ar.Group(func(mr chi.Router) {
					mr.Use(gate(enums.AssignmentManagers...))
					mr.Post("/", h.Assignments.CreateAssignment)
					mr.Patch("/{id}", h.Assignments.UpdateAssignment)
					mr.Post("/{id}/accept", h.Assignments.AcceptAssignment)
					mr.Post("/{id}/request-return", h.Assignments.RequestReturn)
					mr.Post("/{id}/return", h.Assignments.ReturnAssignment)
					mr.Post("/{id}/close", h.Assignments.CloseAssignment)
					mr.Post("/{id}/replace", h.Assignments.ReplaceAsset)
				})
			})

			pr.Route("/assets", func(ar chi.Router) {
				ar.Get("/", h.Assets.ListAssets)
				ar.Get("/{id}", h.Assets.GetAsset)
				ar.Get("/{id}/assignments", h.Assignments.AssetHistory)
				ar.Get("/{id}/maintenance", h.Maintenance.ListForAsset)
				ar.Get("/{id}/locations", h.Locations.AssetHistory)
				ar.Group(func(mr chi.Router) {
					mr.Use(gate(enums.AssetManagers...))
					mr.Post("/", h.Assets.CreateAsset)
					mr.Patch("/{id}", h.Assets.UpdateAsset)
					mr.Put("/{id}/status", h.Assets.UpdateAssetStatus)
					mr.Post("/{id}/move", h.Locations.MoveAsset)
				})
				ar.Group(func(mr chi.Router) {
					mr.Use(gate(enums.MaintenanceLoggers...))
					mr.Post("/{id}/maintenance", h.Maintenance.LogMaintenance)
					mr.Post("/{id}/formatting", h.Maintenance.LogFormatting)
				})
			})

			pr.Route("/employees", func(er chi.Router) {
				er.Get("/", h.Employees.ListEmployees)
				er.Get("/{id}", h.Employees.GetEmployee)
				er.Get("/{id}/assignments", h.Assignments.EmployeeHistory)
				er.Get("/{id}/offboarding", h.Employees.OffboardingPreview)
				er.Group(func(mr chi.Router) {
					mr.Use(gate(enums.EmployeeManagers...))
					mr.Post("/", h.Employees.CreateEmployee)
					mr.Patch("/{id}", h.Employees.UpdateEmployee)
					mr.Post("/{id}/leave", h.Employees.MarkAsLeft)
				})
			})

			pr.Route("/locations", func(lr chi.Router) {
				lr.Get("/", h.Locations.ListLocations)
				lr.Get("/{id}", h.Locations.GetLocation)
				lr.Group(func(mr chi.Router) {
					mr.Use(gate(enums.AssetManagers...))
					mr.Post("/", h.Locations.CreateLocation)
					mr.Patch("/{id}", h.Locations.UpdateLocation)
				})
			})

			pr.Get("/maintenance", h.Maintenance.ListAll)
			pr.With(gate(enums.AuditReaders...)).Get("/audit-logs", h.Audit.ListAuditLogs)

			pr.Get("/dashboard/stats", h.Reports.DashboardStats)
			pr.Get("/reports/assets.xlsx", h.Reports.AssetRegister)
			pr.Get("/reports/employees/{id}.xlsx", h.Reports.EmployeeAssignments)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]string{"type": "NOT_FOUND", "code": "ROUTE_NOT_FOUND", "message": "Route not found"},
		})
	})
}
