package audit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database/dbtest"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

var _ = Describe("Audit Service", func() {
	var (
		db      *gorm.DB
		ctx     context.Context
		repo    *auditPostgres.AuditRepository
		service *audit.Service
		base    time.Time
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = dbtest.Close(db) })

		repo = auditPostgres.NewAuditRepository(db)
		service = audit.NewService(repo, logger.Discard())
		base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{
			UserID:    "u-7",
			Email:     "it@example.com",
			IPAddress: "10.0.0.4",
			UserAgent: "curl/8",
		})
	})

	appendEntry := func(offset time.Duration, action audit.Action, entity audit.EntityType, id string) {
		e := audit.NewEntry(ctx, base.Add(offset), action, entity, id,
			map[string]interface{}{"status": "spare"},
			map[string]interface{}{"status": "in_use"},
		)
		Expect(repo.Append(ctx, e)).To(Succeed())
	}

	It("stamps entries with the caller and keeps old and new values", func() {
		appendEntry(0, audit.ActionUpdate, audit.EntityAsset, "a-1")

		entries, err := service.ForEntity(ctx, audit.EntityAsset, "a-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].UserID).To(Equal("u-7"))
		Expect(entries[0].UserEmail).To(Equal("it@example.com"))
		Expect(entries[0].IPAddress).To(Equal("10.0.0.4"))
		Expect(entries[0].OldValues).To(HaveKeyWithValue("status", "spare"))
		Expect(entries[0].NewValues).To(HaveKeyWithValue("status", "in_use"))
	})

	It("filters and orders newest first", func() {
		appendEntry(0, audit.ActionCreate, audit.EntityAsset, "a-1")
		appendEntry(time.Minute, audit.ActionUpdate, audit.EntityAsset, "a-1")
		appendEntry(2*time.Minute, audit.ActionAssign, audit.EntityAssignment, "s-1")

		entries, err := service.List(ctx, audit.Filter{EntityType: "asset"})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Action).To(Equal(audit.ActionUpdate))
		Expect(entries[1].Action).To(Equal(audit.ActionCreate))

		entries, err = service.List(ctx, audit.Filter{Action: "assign"})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].EntityID).To(Equal("s-1"))

		entries, err = service.List(ctx, audit.Filter{Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].EntityType).To(Equal(audit.EntityAssignment))
	})

	It("rejects unknown filter values", func() {
		_, err := service.List(ctx, audit.Filter{Action: "purge"})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	})

	Describe("Handler", func() {
		var router *chi.Mux

		BeforeEach(func() {
			router = chi.NewRouter()
			router.Get("/audit-logs", audit.NewHandler(service).ListAuditLogs)
		})

		It("serves filtered entries", func() {
			appendEntry(0, audit.ActionCreate, audit.EntityEmployee, "e-1")
			appendEntry(time.Minute, audit.ActionCreate, audit.EntityLocation, "l-1")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs?entity_type=location", nil))
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Data []audit.Entry `json:"data"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body.Data).To(HaveLen(1))
			Expect(body.Data[0].EntityID).To(Equal("l-1"))
		})

		It("answers 400 for a bad action filter", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs?action=purge", nil))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
