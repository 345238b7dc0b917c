package maintenance_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"gorm.io/gorm"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database/dbtest"
	auditDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	maintenancePostgres "github.com/frahmantamala/asset-lifecycle/internal/maintenance/postgres"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

var _ = Describe("Maintenance Service", func() {
	var (
		db      *gorm.DB
		service *maintenance.Service
		ctx     context.Context
		assetID string
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = dbtest.Close(db) })

		assetID, err = dbtest.InsertAsset(db, "M-001", "in_use")
		Expect(err).NotTo(HaveOccurred())

		service = maintenance.NewService(maintenancePostgres.NewMaintenanceRepository(db), nil, logger.Discard())
		service.SetClock(dbtest.SteppingClock(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), time.Minute))
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{UserID: "tech-1", Roles: []string{"it"}})
	})

	It("appends an event and an audit entry", func() {
		health := "warning"
		event, keys, err := service.LogMaintenance(ctx, assetID, maintenance.LogMaintenanceDTO{
			Type:            "repair",
			Date:            "2024-04-30",
			ResultingHealth: &health,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(event.Type).To(Equal(enums.MaintenanceRepair))
		Expect(event.CreatedBy).To(PointTo(Equal("tech-1")))
		Expect(keys).To(ContainElement("asset:" + assetID))

		var logs []auditDatamodel.Log
		Expect(db.Find(&logs).Error).To(Succeed())
		Expect(logs).To(HaveLen(1))
		Expect(logs[0].Action).To(Equal("create"))
		Expect(logs[0].EntityType).To(Equal("maintenance"))
	})

	It("logs formatting for today with a healthy result", func() {
		event, _, err := service.LogFormatting(ctx, assetID, maintenance.LogFormattingDTO{})
		Expect(err).NotTo(HaveOccurred())
		Expect(event.Type).To(Equal(enums.MaintenanceFormatting))
		Expect(event.Date).To(Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)))
		Expect(event.ResultingHealth).To(PointTo(Equal(enums.HealthHealthy)))
	})

	It("still accepts entries for disposed assets", func() {
		disposed, err := dbtest.InsertAsset(db, "M-OLD", "disposed", dbtest.WithReadonly())
		Expect(err).NotTo(HaveOccurred())
		_, _, err = service.LogMaintenance(ctx, disposed, maintenance.LogMaintenanceDTO{Type: "inspection", Date: "2024-05-01"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects unknown assets and bad enums", func() {
		_, _, err := service.LogMaintenance(ctx, "00000000-0000-4000-8000-000000000000", maintenance.LogMaintenanceDTO{Type: "repair", Date: "2024-05-01"})
		Expect(errors.Is(err, internal.ErrAssetNotFound)).To(BeTrue())

		_, _, err = service.LogMaintenance(ctx, assetID, maintenance.LogMaintenanceDTO{Type: "polishing", Date: "2024-05-01"})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	})

	It("lists newest first", func() {
		for _, date := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
			_, _, err := service.LogMaintenance(ctx, assetID, maintenance.LogMaintenanceDTO{Type: "inspection", Date: date})
			Expect(err).NotTo(HaveOccurred())
		}

		list, err := service.ListForAsset(ctx, assetID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(3))
		Expect(list[0].Date.Month()).To(Equal(time.March))
		Expect(list[2].Date.Month()).To(Equal(time.January))

		all, err := service.ListAll(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
	})
})
