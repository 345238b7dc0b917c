package asset_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"gorm.io/gorm"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	assetPostgres "github.com/frahmantamala/asset-lifecycle/internal/asset/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/asset-lifecycle/internal/assignment/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database/dbtest"
	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	locationPostgres "github.com/frahmantamala/asset-lifecycle/internal/location/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	maintenancePostgres "github.com/frahmantamala/asset-lifecycle/internal/maintenance/postgres"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

var _ = Describe("Asset Service", func() {
	var (
		db          *gorm.DB
		ctx         context.Context
		store       *cache.MemoryCache
		bus         *events.EventBus
		service     *asset.Service
		assignments *assignment.Service
		maint       *maintenance.Service
		locations   *location.Service
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = dbtest.Close(db) })

		lg := logger.Discard()
		clock := dbtest.SteppingClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), time.Minute)
		store = cache.NewMemoryCache(time.Minute)
		bus = events.NewEventBus(lg)
		bus.Subscribe(events.AllEvents, cache.InvalidateOnChange(store, lg))

		assignments = assignment.NewService(assignmentPostgres.NewAssignmentRepository(db), bus, lg, assignment.WithClock(clock))
		maint = maintenance.NewService(maintenancePostgres.NewMaintenanceRepository(db), bus, lg)
		maint.SetClock(clock)
		locations = location.NewService(locationPostgres.NewLocationRepository(db), bus, lg, location.WithClock(clock))
		service = asset.NewService(assetPostgres.NewAssetRepository(db), bus, lg,
			asset.WithClock(clock),
			asset.WithCache(store),
			asset.WithHistory(assignments, maint, locations),
		)
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{UserID: "it-1", Roles: []string{"it"}})
	})

	newAsset := func(tag, serial string) *asset.Asset {
		a, _, err := service.CreateAsset(ctx, asset.CreateAssetDTO{
			AssetTag: tag, Type: "laptop", Manufacturer: "Dell", Model: "Latitude",
			SerialNumber: serial, Ownership: "OrgA",
		})
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	assign := func(assetID string) *assignment.Assignment {
		employeeID, err := dbtest.InsertEmployee(db, "Holder", "active")
		Expect(err).NotTo(HaveOccurred())
		out, err := assignments.CreateAssignment(ctx, assignment.CreateAssignmentDTO{
			AssetID: assetID, EmployeeID: employeeID, StartDate: "2024-06-01",
		})
		Expect(err).NotTo(HaveOccurred())
		return out.Assignment
	}

	Describe("CreateAsset", func() {
		It("starts as spare and records who created it", func() {
			a := newAsset("A-100", "SN-100")
			Expect(a.Status).To(Equal(enums.AssetSpare))
			Expect(a.CreatedBy).To(PointTo(Equal("it-1")))
			Expect(a.SecurityCompliant).To(BeTrue())
		})

		It("refuses a duplicate serial number", func() {
			newAsset("A-100", "SN-100")
			_, _, err := service.CreateAsset(ctx, asset.CreateAssetDTO{
				AssetTag: "A-101", Type: "monitor", Manufacturer: "LG", Model: "27UL",
				SerialNumber: "SN-100", Ownership: "OrgC",
			})
			Expect(errors.Is(err, internal.ErrSerialNumberTaken)).To(BeTrue())
		})
	})

	Describe("UpdateAssetStatus", func() {
		It("refuses to retire an asset with an open assignment", func() {
			a := newAsset("A-200", "SN-200")
			assign(a.ID)

			for _, status := range []string{"retired", "disposed", "quarantined"} {
				_, _, err := service.UpdateAssetStatus(ctx, a.ID, asset.UpdateStatusDTO{Status: status})
				Expect(errors.Is(err, internal.ErrCannotRetireAssignedAsset)).To(BeTrue())
				Expect(err.Error()).To(Equal("Cannot " + status + " asset with active assignments. Please return the asset first."))
			}

			stored, err := service.GetAsset(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(enums.AssetInUse))
		})

		It("allows unguarded moves while assigned", func() {
			a := newAsset("A-201", "SN-201")
			assign(a.ID)
			_, _, err := service.UpdateAssetStatus(ctx, a.ID, asset.UpdateStatusDTO{Status: "under_repair"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("makes disposed assets read-only", func() {
			a := newAsset("A-202", "SN-202")
			updated, keys, err := service.UpdateAssetStatus(ctx, a.ID, asset.UpdateStatusDTO{Status: "disposed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsReadonly).To(BeTrue())
			Expect(keys).To(ContainElement("asset:" + a.ID))

			_, _, err = service.UpdateAssetStatus(ctx, a.ID, asset.UpdateStatusDTO{Status: "spare"})
			Expect(errors.Is(err, internal.ErrReadonlyAsset)).To(BeTrue())
		})
	})

	Describe("UpdateAsset", func() {
		It("refuses any edit on a read-only asset", func() {
			id, err := dbtest.InsertAsset(db, "A-300", "disposed", dbtest.WithReadonly())
			Expect(err).NotTo(HaveOccurred())

			notes := "just a note"
			_, _, err = service.UpdateAsset(ctx, id, asset.UpdateAssetDTO{Notes: &notes})
			Expect(errors.Is(err, internal.ErrReadonlyAsset)).To(BeTrue())
			Expect(err.Error()).To(Equal("Cannot modify a disposed asset. This record is read-only."))

			var row assetDatamodel.Asset
			Expect(db.First(&row, "id = ?", id).Error).To(Succeed())
			Expect(row.Notes).To(BeNil())
		})

		It("applies only the supplied fields", func() {
			a := newAsset("A-301", "SN-301")
			hostname := "wks-301"
			updated, _, err := service.UpdateAsset(ctx, a.ID, asset.UpdateAssetDTO{Hostname: &hostname})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Hostname).To(PointTo(Equal("wks-301")))
			Expect(updated.Model).To(Equal("Latitude"))
		})
	})

	Describe("ListAssets", func() {
		It("filters and orders by asset tag", func() {
			newAsset("B-2", "SN-B2")
			newAsset("B-1", "SN-B1")
			_, err := dbtest.InsertAsset(db, "C-1", "retired")
			Expect(err).NotTo(HaveOccurred())

			list, err := service.ListAssets(ctx, asset.ListFilter{Status: "spare"})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].AssetTag).To(Equal("B-1"))

			found, err := service.ListAssets(ctx, asset.ListFilter{Search: "sn-c-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))

			_, err = service.ListAssets(ctx, asset.ListFilter{Ownership: "OrgZ"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetAssetWithHistory", func() {
		It("combines the histories and refreshes after a change", func() {
			a := newAsset("D-1", "SN-D1")
			current := assign(a.ID)
			_, _, err := maint.LogMaintenance(ctx, a.ID, maintenance.LogMaintenanceDTO{Type: "inspection", Date: "2024-06-01"})
			Expect(err).NotTo(HaveOccurred())

			detail, err := service.GetAssetWithHistory(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Status).To(Equal(enums.AssetInUse))
			Expect(detail.CurrentAssignment).NotTo(BeNil())
			Expect(detail.CurrentAssignment.ID).To(Equal(current.ID))
			Expect(detail.Maintenance).To(HaveLen(1))
			Expect(detail.Locations).To(BeEmpty())
			Expect(store.Has("asset:" + a.ID)).To(BeTrue())

			_, err = assignments.ReturnAssignment(ctx, current.ID, assignment.ReturnAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Has("asset:" + a.ID)).To(BeFalse())

			detail, err = service.GetAssetWithHistory(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.CurrentAssignment).To(BeNil())
			Expect(detail.Assignments[0].Status).To(Equal(enums.AssignmentReturned))
		})

		It("reports unknown assets", func() {
			_, err := service.GetAssetWithHistory(ctx, "00000000-0000-4000-8000-000000000000")
			Expect(errors.Is(err, internal.ErrAssetNotFound)).To(BeTrue())
		})
	})
})
