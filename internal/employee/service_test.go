package employee_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"gorm.io/gorm"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/asset-lifecycle/internal/assignment/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database/dbtest"
	employeeDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/employee"
	offboardingDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/offboarding"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	employeePostgres "github.com/frahmantamala/asset-lifecycle/internal/employee/postgres"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

var _ = Describe("Employee Service", func() {
	var (
		db          *gorm.DB
		ctx         context.Context
		store       *cache.MemoryCache
		assignments *assignment.Service
		service     *employee.Service
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = dbtest.Close(db) })

		lg := logger.Discard()
		clock := dbtest.SteppingClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), time.Minute)
		store = cache.NewMemoryCache(time.Minute)
		bus := events.NewEventBus(lg)
		bus.Subscribe(events.AllEvents, cache.InvalidateOnChange(store, lg))

		assignments = assignment.NewService(assignmentPostgres.NewAssignmentRepository(db), bus, lg, assignment.WithClock(clock))
		service = employee.NewService(employeePostgres.NewEmployeeRepository(db), assignments, bus, lg,
			employee.WithClock(clock),
			employee.WithCache(store),
		)
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{UserID: "hr-1", Roles: []string{"hr"}})
	})

	hire := func(last string) *employee.Employee {
		e, _, err := service.CreateEmployee(ctx, employee.CreateEmployeeDTO{FirstName: "Sam", LastName: last, StartDate: "2023-02-01"})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	assign := func(employeeID, tag string) *assignment.Assignment {
		assetID, err := dbtest.InsertAsset(db, tag, "spare")
		Expect(err).NotTo(HaveOccurred())
		out, err := assignments.CreateAssignment(ctx, assignment.CreateAssignmentDTO{
			AssetID: assetID, EmployeeID: employeeID, StartDate: "2024-01-10",
		})
		Expect(err).NotTo(HaveOccurred())
		return out.Assignment
	}

	Describe("MarkEmployeeAsLeft", func() {
		It("names the number of open assignments and changes nothing", func() {
			e := hire("Doe")
			a := assign(e.ID, "E-1")
			assign(e.ID, "E-2")
			_, err := assignments.AcceptAssignment(ctx, a.ID, assignment.AcceptAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = service.MarkEmployeeAsLeft(ctx, e.ID, employee.MarkLeftDTO{EndDate: "2024-07-01"})
			Expect(errors.Is(err, internal.ErrEmployeeHasActiveAssignments)).To(BeTrue())
			Expect(err.Error()).To(Equal("Employee has 2 active assignment(s). Please return all assets before marking as left."))
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Details).To(HaveKeyWithValue("count", int64(2)))

			var row employeeDatamodel.Employee
			Expect(db.First(&row, "id = ?", e.ID).Error).To(Succeed())
			Expect(row.Status).To(Equal("active"))
			Expect(row.EndDate).To(BeNil())

			stored, err := assignments.GetAssignment(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(enums.AssignmentActive))
		})

		It("completes offboarding once everything is returned", func() {
			e := hire("Roe")
			a := assign(e.ID, "E-3")
			_, err := assignments.ReturnAssignment(ctx, a.ID, assignment.ReturnAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())

			left, keys, err := service.MarkEmployeeAsLeft(ctx, e.ID, employee.MarkLeftDTO{EndDate: "2024-06-30"})
			Expect(err).NotTo(HaveOccurred())
			Expect(left.Status).To(Equal(enums.EmployeeLeft))
			Expect(left.EndDate).NotTo(BeNil())
			Expect(left.IsOffboardingComplete).To(BeTrue())
			Expect(left.OffboardingCompletedBy).To(PointTo(Equal("hr-1")))
			Expect(keys).To(ContainElement("employee:" + e.ID))

			var records []offboardingDatamodel.Record
			Expect(db.Find(&records).Error).To(Succeed())
			Expect(records).To(HaveLen(1))
			Expect([]string(records[0].ReturnedAssets)).To(ConsistOf(a.AssetID))
			Expect(records[0].PendingAssets).To(BeEmpty())
			Expect(records[0].CompletedAt).NotTo(BeNil())
		})

		It("refuses a second departure and end dates before the start", func() {
			e := hire("Poe")
			_, _, err := service.MarkEmployeeAsLeft(ctx, e.ID, employee.MarkLeftDTO{EndDate: "2022-12-31"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

			_, _, err = service.MarkEmployeeAsLeft(ctx, e.ID, employee.MarkLeftDTO{EndDate: "2024-06-30"})
			Expect(err).NotTo(HaveOccurred())
			_, _, err = service.MarkEmployeeAsLeft(ctx, e.ID, employee.MarkLeftDTO{EndDate: "2024-06-30"})
			Expect(errors.Is(err, internal.ErrEmployeeInactive)).To(BeTrue())
		})

		It("blocks new assignments after leaving", func() {
			e := hire("Left")
			_, _, err := service.MarkEmployeeAsLeft(ctx, e.ID, employee.MarkLeftDTO{EndDate: "2024-06-30"})
			Expect(err).NotTo(HaveOccurred())

			assetID, err := dbtest.InsertAsset(db, "E-9", "spare")
			Expect(err).NotTo(HaveOccurred())
			_, err = assignments.CreateAssignment(ctx, assignment.CreateAssignmentDTO{AssetID: assetID, EmployeeID: e.ID, StartDate: "2024-07-01"})
			Expect(errors.Is(err, internal.ErrEmployeeInactive)).To(BeTrue())
		})
	})

	Describe("OffboardingPreview", func() {
		It("lists the pending assets", func() {
			e := hire("Vance")
			a := assign(e.ID, "E-4")

			preview, err := service.OffboardingPreview(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(preview.CanComplete).To(BeFalse())
			Expect(preview.Pending).To(HaveLen(1))
			Expect(preview.Pending[0].AssetID).To(Equal(a.AssetID))
		})
	})

	Describe("UpdateEmployee", func() {
		It("cannot be used to mark someone as left", func() {
			e := hire("Stay")
			left := "left"
			_, _, err := service.UpdateEmployee(ctx, e.ID, employee.UpdateEmployeeDTO{Status: &left})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects a badge id already in use", func() {
			badge := "B-77"
			_, _, err := service.CreateEmployee(ctx, employee.CreateEmployeeDTO{FirstName: "A", LastName: "One", BadgeID: &badge, StartDate: "2023-01-01"})
			Expect(err).NotTo(HaveOccurred())
			other := hire("Two")
			_, _, err = service.UpdateEmployee(ctx, other.ID, employee.UpdateEmployeeDTO{BadgeID: &badge})
			Expect(errors.Is(err, internal.ErrBadgeIDTaken)).To(BeTrue())
		})
	})

	Describe("reads", func() {
		It("lists by last name and caches the detail view", func() {
			hire("Zeta")
			alpha := hire("Alpha")
			assign(alpha.ID, "E-5")

			list, err := service.ListEmployees(ctx, employee.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list[0].LastName).To(Equal("Alpha"))

			detail, err := service.GetEmployeeWithAssignments(ctx, alpha.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Assignments).To(HaveLen(1))
			Expect(store.Has("employee:" + alpha.ID)).To(BeTrue())

			assign(alpha.ID, "E-6")
			Expect(store.Has("employee:" + alpha.ID)).To(BeFalse())
		})
	})
})
