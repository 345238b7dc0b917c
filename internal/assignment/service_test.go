package assignment_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"gorm.io/gorm"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/asset-lifecycle/internal/assignment/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database/dbtest"
	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	assignmentDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/assignment"
	auditDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) PublishSync(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// failingRepository injects a failure into asset status writes for one asset.
type failingRepository struct {
	assignment.Repository
	failAssetID string
}

func (r failingRepository) WithinTx(ctx context.Context, fn func(tx assignment.TxRepository) error) error {
	return r.Repository.WithinTx(ctx, func(tx assignment.TxRepository) error {
		return fn(failingTx{TxRepository: tx, failAssetID: r.failAssetID})
	})
}

type failingTx struct {
	assignment.TxRepository
	failAssetID string
}

func (t failingTx) SetAssetStatus(ctx context.Context, assetID string, status enums.AssetStatus, at time.Time) error {
	if assetID == t.failAssetID {
		return errors.New("connection reset by peer")
	}
	return t.TxRepository.SetAssetStatus(ctx, assetID, status, at)
}

var _ = Describe("Assignment Service", func() {
	var (
		db         *gorm.DB
		repo       *assignmentPostgres.AssignmentRepository
		publisher  *recordingPublisher
		service    *assignment.Service
		ctx        context.Context
		employeeID string
		assetID    string
	)

	assetStatus := func(id string) enums.AssetStatus {
		var row assetDatamodel.Asset
		Expect(db.First(&row, "id = ?", id).Error).To(Succeed())
		return enums.AssetStatus(row.Status)
	}

	countRows := func(model interface{}) int64 {
		var n int64
		Expect(db.Model(model).Count(&n).Error).To(Succeed())
		return n
	}

	create := func(asset, employee, date string) *assignment.Outcome {
		outcome, err := service.CreateAssignment(ctx, assignment.CreateAssignmentDTO{
			AssetID:    asset,
			EmployeeID: employee,
			StartDate:  date,
		})
		Expect(err).NotTo(HaveOccurred())
		return outcome
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = dbtest.Close(db) })

		employeeID, err = dbtest.InsertEmployee(db, "Doe", "active")
		Expect(err).NotTo(HaveOccurred())
		assetID, err = dbtest.InsertAsset(db, "A-001", "spare")
		Expect(err).NotTo(HaveOccurred())

		repo = assignmentPostgres.NewAssignmentRepository(db)
		publisher = &recordingPublisher{}
		service = assignment.NewService(repo, publisher, logger.Discard(),
			assignment.WithClock(dbtest.SteppingClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), time.Minute)))
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{
			UserID: "it-user",
			Email:  "it@example.com",
			Roles:  []string{"it"},
		})
	})

	Describe("full lifecycle", func() {
		It("creates, accepts and closes an assignment while flipping the asset", func() {
			created := create(assetID, employeeID, "2024-01-10")
			Expect(created.Assignment.Status).To(Equal(enums.AssignmentPendingAcceptance))
			Expect(assetStatus(assetID)).To(Equal(enums.AssetInUse))
			Expect(created.Invalidate).To(ContainElements(
				"assignment:"+created.Assignment.ID, "asset:"+assetID, "employee:"+employeeID))

			accepted, err := service.AcceptAssignment(ctx, created.Assignment.ID, assignment.AcceptAssignmentDTO{DigitalAcknowledgment: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted.Assignment.Status).To(Equal(enums.AssignmentActive))
			Expect(accepted.Assignment.AcceptedAt).NotTo(BeNil())
			Expect(accepted.Assignment.AcceptedBy).To(PointTo(Equal("it-user")))

			closed, err := service.CloseAssignment(ctx, created.Assignment.ID, assignment.CloseAssignmentDTO{
				EndDate:          "2024-06-30",
				ChangeType:       "upgrade",
				AssetID:          assetID,
				AssetStatusAfter: "spare",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(closed.Assignment.Status).To(Equal(enums.AssignmentReturned))

			stored, err := service.GetAssignment(ctx, created.Assignment.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(enums.AssignmentReturned))
			Expect(stored.EndDate).To(PointTo(Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))))
			Expect(stored.ReturnedAt).NotTo(BeNil())
			Expect(stored.ChangeType).To(PointTo(Equal(enums.ChangeUpgrade)))
			Expect(assetStatus(assetID)).To(Equal(enums.AssetSpare))

			Expect(publisher.types()).To(Equal([]string{
				events.EventTypeAssignmentCreated,
				events.EventTypeAssignmentAccepted,
				events.EventTypeAssignmentClosed,
			}))
		})

		It("records audit entries with the acting user", func() {
			create(assetID, employeeID, "2024-01-10")

			var logs []auditDatamodel.Log
			Expect(db.Find(&logs).Error).To(Succeed())
			Expect(logs).To(HaveLen(2))

			byEntity := map[string]auditDatamodel.Log{}
			for _, l := range logs {
				byEntity[l.EntityType] = l
			}
			Expect(byEntity["assignment"].Action).To(Equal("assign"))
			Expect(byEntity["assignment"].UserID).To(PointTo(Equal("it-user")))
			Expect(byEntity["asset"].Action).To(Equal("update"))
			Expect(byEntity["asset"].EntityID).To(Equal(assetID))
		})

		It("walks through pending return before the simple return", func() {
			created := create(assetID, employeeID, "2024-01-10")
			_, err := service.AcceptAssignment(ctx, created.Assignment.ID, assignment.AcceptAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())

			requested, err := service.RequestReturn(ctx, created.Assignment.ID, assignment.RequestReturnDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(requested.Assignment.Status).To(Equal(enums.AssignmentPendingReturn))

			returned, err := service.ReturnAssignment(ctx, created.Assignment.ID, assignment.ReturnAssignmentDTO{RequiresFormatting: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(returned.Assignment.Status).To(Equal(enums.AssignmentReturned))
			Expect(returned.Assignment.EndDate).NotTo(BeNil())
			Expect(returned.Assignment.RequiresFormatting).To(BeTrue())
			Expect(assetStatus(assetID)).To(Equal(enums.AssetInUse))
		})
	})

	Describe("CreateAssignment preconditions", func() {
		It("rejects an employee who has left", func() {
			leftID, err := dbtest.InsertEmployee(db, "Gone", "left")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateAssignment(ctx, assignment.CreateAssignmentDTO{AssetID: assetID, EmployeeID: leftID, StartDate: "2024-01-10"})
			Expect(errors.Is(err, internal.ErrEmployeeInactive)).To(BeTrue())
			Expect(assetStatus(assetID)).To(Equal(enums.AssetSpare))
			Expect(countRows(&assignmentDatamodel.Assignment{})).To(BeZero())
		})

		It("rejects assets outside spare and ordered", func() {
			for _, status := range []string{"planned", "in_use", "under_repair", "quarantined", "retired", "disposed"} {
				id, err := dbtest.InsertAsset(db, "X-"+status, status)
				Expect(err).NotTo(HaveOccurred())

				_, err = service.CreateAssignment(ctx, assignment.CreateAssignmentDTO{AssetID: id, EmployeeID: employeeID, StartDate: "2024-01-10"})
				Expect(errors.Is(err, internal.ErrAssetNotAssignable)).To(BeTrue(), status)
				Expect(assetStatus(id)).To(Equal(enums.AssetStatus(status)))
			}
		})

		It("accepts ordered assets", func() {
			orderedID, err := dbtest.InsertAsset(db, "O-1", "ordered")
			Expect(err).NotTo(HaveOccurred())
			create(orderedID, employeeID, "2024-01-10")
			Expect(assetStatus(orderedID)).To(Equal(enums.AssetInUse))
		})

		It("refuses a second open assignment even when the asset looks free", func() {
			first := create(assetID, employeeID, "2024-01-10")
			Expect(db.Model(&assetDatamodel.Asset{}).Where("id = ?", assetID).Update("status", "spare").Error).To(Succeed())

			otherID, err := dbtest.InsertEmployee(db, "Other", "active")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateAssignment(ctx, assignment.CreateAssignmentDTO{AssetID: assetID, EmployeeID: otherID, StartDate: "2024-01-11"})
			Expect(errors.Is(err, internal.ErrDuplicateActiveAssignment)).To(BeTrue())

			open, err := service.ListAssignments(ctx, assignment.ListFilter{AssetID: assetID, OpenOnly: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(HaveLen(1))
			Expect(open[0].ID).To(Equal(first.Assignment.ID))
		})

		It("is backed by the partial unique index", func() {
			create(assetID, employeeID, "2024-01-10")

			row := assignment.ToDataModel(assignment.NewAssignment(assetID, employeeID, time.Now(), nil, "", time.Now()))
			err := db.Create(row).Error
			Expect(err).To(HaveOccurred())
		})

		It("returns not found for unknown records", func() {
			_, err := service.CreateAssignment(ctx, assignment.CreateAssignmentDTO{
				AssetID:    "00000000-0000-4000-8000-000000000000",
				EmployeeID: employeeID,
				StartDate:  "2024-01-10",
			})
			Expect(errors.Is(err, internal.ErrAssetNotFound)).To(BeTrue())
		})
	})

	Describe("invalid transitions", func() {
		It("does not accept an active or returned assignment and leaves it untouched", func() {
			created := create(assetID, employeeID, "2024-01-10")
			accepted, err := service.AcceptAssignment(ctx, created.Assignment.ID, assignment.AcceptAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AcceptAssignment(ctx, created.Assignment.ID, assignment.AcceptAssignmentDTO{DigitalAcknowledgment: true})
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())

			stored, err := service.GetAssignment(ctx, created.Assignment.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.AcceptedAt).To(BeTemporally("==", *accepted.Assignment.AcceptedAt))
			Expect(stored.DigitalAcknowledgment).To(BeFalse())

			_, err = service.ReturnAssignment(ctx, created.Assignment.ID, assignment.ReturnAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AcceptAssignment(ctx, created.Assignment.ID, assignment.AcceptAssignmentDTO{})
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
		})

		It("keeps returned assignments read-only", func() {
			created := create(assetID, employeeID, "2024-01-10")
			_, err := service.ReturnAssignment(ctx, created.Assignment.ID, assignment.ReturnAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())

			notes := "rewrite history"
			_, err = service.UpdateAssignment(ctx, created.Assignment.ID, assignment.UpdateAssignmentDTO{Notes: &notes})
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
		})

		It("never stores an end date before a future start date", func() {
			created := create(assetID, employeeID, "2024-03-01")

			returned, err := service.ReturnAssignment(ctx, created.Assignment.ID, assignment.ReturnAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())

			stored, err := service.GetAssignment(ctx, returned.Assignment.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.StartDate).To(Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
			Expect(stored.EndDate).To(PointTo(Equal(stored.StartDate)))
		})

		It("rejects a close naming another asset", func() {
			created := create(assetID, employeeID, "2024-01-10")
			otherID, err := dbtest.InsertAsset(db, "A-002", "spare")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CloseAssignment(ctx, created.Assignment.ID, assignment.CloseAssignmentDTO{
				EndDate:          "2024-02-01",
				ChangeType:       "other",
				AssetID:          otherID,
				AssetStatusAfter: "spare",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(assetStatus(assetID)).To(Equal(enums.AssetInUse))
		})
	})

	Describe("UpdateAssignment start date", func() {
		fieldCode := func(err error) string {
			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			details, ok := appErr.Details.(internal.ValidationErrors)
			Expect(ok).To(BeTrue())
			Expect(details.Errors).To(HaveLen(1))
			Expect(details.Errors[0].Field).To(Equal("start_date"))
			return details.Errors[0].Code
		}

		It("does not move an accepted assignment past its acceptance", func() {
			created := create(assetID, employeeID, "2024-01-08")
			_, err := service.AcceptAssignment(ctx, created.Assignment.ID, assignment.AcceptAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())

			later := "2024-02-01"
			_, err = service.UpdateAssignment(ctx, created.Assignment.ID, assignment.UpdateAssignmentDTO{StartDate: &later})
			Expect(fieldCode(err)).To(Equal(string(internal.ErrCodeInvalidDate)))

			earlier := "2024-01-05"
			updated, err := service.UpdateAssignment(ctx, created.Assignment.ID, assignment.UpdateAssignmentDTO{StartDate: &earlier})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Assignment.StartDate).To(Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
		})

		It("does not overlap the asset's previous assignment", func() {
			first := create(assetID, employeeID, "2024-01-02")
			_, err := service.CloseAssignment(ctx, first.Assignment.ID, assignment.CloseAssignmentDTO{
				EndDate:          "2024-01-20",
				ChangeType:       "reassignment",
				AssetID:          assetID,
				AssetStatusAfter: "spare",
			})
			Expect(err).NotTo(HaveOccurred())
			second := create(assetID, employeeID, "2024-01-25")

			overlap := "2024-01-15"
			_, err = service.UpdateAssignment(ctx, second.Assignment.ID, assignment.UpdateAssignmentDTO{StartDate: &overlap})
			Expect(fieldCode(err)).To(Equal(string(internal.ErrCodeInvalidDate)))

			stored, err := service.GetAssignment(ctx, second.Assignment.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.StartDate).To(Equal(time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)))

			handover := "2024-01-20"
			_, err = service.UpdateAssignment(ctx, second.Assignment.ID, assignment.UpdateAssignmentDTO{StartDate: &handover})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("ReplaceAssetForEmployee", func() {
		var (
			current    *assignment.Outcome
			newAssetID string
		)

		BeforeEach(func() {
			var err error
			current = create(assetID, employeeID, "2024-01-10")
			_, err = service.AcceptAssignment(ctx, current.Assignment.ID, assignment.AcceptAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())
			newAssetID, err = dbtest.InsertAsset(db, "A-NEW", "spare")
			Expect(err).NotTo(HaveOccurred())
		})

		replace := func(s *assignment.Service) (*assignment.Outcome, error) {
			reason := "battery swelling"
			return s.ReplaceAssetForEmployee(ctx, current.Assignment.ID, assignment.ReplaceAssetDTO{
				EmployeeID: employeeID,
				OldAssetID: assetID,
				NewAssetID: newAssetID,
				Date:       "2024-03-01",
				Reason:     &reason,
			})
		}

		It("performs all four writes", func() {
			outcome, err := replace(service)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.Replaced.ID).To(Equal(current.Assignment.ID))
			Expect(outcome.Replaced.Status).To(Equal(enums.AssignmentReturned))
			Expect(outcome.Replaced.ChangeType).To(PointTo(Equal(enums.ChangeReplacement)))
			Expect(outcome.Assignment.Status).To(Equal(enums.AssignmentPendingAcceptance))
			Expect(outcome.Assignment.AssetID).To(Equal(newAssetID))
			Expect(outcome.Assignment.Notes).To(PointTo(Equal("battery swelling")))
			Expect(assetStatus(assetID)).To(Equal(enums.AssetSpare))
			Expect(assetStatus(newAssetID)).To(Equal(enums.AssetInUse))
			Expect(outcome.Invalidate).To(ContainElements("asset:"+assetID, "asset:"+newAssetID))
		})

		It("rolls every write back when a later step fails", func() {
			auditBefore := countRows(&auditDatamodel.Log{})
			broken := assignment.NewService(failingRepository{Repository: repo, failAssetID: newAssetID}, publisher, logger.Discard())

			_, err := replace(broken)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))

			stored, err := service.GetAssignment(ctx, current.Assignment.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(enums.AssignmentActive))
			Expect(assetStatus(assetID)).To(Equal(enums.AssetInUse))
			Expect(assetStatus(newAssetID)).To(Equal(enums.AssetSpare))
			Expect(countRows(&assignmentDatamodel.Assignment{})).To(Equal(int64(1)))
			Expect(countRows(&auditDatamodel.Log{})).To(Equal(auditBefore))
		})

		It("refuses a replacement that is not security compliant", func() {
			var err error
			newAssetID, err = dbtest.InsertAsset(db, "A-UNSAFE", "spare", dbtest.WithSecurityCompliant(false))
			Expect(err).NotTo(HaveOccurred())

			_, err = replace(service)
			Expect(errors.Is(err, internal.ErrAssetNotAssignable)).To(BeTrue())
			Expect(assetStatus(assetID)).To(Equal(enums.AssetInUse))
		})

		It("refuses a different employee", func() {
			otherID, err := dbtest.InsertEmployee(db, "Other", "active")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ReplaceAssetForEmployee(ctx, current.Assignment.ID, assignment.ReplaceAssetDTO{
				EmployeeID: otherID,
				OldAssetID: assetID,
				NewAssetID: newAssetID,
				Date:       "2024-03-01",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("history", func() {
		It("returns the new assignment right after creation", func() {
			created := create(assetID, employeeID, "2024-01-10")

			for _, load := range []func(context.Context, string) ([]*assignment.Assignment, error){
				func(c context.Context, _ string) ([]*assignment.Assignment, error) {
					return service.HistoryForEmployee(c, employeeID)
				},
				func(c context.Context, _ string) ([]*assignment.Assignment, error) {
					return service.HistoryForAsset(c, assetID)
				},
			} {
				list, err := load(ctx, "")
				Expect(err).NotTo(HaveOccurred())
				Expect(list).To(HaveLen(1))
				Expect(list[0].ID).To(Equal(created.Assignment.ID))
				Expect(list[0].Status).To(Equal(enums.AssignmentPendingAcceptance))
				Expect(list[0].StartDate).To(Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
			}
		})

		It("sorts by start date and then newest insertion first", func() {
			secondAsset, err := dbtest.InsertAsset(db, "A-002", "spare")
			Expect(err).NotTo(HaveOccurred())
			thirdAsset, err := dbtest.InsertAsset(db, "A-003", "spare")
			Expect(err).NotTo(HaveOccurred())

			older := create(assetID, employeeID, "2024-01-10")
			first := create(secondAsset, employeeID, "2024-02-01")
			second := create(thirdAsset, employeeID, "2024-02-01")

			list, err := service.HistoryForEmployee(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			ids := []string{}
			for _, a := range list {
				ids = append(ids, a.ID)
			}
			Expect(ids).To(Equal([]string{second.Assignment.ID, first.Assignment.ID, older.Assignment.ID}))

			open, err := service.ActiveAssignmentsForEmployee(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(HaveLen(3))
		})
	})

	It("still returns the outcome when a subscriber fails", func() {
		publisher.err = errors.New("redis down")
		outcome := create(assetID, employeeID, "2024-01-10")
		Expect(outcome.Assignment).NotTo(BeNil())
		Expect(assetStatus(assetID)).To(Equal(enums.AssetInUse))
	})
})
