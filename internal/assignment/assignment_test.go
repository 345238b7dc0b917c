package assignment_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

var _ = Describe("Assignment", func() {
	var (
		a   *assignment.Assignment
		now time.Time
	)

	BeforeEach(func() {
		now = time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)
		a = assignment.NewAssignment("asset-1", "employee-1", now, nil, "it-user", now)
	})

	It("starts pending acceptance on the start date", func() {
		Expect(a.Status).To(Equal(enums.AssignmentPendingAcceptance))
		Expect(a.StartDate).To(Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
		Expect(a.IsOpen()).To(BeTrue())
	})

	Describe("Accept", func() {
		It("activates a pending assignment", func() {
			notes := "received with charger"
			Expect(a.Accept(now, "it-user", &notes, true)).To(Succeed())
			Expect(a.Status).To(Equal(enums.AssignmentActive))
			Expect(a.AcceptedAt).To(PointTo(Equal(now)))
			Expect(a.AcceptanceNotes).To(PointTo(Equal(notes)))
			Expect(a.DigitalAcknowledgment).To(BeTrue())
		})

		It("rejects a second acceptance without touching the record", func() {
			Expect(a.Accept(now, "it-user", nil, false)).To(Succeed())
			acceptedAt := *a.AcceptedAt

			err := a.Accept(now.Add(time.Hour), "someone-else", nil, true)
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
			Expect(*a.AcceptedAt).To(Equal(acceptedAt))
			Expect(a.DigitalAcknowledgment).To(BeFalse())
		})
	})

	Describe("RequestReturn", func() {
		It("only applies to active assignments", func() {
			err := a.RequestReturn(now, nil)
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())

			Expect(a.Accept(now, "", nil, false)).To(Succeed())
			Expect(a.RequestReturn(now, nil)).To(Succeed())
			Expect(a.Status).To(Equal(enums.AssignmentPendingReturn))
		})
	})

	Describe("Return", func() {
		It("ends the assignment today and records the condition", func() {
			condition := "scratched lid"
			returnedAt := now.Add(48 * time.Hour)
			err := a.Return(returnedAt, "it-user", assignment.ReturnDetails{
				Condition:          &condition,
				RequiresFormatting: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Status).To(Equal(enums.AssignmentReturned))
			Expect(a.EndDate).To(PointTo(Equal(time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC))))
			Expect(a.ReturnedAt).To(PointTo(Equal(returnedAt)))
			Expect(a.RequiresFormatting).To(BeTrue())
		})

		It("ends a future-dated assignment on its start date", func() {
			starts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			future := assignment.NewAssignment("asset-1", "employee-1", starts, nil, "it-user", now)

			Expect(future.Return(now, "it-user", assignment.ReturnDetails{})).To(Succeed())
			Expect(future.EndDate).To(PointTo(Equal(starts)))
			Expect(future.ReturnedAt).To(PointTo(Equal(now)))
		})

		It("is terminal", func() {
			Expect(a.Return(now, "", assignment.ReturnDetails{})).To(Succeed())
			for _, err := range []error{
				a.Return(now, "", assignment.ReturnDetails{}),
				a.Close(now, now, "", enums.ChangeOther, nil),
				a.Accept(now, "", nil, false),
				a.RequestReturn(now, nil),
			} {
				Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
			}
		})
	})

	Describe("Close", func() {
		It("closes from pending return", func() {
			Expect(a.Accept(now, "", nil, false)).To(Succeed())
			Expect(a.RequestReturn(now, nil)).To(Succeed())

			reason := "new model"
			endDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
			Expect(a.Close(endDate, now, "it-user", enums.ChangeUpgrade, &reason)).To(Succeed())
			Expect(a.Status).To(Equal(enums.AssignmentReturned))
			Expect(a.EndDate).To(PointTo(Equal(endDate)))
			Expect(a.ChangeType).To(PointTo(Equal(enums.ChangeUpgrade)))
			Expect(a.ChangeReason).To(PointTo(Equal(reason)))
		})
	})

	Describe("AllowedActions", func() {
		It("offers nothing to roles that cannot manage assignments", func() {
			Expect(assignment.AllowedActions(a, []string{"hr", "auditor"})).To(BeEmpty())
		})

		It("follows the state machine for it staff", func() {
			roles := []string{"it"}
			Expect(assignment.AllowedActions(a, roles)).To(ConsistOf(
				assignment.ActionAccept, assignment.ActionReturn, assignment.ActionClose,
				assignment.ActionReplace, assignment.ActionEdit))

			Expect(a.Accept(now, "", nil, false)).To(Succeed())
			Expect(a.RequestReturn(now, nil)).To(Succeed())
			Expect(assignment.AllowedActions(a, roles)).To(ConsistOf(
				assignment.ActionReturn, assignment.ActionClose))

			Expect(a.Return(now, "", assignment.ReturnDetails{})).To(Succeed())
			Expect(assignment.AllowedActions(a, []string{"admin"})).To(BeEmpty())
		})
	})

	It("reports every read model it touches", func() {
		Expect(a.InvalidationKeys()).To(ContainElements(
			"assignment:"+a.ID, "asset:asset-1", "employee:employee-1", "assignments", "assets"))
	})
})

var _ = Describe("DTO validation", func() {
	It("requires ids and a well formed start date", func() {
		err := assignment.CreateAssignmentDTO{StartDate: "10/01/2024"}.Validate()
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

		details := appErr.Details.(internal.ValidationErrors)
		fields := map[string]string{}
		for _, e := range details.Errors {
			fields[e.Field] = e.Code
		}
		Expect(fields).To(HaveKeyWithValue("asset_id", string(internal.ErrCodeValidationFailed)))
		Expect(fields).To(HaveKeyWithValue("start_date", string(internal.ErrCodeInvalidDate)))
	})

	It("rejects asset statuses that cannot follow a close", func() {
		err := assignment.CloseAssignmentDTO{
			EndDate:          "2024-02-01",
			ChangeType:       "upgrade",
			AssetID:          "8a7c1d0e-3c55-4b8f-9d6e-0f4b8c2a1e11",
			AssetStatusAfter: "in_use",
		}.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("asset_status_after"))
	})

	It("rejects replacing an asset with itself", func() {
		id := "8a7c1d0e-3c55-4b8f-9d6e-0f4b8c2a1e11"
		err := assignment.ReplaceAssetDTO{
			EmployeeID: "5f0d3c7e-9d54-4c1e-8b1f-2e6a9b7c4d22",
			OldAssetID: id,
			NewAssetID: id,
			Date:       "2024-03-01",
		}.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("new_asset_id"))
	})
})
