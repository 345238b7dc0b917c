package assignment

import (
	"fmt"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	assignmentDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/google/uuid"
)

type Assignment struct {
	ID                    string
	AssetID               string
	EmployeeID            string
	Status                enums.AssignmentStatus
	StartDate             time.Time
	EndDate               *time.Time
	Notes                 *string
	AcceptedAt            *time.Time
	AcceptedBy            *string
	AcceptanceNotes       *string
	DigitalAcknowledgment bool
	ReturnedAt            *time.Time
	ReturnedBy            *string
	ReturnCondition       *string
	DamageNotes           *string
	RequiresFormatting    bool
	ChangeType            *enums.ChangeType
	ChangeReason          *string
	CreatedBy             *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// AssetState is the slice of an asset row the engine reads under lock.
type AssetState struct {
	ID                string
	Status            enums.AssetStatus
	IsReadonly        bool
	SecurityCompliant bool
}

func (a AssetState) CanBeAssigned() bool {
	return !a.IsReadonly && a.Status.In(enums.AssignableAssetStatuses)
}

type EmployeeState struct {
	ID     string
	Status enums.EmployeeStatus
}

func (e EmployeeState) CanReceiveAssignment() bool {
	return e.Status == enums.EmployeeActive
}

// Outcome is returned by every mutating operation. Invalidate names the read
// models the change made stale.
type Outcome struct {
	Assignment *Assignment
	Replaced   *Assignment
	Invalidate []string
}

func NewAssignment(assetID, employeeID string, startDate time.Time, notes *string, createdBy string, now time.Time) *Assignment {
	return &Assignment{
		ID:         uuid.NewString(),
		AssetID:    assetID,
		EmployeeID: employeeID,
		Status:     enums.AssignmentPendingAcceptance,
		StartDate:  validation.Today(startDate),
		Notes:      notes,
		CreatedBy:  optional(createdBy),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (a *Assignment) IsOpen() bool {
	return a.Status.IsOpen()
}

func (a *Assignment) IsReturned() bool {
	return a.Status == enums.AssignmentReturned
}

func (a *Assignment) CanBeAccepted() bool {
	return a.Status == enums.AssignmentPendingAcceptance
}

func (a *Assignment) CanRequestReturn() bool {
	return a.Status == enums.AssignmentActive
}

// CanBeReturned covers both the simple return and the reasoned close.
func (a *Assignment) CanBeReturned() bool {
	switch a.Status {
	case enums.AssignmentPendingAcceptance, enums.AssignmentActive, enums.AssignmentPendingReturn:
		return true
	}
	return false
}

func (a *Assignment) CanBeReplaced() bool {
	return a.IsOpen()
}

func (a *Assignment) Accept(now time.Time, by string, notes *string, acknowledged bool) error {
	if !a.CanBeAccepted() {
		return a.invalidTransition(enums.AssignmentActive)
	}
	a.Status = enums.AssignmentActive
	a.AcceptedAt = &now
	a.AcceptedBy = optional(by)
	a.AcceptanceNotes = notes
	a.DigitalAcknowledgment = acknowledged
	a.UpdatedAt = now
	return nil
}

func (a *Assignment) RequestReturn(now time.Time, notes *string) error {
	if !a.CanRequestReturn() {
		return a.invalidTransition(enums.AssignmentPendingReturn)
	}
	a.Status = enums.AssignmentPendingReturn
	if notes != nil {
		a.Notes = notes
	}
	a.UpdatedAt = now
	return nil
}

// ReturnDetails is the condition report captured when an asset comes back.
type ReturnDetails struct {
	Condition          *string
	DamageNotes        *string
	RequiresFormatting bool
}

func (a *Assignment) Return(now time.Time, by string, details ReturnDetails) error {
	if !a.CanBeReturned() {
		return a.invalidTransition(enums.AssignmentReturned)
	}
	// A future-dated assignment returned early ends on its own start date.
	endDate := validation.Today(now)
	if endDate.Before(a.StartDate) {
		endDate = a.StartDate
	}
	a.Status = enums.AssignmentReturned
	a.EndDate = &endDate
	a.ReturnedAt = &now
	a.ReturnedBy = optional(by)
	a.ReturnCondition = details.Condition
	a.DamageNotes = details.DamageNotes
	a.RequiresFormatting = details.RequiresFormatting
	a.UpdatedAt = now
	return nil
}

func (a *Assignment) Close(endDate, now time.Time, by string, changeType enums.ChangeType, reason *string) error {
	if !a.CanBeReturned() {
		return a.invalidTransition(enums.AssignmentReturned)
	}
	end := validation.Today(endDate)
	a.Status = enums.AssignmentReturned
	a.EndDate = &end
	a.ReturnedAt = &now
	a.ReturnedBy = optional(by)
	a.ChangeType = &changeType
	a.ChangeReason = reason
	a.UpdatedAt = now
	return nil
}

func (a *Assignment) invalidTransition(to enums.AssignmentStatus) error {
	return internal.ErrInvalidTransition.
		WithMessage(fmt.Sprintf("Cannot move assignment from %s to %s", a.Status, to)).
		WithDetails(map[string]interface{}{
			"from": a.Status,
			"to":   to,
		})
}

// InvalidationKeys lists the read models touched when this assignment changes.
func (a *Assignment) InvalidationKeys() []string {
	return cache.NewKeys(
		cache.AssignmentKey(a.ID),
		cache.AssetKey(a.AssetID),
		cache.EmployeeKey(a.EmployeeID),
		cache.KeyAssignments,
		cache.KeyAssets,
		cache.KeyDashboard,
	).List()
}

// Snapshot is the audit representation of an assignment.
func (a *Assignment) Snapshot() map[string]interface{} {
	out := map[string]interface{}{
		"asset_id":               a.AssetID,
		"employee_id":            a.EmployeeID,
		"status":                 a.Status,
		"start_date":             a.StartDate.Format(validation.DateLayout),
		"digital_acknowledgment": a.DigitalAcknowledgment,
		"requires_formatting":    a.RequiresFormatting,
	}
	if a.EndDate != nil {
		out["end_date"] = a.EndDate.Format(validation.DateLayout)
	}
	if a.Notes != nil {
		out["notes"] = *a.Notes
	}
	if a.ReturnCondition != nil {
		out["return_condition"] = *a.ReturnCondition
	}
	if a.DamageNotes != nil {
		out["damage_notes"] = *a.DamageNotes
	}
	if a.ChangeType != nil {
		out["change_type"] = *a.ChangeType
	}
	if a.ChangeReason != nil {
		out["change_reason"] = *a.ChangeReason
	}
	return out
}

type Action string

const (
	ActionAccept        Action = "accept"
	ActionRequestReturn Action = "request_return"
	ActionReturn        Action = "return"
	ActionClose         Action = "close"
	ActionReplace       Action = "replace"
	ActionEdit          Action = "edit"
)

// AllowedActions reports which transitions a caller holding roles may offer.
// Enforcement happens in the route middleware and the service.
func AllowedActions(a *Assignment, roles []string) []Action {
	actions := []Action{}
	if a == nil || !enums.HasAnyRole(roles, enums.AssignmentManagers...) {
		return actions
	}
	if a.CanBeAccepted() {
		actions = append(actions, ActionAccept)
	}
	if a.CanRequestReturn() {
		actions = append(actions, ActionRequestReturn)
	}
	if a.CanBeReturned() {
		actions = append(actions, ActionReturn, ActionClose)
	}
	if a.CanBeReplaced() {
		actions = append(actions, ActionReplace, ActionEdit)
	}
	return actions
}

type Response struct {
	ID                    string                 `json:"id"`
	AssetID               string                 `json:"asset_id"`
	EmployeeID            string                 `json:"employee_id"`
	Status                enums.AssignmentStatus `json:"status"`
	StartDate             string                 `json:"start_date"`
	EndDate               *string                `json:"end_date,omitempty"`
	Notes                 *string                `json:"notes,omitempty"`
	AcceptedAt            *time.Time             `json:"accepted_at,omitempty"`
	AcceptedBy            *string                `json:"accepted_by,omitempty"`
	AcceptanceNotes       *string                `json:"acceptance_notes,omitempty"`
	DigitalAcknowledgment bool                   `json:"digital_acknowledgment"`
	ReturnedAt            *time.Time             `json:"returned_at,omitempty"`
	ReturnedBy            *string                `json:"returned_by,omitempty"`
	ReturnCondition       *string                `json:"return_condition,omitempty"`
	DamageNotes           *string                `json:"damage_notes,omitempty"`
	RequiresFormatting    bool                   `json:"requires_formatting"`
	ChangeType            *enums.ChangeType      `json:"change_type,omitempty"`
	ChangeReason          *string                `json:"change_reason,omitempty"`
	CreatedBy             *string                `json:"created_by,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
	AllowedActions        []Action               `json:"allowed_actions,omitempty"`
}

func (a *Assignment) ToResponse() Response {
	var endDate *string
	if a.EndDate != nil {
		s := a.EndDate.Format(validation.DateLayout)
		endDate = &s
	}
	return Response{
		ID:                    a.ID,
		AssetID:               a.AssetID,
		EmployeeID:            a.EmployeeID,
		Status:                a.Status,
		StartDate:             a.StartDate.Format(validation.DateLayout),
		EndDate:               endDate,
		Notes:                 a.Notes,
		AcceptedAt:            a.AcceptedAt,
		AcceptedBy:            a.AcceptedBy,
		AcceptanceNotes:       a.AcceptanceNotes,
		DigitalAcknowledgment: a.DigitalAcknowledgment,
		ReturnedAt:            a.ReturnedAt,
		ReturnedBy:            a.ReturnedBy,
		ReturnCondition:       a.ReturnCondition,
		DamageNotes:           a.DamageNotes,
		RequiresFormatting:    a.RequiresFormatting,
		ChangeType:            a.ChangeType,
		ChangeReason:          a.ChangeReason,
		CreatedBy:             a.CreatedBy,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func ToResponses(list []*Assignment) []Response {
	out := make([]Response, 0, len(list))
	for _, a := range list {
		out = append(out, a.ToResponse())
	}
	return out
}

func ToDataModel(a *Assignment) *assignmentDatamodel.Assignment {
	var changeType *string
	if a.ChangeType != nil {
		s := string(*a.ChangeType)
		changeType = &s
	}
	return &assignmentDatamodel.Assignment{
		ID:                    a.ID,
		AssetID:               a.AssetID,
		EmployeeID:            a.EmployeeID,
		Status:                string(a.Status),
		StartDate:             a.StartDate,
		EndDate:               a.EndDate,
		Notes:                 a.Notes,
		AcceptedAt:            a.AcceptedAt,
		AcceptedBy:            a.AcceptedBy,
		AcceptanceNotes:       a.AcceptanceNotes,
		DigitalAcknowledgment: a.DigitalAcknowledgment,
		ReturnedAt:            a.ReturnedAt,
		ReturnedBy:            a.ReturnedBy,
		ReturnCondition:       a.ReturnCondition,
		DamageNotes:           a.DamageNotes,
		RequiresFormatting:    a.RequiresFormatting,
		ChangeType:            changeType,
		ChangeReason:          a.ChangeReason,
		CreatedBy:             a.CreatedBy,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func FromDataModel(m *assignmentDatamodel.Assignment) *Assignment {
	var changeType *enums.ChangeType
	if m.ChangeType != nil {
		ct := enums.ChangeType(*m.ChangeType)
		changeType = &ct
	}
	return &Assignment{
		ID:                    m.ID,
		AssetID:               m.AssetID,
		EmployeeID:            m.EmployeeID,
		Status:                enums.AssignmentStatus(m.Status),
		StartDate:             m.StartDate.UTC(),
		EndDate:               utcPtr(m.EndDate),
		Notes:                 m.Notes,
		AcceptedAt:            utcPtr(m.AcceptedAt),
		AcceptedBy:            m.AcceptedBy,
		AcceptanceNotes:       m.AcceptanceNotes,
		DigitalAcknowledgment: m.DigitalAcknowledgment,
		ReturnedAt:            utcPtr(m.ReturnedAt),
		ReturnedBy:            m.ReturnedBy,
		ReturnCondition:       m.ReturnCondition,
		DamageNotes:           m.DamageNotes,
		RequiresFormatting:    m.RequiresFormatting,
		ChangeType:            changeType,
		ChangeReason:          m.ChangeReason,
		CreatedBy:             m.CreatedBy,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
