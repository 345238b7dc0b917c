package employee

import (
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	employeeDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/employee"
	offboardingDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/offboarding"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

type Employee struct {
	ID                     string
	FirstName              string
	LastName               string
	Email                  *string
	Department             *string
	BadgeID                *string
	HealthCardID           *string
	Status                 enums.EmployeeStatus
	StartDate              time.Time
	EndDate                *time.Time
	IsOffboardingComplete  bool
	OffboardingCompletedAt *time.Time
	OffboardingCompletedBy *string
	CreatedBy              *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (e *Employee) IsActive() bool {
	return e.Status == enums.EmployeeActive
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// MarkLeft ends the employment and completes offboarding in one step.
func (e *Employee) MarkLeft(endDate, now time.Time, by string) {
	e.Status = enums.EmployeeLeft
	e.EndDate = &endDate
	e.IsOffboardingComplete = true
	e.OffboardingCompletedAt = &now
	if by != "" {
		e.OffboardingCompletedBy = &by
	}
	e.UpdatedAt = now
}

// Reactivate brings back a former employee, clearing the offboarding state.
func (e *Employee) Reactivate(now time.Time) {
	e.Status = enums.EmployeeActive
	e.EndDate = nil
	e.IsOffboardingComplete = false
	e.OffboardingCompletedAt = nil
	e.OffboardingCompletedBy = nil
	e.UpdatedAt = now
}

func (e *Employee) InvalidationKeys() []string {
	return cache.NewKeys(cache.EmployeeKey(e.ID), cache.KeyEmployees, cache.KeyDashboard).List()
}

func (e *Employee) Snapshot() map[string]interface{} {
	out := map[string]interface{}{
		"first_name":              e.FirstName,
		"last_name":               e.LastName,
		"status":                  e.Status,
		"start_date":              e.StartDate.Format(validation.DateLayout),
		"is_offboarding_complete": e.IsOffboardingComplete,
	}
	optional := map[string]*string{
		"email":          e.Email,
		"department":     e.Department,
		"badge_id":       e.BadgeID,
		"health_card_id": e.HealthCardID,
	}
	for k, v := range optional {
		if v != nil {
			out[k] = *v
		}
	}
	if e.EndDate != nil {
		out["end_date"] = e.EndDate.Format(validation.DateLayout)
	}
	return out
}

type Response struct {
	ID                     string               `json:"id"`
	FirstName              string               `json:"first_name"`
	LastName               string               `json:"last_name"`
	Email                  *string              `json:"email,omitempty"`
	Department             *string              `json:"department,omitempty"`
	BadgeID                *string              `json:"badge_id,omitempty"`
	HealthCardID           *string              `json:"health_card_id,omitempty"`
	Status                 enums.EmployeeStatus `json:"status"`
	StartDate              string               `json:"start_date"`
	EndDate                *string              `json:"end_date,omitempty"`
	IsOffboardingComplete  bool                 `json:"is_offboarding_complete"`
	OffboardingCompletedAt *time.Time           `json:"offboarding_completed_at,omitempty"`
	OffboardingCompletedBy *string              `json:"offboarding_completed_by,omitempty"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

func (e *Employee) ToResponse() Response {
	var endDate *string
	if e.EndDate != nil {
		s := e.EndDate.Format(validation.DateLayout)
		endDate = &s
	}
	return Response{
		ID:                     e.ID,
		FirstName:              e.FirstName,
		LastName:               e.LastName,
		Email:                  e.Email,
		Department:             e.Department,
		BadgeID:                e.BadgeID,
		HealthCardID:           e.HealthCardID,
		Status:                 e.Status,
		StartDate:              e.StartDate.Format(validation.DateLayout),
		EndDate:                endDate,
		IsOffboardingComplete:  e.IsOffboardingComplete,
		OffboardingCompletedAt: e.OffboardingCompletedAt,
		OffboardingCompletedBy: e.OffboardingCompletedBy,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func ToResponses(list []*Employee) []Response {
	out := make([]Response, 0, len(list))
	for _, e := range list {
		out = append(out, e.ToResponse())
	}
	return out
}

// OffboardingRecord documents how an employee's equipment was settled.
type OffboardingRecord struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employee_id"`
	InitiatedAt    time.Time  `json:"initiated_at"`
	InitiatedBy    *string    `json:"initiated_by,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CompletedBy    *string    `json:"completed_by,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	PendingAssets  []string   `json:"pending_assets"`
	ReturnedAssets []string   `json:"returned_assets"`
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:                     e.ID,
		FirstName:              e.FirstName,
		LastName:               e.LastName,
		Email:                  e.Email,
		Department:             e.Department,
		BadgeID:                e.BadgeID,
		HealthCardID:           e.HealthCardID,
		Status:                 string(e.Status),
		StartDate:              e.StartDate,
		EndDate:                e.EndDate,
		IsOffboardingComplete:  e.IsOffboardingComplete,
		OffboardingCompletedAt: e.OffboardingCompletedAt,
		OffboardingCompletedBy: e.OffboardingCompletedBy,
		CreatedBy:              e.CreatedBy,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func FromDataModel(m *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:                     m.ID,
		FirstName:              m.FirstName,
		LastName:               m.LastName,
		Email:                  m.Email,
		Department:             m.Department,
		BadgeID:                m.BadgeID,
		HealthCardID:           m.HealthCardID,
		Status:                 enums.EmployeeStatus(m.Status),
		StartDate:              m.StartDate.UTC(),
		EndDate:                utcPtr(m.EndDate),
		IsOffboardingComplete:  m.IsOffboardingComplete,
		OffboardingCompletedAt: utcPtr(m.OffboardingCompletedAt),
		OffboardingCompletedBy: m.OffboardingCompletedBy,
		CreatedBy:              m.CreatedBy,
		CreatedAt:              m.CreatedAt.UTC(),
		UpdatedAt:              m.UpdatedAt.UTC(),
	}
}

func RecordToDataModel(r *OffboardingRecord) *offboardingDatamodel.Record {
	return &offboardingDatamodel.Record{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		InitiatedAt:    r.InitiatedAt,
		InitiatedBy:    r.InitiatedBy,
		CompletedAt:    r.CompletedAt,
		CompletedBy:    r.CompletedBy,
		Notes:          r.Notes,
		PendingAssets:  offboardingDatamodel.AssetList(r.PendingAssets),
		ReturnedAssets: offboardingDatamodel.AssetList(r.ReturnedAssets),
	}
}

func RecordFromDataModel(m *offboardingDatamodel.Record) *OffboardingRecord {
	r := &OffboardingRecord{
		ID:             m.ID,
		EmployeeID:     m.EmployeeID,
		InitiatedAt:    m.InitiatedAt.UTC(),
		InitiatedBy:    m.InitiatedBy,
		CompletedAt:    utcPtr(m.CompletedAt),
		CompletedBy:    m.CompletedBy,
		Notes:          m.Notes,
		PendingAssets:  []string(m.PendingAssets),
		ReturnedAssets: []string(m.ReturnedAssets),
	}
	if r.PendingAssets == nil {
		r.PendingAssets = []string{}
	}
	if r.ReturnedAssets == nil {
		r.ReturnedAssets = []string{}
	}
	return r
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
