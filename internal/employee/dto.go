package employee

import (
	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type CreateEmployeeDTO struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        *string `json:"email,omitempty"`
	Department   *string `json:"department,omitempty"`
	BadgeID      *string `json:"badge_id,omitempty"`
	HealthCardID *string `json:"health_card_id,omitempty"`
	StartDate    string  `json:"start_date"`
}

func (dto CreateEmployeeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("first_name", dto.FirstName).Required().MaxLength(100)
	v.Field("last_name", dto.LastName).Required().MaxLength(100)
	v.Field("email", dto.Email).MaxLength(255)
	v.Field("department", dto.Department).MaxLength(100)
	v.Field("badge_id", dto.BadgeID).MaxLength(50)
	v.Field("health_card_id", dto.HealthCardID).MaxLength(50)
	v.Field("start_date", dto.StartDate).Required().Date()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateEmployeeDTO edits the profile. Status may only be set back to active;
// leaving goes through MarkEmployeeAsLeft.
type UpdateEmployeeDTO struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Department   *string `json:"department,omitempty"`
	BadgeID      *string `json:"badge_id,omitempty"`
	HealthCardID *string `json:"health_card_id,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	Status       *string `json:"status,omitempty"`
}

func (dto UpdateEmployeeDTO) Validate() error {
	v := validation.NewValidator()
	if dto.FirstName != nil {
		v.Field("first_name", *dto.FirstName).Required().MaxLength(100)
	}
	if dto.LastName != nil {
		v.Field("last_name", *dto.LastName).Required().MaxLength(100)
	}
	v.Field("email", dto.Email).MaxLength(255)
	v.Field("department", dto.Department).MaxLength(100)
	v.Field("badge_id", dto.BadgeID).MaxLength(50)
	v.Field("health_card_id", dto.HealthCardID).MaxLength(50)
	v.Field("start_date", dto.StartDate).Date()
	v.Field("status", dto.Status).Custom(func(value interface{}) *internal.AppError {
		s, _ := value.(*string)
		if s == nil || *s == "" || *s == string(enums.EmployeeActive) {
			return nil
		}
		if *s == string(enums.EmployeeLeft) {
			return internal.NewValidationFieldError("status", "Use the leave action to mark an employee as left", internal.ErrCodeInvalidTransition)
		}
		return internal.NewValidationFieldError("status", "status must be one of: active", internal.ErrCodeInvalidEnum)
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type MarkLeftDTO struct {
	EndDate string  `json:"end_date"`
	Notes   *string `json:"notes,omitempty"`
}

func (dto MarkLeftDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("end_date", dto.EndDate).Required().Date()
	v.Field("notes", dto.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Status     string
	Department string
	Search     string
	Limit      int
	Offset     int
}

func (f ListFilter) Validate() error {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(string(enums.EmployeeActive), string(enums.EmployeeLeft))
	v.Field("search", f.Search).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
