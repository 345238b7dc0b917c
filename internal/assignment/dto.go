package assignment

import (
	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

const maxNotesLength = 2000

type CreateAssignmentDTO struct {
	AssetID    string  `json:"asset_id"`
	EmployeeID string  `json:"employee_id"`
	StartDate  string  `json:"start_date"`
	Notes      *string `json:"notes,omitempty"`
}

func (dto CreateAssignmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("asset_id", dto.AssetID).Required().UUID()
	v.Field("employee_id", dto.EmployeeID).Required().UUID()
	v.Field("start_date", dto.StartDate).Required().Date()
	v.Field("notes", dto.Notes).MaxLength(maxNotesLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AcceptAssignmentDTO struct {
	Notes                 *string `json:"notes,omitempty"`
	DigitalAcknowledgment bool    `json:"digital_acknowledgment"`
}

func (dto AcceptAssignmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("notes", dto.Notes).MaxLength(maxNotesLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type RequestReturnDTO struct {
	Notes *string `json:"notes,omitempty"`
}

func (dto RequestReturnDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("notes", dto.Notes).MaxLength(maxNotesLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReturnAssignmentDTO struct {
	ReturnCondition    *string `json:"return_condition,omitempty"`
	DamageNotes        *string `json:"damage_notes,omitempty"`
	RequiresFormatting bool    `json:"requires_formatting"`
}

func (dto ReturnAssignmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("return_condition", dto.ReturnCondition).MaxLength(255)
	v.Field("damage_notes", dto.DamageNotes).MaxLength(maxNotesLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CloseAssignmentDTO struct {
	EndDate          string  `json:"end_date"`
	ChangeType       string  `json:"change_type"`
	ChangeReason     *string `json:"change_reason,omitempty"`
	AssetID          string  `json:"asset_id"`
	AssetStatusAfter string  `json:"asset_status_after"`
}

func (dto CloseAssignmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("end_date", dto.EndDate).Required().Date()
	v.Field("change_type", dto.ChangeType).Required().OneOf(enums.Strings(enums.ChangeTypes)...)
	v.Field("change_reason", dto.ChangeReason).MaxLength(maxNotesLength)
	v.Field("asset_id", dto.AssetID).Required().UUID()
	v.Field("asset_status_after", dto.AssetStatusAfter).Required().OneOf(enums.Strings(enums.StatusesAfterClose)...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReplaceAssetDTO struct {
	EmployeeID string  `json:"employee_id"`
	OldAssetID string  `json:"old_asset_id"`
	NewAssetID string  `json:"new_asset_id"`
	Date       string  `json:"date"`
	Reason     *string `json:"reason,omitempty"`
}

func (dto ReplaceAssetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("employee_id", dto.EmployeeID).Required().UUID()
	v.Field("old_asset_id", dto.OldAssetID).Required().UUID()
	v.Field("new_asset_id", dto.NewAssetID).Required().UUID().Custom(func(interface{}) *internal.AppError {
		if dto.NewAssetID != "" && dto.NewAssetID == dto.OldAssetID {
			return internal.NewValidationFieldError("new_asset_id", "new_asset_id must differ from old_asset_id", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("date", dto.Date).Required().Date()
	v.Field("reason", dto.Reason).MaxLength(maxNotesLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateAssignmentDTO edits fields that carry no lifecycle meaning.
type UpdateAssignmentDTO struct {
	StartDate *string `json:"start_date,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

func (dto UpdateAssignmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("start_date", dto.StartDate).Date()
	v.Field("notes", dto.Notes).MaxLength(maxNotesLength)
	if err := v.Validate(); err != nil {
		return err
	}
	if dto.StartDate == nil && dto.Notes == nil {
		return internal.NewValidationError("Nothing to update", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ListFilter struct {
	Status     string
	EmployeeID string
	AssetID    string
	OpenOnly   bool
	Limit      int
	Offset     int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

func (f ListFilter) Validate() error {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(enums.Strings(enums.AssignmentStatuses)...)
	v.Field("employee_id", f.EmployeeID).UUID()
	v.Field("asset_id", f.AssetID).UUID()
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
