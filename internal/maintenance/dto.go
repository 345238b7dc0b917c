package maintenance

import (
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

type LogMaintenanceDTO struct {
	Type            string  `json:"type"`
	Date            string  `json:"date"`
	PerformedBy     *string `json:"performed_by,omitempty"`
	Description     *string `json:"description,omitempty"`
	ResultingHealth *string `json:"resulting_health,omitempty"`
}

func (dto LogMaintenanceDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("type", dto.Type).Required().OneOf(enums.Strings(enums.MaintenanceTypes)...)
	v.Field("date", dto.Date).Required().Date()
	v.Field("performed_by", dto.PerformedBy).MaxLength(255)
	v.Field("description", dto.Description).MaxLength(2000)
	v.Field("resulting_health", dto.ResultingHealth).OneOf(enums.Strings(enums.Healths)...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// LogFormattingDTO is the one-click "device was reimaged" entry.
type LogFormattingDTO struct {
	PerformedBy *string `json:"performed_by,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (dto LogFormattingDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("performed_by", dto.PerformedBy).MaxLength(255)
	v.Field("description", dto.Description).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
