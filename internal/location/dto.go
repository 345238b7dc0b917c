package location

import (
	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

type CreateLocationDTO struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Address *string `json:"address,omitempty"`
}

func (dto CreateLocationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(255)
	v.Field("type", dto.Type).Required().OneOf(enums.Strings(enums.LocationTypes)...)
	v.Field("address", dto.Address).MaxLength(500)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateLocationDTO struct {
	Name     *string `json:"name,omitempty"`
	Type     *string `json:"type,omitempty"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (dto UpdateLocationDTO) Validate() error {
	if dto.Name == nil && dto.Type == nil && dto.Address == nil && dto.IsActive == nil {
		return internal.NewValidationError("Nothing to update", internal.ErrCodeValidationFailed)
	}
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("name", *dto.Name).Required().MaxLength(255)
	}
	v.Field("type", dto.Type).OneOf(enums.Strings(enums.LocationTypes)...)
	v.Field("address", dto.Address).MaxLength(500)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type MoveAssetDTO struct {
	LocationID string  `json:"location_id"`
	Notes      *string `json:"notes,omitempty"`
}

func (dto MoveAssetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("location_id", dto.LocationID).Required().UUID()
	v.Field("notes", dto.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
