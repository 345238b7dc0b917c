package asset

import (
	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// CreatableStatuses are the statuses a newly registered asset may start in.
var CreatableStatuses = []enums.AssetStatus{enums.AssetPlanned, enums.AssetOrdered, enums.AssetSpare}

type CreateAssetDTO struct {
	AssetTag          string   `json:"asset_tag"`
	Type              string   `json:"type"`
	Manufacturer      string   `json:"manufacturer"`
	Model             string   `json:"model"`
	SerialNumber      string   `json:"serial_number"`
	Status            string   `json:"status,omitempty"`
	Ownership         string   `json:"ownership"`
	Hostname          *string  `json:"hostname,omitempty"`
	OperatingSystem   *string  `json:"operating_system,omitempty"`
	PurchaseDate      *string  `json:"purchase_date,omitempty"`
	PurchaseCost      *float64 `json:"purchase_cost,omitempty"`
	UsefulLifeYears   *int     `json:"useful_life_years,omitempty"`
	WarrantyExpiry    *string  `json:"warranty_expiry,omitempty"`
	SecurityCompliant *bool    `json:"security_compliant,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}

func (dto CreateAssetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("asset_tag", dto.AssetTag).Required().MaxLength(50)
	v.Field("type", dto.Type).Required().OneOf(enums.Strings(enums.AssetTypes)...)
	v.Field("manufacturer", dto.Manufacturer).Required().MaxLength(100)
	v.Field("model", dto.Model).Required().MaxLength(100)
	v.Field("serial_number", dto.SerialNumber).Required().MaxLength(100)
	v.Field("status", dto.Status).OneOf(enums.Strings(CreatableStatuses)...)
	v.Field("ownership", dto.Ownership).Required().OneOf(enums.Strings(enums.Ownerships)...)
	v.Field("hostname", dto.Hostname).MaxLength(255)
	v.Field("operating_system", dto.OperatingSystem).MaxLength(100)
	v.Field("purchase_date", dto.PurchaseDate).Date()
	v.Field("purchase_cost", dto.PurchaseCost).Custom(nonNegative("purchase_cost"))
	v.Field("useful_life_years", dto.UsefulLifeYears).MinInt(1)
	v.Field("warranty_expiry", dto.WarrantyExpiry).Date()
	v.Field("notes", dto.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateAssetDTO carries the descriptive fields. Status goes through
// UpdateStatusDTO so the assignment guard always runs.
type UpdateAssetDTO struct {
	AssetTag          *string  `json:"asset_tag,omitempty"`
	Type              *string  `json:"type,omitempty"`
	Manufacturer      *string  `json:"manufacturer,omitempty"`
	Model             *string  `json:"model,omitempty"`
	SerialNumber      *string  `json:"serial_number,omitempty"`
	Ownership         *string  `json:"ownership,omitempty"`
	Hostname          *string  `json:"hostname,omitempty"`
	OperatingSystem   *string  `json:"operating_system,omitempty"`
	PurchaseDate      *string  `json:"purchase_date,omitempty"`
	PurchaseCost      *float64 `json:"purchase_cost,omitempty"`
	UsefulLifeYears   *int     `json:"useful_life_years,omitempty"`
	WarrantyExpiry    *string  `json:"warranty_expiry,omitempty"`
	SecurityCompliant *bool    `json:"security_compliant,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}

func (dto UpdateAssetDTO) Validate() error {
	v := validation.NewValidator()
	if dto.AssetTag != nil {
		v.Field("asset_tag", *dto.AssetTag).Required().MaxLength(50)
	}
	if dto.Manufacturer != nil {
		v.Field("manufacturer", *dto.Manufacturer).Required().MaxLength(100)
	}
	if dto.Model != nil {
		v.Field("model", *dto.Model).Required().MaxLength(100)
	}
	if dto.SerialNumber != nil {
		v.Field("serial_number", *dto.SerialNumber).Required().MaxLength(100)
	}
	v.Field("type", dto.Type).OneOf(enums.Strings(enums.AssetTypes)...)
	v.Field("ownership", dto.Ownership).OneOf(enums.Strings(enums.Ownerships)...)
	v.Field("hostname", dto.Hostname).MaxLength(255)
	v.Field("operating_system", dto.OperatingSystem).MaxLength(100)
	v.Field("purchase_date", dto.PurchaseDate).Date()
	v.Field("purchase_cost", dto.PurchaseCost).Custom(nonNegative("purchase_cost"))
	v.Field("useful_life_years", dto.UsefulLifeYears).MinInt(1)
	v.Field("warranty_expiry", dto.WarrantyExpiry).Date()
	v.Field("notes", dto.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", dto.Status).Required().OneOf(enums.Strings(enums.AssetStatuses)...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Status    string
	Type      string
	Ownership string
	Search    string
	Limit     int
	Offset    int
}

func (f ListFilter) Validate() error {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(enums.Strings(enums.AssetStatuses)...)
	v.Field("type", f.Type).OneOf(enums.Strings(enums.AssetTypes)...)
	v.Field("ownership", f.Ownership).OneOf(enums.Strings(enums.Ownerships)...)
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

func nonNegative(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		n, ok := value.(*float64)
		if !ok || n == nil || *n >= 0 {
			return nil
		}
		return internal.NewValidationFieldError(field, field+" must not be negative", internal.ErrCodeValidationFailed)
	}
}
