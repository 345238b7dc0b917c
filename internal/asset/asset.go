package asset

import (
	"math"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

const daysPerYear = 365.25

type Asset struct {
	ID                string
	AssetTag          string
	Type              enums.AssetType
	Manufacturer      string
	Model             string
	SerialNumber      string
	Status            enums.AssetStatus
	Ownership         enums.Ownership
	CurrentLocationID *string
	IsReadonly        bool
	Hostname          *string
	OperatingSystem   *string
	PurchaseDate      *time.Time
	PurchaseCost      *float64
	UsefulLifeYears   *int
	WarrantyExpiry    *time.Time
	SecurityCompliant bool
	Notes             *string
	CreatedBy         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BookValue depreciates the purchase cost in a straight line over the useful
// life. It is nil when cost, life or purchase date are unknown.
func (a *Asset) BookValue(now time.Time) *float64 {
	if a.PurchaseCost == nil || a.UsefulLifeYears == nil || a.PurchaseDate == nil || *a.UsefulLifeYears <= 0 {
		return nil
	}
	cost := *a.PurchaseCost
	elapsed := now.Sub(*a.PurchaseDate).Hours() / 24 / daysPerYear
	if elapsed < 0 {
		elapsed = 0
	}
	value := math.Max(0, cost-cost/float64(*a.UsefulLifeYears)*elapsed)
	value = math.Round(value*100) / 100
	return &value
}

// ChangeStatus moves the asset to status. Disposal locks the record for good.
func (a *Asset) ChangeStatus(status enums.AssetStatus, now time.Time) {
	a.Status = status
	if status == enums.AssetDisposed {
		a.IsReadonly = true
	}
	a.UpdatedAt = now
}

func (a *Asset) InvalidationKeys() []string {
	keys := cache.NewKeys(cache.AssetKey(a.ID), cache.KeyAssets, cache.KeyDashboard)
	if a.CurrentLocationID != nil {
		keys.Add(cache.LocationKey(*a.CurrentLocationID))
	}
	return keys.List()
}

func (a *Asset) Snapshot() map[string]interface{} {
	out := map[string]interface{}{
		"asset_tag":          a.AssetTag,
		"type":               a.Type,
		"manufacturer":       a.Manufacturer,
		"model":              a.Model,
		"serial_number":      a.SerialNumber,
		"status":             a.Status,
		"ownership":          a.Ownership,
		"is_readonly":        a.IsReadonly,
		"security_compliant": a.SecurityCompliant,
	}
	if a.Hostname != nil {
		out["hostname"] = *a.Hostname
	}
	if a.OperatingSystem != nil {
		out["operating_system"] = *a.OperatingSystem
	}
	if a.PurchaseDate != nil {
		out["purchase_date"] = a.PurchaseDate.Format(validation.DateLayout)
	}
	if a.PurchaseCost != nil {
		out["purchase_cost"] = *a.PurchaseCost
	}
	if a.UsefulLifeYears != nil {
		out["useful_life_years"] = *a.UsefulLifeYears
	}
	if a.WarrantyExpiry != nil {
		out["warranty_expiry"] = a.WarrantyExpiry.Format(validation.DateLayout)
	}
	if a.Notes != nil {
		out["notes"] = *a.Notes
	}
	return out
}

type Response struct {
	ID                string            `json:"id"`
	AssetTag          string            `json:"asset_tag"`
	Type              enums.AssetType   `json:"type"`
	Manufacturer      string            `json:"manufacturer"`
	Model             string            `json:"model"`
	SerialNumber      string            `json:"serial_number"`
	Status            enums.AssetStatus `json:"status"`
	Ownership         enums.Ownership   `json:"ownership"`
	CurrentLocationID *string           `json:"current_location_id,omitempty"`
	IsReadonly        bool              `json:"is_readonly"`
	Hostname          *string           `json:"hostname,omitempty"`
	OperatingSystem   *string           `json:"operating_system,omitempty"`
	PurchaseDate      *string           `json:"purchase_date,omitempty"`
	PurchaseCost      *float64          `json:"purchase_cost,omitempty"`
	UsefulLifeYears   *int              `json:"useful_life_years,omitempty"`
	BookValue         *float64          `json:"book_value,omitempty"`
	WarrantyExpiry    *string           `json:"warranty_expiry,omitempty"`
	SecurityCompliant bool              `json:"security_compliant"`
	Notes             *string           `json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (a *Asset) ToResponse(now time.Time) Response {
	return Response{
		ID:                a.ID,
		AssetTag:          a.AssetTag,
		Type:              a.Type,
		Manufacturer:      a.Manufacturer,
		Model:             a.Model,
		SerialNumber:      a.SerialNumber,
		Status:            a.Status,
		Ownership:         a.Ownership,
		CurrentLocationID: a.CurrentLocationID,
		IsReadonly:        a.IsReadonly,
		Hostname:          a.Hostname,
		OperatingSystem:   a.OperatingSystem,
		PurchaseDate:      formatDate(a.PurchaseDate),
		PurchaseCost:      a.PurchaseCost,
		UsefulLifeYears:   a.UsefulLifeYears,
		BookValue:         a.BookValue(now),
		WarrantyExpiry:    formatDate(a.WarrantyExpiry),
		SecurityCompliant: a.SecurityCompliant,
		Notes:             a.Notes,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func ToResponses(list []*Asset, now time.Time) []Response {
	out := make([]Response, 0, len(list))
	for _, a := range list {
		out = append(out, a.ToResponse(now))
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(validation.DateLayout)
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func ToDataModel(a *Asset) *assetDatamodel.Asset {
	return &assetDatamodel.Asset{
		ID:                a.ID,
		AssetTag:          a.AssetTag,
		Type:              string(a.Type),
		Manufacturer:      a.Manufacturer,
		Model:             a.Model,
		SerialNumber:      a.SerialNumber,
		Status:            string(a.Status),
		Ownership:         string(a.Ownership),
		CurrentLocationID: a.CurrentLocationID,
		IsReadonly:        a.IsReadonly,
		Hostname:          a.Hostname,
		OperatingSystem:   a.OperatingSystem,
		PurchaseDate:      a.PurchaseDate,
		PurchaseCost:      a.PurchaseCost,
		UsefulLifeYears:   a.UsefulLifeYears,
		WarrantyExpiry:    a.WarrantyExpiry,
		SecurityCompliant: a.SecurityCompliant,
		Notes:             a.Notes,
		CreatedBy:         a.CreatedBy,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func FromDataModel(m *assetDatamodel.Asset) *Asset {
	return &Asset{
		ID:                m.ID,
		AssetTag:          m.AssetTag,
		Type:              enums.AssetType(m.Type),
		Manufacturer:      m.Manufacturer,
		Model:             m.Model,
		SerialNumber:      m.SerialNumber,
		Status:            enums.AssetStatus(m.Status),
		Ownership:         enums.Ownership(m.Ownership),
		CurrentLocationID: m.CurrentLocationID,
		IsReadonly:        m.IsReadonly,
		Hostname:          m.Hostname,
		OperatingSystem:   m.OperatingSystem,
		PurchaseDate:      utcPtr(m.PurchaseDate),
		PurchaseCost:      m.PurchaseCost,
		UsefulLifeYears:   m.UsefulLifeYears,
		WarrantyExpiry:    utcPtr(m.WarrantyExpiry),
		SecurityCompliant: m.SecurityCompliant,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}
