package dbtest

import (
	"fmt"
	"time"

	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	employeeDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/employee"
	locationDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/location"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var fixtureTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// InsertEmployee stores an employee with the given status and returns its id.
func InsertEmployee(db *gorm.DB, lastName, status string) (string, error) {
	row := &employeeDatamodel.Employee{
		ID:        uuid.NewString(),
		FirstName: "Test",
		LastName:  lastName,
		Status:    status,
		StartDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		CreatedAt: fixtureTime,
		UpdatedAt: fixtureTime,
	}
	if status == "left" {
		end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
		row.EndDate = &end
	}
	if err := db.Create(row).Error; err != nil {
		return "", fmt.Errorf("insert employee: %w", err)
	}
	return row.ID, nil
}

// AssetOption adjusts a fixture asset before it is stored.
type AssetOption func(*assetDatamodel.Asset)

func WithSecurityCompliant(ok bool) AssetOption {
	return func(a *assetDatamodel.Asset) { a.SecurityCompliant = ok }
}

func WithReadonly() AssetOption {
	return func(a *assetDatamodel.Asset) { a.IsReadonly = true }
}

func WithLocation(id string) AssetOption {
	return func(a *assetDatamodel.Asset) { a.CurrentLocationID = &id }
}

func WithPurchase(cost float64, years int, date time.Time) AssetOption {
	return func(a *assetDatamodel.Asset) {
		a.PurchaseCost = &cost
		a.UsefulLifeYears = &years
		a.PurchaseDate = &date
	}
}

// InsertAsset stores a security compliant laptop with the given status.
func InsertAsset(db *gorm.DB, tag, status string, opts ...AssetOption) (string, error) {
	row := &assetDatamodel.Asset{
		ID:                uuid.NewString(),
		AssetTag:          tag,
		Type:              "laptop",
		Manufacturer:      "Lenovo",
		Model:             "T14",
		SerialNumber:      "SN-" + tag,
		Status:            status,
		Ownership:         "OrgA",
		SecurityCompliant: true,
		CreatedAt:         fixtureTime,
		UpdatedAt:         fixtureTime,
	}
	for _, opt := range opts {
		opt(row)
	}
	if err := db.Create(row).Error; err != nil {
		return "", fmt.Errorf("insert asset: %w", err)
	}
	return row.ID, nil
}

func InsertLocation(db *gorm.DB, name string, active bool) (string, error) {
	row := &locationDatamodel.Location{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      "office",
		IsActive:  active,
		CreatedAt: fixtureTime,
		UpdatedAt: fixtureTime,
	}
	if err := db.Create(row).Error; err != nil {
		return "", fmt.Errorf("insert location: %w", err)
	}
	return row.ID, nil
}

// SteppingClock returns a clock that advances by step on every call.
func SteppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start.Add(-step)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}
