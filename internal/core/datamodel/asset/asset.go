package asset

import "time"

type Asset struct {
	ID                string     `gorm:"column:id;type:uuid;primaryKey"`
	AssetTag          string     `gorm:"column:asset_tag;not null;index"`
	Type              string     `gorm:"column:type;not null"`
	Manufacturer      string     `gorm:"column:manufacturer;not null"`
	Model             string     `gorm:"column:model;not null"`
	SerialNumber      string     `gorm:"column:serial_number;not null;uniqueIndex:uniq_assets_serial_number"`
	Status            string     `gorm:"column:status;not null;index"`
	Ownership         string     `gorm:"column:ownership;not null"`
	CurrentLocationID *string    `gorm:"column:current_location_id;type:uuid"`
	IsReadonly        bool       `gorm:"column:is_readonly;not null"`
	Hostname          *string    `gorm:"column:hostname"`
	OperatingSystem   *string    `gorm:"column:operating_system"`
	PurchaseDate      *time.Time `gorm:"column:purchase_date;type:date"`
	PurchaseCost      *float64   `gorm:"column:purchase_cost"`
	UsefulLifeYears   *int       `gorm:"column:useful_life_years"`
	WarrantyExpiry    *time.Time `gorm:"column:warranty_expiry;type:date"`
	SecurityCompliant bool       `gorm:"column:security_compliant;not null"`
	Notes             *string    `gorm:"column:notes"`
	CreatedBy         *string    `gorm:"column:created_by"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}
