package location

import "time"

type Location struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Type      string    `gorm:"column:type;not null"`
	Address   *string   `gorm:"column:address"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Location) TableName() string {
	return "locations"
}

// History is append-only apart from closing the open row; at most one row per
// asset has a null end_date (uniq_open_location_per_asset).
type History struct {
	ID         string     `gorm:"column:id;type:uuid;primaryKey"`
	AssetID    string     `gorm:"column:asset_id;type:uuid;not null;index"`
	LocationID string     `gorm:"column:location_id;type:uuid;not null;index"`
	StartDate  time.Time  `gorm:"column:start_date;not null"`
	EndDate    *time.Time `gorm:"column:end_date"`
	MovedBy    *string    `gorm:"column:moved_by"`
	Notes      *string    `gorm:"column:notes"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (History) TableName() string {
	return "location_history"
}
