package maintenance

import "time"

type Event struct {
	ID              string    `gorm:"column:id;type:uuid;primaryKey"`
	AssetID         string    `gorm:"column:asset_id;type:uuid;not null;index"`
	Type            string    `gorm:"column:type;not null"`
	Date            time.Time `gorm:"column:date;type:date;not null"`
	PerformedBy     *string   `gorm:"column:performed_by"`
	Description     *string   `gorm:"column:description"`
	ResultingHealth *string   `gorm:"column:resulting_health"`
	CreatedBy       *string   `gorm:"column:created_by"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (Event) TableName() string {
	return "maintenance_events"
}
