package assignment

import "time"

// Assignment rows are never deleted. The partial unique index
// uniq_open_assignment_per_asset keeps one open row per asset.
type Assignment struct {
	ID                    string     `gorm:"column:id;type:uuid;primaryKey"`
	AssetID               string     `gorm:"column:asset_id;type:uuid;not null;index"`
	EmployeeID            string     `gorm:"column:employee_id;type:uuid;not null;index"`
	Status                string     `gorm:"column:status;not null;index"`
	StartDate             time.Time  `gorm:"column:start_date;type:date;not null"`
	EndDate               *time.Time `gorm:"column:end_date;type:date"`
	Notes                 *string    `gorm:"column:notes"`
	AcceptedAt            *time.Time `gorm:"column:accepted_at"`
	AcceptedBy            *string    `gorm:"column:accepted_by"`
	AcceptanceNotes       *string    `gorm:"column:acceptance_notes"`
	DigitalAcknowledgment bool       `gorm:"column:digital_acknowledgment;not null"`
	ReturnedAt            *time.Time `gorm:"column:returned_at"`
	ReturnedBy            *string    `gorm:"column:returned_by"`
	ReturnCondition       *string    `gorm:"column:return_condition"`
	DamageNotes           *string    `gorm:"column:damage_notes"`
	RequiresFormatting    bool       `gorm:"column:requires_formatting;not null"`
	ChangeType            *string    `gorm:"column:change_type"`
	ChangeReason          *string    `gorm:"column:change_reason"`
	CreatedBy             *string    `gorm:"column:created_by"`
	CreatedAt             time.Time  `gorm:"column:created_at;index;autoCreateTime:false"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Assignment) TableName() string {
	return "assignments"
}
