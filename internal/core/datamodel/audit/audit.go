package audit

import (
	"time"

	"gorm.io/datatypes"
)

type Log struct {
	ID         string         `gorm:"column:id;type:uuid;primaryKey"`
	Timestamp  time.Time      `gorm:"column:timestamp;not null;index"`
	UserID     *string        `gorm:"column:user_id"`
	UserEmail  *string        `gorm:"column:user_email"`
	Action     string         `gorm:"column:action;not null"`
	EntityType string         `gorm:"column:entity_type;not null;index:idx_audit_entity"`
	EntityID   string         `gorm:"column:entity_id;not null;index:idx_audit_entity"`
	OldValues  datatypes.JSON `gorm:"column:old_values"`
	NewValues  datatypes.JSON `gorm:"column:new_values"`
	IPAddress  *string        `gorm:"column:ip_address"`
	UserAgent  *string        `gorm:"column:user_agent"`
}

func (Log) TableName() string {
	return "audit_logs"
}
