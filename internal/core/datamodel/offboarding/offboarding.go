package offboarding

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// AssetList stores asset ids as a Postgres text[] column. Other dialects keep
// the array literal in a text column.
type AssetList []string

func (AssetList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (a AssetList) Value() (driver.Value, error) {
	if a == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(a).Value()
}

func (a *AssetList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*a = AssetList(arr)
	return nil
}

type Record struct {
	ID             string     `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeID     string     `gorm:"column:employee_id;type:uuid;not null;index"`
	InitiatedAt    time.Time  `gorm:"column:initiated_at;not null"`
	InitiatedBy    *string    `gorm:"column:initiated_by"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	CompletedBy    *string    `gorm:"column:completed_by"`
	Notes          *string    `gorm:"column:notes"`
	PendingAssets  AssetList  `gorm:"column:pending_assets"`
	ReturnedAssets AssetList  `gorm:"column:returned_assets"`
}

func (Record) TableName() string {
	return "offboarding_records"
}
