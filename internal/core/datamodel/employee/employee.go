package employee

import "time"

type Employee struct {
	ID                     string     `gorm:"column:id;type:uuid;primaryKey"`
	FirstName              string     `gorm:"column:first_name;not null"`
	LastName               string     `gorm:"column:last_name;not null;index"`
	Email                  *string    `gorm:"column:email"`
	Department             *string    `gorm:"column:department"`
	BadgeID                *string    `gorm:"column:badge_id;uniqueIndex:uniq_employees_badge_id"`
	HealthCardID           *string    `gorm:"column:health_card_id"`
	Status                 string     `gorm:"column:status;not null;index"`
	StartDate              time.Time  `gorm:"column:start_date;type:date;not null"`
	EndDate                *time.Time `gorm:"column:end_date;type:date"`
	IsOffboardingComplete  bool       `gorm:"column:is_offboarding_complete;not null"`
	OffboardingCompletedAt *time.Time `gorm:"column:offboarding_completed_at"`
	OffboardingCompletedBy *string    `gorm:"column:offboarding_completed_by"`
	CreatedBy              *string    `gorm:"column:created_by"`
	CreatedAt              time.Time  `gorm:"column:created_at"`
	UpdatedAt              time.Time  `gorm:"column:updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}
