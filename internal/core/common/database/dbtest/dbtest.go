// Package dbtest opens throwaway sqlite databases carrying the same tables and
// partial unique indexes as the Postgres migrations.
package dbtest

import (
	"fmt"

	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	assignmentDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/assignment"
	auditDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/audit"
	employeeDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/employee"
	locationDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/location"
	maintenanceDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/maintenance"
	offboardingDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/offboarding"
	roleDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/role"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_assignment_per_asset
		ON assignments (asset_id) WHERE status IN ('pending_acceptance', 'active')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_location_per_asset
		ON location_history (asset_id) WHERE end_date IS NULL`,
}

// Models lists every table the service owns.
func Models() []interface{} {
	return []interface{}{
		&employeeDatamodel.Employee{},
		&assetDatamodel.Asset{},
		&assignmentDatamodel.Assignment{},
		&maintenanceDatamodel.Event{},
		&locationDatamodel.Location{},
		&locationDatamodel.History{},
		&auditDatamodel.Log{},
		&offboardingDatamodel.Record{},
		&roleDatamodel.UserRole{},
	}
}

// Open returns an isolated in-memory database. A single connection keeps
// every statement on the same memory database.
func Open() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("create partial index: %w", err)
		}
	}
	return db, nil
}

// Close releases the underlying connection, dropping the memory database.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
