package postgres

import (
	"context"

	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database"
	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	maintenanceDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/maintenance"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	"gorm.io/gorm"
)

const eventOrder = "date DESC, created_at DESC"

type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

func (r *MaintenanceRepository) WithinTx(ctx context.Context, fn func(tx maintenance.TxRepository) error) error {
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&txRepository{AuditRepository: auditPostgres.NewAuditRepository(tx), tx: tx})
	})
	return database.MapError(err)
}

func (r *MaintenanceRepository) ListForAsset(ctx context.Context, assetID string) ([]*maintenance.Event, error) {
	return find(r.db.WithContext(ctx).Where("asset_id = ?", assetID).Order(eventOrder))
}

func (r *MaintenanceRepository) ListAll(ctx context.Context, limit int) ([]*maintenance.Event, error) {
	return find(r.db.WithContext(ctx).Order(eventOrder).Limit(limit))
}

func find(q *gorm.DB) ([]*maintenance.Event, error) {
	var rows []maintenanceDatamodel.Event
	if err := q.Find(&rows).Error; err != nil {
		return nil, database.MapError(err)
	}
	out := make([]*maintenance.Event, 0, len(rows))
	for i := range rows {
		out = append(out, maintenance.FromDataModel(&rows[i]))
	}
	return out, nil
}

type txRepository struct {
	*auditPostgres.AuditRepository
	tx *gorm.DB
}

func (r *txRepository) AssetExists(ctx context.Context, assetID string) (bool, error) {
	var n int64
	err := r.tx.WithContext(ctx).Model(&assetDatamodel.Asset{}).Where("id = ?", assetID).Count(&n).Error
	return n > 0, err
}

func (r *txRepository) Insert(ctx context.Context, e *maintenance.Event) error {
	return r.tx.WithContext(ctx).Create(maintenance.ToDataModel(e)).Error
}
