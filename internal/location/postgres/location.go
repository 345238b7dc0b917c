package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database"
	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	locationDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/location"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	"gorm.io/gorm"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) WithinTx(ctx context.Context, fn func(tx location.TxRepository) error) error {
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&txRepository{AuditRepository: auditPostgres.NewAuditRepository(tx), tx: tx})
	})
	return database.MapError(err)
}

func (r *LocationRepository) GetByID(ctx context.Context, id string) (*location.Location, error) {
	return getLocation(r.db.WithContext(ctx), id)
}

func (r *LocationRepository) List(ctx context.Context, activeOnly bool) ([]*location.Location, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []locationDatamodel.Location
	if err := q.Find(&rows).Error; err != nil {
		return nil, database.MapError(err)
	}
	out := make([]*location.Location, 0, len(rows))
	for i := range rows {
		out = append(out, location.FromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *LocationRepository) AssetsAt(ctx context.Context, locationID string) ([]location.AssetRef, error) {
	var rows []assetDatamodel.Asset
	err := r.db.WithContext(ctx).
		Where("current_location_id = ?", locationID).
		Order("asset_tag ASC").
		Find(&rows).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	out := make([]location.AssetRef, 0, len(rows))
	for i := range rows {
		out = append(out, assetRef(&rows[i]))
	}
	return out, nil
}

func (r *LocationRepository) HistoryForAsset(ctx context.Context, assetID string) ([]*location.HistoryEntry, error) {
	var rows []locationDatamodel.History
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("start_date DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	out := make([]*location.HistoryEntry, 0, len(rows))
	for i := range rows {
		out = append(out, location.HistoryFromDataModel(&rows[i]))
	}
	return out, nil
}

func getLocation(q *gorm.DB, id string) (*location.Location, error) {
	var row locationDatamodel.Location
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLocationNotFound
		}
		return nil, database.MapError(err)
	}
	return location.FromDataModel(&row), nil
}

func assetRef(row *assetDatamodel.Asset) location.AssetRef {
	return location.AssetRef{
		ID:                row.ID,
		AssetTag:          row.AssetTag,
		Type:              row.Type,
		Status:            enums.AssetStatus(row.Status),
		IsReadonly:        row.IsReadonly,
		CurrentLocationID: row.CurrentLocationID,
	}
}

type txRepository struct {
	*auditPostgres.AuditRepository
	tx *gorm.DB
}

func (r *txRepository) LockLocation(ctx context.Context, id string) (*location.Location, error) {
	return getLocation(database.ForUpdate(r.tx.WithContext(ctx)), id)
}

func (r *txRepository) LockAsset(ctx context.Context, id string) (*location.AssetRef, error) {
	var row assetDatamodel.Asset
	err := database.ForUpdate(r.tx.WithContext(ctx)).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAssetNotFound
		}
		return nil, err
	}
	ref := assetRef(&row)
	return &ref, nil
}

func (r *txRepository) Insert(ctx context.Context, l *location.Location) error {
	return r.tx.WithContext(ctx).Create(location.ToDataModel(l)).Error
}

func (r *txRepository) Save(ctx context.Context, l *location.Location) error {
	return r.tx.WithContext(ctx).Save(location.ToDataModel(l)).Error
}

func (r *txRepository) CloseOpenHistory(ctx context.Context, assetID string, at time.Time) (*location.HistoryEntry, error) {
	var row locationDatamodel.History
	err := database.ForUpdate(r.tx.WithContext(ctx)).
		Where("asset_id = ? AND end_date IS NULL", assetID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	row.EndDate = &at
	if err := r.tx.WithContext(ctx).Model(&locationDatamodel.History{}).
		Where("id = ?", row.ID).
		Update("end_date", at).Error; err != nil {
		return nil, err
	}
	return location.HistoryFromDataModel(&row), nil
}

func (r *txRepository) InsertHistory(ctx context.Context, h *location.HistoryEntry) error {
	return r.tx.WithContext(ctx).Create(location.HistoryToDataModel(h)).Error
}

func (r *txRepository) SetAssetLocation(ctx context.Context, assetID, locationID string, at time.Time) error {
	return r.tx.WithContext(ctx).Model(&assetDatamodel.Asset{}).
		Where("id = ?", assetID).
		Updates(map[string]interface{}{
			"current_location_id": locationID,
			"updated_at":          at,
		}).Error
}
