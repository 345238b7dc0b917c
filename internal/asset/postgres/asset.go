package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database"
	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	assignmentDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"gorm.io/gorm"
)

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) WithinTx(ctx context.Context, fn func(tx asset.TxRepository) error) error {
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&txRepository{AuditRepository: auditPostgres.NewAuditRepository(tx), tx: tx})
	})
	return database.MapError(err)
}

func (r *AssetRepository) GetByID(ctx context.Context, id string) (*asset.Asset, error) {
	return getAsset(r.db.WithContext(ctx), id)
}

func (r *AssetRepository) List(ctx context.Context, filter asset.ListFilter) ([]*asset.Asset, error) {
	q := r.db.WithContext(ctx).Model(&assetDatamodel.Asset{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Ownership != "" {
		q = q.Where("ownership = ?", filter.Ownership)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(asset_tag) LIKE ? OR LOWER(serial_number) LIKE ? OR LOWER(model) LIKE ? OR LOWER(manufacturer) LIKE ? OR LOWER(COALESCE(hostname, '')) LIKE ?",
			like, like, like, like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rows []assetDatamodel.Asset
	if err := q.Order("asset_tag ASC").Find(&rows).Error; err != nil {
		return nil, database.MapError(err)
	}
	out := make([]*asset.Asset, 0, len(rows))
	for i := range rows {
		out = append(out, asset.FromDataModel(&rows[i]))
	}
	return out, nil
}

func getAsset(q *gorm.DB, id string) (*asset.Asset, error) {
	var row assetDatamodel.Asset
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAssetNotFound
		}
		return nil, database.MapError(err)
	}
	return asset.FromDataModel(&row), nil
}

type txRepository struct {
	*auditPostgres.AuditRepository
	tx *gorm.DB
}

func (r *txRepository) Lock(ctx context.Context, id string) (*asset.Asset, error) {
	return getAsset(database.ForUpdate(r.tx.WithContext(ctx)), id)
}

func (r *txRepository) Insert(ctx context.Context, a *asset.Asset) error {
	return r.tx.WithContext(ctx).Create(asset.ToDataModel(a)).Error
}

func (r *txRepository) Save(ctx context.Context, a *asset.Asset) error {
	return r.tx.WithContext(ctx).Save(asset.ToDataModel(a)).Error
}

func (r *txRepository) CountOpenAssignments(ctx context.Context, assetID string) (int64, error) {
	var n int64
	err := r.tx.WithContext(ctx).Model(&assignmentDatamodel.Assignment{}).
		Where("asset_id = ? AND status IN ?", assetID, enums.Strings(enums.OpenAssignmentStatuses)).
		Count(&n).Error
	return n, err
}
