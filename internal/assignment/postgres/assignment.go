package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database"
	assetDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/asset"
	assignmentDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/assignment"
	employeeDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/employee"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"gorm.io/gorm"
)

const historyOrder = "start_date DESC, created_at DESC"

// AssignmentRepository implements assignment.Repository using GORM.
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) WithinTx(ctx context.Context, fn func(tx assignment.TxRepository) error) error {
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(newTxRepository(tx))
	})
	return database.MapError(err)
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*assignment.Assignment, error) {
	var row assignmentDatamodel.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAssignmentNotFound
		}
		return nil, database.MapError(err)
	}
	return assignment.FromDataModel(&row), nil
}

func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.Assignment, error) {
	q := r.db.WithContext(ctx).Model(&assignmentDatamodel.Assignment{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.AssetID != "" {
		q = q.Where("asset_id = ?", filter.AssetID)
	}
	if filter.OpenOnly {
		q = q.Where("status IN ?", enums.Strings(enums.OpenAssignmentStatuses))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	return find(q.Order(historyOrder))
}

func (r *AssignmentRepository) HistoryForAsset(ctx context.Context, assetID string) ([]*assignment.Assignment, error) {
	return find(r.db.WithContext(ctx).Where("asset_id = ?", assetID).Order(historyOrder))
}

func (r *AssignmentRepository) HistoryForEmployee(ctx context.Context, employeeID string) ([]*assignment.Assignment, error) {
	return find(r.db.WithContext(ctx).Where("employee_id = ?", employeeID).Order(historyOrder))
}

func (r *AssignmentRepository) OpenForEmployee(ctx context.Context, employeeID string) ([]*assignment.Assignment, error) {
	return find(r.db.WithContext(ctx).
		Where("employee_id = ? AND status IN ?", employeeID, enums.Strings(enums.OpenAssignmentStatuses)).
		Order(historyOrder))
}

func find(q *gorm.DB) ([]*assignment.Assignment, error) {
	var rows []assignmentDatamodel.Assignment
	if err := q.Find(&rows).Error; err != nil {
		return nil, database.MapError(err)
	}
	out := make([]*assignment.Assignment, 0, len(rows))
	for i := range rows {
		out = append(out, assignment.FromDataModel(&rows[i]))
	}
	return out, nil
}

// txRepository runs every statement on the transaction it was created with.
type txRepository struct {
	*auditPostgres.AuditRepository
	tx *gorm.DB
}

func newTxRepository(tx *gorm.DB) *txRepository {
	return &txRepository{
		AuditRepository: auditPostgres.NewAuditRepository(tx),
		tx:              tx,
	}
}

func (r *txRepository) LockAssignment(ctx context.Context, id string) (*assignment.Assignment, error) {
	var row assignmentDatamodel.Assignment
	err := database.ForUpdate(r.tx.WithContext(ctx)).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment.FromDataModel(&row), nil
}

func (r *txRepository) LockAsset(ctx context.Context, id string) (*assignment.AssetState, error) {
	var row assetDatamodel.Asset
	err := database.ForUpdate(r.tx.WithContext(ctx)).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAssetNotFound
		}
		return nil, err
	}
	return &assignment.AssetState{
		ID:                row.ID,
		Status:            enums.AssetStatus(row.Status),
		IsReadonly:        row.IsReadonly,
		SecurityCompliant: row.SecurityCompliant,
	}, nil
}

func (r *txRepository) LockEmployee(ctx context.Context, id string) (*assignment.EmployeeState, error) {
	var row employeeDatamodel.Employee
	err := database.ForUpdate(r.tx.WithContext(ctx)).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &assignment.EmployeeState{
		ID:     row.ID,
		Status: enums.EmployeeStatus(row.Status),
	}, nil
}

func (r *txRepository) CountOpenForAsset(ctx context.Context, assetID string) (int64, error) {
	var n int64
	err := r.tx.WithContext(ctx).Model(&assignmentDatamodel.Assignment{}).
		Where("asset_id = ? AND status IN ?", assetID, enums.Strings(enums.OpenAssignmentStatuses)).
		Count(&n).Error
	return n, err
}

func (r *txRepository) Insert(ctx context.Context, a *assignment.Assignment) error {
	return r.tx.WithContext(ctx).Create(assignment.ToDataModel(a)).Error
}

func (r *txRepository) Save(ctx context.Context, a *assignment.Assignment) error {
	return r.tx.WithContext(ctx).Save(assignment.ToDataModel(a)).Error
}

func (r *txRepository) SetAssetStatus(ctx context.Context, assetID string, status enums.AssetStatus, at time.Time) error {
	return r.tx.WithContext(ctx).Model(&assetDatamodel.Asset{}).
		Where("id = ?", assetID).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": at,
		}).Error
}

func (r *txRepository) LatestEndForAsset(ctx context.Context, assetID, excludeID string) (*time.Time, error) {
	var rows []assignmentDatamodel.Assignment
	err := r.tx.WithContext(ctx).
		Where("asset_id = ? AND id <> ? AND end_date IS NOT NULL", assetID, excludeID).
		Order("end_date DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0].EndDate, nil
}
