package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/asset-lifecycle/internal"
	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database"
	assignmentDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/assignment"
	employeeDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/employee"
	offboardingDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/offboarding"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) WithinTx(ctx context.Context, fn func(tx employee.TxRepository) error) error {
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&txRepository{AuditRepository: auditPostgres.NewAuditRepository(tx), tx: tx})
	})
	return database.MapError(err)
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	return getEmployee(r.db.WithContext(ctx), id)
}

func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListFilter) ([]*employee.Employee, error) {
	q := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(COALESCE(badge_id, '')) LIKE ?", like, like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rows []employeeDatamodel.Employee
	if err := q.Order("last_name ASC, first_name ASC").Find(&rows).Error; err != nil {
		return nil, database.MapError(err)
	}
	out := make([]*employee.Employee, 0, len(rows))
	for i := range rows {
		out = append(out, employee.FromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *EmployeeRepository) OffboardingRecords(ctx context.Context, employeeID string) ([]*employee.OffboardingRecord, error) {
	var rows []offboardingDatamodel.Record
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("initiated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	out := make([]*employee.OffboardingRecord, 0, len(rows))
	for i := range rows {
		out = append(out, employee.RecordFromDataModel(&rows[i]))
	}
	return out, nil
}

func getEmployee(q *gorm.DB, id string) (*employee.Employee, error) {
	var row employeeDatamodel.Employee
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, database.MapError(err)
	}
	return employee.FromDataModel(&row), nil
}

type txRepository struct {
	*auditPostgres.AuditRepository
	tx *gorm.DB
}

func (r *txRepository) Lock(ctx context.Context, id string) (*employee.Employee, error) {
	return getEmployee(database.ForUpdate(r.tx.WithContext(ctx)), id)
}

func (r *txRepository) Insert(ctx context.Context, e *employee.Employee) error {
	return r.tx.WithContext(ctx).Create(employee.ToDataModel(e)).Error
}

func (r *txRepository) Save(ctx context.Context, e *employee.Employee) error {
	return r.tx.WithContext(ctx).Save(employee.ToDataModel(e)).Error
}

func (r *txRepository) CountOpenAssignments(ctx context.Context, employeeID string) (int64, error) {
	var n int64
	err := r.tx.WithContext(ctx).Model(&assignmentDatamodel.Assignment{}).
		Where("employee_id = ? AND status IN ?", employeeID, enums.Strings(enums.OpenAssignmentStatuses)).
		Count(&n).Error
	return n, err
}

func (r *txRepository) ReturnedAssetIDs(ctx context.Context, employeeID string) ([]string, error) {
	var ids []string
	err := r.tx.WithContext(ctx).Model(&assignmentDatamodel.Assignment{}).
		Where("employee_id = ? AND status = ?", employeeID, string(enums.AssignmentReturned)).
		Distinct().
		Order("asset_id").
		Pluck("asset_id", &ids).Error
	if ids == nil {
		ids = []string{}
	}
	return ids, err
}

func (r *txRepository) InsertOffboarding(ctx context.Context, rec *employee.OffboardingRecord) error {
	return r.tx.WithContext(ctx).Create(employee.RecordToDataModel(rec)).Error
}
