package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/report"
	"github.com/jmoiron/sqlx"
)

// StatsRepository answers the dashboard with plain aggregate SQL.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type bucket struct {
	Label string `db:"label"`
	N     int64  `db:"n"`
}

func (r *StatsRepository) Employees(ctx context.Context) (report.EmployeeStats, error) {
	var row struct {
		Total    int64 `db:"total"`
		Active   int64 `db:"active_count"`
		Departed int64 `db:"departed_count"`
	}
	query, args, err := sqlx.In(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active_count,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS departed_count
		FROM employees`, string(enums.EmployeeActive), string(enums.EmployeeLeft))
	if err != nil {
		return report.EmployeeStats{}, err
	}
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		return report.EmployeeStats{}, fmt.Errorf("employee stats: %w", err)
	}
	return report.EmployeeStats{Total: row.Total, Active: row.Active, Left: row.Departed}, nil
}

func (r *StatsRepository) Assets(ctx context.Context) (report.AssetStats, error) {
	out := report.AssetStats{}
	if err := r.db.GetContext(ctx, &out.Total, `SELECT COUNT(*) FROM assets`); err != nil {
		return out, fmt.Errorf("asset stats: %w", err)
	}

	var err error
	if out.ByStatus, err = r.countBy(ctx, "status"); err != nil {
		return out, err
	}
	if out.ByType, err = r.countBy(ctx, "type"); err != nil {
		return out, err
	}
	if out.ByOwnership, err = r.countBy(ctx, "ownership"); err != nil {
		return out, err
	}
	return out, nil
}

func (r *StatsRepository) Assignments(ctx context.Context) (report.AssignmentStats, error) {
	out := report.AssignmentStats{}
	if err := r.db.GetContext(ctx, &out.Total, `SELECT COUNT(*) FROM assignments`); err != nil {
		return out, fmt.Errorf("assignment stats: %w", err)
	}

	query, args, err := sqlx.In(`SELECT COUNT(*) FROM assignments WHERE status IN (?)`,
		enums.Strings(enums.OpenAssignmentStatuses))
	if err != nil {
		return out, err
	}
	if err := r.db.GetContext(ctx, &out.Open, r.db.Rebind(query), args...); err != nil {
		return out, fmt.Errorf("assignment stats: %w", err)
	}
	return out, nil
}

// countBy groups assets by one of a fixed set of columns; column never comes
// from user input.
func (r *StatsRepository) countBy(ctx context.Context, column string) (map[string]int64, error) {
	var rows []bucket
	query := fmt.Sprintf(`SELECT %s AS label, COUNT(*) AS n FROM assets GROUP BY %s ORDER BY %s`, column, column, column)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("asset stats by %s: %w", column, err)
	}
	out := make(map[string]int64, len(rows))
	for _, b := range rows {
		out[b.Label] = b.N
	}
	return out, nil
}
