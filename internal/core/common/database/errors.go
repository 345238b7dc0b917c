package database

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Constraint names shared by the migrations and the sqlite test schema.
const (
	ConstraintOpenAssignment = "uniq_open_assignment_per_asset"
	ConstraintOpenLocation   = "uniq_open_location_per_asset"
	ConstraintAssetSerial    = "uniq_assets_serial_number"
	ConstraintEmployeeBadge  = "uniq_employees_badge_id"
)

// sqlite reports the violated columns instead of the index name.
var sqliteUniqueColumns = map[string]string{
	"assignments.asset_id":      ConstraintOpenAssignment,
	"location_history.asset_id": ConstraintOpenLocation,
	"assets.serial_number":      ConstraintAssetSerial,
	"employees.badge_id":        ConstraintEmployeeBadge,
}

// messages raised by the database triggers in db/migrations
var triggerMessages = map[string]*internal.AppError{
	"asset_not_assignable":   internal.ErrAssetNotAssignable,
	"employee_inactive":      internal.ErrEmployeeInactive,
	"asset_readonly":         internal.ErrReadonlyAsset,
	"audit_logs_append_only": internal.NewForbiddenError("Audit log entries cannot be modified", internal.ErrCodeUnauthorizedAccess),
}

// UniqueViolation reports the constraint behind a unique violation.
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}

	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed: "); i >= 0 {
		cols := strings.TrimSpace(msg[i+len("UNIQUE constraint failed: "):])
		if name, ok := sqliteUniqueColumns[cols]; ok {
			return name, true
		}
		return cols, true
	}
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		start := strings.Index(msg, "\"")
		end := strings.LastIndex(msg, "\"")
		if start >= 0 && end > start {
			return msg[start+1 : end], true
		}
		return "", true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// MapError translates data store failures into the application taxonomy.
// Errors that are already *internal.AppError pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if constraint, ok := UniqueViolation(err); ok {
		switch constraint {
		case ConstraintOpenAssignment:
			return internal.ErrDuplicateActiveAssignment.WithCause(err)
		case ConstraintAssetSerial:
			return internal.ErrSerialNumberTaken.WithCause(err)
		case ConstraintEmployeeBadge:
			return internal.ErrBadgeIDTaken.WithCause(err)
		case ConstraintOpenLocation:
			return internal.NewConflictError("Asset location changed concurrently, please retry", internal.ErrCodeValidationFailed).WithCause(err)
		}
		return internal.NewConflictError("Record already exists", internal.ErrCodeValidationFailed).WithCause(err)
	}

	msg := err.Error()
	for needle, appErr := range triggerMessages {
		if strings.Contains(msg, needle) {
			return appErr.WithCause(err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return internal.NewExternalError("Data store did not respond in time", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return internal.NewExternalError("Data store unavailable", err)
	}

	return internal.NewInternalError("Data store operation failed", err)
}
