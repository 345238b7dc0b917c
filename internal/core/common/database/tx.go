package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxFunc is the unit of work executed inside a transaction.
type TxFunc func(tx *gorm.DB) error

// WithTx runs fn inside one transaction. An error or panic in fn rolls every
// write back; otherwise the transaction commits.
func WithTx(ctx context.Context, db *gorm.DB, fn TxFunc) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
// Dialects without row locks (sqlite) drop the clause.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
