package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Driver is the database/sql driver shared by sqlx, gorm and goose.
const Driver = "pgx"

// Handles share one connection pool: gorm for the write side, sqlx for the
// dashboard queries.
type Handles struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func Open(ctx context.Context, cfg internal.DatabaseConfig, lg *slog.Logger) (*Handles, error) {
	db, err := sqlx.Open(Driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	level := gormLogger.Warn
	if cfg.LogQueries {
		level = gormLogger.Info
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	lg.InfoContext(ctx, "database connected",
		"max_open_conns", cfg.MaxOpenConns,
		"log_queries", cfg.LogQueries)
	return &Handles{Gorm: gdb, SQLX: db}, nil
}

func (h *Handles) Ping(ctx context.Context) error {
	return h.SQLX.PingContext(ctx)
}

func (h *Handles) Close() error {
	return h.SQLX.Close()
}
