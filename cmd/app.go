package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/asset-lifecycle/api"
	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	assetPostgres "github.com/frahmantamala/asset-lifecycle/internal/asset/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/asset-lifecycle/internal/assignment/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/auth"
	authPostgres "github.com/frahmantamala/asset-lifecycle/internal/auth/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	employeePostgres "github.com/frahmantamala/asset-lifecycle/internal/employee/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	locationPostgres "github.com/frahmantamala/asset-lifecycle/internal/location/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	maintenancePostgres "github.com/frahmantamala/asset-lifecycle/internal/maintenance/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/metrics"
	"github.com/frahmantamala/asset-lifecycle/internal/report"
	reportPostgres "github.com/frahmantamala/asset-lifecycle/internal/report/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/transport/openapi"
)

// App holds the services every command builds on.
type App struct {
	Config  *internal.Config
	Logger  *slog.Logger
	DB      *database.Handles
	Bus     *events.EventBus
	Cache   cache.Cache
	Redis   *cache.RedisCache
	Metrics *metrics.Metrics
	Schemas *openapi.Validator

	Assignments *assignment.Service
	Assets      *asset.Service
	Employees   *employee.Service
	Locations   *location.Service
	Maintenance *maintenance.Service
	Audit       *audit.Service
	Reports     *report.Service
	Auth        *auth.Service
}

func buildApp(ctx context.Context, cfg *internal.Config, lg *slog.Logger) (*App, error) {
	db, err := database.Open(ctx, cfg.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	schemas, err := openapi.Load(api.Spec)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  lg,
		DB:      db,
		Bus:     events.NewEventBus(lg),
		Schemas: schemas,
	}

	app.Cache = cache.NewMemoryCache(cfg.Redis.TTL)
	if cfg.Redis.Addr != "" {
		rc, err := cache.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			lg.WarnContext(ctx, "redis unavailable, using in-process cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			app.Redis = rc
			app.Cache = rc
		}
	}
	app.Bus.Subscribe(events.AllEvents, cache.InvalidateOnChange(app.Cache, lg))

	if cfg.Observability.Metrics.Enabled {
		app.Metrics = metrics.New()
		app.Bus.Subscribe(events.AllEvents, app.Metrics.ObserveChanges())
	}

	gdb := db.Gorm
	app.Assignments = assignment.NewService(assignmentPostgres.NewAssignmentRepository(gdb), app.Bus, lg)
	app.Maintenance = maintenance.NewService(maintenancePostgres.NewMaintenanceRepository(gdb), app.Bus, lg)
	app.Locations = location.NewService(locationPostgres.NewLocationRepository(gdb), app.Bus, lg,
		location.WithCache(app.Cache))
	app.Assets = asset.NewService(assetPostgres.NewAssetRepository(gdb), app.Bus, lg,
		asset.WithCache(app.Cache),
		asset.WithHistory(app.Assignments, app.Maintenance, app.Locations))
	app.Employees = employee.NewService(employeePostgres.NewEmployeeRepository(gdb), app.Assignments, app.Bus, lg,
		employee.WithCache(app.Cache))
	app.Audit = audit.NewService(auditPostgres.NewAuditRepository(gdb), lg)
	app.Reports = report.NewService(reportPostgres.NewStatsRepository(db.SQLX), app.Assets, app.Employees, lg,
		report.WithCache(app.Cache),
		report.WithConfig(cfg.Reports))

	tokens, err := auth.NewJWTTokenGenerator(cfg.Security)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load token keys: %w", err)
	}
	app.Auth = auth.NewService(tokens, authPostgres.NewRoleRepository(gdb), lg)

	return app, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis close error", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}
