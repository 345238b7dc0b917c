package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/asset-lifecycle/api"
	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/auth"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	"github.com/frahmantamala/asset-lifecycle/internal/report"
	"github.com/frahmantamala/asset-lifecycle/internal/transport/rest"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

func startHTTPServer() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)

	ctx := context.Background()
	app, err := buildApp(ctx, cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer app.Close()

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers(app), rest.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsPath:    cfg.Observability.Metrics.Path,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr, "base_url", cfg.Server.BaseURL)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("received signal, shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	lg.Info("server stopped")
	return nil
}

func handlers(app *App) rest.Handlers {
	components := map[string]rest.Pinger{"database": app.DB}
	if app.Redis != nil {
		components["redis"] = app.Redis
	}

	return rest.Handlers{
		Auth:        auth.NewHandler(app.Auth),
		Assignments: assignment.NewHandler(app.Assignments, app.Schemas),
		Assets:      asset.NewHandler(app.Assets, app.Schemas),
		Employees:   employee.NewHandler(app.Employees, app.Schemas),
		Locations:   location.NewHandler(app.Locations, app.Schemas),
		Maintenance: maintenance.NewHandler(app.Maintenance, app.Schemas),
		Audit:       audit.NewHandler(app.Audit),
		Reports:     report.NewHandler(app.Reports),
		Health:      rest.NewHealthHandler(components),
		Metrics:     app.Metrics,
		Spec:        api.Spec,
	}
}
