package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/asset-lifecycle/internal/seed"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	seedFile  string
	clearData bool
)

// Tables emptied by --clear. TRUNCATE bypasses the row triggers that keep
// audit_logs append-only, which is the point for a dev reset.
const clearTablesSQL = `TRUNCATE audit_logs, offboarding_records, location_history, maintenance_events,
	assignments, assets, locations, employees, user_roles`

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Load YAML fixtures and write them through the domain services for development and testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)

		fh, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer fh.Close()

		fixtures, err := seed.Parse(fh)
		if err != nil {
			return err
		}

		ctx := context.Background()
		app, err := buildApp(ctx, cfg, lg)
		if err != nil {
			return err
		}
		defer app.Close()

		if clearData {
			if err := app.DB.Gorm.WithContext(ctx).Exec(clearTablesSQL).Error; err != nil {
				return fmt.Errorf("clear data: %w", err)
			}
			lg.Warn("existing data cleared")
		}

		res, err := seed.Apply(ctx, fixtures, seed.Services{
			Roles:       app.Auth,
			Locations:   app.Locations,
			Employees:   app.Employees,
			Assets:      app.Assets,
			Assignments: app.Assignments,
		}, lg)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		fmt.Printf("seeded %d locations, %d employees, %d assets, %d assignments, %d role grants\n",
			res.Locations, res.Employees, res.Assets, res.Assignments, res.Roles)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "db/seed.yml", "YAML fixture file")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}
