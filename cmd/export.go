package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/asset-lifecycle/internal/report"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write xlsx reports",
}

var exportAssetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Asset register with book values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(func(ctx context.Context, svc *report.Service) (*report.Workbook, error) {
			return svc.AssetRegister(ctx)
		})
	},
}

var exportEmployeeCmd = &cobra.Command{
	Use:   "employee [employee-id]",
	Short: "Assignment history of one employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(func(ctx context.Context, svc *report.Service) (*report.Workbook, error) {
			return svc.EmployeeAssignments(ctx, args[0])
		})
	},
}

func runExport(build func(context.Context, *report.Service) (*report.Workbook, error)) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)

	ctx := context.Background()
	app, err := buildApp(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer app.Close()

	wb, err := build(ctx, app.Reports)
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = wb.Filename
	}
	fh, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := wb.Write(fh); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := fh.Close(); err != nil {
		return err
	}

	lg.Info("report written", "file", out)
	return nil
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", "output file, defaults to the report's own name")
	exportCmd.AddCommand(exportAssetsCmd)
	exportCmd.AddCommand(exportEmployeeCmd)
}
