package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	"github.com/tealeg/xlsx/v3"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatsRepository interface {
	Employees(ctx context.Context) (EmployeeStats, error)
	Assets(ctx context.Context) (AssetStats, error)
	Assignments(ctx context.Context) (AssignmentStats, error)
}

type AssetReader interface {
	ListAssets(ctx context.Context, filter asset.ListFilter) ([]*asset.Asset, error)
	GetAsset(ctx context.Context, id string) (*asset.Asset, error)
}

type EmployeeReader interface {
	GetEmployeeWithAssignments(ctx context.Context, id string) (*employee.Detail, error)
}

type Service struct {
	stats     StatsRepository
	assets    AssetReader
	employees EmployeeReader
	logger    *slog.Logger
	cache     cache.Cache
	cfg       internal.ReportsConfig
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithConfig(cfg internal.ReportsConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

func NewService(stats StatsRepository, assets AssetReader, employees EmployeeReader, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		stats:     stats,
		assets:    assets,
		employees: employees,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyDashboard, s.loadDashboard)
}

func (s *Service) loadDashboard(ctx context.Context) (*Dashboard, error) {
	employees, err := s.stats.Employees(ctx)
	if err != nil {
		return nil, s.internalError(ctx, "failed to load employee stats", err)
	}
	assets, err := s.stats.Assets(ctx)
	if err != nil {
		return nil, s.internalError(ctx, "failed to load asset stats", err)
	}
	assignments, err := s.stats.Assignments(ctx)
	if err != nil {
		return nil, s.internalError(ctx, "failed to load assignment stats", err)
	}
	return &Dashboard{
		Employees:   employees,
		Assets:      assets,
		Assignments: assignments,
		GeneratedAt: s.clock(),
	}, nil
}

// Workbook is a generated xlsx file ready to be streamed.
type Workbook struct {
	Filename string
	file     *xlsx.File
}

func (w *Workbook) Write(dst io.Writer) error {
	return w.file.Write(dst)
}

var assetRegisterHeader = []string{
	"Asset Tag", "Type", "Manufacturer", "Model", "Serial Number", "Status", "Ownership",
	"Hostname", "Purchase Date", "Purchase Cost", "Useful Life (years)", "Book Value",
	"Warranty Expiry", "Security Compliant",
}

// AssetRegister lists every asset ordered by tag with its current book value.
func (s *Service) AssetRegister(ctx context.Context) (*Workbook, error) {
	assets, err := s.allAssets(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Assets")
	if err != nil {
		return nil, s.internalError(ctx, "failed to build asset register", err)
	}

	addStrings(sheet.AddRow(), s.title("Asset register"), "Generated "+now.Format(validation.DateLayout))
	addStrings(sheet.AddRow(), assetRegisterHeader...)
	for _, a := range assets {
		row := sheet.AddRow()
		addStrings(row,
			a.AssetTag, string(a.Type), a.Manufacturer, a.Model, a.SerialNumber,
			string(a.Status), string(a.Ownership), deref(a.Hostname), formatDate(a.PurchaseDate),
		)
		addFloat(row, a.PurchaseCost)
		years := s.usefulLife(a)
		if years != nil {
			row.AddCell().SetInt(*years)
		} else {
			row.AddCell()
		}
		addFloat(row, s.bookValue(a, now))
		addStrings(row, formatDate(a.WarrantyExpiry), yesNo(a.SecurityCompliant))
	}

	s.logger.InfoContext(ctx, "asset register generated", "assets", len(assets))
	return &Workbook{
		Filename: fmt.Sprintf("asset-register-%s.xlsx", now.Format(validation.DateLayout)),
		file:     file,
	}, nil
}

var employeeAssignmentHeader = []string{
	"Asset Tag", "Asset Type", "Status", "Start Date", "End Date", "Accepted At",
	"Returned At", "Return Condition", "Change Type", "Notes",
}

// EmployeeAssignments writes one employee's profile and full assignment
// history, newest first.
func (s *Service) EmployeeAssignments(ctx context.Context, employeeID string) (*Workbook, error) {
	detail, err := s.employees.GetEmployeeWithAssignments(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	file := xlsx.NewFile()
	profile, err := file.AddSheet("Employee")
	if err != nil {
		return nil, s.internalError(ctx, "failed to build employee workbook", err)
	}
	addStrings(profile.AddRow(), s.title("Employee assignments"), "Generated "+now.Format(validation.DateLayout))
	addStrings(profile.AddRow(), "Name", detail.FirstName+" "+detail.LastName)
	addStrings(profile.AddRow(), "Badge", deref(detail.BadgeID))
	addStrings(profile.AddRow(), "Department", deref(detail.Department))
	addStrings(profile.AddRow(), "Status", string(detail.Status))
	addStrings(profile.AddRow(), "Start Date", detail.StartDate)
	addStrings(profile.AddRow(), "End Date", deref(detail.EndDate))

	history, err := file.AddSheet("Assignments")
	if err != nil {
		return nil, s.internalError(ctx, "failed to build employee workbook", err)
	}
	addStrings(history.AddRow(), employeeAssignmentHeader...)

	assets := make(map[string]*asset.Asset)
	for _, a := range detail.Assignments {
		held, ok := assets[a.AssetID]
		if !ok {
			held, err = s.assets.GetAsset(ctx, a.AssetID)
			if err != nil {
				return nil, err
			}
			assets[a.AssetID] = held
		}
		addStrings(history.AddRow(),
			held.AssetTag, string(held.Type), string(a.Status), a.StartDate, deref(a.EndDate),
			formatTimestamp(a.AcceptedAt), formatTimestamp(a.ReturnedAt), deref(a.ReturnCondition),
			changeType(a), deref(a.Notes),
		)
	}

	s.logger.InfoContext(ctx, "employee workbook generated",
		"employee_id", employeeID,
		"assignments", len(detail.Assignments),
	)
	return &Workbook{
		Filename: fmt.Sprintf("assignments-%s-%s.xlsx", slug(detail.LastName), now.Format(validation.DateLayout)),
		file:     file,
	}, nil
}

func (s *Service) allAssets(ctx context.Context) ([]*asset.Asset, error) {
	var out []*asset.Asset
	for offset := 0; ; offset += asset.MaxListLimit {
		page, err := s.assets.ListAssets(ctx, asset.ListFilter{Limit: asset.MaxListLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < asset.MaxListLimit {
			return out, nil
		}
	}
}

// usefulLife falls back to the configured default for assets bought without
// a recorded life.
func (s *Service) usefulLife(a *asset.Asset) *int {
	if a.UsefulLifeYears != nil || s.cfg.DefaultUsefulLifeYears <= 0 {
		return a.UsefulLifeYears
	}
	years := s.cfg.DefaultUsefulLifeYears
	return &years
}

func (s *Service) bookValue(a *asset.Asset, now time.Time) *float64 {
	withLife := *a
	withLife.UsefulLifeYears = s.usefulLife(a)
	return withLife.BookValue(now)
}

func (s *Service) title(name string) string {
	if s.cfg.CompanyName == "" {
		return name
	}
	return s.cfg.CompanyName + " " + strings.ToLower(name)
}

func (s *Service) internalError(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, "error", err)
	return internal.NewInternalError(msg, err)
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(validation.DateLayout)
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func changeType(a assignment.Response) string {
	if a.ChangeType == nil {
		return ""
	}
	return string(*a.ChangeType)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
