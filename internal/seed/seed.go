// Package seed loads YAML fixtures and writes them through the domain
// services, so seeded data passes the same guards and audit trail as API
// traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	"gopkg.in/yaml.v3"
)

// SystemUserID stamps audit entries written by the seeder.
const SystemUserID = "system:seed"

type Fixtures struct {
	Roles       []RoleGrant  `yaml:"roles"`
	Locations   []Location   `yaml:"locations"`
	Employees   []Employee   `yaml:"employees"`
	Assets      []Asset      `yaml:"assets"`
	Assignments []Assignment `yaml:"assignments"`
}

type RoleGrant struct {
	UserID string   `yaml:"user_id"`
	Roles  []string `yaml:"roles"`
}

type Location struct {
	Ref     string  `yaml:"ref"`
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Address *string `yaml:"address"`
}

type Employee struct {
	Ref          string  `yaml:"ref"`
	FirstName    string  `yaml:"first_name"`
	LastName     string  `yaml:"last_name"`
	Email        *string `yaml:"email"`
	Department   *string `yaml:"department"`
	BadgeID      *string `yaml:"badge_id"`
	HealthCardID *string `yaml:"health_card_id"`
	StartDate    string  `yaml:"start_date"`
}

type Asset struct {
	Ref               string   `yaml:"ref"`
	AssetTag          string   `yaml:"asset_tag"`
	Type              string   `yaml:"type"`
	Manufacturer      string   `yaml:"manufacturer"`
	Model             string   `yaml:"model"`
	SerialNumber      string   `yaml:"serial_number"`
	Status            string   `yaml:"status"`
	Ownership         string   `yaml:"ownership"`
	Hostname          *string  `yaml:"hostname"`
	OperatingSystem   *string  `yaml:"operating_system"`
	PurchaseDate      *string  `yaml:"purchase_date"`
	PurchaseCost      *float64 `yaml:"purchase_cost"`
	UsefulLifeYears   *int     `yaml:"useful_life_years"`
	WarrantyExpiry    *string  `yaml:"warranty_expiry"`
	SecurityCompliant *bool    `yaml:"security_compliant"`
	Notes             *string  `yaml:"notes"`
	Location          string   `yaml:"location"`
}

type Assignment struct {
	Asset     string  `yaml:"asset"`
	Employee  string  `yaml:"employee"`
	StartDate string  `yaml:"start_date"`
	Notes     *string `yaml:"notes"`
	Accept    bool    `yaml:"accept"`
}

// Parse decodes fixtures, rejecting unknown keys.
func Parse(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

type (
	RoleAssigner interface {
		AssignRoles(ctx context.Context, userID string, roles []string) error
	}
	LocationWriter interface {
		CreateLocation(ctx context.Context, dto location.CreateLocationDTO) (*location.Location, []string, error)
		MoveAssetToLocation(ctx context.Context, assetID string, dto location.MoveAssetDTO) (*location.HistoryEntry, []string, error)
	}
	EmployeeWriter interface {
		CreateEmployee(ctx context.Context, dto employee.CreateEmployeeDTO) (*employee.Employee, []string, error)
	}
	AssetWriter interface {
		CreateAsset(ctx context.Context, dto asset.CreateAssetDTO) (*asset.Asset, []string, error)
	}
	AssignmentWriter interface {
		CreateAssignment(ctx context.Context, dto assignment.CreateAssignmentDTO) (*assignment.Outcome, error)
		AcceptAssignment(ctx context.Context, id string, dto assignment.AcceptAssignmentDTO) (*assignment.Outcome, error)
	}
)

type Services struct {
	Roles       RoleAssigner
	Locations   LocationWriter
	Employees   EmployeeWriter
	Assets      AssetWriter
	Assignments AssignmentWriter
}

// Result counts what Apply created.
type Result struct {
	Roles       int
	Locations   int
	Employees   int
	Assets      int
	Assignments int
}

// Apply writes fixtures in dependency order. Refs are resolved against the
// ids of records created earlier in the same run. The first failure stops the
// run; records written before it stay.
func Apply(ctx context.Context, f *Fixtures, svc Services, lg *slog.Logger) (Result, error) {
	if _, ok := internal.ActorFromContext(ctx); !ok {
		ctx = internal.ContextWithActor(ctx, internal.Actor{
			UserID: SystemUserID,
			Roles:  []string{string(enums.RoleAdmin)},
		})
	}

	var res Result
	locations := map[string]string{}
	employees := map[string]string{}
	assets := map[string]string{}

	for _, g := range f.Roles {
		if err := svc.Roles.AssignRoles(ctx, g.UserID, g.Roles); err != nil {
			return res, fmt.Errorf("roles for %s: %w", g.UserID, err)
		}
		res.Roles++
	}

	for _, l := range f.Locations {
		created, _, err := svc.Locations.CreateLocation(ctx, location.CreateLocationDTO{
			Name:    l.Name,
			Type:    l.Type,
			Address: l.Address,
		})
		if err != nil {
			return res, fmt.Errorf("location %q: %w", l.Name, err)
		}
		locations[refOr(l.Ref, l.Name)] = created.ID
		res.Locations++
	}

	for _, e := range f.Employees {
		created, _, err := svc.Employees.CreateEmployee(ctx, employee.CreateEmployeeDTO{
			FirstName:    e.FirstName,
			LastName:     e.LastName,
			Email:        e.Email,
			Department:   e.Department,
			BadgeID:      e.BadgeID,
			HealthCardID: e.HealthCardID,
			StartDate:    e.StartDate,
		})
		if err != nil {
			return res, fmt.Errorf("employee %s %s: %w", e.FirstName, e.LastName, err)
		}
		employees[refOr(e.Ref, e.LastName)] = created.ID
		res.Employees++
	}

	for _, a := range f.Assets {
		created, _, err := svc.Assets.CreateAsset(ctx, asset.CreateAssetDTO{
			AssetTag:          a.AssetTag,
			Type:              a.Type,
			Manufacturer:      a.Manufacturer,
			Model:             a.Model,
			SerialNumber:      a.SerialNumber,
			Status:            a.Status,
			Ownership:         a.Ownership,
			Hostname:          a.Hostname,
			OperatingSystem:   a.OperatingSystem,
			PurchaseDate:      a.PurchaseDate,
			PurchaseCost:      a.PurchaseCost,
			UsefulLifeYears:   a.UsefulLifeYears,
			WarrantyExpiry:    a.WarrantyExpiry,
			SecurityCompliant: a.SecurityCompliant,
			Notes:             a.Notes,
		})
		if err != nil {
			return res, fmt.Errorf("asset %s: %w", a.AssetTag, err)
		}
		assets[refOr(a.Ref, a.AssetTag)] = created.ID
		res.Assets++

		if a.Location == "" {
			continue
		}
		locationID, ok := locations[a.Location]
		if !ok {
			return res, fmt.Errorf("asset %s: unknown location %q", a.AssetTag, a.Location)
		}
		if _, _, err := svc.Locations.MoveAssetToLocation(ctx, created.ID, location.MoveAssetDTO{LocationID: locationID}); err != nil {
			return res, fmt.Errorf("asset %s: place at %q: %w", a.AssetTag, a.Location, err)
		}
	}

	for _, a := range f.Assignments {
		assetID, ok := assets[a.Asset]
		if !ok {
			return res, fmt.Errorf("assignment: unknown asset %q", a.Asset)
		}
		employeeID, ok := employees[a.Employee]
		if !ok {
			return res, fmt.Errorf("assignment: unknown employee %q", a.Employee)
		}

		out, err := svc.Assignments.CreateAssignment(ctx, assignment.CreateAssignmentDTO{
			AssetID:    assetID,
			EmployeeID: employeeID,
			StartDate:  a.StartDate,
			Notes:      a.Notes,
		})
		if err != nil {
			return res, fmt.Errorf("assignment %s to %s: %w", a.Asset, a.Employee, err)
		}
		if a.Accept {
			if _, err := svc.Assignments.AcceptAssignment(ctx, out.Assignment.ID, assignment.AcceptAssignmentDTO{DigitalAcknowledgment: true}); err != nil {
				return res, fmt.Errorf("accept %s to %s: %w", a.Asset, a.Employee, err)
			}
		}
		res.Assignments++
	}

	lg.InfoContext(ctx, "seed applied",
		"roles", res.Roles,
		"locations", res.Locations,
		"employees", res.Employees,
		"assets", res.Assets,
		"assignments", res.Assignments)
	return res, nil
}

func refOr(ref, fallback string) string {
	if ref != "" {
		return ref
	}
	return fallback
}
