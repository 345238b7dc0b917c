package asset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
	"github.com/google/uuid"
)

type TxRepository interface {
	audit.Writer
	Lock(ctx context.Context, id string) (*Asset, error)
	Insert(ctx context.Context, a *Asset) error
	Save(ctx context.Context, a *Asset) error
	CountOpenAssignments(ctx context.Context, assetID string) (int64, error)
}

type Repository interface {
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
	GetByID(ctx context.Context, id string) (*Asset, error)
	List(ctx context.Context, filter ListFilter) ([]*Asset, error)
}

// The detail view pulls the three histories from their owning services.
type (
	AssignmentHistory interface {
		HistoryForAsset(ctx context.Context, assetID string) ([]*assignment.Assignment, error)
	}
	MaintenanceHistory interface {
		ListForAsset(ctx context.Context, assetID string) ([]*maintenance.Event, error)
	}
	LocationHistory interface {
		HistoryForAsset(ctx context.Context, assetID string) ([]*location.HistoryEntry, error)
	}
)

type Service struct {
	repo        Repository
	publisher   events.Publisher
	cache       cache.Cache
	logger      *slog.Logger
	now         func() time.Time
	assignments AssignmentHistory
	maintenance MaintenanceHistory
	locations   LocationHistory
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithHistory(a AssignmentHistory, m MaintenanceHistory, l LocationHistory) Option {
	return func(s *Service) {
		s.assignments = a
		s.maintenance = m
		s.locations = l
	}
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) CreateAsset(ctx context.Context, dto CreateAssetDTO) (*Asset, []string, error) {
	if err := dto.Validate(); err != nil {
		s.logger.WarnContext(ctx, "asset validation failed", "error", err)
		return nil, nil, err
	}
	now := s.clock()

	a := &Asset{
		ID:                uuid.NewString(),
		AssetTag:          dto.AssetTag,
		Type:              enums.AssetType(dto.Type),
		Manufacturer:      dto.Manufacturer,
		Model:             dto.Model,
		SerialNumber:      dto.SerialNumber,
		Status:            enums.AssetSpare,
		Ownership:         enums.Ownership(dto.Ownership),
		Hostname:          dto.Hostname,
		OperatingSystem:   dto.OperatingSystem,
		PurchaseDate:      parseOptionalDate(dto.PurchaseDate),
		PurchaseCost:      dto.PurchaseCost,
		UsefulLifeYears:   dto.UsefulLifeYears,
		WarrantyExpiry:    parseOptionalDate(dto.WarrantyExpiry),
		SecurityCompliant: true,
		Notes:             dto.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if dto.Status != "" {
		a.Status = enums.AssetStatus(dto.Status)
	}
	if dto.SecurityCompliant != nil {
		a.SecurityCompliant = *dto.SecurityCompliant
	}
	if actor := internal.UserIDFromContext(ctx); actor != "" {
		a.CreatedBy = &actor
	}

	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		if err := tx.Insert(ctx, a); err != nil {
			return err
		}
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionCreate, audit.EntityAsset, a.ID, nil, a.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "create asset", err, "asset_tag", dto.AssetTag)
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "asset created", "asset_id", a.ID, "asset_tag", a.AssetTag)
	return a, s.publish(ctx, events.EventTypeAssetCreated, a), nil
}

// UpdateAsset edits descriptive fields. Disposed assets are read-only
// whatever is being changed.
func (s *Service) UpdateAsset(ctx context.Context, id string, dto UpdateAssetDTO) (*Asset, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	now := s.clock()

	var updated *Asset
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		a, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		if a.IsReadonly {
			return internal.ErrReadonlyAsset
		}
		before := a.Snapshot()
		applyUpdate(a, dto)
		a.UpdatedAt = now
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		updated = a
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityAsset, a.ID, before, a.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "update asset", err, "asset_id", id)
		return nil, nil, err
	}

	return updated, s.publish(ctx, events.EventTypeAssetUpdated, updated), nil
}

// UpdateAssetStatus changes the status with the asset row locked. Retiring,
// disposing or quarantining an asset someone still holds is refused.
func (s *Service) UpdateAssetStatus(ctx context.Context, id string, dto UpdateStatusDTO) (*Asset, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	status := enums.AssetStatus(dto.Status)
	now := s.clock()

	var updated *Asset
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		a, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		if a.IsReadonly {
			return internal.ErrReadonlyAsset
		}
		if status.In(enums.GuardedAssetStatuses) {
			open, err := tx.CountOpenAssignments(ctx, a.ID)
			if err != nil {
				return err
			}
			if open > 0 {
				return internal.ErrCannotRetireAssignedAsset.
					WithMessage(fmt.Sprintf("Cannot %s asset with active assignments. Please return the asset first.", status)).
					WithDetails(map[string]interface{}{"status": status, "count": open})
			}
		}

		from := a.Status
		a.ChangeStatus(status, now)
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		updated = a
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityAsset, a.ID,
			map[string]interface{}{"status": from},
			map[string]interface{}{"status": status, "is_readonly": a.IsReadonly}))
	})
	if err != nil {
		s.logFailure(ctx, "update asset status", err, "asset_id", id, "status", status)
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "asset status changed", "asset_id", id, "status", status)
	return updated, s.publish(ctx, events.EventTypeAssetStatusChanged, updated), nil
}

func (s *Service) GetAsset(ctx context.Context, id string) (*Asset, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "get asset", err, "asset_id", id)
		return nil, err
	}
	return a, nil
}

// GetAssetWithHistory builds the asset detail view, served from the cache
// until a mutation invalidates asset:{id}.
func (s *Service) GetAssetWithHistory(ctx context.Context, id string) (*Detail, error) {
	detail, err := cache.Fetch(ctx, s.cache, cache.AssetKey(id), func(ctx context.Context) (*Detail, error) {
		return s.loadDetail(ctx, id)
	})
	if err != nil {
		s.logFailure(ctx, "get asset detail", err, "asset_id", id)
		return nil, err
	}
	return detail, nil
}

func (s *Service) loadDetail(ctx context.Context, id string) (*Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &Detail{
		Response:    a.ToResponse(s.clock()),
		Assignments: []assignment.Response{},
		Maintenance: []maintenance.Response{},
		Locations:   []location.HistoryResponse{},
	}

	if s.assignments != nil {
		list, err := s.assignments.HistoryForAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Assignments = assignment.ToResponses(list)
		if current := currentAssignment(list); current != nil {
			resp := current.ToResponse()
			detail.CurrentAssignment = &resp
		}
	}
	if s.maintenance != nil {
		list, err := s.maintenance.ListForAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Maintenance = maintenance.ToResponses(list)
	}
	if s.locations != nil {
		list, err := s.locations.HistoryForAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Locations = location.HistoryResponses(list)
	}
	return detail, nil
}

// ListAssets returns assets ordered by asset tag.
func (s *Service) ListAssets(ctx context.Context, filter ListFilter) ([]*Asset, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		s.logFailure(ctx, "list assets", err)
		return nil, err
	}
	return list, nil
}

// Now is the instant book values are computed at.
func (s *Service) Now() time.Time {
	return s.clock()
}

func (s *Service) publish(ctx context.Context, eventType string, a *Asset) []string {
	keys := a.InvalidationKeys()
	if err := s.publisher.PublishSync(ctx, events.NewChangeEvent(eventType, string(audit.EntityAsset), a.ID, keys)); err != nil {
		s.logger.WarnContext(ctx, "asset change subscribers failed", "event_type", eventType, "asset_id", a.ID, "error", err)
	}
	return keys
}

func (s *Service) logFailure(ctx context.Context, op string, err error, kv ...any) {
	args := append([]any{"operation", op, "error", err}, kv...)
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < 500 {
		s.logger.WarnContext(ctx, "asset operation rejected", args...)
		return
	}
	s.logger.ErrorContext(ctx, "asset operation failed", args...)
}

// currentAssignment is the open assignment with the latest start date. The
// list arrives newest first.
func currentAssignment(list []*assignment.Assignment) *assignment.Assignment {
	for _, a := range list {
		if a.IsOpen() {
			return a
		}
	}
	return nil
}

func applyUpdate(a *Asset, dto UpdateAssetDTO) {
	if dto.AssetTag != nil {
		a.AssetTag = *dto.AssetTag
	}
	if dto.Type != nil {
		a.Type = enums.AssetType(*dto.Type)
	}
	if dto.Manufacturer != nil {
		a.Manufacturer = *dto.Manufacturer
	}
	if dto.Model != nil {
		a.Model = *dto.Model
	}
	if dto.SerialNumber != nil {
		a.SerialNumber = *dto.SerialNumber
	}
	if dto.Ownership != nil {
		a.Ownership = enums.Ownership(*dto.Ownership)
	}
	if dto.Hostname != nil {
		a.Hostname = dto.Hostname
	}
	if dto.OperatingSystem != nil {
		a.OperatingSystem = dto.OperatingSystem
	}
	if dto.PurchaseDate != nil {
		a.PurchaseDate = parseOptionalDate(dto.PurchaseDate)
	}
	if dto.PurchaseCost != nil {
		a.PurchaseCost = dto.PurchaseCost
	}
	if dto.UsefulLifeYears != nil {
		a.UsefulLifeYears = dto.UsefulLifeYears
	}
	if dto.WarrantyExpiry != nil {
		a.WarrantyExpiry = parseOptionalDate(dto.WarrantyExpiry)
	}
	if dto.SecurityCompliant != nil {
		a.SecurityCompliant = *dto.SecurityCompliant
	}
	if dto.Notes != nil {
		a.Notes = dto.Notes
	}
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := validation.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}
