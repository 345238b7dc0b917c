package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500

	formattingDescription = "Device formatted and reimaged"
)

type TxRepository interface {
	audit.Writer
	AssetExists(ctx context.Context, assetID string) (bool, error)
	Insert(ctx context.Context, e *Event) error
}

type Repository interface {
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
	ListForAsset(ctx context.Context, assetID string) ([]*Event, error)
	ListAll(ctx context.Context, limit int) ([]*Event, error)
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// SetClock replaces the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) LogMaintenance(ctx context.Context, assetID string, dto LogMaintenanceDTO) (*Event, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	date, _ := validation.ParseDate(dto.Date)

	var health *enums.Health
	if dto.ResultingHealth != nil && *dto.ResultingHealth != "" {
		h := enums.Health(*dto.ResultingHealth)
		health = &h
	}
	return s.log(ctx, assetID, enums.MaintenanceType(dto.Type), date, dto.PerformedBy, dto.Description, health)
}

// LogFormatting records a formatting run dated today with a healthy result.
func (s *Service) LogFormatting(ctx context.Context, assetID string, dto LogFormattingDTO) (*Event, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	description := dto.Description
	if description == nil {
		d := formattingDescription
		description = &d
	}
	healthy := enums.HealthHealthy
	return s.log(ctx, assetID, enums.MaintenanceFormatting, validation.Today(s.now()), dto.PerformedBy, description, &healthy)
}

func (s *Service) log(ctx context.Context, assetID string, typ enums.MaintenanceType, date time.Time, performedBy, description *string, health *enums.Health) (*Event, []string, error) {
	now := s.now().UTC()
	actor := internal.UserIDFromContext(ctx)

	event := &Event{
		ID:              uuid.NewString(),
		AssetID:         assetID,
		Type:            typ,
		Date:            date,
		PerformedBy:     performedBy,
		Description:     description,
		ResultingHealth: health,
		CreatedAt:       now,
	}
	if actor != "" {
		event.CreatedBy = &actor
	}

	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		ok, err := tx.AssetExists(ctx, assetID)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrAssetNotFound
		}
		if err := tx.Insert(ctx, event); err != nil {
			return err
		}
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionCreate, audit.EntityMaintenance, event.ID, nil, event.Snapshot()))
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to log maintenance", "asset_id", assetID, "type", typ, "error", err)
		return nil, nil, err
	}

	keys := event.InvalidationKeys()
	if err := s.publisher.PublishSync(ctx, events.NewChangeEvent(events.EventTypeMaintenanceLogged, string(audit.EntityMaintenance), event.ID, keys)); err != nil {
		s.logger.WarnContext(ctx, "maintenance change subscribers failed", "event_id", event.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "maintenance logged", "asset_id", assetID, "type", typ, "event_id", event.ID)
	return event, keys, nil
}

// ListForAsset returns the asset's service history, most recent first.
func (s *Service) ListForAsset(ctx context.Context, assetID string) ([]*Event, error) {
	list, err := s.repo.ListForAsset(ctx, assetID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list maintenance", "asset_id", assetID, "error", err)
		return nil, err
	}
	return list, nil
}

func (s *Service) ListAll(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	list, err := s.repo.ListAll(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list maintenance", "error", err)
		return nil, err
	}
	return list, nil
}
