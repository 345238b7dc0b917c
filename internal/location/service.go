package location

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
	"github.com/google/uuid"
)

type TxRepository interface {
	audit.Writer
	LockLocation(ctx context.Context, id string) (*Location, error)
	LockAsset(ctx context.Context, id string) (*AssetRef, error)
	Insert(ctx context.Context, l *Location) error
	Save(ctx context.Context, l *Location) error
	// CloseOpenHistory ends the asset's open stay, if any, and returns it.
	CloseOpenHistory(ctx context.Context, assetID string, at time.Time) (*HistoryEntry, error)
	InsertHistory(ctx context.Context, h *HistoryEntry) error
	SetAssetLocation(ctx context.Context, assetID, locationID string, at time.Time) error
}

type Repository interface {
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
	GetByID(ctx context.Context, id string) (*Location, error)
	List(ctx context.Context, activeOnly bool) ([]*Location, error)
	AssetsAt(ctx context.Context, locationID string) ([]AssetRef, error)
	HistoryForAsset(ctx context.Context, assetID string) ([]*HistoryEntry, error)
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	cache     cache.Cache
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCache serves location detail views from c.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
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

func (s *Service) CreateLocation(ctx context.Context, dto CreateLocationDTO) (*Location, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	loc := &Location{
		ID:        uuid.NewString(),
		Name:      dto.Name,
		Type:      enums.LocationType(dto.Type),
		Address:   dto.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		if err := tx.Insert(ctx, loc); err != nil {
			return err
		}
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionCreate, audit.EntityLocation, loc.ID, nil, loc.Snapshot()))
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create location", "name", dto.Name, "error", err)
		return nil, nil, err
	}

	keys := loc.InvalidationKeys()
	s.publish(ctx, events.EventTypeLocationCreated, loc.ID, keys)
	s.logger.InfoContext(ctx, "location created", "location_id", loc.ID, "name", loc.Name)
	return loc, keys, nil
}

func (s *Service) UpdateLocation(ctx context.Context, id string, dto UpdateLocationDTO) (*Location, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()

	var updated *Location
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		loc, err := tx.LockLocation(ctx, id)
		if err != nil {
			return err
		}
		before := loc.Snapshot()
		if dto.Name != nil {
			loc.Name = *dto.Name
		}
		if dto.Type != nil {
			loc.Type = enums.LocationType(*dto.Type)
		}
		if dto.Address != nil {
			loc.Address = dto.Address
		}
		if dto.IsActive != nil {
			loc.IsActive = *dto.IsActive
		}
		loc.UpdatedAt = now
		if err := tx.Save(ctx, loc); err != nil {
			return err
		}
		updated = loc
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityLocation, loc.ID, before, loc.Snapshot()))
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to update location", "location_id", id, "error", err)
		return nil, nil, err
	}

	keys := updated.InvalidationKeys()
	s.publish(ctx, events.EventTypeLocationUpdated, updated.ID, keys)
	return updated, keys, nil
}

// MoveAssetToLocation closes the asset's current stay and opens a new one in
// the same transaction, so an asset never has two open stays.
func (s *Service) MoveAssetToLocation(ctx context.Context, assetID string, dto MoveAssetDTO) (*HistoryEntry, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	actorID := internal.UserIDFromContext(ctx)

	var (
		entry *HistoryEntry
		from  string
	)
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		asset, err := tx.LockAsset(ctx, assetID)
		if err != nil {
			return err
		}
		if asset.IsReadonly {
			return internal.ErrReadonlyAsset
		}
		loc, err := tx.LockLocation(ctx, dto.LocationID)
		if err != nil {
			return err
		}
		if !loc.IsActive {
			return internal.ErrLocationInactive.WithDetails(map[string]interface{}{"location_id": loc.ID})
		}

		if _, err := tx.CloseOpenHistory(ctx, asset.ID, now); err != nil {
			return err
		}
		entry = &HistoryEntry{
			ID:         uuid.NewString(),
			AssetID:    asset.ID,
			LocationID: loc.ID,
			StartDate:  now,
			Notes:      dto.Notes,
			CreatedAt:  now,
		}
		if actorID != "" {
			entry.MovedBy = &actorID
		}
		if err := tx.InsertHistory(ctx, entry); err != nil {
			return err
		}
		if err := tx.SetAssetLocation(ctx, asset.ID, loc.ID, now); err != nil {
			return err
		}

		if asset.CurrentLocationID != nil {
			from = *asset.CurrentLocationID
		}
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityAsset, asset.ID,
			map[string]interface{}{"current_location_id": asset.CurrentLocationID},
			map[string]interface{}{"current_location_id": loc.ID}))
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to move asset", "asset_id", assetID, "location_id", dto.LocationID, "error", err)
		return nil, nil, err
	}

	keys := cache.NewKeys(
		cache.AssetKey(assetID),
		cache.LocationKey(from),
		cache.LocationKey(dto.LocationID),
		cache.KeyAssets,
		cache.KeyLocations,
	).List()
	s.publish(ctx, events.EventTypeAssetMoved, assetID, keys)
	s.logger.InfoContext(ctx, "asset moved", "asset_id", assetID, "from", from, "to", dto.LocationID)
	return entry, keys, nil
}

func (s *Service) GetLocation(ctx context.Context, id string) (*Location, error) {
	return s.repo.GetByID(ctx, id)
}

// GetLocationWithAssets returns the location and the assets currently placed there.
func (s *Service) GetLocationWithAssets(ctx context.Context, id string) (*DetailResponse, error) {
	detail, err := cache.Fetch(ctx, s.cache, cache.LocationKey(id), func(ctx context.Context) (*DetailResponse, error) {
		loc, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		assets, err := s.repo.AssetsAt(ctx, id)
		if err != nil {
			return nil, err
		}
		resp := (&Detail{Location: loc, Assets: assets}).ToResponse()
		return &resp, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load location", "location_id", id, "error", err)
		return nil, err
	}
	return detail, nil
}

// ListLocations returns locations ordered by name.
func (s *Service) ListLocations(ctx context.Context, activeOnly bool) ([]*Location, error) {
	list, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list locations", "error", err)
		return nil, err
	}
	return list, nil
}

// HistoryForAsset returns the asset's stays, newest first.
func (s *Service) HistoryForAsset(ctx context.Context, assetID string) ([]*HistoryEntry, error) {
	list, err := s.repo.HistoryForAsset(ctx, assetID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list location history", "asset_id", assetID, "error", err)
		return nil, err
	}
	return list, nil
}

func (s *Service) publish(ctx context.Context, eventType, entityID string, keys []string) {
	entity := string(audit.EntityLocation)
	if eventType == events.EventTypeAssetMoved {
		entity = string(audit.EntityAsset)
	}
	if err := s.publisher.PublishSync(ctx, events.NewChangeEvent(eventType, entity, entityID, keys)); err != nil {
		s.logger.WarnContext(ctx, "location change subscribers failed", "event_type", eventType, "error", err)
	}
}
