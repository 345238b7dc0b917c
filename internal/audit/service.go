package audit

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
)

// Writer appends entries. Callers that mutate other tables pass a Writer bound
// to their own transaction so the entry commits with the change it records.
type Writer interface {
	Append(ctx context.Context, entry Entry) error
}

type RepositoryAPI interface {
	Writer
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	v := validation.NewValidator()
	v.Field("action", filter.Action).OneOf(Actions...)
	v.Field("entity_type", filter.EntityType).OneOf(EntityTypes...)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	entries, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit logs", "error", err)
		return nil, internal.NewInternalError("failed to list audit logs", err)
	}
	return entries, nil
}

// ForEntity returns the trail of one record, newest first.
func (s *Service) ForEntity(ctx context.Context, entity EntityType, entityID string) ([]Entry, error) {
	return s.List(ctx, Filter{EntityType: string(entity), EntityID: entityID, Limit: MaxLimit})
}
