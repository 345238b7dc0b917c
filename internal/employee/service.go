package employee

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
	"github.com/google/uuid"
)

type TxRepository interface {
	audit.Writer
	Lock(ctx context.Context, id string) (*Employee, error)
	Insert(ctx context.Context, e *Employee) error
	Save(ctx context.Context, e *Employee) error
	CountOpenAssignments(ctx context.Context, employeeID string) (int64, error)
	// ReturnedAssetIDs lists the distinct assets the employee has given back.
	ReturnedAssetIDs(ctx context.Context, employeeID string) ([]string, error)
	InsertOffboarding(ctx context.Context, r *OffboardingRecord) error
}

type Repository interface {
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, filter ListFilter) ([]*Employee, error)
	OffboardingRecords(ctx context.Context, employeeID string) ([]*OffboardingRecord, error)
}

type AssignmentReader interface {
	HistoryForEmployee(ctx context.Context, employeeID string) ([]*assignment.Assignment, error)
	ActiveAssignmentsForEmployee(ctx context.Context, employeeID string) ([]*assignment.Assignment, error)
}

// Detail is the employee page.
type Detail struct {
	Response
	Assignments []assignment.Response `json:"assignments"`
	Offboarding []*OffboardingRecord  `json:"offboarding"`
}

// Preview lists what an employee still holds before they can be marked as left.
type Preview struct {
	Employee    Response              `json:"employee"`
	Pending     []assignment.Response `json:"pending"`
	CanComplete bool                  `json:"can_complete"`
}

type Service struct {
	repo        Repository
	assignments AssignmentReader
	publisher   events.Publisher
	cache       cache.Cache
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func NewService(repo Repository, assignments AssignmentReader, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{repo: repo, assignments: assignments, publisher: publisher, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) CreateEmployee(ctx context.Context, dto CreateEmployeeDTO) (*Employee, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	startDate, _ := validation.ParseDate(dto.StartDate)
	now := s.clock()

	e := &Employee{
		ID:           uuid.NewString(),
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		Department:   dto.Department,
		BadgeID:      blankToNil(dto.BadgeID),
		HealthCardID: dto.HealthCardID,
		Status:       enums.EmployeeActive,
		StartDate:    startDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if actor := internal.UserIDFromContext(ctx); actor != "" {
		e.CreatedBy = &actor
	}

	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		if err := tx.Insert(ctx, e); err != nil {
			return err
		}
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionCreate, audit.EntityEmployee, e.ID, nil, e.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "create employee", err)
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "employee created", "employee_id", e.ID)
	return e, s.publish(ctx, events.EventTypeEmployeeCreated, e), nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, dto UpdateEmployeeDTO) (*Employee, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	now := s.clock()

	var updated *Employee
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		e, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		before := e.Snapshot()
		if dto.FirstName != nil {
			e.FirstName = *dto.FirstName
		}
		if dto.LastName != nil {
			e.LastName = *dto.LastName
		}
		if dto.Email != nil {
			e.Email = dto.Email
		}
		if dto.Department != nil {
			e.Department = dto.Department
		}
		if dto.BadgeID != nil {
			e.BadgeID = blankToNil(dto.BadgeID)
		}
		if dto.HealthCardID != nil {
			e.HealthCardID = dto.HealthCardID
		}
		if dto.StartDate != nil {
			startDate, _ := validation.ParseDate(*dto.StartDate)
			e.StartDate = startDate
		}
		if dto.Status != nil && *dto.Status == string(enums.EmployeeActive) && !e.IsActive() {
			e.Reactivate(now)
		}
		e.UpdatedAt = now
		if err := tx.Save(ctx, e); err != nil {
			return err
		}
		updated = e
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityEmployee, e.ID, before, e.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "update employee", err, "employee_id", id)
		return nil, nil, err
	}

	return updated, s.publish(ctx, events.EventTypeEmployeeUpdated, updated), nil
}

// MarkEmployeeAsLeft ends an employment. It is refused while the employee
// still holds any open assignment.
func (s *Service) MarkEmployeeAsLeft(ctx context.Context, id string, dto MarkLeftDTO) (*Employee, []string, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	endDate, _ := validation.ParseDate(dto.EndDate)
	now := s.clock()
	actorID := internal.UserIDFromContext(ctx)

	var updated *Employee
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		e, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		if !e.IsActive() {
			return internal.ErrEmployeeInactive.WithMessage("Employee has already left")
		}
		if endDate.Before(e.StartDate) {
			return internal.NewValidationFieldError("end_date", "end_date must not be before the start date", internal.ErrCodeInvalidDate)
		}

		open, err := tx.CountOpenAssignments(ctx, e.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return internal.ErrEmployeeHasActiveAssignments.
				WithMessage(fmt.Sprintf("Employee has %d active assignment(s). Please return all assets before marking as left.", open)).
				WithDetails(map[string]interface{}{"count": open})
		}

		returned, err := tx.ReturnedAssetIDs(ctx, e.ID)
		if err != nil {
			return err
		}

		before := e.Snapshot()
		e.MarkLeft(endDate, now, actorID)
		if err := tx.Save(ctx, e); err != nil {
			return err
		}

		record := &OffboardingRecord{
			ID:             uuid.NewString(),
			EmployeeID:     e.ID,
			InitiatedAt:    now,
			CompletedAt:    &now,
			Notes:          dto.Notes,
			PendingAssets:  []string{},
			ReturnedAssets: returned,
		}
		if actorID != "" {
			record.InitiatedBy = &actorID
			record.CompletedBy = &actorID
		}
		if err := tx.InsertOffboarding(ctx, record); err != nil {
			return err
		}

		updated = e
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityEmployee, e.ID, before, e.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "mark employee as left", err, "employee_id", id)
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "employee marked as left", "employee_id", id, "end_date", dto.EndDate)
	return updated, s.publish(ctx, events.EventTypeEmployeeLeft, updated), nil
}

// OffboardingPreview reports the open assignments blocking MarkEmployeeAsLeft.
func (s *Service) OffboardingPreview(ctx context.Context, id string) (*Preview, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "offboarding preview", err, "employee_id", id)
		return nil, err
	}
	pending, err := s.assignments.ActiveAssignmentsForEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Employee:    e.ToResponse(),
		Pending:     assignment.ToResponses(pending),
		CanComplete: e.IsActive() && len(pending) == 0,
	}, nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "get employee", err, "employee_id", id)
		return nil, err
	}
	return e, nil
}

// GetEmployeeWithAssignments is cached under employee:{id}.
func (s *Service) GetEmployeeWithAssignments(ctx context.Context, id string) (*Detail, error) {
	detail, err := cache.Fetch(ctx, s.cache, cache.EmployeeKey(id), func(ctx context.Context) (*Detail, error) {
		e, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		history, err := s.assignments.HistoryForEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		records, err := s.repo.OffboardingRecords(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Detail{
			Response:    e.ToResponse(),
			Assignments: assignment.ToResponses(history),
			Offboarding: records,
		}, nil
	})
	if err != nil {
		s.logFailure(ctx, "get employee detail", err, "employee_id", id)
		return nil, err
	}
	return detail, nil
}

// ListEmployees returns employees ordered by last name.
func (s *Service) ListEmployees(ctx context.Context, filter ListFilter) ([]*Employee, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		s.logFailure(ctx, "list employees", err)
		return nil, err
	}
	return list, nil
}

func (s *Service) publish(ctx context.Context, eventType string, e *Employee) []string {
	keys := e.InvalidationKeys()
	if err := s.publisher.PublishSync(ctx, events.NewChangeEvent(eventType, string(audit.EntityEmployee), e.ID, keys)); err != nil {
		s.logger.WarnContext(ctx, "employee change subscribers failed", "event_type", eventType, "employee_id", e.ID, "error", err)
	}
	return keys
}

func (s *Service) logFailure(ctx context.Context, op string, err error, kv ...any) {
	args := append([]any{"operation", op, "error", err}, kv...)
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < 500 {
		s.logger.WarnContext(ctx, "employee operation rejected", args...)
		return
	}
	s.logger.ErrorContext(ctx, "employee operation failed", args...)
}

// blankToNil keeps empty badge ids out of the unique index.
func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
