package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
)

// TxRepository is bound to one open transaction. Lock* methods hold the row
// until the transaction ends.
type TxRepository interface {
	audit.Writer
	LockAssignment(ctx context.Context, id string) (*Assignment, error)
	LockAsset(ctx context.Context, id string) (*AssetState, error)
	LockEmployee(ctx context.Context, id string) (*EmployeeState, error)
	CountOpenForAsset(ctx context.Context, assetID string) (int64, error)
	Insert(ctx context.Context, a *Assignment) error
	Save(ctx context.Context, a *Assignment) error
	SetAssetStatus(ctx context.Context, assetID string, status enums.AssetStatus, at time.Time) error
	// LatestEndForAsset returns the latest end date among the asset's other
	// assignments, or nil when it has none.
	LatestEndForAsset(ctx context.Context, assetID, excludeID string) (*time.Time, error)
}

type Repository interface {
	// WithinTx commits when fn returns nil and rolls every write back otherwise.
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
	GetByID(ctx context.Context, id string) (*Assignment, error)
	List(ctx context.Context, filter ListFilter) ([]*Assignment, error)
	HistoryForAsset(ctx context.Context, assetID string) ([]*Assignment, error)
	HistoryForEmployee(ctx context.Context, employeeID string) ([]*Assignment, error)
	OpenForEmployee(ctx context.Context, employeeID string) ([]*Assignment, error)
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for accepted_at, returned_at and
// the default end dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		repo:      repo,
		publisher: publisher,
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

func (s *Service) CreateAssignment(ctx context.Context, dto CreateAssignmentDTO) (*Outcome, error) {
	if err := dto.Validate(); err != nil {
		s.logger.WarnContext(ctx, "assignment validation failed", "error", err)
		return nil, err
	}
	startDate, _ := validation.ParseDate(dto.StartDate)
	now := s.clock()
	actorID := internal.UserIDFromContext(ctx)

	var created *Assignment
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		employee, err := tx.LockEmployee(ctx, dto.EmployeeID)
		if err != nil {
			return err
		}
		if !employee.CanReceiveAssignment() {
			return internal.ErrEmployeeInactive
		}

		asset, err := tx.LockAsset(ctx, dto.AssetID)
		if err != nil {
			return err
		}
		if !asset.CanBeAssigned() {
			return notAssignable(asset)
		}

		open, err := tx.CountOpenForAsset(ctx, asset.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return internal.ErrDuplicateActiveAssignment
		}

		created = NewAssignment(asset.ID, employee.ID, startDate, dto.Notes, actorID, now)
		if err := tx.Insert(ctx, created); err != nil {
			return err
		}
		if err := tx.SetAssetStatus(ctx, asset.ID, enums.AssetInUse, now); err != nil {
			return err
		}

		if err := tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionAssign, audit.EntityAssignment, created.ID, nil, created.Snapshot())); err != nil {
			return err
		}
		return tx.Append(ctx, assetStatusEntry(ctx, now, asset.ID, asset.Status, enums.AssetInUse))
	})
	if err != nil {
		s.logFailure(ctx, "create assignment", err, "asset_id", dto.AssetID, "employee_id", dto.EmployeeID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment created",
		"assignment_id", created.ID,
		"asset_id", created.AssetID,
		"employee_id", created.EmployeeID)

	return s.commit(ctx, events.EventTypeAssignmentCreated, created, nil), nil
}

func (s *Service) AcceptAssignment(ctx context.Context, id string, dto AcceptAssignmentDTO) (*Outcome, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	now := s.clock()
	actorID := internal.UserIDFromContext(ctx)

	var accepted *Assignment
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		a, err := tx.LockAssignment(ctx, id)
		if err != nil {
			return err
		}
		before := a.Snapshot()
		if err := a.Accept(now, actorID, dto.Notes, dto.DigitalAcknowledgment); err != nil {
			return err
		}
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		accepted = a
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityAssignment, a.ID, before, a.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "accept assignment", err, "assignment_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment accepted", "assignment_id", id)
	return s.commit(ctx, events.EventTypeAssignmentAccepted, accepted, nil), nil
}

func (s *Service) RequestReturn(ctx context.Context, id string, dto RequestReturnDTO) (*Outcome, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	now := s.clock()

	var updated *Assignment
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		a, err := tx.LockAssignment(ctx, id)
		if err != nil {
			return err
		}
		before := a.Snapshot()
		if err := a.RequestReturn(now, dto.Notes); err != nil {
			return err
		}
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		updated = a
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityAssignment, a.ID, before, a.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "request return", err, "assignment_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment return requested", "assignment_id", id)
	return s.commit(ctx, events.EventTypeAssignmentReturnRequested, updated, nil), nil
}

// ReturnAssignment records the asset coming back. The asset status is left
// for a follow-up status update.
func (s *Service) ReturnAssignment(ctx context.Context, id string, dto ReturnAssignmentDTO) (*Outcome, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	now := s.clock()
	actorID := internal.UserIDFromContext(ctx)

	var returned *Assignment
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		a, err := tx.LockAssignment(ctx, id)
		if err != nil {
			return err
		}
		before := a.Snapshot()
		err = a.Return(now, actorID, ReturnDetails{
			Condition:          dto.ReturnCondition,
			DamageNotes:        dto.DamageNotes,
			RequiresFormatting: dto.RequiresFormatting,
		})
		if err != nil {
			return err
		}
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		returned = a
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUnassign, audit.EntityAssignment, a.ID, before, a.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "return assignment", err, "assignment_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment returned",
		"assignment_id", id,
		"requires_formatting", dto.RequiresFormatting)
	return s.commit(ctx, events.EventTypeAssignmentReturned, returned, nil), nil
}

// CloseAssignment ends the assignment with a reason and moves the asset to
// the chosen status in the same transaction.
func (s *Service) CloseAssignment(ctx context.Context, id string, dto CloseAssignmentDTO) (*Outcome, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	endDate, _ := validation.ParseDate(dto.EndDate)
	statusAfter := enums.AssetStatus(dto.AssetStatusAfter)
	now := s.clock()
	actorID := internal.UserIDFromContext(ctx)

	var closed *Assignment
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		a, err := tx.LockAssignment(ctx, id)
		if err != nil {
			return err
		}
		if a.AssetID != dto.AssetID {
			return internal.NewValidationFieldError("asset_id", "asset_id does not match the assignment", internal.ErrCodeValidationFailed)
		}
		if endDate.Before(a.StartDate) {
			return internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDate)
		}

		asset, err := tx.LockAsset(ctx, a.AssetID)
		if err != nil {
			return err
		}

		before := a.Snapshot()
		if err := a.Close(endDate, now, actorID, enums.ChangeType(dto.ChangeType), dto.ChangeReason); err != nil {
			return err
		}
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		if err := tx.SetAssetStatus(ctx, asset.ID, statusAfter, now); err != nil {
			return err
		}
		closed = a

		if err := tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUnassign, audit.EntityAssignment, a.ID, before, a.Snapshot())); err != nil {
			return err
		}
		return tx.Append(ctx, assetStatusEntry(ctx, now, asset.ID, asset.Status, statusAfter))
	})
	if err != nil {
		s.logFailure(ctx, "close assignment", err, "assignment_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment closed",
		"assignment_id", id,
		"change_type", dto.ChangeType,
		"asset_status_after", statusAfter)
	return s.commit(ctx, events.EventTypeAssignmentClosed, closed, nil), nil
}

// ReplaceAssetForEmployee swaps the employee's current asset for another one:
// the old assignment closes as a replacement, the old asset goes back to
// spare, and a new pending assignment is opened on the new asset.
func (s *Service) ReplaceAssetForEmployee(ctx context.Context, currentAssignmentID string, dto ReplaceAssetDTO) (*Outcome, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	date, _ := validation.ParseDate(dto.Date)
	now := s.clock()
	actorID := internal.UserIDFromContext(ctx)

	var (
		closed  *Assignment
		created *Assignment
	)
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		current, err := tx.LockAssignment(ctx, currentAssignmentID)
		if err != nil {
			return err
		}
		if current.EmployeeID != dto.EmployeeID {
			return internal.NewValidationFieldError("employee_id", "employee_id does not match the current assignment", internal.ErrCodeValidationFailed)
		}
		if current.AssetID != dto.OldAssetID {
			return internal.NewValidationFieldError("old_asset_id", "old_asset_id does not match the current assignment", internal.ErrCodeValidationFailed)
		}
		if !current.CanBeReplaced() {
			return current.invalidTransition(enums.AssignmentReturned)
		}
		if date.Before(current.StartDate) {
			return internal.NewValidationFieldError("date", "date must not be before the current assignment start_date", internal.ErrCodeInvalidDate)
		}

		employee, err := tx.LockEmployee(ctx, dto.EmployeeID)
		if err != nil {
			return err
		}
		if !employee.CanReceiveAssignment() {
			return internal.ErrEmployeeInactive
		}

		oldAsset, newAsset, err := lockPair(ctx, tx, dto.OldAssetID, dto.NewAssetID)
		if err != nil {
			return err
		}
		if !newAsset.CanBeAssigned() {
			return notAssignable(newAsset)
		}
		if !newAsset.SecurityCompliant {
			return internal.ErrAssetNotAssignable.
				WithMessage("Replacement asset is not security compliant").
				WithDetails(map[string]interface{}{"asset_id": newAsset.ID, "security_compliant": false})
		}
		open, err := tx.CountOpenForAsset(ctx, newAsset.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return internal.ErrDuplicateActiveAssignment
		}

		before := current.Snapshot()
		if err := current.Close(date, now, actorID, enums.ChangeReplacement, dto.Reason); err != nil {
			return err
		}
		if err := tx.Save(ctx, current); err != nil {
			return err
		}
		if err := tx.SetAssetStatus(ctx, oldAsset.ID, enums.AssetSpare, now); err != nil {
			return err
		}

		created = NewAssignment(newAsset.ID, dto.EmployeeID, date, dto.Reason, actorID, now)
		if err := tx.Insert(ctx, created); err != nil {
			return err
		}
		if err := tx.SetAssetStatus(ctx, newAsset.ID, enums.AssetInUse, now); err != nil {
			return err
		}
		closed = current

		entries := []audit.Entry{
			audit.NewEntry(ctx, now, audit.ActionUnassign, audit.EntityAssignment, current.ID, before, current.Snapshot()),
			assetStatusEntry(ctx, now, oldAsset.ID, oldAsset.Status, enums.AssetSpare),
			audit.NewEntry(ctx, now, audit.ActionAssign, audit.EntityAssignment, created.ID, nil, created.Snapshot()),
			assetStatusEntry(ctx, now, newAsset.ID, newAsset.Status, enums.AssetInUse),
		}
		for _, e := range entries {
			if err := tx.Append(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "replace asset", err,
			"assignment_id", currentAssignmentID,
			"old_asset_id", dto.OldAssetID,
			"new_asset_id", dto.NewAssetID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "asset replaced",
		"closed_assignment_id", closed.ID,
		"new_assignment_id", created.ID,
		"employee_id", dto.EmployeeID)
	return s.commit(ctx, events.EventTypeAssignmentReplaced, created, closed), nil
}

// UpdateAssignment edits notes and start date of an open assignment. Closed
// assignments are history and stay as they are.
func (s *Service) UpdateAssignment(ctx context.Context, id string, dto UpdateAssignmentDTO) (*Outcome, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	now := s.clock()

	var updated *Assignment
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		a, err := tx.LockAssignment(ctx, id)
		if err != nil {
			return err
		}
		if !a.IsOpen() {
			return internal.ErrInvalidTransition.
				WithMessage("Only open assignments can be edited").
				WithDetails(map[string]interface{}{"status": a.Status})
		}
		before := a.Snapshot()
		if dto.StartDate != nil {
			startDate, _ := validation.ParseDate(*dto.StartDate)
			if err := checkStartDate(ctx, tx, a, startDate, now); err != nil {
				return err
			}
			a.StartDate = startDate
		}
		if dto.Notes != nil {
			a.Notes = dto.Notes
		}
		a.UpdatedAt = now
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		updated = a
		return tx.Append(ctx, audit.NewEntry(ctx, now, audit.ActionUpdate, audit.EntityAssignment, a.ID, before, a.Snapshot()))
	})
	if err != nil {
		s.logFailure(ctx, "update assignment", err, "assignment_id", id)
		return nil, err
	}

	return s.commit(ctx, events.EventTypeAssignmentUpdated, updated, nil), nil
}

// checkStartDate keeps an edited start date inside the asset's timeline: an
// accepted assignment has already begun, and no assignment may start before
// the previous one on the same asset ended.
func checkStartDate(ctx context.Context, tx TxRepository, a *Assignment, startDate, now time.Time) error {
	if a.Status == enums.AssignmentActive {
		begun := validation.Today(now)
		if a.AcceptedAt != nil {
			begun = validation.Today(*a.AcceptedAt)
		}
		if startDate.After(begun) {
			return internal.NewValidationFieldError("start_date", "start_date of an accepted assignment must not be after its acceptance", internal.ErrCodeInvalidDate)
		}
	}
	previousEnd, err := tx.LatestEndForAsset(ctx, a.AssetID, a.ID)
	if err != nil {
		return err
	}
	if previousEnd != nil && startDate.Before(*previousEnd) {
		return internal.NewValidationFieldError("start_date",
			fmt.Sprintf("start_date must not be before %s, when the asset's previous assignment ended", previousEnd.Format(validation.DateLayout)),
			internal.ErrCodeInvalidDate)
	}
	return nil
}

func (s *Service) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "get assignment", err, "assignment_id", id)
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAssignments(ctx context.Context, filter ListFilter) ([]*Assignment, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		s.logFailure(ctx, "list assignments", err)
		return nil, err
	}
	return list, nil
}

// HistoryForAsset returns every assignment of an asset, newest start date first.
func (s *Service) HistoryForAsset(ctx context.Context, assetID string) ([]*Assignment, error) {
	list, err := s.repo.HistoryForAsset(ctx, assetID)
	if err != nil {
		s.logFailure(ctx, "asset assignment history", err, "asset_id", assetID)
		return nil, err
	}
	return list, nil
}

func (s *Service) HistoryForEmployee(ctx context.Context, employeeID string) ([]*Assignment, error) {
	list, err := s.repo.HistoryForEmployee(ctx, employeeID)
	if err != nil {
		s.logFailure(ctx, "employee assignment history", err, "employee_id", employeeID)
		return nil, err
	}
	return list, nil
}

func (s *Service) ActiveAssignmentsForEmployee(ctx context.Context, employeeID string) ([]*Assignment, error) {
	list, err := s.repo.OpenForEmployee(ctx, employeeID)
	if err != nil {
		s.logFailure(ctx, "employee open assignments", err, "employee_id", employeeID)
		return nil, err
	}
	return list, nil
}

// commit builds the outcome of a committed change and announces it. The
// change is already durable, so a failing subscriber is only logged.
func (s *Service) commit(ctx context.Context, eventType string, a, replaced *Assignment) *Outcome {
	keys := a.InvalidationKeys()
	if replaced != nil {
		keys = cache.NewKeys(keys...).Add(replaced.InvalidationKeys()...).List()
	}
	outcome := &Outcome{Assignment: a, Replaced: replaced, Invalidate: keys}

	event := events.NewChangeEvent(eventType, string(audit.EntityAssignment), a.ID, keys)
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "assignment change subscribers failed",
			"event_type", eventType,
			"assignment_id", a.ID,
			"error", err)
	}
	return outcome
}

func (s *Service) logFailure(ctx context.Context, op string, err error, kv ...any) {
	args := append([]any{"operation", op, "error", err}, kv...)
	if appErr, ok := internal.IsAppError(err); ok {
		switch appErr.Type {
		case internal.ErrorTypeInternal, internal.ErrorTypeExternal:
		default:
			s.logger.WarnContext(ctx, "assignment operation rejected", args...)
			return
		}
	}
	s.logger.ErrorContext(ctx, "assignment operation failed", args...)
}

func notAssignable(asset *AssetState) error {
	return internal.ErrAssetNotAssignable.WithDetails(map[string]interface{}{
		"asset_id": asset.ID,
		"status":   asset.Status,
	})
}

func assetStatusEntry(ctx context.Context, at time.Time, assetID string, from, to enums.AssetStatus) audit.Entry {
	return audit.NewEntry(ctx, at, audit.ActionUpdate, audit.EntityAsset, assetID,
		map[string]interface{}{"status": from},
		map[string]interface{}{"status": to})
}

// lockPair locks two asset rows in id order so concurrent replacements
// touching the same pair cannot deadlock.
func lockPair(ctx context.Context, tx TxRepository, oldID, newID string) (*AssetState, *AssetState, error) {
	firstID, secondID := oldID, newID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := tx.LockAsset(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := tx.LockAsset(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}
	if first.ID == oldID {
		return first, second, nil
	}
	return second, first, nil
}
