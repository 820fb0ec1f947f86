package correction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/employee"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/database"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/validator"
	attendancesvc "github.com/cmlabs-hris/stamp-correction/internal/service/attendance"
)

// Config holds the workflow settings loaded from the environment.
type Config struct {
	Location        *time.Location // wall-clock times in requests are read here
	BulkMaxIDs      int
	BulkConcurrency int
	BulkItemTimeout time.Duration
}

type WorkflowServiceImpl struct {
	txRunner  database.TxRunner
	requests  correction.Repository
	records   attendance.RecordRepository
	employees employee.EmployeeRepository
	notifier  correction.Notifier
	cfg       Config
	now       func() time.Time
}

// Submit implements correction.WorkflowService.
func (s *WorkflowServiceImpl) Submit(ctx context.Context, actor auth.Actor, req correction.SubmitRequest) (correction.RequestResponse, error) {
	if err := actor.Authenticated(); err != nil {
		return correction.RequestResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return correction.RequestResponse{}, err
	}

	target, current, err := s.resolveTarget(ctx, actor, req)
	if err != nil {
		return correction.RequestResponse{}, err
	}

	requested, err := s.parseRequestedValues(target.Date, req)
	if err != nil {
		return correction.RequestResponse{}, err
	}

	var original attendance.Values
	if current != nil {
		original = current.Values()
	}

	// Pre-flight check for a readable error; the partial unique indexes are the real guard
	pending, err := s.requests.FindPendingFor(ctx, actor.EmployeeID, target)
	if err != nil {
		return correction.RequestResponse{}, fmt.Errorf("failed to check pending correction requests: %w", err)
	}
	if pending != nil {
		return correction.RequestResponse{}, correction.ErrDuplicatePending
	}

	created, err := s.requests.Insert(ctx, correction.Request{
		EmployeeID: actor.EmployeeID,
		RecordID:   target.RecordID,
		Date:       target.Date,
		Status:     correction.StatusPending,
		Original:   original,
		Requested:  requested,
		Reason:     strings.TrimSpace(req.Reason),
		CreatedAt:  s.now(),
	})
	if err != nil {
		if errors.Is(err, correction.ErrConflict) {
			return correction.RequestResponse{}, fmt.Errorf("%w: %w", correction.ErrDuplicatePending, err)
		}
		return correction.RequestResponse{}, err
	}

	slog.Info("Correction request submitted",
		"request_id", created.ID,
		"employee_id", created.EmployeeID,
		"stamp_date", created.Date.Format("2006-01-02"),
		"status", created.Status,
	)

	return s.respond(ctx, created), nil
}

// resolveTarget binds the request to a stamp when one exists, so a date-only
// submission cannot sidestep the per-stamp pending index.
func (s *WorkflowServiceImpl) resolveTarget(ctx context.Context, actor auth.Actor, req correction.SubmitRequest) (correction.Target, *attendance.Record, error) {
	loc := s.cfg.Location

	var date time.Time
	if req.Date != nil && !validator.IsEmpty(*req.Date) {
		parsed, _ := validator.IsValidDate(*req.Date)
		date = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc)
	}

	if req.RecordID != nil && !validator.IsEmpty(*req.RecordID) {
		rec, err := s.records.GetByID(ctx, *req.RecordID)
		if err != nil {
			return correction.Target{}, nil, err
		}
		if rec.EmployeeID != actor.EmployeeID {
			return correction.Target{}, nil, auth.ErrForbidden
		}

		recDate := time.Date(rec.Date.Year(), rec.Date.Month(), rec.Date.Day(), 0, 0, 0, 0, loc)
		if !date.IsZero() && !date.Equal(recDate) {
			return correction.Target{}, nil, validator.ValidationErrors{{
				Field:   "stamp_date",
				Message: "stamp_date does not match the stamp's date",
			}}
		}
		return correction.Target{RecordID: &rec.ID, Date: recDate}, &rec, nil
	}

	if date.After(s.today()) {
		return correction.Target{}, nil, validator.ValidationErrors{{
			Field:   "stamp_date",
			Message: "stamp_date must not be in the future",
		}}
	}

	rec, err := s.records.GetByEmployeeAndDate(ctx, actor.EmployeeID, date)
	if err != nil {
		return correction.Target{}, nil, fmt.Errorf("failed to look up stamp for %s: %w", date.Format("2006-01-02"), err)
	}
	if rec != nil {
		return correction.Target{RecordID: &rec.ID, Date: date}, rec, nil
	}
	return correction.Target{Date: date}, nil, nil
}

func (s *WorkflowServiceImpl) parseRequestedValues(date time.Time, req correction.SubmitRequest) (attendance.Values, error) {
	var errs validator.ValidationErrors

	parse := func(field string, value *string) *time.Time {
		if value == nil || validator.IsEmpty(*value) {
			return nil
		}
		t, ok := validator.ParseClock(date, *value, s.cfg.Location)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must be HH:MM, HH:MM:SS or an RFC3339 timestamp",
			})
			return nil
		}
		return &t
	}

	values := attendance.Values{
		InTime:         parse("in_time", req.InTime),
		OutTime:        parse("out_time", req.OutTime),
		BreakStartTime: parse("break_start_time", req.BreakStartTime),
		BreakEndTime:   parse("break_end_time", req.BreakEndTime),
		IsNightShift:   req.IsNightShift,
	}

	if values.BreakStartTime != nil && values.BreakEndTime != nil && values.BreakEndTime.Before(*values.BreakStartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_end_time",
			Message: "break_end_time must not be before break_start_time",
		})
	}

	if len(errs) > 0 {
		return attendance.Values{}, errs
	}
	return values, nil
}

// Approve implements correction.WorkflowService.
func (s *WorkflowServiceImpl) Approve(ctx context.Context, actor auth.Actor, req correction.ApproveRequest) (correction.RequestResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return correction.RequestResponse{}, err
	}

	decided, err := s.approve(ctx, actor, req.ID, normalizeNote(req.Note))
	if err != nil {
		return correction.RequestResponse{}, err
	}

	s.notify(decided)
	return s.respond(ctx, decided), nil
}

func (s *WorkflowServiceImpl) approve(ctx context.Context, actor auth.Actor, id int64, note *string) (correction.Request, error) {
	var decided correction.Request

	err := s.txRunner.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.requests.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(correction.StatusApproved) {
			return fmt.Errorf("%w: request %d is %s", correction.ErrInvalidState, id, current.Status)
		}

		now := s.now()
		if err := s.applyToRecord(ctx, current, actor.EmployeeID, now); err != nil {
			return err
		}

		decided, err = s.requests.UpdateStatus(ctx, id, current.Status, correction.Decision{
			Status:  correction.StatusApproved,
			Note:    note,
			ActorID: &actor.EmployeeID,
			At:      now,
		})
		return err
	})
	if err != nil {
		return correction.Request{}, err
	}

	logTransition(decided, actor, correction.StatusPending)
	return decided, nil
}

// applyToRecord writes the requested values onto the target stamp, creating it
// when the employee had none for that date. Requested fields left empty keep
// the stamp's current value.
func (s *WorkflowServiceImpl) applyToRecord(ctx context.Context, req correction.Request, approverID string, now time.Time) error {
	var rec attendance.Record
	exists := false

	if req.RecordID != nil {
		found, err := s.records.GetByID(ctx, *req.RecordID)
		if err != nil {
			return err
		}
		rec, exists = found, true
	} else {
		found, err := s.records.GetByEmployeeAndDate(ctx, req.EmployeeID, req.Date)
		if err != nil {
			return fmt.Errorf("failed to look up stamp for %s: %w", req.Date.Format("2006-01-02"), err)
		}
		if found != nil {
			rec, exists = *found, true
		} else {
			rec = attendance.Record{EmployeeID: req.EmployeeID, Date: req.Date}
		}
	}

	values := mergeValues(rec.Values(), req.Requested)
	values.OutTime = attendancesvc.AdjustOutTime(values.InTime, values.OutTime)
	rec.Apply(values)
	rec.UpdateEmployee = &approverID
	rec.UpdateDate = &now

	if exists {
		if err := s.records.Update(ctx, rec); err != nil {
			return err
		}
		return nil
	}
	if _, err := s.records.Create(ctx, rec); err != nil {
		return err
	}
	return nil
}

func mergeValues(current, requested attendance.Values) attendance.Values {
	merged := current
	if requested.InTime != nil {
		merged.InTime = requested.InTime
	}
	if requested.OutTime != nil {
		merged.OutTime = requested.OutTime
	}
	if requested.BreakStartTime != nil {
		merged.BreakStartTime = requested.BreakStartTime
	}
	if requested.BreakEndTime != nil {
		merged.BreakEndTime = requested.BreakEndTime
	}
	if requested.IsNightShift != nil {
		merged.IsNightShift = requested.IsNightShift
	}
	return merged
}

// Reject implements correction.WorkflowService.
func (s *WorkflowServiceImpl) Reject(ctx context.Context, actor auth.Actor, req correction.RejectRequest) (correction.RequestResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return correction.RequestResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return correction.RequestResponse{}, err
	}

	decided, err := s.reject(ctx, actor, req.ID, strings.TrimSpace(req.Reason))
	if err != nil {
		return correction.RequestResponse{}, err
	}

	s.notify(decided)
	return s.respond(ctx, decided), nil
}

func (s *WorkflowServiceImpl) reject(ctx context.Context, actor auth.Actor, id int64, reason string) (correction.Request, error) {
	current, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return correction.Request{}, err
	}
	if !current.Status.CanTransition(correction.StatusRejected) {
		return correction.Request{}, fmt.Errorf("%w: request %d is %s", correction.ErrInvalidState, id, current.Status)
	}

	decided, err := s.requests.UpdateStatus(ctx, id, current.Status, correction.Decision{
		Status:  correction.StatusRejected,
		Note:    &reason,
		ActorID: &actor.EmployeeID,
		At:      s.now(),
	})
	if err != nil {
		return correction.Request{}, err
	}

	logTransition(decided, actor, current.Status)
	return decided, nil
}

// Cancel implements correction.WorkflowService.
func (s *WorkflowServiceImpl) Cancel(ctx context.Context, actor auth.Actor, req correction.CancelRequest) (correction.RequestResponse, error) {
	if err := actor.Authenticated(); err != nil {
		return correction.RequestResponse{}, err
	}

	current, err := s.requests.FindByID(ctx, req.ID)
	if err != nil {
		return correction.RequestResponse{}, err
	}
	if current.EmployeeID != actor.EmployeeID {
		return correction.RequestResponse{}, auth.ErrForbidden
	}
	if !current.Status.CanTransition(correction.StatusCancelled) {
		return correction.RequestResponse{}, fmt.Errorf("%w: request %d is %s", correction.ErrInvalidState, req.ID, current.Status)
	}

	decided, err := s.requests.UpdateStatus(ctx, req.ID, current.Status, correction.Decision{
		Status: correction.StatusCancelled,
		Note:   normalizeNote(req.Reason),
		At:     s.now(),
	})
	if err != nil {
		return correction.RequestResponse{}, err
	}

	logTransition(decided, actor, current.Status)
	s.notify(decided)
	return s.respond(ctx, decided), nil
}

func (s *WorkflowServiceImpl) notify(req correction.Request) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyDecision(req.EmployeeID, correction.DecisionEvent{
		RequestID: req.ID,
		Status:    req.Status.String(),
		Date:      req.Date.Format("2006-01-02"),
		DecidedAt: req.UpdatedAt,
	})
}

// respond resolves display names for a request that has already been written.
// A directory failure degrades to empty names instead of failing the call.
func (s *WorkflowServiceImpl) respond(ctx context.Context, req correction.Request) correction.RequestResponse {
	names, err := s.employees.GetNames(ctx, correction.EmployeeIDs(req))
	if err != nil {
		slog.Warn("Failed to resolve employee names", "request_id", req.ID, "error", err)
	}
	return correction.ToResponse(req, names)
}

func (s *WorkflowServiceImpl) today() time.Time {
	now := s.now().In(s.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func logTransition(req correction.Request, actor auth.Actor, from correction.Status) {
	slog.Info("Correction request status changed",
		"request_id", req.ID,
		"employee_id", req.EmployeeID,
		"actor_id", actor.EmployeeID,
		"from", from,
		"to", req.Status,
	)
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func NewWorkflowService(
	txRunner database.TxRunner,
	requestRepo correction.Repository,
	recordRepo attendance.RecordRepository,
	employeeRepo employee.EmployeeRepository,
	notifier correction.Notifier,
	cfg Config,
) correction.WorkflowService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BulkMaxIDs <= 0 {
		cfg.BulkMaxIDs = 100
	}
	if cfg.BulkConcurrency <= 0 {
		cfg.BulkConcurrency = 4
	}
	if cfg.BulkItemTimeout <= 0 {
		cfg.BulkItemTimeout = 5 * time.Second
	}
	return &WorkflowServiceImpl{
		txRunner:  txRunner,
		requests:  requestRepo,
		records:   recordRepo,
		employees: employeeRepo,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}
