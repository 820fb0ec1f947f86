package correction

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"golang.org/x/sync/errgroup"
)

var errDuplicateID = errors.New("id appears more than once in this batch")

// BulkApprove implements correction.WorkflowService.
func (s *WorkflowServiceImpl) BulkApprove(ctx context.Context, actor auth.Actor, req correction.BulkApproveRequest) (correction.BulkResult, error) {
	if err := actor.RequireAdmin(); err != nil {
		return correction.BulkResult{}, err
	}
	if err := req.Validate(s.cfg.BulkMaxIDs); err != nil {
		return correction.BulkResult{}, err
	}

	note := normalizeNote(req.Note)
	result := s.runBulk(ctx, req.IDs, func(ctx context.Context, id int64) (correction.Request, error) {
		return s.approve(ctx, actor, id, note)
	})

	slog.Info("Bulk approve finished",
		"actor_id", actor.EmployeeID,
		"requested", len(req.IDs),
		"succeeded", result.SuccessCount,
		"failed", result.FailureCount,
	)
	return result, nil
}

// BulkReject implements correction.WorkflowService.
func (s *WorkflowServiceImpl) BulkReject(ctx context.Context, actor auth.Actor, req correction.BulkRejectRequest) (correction.BulkResult, error) {
	if err := actor.RequireAdmin(); err != nil {
		return correction.BulkResult{}, err
	}
	if err := req.Validate(s.cfg.BulkMaxIDs); err != nil {
		return correction.BulkResult{}, err
	}

	reason := strings.TrimSpace(req.Reason)
	result := s.runBulk(ctx, req.IDs, func(ctx context.Context, id int64) (correction.Request, error) {
		return s.reject(ctx, actor, id, reason)
	})

	slog.Info("Bulk reject finished",
		"actor_id", actor.EmployeeID,
		"requested", len(req.IDs),
		"succeeded", result.SuccessCount,
		"failed", result.FailureCount,
	)
	return result, nil
}

// runBulk decides every id independently. Each id gets its own deadline and,
// through decide, its own transaction. One failure never stops the others.
func (s *WorkflowServiceImpl) runBulk(ctx context.Context, ids []int64, decide func(ctx context.Context, id int64) (correction.Request, error)) correction.BulkResult {
	errs := make([]error, len(ids))
	seen := make(map[int64]struct{}, len(ids))

	var g errgroup.Group
	g.SetLimit(s.cfg.BulkConcurrency)

	for i, id := range ids {
		if _, dup := seen[id]; dup {
			errs[i] = errDuplicateID
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(ctx, s.cfg.BulkItemTimeout)
			defer cancel()

			decided, err := decide(itemCtx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			s.notify(decided)
			return nil
		})
	}
	_ = g.Wait()

	result := correction.BulkResult{Failures: []correction.BulkFailure{}}
	for i, err := range errs {
		if err == nil {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		result.Failures = append(result.Failures, correction.BulkFailure{
			ID:     ids[i],
			Reason: failureReason(ids[i], err),
		})
	}
	return result
}

func failureReason(id int64, err error) string {
	switch {
	case errors.Is(err, errDuplicateID):
		return errDuplicateID.Error()
	case errors.Is(err, correction.ErrRequestNotFound):
		return correction.ErrRequestNotFound.Error()
	case errors.Is(err, correction.ErrInvalidState):
		return correction.ErrInvalidState.Error()
	case errors.Is(err, attendance.ErrRecordNotFound):
		return attendance.ErrRecordNotFound.Error()
	case errors.Is(err, attendance.ErrRecordExists):
		return attendance.ErrRecordExists.Error()
	case errors.Is(err, context.DeadlineExceeded):
		slog.Warn("Bulk item timed out", "request_id", id, "error", err)
		return "timed out"
	case errors.Is(err, context.Canceled):
		slog.Warn("Bulk item cancelled", "request_id", id, "error", err)
		return "cancelled"
	default:
		slog.Error("Bulk item failed", "request_id", id, "error", err)
		return "internal error"
	}
}
