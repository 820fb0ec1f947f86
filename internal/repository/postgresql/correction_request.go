package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type correctionRequestRepositoryImpl struct {
	db *database.DB
}

const correctionRequestColumns = `
	sr.id, sr.employee_id, sr.stamp_history_id, sr.stamp_date, sr.status,
	sr.original_in_time, sr.original_out_time, sr.original_break_start_time, sr.original_break_end_time, sr.original_is_night_shift,
	sr.requested_in_time, sr.requested_out_time, sr.requested_break_start_time, sr.requested_break_end_time, sr.requested_is_night_shift,
	sr.reason, sr.approval_note, sr.rejection_reason, sr.cancellation_reason,
	sr.approval_employee_id, sr.rejection_employee_id,
	sr.created_at, sr.updated_at, sr.approved_at, sr.rejected_at, sr.cancelled_at`

func scanCorrectionRequest(row pgx.Row) (correction.Request, error) {
	var req correction.Request
	var status string
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.RecordID, &req.Date, &status,
		&req.Original.InTime, &req.Original.OutTime, &req.Original.BreakStartTime, &req.Original.BreakEndTime, &req.Original.IsNightShift,
		&req.Requested.InTime, &req.Requested.OutTime, &req.Requested.BreakStartTime, &req.Requested.BreakEndTime, &req.Requested.IsNightShift,
		&req.Reason, &req.ApprovalNote, &req.RejectionReason, &req.CancellationReason,
		&req.ApprovalEmployeeID, &req.RejectionEmployeeID,
		&req.CreatedAt, &req.UpdatedAt, &req.ApprovedAt, &req.RejectedAt, &req.CancelledAt,
	)
	if err != nil {
		return correction.Request{}, err
	}

	req.Status, err = correction.ParseStatus(status)
	if err != nil {
		return correction.Request{}, err
	}
	return req, nil
}

func scanCorrectionRequests(rows pgx.Rows) ([]correction.Request, error) {
	defer rows.Close()

	var requests []correction.Request
	for rows.Next() {
		req, err := scanCorrectionRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate correction requests: %w", err)
	}
	return requests, nil
}

// Insert implements correction.Repository.
func (r *correctionRequestRepositoryImpl) Insert(ctx context.Context, request correction.Request) (correction.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO stamp_request (
			employee_id, stamp_history_id, stamp_date, status,
			original_in_time, original_out_time, original_break_start_time, original_break_end_time, original_is_night_shift,
			requested_in_time, requested_out_time, requested_break_start_time, requested_break_end_time, requested_is_night_shift,
			reason, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, COALESCE($16, NOW()), COALESCE($16, NOW())
		) RETURNING id, created_at, updated_at
	`

	var createdAt any
	if !request.CreatedAt.IsZero() {
		createdAt = request.CreatedAt
	}

	err := q.QueryRow(ctx, query,
		request.EmployeeID, request.RecordID, request.Date, string(request.Status),
		request.Original.InTime, request.Original.OutTime, request.Original.BreakStartTime, request.Original.BreakEndTime, request.Original.IsNightShift,
		request.Requested.InTime, request.Requested.OutTime, request.Requested.BreakStartTime, request.Requested.BreakEndTime, request.Requested.IsNightShift,
		request.Reason, createdAt,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return correction.Request{}, fmt.Errorf("%w: %w", correction.ErrConflict, err)
		}
		return correction.Request{}, fmt.Errorf("failed to insert correction request: %w", err)
	}

	return request, nil
}

// FindByID implements correction.Repository.
func (r *correctionRequestRepositoryImpl) FindByID(ctx context.Context, id int64) (correction.Request, error) {
	return r.findByID(ctx, id, "")
}

// FindByIDForUpdate implements correction.Repository.
func (r *correctionRequestRepositoryImpl) FindByIDForUpdate(ctx context.Context, id int64) (correction.Request, error) {
	return r.findByID(ctx, id, "FOR UPDATE")
}

func (r *correctionRequestRepositoryImpl) findByID(ctx context.Context, id int64, lock string) (correction.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM stamp_request sr
		WHERE sr.id = $1
		%s
	`, correctionRequestColumns, lock)

	req, err := scanCorrectionRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return correction.Request{}, correction.ErrRequestNotFound
		}
		return correction.Request{}, fmt.Errorf("failed to get correction request %d: %w", id, err)
	}
	return req, nil
}

// FindPendingFor implements correction.Repository.
func (r *correctionRequestRepositoryImpl) FindPendingFor(ctx context.Context, employeeID string, target correction.Target) (*correction.Request, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE sr.employee_id = $1 AND sr.status = 'PENDING'"
	args := []interface{}{employeeID}
	if target.RecordID != nil {
		// A date-only request filed before the stamp existed still covers it
		whereClause += " AND (sr.stamp_history_id = $2 OR (sr.stamp_history_id IS NULL AND sr.stamp_date = $3))"
		args = append(args, *target.RecordID, target.Date)
	} else {
		whereClause += " AND sr.stamp_history_id IS NULL AND sr.stamp_date = $2"
		args = append(args, target.Date)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM stamp_request sr
		%s
		LIMIT 1
	`, correctionRequestColumns, whereClause)

	req, err := scanCorrectionRequest(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending correction request: %w", err)
	}
	return &req, nil
}

// UpdateStatus implements correction.Repository.
func (r *correctionRequestRepositoryImpl) UpdateStatus(ctx context.Context, id int64, from correction.Status, d correction.Decision) (correction.Request, error) {
	q := GetQuerier(ctx, r.db)

	var setClause string
	args := []interface{}{id, string(from), string(d.Status), d.At}
	switch d.Status {
	case correction.StatusApproved:
		setClause = "approval_note = $5, approval_employee_id = $6, approved_at = $4"
		args = append(args, d.Note, d.ActorID)
	case correction.StatusRejected:
		setClause = "rejection_reason = $5, rejection_employee_id = $6, rejected_at = $4"
		args = append(args, d.Note, d.ActorID)
	case correction.StatusCancelled:
		setClause = "cancellation_reason = $5, cancelled_at = $4"
		args = append(args, d.Note)
	case correction.StatusPending:
		return correction.Request{}, fmt.Errorf("%w: cannot move a request back to %s", correction.ErrInvalidState, d.Status)
	}

	query := fmt.Sprintf(`
		UPDATE stamp_request sr
		SET status = $3, %s, updated_at = $4
		WHERE sr.id = $1 AND sr.status = $2
		RETURNING %s
	`, setClause, correctionRequestColumns)

	req, err := scanCorrectionRequest(q.QueryRow(ctx, query, args...))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return correction.Request{}, fmt.Errorf("failed to update correction request %d: %w", id, err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stamp_request WHERE id = $1)`, id).Scan(&exists); err != nil {
		return correction.Request{}, fmt.Errorf("failed to check correction request %d: %w", id, err)
	}
	if !exists {
		return correction.Request{}, correction.ErrRequestNotFound
	}
	return correction.Request{}, correction.ErrInvalidState
}

// ListByEmployee implements correction.Repository.
func (r *correctionRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter correction.MyRequestFilter) ([]correction.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	whereClause := "WHERE sr.employee_id = $1"
	args := []interface{}{employeeID}
	argIndex := 2

	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND sr.status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	// Count total
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM stamp_request sr %s
	`, whereClause)

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count correction requests: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT %s
		FROM stamp_request sr
		%s
		ORDER BY sr.created_at DESC, sr.id DESC
		LIMIT $%d OFFSET $%d
	`, correctionRequestColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list correction requests: %w", err)
	}

	requests, err := scanCorrectionRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ListPending implements correction.Repository.
func (r *correctionRequestRepositoryImpl) ListPending(ctx context.Context, filter correction.PendingRequestFilter) ([]correction.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND sr.status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Search != nil {
		whereClause += fmt.Sprintf(
			" AND (sr.reason ILIKE $%d ESCAPE '\\' OR e.full_name ILIKE $%d ESCAPE '\\' OR CAST(sr.id AS TEXT) = $%d)",
			argIndex, argIndex, argIndex+1,
		)
		args = append(args, containsPattern(*filter.Search), *filter.Search)
		argIndex += 2
	}

	var orderBy string
	switch filter.Sort {
	case correction.SortOldest:
		orderBy = "sr.created_at ASC, sr.id ASC"
	case correction.SortStatus:
		orderBy = "sr.status ASC, sr.created_at DESC, sr.id DESC"
	default:
		orderBy = "sr.created_at DESC, sr.id DESC"
	}

	// Count total
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM stamp_request sr
		JOIN employees e ON sr.employee_id = e.id
		%s
	`, whereClause)

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count correction requests: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT %s
		FROM stamp_request sr
		JOIN employees e ON sr.employee_id = e.id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, correctionRequestColumns, whereClause, orderBy, argIndex, argIndex+1)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list correction requests: %w", err)
	}

	requests, err := scanCorrectionRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// CountByEmployee implements correction.Repository.
func (r *correctionRequestRepositoryImpl) CountByEmployee(ctx context.Context, employeeID string, status *correction.Status) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT COUNT(*) FROM stamp_request WHERE employee_id = $1`
	args := []interface{}{employeeID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}

	var count int64
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count correction requests: %w", err)
	}
	return count, nil
}

// CountPending implements correction.Repository.
func (r *correctionRequestRepositoryImpl) CountPending(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM stamp_request WHERE status = 'PENDING'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending correction requests: %w", err)
	}
	return count, nil
}

// Delete implements correction.Repository.
func (r *correctionRequestRepositoryImpl) Delete(ctx context.Context, id int64) (bool, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM stamp_request WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete correction request %d: %w", id, err)
	}
	return commandTag.RowsAffected() == 1, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user text into an ILIKE pattern that matches it literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func NewCorrectionRequestRepository(db *database.DB) correction.Repository {
	return &correctionRequestRepositoryImpl{db: db}
}
