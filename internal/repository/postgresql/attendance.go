package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

const stampHistoryColumns = `
	id, employee_id, stamp_date, in_time, out_time, break_start_time, break_end_time,
	is_night_shift, update_employee_id, update_date, created_at`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.InTime, &rec.OutTime, &rec.BreakStartTime, &rec.BreakEndTime,
		&rec.IsNightShift, &rec.UpdateEmployee, &rec.UpdateDate, &rec.CreatedAt,
	)
	return rec, err
}

// GetByID implements attendance.RecordRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM stamp_history
		WHERE id = $1
	`, stampHistoryColumns)

	rec, err := scanRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get stamp %s: %w", id, err)
	}
	return rec, nil
}

// GetByEmployeeAndDate implements attendance.RecordRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM stamp_history
		WHERE employee_id = $1
		  AND stamp_date = $2
		LIMIT 1
	`, stampHistoryColumns)

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No stamp that day
		}
		return nil, fmt.Errorf("failed to get stamp by employee and date: %w", err)
	}
	return &rec, nil
}

// Create implements attendance.RecordRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO stamp_history (
			employee_id, stamp_date, in_time, out_time, break_start_time, break_end_time,
			is_night_shift, update_employee_id, update_date, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, NOW()
		) RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.Date, record.InTime, record.OutTime, record.BreakStartTime, record.BreakEndTime,
		record.IsNightShift, record.UpdateEmployee, record.UpdateDate,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Record{}, fmt.Errorf("%w: %w", attendance.ErrRecordExists, err)
		}
		return attendance.Record{}, fmt.Errorf("failed to create stamp: %w", err)
	}

	return record, nil
}

// Update implements attendance.RecordRepository.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE stamp_history
		SET in_time = $2, out_time = $3, break_start_time = $4, break_end_time = $5,
			is_night_shift = $6, update_employee_id = $7, update_date = $8
		WHERE id = $1
	`

	commandTag, err := q.Exec(ctx, query,
		record.ID, record.InTime, record.OutTime, record.BreakStartTime, record.BreakEndTime,
		record.IsNightShift, record.UpdateEmployee, record.UpdateDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update stamp %s: %w", record.ID, err)
	}
	if commandTag.RowsAffected() != 1 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

// ListByEmployeeRange implements attendance.RecordRepository.
func (a *attendanceRepository) ListByEmployeeRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM stamp_history
		WHERE employee_id = $1
		  AND stamp_date BETWEEN $2 AND $3
		ORDER BY stamp_date ASC
	`, stampHistoryColumns)

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list stamps: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stamp: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stamps: %w", err)
	}

	return records, nil
}

func NewAttendanceRepository(db *database.DB) attendance.RecordRepository {
	return &attendanceRepository{db: db}
}
