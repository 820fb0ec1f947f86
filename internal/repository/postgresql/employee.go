package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/employee"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, full_name, is_admin,
			to_char(schedule_start_time, 'HH24:MI'), schedule_break_minutes,
			created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var found employee.Employee
	err := q.QueryRow(ctx, query, id).
		Scan(
			&found.ID, &found.FullName, &found.IsAdmin,
			&found.ScheduleStartTime, &found.ScheduleBreakMinutes,
			&found.CreatedAt, &found.UpdatedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}

	return found, nil
}

// GetNames implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, `SELECT id, full_name FROM employees WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan employee name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee names: %w", err)
	}

	return names, nil
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}
