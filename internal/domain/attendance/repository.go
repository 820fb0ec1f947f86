package attendance

import (
	"context"
	"time"
)

// RecordRepository is the read/write surface over stamp_history.
type RecordRepository interface {
	// GetByID returns ErrRecordNotFound when no row matches.
	GetByID(ctx context.Context, id string) (Record, error)

	// GetByEmployeeAndDate returns nil, nil when the employee has no stamp that day.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	Create(ctx context.Context, record Record) (Record, error)
	Update(ctx context.Context, record Record) error

	// ListByEmployeeRange returns records with from <= date <= to, oldest first.
	ListByEmployeeRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
}
