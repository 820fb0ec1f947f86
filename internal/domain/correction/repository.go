package correction

import (
	"context"
)

// Repository owns the persisted state of stamp_request.
type Repository interface {
	// Insert returns ErrConflict when a pending-uniqueness index rejects the row.
	Insert(ctx context.Context, request Request) (Request, error)

	// FindByID returns ErrRequestNotFound when no row matches.
	FindByID(ctx context.Context, id int64) (Request, error)

	// FindByIDForUpdate is FindByID with a row lock held until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (Request, error)

	// FindPendingFor returns nil, nil when the target has no pending request.
	// A record target also matches a pending date-only request on its date.
	FindPendingFor(ctx context.Context, employeeID string, target Target) (*Request, error)

	// UpdateStatus writes d only while the row is still in status from.
	// Returns ErrRequestNotFound for an unknown id and ErrInvalidState when the
	// row has already left from.
	UpdateStatus(ctx context.Context, id int64, from Status, d Decision) (Request, error)

	ListByEmployee(ctx context.Context, employeeID string, filter MyRequestFilter) ([]Request, int64, error)
	ListPending(ctx context.Context, filter PendingRequestFilter) ([]Request, int64, error)
	CountByEmployee(ctx context.Context, employeeID string, status *Status) (int64, error)
	CountPending(ctx context.Context) (int64, error)

	Delete(ctx context.Context, id int64) (bool, error)
}
