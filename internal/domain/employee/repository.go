package employee

import "context"

// EmployeeRepository is the directory lookup used by attendance and correction reads.
type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when no row matches.
	GetByID(ctx context.Context, id string) (Employee, error)

	// GetNames resolves display names in one round-trip. Unknown ids are absent from the map.
	GetNames(ctx context.Context, ids []string) (map[string]string, error)
}
