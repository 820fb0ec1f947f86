package correction

import "errors"

var (
	ErrRequestNotFound  = errors.New("correction request not found")
	ErrInvalidState     = errors.New("correction request is no longer pending")
	ErrDuplicatePending = errors.New("a pending correction request already exists for this attendance")

	// ErrConflict is returned by the store when a pending-uniqueness index rejects a write.
	ErrConflict = errors.New("correction request conflicts with an existing pending request")
)
