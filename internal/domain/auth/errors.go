package auth

import "errors"

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrUnauthenticated = errors.New("authentication required")
	ErrAdminRequired   = errors.New("admin privilege required")
	ErrForbidden       = errors.New("you are not allowed to access this resource")
)
