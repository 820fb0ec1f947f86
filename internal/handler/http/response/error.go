package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/employee"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrUnauthenticated):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrAdminRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, auth.ErrForbidden):
		Forbidden(w, "You do not have access to this resource")

	// Correction domain errors
	case errors.Is(err, correction.ErrRequestNotFound):
		NotFound(w, "Correction request not found")
	case errors.Is(err, correction.ErrDuplicatePending):
		Conflict(w, "A pending correction request already exists for this attendance")
	case errors.Is(err, correction.ErrConflict):
		Conflict(w, "Correction request conflicts with an existing pending request")
	case errors.Is(err, correction.ErrInvalidState):
		Conflict(w, "Correction request has already been processed")

	// Attendance and directory errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrRecordExists):
		Conflict(w, "Attendance record already exists for this date")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
