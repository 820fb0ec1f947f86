package attendance

import "errors"

// Attendance domain errors
var (
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrRecordExists   = errors.New("attendance record already exists for this date")
)
