package employee

import "time"

type Employee struct {
	ID       string
	FullName string
	IsAdmin  bool

	// Schedule overrides, nil falls back to the configured defaults
	ScheduleStartTime    *string // HH:MM
	ScheduleBreakMinutes *int

	CreatedAt time.Time
	UpdatedAt time.Time
}
