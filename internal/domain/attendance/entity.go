package attendance

import (
	"time"
)

// Record is one employee's stamp for one calendar date (stamp_history).
type Record struct {
	ID             string
	EmployeeID     string
	Date           time.Time
	InTime         *time.Time
	OutTime        *time.Time
	BreakStartTime *time.Time
	BreakEndTime   *time.Time
	IsNightShift   *bool // nil when unknown
	UpdateEmployee *string
	UpdateDate     *time.Time
	CreatedAt      time.Time
}

// HasShift reports whether both ends of the shift were stamped.
func (r Record) HasShift() bool {
	return r.InTime != nil && r.OutTime != nil
}

// Values are the correctable fields of a Record.
type Values struct {
	InTime         *time.Time
	OutTime        *time.Time
	BreakStartTime *time.Time
	BreakEndTime   *time.Time
	IsNightShift   *bool
}

// Values returns the correctable fields of the record.
func (r Record) Values() Values {
	return Values{
		InTime:         r.InTime,
		OutTime:        r.OutTime,
		BreakStartTime: r.BreakStartTime,
		BreakEndTime:   r.BreakEndTime,
		IsNightShift:   r.IsNightShift,
	}
}

// Apply overwrites the correctable fields with v.
func (r *Record) Apply(v Values) {
	r.InTime = v.InTime
	r.OutTime = v.OutTime
	r.BreakStartTime = v.BreakStartTime
	r.BreakEndTime = v.BreakEndTime
	r.IsNightShift = v.IsNightShift
}
