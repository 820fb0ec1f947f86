package attendance

import "github.com/cmlabs-hris/stamp-correction/internal/pkg/validator"

type SummaryRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	// Employee ID is optional, the caller's own id is used when empty
	if !validator.IsEmpty(r.EmployeeID) && !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MonthlySummaryResponse struct {
	Month          string `json:"month"` // YYYY-MM
	TotalHours     string `json:"total_hours"`
	OvertimeHours  string `json:"overtime_hours"`
	LateCount      int    `json:"late_count"`
	PaidLeaveHours string `json:"paid_leave_hours"`
}

type SummaryResponse struct {
	EmployeeID   string                   `json:"employee_id"`
	EmployeeName string                   `json:"employee_name"`
	Months       []MonthlySummaryResponse `json:"months"`
}

// ToMonthlySummaryResponse maps a summary to its wire form.
func ToMonthlySummaryResponse(s MonthlyAttendanceSummary) MonthlySummaryResponse {
	return MonthlySummaryResponse{
		Month:          s.Month.String(),
		TotalHours:     s.TotalHours.String(),
		OvertimeHours:  s.OvertimeHours.String(),
		LateCount:      s.LateCount,
		PaidLeaveHours: s.PaidLeaveHours.String(),
	}
}
