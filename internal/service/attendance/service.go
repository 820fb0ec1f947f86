package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/employee"
)

type SummaryServiceImpl struct {
	attendance.RecordRepository
	employee.EmployeeRepository
	defaults SummaryPolicy
}

// TrailingSummaries implements attendance.SummaryService.
func (s *SummaryServiceImpl) TrailingSummaries(ctx context.Context, actor auth.Actor, req attendance.SummaryRequest, now time.Time) (attendance.SummaryResponse, error) {
	if err := actor.Authenticated(); err != nil {
		return attendance.SummaryResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.SummaryResponse{}, err
	}

	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	if !actor.CanView(employeeID) {
		return attendance.SummaryResponse{}, auth.ErrForbidden
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.SummaryResponse{}, err
		}
		return attendance.SummaryResponse{}, fmt.Errorf("failed to get employee %s: %w", employeeID, err)
	}

	policy := s.policyFor(emp)
	months := attendance.TrailingMonths(now.In(policy.Location), TrailingWindowMonths)
	from := months[0].First(policy.Location)
	to := months[len(months)-1].Last(policy.Location)

	records, err := s.RecordRepository.ListByEmployeeRange(ctx, employeeID, from, to)
	if err != nil {
		return attendance.SummaryResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	resp := attendance.SummaryResponse{
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		Months:       make([]attendance.MonthlySummaryResponse, 0, len(months)),
	}
	for _, ym := range months {
		summary := MonthlySummary(employeeID, ym, records, policy)
		resp.Months = append(resp.Months, attendance.ToMonthlySummaryResponse(summary))
	}

	return resp, nil
}

// policyFor applies the employee's own schedule on top of the configured defaults.
func (s *SummaryServiceImpl) policyFor(emp employee.Employee) SummaryPolicy {
	policy := s.defaults
	if emp.ScheduleBreakMinutes != nil {
		policy.BreakMinutes = *emp.ScheduleBreakMinutes
	}
	if emp.ScheduleStartTime != nil {
		start, err := ParseStartTime(*emp.ScheduleStartTime)
		if err != nil {
			slog.Warn("Ignoring invalid schedule start time", "employee_id", emp.ID, "value", *emp.ScheduleStartTime)
		} else {
			policy.StartTime = start
		}
	}
	return policy
}

func NewSummaryService(
	recordRepo attendance.RecordRepository,
	employeeRepo employee.EmployeeRepository,
	defaults SummaryPolicy,
) attendance.SummaryService {
	if defaults.Location == nil {
		defaults.Location = time.UTC
	}
	return &SummaryServiceImpl{
		RecordRepository:   recordRepo,
		EmployeeRepository: employeeRepo,
		defaults:           defaults,
	}
}
