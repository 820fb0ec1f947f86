package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// TrailingWindowMonths is the reporting window: the current month and the five before it.
const TrailingWindowMonths = 6

// SummaryPolicy holds the schedule values a monthly summary is computed against.
type SummaryPolicy struct {
	BreakMinutes   int           // used when a day has no recorded break
	StartTime      time.Duration // scheduled start as an offset from midnight
	ThresholdHours int
	Location       *time.Location
}

// DefaultSummaryPolicy is a 09:00 start with a 60 minute break and an 8 hour day.
func DefaultSummaryPolicy() SummaryPolicy {
	return SummaryPolicy{
		BreakMinutes:   60,
		StartTime:      9 * time.Hour,
		ThresholdHours: DefaultOvertimeThresholdHours,
		Location:       time.UTC,
	}
}

// ParseStartTime reads "15:04" or "15:04:05" into an offset from midnight.
func ParseStartTime(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid start time %q", s)
}

// MonthlySummary totals the records of one employee that fall in ym. Records
// outside ym, records of other employees and incomplete shifts contribute
// nothing.
func MonthlySummary(employeeID string, ym attendance.YearMonth, records []attendance.Record, policy SummaryPolicy) attendance.MonthlyAttendanceSummary {
	loc := policy.Location
	if loc == nil {
		loc = time.UTC
	}

	summary := attendance.MonthlyAttendanceSummary{
		EmployeeID:     employeeID,
		Month:          ym,
		TotalHours:     decimal.Zero,
		OvertimeHours:  decimal.Zero,
		PaidLeaveHours: decimal.Zero,
	}

	for _, r := range records {
		if r.EmployeeID != employeeID || !ym.Contains(r.Date) || !r.HasShift() {
			continue
		}

		day := dailyResult(r, policy, loc)
		summary.TotalHours = summary.TotalHours.Add(day.Hours)
		summary.OvertimeHours = summary.OvertimeHours.Add(day.OvertimeHours)
		if day.Late {
			summary.LateCount++
		}
		summary.Days = append(summary.Days, day)
	}

	return summary
}

func dailyResult(r attendance.Record, policy SummaryPolicy, loc *time.Location) attendance.DailyResult {
	worked := WorkedMinutes(r.InTime, r.OutTime)

	breakMinutes, ok := BreakMinutes(r.BreakStartTime, r.BreakEndTime)
	if !ok {
		breakMinutes = policy.BreakMinutes
	}

	return attendance.DailyResult{
		Date:          r.Date,
		WorkedMinutes: worked,
		BreakMinutes:  breakMinutes,
		Hours:         ActualWorkedHours(worked, breakMinutes),
		OvertimeHours: DailyOvertimeHours(worked, breakMinutes, policy.ThresholdHours),
		Late:          sinceMidnight(r.InTime.In(loc)) > policy.StartTime,
	}
}

// sinceMidnight reads the wall clock, so DST transitions do not shift it.
func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
