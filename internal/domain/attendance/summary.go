package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month t falls in, read in t's location.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// First returns midnight of the first day of the month in loc.
func (ym YearMonth) First(loc *time.Location) time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, loc)
}

// Last returns midnight of the last day of the month in loc.
func (ym YearMonth) Last(loc *time.Location) time.Time {
	return ym.First(loc).AddDate(0, 1, -1)
}

// Prev returns the month before ym.
func (ym YearMonth) Prev() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Contains reports whether date falls within the month.
func (ym YearMonth) Contains(date time.Time) bool {
	return date.Year() == ym.Year && date.Month() == ym.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// TrailingMonths returns the month of now and the n-1 months before it, oldest first.
func TrailingMonths(now time.Time, n int) []YearMonth {
	if n <= 0 {
		return nil
	}
	months := make([]YearMonth, n)
	ym := YearMonthOf(now)
	for i := n - 1; i >= 0; i-- {
		months[i] = ym
		ym = ym.Prev()
	}
	return months
}

// DailyResult is one day's contribution to a monthly summary.
type DailyResult struct {
	Date          time.Time
	WorkedMinutes int
	BreakMinutes  int
	Hours         decimal.Decimal
	OvertimeHours decimal.Decimal
	Late          bool
}

// MonthlyAttendanceSummary is derived from stamp_history and never stored.
type MonthlyAttendanceSummary struct {
	EmployeeID     string
	Month          YearMonth
	TotalHours     decimal.Decimal
	OvertimeHours  decimal.Decimal
	LateCount      int
	PaidLeaveHours decimal.Decimal // always zero, leave accounting lives elsewhere
	Days           []DailyResult
}
