package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultOvertimeThresholdHours is the daily baseline above which hours count as overtime.
const DefaultOvertimeThresholdHours = 8

// AdjustOutTime returns the effective clock-out of a shift. A clock-out earlier
// than the clock-in belongs to the next calendar day. Equal instants stay
// unadjusted, and a nil clock-out stays nil.
func AdjustOutTime(in, out *time.Time) *time.Time {
	if in == nil || out == nil {
		return out
	}
	if in.After(*out) {
		adjusted := out.AddDate(0, 0, 1)
		return &adjusted
	}
	return out
}

// WorkedMinutes is the whole-minute length of a shift, 0 when either end is missing.
func WorkedMinutes(in, out *time.Time) int {
	if in == nil || out == nil {
		return 0
	}
	adjusted := AdjustOutTime(in, out)
	minutes := int(adjusted.Sub(*in) / time.Minute)
	if minutes < 0 {
		return 0
	}
	return minutes
}

// BreakMinutes is the recorded break length. ok is false when either end is missing.
func BreakMinutes(start, end *time.Time) (minutes int, ok bool) {
	if start == nil || end == nil {
		return 0, false
	}
	return WorkedMinutes(start, end), true
}

// ActualWorkedHours rounds the net working time up to the next whole hour.
func ActualWorkedHours(workedMinutes, breakMinutes int) decimal.Decimal {
	net := workedMinutes - breakMinutes
	if net <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64((net + 59) / 60))
}

// DailyOvertimeHours is the part of ActualWorkedHours above thresholdHours.
func DailyOvertimeHours(workedMinutes, breakMinutes, thresholdHours int) decimal.Decimal {
	overtime := ActualWorkedHours(workedMinutes, breakMinutes).Sub(decimal.NewFromInt(int64(thresholdHours)))
	if overtime.IsNegative() {
		return decimal.Zero
	}
	return overtime
}
