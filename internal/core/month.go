package core

import (
	"fmt"
	"regexp"
	"time"
)

// SalaryMaxDay caps the salary day-of-month. Clamping to 28 sidesteps the
// Feb 30/31 ambiguity entirely, so a saved day of 31 always lands on 28.
const SalaryMaxDay = 28

var monthKeyRe = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}$`)

// MonthKey identifies a calendar month as "YYYY-MM". It keys idempotent
// instance generation and budget documents.
type MonthKey string

// NewMonthKey builds a zero-padded key from year and month.
func NewMonthKey(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthKeyOf returns the key for the month containing t (in UTC).
func MonthKeyOf(t time.Time) MonthKey {
	u := t.UTC()
	return NewMonthKey(u.Year(), int(u.Month()))
}

// ParseMonthKey validates a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	if !monthKeyRe.MatchString(s) {
		return "", Validationf("month must be YYYY-MM")
	}
	k := MonthKey(s)
	_, m := k.YearMonth()
	if m < 1 || m > 12 {
		return "", Validationf("month must be YYYY-MM")
	}
	return k, nil
}

func (k MonthKey) String() string { return string(k) }

// YearMonth splits the key into its numeric parts.
func (k MonthKey) YearMonth() (year, month int) {
	fmt.Sscanf(string(k), "%04d-%02d", &year, &month)
	return year, month
}

// Bounds returns the half-open UTC interval [start, end) covering the month.
func (k MonthKey) Bounds() (start, end time.Time) {
	y, m := k.YearMonth()
	start = time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// Days returns the number of days in the month.
func (k MonthKey) Days() int {
	y, m := k.YearMonth()
	return DaysInMonth(y, m)
}

// DaysInMonth returns the length of a month, leap years included.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay constrains a day to this month, clamping down at month end.
func (k MonthKey) ClampDay(day int) int {
	y, m := k.YearMonth()
	return ClampDay(day, y, m)
}

// MiddayUTC returns 12:00 UTC on the given day of this month.
func (k MonthKey) MiddayUTC(day int) time.Time {
	y, m := k.YearMonth()
	return MiddayUTC(y, m, day)
}

// ClampDay constrains a day-of-month to what the month actually has:
// clamp down, never roll over into the next month. A template day of 31
// materializes on Feb 28 (29 in leap years) and on Apr 30.
func ClampDay(day, year, month int) int {
	if day < 1 {
		return 1
	}
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// ClampSalaryDay constrains a salary day to [1, SalaryMaxDay] regardless
// of month length.
func ClampSalaryDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > SalaryMaxDay {
		return SalaryMaxDay
	}
	return day
}

// MiddayUTC returns 12:00 UTC on the given day. Materialized instances are
// pinned to midday so timezone conversion at render time cannot shift the
// calendar date.
func MiddayUTC(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}
