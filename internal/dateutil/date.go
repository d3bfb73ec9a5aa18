// Package dateutil provides a pure calendar-date type and the date arithmetic
// the scheduling engine depends on. A Date carries no time-of-day and no
// timezone; conversions to instants are explicit.
package dateutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// ISO layout used for parsing and formatting dates everywhere in the app.
const dateLayout = "2006-01-02"

// Default query window around a user-selected date: one month back, two
// months forward. The asymmetry matches how the calendar UI pages.
const (
	DefaultMonthsBack    = 1
	DefaultMonthsForward = 2
)

// Date is a calendar date without time-of-day. The zero value is not a valid
// date; construct dates with New, ParseDate or Today.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date from its components. Out-of-range components are
// normalized the same way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return fromTime(t)
}

// ParseDate parses a strict YYYY-MM-DD string into a Date. It rejects both
// malformed strings and strings that name an impossible calendar date
// (e.g. 2025-02-30).
func ParseDate(s string) (Date, error) {
	if len(s) != len(dateLayout) {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return fromTime(t), nil
}

// Today returns the current date using the system's local calendar day.
func Today() Date {
	now := time.Now()
	return Date{Year: now.Year(), Month: now.Month(), Day: now.Day()}
}

func fromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// FromTime converts an instant to the calendar date it falls on in UTC.
func FromTime(t time.Time) Date {
	return fromTime(t.UTC())
}

// String formats the date as YYYY-MM-DD. ParseDate(d.String()) round-trips
// exactly for any valid date.
func (d Date) String() string {
	return d.timeUTC().Format(dateLayout)
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the uninitialized zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) timeUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// StartOfDayUTC returns the instant at 00:00:00 UTC on d.
func (d Date) StartOfDayUTC() time.Time {
	return d.timeUTC()
}

// EndOfDayUTC returns the last representable instant of d in UTC, used when a
// date-only bound has to participate in instant-based storage queries.
func (d Date) EndOfDayUTC() time.Time {
	return d.timeUTC().Add(24*time.Hour - time.Nanosecond)
}

// AddDays returns the date n days after d. n may be negative.
func (d Date) AddDays(n int) Date {
	return fromTime(d.timeUTC().AddDate(0, 0, n))
}

// SubDays returns the date n days before d.
func (d Date) SubDays(n int) Date {
	return d.AddDays(-n)
}

// AddMonths returns the date n months after d, clamping the day-of-month to
// the target month's length instead of letting it spill over: Jan 31 plus one
// month is Feb 28 (Feb 29 in leap years), not Mar 2/3. Schedule windows
// depend on this clamping behavior.
func (d Date) AddMonths(n int) Date {
	// Normalize year/month using day 1 so the month shift itself can't spill.
	anchor := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day
	if max := daysInMonth(anchor.Year(), anchor.Month()); day > max {
		day = max
	}
	return Date{Year: anchor.Year(), Month: anchor.Month(), Day: day}
}

// SubMonths returns the date n months before d, with the same clamping
// behavior as AddMonths.
func (d Date) SubMonths(n int) Date {
	return d.AddMonths(-n)
}

// daysInMonth returns the number of days in the given month, accounting for
// leap years.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Compare returns -1 if d is before other, 0 if equal, +1 if after.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Equal reports whether d and other name the same calendar day.
func (d Date) Equal(other Date) bool { return d.Compare(other) == 0 }

// DaysBetween returns the number of whole days from a to b. The result is
// negative when b is before a.
func DaysBetween(a, b Date) int {
	return int(b.timeUTC().Sub(a.timeUTC()) / (24 * time.Hour))
}

// Max returns the later of two dates.
func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// Min returns the earlier of two dates.
func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// Window is an inclusive date range used as a calendar query window.
type Window struct {
	Start Date
	End   Date
}

// WindowAround builds the scheduling query window centered on a date:
// monthsBack before it, monthsForward after it, both inclusive.
func WindowAround(center Date, monthsBack, monthsForward int) Window {
	return Window{
		Start: center.SubMonths(monthsBack),
		End:   center.AddMonths(monthsForward),
	}
}

// DefaultWindowAround builds the standard asymmetric window (one month back,
// two months forward) around the given date.
func DefaultWindowAround(center Date) Window {
	return WindowAround(center, DefaultMonthsBack, DefaultMonthsForward)
}
