package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestParseDateRoundTrip(t *testing.T) {
	inputs := []string{
		"2024-01-01",
		"2024-02-29", // leap day
		"2025-12-31",
		"1999-07-04",
	}
	for _, s := range inputs {
		d, err := ParseDate(s)
		assert.NoError(t, err)
		assert.Equal(t, s, d.String())
	}
}

func TestParseDateRejectsInvalid(t *testing.T) {
	inputs := []string{
		"",
		"2024-1-1",
		"01/02/2024",
		"2024-13-01",
		"2024-02-30", // not a real date
		"2025-02-29", // not a leap year
		"2024-01-01T00:00:00Z",
		"garbage",
	}
	for _, s := range inputs {
		_, err := ParseDate(s)
		assert.Error(t, err, "expected %q to be rejected", s)
	}
}

func TestAddDaysSubDaysInverse(t *testing.T) {
	d := mustParse(t, "2024-02-28")
	for n := 0; n <= 400; n += 37 {
		assert.Equal(t, d, d.AddDays(n).SubDays(n))
	}
}

func TestAddDaysCrossesMonthAndYear(t *testing.T) {
	assert.Equal(t, "2024-03-01", mustParse(t, "2024-02-29").AddDays(1).String())
	assert.Equal(t, "2025-01-01", mustParse(t, "2024-12-31").AddDays(1).String())
	assert.Equal(t, "2023-12-31", mustParse(t, "2024-01-01").SubDays(1).String())
}

func TestAddMonthsClampsDayOfMonth(t *testing.T) {
	// Non-leap year: Jan 31 + 1 month = Feb 28
	assert.Equal(t, "2025-02-28", mustParse(t, "2025-01-31").AddMonths(1).String())
	// Leap year: Jan 31 + 1 month = Feb 29
	assert.Equal(t, "2024-02-29", mustParse(t, "2024-01-31").AddMonths(1).String())
	// 31st into a 30-day month
	assert.Equal(t, "2024-04-30", mustParse(t, "2024-03-31").AddMonths(1).String())
	// No clamping needed
	assert.Equal(t, "2024-02-15", mustParse(t, "2024-01-15").AddMonths(1).String())
}

func TestSubMonthsClampsDayOfMonth(t *testing.T) {
	assert.Equal(t, "2024-02-29", mustParse(t, "2024-03-31").SubMonths(1).String())
	assert.Equal(t, "2023-12-31", mustParse(t, "2024-01-31").SubMonths(1).String())
}

func TestAddMonthsCrossesYears(t *testing.T) {
	assert.Equal(t, "2025-01-31", mustParse(t, "2024-11-30").AddMonths(2).AddDays(1).String())
	assert.Equal(t, "2023-10-31", mustParse(t, "2024-10-31").SubMonths(12).String())
}

func TestCompareOrdering(t *testing.T) {
	a := mustParse(t, "2024-01-01")
	b := mustParse(t, "2024-01-02")
	c := mustParse(t, "2024-02-01")
	d := mustParse(t, "2025-01-01")

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(mustParse(t, "2024-01-01")))
	assert.True(t, a.Before(c))
	assert.True(t, d.After(c))
	assert.True(t, a.Equal(a))
}

func TestDaysBetween(t *testing.T) {
	a := mustParse(t, "2024-01-01")
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 1, DaysBetween(a, a.AddDays(1)))
	assert.Equal(t, 366, DaysBetween(a, mustParse(t, "2025-01-01"))) // 2024 is a leap year
	assert.Equal(t, -7, DaysBetween(a, a.SubDays(7)))
}

func TestInstantConversions(t *testing.T) {
	d := mustParse(t, "2024-06-15")
	start := d.StartOfDayUTC()
	end := d.EndOfDayUTC()

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), start)
	assert.True(t, end.After(start))
	assert.Equal(t, d, FromTime(start))
	assert.Equal(t, d, FromTime(end))
	assert.Equal(t, d.AddDays(1), FromTime(end.Add(time.Nanosecond)))
}

func TestDefaultWindowAround(t *testing.T) {
	w := DefaultWindowAround(mustParse(t, "2024-06-15"))
	assert.Equal(t, "2024-05-15", w.Start.String())
	assert.Equal(t, "2024-08-15", w.End.String())
}

func TestWindowAroundClampsAtMonthEnds(t *testing.T) {
	w := WindowAround(mustParse(t, "2024-03-31"), 1, 2)
	assert.Equal(t, "2024-02-29", w.Start.String())
	assert.Equal(t, "2024-05-31", w.End.String())
}

func TestMinMax(t *testing.T) {
	a := mustParse(t, "2024-01-01")
	b := mustParse(t, "2024-06-01")
	assert.Equal(t, a, Min(a, b))
	assert.Equal(t, a, Min(b, a))
	assert.Equal(t, b, Max(a, b))
	assert.Equal(t, b, Max(b, a))
}

func TestTodayHasNoTimeComponent(t *testing.T) {
	d := Today()
	now := time.Now()
	assert.Equal(t, now.Year(), d.Year)
	assert.Equal(t, now.Month(), d.Month)
	assert.False(t, d.IsZero())
}
