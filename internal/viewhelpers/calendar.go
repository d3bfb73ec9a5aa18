// Package viewhelpers shapes merged calendar data for API responses.
package viewhelpers

import (
	"github.com/custodia-app/custodia/internal/dateutil"
	"github.com/custodia-app/custodia/internal/service"
)

// CalendarDay represents a single day of the merged calendar view.
type CalendarDay struct {
	Date    dateutil.Date           `json:"date"`
	Entries []service.CalendarEntry `json:"entries"`
}

// GroupEntriesByDay organizes calendar entries into per-day buckets, keyed by
// the UTC date each entry starts on. Days come out in ascending order; days
// with no entries are omitted. Entry order inside a day follows the input,
// which MergedCalendar already sorts by start instant.
func GroupEntriesByDay(entries []service.CalendarEntry) []CalendarDay {
	days := make([]CalendarDay, 0)
	index := make(map[dateutil.Date]int)

	for _, entry := range entries {
		date := dateutil.FromTime(entry.Start)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, CalendarDay{Date: date})
		}
		days[i].Entries = append(days[i].Entries, entry)
	}

	// Entries arrive sorted by start, so bucket creation order is already
	// ascending. A multi-day entry is bucketed once, on its start date.
	return days
}
