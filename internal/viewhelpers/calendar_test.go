package viewhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-app/custodia/internal/dateutil"
	"github.com/custodia-app/custodia/internal/service"
)

func entryAt(t *testing.T, start string, kind string) service.CalendarEntry {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	return service.CalendarEntry{
		Kind:     kind,
		Start:    ts,
		End:      ts.Add(2 * time.Hour),
		ParentID: uuid.New(),
	}
}

func TestGroupEntriesByDay(t *testing.T) {
	entries := []service.CalendarEntry{
		entryAt(t, "2025-06-01T00:00:00Z", "rotation"),
		entryAt(t, "2025-06-01T10:00:00Z", "manual"),
		entryAt(t, "2025-06-03T09:00:00Z", "manual"),
	}

	days := GroupEntriesByDay(entries)
	require.Len(t, days, 2)

	assert.Equal(t, dateutil.New(2025, time.June, 1), days[0].Date)
	require.Len(t, days[0].Entries, 2)
	assert.Equal(t, "rotation", days[0].Entries[0].Kind)
	assert.Equal(t, "manual", days[0].Entries[1].Kind)

	assert.Equal(t, dateutil.New(2025, time.June, 3), days[1].Date)
	assert.Len(t, days[1].Entries, 1)
}

func TestGroupEntriesByDayBucketsOnUTCDate(t *testing.T) {
	late, err := time.Parse(time.RFC3339, "2025-06-01T23:30:00-02:00")
	require.NoError(t, err)

	days := GroupEntriesByDay([]service.CalendarEntry{{
		Kind:  "manual",
		Start: late,
		End:   late.Add(time.Hour),
	}})
	require.Len(t, days, 1)
	assert.Equal(t, dateutil.New(2025, time.June, 2), days[0].Date)
}

func TestGroupEntriesByDayEmpty(t *testing.T) {
	days := GroupEntriesByDay(nil)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}
