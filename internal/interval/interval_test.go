package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2024, 6, 15, hour, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{"partial overlap", at(9), at(17), at(14), at(20), true},
		{"b contains a", at(10), at(12), at(9), at(17), true},
		{"a contains b", at(9), at(17), at(10), at(12), true},
		{"identical ranges", at(9), at(17), at(9), at(17), true},
		{"disjoint", at(9), at(11), at(13), at(15), false},
		{"touching endpoints", at(9), at(12), at(12), at(17), false},
		{"touching endpoints reversed", at(12), at(17), at(9), at(12), false},
		{"one minute of overlap", at(9), at(12).Add(time.Minute), at(12), at(17), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// Symmetric in (A, B) by definition.
			assert.Equal(t, tc.expected, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(at(10), at(12), at(9), at(17)))
	assert.True(t, Contains(at(9), at(17), at(9), at(17))) // bounds inclusive
	assert.False(t, Contains(at(8), at(12), at(9), at(17)))
	assert.False(t, Contains(at(10), at(18), at(9), at(17)))
	assert.False(t, Contains(at(7), at(18), at(9), at(17)))
}
