// Package interval provides the overlap predicates shared by the visitation
// and calendar query paths.
package interval

import "time"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// The half-open interpretation means touching endpoints do not overlap:
// an event ending at 12:00 does not conflict with one starting at 12:00.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether the inner range lies entirely within the outer
// range, bounds inclusive.
func Contains(innerStart, innerEnd, outerStart, outerEnd time.Time) bool {
	return !innerStart.Before(outerStart) && !innerEnd.After(outerEnd)
}
