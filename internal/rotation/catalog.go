// Package rotation implements recurring custody rotations: the fixed pattern
// catalog, the projection of a rotation onto concrete calendar dates, and the
// overlap guard that keeps a family's active rotations disjoint.
package rotation

import (
	"fmt"
	"sort"
)

// Custodian labels one side of a two-parent rotation.
type Custodian int8

const (
	Primary Custodian = iota
	Secondary
)

// String returns the short label used in pattern descriptions.
func (c Custodian) String() string {
	if c == Primary {
		return "P"
	}
	return "S"
}

// PatternType names one of the fixed rotation cycle templates.
type PatternType string

const (
	PatternTwoTwoThree        PatternType = "2-2-3"
	PatternTwoTwoFiveFive     PatternType = "2-2-5-5"
	PatternThreeFourFourThree PatternType = "3-4-4-3"
	PatternAlternatingWeeks   PatternType = "alternating-weeks"
	PatternEveryWeekend       PatternType = "every-weekend"
)

// Pattern is one catalog entry: a repeating day-by-day custodian sequence.
type Pattern struct {
	Type        PatternType
	DisplayName string
	Description string
	CycleLength int
	Sequence    []Custodian
}

var catalog = map[PatternType]Pattern{
	PatternTwoTwoThree: {
		Type:        PatternTwoTwoThree,
		DisplayName: "2-2-3 Rotation",
		Description: "Two days with one parent, two with the other, then a three-day weekend that alternates weekly.",
		CycleLength: 7,
		Sequence:    seq("PPSSPPP"),
	},
	PatternTwoTwoFiveFive: {
		Type:        PatternTwoTwoFiveFive,
		DisplayName: "2-2-5-5 Rotation",
		Description: "Each parent keeps the same two weekdays, with alternating five-day stretches.",
		CycleLength: 14,
		Sequence:    seq("PPSSPPPPPSSSSS"),
	},
	PatternThreeFourFourThree: {
		Type:        PatternThreeFourFourThree,
		DisplayName: "3-4-4-3 Rotation",
		Description: "Three days, then four, then four, then three, swapping parents every block.",
		CycleLength: 14,
		Sequence:    seq("PPPSSSSPPPPSSS"),
	},
	PatternAlternatingWeeks: {
		Type:        PatternAlternatingWeeks,
		DisplayName: "Alternating Weeks",
		Description: "One full week with each parent.",
		CycleLength: 14,
		Sequence:    seq("PPPPPPPSSSSSSS"),
	},
	PatternEveryWeekend: {
		Type:        PatternEveryWeekend,
		DisplayName: "Every Weekend",
		Description: "Weekdays with the primary parent, Friday through Sunday with the secondary parent.",
		CycleLength: 14,
		Sequence:    seq("PPPPSSSPPPPSSS"),
	},
}

// seq builds a custodian sequence from a compact P/S string.
func seq(s string) []Custodian {
	out := make([]Custodian, len(s))
	for i, r := range s {
		if r == 'S' {
			out[i] = Secondary
		}
	}
	return out
}

// LookupPattern returns the catalog entry for the given type.
func LookupPattern(t PatternType) (Pattern, error) {
	p, ok := catalog[t]
	if !ok {
		return Pattern{}, fmt.Errorf("unknown rotation pattern %q", t)
	}
	return p, nil
}

// IsValidPattern reports whether t names a catalog entry.
func IsValidPattern(t PatternType) bool {
	_, ok := catalog[t]
	return ok
}

// AllPatterns returns the catalog entries in stable order by type name.
func AllPatterns() []Pattern {
	out := make([]Pattern, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// ValidateCatalog verifies the static invariant that every pattern's sequence
// length equals its cycle length. It is exercised by the package tests.
func ValidateCatalog() error {
	for t, p := range catalog {
		if len(p.Sequence) != p.CycleLength {
			return fmt.Errorf("pattern %q: sequence length %d does not match cycle length %d", t, len(p.Sequence), p.CycleLength)
		}
		if p.CycleLength <= 0 {
			return fmt.Errorf("pattern %q: cycle length must be positive", t)
		}
	}
	return nil
}
