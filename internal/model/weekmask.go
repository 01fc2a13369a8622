package model

import "strings"

// WeekMask is a 5-bit set marking which numbered occurrences of a weekday
// within a month a rule fires on (1st through 5th). Bit n-1 corresponds to
// the nth occurrence. A dynamic "Week{n}" column lookup in the source data
// becomes a fixed-width bitset here.
type WeekMask uint8

// weekMaskAll has all five occurrence bits set.
const weekMaskAll WeekMask = 0b11111

// NewWeekMask builds a mask from the five per-occurrence flags as they
// appear in the source table (Week1..Week5).
func NewWeekMask(weeks [5]bool) WeekMask {
	var m WeekMask
	for i, on := range weeks {
		if on {
			m |= 1 << i
		}
	}
	return m
}

// Has reports whether the mask fires on the given 1-based occurrence.
// Occurrences outside 1..5 never match.
func (m WeekMask) Has(occurrence int) bool {
	if occurrence < 1 || occurrence > 5 {
		return false
	}
	return m&(1<<(occurrence-1)) != 0
}

// Set returns a copy of the mask with the given 1-based occurrence enabled.
func (m WeekMask) Set(occurrence int) WeekMask {
	if occurrence < 1 || occurrence > 5 {
		return m
	}
	return m | 1<<(occurrence-1)
}

// Empty reports whether no occurrence bit is set.
func (m WeekMask) Empty() bool {
	return m&weekMaskAll == 0
}

// String renders the mask as a comma-separated occurrence list, e.g. "1,3,5".
func (m WeekMask) String() string {
	var parts []string
	for occ := 1; occ <= 5; occ++ {
		if m.Has(occ) {
			parts = append(parts, string('0'+rune(occ)))
		}
	}
	return strings.Join(parts, ",")
}
