package sweep

import (
	"time"

	"github.com/sells-group/curbside/internal/model"
)

// DefaultHorizonDays bounds the forward search for the next occurrence.
const DefaultHorizonDays = 14

// weekdaySymbols maps time.Weekday to the dataset's Mon-first symbols.
// Note "Tues", not "Tue" — the source table uses the four-letter form.
var weekdaySymbols = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tues",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
	time.Sunday:    "Sun",
}

// WeekdaySymbol returns the dataset symbol for t's weekday.
func WeekdaySymbol(t time.Time) string {
	return weekdaySymbols[t.Weekday()]
}

// Occurrence returns which 1-based occurrence of its weekday t is within
// its month (1..5). The 1st through 7th are occurrence 1, the 8th through
// 14th occurrence 2, and so on.
func Occurrence(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// NextOccurrence finds the first calendar date in [now, now+horizonDays)
// matching the rule's weekday and week-of-month mask. It returns the date
// (midnight in now's location), the day offset from now, and whether a
// match was found within the horizon.
//
// now must already be localized to the operational region's civil time;
// this function is timezone-agnostic and only does calendar arithmetic.
// Passing a UTC instant directly produces wrong weekdays near midnight.
func NextOccurrence(rule model.SweepingRule, now time.Time, horizonDays int) (time.Time, int, bool) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	year, month, day := now.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	for i := 0; i < horizonDays; i++ {
		candidate := start.AddDate(0, 0, i)
		if WeekdaySymbol(candidate) != rule.Weekday {
			continue
		}
		if !rule.Weeks.Has(Occurrence(candidate)) {
			continue
		}
		return candidate, i, true
	}

	return time.Time{}, 0, false
}
