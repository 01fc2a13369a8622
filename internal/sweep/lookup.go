package sweep

import (
	"time"

	"github.com/sells-group/curbside/internal/model"
)

// Lookup answers "which curb am I parked at, and when is it next swept?"
// for a single point. It composes nearest-segment resolution, side
// classification, rule lookup, and schedule resolution into one pure
// computation over the snapshot: no I/O, no writes to shared state.
//
// The returned result is tagged with an Outcome; the three "no result"
// cases are ordinary values. The only error is ErrNoSegments on an empty
// index.
//
// now must be localized to the operational region (see NextOccurrence).
func (s *Snapshot) Lookup(p model.Point, now time.Time) (model.LookupResult, error) {
	match, err := s.Nearest(p)
	if err != nil {
		return model.LookupResult{}, err
	}

	side := ClassifySide(p, match.Projected)

	res := model.LookupResult{
		SegmentID: match.Segment.ID,
		Street:    match.Segment.Corridor,
		FromCross: match.Segment.FromCross,
		ToCross:   match.Segment.ToCross,
		Side:      side,
		Distance:  match.Distance,
	}

	all := s.RulesFor(match.Segment.ID, "")
	if len(all) == 0 {
		res.Outcome = model.OutcomeNoSweepingHere
		return res, nil
	}

	var onSide []model.SweepingRule
	for _, r := range all {
		if r.Side == side {
			onSide = append(onSide, r)
		}
	}
	if len(onSide) == 0 {
		res.Outcome = model.OutcomeNoSweepingOnThisSide
		return res, nil
	}

	// Several rules can apply to one side (different weekdays or week
	// masks); resolve each and keep the soonest.
	found := false
	for _, r := range onSide {
		date, days, ok := NextOccurrence(r, now, DefaultHorizonDays)
		if !ok {
			continue
		}
		if !found || days < res.DaysUntil {
			res.NextSweep = date
			res.DaysUntil = days
			res.FromHour = r.FromHour
			res.ToHour = r.ToHour
			found = true
		}
	}
	if !found {
		res.Outcome = model.OutcomeNoUpcomingSweep
		return res, nil
	}

	res.Outcome = model.OutcomeFound
	return res, nil
}
