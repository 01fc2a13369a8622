package model

import "time"

// Outcome tags a LookupResult. Expected "no result" cases are ordinary
// values carried here, not errors; only genuinely unexpected faults cross
// package boundaries as errors.
type Outcome string

const (
	// OutcomeFound means the point resolved to a segment, side, and an
	// upcoming sweep date within the horizon.
	OutcomeFound Outcome = "found"

	// OutcomeNoSweepingHere means a segment was found but carries no
	// sweeping rules at all.
	OutcomeNoSweepingHere Outcome = "no_sweeping_here"

	// OutcomeNoSweepingOnThisSide means the segment has rules, but none
	// for the side the point resolved to.
	OutcomeNoSweepingOnThisSide Outcome = "no_sweeping_on_this_side"

	// OutcomeNoUpcomingSweep means rules exist for the side but none of
	// them matched a date within the search horizon.
	OutcomeNoUpcomingSweep Outcome = "no_upcoming_sweep"
)

// LookupResult is the per-query output of the orchestrator. A fresh value
// is produced for every query; nothing in it aliases shared dataset state.
type LookupResult struct {
	Outcome Outcome `json:"outcome"`

	// Resolved segment context. Set for every outcome.
	SegmentID string  `json:"segment_id"`
	Street    string  `json:"street"`
	FromCross string  `json:"from_cross"`
	ToCross   string  `json:"to_cross"`
	Side      Side    `json:"side"`
	Distance  float64 `json:"distance"` // planar degree-space distance to the segment

	// Schedule fields. Set only when Outcome == OutcomeFound.
	NextSweep  time.Time `json:"next_sweep,omitempty"`
	FromHour   int       `json:"from_hour,omitempty"`
	ToHour     int       `json:"to_hour,omitempty"`
	DaysUntil  int       `json:"days_until,omitempty"`
}

// Found reports whether the lookup fully resolved to an upcoming sweep.
func (r LookupResult) Found() bool {
	return r.Outcome == OutcomeFound
}

// ParkingRecord is the durable form of a successful lookup, keyed to the
// caller who asked. It is a plain value; the store adapters own its schema.
type ParkingRecord struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Street      string    `json:"street"`
	FromCross   string    `json:"from_cross"`
	ToCross     string    `json:"to_cross"`
	Side        Side      `json:"side"`
	SegmentID   string    `json:"segment_id"`
	NextSweep   time.Time `json:"next_sweep"`
	FromHour    int       `json:"from_hour"`
	ToHour      int       `json:"to_hour"`
	DaysUntil   int       `json:"days_until"`
	CreatedAt   time.Time `json:"created_at"`
	Notified    bool      `json:"notified"`
}
