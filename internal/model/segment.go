// Package model holds the domain types shared across the lookup core,
// dataset loader, stores, and transport layers.
package model

import (
	"github.com/twpayne/go-geom"
)

// Segment is one street-centerline record from the sweeping dataset.
// Segments are immutable after load; lookups never write into them.
type Segment struct {
	// ID is the stable dataset key (CNN in the San Francisco export).
	ID string `json:"id"`

	// Corridor is the display street name.
	Corridor string `json:"corridor"`

	// FromCross and ToCross bound the block, split from the source
	// "Limits" column ("FROM - TO").
	FromCross string `json:"from_cross"`
	ToCross   string `json:"to_cross"`

	// Active marks whether the segment participates in lookups.
	Active bool `json:"active"`

	// Ordinal is the position of the segment in dataset load order. It is
	// the tie-break key when two segments are equidistant from a query
	// point: the lower ordinal wins, so identical inputs always resolve
	// to the same segment.
	Ordinal int `json:"-"`

	// Line is the centerline polyline in WGS84 lon/lat order.
	// Always has at least two vertices.
	Line *geom.LineString `json:"-"`
}

// SweepingRule is one scheduling row: a weekday, the week-of-month
// occurrences it applies to, and the hour window, for one side of one segment.
type SweepingRule struct {
	SegmentID string   `json:"segment_id"`
	Side      Side     `json:"side"`
	Weekday   string   `json:"weekday"` // dataset symbol: Mon Tues Wed Thu Fri Sat Sun
	Weeks     WeekMask `json:"weeks"`
	FromHour  int      `json:"from_hour"`
	ToHour    int      `json:"to_hour"`
}
