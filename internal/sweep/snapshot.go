// Package sweep is the lookup core: nearest-segment resolution, block-side
// classification, and schedule resolution against an immutable dataset
// snapshot. Nothing in this package performs I/O or mutates shared state;
// any number of lookups may run concurrently against one snapshot.
package sweep

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/sells-group/curbside/internal/model"
)

// Snapshot is one immutable, fully-loaded instance of the segment and rule
// dataset. Readers that hold a *Snapshot keep a consistent view even while
// a newer snapshot is being published.
type Snapshot struct {
	segments []model.Segment
	rules    map[string][]model.SweepingRule
	loadedAt time.Time
}

// NewSnapshot builds a snapshot from loaded segments and rules. Segments
// are ordered by their load ordinal so distance ties resolve the same way
// on every call; rules are indexed by segment ID.
func NewSnapshot(segments []model.Segment, rules []model.SweepingRule) *Snapshot {
	segs := make([]model.Segment, len(segments))
	copy(segs, segments)
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Ordinal < segs[j].Ordinal })

	byID := make(map[string][]model.SweepingRule)
	for _, r := range rules {
		byID[r.SegmentID] = append(byID[r.SegmentID], r)
	}

	return &Snapshot{
		segments: segs,
		rules:    byID,
		loadedAt: time.Now().UTC(),
	}
}

// Segments returns the snapshot's segments in deterministic order.
// The returned slice must not be modified.
func (s *Snapshot) Segments() []model.Segment {
	return s.segments
}

// RulesFor returns every sweeping rule for the given segment, filtered to
// the given side unless side is empty. An empty result is an ordinary
// "no schedule here" outcome, not an error.
func (s *Snapshot) RulesFor(segmentID string, side model.Side) []model.SweepingRule {
	all := s.rules[segmentID]
	if side == "" {
		out := make([]model.SweepingRule, len(all))
		copy(out, all)
		return out
	}
	var out []model.SweepingRule
	for _, r := range all {
		if r.Side == side {
			out = append(out, r)
		}
	}
	return out
}

// RuleCount returns the total number of rules in the snapshot.
func (s *Snapshot) RuleCount() int {
	n := 0
	for _, rs := range s.rules {
		n += len(rs)
	}
	return n
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Source publishes the current dataset snapshot. Refreshes build a complete
// new snapshot and Swap it in; in-flight lookups continue against whatever
// snapshot they loaded. There is no in-place mutation path.
type Source struct {
	current atomic.Pointer[Snapshot]
}

// NewSource creates a Source seeded with the given snapshot.
func NewSource(snap *Snapshot) *Source {
	src := &Source{}
	src.current.Store(snap)
	return src
}

// Snapshot returns the currently published snapshot.
func (s *Source) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap atomically publishes a new snapshot and returns the previous one.
func (s *Source) Swap(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}
