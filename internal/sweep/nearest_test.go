package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/curbside/internal/model"
)

// line builds an XY LineString from flat lon/lat pairs.
func line(coords ...float64) *geom.LineString {
	return geom.NewLineStringFlat(geom.XY, coords)
}

func testSegment(id string, ordinal int, ls *geom.LineString) model.Segment {
	return model.Segment{
		ID:       id,
		Corridor: "Valencia St",
		Active:   true,
		Ordinal:  ordinal,
		Line:     ls,
	}
}

func TestNearestPicksClosestSegment(t *testing.T) {
	snap := NewSnapshot([]model.Segment{
		testSegment("far", 0, line(0, 10, 10, 10)),
		testSegment("near", 1, line(0, 1, 10, 1)),
	}, nil)

	match, err := snap.Nearest(model.Point{Longitude: 5, Latitude: 0})
	require.NoError(t, err)
	assert.Equal(t, "near", match.Segment.ID)
	assert.InDelta(t, 1.0, match.Distance, 1e-12)
	assert.InDelta(t, 5.0, match.Projected.Longitude, 1e-12)
	assert.InDelta(t, 1.0, match.Projected.Latitude, 1e-12)
}

func TestNearestProjectionClampsToEndpoints(t *testing.T) {
	snap := NewSnapshot([]model.Segment{
		testSegment("seg", 0, line(0, 0, 10, 0)),
	}, nil)

	// Point beyond the east endpoint projects onto the endpoint itself.
	match, err := snap.Nearest(model.Point{Longitude: 13, Latitude: 4})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, match.Projected.Longitude, 1e-12)
	assert.InDelta(t, 0.0, match.Projected.Latitude, 1e-12)
	assert.InDelta(t, 5.0, match.Distance, 1e-12)
}

func TestNearestWalksEveryPolylineLeg(t *testing.T) {
	// An L-shaped polyline: the second leg is closest to the query point.
	snap := NewSnapshot([]model.Segment{
		testSegment("bend", 0, line(0, 0, 10, 0, 10, 10)),
	}, nil)

	match, err := snap.Nearest(model.Point{Longitude: 12, Latitude: 5})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, match.Projected.Longitude, 1e-12)
	assert.InDelta(t, 5.0, match.Projected.Latitude, 1e-12)
	assert.InDelta(t, 2.0, match.Distance, 1e-12)
}

func TestNearestTieBreaksByOrdinal(t *testing.T) {
	// Two segments exactly 1 degree away on opposite sides. Load order,
	// not map iteration order, must decide.
	a := testSegment("a", 3, line(0, 1, 10, 1))
	b := testSegment("b", 7, line(0, -1, 10, -1))

	for name, segs := range map[string][]model.Segment{
		"loaded a then b": {a, b},
		"loaded b then a": {b, a},
	} {
		t.Run(name, func(t *testing.T) {
			snap := NewSnapshot(segs, nil)
			match, err := snap.Nearest(model.Point{Longitude: 5, Latitude: 0})
			require.NoError(t, err)
			assert.Equal(t, "a", match.Segment.ID)
		})
	}
}

func TestNearestSkipsInactiveSegments(t *testing.T) {
	inactive := testSegment("inactive", 0, line(0, 0, 10, 0))
	inactive.Active = false
	active := testSegment("active", 1, line(0, 5, 10, 5))

	snap := NewSnapshot([]model.Segment{inactive, active}, nil)

	match, err := snap.Nearest(model.Point{Longitude: 5, Latitude: 1})
	require.NoError(t, err)
	assert.Equal(t, "active", match.Segment.ID)
}

func TestNearestEmptyIndex(t *testing.T) {
	snap := NewSnapshot(nil, nil)
	_, err := snap.Nearest(model.Point{})
	require.ErrorIs(t, err, ErrNoSegments)

	// All-inactive behaves like empty.
	seg := testSegment("off", 0, line(0, 0, 1, 1))
	seg.Active = false
	snap = NewSnapshot([]model.Segment{seg}, nil)
	_, err = snap.Nearest(model.Point{})
	require.ErrorIs(t, err, ErrNoSegments)
}

func TestClosestOnSegmentDegenerate(t *testing.T) {
	// Zero-length leg collapses to its vertex.
	x, y := closestOnSegment(5, 5, 2, 3, 2, 3)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 3.0, y)
}
