package sweep

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/curbside/internal/model"
)

// ErrNoSegments is returned when a lookup runs against an empty index.
// This is a configuration fault, not a per-request condition.
var ErrNoSegments = eris.New("sweep: no segments available")

// Match is the result of nearest-segment resolution: the winning segment,
// the closest point on its polyline, and the planar degree-space distance.
// Each Match is computed into request-local state; resolution never writes
// a distance back into the shared snapshot.
type Match struct {
	Segment   model.Segment
	Projected model.Point
	Distance  float64
}

// Nearest resolves the active segment closest to p. Distances are planar
// Euclidean in degree space, matching the source system. When two segments
// are exactly equidistant the one with the lower load ordinal wins, so the
// same inputs always resolve to the same segment.
func (s *Snapshot) Nearest(p model.Point) (Match, error) {
	best := Match{Distance: math.Inf(1)}
	found := false

	for _, seg := range s.segments {
		if !seg.Active || seg.Line == nil {
			continue
		}
		proj, dist := projectOntoLine(p, seg.Line)
		// Strict less-than keeps the first (lowest-ordinal) segment on ties.
		if dist < best.Distance {
			best = Match{Segment: seg, Projected: proj, Distance: dist}
			found = true
		}
	}

	if !found {
		return Match{}, ErrNoSegments
	}
	return best, nil
}

// projectOntoLine returns the closest point on the polyline to p and the
// distance between them. The polyline is walked segment by segment; each
// vertex pair is treated as a straight line in lon/lat degree space.
func projectOntoLine(p model.Point, line *geom.LineString) (model.Point, float64) {
	coords := line.FlatCoords()
	stride := line.Stride()

	bestD2 := math.Inf(1)
	best := model.Point{}

	for i := 0; i+stride < len(coords); i += stride {
		ax, ay := coords[i], coords[i+1]
		bx, by := coords[i+stride], coords[i+stride+1]

		cx, cy := closestOnSegment(p.Longitude, p.Latitude, ax, ay, bx, by)
		dx, dy := p.Longitude-cx, p.Latitude-cy
		d2 := dx*dx + dy*dy
		if d2 < bestD2 {
			bestD2 = d2
			best = model.Point{Longitude: cx, Latitude: cy}
		}
	}

	return best, math.Sqrt(bestD2)
}

// closestOnSegment projects (px,py) onto the segment (ax,ay)-(bx,by),
// clamping to the endpoints.
func closestOnSegment(px, py, ax, ay, bx, by float64) (float64, float64) {
	vx, vy := bx-ax, by-ay
	lenSq := vx*vx + vy*vy
	if lenSq == 0 {
		// Degenerate segment: both vertices coincide.
		return ax, ay
	}

	t := ((px-ax)*vx + (py-ay)*vy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return ax + t*vx, ay + t*vy
}
