package sweep

import "github.com/sells-group/curbside/internal/model"

// ClassifySide labels which side of a segment the query point lies on by
// comparing it componentwise against its projection onto the segment.
//
// The comparison is an exact floating-point sign test, as in the source
// system. Near-zero deltas produced by floating error can therefore land
// on a cardinal label (or OnTheLine) instead of the adjacent diagonal; no
// epsilon snapping is applied.
func ClassifySide(point, projected model.Point) model.Side {
	dy := point.Latitude - projected.Latitude
	dx := point.Longitude - projected.Longitude

	switch {
	case dy > 0:
		switch {
		case dx > 0:
			return model.SideNorthEast
		case dx < 0:
			return model.SideNorthWest
		default:
			return model.SideNorth
		}
	case dy < 0:
		switch {
		case dx > 0:
			return model.SideSouthEast
		case dx < 0:
			return model.SideSouthWest
		default:
			return model.SideSouth
		}
	default:
		switch {
		case dx > 0:
			return model.SideEast
		case dx < 0:
			return model.SideWest
		default:
			return model.SideOnTheLine
		}
	}
}
