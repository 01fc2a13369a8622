package model

// Side identifies which side of a street segment a point lies on, relative
// to its projection onto the segment. The nine values cover the four
// cardinal directions, the four diagonals, and the degenerate on-the-line case.
type Side string

const (
	SideNorth     Side = "North"
	SideNorthEast Side = "NorthEast"
	SideNorthWest Side = "NorthWest"
	SideSouth     Side = "South"
	SideSouthEast Side = "SouthEast"
	SideSouthWest Side = "SouthWest"
	SideEast      Side = "East"
	SideWest      Side = "West"
	SideOnTheLine Side = "OnTheLine"
)

// Valid reports whether s is one of the nine recognized side labels.
func (s Side) Valid() bool {
	switch s {
	case SideNorth, SideNorthEast, SideNorthWest,
		SideSouth, SideSouthEast, SideSouthWest,
		SideEast, SideWest, SideOnTheLine:
		return true
	}
	return false
}
