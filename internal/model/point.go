package model

// Point is a WGS84 coordinate pair in degrees. Immutable by convention:
// it is always passed by value.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}
