package core

import "math"

// Point is a position on a 2D plane. Units are up to the caller; the RF
// helpers only ever use the distance between two points.
type Point struct {
	X, Y float64
}

// DistanceTo returns the straight-line distance between two points.
func (p Point) DistanceTo(other Point) float64 {
	return Distance(p.X, p.Y, other.X, other.Y)
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Distance is the Euclidean distance between (x1, y1) and (x2, y2).
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
