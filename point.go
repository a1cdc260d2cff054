package geotape

import "math"

// Point represents a 2D point in image coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size is a canvas size in whole pixels.
type Size struct {
	Width, Height int
}

// Center returns the geometric center of the canvas.
func (s Size) Center() Point {
	return Point{X: float64(s.Width) / 2, Y: float64(s.Height) / 2}
}

// Corners returns the four canvas corners, clockwise from the origin.
func (s Size) Corners() [4]Point {
	w, h := float64(s.Width), float64(s.Height)
	return [4]Point{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

// roundHalfAway rounds to the nearest integer, halves away from zero.
// math.Round already has these semantics; the helper names the policy.
func roundHalfAway(v float64) int {
	return int(math.Round(v))
}

// bounds returns the axis-aligned bounding box of pts.
func bounds(pts []Point) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}
