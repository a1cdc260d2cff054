// Package annotate maps annotation geometry through a composed transform.
//
// It uses the same matrix the resampler uses for pixels, so a box drawn
// around an object in the source image still surrounds it after
// augmentation.
package annotate

import (
	"math"

	"github.com/gogpu/geotape"
)

// Box is an axis-aligned rectangle in pixel coordinates.
type Box struct {
	XMin float64 `json:"x_min" yaml:"x_min"`
	YMin float64 `json:"y_min" yaml:"y_min"`
	XMax float64 `json:"x_max" yaml:"x_max"`
	YMax float64 `json:"y_max" yaml:"y_max"`
}

// Width returns the box width.
func (b Box) Width() float64 { return b.XMax - b.XMin }

// Height returns the box height.
func (b Box) Height() float64 { return b.YMax - b.YMin }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.XMax <= b.XMin || b.YMax <= b.YMin }

// Corners returns the four corners, clockwise from the top-left.
func (b Box) Corners() []geotape.Point {
	return []geotape.Point{
		{X: b.XMin, Y: b.YMin},
		{X: b.XMax, Y: b.YMin},
		{X: b.XMax, Y: b.YMax},
		{X: b.XMin, Y: b.YMax},
	}
}

// Clip intersects the box with a canvas.
func (b Box) Clip(canvas geotape.Size) Box {
	return Box{
		XMin: clamp(b.XMin, 0, float64(canvas.Width)),
		YMin: clamp(b.YMin, 0, float64(canvas.Height)),
		XMax: clamp(b.XMax, 0, float64(canvas.Width)),
		YMax: clamp(b.YMax, 0, float64(canvas.Height)),
	}
}

// Polygon is a closed polygon given by its vertices.
type Polygon []geotape.Point

// Bounds returns the axis-aligned bounding box of the polygon.
func (p Polygon) Bounds() Box {
	if len(p) == 0 {
		return Box{}
	}
	b := Box{XMin: math.Inf(1), YMin: math.Inf(1), XMax: math.Inf(-1), YMax: math.Inf(-1)}
	for _, v := range p {
		b.XMin = math.Min(b.XMin, v.X)
		b.YMin = math.Min(b.YMin, v.Y)
		b.XMax = math.Max(b.XMax, v.X)
		b.YMax = math.Max(b.YMax, v.Y)
	}
	return b
}

// Points maps every point through m, including the homogeneous divide.
func Points(m geotape.Matrix, pts []geotape.Point) []geotape.Point {
	out := make([]geotape.Point, len(pts))
	for i, p := range pts {
		out[i] = m.TransformPoint(p)
	}
	return out
}

// TransformBox maps the corners of box through m and returns their
// axis-aligned hull clipped to the canvas. ok is false when nothing of the
// box remains on the canvas.
func TransformBox(m geotape.Matrix, box Box, canvas geotape.Size) (out Box, ok bool) {
	hull := Polygon(Points(m, box.Corners())).Bounds().Clip(canvas)
	return hull, !hull.Empty()
}

// TransformPolygon maps every vertex through m and clips the result to
// the canvas rectangle. ok is false when nothing of the polygon remains.
func TransformPolygon(m geotape.Matrix, poly Polygon, canvas geotape.Size) (out Polygon, ok bool) {
	if len(poly) < 3 {
		return nil, false
	}
	out = clipToCanvas(Points(m, poly), canvas)
	if len(out) < 3 || out.Area() == 0 {
		return nil, false
	}
	return out, true
}

// clipToCanvas clips a polygon against the four canvas edges
// (Sutherland-Hodgman).
func clipToCanvas(poly Polygon, canvas geotape.Size) Polygon {
	w, h := float64(canvas.Width), float64(canvas.Height)
	edges := []struct {
		inside func(geotape.Point) bool
		cross  func(a, b geotape.Point) geotape.Point
	}{
		{func(p geotape.Point) bool { return p.X >= 0 }, func(a, b geotape.Point) geotape.Point { return atX(a, b, 0) }},
		{func(p geotape.Point) bool { return p.X <= w }, func(a, b geotape.Point) geotape.Point { return atX(a, b, w) }},
		{func(p geotape.Point) bool { return p.Y >= 0 }, func(a, b geotape.Point) geotape.Point { return atY(a, b, 0) }},
		{func(p geotape.Point) bool { return p.Y <= h }, func(a, b geotape.Point) geotape.Point { return atY(a, b, h) }},
	}
	for _, e := range edges {
		if len(poly) == 0 {
			break
		}
		in := poly
		poly = make(Polygon, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && e.inside(prev):
				poly = append(poly, cur)
			case e.inside(cur):
				poly = append(poly, e.cross(prev, cur), cur)
			case e.inside(prev):
				poly = append(poly, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return poly
}

func atX(a, b geotape.Point, x float64) geotape.Point {
	t := (x - a.X) / (b.X - a.X)
	return geotape.Point{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

func atY(a, b geotape.Point, y float64) geotape.Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return geotape.Point{X: a.X + t*(b.X-a.X), Y: y}
}

// Area returns the signed shoelace area of the polygon.
func (p Polygon) Area() float64 {
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
