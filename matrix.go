package geotape

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix represents a 2D homogeneous transformation as a 3x3 matrix
// in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//	| g  h  i |
//
// A point (x, y) maps to:
//
//	x' = (a*x + b*y + c) / w
//	y' = (d*x + e*y + f) / w
//	w  =  g*x + h*y + i
//
// Every operation in this package produces a bottom row of [0 0 1], so w
// is always 1. TransformPoint still performs the divide.
type Matrix struct {
	A, B, C float64
	D, E, F float64
	G, H, I float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
		G: 0, H: 0, I: 1,
	}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
		G: 0, H: 0, I: 1,
	}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
		G: 0, H: 0, I: 1,
	}
}

// Rotation creates a rotation matrix (angle in radians).
// In image coordinates (y down) a positive angle turns clockwise on screen.
func Rotation(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
		G: 0, H: 0, I: 1,
	}
}

// ShearMatrix creates a shear matrix. x' = x + shx*y, y' = y + shy*x.
func ShearMatrix(shx, shy float64) Matrix {
	return Matrix{
		A: 1, B: shx, C: 0,
		D: shy, E: 1, F: 0,
		G: 0, H: 0, I: 1,
	}
}

// RotateAt rotates by angle radians around (cx, cy).
func RotateAt(angle, cx, cy float64) Matrix {
	return Translate(cx, cy).Multiply(Rotation(angle)).Multiply(Translate(-cx, -cy))
}

// ScaleAt scales by (sx, sy) around (cx, cy).
func ScaleAt(sx, sy, cx, cy float64) Matrix {
	return Translate(cx, cy).Multiply(Scale(sx, sy)).Multiply(Translate(-cx, -cy))
}

// About conjugates m so that it acts around (cx, cy) instead of the origin.
func About(m Matrix, cx, cy float64) Matrix {
	return Translate(cx, cy).Multiply(m).Multiply(Translate(-cx, -cy))
}

// Multiply multiplies two matrices (m * other).
// The result applies other first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D + m.C*other.G,
		B: m.A*other.B + m.B*other.E + m.C*other.H,
		C: m.A*other.C + m.B*other.F + m.C*other.I,
		D: m.D*other.A + m.E*other.D + m.F*other.G,
		E: m.D*other.B + m.E*other.E + m.F*other.H,
		F: m.D*other.C + m.E*other.F + m.F*other.I,
		G: m.G*other.A + m.H*other.D + m.I*other.G,
		H: m.G*other.B + m.H*other.E + m.I*other.H,
		I: m.G*other.C + m.H*other.F + m.I*other.I,
	}
}

// TransformPoint applies the transformation to a point, including the
// homogeneous divide. A point mapped to infinity (w == 0) yields ±Inf or NaN.
func (m Matrix) TransformPoint(p Point) Point {
	x := m.A*p.X + m.B*p.Y + m.C
	y := m.D*p.X + m.E*p.Y + m.F
	w := m.G*p.X + m.H*p.Y + m.I
	if w == 1 {
		return Point{X: x, Y: y}
	}
	return Point{X: x / w, Y: y / w}
}

// Determinant returns the determinant of the full 3x3 matrix.
func (m Matrix) Determinant() float64 {
	return m.A*(m.E*m.I-m.F*m.H) -
		m.B*(m.D*m.I-m.F*m.G) +
		m.C*(m.D*m.H-m.E*m.G)
}

// Invert returns the inverse matrix.
// Returns false if the matrix is singular (non-invertible).
func (m Matrix) Invert() (Matrix, bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 || math.IsNaN(det) {
		return Matrix{}, false
	}

	invDet := 1.0 / det
	return Matrix{
		A: (m.E*m.I - m.F*m.H) * invDet,
		B: (m.C*m.H - m.B*m.I) * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: (m.F*m.G - m.D*m.I) * invDet,
		E: (m.A*m.I - m.C*m.G) * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
		G: (m.D*m.H - m.E*m.G) * invDet,
		H: (m.B*m.G - m.A*m.H) * invDet,
		I: (m.A*m.E - m.B*m.D) * invDet,
	}, true
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// IsAffine reports whether the bottom row is exactly [0 0 1].
func (m Matrix) IsAffine() bool {
	return m.G == 0 && m.H == 0 && m.I == 1
}

// IsFinite reports whether every entry is a finite number.
func (m Matrix) IsFinite() bool {
	for _, v := range m.Rows() {
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

// Rows returns the matrix as a row-major array.
func (m Matrix) Rows() [3][3]float64 {
	return [3][3]float64{
		{m.A, m.B, m.C},
		{m.D, m.E, m.F},
		{m.G, m.H, m.I},
	}
}

// Aff3 returns the top two rows in the layout used by
// golang.org/x/image/draw, which maps source to destination coordinates.
func (m Matrix) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// String formats the matrix on one line, row by row.
func (m Matrix) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]",
		m.A, m.B, m.C, m.D, m.E, m.F, m.G, m.H, m.I)
}
