package geotape

import (
	"context"
	"log/slog"
	"math"
)

// BorderMode tells the resampler how to fill canvas areas that no source
// pixel maps to. It never changes the matrix.
type BorderMode uint8

const (
	// BorderConstant fills uncovered pixels with a constant color.
	BorderConstant BorderMode = iota
	// BorderReflect mirrors the source at its edges.
	BorderReflect
)

// String returns a string representation of the border mode.
func (b BorderMode) String() string {
	switch b {
	case BorderConstant:
		return "constant"
	case BorderReflect:
		return "reflect"
	default:
		return "unknown"
	}
}

// Result is a composed transform: the matrix mapping original image
// coordinates to output coordinates and the output canvas size.
// Image pixels and annotation vertices must both go through Matrix.
type Result struct {
	Matrix Matrix
	Width  int
	Height int
	Border BorderMode
}

// Size returns the output canvas size.
func (r Result) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Compose resolves cfg with the canonical order and builds the result.
func Compose(cfg Config, width, height int) (Result, error) {
	tape, err := Resolve(cfg, width, height)
	if err != nil {
		return Result{}, err
	}
	return Build(tape, width, height)
}

// Build folds the tape into a single matrix. Each operation's elementary
// matrix E is computed from the canvas size produced by the previous
// operation and pre-multiplied onto the running matrix (M = E·M), so
// points map as p' = M·p through every operation in tape order.
//
// Build fails on the first invalid or degenerate operation and never
// returns a partial result.
func Build(tape Tape, width, height int) (Result, error) {
	if width <= 0 || height <= 0 {
		return Result{}, degenerate("input", width, height, "original canvas must be positive")
	}

	res := Result{Matrix: Identity(), Width: width, Height: height}
	log := Logger()
	debug := log.Enabled(context.Background(), slog.LevelDebug)
	for i, op := range tape {
		if op == nil {
			return Result{}, &InvalidOperationError{}
		}
		e, w, h, err := elementary(op, res.Width, res.Height)
		if err != nil {
			return Result{}, err
		}
		if w <= 0 || h <= 0 {
			return Result{}, degenerate(op.Kind(), w, h, "canvas collapsed")
		}
		res.Matrix = e.Multiply(res.Matrix)
		res.Width, res.Height = w, h
		if r, ok := op.(Resize); ok && r.Mode == ResizeFitReflect {
			res.Border = BorderReflect
		}

		if debug {
			log.Debug("geotape: step",
				slog.Int("index", i),
				slog.String("op", op.String()),
				slog.String("elementary", e.String()),
				slog.Int("width", w),
				slog.Int("height", h))
		}
	}
	return res, nil
}

// elementary returns the matrix of a single operation acting on a w x h
// canvas, plus the canvas size it produces.
func elementary(op Operation, w, h int) (Matrix, int, int, error) {
	switch o := op.(type) {
	case Resize:
		return resizeMatrix(o, w, h)
	case Crop:
		return cropMatrix(o, w, h)
	case Rotate:
		return rotateMatrix(o, w, h)
	case Flip:
		return flipMatrix(o, w, h), w, h, nil
	case RandomZoom:
		return zoomMatrix(o, w, h)
	case AffineTransform:
		return affineMatrix(o, w, h)
	case Shear:
		return shearMatrix(o, w, h)
	}
	return Matrix{}, 0, 0, &InvalidOperationError{Kind: op.Kind()}
}

func resizeMatrix(o Resize, w, h int) (Matrix, int, int, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return Matrix{}, 0, 0, degenerate(KindResize, o.Width, o.Height, "target size must be positive")
	}
	tw, th := float64(o.Width), float64(o.Height)
	sx, sy := tw/float64(w), th/float64(h)

	var s float64
	switch o.Mode {
	case ResizeStretch, "":
		return Scale(sx, sy), o.Width, o.Height, nil
	case ResizeFit, ResizeFitReflect:
		s = math.Min(sx, sy)
	case ResizeFill:
		s = math.Max(sx, sy)
	default:
		return Matrix{}, 0, 0, invalidParam(KindResize, "mode", string(o.Mode), "unknown resize mode")
	}

	cw, ch := roundHalfAway(float64(w)*s), roundHalfAway(float64(h)*s)
	if cw <= 0 || ch <= 0 {
		return Matrix{}, 0, 0, degenerate(KindResize, cw, ch, "scaled content is empty")
	}
	// Letterbox (fit) or center-crop (fill): the offset is negative when
	// the content overhangs the target.
	dx, dy := (tw-float64(cw))/2, (th-float64(ch))/2
	return Translate(dx, dy).Multiply(Scale(s, s)), o.Width, o.Height, nil
}

func cropMatrix(o Crop, w, h int) (Matrix, int, int, error) {
	if o.Mode == CropBox {
		b := o.Box
		if b.Width <= 0 || b.Height <= 0 {
			return Matrix{}, 0, 0, degenerate(KindCrop, b.Width, b.Height, "crop box is empty")
		}
		if b.X < 0 || b.Y < 0 || b.X+b.Width > w || b.Y+b.Height > h {
			return Matrix{}, 0, 0, invalidParam(KindCrop, "box", b, "exceeds %dx%d canvas", w, h)
		}
		return Translate(-float64(b.X), -float64(b.Y)), b.Width, b.Height, nil
	}

	if !finite(o.Percent) || o.Percent < 0 || o.Percent > 100 {
		return Matrix{}, 0, 0, invalidParam(KindCrop, "percent", o.Percent, "must be within [0, 100]")
	}
	cw := roundHalfAway(float64(w) * o.Percent / 100)
	ch := roundHalfAway(float64(h) * o.Percent / 100)
	if cw <= 0 || ch <= 0 {
		return Matrix{}, 0, 0, degenerate(KindCrop, cw, ch, "crop window is empty")
	}

	freeX, freeY := float64(w-cw), float64(h-ch)
	var cx, cy float64
	switch o.Mode {
	case CropCenter, "":
		cx, cy = freeX/2, freeY/2
	case CropTopLeft:
	case CropTopRight:
		cx = freeX
	case CropBottomLeft:
		cy = freeY
	case CropBottomRight:
		cx, cy = freeX, freeY
	case CropRandom:
		rng := o.Seed.rng(KindCrop)
		cx = float64(rng.IntN(w - cw + 1))
		cy = float64(rng.IntN(h - ch + 1))
	default:
		return Matrix{}, 0, 0, invalidParam(KindCrop, "mode", string(o.Mode), "unknown crop mode")
	}
	return Translate(-cx, -cy), cw, ch, nil
}

func rotateMatrix(o Rotate, w, h int) (Matrix, int, int, error) {
	if !finite(o.AngleDegrees) {
		return Matrix{}, 0, 0, invalidParam(KindRotate, "angle_degrees", o.AngleDegrees, "must be finite")
	}
	size := Size{Width: w, Height: h}
	c := size.Center()
	r := About(rotationDegrees(o.AngleDegrees), c.X, c.Y)

	// Expand to the bounding box of the rotated corners and move its
	// top-left corner to the origin.
	corners := size.Corners()
	pts := make([]Point, len(corners))
	for i, p := range corners {
		pts[i] = r.TransformPoint(p)
	}
	minX, minY, maxX, maxY := bounds(pts)
	nw, nh := roundHalfAway(maxX-minX), roundHalfAway(maxY-minY)
	return Translate(-minX, -minY).Multiply(r), nw, nh, nil
}

func flipMatrix(o Flip, w, h int) Matrix {
	sx, sy, tx, ty := 1.0, 1.0, 0.0, 0.0
	if o.Horizontal {
		sx, tx = -1, float64(w)
	}
	if o.Vertical {
		sy, ty = -1, float64(h)
	}
	return Translate(tx, ty).Multiply(Scale(sx, sy))
}

func zoomMatrix(o RandomZoom, w, h int) (Matrix, int, int, error) {
	f := o.Factor
	if f == 0 {
		if !finite(o.Min) || !finite(o.Max) || o.Min < 0 || o.Max < o.Min {
			return Matrix{}, 0, 0, invalidParam(KindRandomZoom, "range", [2]float64{o.Min, o.Max}, "must be an ascending positive range")
		}
		f = o.Min + o.Seed.rng(KindRandomZoom).Float64()*(o.Max-o.Min)
	}
	switch {
	case !finite(f):
		return Matrix{}, 0, 0, invalidParam(KindRandomZoom, "factor", f, "must be finite")
	case f < 0:
		return Matrix{}, 0, 0, invalidParam(KindRandomZoom, "factor", f, "must be positive")
	case f == 0:
		return Matrix{}, 0, 0, degenerate(KindRandomZoom, w, h, "zoom factor is zero")
	}
	c := Size{Width: w, Height: h}.Center()
	return ScaleAt(f, f, c.X, c.Y), w, h, nil
}

func affineMatrix(o AffineTransform, w, h int) (Matrix, int, int, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{{"scale", o.Scale}, {"angle_degrees", o.AngleDegrees}, {"tx", o.TX}, {"ty", o.TY}} {
		if !finite(f.v) {
			return Matrix{}, 0, 0, invalidParam(KindAffineTransform, f.name, f.v, "must be finite")
		}
	}
	if o.Scale == 0 {
		return Matrix{}, 0, 0, degenerate(KindAffineTransform, w, h, "scale is zero")
	}
	c := Size{Width: w, Height: h}.Center()
	m := Translate(o.TX, o.TY).
		Multiply(rotationDegrees(o.AngleDegrees)).
		Multiply(Scale(o.Scale, o.Scale))
	return About(m, c.X, c.Y), w, h, nil
}

func shearMatrix(o Shear, w, h int) (Matrix, int, int, error) {
	if !finite(o.AngleDegrees) || math.Abs(o.AngleDegrees) >= 90 {
		return Matrix{}, 0, 0, invalidParam(KindShear, "angle_degrees", o.AngleDegrees, "must be within (-90, 90)")
	}
	c := Size{Width: w, Height: h}.Center()
	k := math.Tan(o.AngleDegrees * math.Pi / 180)
	return About(ShearMatrix(k, 0), c.X, c.Y), w, h, nil
}

// rotationDegrees builds a rotation matrix, exact for multiples of 90°.
func rotationDegrees(deg float64) Matrix {
	var sin, cos float64
	if q := math.Mod(deg, 90); q == 0 {
		switch n := int(math.Mod(deg/90, 4)+4) % 4; n {
		case 0:
			sin, cos = 0, 1
		case 1:
			sin, cos = 1, 0
		case 2:
			sin, cos = 0, -1
		case 3:
			sin, cos = -1, 0
		}
	} else {
		sin, cos = math.Sincos(deg * math.Pi / 180)
	}
	return Matrix{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
		G: 0, H: 0, I: 1,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
