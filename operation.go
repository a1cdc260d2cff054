package geotape

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Kind names a geometric operation.
type Kind string

// The seven geometric operation kinds.
const (
	KindResize          Kind = "resize"
	KindCrop            Kind = "crop"
	KindRotate          Kind = "rotate"
	KindFlip            Kind = "flip"
	KindRandomZoom      Kind = "random_zoom"
	KindAffineTransform Kind = "affine_transform"
	KindShear           Kind = "shear"
)

// CanonicalOrder returns the fixed application order of the geometric
// kinds. Resizing comes first so that percent crops and center rotations
// act on a known canvas. The returned slice is a fresh copy.
func CanonicalOrder() []Kind {
	return []Kind{
		KindResize,
		KindCrop,
		KindRotate,
		KindFlip,
		KindRandomZoom,
		KindAffineTransform,
		KindShear,
	}
}

// IsGeometric reports whether k is one of the seven geometric kinds.
func (k Kind) IsGeometric() bool {
	switch k {
	case KindResize, KindCrop, KindRotate, KindFlip,
		KindRandomZoom, KindAffineTransform, KindShear:
		return true
	}
	return false
}

// Operation is a single validated geometric operation.
// The concrete types in this package are immutable values.
type Operation interface {
	Kind() Kind
	String() string
}

// ResizeMode selects how a resize fits the content into the target box.
type ResizeMode string

// Resize modes.
const (
	// ResizeStretch scales each axis independently.
	ResizeStretch ResizeMode = "stretch_to"
	// ResizeFit scales uniformly to fit inside the box and letterboxes.
	ResizeFit ResizeMode = "fit_within"
	// ResizeFill scales uniformly to cover the box and center-crops.
	ResizeFill ResizeMode = "fill_center_crop"
	// ResizeFitReflect has the geometry of ResizeFit; the empty border is
	// filled by reflection at resample time.
	ResizeFitReflect ResizeMode = "fit_reflect_edges"
)

func (m ResizeMode) valid() bool {
	switch m {
	case ResizeStretch, ResizeFit, ResizeFill, ResizeFitReflect:
		return true
	}
	return false
}

// CropMode selects where a crop window is anchored.
type CropMode string

// Crop modes.
const (
	CropCenter      CropMode = "center"
	CropRandom      CropMode = "random"
	CropTopLeft     CropMode = "top_left"
	CropTopRight    CropMode = "top_right"
	CropBottomLeft  CropMode = "bottom_left"
	CropBottomRight CropMode = "bottom_right"
	// CropBox cuts an explicit pixel rectangle.
	CropBox CropMode = "box"
)

func (m CropMode) valid() bool {
	switch m {
	case CropCenter, CropRandom, CropTopLeft, CropTopRight,
		CropBottomLeft, CropBottomRight, CropBox:
		return true
	}
	return false
}

// Seed drives the pseudo-random draw of random_zoom and random crops.
// The draw is a pure function of Value. Explicit is false when the caller
// supplied no seed and the resolver picked one, in which case results are
// not reproducible across resolutions.
type Seed struct {
	Value    uint64
	Explicit bool
}

// FixedSeed returns an explicit, reproducible seed.
func FixedSeed(v uint64) Seed {
	return Seed{Value: v, Explicit: true}
}

func freshSeed() Seed {
	return Seed{Value: rand.Uint64()}
}

// rng returns a generator keyed on the seed and a per-kind stream, so two
// operations sharing a seed still draw independently.
func (s Seed) rng(k Kind) *rand.Rand {
	var stream uint64
	for _, c := range []byte(k) {
		stream = stream*131 + uint64(c)
	}
	return rand.New(rand.NewPCG(s.Value, stream))
}

func (s Seed) String() string {
	if s.Explicit {
		return fmt.Sprintf("seed=%d", s.Value)
	}
	return fmt.Sprintf("seed=~%d", s.Value)
}

// Resize scales the canvas to Width x Height.
type Resize struct {
	Width, Height int
	Mode          ResizeMode
}

func (Resize) Kind() Kind { return KindResize }

func (o Resize) String() string {
	return fmt.Sprintf("resize(%dx%d %s)", o.Width, o.Height, o.Mode)
}

// Rect is an integer pixel rectangle with origin (X, Y).
type Rect struct {
	X, Y, Width, Height int
}

// Crop cuts a window out of the current canvas. Percent applies to both
// axes in anchored and random modes; Box is used by CropBox.
type Crop struct {
	Mode    CropMode
	Percent float64
	Box     Rect
	Seed    Seed
}

func (Crop) Kind() Kind { return KindCrop }

func (o Crop) String() string {
	switch o.Mode {
	case CropBox:
		return fmt.Sprintf("crop(box %d,%d %dx%d)", o.Box.X, o.Box.Y, o.Box.Width, o.Box.Height)
	case CropRandom:
		return fmt.Sprintf("crop(random %v%% %s)", o.Percent, o.Seed)
	default:
		return fmt.Sprintf("crop(%s %v%%)", o.Mode, o.Percent)
	}
}

// Rotate turns the canvas about its center and expands it to fit.
type Rotate struct {
	AngleDegrees float64
}

func (Rotate) Kind() Kind { return KindRotate }

func (o Rotate) String() string { return fmt.Sprintf("rotate(%v°)", o.AngleDegrees) }

// Flip mirrors the canvas about its center lines.
type Flip struct {
	Horizontal, Vertical bool
}

func (Flip) Kind() Kind { return KindFlip }

func (o Flip) String() string { return fmt.Sprintf("flip(h=%t v=%t)", o.Horizontal, o.Vertical) }

// RandomZoom scales content about the canvas center without changing the
// canvas. A non-zero Factor is used as is; otherwise a factor is drawn
// uniformly from [Min, Max] using Seed.
type RandomZoom struct {
	Factor   float64
	Min, Max float64
	Seed     Seed
}

func (RandomZoom) Kind() Kind { return KindRandomZoom }

func (o RandomZoom) String() string {
	if o.Factor != 0 {
		return fmt.Sprintf("random_zoom(x%v)", o.Factor)
	}
	return fmt.Sprintf("random_zoom([%v,%v] %s)", o.Min, o.Max, o.Seed)
}

// AffineTransform applies Translate(TX,TY)·Rotate·Scale about the canvas
// center.
type AffineTransform struct {
	Scale        float64
	AngleDegrees float64
	TX, TY       float64
}

func (AffineTransform) Kind() Kind { return KindAffineTransform }

func (o AffineTransform) String() string {
	return fmt.Sprintf("affine_transform(s=%v a=%v° t=%v,%v)", o.Scale, o.AngleDegrees, o.TX, o.TY)
}

// Shear skews the canvas horizontally about its center.
type Shear struct {
	AngleDegrees float64
}

func (Shear) Kind() Kind { return KindShear }

func (o Shear) String() string { return fmt.Sprintf("shear(%v°)", o.AngleDegrees) }

// Tape is a canonically ordered sequence of operations.
type Tape []Operation

// Kinds returns the kind of every operation, in tape order.
func (t Tape) Kinds() []Kind {
	kinds := make([]Kind, len(t))
	for i, op := range t {
		kinds[i] = op.Kind()
	}
	return kinds
}

// Key returns a deterministic fingerprint of the tape.
// Equal keys imply equal matrices for the same original size.
func (t Tape) Key() string {
	var sb strings.Builder
	for i, op := range t {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}

// Reproducible reports whether every random draw on the tape is keyed on an
// explicit seed.
func (t Tape) Reproducible() bool {
	for _, op := range t {
		switch o := op.(type) {
		case Crop:
			if o.Mode == CropRandom && !o.Seed.Explicit {
				return false
			}
		case RandomZoom:
			if o.Factor == 0 && !o.Seed.Explicit {
				return false
			}
		}
	}
	return true
}

func (t Tape) String() string { return "[" + t.Key() + "]" }
