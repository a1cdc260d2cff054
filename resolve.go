package geotape

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Config maps operation names to their raw parameter objects, as decoded
// from JSON, YAML or TOML. Every object carries an "enabled" flag; entries
// that are disabled, missing the flag, or not geometric are ignored.
//
//	geotape.Config{
//	    "resize": map[string]any{"enabled": true, "width": 640, "height": 640, "mode": "fit_within"},
//	    "flip":   map[string]any{"enabled": "true", "horizontal": true},
//	    "hue":    map[string]any{"enabled": true, "degrees": 20}, // ignored
//	}
type Config map[string]any

// Parameter defaults applied by the resolver.
const (
	DefaultCropPercent = 100.0
	DefaultZoomMin     = 1.0
	DefaultZoomMax     = 1.5
	DefaultScale       = 1.0
)

// Resolver turns a raw Config into a canonically ordered Tape.
// A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	order []Kind
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithOrder replaces the canonical order. Kinds left out of order are
// never placed on the tape. Intended for tests that exercise alternate
// orderings.
func WithOrder(order []Kind) ResolverOption {
	return func(r *Resolver) {
		r.order = append([]Kind(nil), order...)
	}
}

// NewResolver creates a resolver that uses CanonicalOrder unless
// overridden.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{order: CanonicalOrder()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Order returns a copy of the order the resolver applies.
func (r *Resolver) Order() []Kind {
	return append([]Kind(nil), r.order...)
}

var defaultResolver = NewResolver()

// Resolve builds a tape from cfg with the canonical order.
// See Resolver.Resolve.
func Resolve(cfg Config, width, height int) (Tape, error) {
	return defaultResolver.Resolve(cfg, width, height)
}

// Resolve validates and coerces every enabled geometric entry of cfg and
// returns them in the resolver's order. The original width and height
// supply the default resize target. The first invalid entry aborts
// resolution; no partial tape is returned.
func (r *Resolver) Resolve(cfg Config, width, height int) (Tape, error) {
	if width <= 0 || height <= 0 {
		return nil, degenerate("input", width, height, "original canvas must be positive")
	}

	seen := make(map[Kind]bool, len(r.order))
	tape := make(Tape, 0, len(r.order))
	for _, kind := range r.order {
		if !kind.IsGeometric() {
			return nil, &InvalidOperationError{Kind: kind}
		}
		if seen[kind] {
			return nil, fmt.Errorf("geotape: kind %q listed twice in order: %w", kind, ErrInvalidOperation)
		}
		seen[kind] = true

		raw, ok := cfg[string(kind)]
		if !ok || raw == nil {
			continue
		}
		m, ok := asMap(raw)
		if !ok {
			return nil, invalidParam(kind, "", raw, "expected an object, got %T", raw)
		}
		p := params{op: kind, raw: m}

		enabled, err := p.boolean(false, "enabled")
		if err != nil {
			return nil, err
		}
		if !enabled {
			Logger().Debug("geotape: skipping disabled operation", slog.String("op", string(kind)))
			continue
		}

		op, err := parseOperation(p, width, height)
		if err != nil {
			return nil, err
		}
		tape = append(tape, op)
	}

	if log := Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("geotape: resolved tape",
			slog.Int("ops", len(tape)),
			slog.String("tape", tape.Key()))
	}
	return tape, nil
}

func parseOperation(p params, width, height int) (Operation, error) {
	switch p.op {
	case KindResize:
		return parseResize(p, width, height)
	case KindCrop:
		return parseCrop(p)
	case KindRotate:
		a, err := p.number(0, "angle_degrees", "angle")
		if err != nil {
			return nil, err
		}
		return Rotate{AngleDegrees: a}, nil
	case KindFlip:
		h, err := p.boolean(false, "horizontal")
		if err != nil {
			return nil, err
		}
		v, err := p.boolean(false, "vertical")
		if err != nil {
			return nil, err
		}
		return Flip{Horizontal: h, Vertical: v}, nil
	case KindRandomZoom:
		return parseZoom(p)
	case KindAffineTransform:
		return parseAffine(p)
	case KindShear:
		a, err := p.number(0, "angle_degrees", "angle")
		if err != nil {
			return nil, err
		}
		if math.Abs(a) >= 90 {
			return nil, invalidParam(p.op, "angle_degrees", a, "must be within (-90, 90)")
		}
		return Shear{AngleDegrees: a}, nil
	}
	return nil, &InvalidOperationError{Kind: p.op}
}

func parseResize(p params, width, height int) (Operation, error) {
	w, err := p.integer(width, "width")
	if err != nil {
		return nil, err
	}
	h, err := p.integer(height, "height")
	if err != nil {
		return nil, err
	}
	if w < 0 {
		return nil, invalidParam(p.op, "width", w, "must not be negative")
	}
	if h < 0 {
		return nil, invalidParam(p.op, "height", h, "must not be negative")
	}
	mode, err := p.text(string(ResizeStretch), "mode", "format")
	if err != nil {
		return nil, err
	}
	if !ResizeMode(mode).valid() {
		return nil, invalidParam(p.op, "mode", mode, "unknown resize mode")
	}
	return Resize{Width: w, Height: h, Mode: ResizeMode(mode)}, nil
}

func parseCrop(p params) (Operation, error) {
	mode, err := p.text(string(CropCenter), "mode")
	if err != nil {
		return nil, err
	}
	c := Crop{Mode: CropMode(mode)}
	if !c.Mode.valid() {
		return nil, invalidParam(p.op, "mode", mode, "unknown crop mode")
	}

	if c.Mode == CropBox {
		bp := p
		if nested, ok, err := p.object("box"); err != nil {
			return nil, err
		} else if ok {
			bp = nested
		}
		if !bp.has("width") || !bp.has("height") {
			return nil, invalidParam(p.op, "box", nil, "box mode requires width and height")
		}
		fields := []*int{&c.Box.X, &c.Box.Y, &c.Box.Width, &c.Box.Height}
		for i, name := range []string{"x", "y", "width", "height"} {
			v, err := bp.integer(0, name)
			if err != nil {
				return nil, err
			}
			if v < 0 {
				return nil, invalidParam(p.op, name, v, "must not be negative")
			}
			*fields[i] = v
		}
		return c, nil
	}

	c.Percent, err = p.number(DefaultCropPercent, "percent")
	if err != nil {
		return nil, err
	}
	if c.Percent < 0 || c.Percent > 100 {
		return nil, invalidParam(p.op, "percent", c.Percent, "must be within [0, 100]")
	}
	if c.Mode == CropRandom {
		if c.Seed, err = p.seed(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func parseZoom(p params) (Operation, error) {
	z := RandomZoom{}
	if p.has("factor") {
		f, err := p.number(0, "factor")
		if err != nil {
			return nil, err
		}
		switch {
		case f < 0:
			return nil, invalidParam(p.op, "factor", f, "must be positive")
		case f == 0:
			return nil, degenerate(p.op, 0, 0, "zoom factor is zero")
		}
		z.Factor = f
		return z, nil
	}

	var err error
	if z.Min, err = p.number(DefaultZoomMin, "min", "min_zoom"); err != nil {
		return nil, err
	}
	if z.Max, err = p.number(DefaultZoomMax, "max", "max_zoom"); err != nil {
		return nil, err
	}
	if z.Min <= 0 {
		return nil, invalidParam(p.op, "min", z.Min, "must be positive")
	}
	if z.Max < z.Min {
		return nil, invalidParam(p.op, "max", z.Max, "must not be below min %v", z.Min)
	}
	if z.Seed, err = p.seed(); err != nil {
		return nil, err
	}
	return z, nil
}

func parseAffine(p params) (Operation, error) {
	var a AffineTransform
	var err error
	if a.Scale, err = p.number(DefaultScale, "scale"); err != nil {
		return nil, err
	}
	if a.AngleDegrees, err = p.number(0, "angle_degrees", "angle"); err != nil {
		return nil, err
	}
	if a.TX, err = p.number(0, "tx", "translate_x"); err != nil {
		return nil, err
	}
	if a.TY, err = p.number(0, "ty", "translate_y"); err != nil {
		return nil, err
	}
	return a, nil
}
