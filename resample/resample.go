// Package resample renders an image through a composed geotape transform.
//
// Affine results with a constant border go through the golang.org/x/image/draw
// kernels. Reflect borders and projective matrices use an inverse-mapping
// sampler that mirrors the source at its edges; that sampler supports
// Nearest and Bilinear, and falls back to Bilinear for the other kernels.
package resample

import (
	"errors"
	"image"
	"image/color"
	"math"
	"runtime"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/geotape"
	"github.com/gogpu/geotape/internal/parallel"
)

var (
	// ErrNilImage is returned when Warp is called without a source image.
	ErrNilImage = errors.New("resample: nil source image")

	// ErrInvalidDimensions is returned for empty source or output canvases.
	ErrInvalidDimensions = errors.New("resample: invalid dimensions")

	// ErrSingularMatrix is returned when the transform cannot be inverted.
	ErrSingularMatrix = errors.New("resample: singular matrix")
)

// parallelThreshold is the output pixel count above which the inverse
// sampler splits rows across workers.
const parallelThreshold = 256 * 256

type options struct {
	interp    Interpolation
	border    geotape.BorderMode
	borderSet bool
	fill      color.Color
	workers   int
}

// Option configures Warp.
type Option func(*options)

// WithInterpolation sets the sampling kernel. Default is Bilinear.
func WithInterpolation(i Interpolation) Option {
	return func(o *options) { o.interp = i }
}

// WithBorder overrides the border mode carried by the Result.
func WithBorder(b geotape.BorderMode) Option {
	return func(o *options) {
		o.border = b
		o.borderSet = true
	}
}

// WithFill sets the color of uncovered pixels under BorderConstant.
// Default is opaque black.
func WithFill(c color.Color) Option {
	return func(o *options) { o.fill = c }
}

// WithWorkers sets how many goroutines the inverse sampler may use.
// Zero picks GOMAXPROCS for large outputs; 1 disables parallelism.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Warp renders src onto a res.Width x res.Height canvas. Source coordinates
// are taken relative to src.Bounds().Min, so sub-images behave like the
// full image they were cut from.
func Warp(src image.Image, res geotape.Result, opts ...Option) (*image.RGBA, error) {
	if src == nil {
		return nil, ErrNilImage
	}
	o := options{interp: Bilinear, fill: color.Black}
	for _, opt := range opts {
		opt(&o)
	}
	border := res.Border
	if o.borderSet {
		border = o.border
	}

	sb := src.Bounds()
	if sb.Empty() || res.Width <= 0 || res.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !res.Matrix.IsFinite() {
		return nil, ErrSingularMatrix
	}

	// The composed matrix expects the source origin at (0, 0). Sub-images are
	// copied there rather than folded into the matrix: the x/image kernels
	// shortcut integer translations through Copy, which misplaces rows when
	// sr.Min.X != sr.Min.Y.
	if sb.Min != (image.Point{}) {
		src = toRGBA(src)
		sb = src.Bounds()
	}
	s2d := res.Matrix
	d2s, ok := s2d.Invert()
	if !ok {
		return nil, ErrSingularMatrix
	}

	dst := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	log := geotape.Logger()

	if border == geotape.BorderConstant && s2d.IsAffine() {
		xdraw.Draw(dst, dst.Bounds(), image.NewUniform(o.fill), image.Point{}, xdraw.Src)
		o.interp.kernel().Transform(dst, s2d.Aff3(), src, sb, xdraw.Src, nil)
		log.Debug("resample: kernel warp")
		return dst, nil
	}

	s := newSampler(src, border, o)
	rows := func(lo, hi int) {
		for y := lo; y < hi; y++ {
			for x := range res.Width {
				p := d2s.TransformPoint(geotape.Pt(float64(x)+0.5, float64(y)+0.5))
				dst.SetRGBA(x, y, s.at(p.X-0.5, p.Y-0.5))
			}
		}
	}

	workers := o.workers
	if workers == 0 {
		workers = 1
		if res.Width*res.Height >= parallelThreshold {
			workers = runtime.GOMAXPROCS(0)
		}
	}
	if workers <= 1 {
		rows(0, res.Height)
		return dst, nil
	}

	pool := parallel.NewPool(workers)
	defer pool.Close()
	bands := parallel.Bands(res.Height, workers*4)
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { rows(b[0], b[1]) }
	}
	pool.ExecuteAll(work)
	log.Debug("resample: inverse warp", "border", border.String(), "bands", len(bands))
	return dst, nil
}

// sampler reads a premultiplied RGBA copy of the source at continuous
// pixel positions, where integer coordinates are pixel centers.
type sampler struct {
	img     *image.RGBA
	w, h    int
	reflect bool
	nearest bool
	fill    color.RGBA
}

func newSampler(src image.Image, border geotape.BorderMode, o options) *sampler {
	sb := src.Bounds()
	img := toRGBA(src)
	r, g, b, a := o.fill.RGBA()
	return &sampler{
		img:     img,
		w:       sb.Dx(),
		h:       sb.Dy(),
		reflect: border == geotape.BorderReflect,
		nearest: o.interp == Nearest,
		fill:    color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)},
	}
}

func (s *sampler) at(x, y float64) color.RGBA {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return s.fill
	}
	if s.nearest {
		c, _ := s.pixel(int(math.Floor(x+0.5)), int(math.Floor(y+0.5)))
		return c
	}

	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	c00, in00 := s.pixel(ix, iy)
	c10, in10 := s.pixel(ix+1, iy)
	c01, in01 := s.pixel(ix, iy+1)
	c11, in11 := s.pixel(ix+1, iy+1)
	if !s.reflect && !in00 && !in10 && !in01 && !in11 {
		return s.fill
	}

	lerp := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-fx) + float64(b)*fx
		bot := float64(c)*(1-fx) + float64(d)*fx
		return uint8(math.Round(top*(1-fy) + bot*fy))
	}
	return color.RGBA{
		R: lerp(c00.R, c10.R, c01.R, c11.R),
		G: lerp(c00.G, c10.G, c01.G, c11.G),
		B: lerp(c00.B, c10.B, c01.B, c11.B),
		A: lerp(c00.A, c10.A, c01.A, c11.A),
	}
}

// pixel returns the source pixel at (x, y). Under a reflect border the
// coordinates are mirrored back into range; otherwise out-of-range pixels
// read as the fill color and in is false.
func (s *sampler) pixel(x, y int) (c color.RGBA, in bool) {
	if s.reflect {
		return s.img.RGBAAt(reflectIndex(x, s.w), reflectIndex(y, s.h)), true
	}
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return s.fill, false
	}
	return s.img.RGBAAt(x, y), true
}

// toRGBA returns src as an *image.RGBA whose bounds start at (0, 0),
// copying only when src is not already one.
func toRGBA(src image.Image) *image.RGBA {
	sb := src.Bounds()
	if img, ok := src.(*image.RGBA); ok && sb.Min == (image.Point{}) {
		return img
	}
	img := image.NewRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	xdraw.Draw(img, img.Bounds(), src, sb.Min, xdraw.Src)
	return img
}

// reflectIndex mirrors i into [0, n) including the edge pixel:
// ... 2 1 0 | 0 1 2 ... n-1 | n-1 n-2 ...
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
