package geotape

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func mustBuild(t *testing.T, tape Tape, w, h int) Result {
	t.Helper()
	res, err := Build(tape, w, h)
	if err != nil {
		t.Fatalf("Build(%v, %d, %d): %v", tape, w, h, err)
	}
	return res
}

func TestIdentityLaw(t *testing.T) {
	sizes := [][2]int{{1, 1}, {100, 100}, {640, 480}, {7, 3001}}
	for _, s := range sizes {
		res, err := Compose(Config{"hue": map[string]any{"enabled": true}}, s[0], s[1])
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if !res.Matrix.IsIdentity() {
			t.Errorf("%v: matrix = %v, want identity", s, res.Matrix)
		}
		if res.Width != s[0] || res.Height != s[1] {
			t.Errorf("%v: size = %dx%d", s, res.Width, res.Height)
		}
	}
}

func TestScenarioResizeStretch(t *testing.T) {
	res := mustBuild(t, Tape{Resize{Width: 50, Height: 50, Mode: ResizeStretch}}, 100, 100)
	if res.Matrix != Scale(0.5, 0.5) {
		t.Errorf("matrix = %v, want diag(0.5, 0.5, 1)", res.Matrix)
	}
	if res.Width != 50 || res.Height != 50 {
		t.Errorf("size = %dx%d, want 50x50", res.Width, res.Height)
	}
	if got := res.Matrix.TransformPoint(Pt(100, 100)); got != Pt(50, 50) {
		t.Errorf("(100,100) -> %v, want (50,50)", got)
	}
}

func TestScenarioFlipHorizontal(t *testing.T) {
	res := mustBuild(t, Tape{Flip{Horizontal: true}}, 100, 100)
	if got := res.Matrix.TransformPoint(Pt(10, 20)); got != Pt(90, 20) {
		t.Errorf("(10,20) -> %v, want (90,20)", got)
	}
	if res.Width != 100 || res.Height != 100 {
		t.Errorf("size = %dx%d, want 100x100", res.Width, res.Height)
	}

	res = mustBuild(t, Tape{Flip{Horizontal: true, Vertical: true}}, 100, 50)
	if got := res.Matrix.TransformPoint(Pt(10, 20)); got != Pt(90, 30) {
		t.Errorf("h+v flip (10,20) -> %v, want (90,30)", got)
	}
}

func TestScenarioCropCenter(t *testing.T) {
	res := mustBuild(t, Tape{Crop{Mode: CropCenter, Percent: 50}}, 200, 100)
	if res.Width != 100 || res.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", res.Width, res.Height)
	}
	if got := res.Matrix.TransformPoint(Pt(100, 50)); got != Pt(50, 25) {
		t.Errorf("(100,50) -> %v, want (50,25)", got)
	}
}

func TestScenarioRotate90(t *testing.T) {
	res := mustBuild(t, Tape{Rotate{AngleDegrees: 90}}, 100, 100)
	if res.Width != 100 || res.Height != 100 {
		t.Errorf("size = %dx%d, want 100x100", res.Width, res.Height)
	}
	if got := res.Matrix.TransformPoint(Pt(0, 0)); !pointNear(got, Pt(100, 0), epsilon) {
		t.Errorf("(0,0) -> %v, want (100,0)", got)
	}
}

func TestRotateExpandsCanvas(t *testing.T) {
	res := mustBuild(t, Tape{Rotate{AngleDegrees: 45}}, 100, 100)
	want := roundHalfAway(100 * math.Sqrt2)
	if res.Width != want || res.Height != want {
		t.Errorf("size = %dx%d, want %dx%d", res.Width, res.Height, want, want)
	}
	// Every rotated corner must land inside the expanded canvas.
	for _, c := range (Size{100, 100}).Corners() {
		p := res.Matrix.TransformPoint(c)
		if p.X < -epsilon || p.Y < -epsilon || p.X > float64(res.Width)+0.5 || p.Y > float64(res.Height)+0.5 {
			t.Errorf("corner %v -> %v outside %dx%d", c, p, res.Width, res.Height)
		}
	}

	res = mustBuild(t, Tape{Rotate{AngleDegrees: 90}}, 200, 100)
	if res.Width != 100 || res.Height != 200 {
		t.Errorf("90° on 200x100: size = %dx%d, want 100x200", res.Width, res.Height)
	}
}

func TestResizeModes(t *testing.T) {
	tests := []struct {
		name   string
		op     Resize
		in     Point
		want   Point
		border BorderMode
	}{
		// 200x100 into 100x100: s = 0.5, content 100x50 centered vertically.
		{"fit", Resize{100, 100, ResizeFit}, Pt(0, 0), Pt(0, 25), BorderConstant},
		{"fit reflect", Resize{100, 100, ResizeFitReflect}, Pt(0, 0), Pt(0, 25), BorderReflect},
		// s = 1, content 200x100 shifted left by 50.
		{"fill", Resize{100, 100, ResizeFill}, Pt(100, 50), Pt(50, 50), BorderConstant},
		{"stretch", Resize{100, 100, ResizeStretch}, Pt(200, 100), Pt(100, 100), BorderConstant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustBuild(t, Tape{tt.op}, 200, 100)
			if res.Width != 100 || res.Height != 100 {
				t.Errorf("size = %dx%d, want 100x100", res.Width, res.Height)
			}
			if got := res.Matrix.TransformPoint(tt.in); !pointNear(got, tt.want, epsilon) {
				t.Errorf("%v -> %v, want %v", tt.in, got, tt.want)
			}
			if res.Border != tt.border {
				t.Errorf("border = %v, want %v", res.Border, tt.border)
			}
		})
	}

	fit := mustBuild(t, Tape{Resize{100, 100, ResizeFit}}, 200, 100)
	reflect := mustBuild(t, Tape{Resize{100, 100, ResizeFitReflect}}, 200, 100)
	if fit.Matrix != reflect.Matrix {
		t.Errorf("fit_reflect_edges matrix %v differs from fit_within %v", reflect.Matrix, fit.Matrix)
	}
}

func TestCropAnchors(t *testing.T) {
	tests := []struct {
		mode CropMode
		want Point // where the original point (100, 100) lands
	}{
		{CropTopLeft, Pt(100, 100)},
		{CropTopRight, Pt(50, 100)},
		{CropBottomLeft, Pt(100, 50)},
		{CropBottomRight, Pt(50, 50)},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			res := mustBuild(t, Tape{Crop{Mode: tt.mode, Percent: 75}}, 200, 200)
			if res.Width != 150 || res.Height != 150 {
				t.Errorf("size = %dx%d, want 150x150", res.Width, res.Height)
			}
			if got := res.Matrix.TransformPoint(Pt(100, 100)); got != tt.want {
				t.Errorf("(100,100) -> %v, want %v", got, tt.want)
			}
		})
	}

	res := mustBuild(t, Tape{Crop{Mode: CropBox, Box: Rect{X: 10, Y: 20, Width: 30, Height: 40}}}, 100, 100)
	if res.Width != 30 || res.Height != 40 {
		t.Errorf("box size = %dx%d, want 30x40", res.Width, res.Height)
	}
	if got := res.Matrix.TransformPoint(Pt(10, 20)); got != Pt(0, 0) {
		t.Errorf("box origin -> %v, want (0,0)", got)
	}
}

func TestRandomCropSeeded(t *testing.T) {
	tape := Tape{Crop{Mode: CropRandom, Percent: 50, Seed: FixedSeed(99)}}
	first := mustBuild(t, tape, 400, 300)
	if first.Width != 200 || first.Height != 150 {
		t.Fatalf("size = %dx%d, want 200x150", first.Width, first.Height)
	}
	ox, oy := -first.Matrix.C, -first.Matrix.F
	if ox < 0 || ox > 200 || oy < 0 || oy > 150 || ox != math.Trunc(ox) || oy != math.Trunc(oy) {
		t.Errorf("crop origin (%v, %v) outside valid integer range", ox, oy)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Build(tape, 400, 300)
			if err != nil {
				t.Errorf("Build: %v", err)
				return
			}
			if res != first {
				t.Errorf("seeded crop not reproducible: %v vs %v", res.Matrix, first.Matrix)
			}
		}()
	}
	wg.Wait()
}

func TestRandomZoom(t *testing.T) {
	res := mustBuild(t, Tape{RandomZoom{Factor: 2}}, 100, 100)
	if got := res.Matrix.TransformPoint(Pt(50, 50)); got != Pt(50, 50) {
		t.Errorf("center moved to %v", got)
	}
	if got := res.Matrix.TransformPoint(Pt(75, 50)); got != Pt(100, 50) {
		t.Errorf("(75,50) -> %v, want (100,50)", got)
	}
	if res.Width != 100 || res.Height != 100 {
		t.Errorf("zoom changed size to %dx%d", res.Width, res.Height)
	}

	seeded := Tape{RandomZoom{Min: 1, Max: 2, Seed: FixedSeed(5)}}
	a := mustBuild(t, seeded, 100, 100)
	b := mustBuild(t, seeded, 100, 100)
	if a != b {
		t.Errorf("seeded zoom differs: %v vs %v", a.Matrix, b.Matrix)
	}
	if a.Matrix.A < 1 || a.Matrix.A > 2 {
		t.Errorf("drawn factor %v outside [1, 2]", a.Matrix.A)
	}
	other := mustBuild(t, Tape{RandomZoom{Min: 1, Max: 2, Seed: FixedSeed(6)}}, 100, 100)
	if other == a {
		t.Errorf("different seeds produced identical zoom %v", a.Matrix.A)
	}
}

func TestAffineAndShear(t *testing.T) {
	res := mustBuild(t, Tape{AffineTransform{Scale: 1, TX: 5, TY: -3}}, 100, 100)
	if got := res.Matrix.TransformPoint(Pt(10, 10)); !pointNear(got, Pt(15, 7), epsilon) {
		t.Errorf("translate-only affine (10,10) -> %v, want (15,7)", got)
	}

	res = mustBuild(t, Tape{AffineTransform{Scale: 2, AngleDegrees: 90}}, 100, 100)
	if got := res.Matrix.TransformPoint(Pt(50, 50)); !pointNear(got, Pt(50, 50), epsilon) {
		t.Errorf("affine moved the center to %v", got)
	}
	if got := res.Matrix.TransformPoint(Pt(60, 50)); !pointNear(got, Pt(50, 70), epsilon) {
		t.Errorf("affine (60,50) -> %v, want (50,70)", got)
	}

	res = mustBuild(t, Tape{Shear{AngleDegrees: 45}}, 100, 100)
	if got := res.Matrix.TransformPoint(Pt(50, 60)); !pointNear(got, Pt(60, 60), epsilon) {
		t.Errorf("shear (50,60) -> %v, want (60,60)", got)
	}
	if res.Width != 100 || res.Height != 100 {
		t.Errorf("shear changed size to %dx%d", res.Width, res.Height)
	}
}

func TestOrderSensitivity(t *testing.T) {
	rotate := Rotate{AngleDegrees: 30}
	crop := Crop{Mode: CropCenter, Percent: 50}

	a := mustBuild(t, Tape{rotate, crop}, 200, 100)
	b := mustBuild(t, Tape{crop, rotate}, 200, 100)
	if a.Matrix == b.Matrix {
		t.Errorf("rotate·crop and crop·rotate produced the same matrix %v", a.Matrix)
	}
}

func TestCompositionIsLeftMultiplication(t *testing.T) {
	tape := Tape{
		Resize{Width: 50, Height: 100, Mode: ResizeStretch},
		Flip{Horizontal: true},
	}
	res := mustBuild(t, tape, 100, 100)
	// Resize maps x=10 to 5, then the flip on the 50-wide canvas maps it
	// to 45.
	if got := res.Matrix.TransformPoint(Pt(10, 10)); got != Pt(45, 10) {
		t.Errorf("(10,10) -> %v, want (45,10)", got)
	}
	wrong := Scale(0.5, 1).Multiply(flipMatrix(Flip{Horizontal: true}, 50, 100))
	if wrong == res.Matrix {
		t.Error("composition matches right-multiplication")
	}
}

func TestInvertibility(t *testing.T) {
	tapes := []Tape{
		{Resize{Width: 37, Height: 91, Mode: ResizeStretch}},
		{Resize{Width: 300, Height: 200, Mode: ResizeFit}, Rotate{AngleDegrees: 17}},
		{Rotate{AngleDegrees: -33}, Flip{Horizontal: true, Vertical: true}, Shear{AngleDegrees: 20}},
		{AffineTransform{Scale: 0.7, AngleDegrees: 12, TX: 4, TY: -9}, Shear{AngleDegrees: -15}},
		{
			Resize{Width: 640, Height: 640, Mode: ResizeFill},
			Rotate{AngleDegrees: 5},
			Flip{Vertical: true},
			AffineTransform{Scale: 1.3, AngleDegrees: -40, TX: 10, TY: 10},
			Shear{AngleDegrees: 30},
		},
	}
	pts := []Point{{0, 0}, {123.5, 7.25}, {640, 480}, {-20, 900}}
	for i, tape := range tapes {
		res := mustBuild(t, tape, 640, 480)
		if d := res.Matrix.Determinant(); d == 0 {
			t.Errorf("tape %d: determinant is zero", i)
		}
		if !res.Matrix.IsAffine() {
			t.Errorf("tape %d: bottom row %v %v %v", i, res.Matrix.G, res.Matrix.H, res.Matrix.I)
		}
		inv, ok := res.Matrix.Invert()
		if !ok {
			t.Fatalf("tape %d: matrix not invertible", i)
		}
		for _, p := range pts {
			back := inv.TransformPoint(res.Matrix.TransformPoint(p))
			if !pointNear(back, p, 1e-6) {
				t.Errorf("tape %d: %v round-trips to %v", i, p, back)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	cfg := Config{
		"resize":           map[string]any{"enabled": true, "width": 320, "height": 320, "mode": "fit_within"},
		"crop":             map[string]any{"enabled": true, "mode": "random", "percent": 80, "seed": 3},
		"rotate":           map[string]any{"enabled": true, "angle_degrees": 12},
		"random_zoom":      map[string]any{"enabled": true, "seed": 11},
		"affine_transform": map[string]any{"enabled": true, "scale": 0.9, "angle": 4},
	}
	first, err := Compose(cfg, 1024, 768)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i := 0; i < 10; i++ {
		res, err := Compose(cfg, 1024, 768)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if res != first {
			t.Fatalf("run %d: %+v, want %+v", i, res, first)
		}
	}
}

type bogusOp struct{}

func (bogusOp) Kind() Kind     { return "perspective" }
func (bogusOp) String() string { return "perspective()" }

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		tape Tape
		want error
	}{
		{"unknown op", Tape{Flip{}, bogusOp{}}, ErrInvalidOperation},
		{"nil op", Tape{nil}, ErrInvalidOperation},
		{"zero resize", Tape{Resize{Width: 0, Height: 10}}, ErrDegenerateTransform},
		{"negative resize", Tape{Resize{Width: -3, Height: 10}}, ErrDegenerateTransform},
		{"unknown resize mode", Tape{Resize{Width: 3, Height: 10, Mode: "squash"}}, ErrInvalidParameter},
		{"fit collapses", Tape{Resize{Width: 10, Height: 10, Mode: ResizeFit}}, ErrDegenerateTransform},
		{"zero crop", Tape{Crop{Mode: CropCenter, Percent: 0}}, ErrDegenerateTransform},
		{"tiny crop", Tape{Crop{Mode: CropCenter, Percent: 0.01}}, ErrDegenerateTransform},
		{"nan crop", Tape{Crop{Mode: CropCenter, Percent: math.NaN()}}, ErrInvalidParameter},
		{"box outside", Tape{Crop{Mode: CropBox, Box: Rect{X: 990, Width: 20, Height: 1}}}, ErrInvalidParameter},
		{"empty box", Tape{Crop{Mode: CropBox, Box: Rect{Width: 0, Height: 3}}}, ErrDegenerateTransform},
		{"inf rotate", Tape{Rotate{AngleDegrees: math.Inf(1)}}, ErrInvalidParameter},
		{"zero zoom", Tape{RandomZoom{}}, ErrDegenerateTransform},
		{"negative zoom", Tape{RandomZoom{Factor: -1}}, ErrInvalidParameter},
		{"zero affine scale", Tape{AffineTransform{Scale: 0}}, ErrDegenerateTransform},
		{"nan affine tx", Tape{AffineTransform{Scale: 1, TX: math.NaN()}}, ErrInvalidParameter},
		{"vertical shear", Tape{Shear{AngleDegrees: -90}}, ErrInvalidParameter},
	}
	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Build(tt.tape, 1000, 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build err = %v, want %v", err, tt.want)
			}
			if res != (Result{}) {
				t.Errorf("Build returned partial result %+v", res)
			}

			res, err = eng.Build(tt.tape, 1000, 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Engine.Build err = %v, want %v", err, tt.want)
			}
			if res != (Result{}) {
				t.Errorf("Engine.Build returned partial result %+v", res)
			}
		})
	}

	if _, err := Build(nil, 0, 5); !errors.Is(err, ErrDegenerateTransform) {
		t.Errorf("Build with zero width err = %v", err)
	}
}
