package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/geotape"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// compose loads path with a test-only prefix so the process environment
// cannot leak into the result.
func compose(t *testing.T, path, prefix string, w, h int) geotape.Result {
	t.Helper()
	cfg, err := load(path, prefix)
	if err != nil {
		t.Fatalf("load(%s): %v", path, err)
	}
	res, err := geotape.Compose(cfg, w, h)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return res
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "ops.yaml", `
rotate:
  enabled: true
  angle_degrees: 90
flip:
  enabled: true
  horizontal: "yes"
`},
		{"json", "ops.json", `{"rotate": {"enabled": true, "angle_degrees": 90},
 "flip": {"enabled": true, "horizontal": true}}`},
		{"toml", "ops.toml", `
[rotate]
enabled = true
angle_degrees = 90

[flip]
enabled = true
horizontal = true
`},
		{"wrapped", "ops.yml", `
schema_version: v1
operations:
  rotate: {enabled: true, angle_degrees: 90}
  flip: {enabled: true, horizontal: true}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compose(t, writeFile(t, tt.file, tt.content), "GEOTAPE_TEST_NONE_", 200, 100)
			if res.Width != 100 || res.Height != 200 {
				t.Errorf("canvas = %dx%d, want 100x200", res.Width, res.Height)
			}
			// Rotate 90° clockwise sends (0, 0) to (100, 0); the horizontal
			// flip then sends it to (0, 0).
			if p := res.Matrix.TransformPoint(geotape.Pt(0, 0)); p.Distance(geotape.Pt(0, 0)) > 1e-9 {
				t.Errorf("origin maps to %v, want (0, 0)", p)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "ops.yaml", `
rotate:
  enabled: true
  angle_degrees: 0
`)
	t.Setenv("GEOTAPE_ENVTEST_ROTATE__ANGLE_DEGREES", "90")
	t.Setenv("GEOTAPE_ENVTEST_FLIP__ENABLED", "true")
	t.Setenv("GEOTAPE_ENVTEST_FLIP__VERTICAL", "1")
	t.Setenv("GEOTAPE_ENVTEST_IGNORED", "x")

	cfg, err := load(path, "GEOTAPE_ENVTEST_")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cfg["ignored"]; ok {
		t.Error("variable without a parameter part was loaded")
	}
	tape, err := geotape.Resolve(cfg, 200, 100)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(tape) != 2 {
		t.Fatalf("tape = %v, want rotate and flip", tape)
	}
	if r, ok := tape[0].(geotape.Rotate); !ok || r.AngleDegrees != 90 {
		t.Errorf("tape[0] = %v, want rotate 90", tape[0])
	}
	if f, ok := tape[1].(geotape.Flip); !ok || !f.Vertical || f.Horizontal {
		t.Errorf("tape[1] = %v, want vertical flip", tape[1])
	}
}

func TestLoadWrappedEnvOverrides(t *testing.T) {
	path := writeFile(t, "ops.yaml", `
schema_version: v1
operations:
  shear: {enabled: true, angle_degrees: 10}
`)
	t.Setenv("GEOTAPE_WRAPTEST_SHEAR__ANGLE_DEGREES", "20")
	cfg, err := load(path, "GEOTAPE_WRAPTEST_")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cfg["schema_version"]; ok {
		t.Error("schema_version leaked into the operation table")
	}
	tape, err := geotape.Resolve(cfg, 10, 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s, ok := tape[0].(geotape.Shear); !ok || s.AngleDegrees != 20 {
		t.Errorf("tape = %v, want shear 20", tape)
	}
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("GEOTAPE_ONLYTEST_RESIZE__ENABLED", "on")
	t.Setenv("GEOTAPE_ONLYTEST_RESIZE__WIDTH", "50")
	t.Setenv("GEOTAPE_ONLYTEST_RESIZE__HEIGHT", "25")
	res := compose(t, "", "GEOTAPE_ONLYTEST_", 100, 50)
	if res.Width != 50 || res.Height != 25 {
		t.Errorf("canvas = %dx%d, want 50x25", res.Width, res.Height)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{"unsupported extension", func(t *testing.T) string { return writeFile(t, "ops.ini", "x=1") }, ErrUnsupportedFormat},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") }, os.ErrNotExist},
		{"bad schema", func(t *testing.T) string { return writeFile(t, "ops.yaml", "schema_version: v2\n") }, nil},
		{"bad toml", func(t *testing.T) string { return writeFile(t, "ops.toml", "[rotate\n") }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.path(t), "GEOTAPE_TEST_NONE_")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTOMLParserRoundTrip(t *testing.T) {
	p := TOML()
	out, err := p.Marshal(map[string]interface{}{"crop": map[string]interface{}{"percent": 50.0}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	m, err := p.Unmarshal(out)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	crop, ok := m["crop"].(map[string]interface{})
	if !ok || crop["percent"] != 50.0 {
		t.Errorf("round trip = %v", m)
	}
}
