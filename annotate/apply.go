package annotate

import (
	"log/slog"

	"github.com/gogpu/geotape"
)

// Annotation is a labelled box, polygon, or both.
type Annotation struct {
	Label   string  `json:"label" yaml:"label"`
	Box     *Box    `json:"box,omitempty" yaml:"box,omitempty"`
	Polygon Polygon `json:"polygon,omitempty" yaml:"polygon,omitempty"`
}

// Apply maps every annotation through the composed transform and drops
// the ones that end up entirely off the canvas. When an annotation has a
// polygon, its box is recomputed from the transformed polygon, which is
// tighter than transforming the box corners under rotation or shear.
func Apply(res geotape.Result, anns []Annotation) []Annotation {
	canvas := res.Size()
	out := make([]Annotation, 0, len(anns))
	for _, a := range anns {
		t, ok := transform(res.Matrix, a, canvas)
		if !ok {
			geotape.Logger().Debug("annotate: dropping annotation outside canvas",
				slog.String("label", a.Label))
			continue
		}
		out = append(out, t)
	}
	return out
}

func transform(m geotape.Matrix, a Annotation, canvas geotape.Size) (Annotation, bool) {
	t := Annotation{Label: a.Label}
	if len(a.Polygon) > 0 {
		poly, ok := TransformPolygon(m, a.Polygon, canvas)
		if !ok {
			return Annotation{}, false
		}
		t.Polygon = poly
		if a.Box != nil {
			b := poly.Bounds()
			t.Box = &b
		}
		return t, true
	}
	if a.Box == nil {
		return Annotation{}, false
	}
	b, ok := TransformBox(m, *a.Box, canvas)
	if !ok {
		return Annotation{}, false
	}
	t.Box = &b
	return t, true
}
