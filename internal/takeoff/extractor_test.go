package takeoff

import (
	"math"
	"strings"
	"testing"

	"github.com/takeoff-data/wallquant/internal/cad"
	"github.com/takeoff-data/wallquant/internal/geom"
)

func extract(t *testing.T, d *cad.Drawing, opts ExtractOptions) *Extraction {
	t.Helper()
	return NewExtractor(opts).Extract(d)
}

func TestExtract_Line(t *testing.T) {
	d := &cad.Drawing{
		Lines: []cad.Line{
			{Layer: "A-WALL-EXT", Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 3000, Y: 4000}},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
	}

	seg := ex.Segments[0]
	if seg.Kind != cad.KindLine {
		t.Errorf("expected kind LINE, got %s", seg.Kind)
	}
	if seg.UID != "seg_00001" {
		t.Errorf("expected uid seg_00001, got %s", seg.UID)
	}
	if math.Abs(seg.Length-5000) > 1e-9 {
		t.Errorf("expected length 5000, got %v", seg.Length)
	}
	if len(seg.Vertices) != 0 {
		t.Errorf("two-point line should carry no vertex list, got %d", len(seg.Vertices))
	}
	if ex.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestExtract_PolylineLengthAndEndpoints(t *testing.T) {
	d := &cad.Drawing{
		Polylines: []cad.Polyline{
			{Layer: "A-WALL", Vertices: []geom.Vec2{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 500}}},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
	}

	seg := ex.Segments[0]
	if math.Abs(seg.Length-1500) > 1e-9 {
		t.Errorf("expected length 1500, got %v", seg.Length)
	}
	if seg.Start != seg.Vertices[0] || seg.End != seg.Vertices[len(seg.Vertices)-1] {
		t.Error("start/end must equal first/last vertex")
	}
}

func TestExtract_PolylineTooShortDropped(t *testing.T) {
	d := &cad.Drawing{
		Polylines: []cad.Polyline{
			{Layer: "A-WALL", Vertices: []geom.Vec2{{X: 5, Y: 5}}},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 0 {
		t.Fatalf("expected single-vertex polyline to be dropped, got %d segments", len(ex.Segments))
	}
}

func TestExtract_ArcAnalyticLength(t *testing.T) {
	// Quarter arc, radius 1000: analytic length is 500*pi.
	d := &cad.Drawing{
		Arcs: []cad.Arc{
			{Layer: "A-WALL", Center: geom.Vec2{}, Radius: 1000, StartAngle: 0, EndAngle: 90},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
	}

	seg := ex.Segments[0]
	want := 1000 * math.Pi / 2
	if math.Abs(seg.Length-want) > 1e-9 {
		t.Errorf("expected analytic arc length %.4f, got %.4f", want, seg.Length)
	}
	// 90 degrees at 11.25 degrees per segment would be 8 segments; the
	// minimum is also 8, so expect 9 vertices.
	if len(seg.Vertices) != 9 {
		t.Errorf("expected 9 tessellation vertices, got %d", len(seg.Vertices))
	}
	if seg.Start != seg.Vertices[0] || seg.End != seg.Vertices[len(seg.Vertices)-1] {
		t.Error("start/end must equal first/last vertex")
	}
}

func TestExtract_ArcNegativeSpanNormalized(t *testing.T) {
	// Start 350, end 10: raw span is -340, normalized to +20 degrees.
	d := &cad.Drawing{
		Arcs: []cad.Arc{
			{Layer: "A-WALL", Center: geom.Vec2{}, Radius: 100, StartAngle: 350, EndAngle: 10},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
	}

	want := 100 * 20 * math.Pi / 180
	if math.Abs(ex.Segments[0].Length-want) > 1e-9 {
		t.Errorf("expected length %.4f for normalized span, got %.4f", want, ex.Segments[0].Length)
	}
}

func TestExtract_DegenerateArcSkippedWithWarning(t *testing.T) {
	d := &cad.Drawing{
		Arcs: []cad.Arc{
			{Layer: "A-WALL", Center: geom.Vec2{}, Radius: 0, StartAngle: 0, EndAngle: 90},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 0 {
		t.Fatalf("expected degenerate arc to be skipped, got %d segments", len(ex.Segments))
	}
	if len(ex.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(ex.Warnings))
	}
}

func TestExtract_CircleCircumference(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
	}{
		{"small", 50},
		{"large", 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &cad.Drawing{
				Circles: []cad.Circle{{Layer: "A-WALL", Center: geom.Vec2{X: 10, Y: 10}, Radius: tt.radius}},
			}

			ex := extract(t, d, ExtractOptions{})
			if len(ex.Segments) != 1 {
				t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
			}

			seg := ex.Segments[0]
			want := 2 * math.Pi * tt.radius
			if math.Abs(seg.Length-want) > 1e-9 {
				t.Errorf("expected circumference %.4f regardless of tessellation, got %.4f", want, seg.Length)
			}
			if len(seg.Vertices) != 33 {
				t.Errorf("expected 33 polygon vertices, got %d", len(seg.Vertices))
			}
		})
	}
}

func TestExtract_SplineUsesControlPoints(t *testing.T) {
	points := []geom.Vec2{{X: 0, Y: 0}, {X: 100, Y: 50}, {X: 200, Y: 0}}
	d := &cad.Drawing{
		Splines: []cad.Spline{{Layer: "A-WALL", ControlPoints: points}},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
	}

	seg := ex.Segments[0]
	if len(seg.Vertices) != 3 {
		t.Errorf("expected control points used directly, got %d vertices", len(seg.Vertices))
	}
	if math.Abs(seg.Length-polylineLength(points)) > 1e-9 {
		t.Errorf("expected chord-sum length over control points")
	}
}

func TestExtract_LayerPrefixFilter(t *testing.T) {
	d := &cad.Drawing{
		Lines: []cad.Line{
			{Layer: "A-WALL-EXT", End: geom.Vec2{X: 100, Y: 0}},
			{Layer: "A-DOOR", End: geom.Vec2{X: 100, Y: 0}},
			{Layer: "A-WALL-INT", End: geom.Vec2{X: 100, Y: 0}},
		},
	}

	ex := extract(t, d, ExtractOptions{LayerPrefix: "A-WALL"})
	if len(ex.Segments) != 2 {
		t.Fatalf("expected 2 segments after filtering, got %d", len(ex.Segments))
	}
	if len(ex.Warnings) != 0 {
		t.Errorf("filtered layers must not produce warnings, got %v", ex.Warnings)
	}

	// An empty prefix extracts everything.
	ex = extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 3 {
		t.Fatalf("expected 3 segments without filter, got %d", len(ex.Segments))
	}
}

func TestExtract_SkipsHiddenLayers(t *testing.T) {
	d := &cad.Drawing{
		Layers: []cad.Layer{
			{Name: "A-WALL", IsOn: true},
			{Name: "A-WALL-OLD", IsOn: true, IsFrozen: true},
			{Name: "A-WALL-TMP", IsOn: false},
		},
		Lines: []cad.Line{
			{Layer: "A-WALL", End: geom.Vec2{X: 100, Y: 0}},
			{Layer: "A-WALL-OLD", End: geom.Vec2{X: 100, Y: 0}},
			{Layer: "A-WALL-TMP", End: geom.Vec2{X: 100, Y: 0}},
			{Layer: "A-WALL-UNLISTED", End: geom.Vec2{X: 100, Y: 0}},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 2 {
		t.Fatalf("expected frozen and off layers skipped, got %d segments", len(ex.Segments))
	}
	for _, seg := range ex.Segments {
		if seg.Layer == "A-WALL-OLD" || seg.Layer == "A-WALL-TMP" {
			t.Errorf("segment extracted from hidden layer %s", seg.Layer)
		}
	}
	if len(ex.Warnings) != 0 {
		t.Errorf("hidden layers must not produce warnings, got %v", ex.Warnings)
	}
}

func TestExtract_InsertTransform(t *testing.T) {
	// Unit-square line (0,0)->(100,0) in the block, scaled 2x, rotated
	// 90 degrees, translated to (1000, 500): end lands at (1000, 700).
	d := &cad.Drawing{
		Blocks: []cad.Block{
			{
				Name: "WALL-UNIT",
				Lines: []cad.Line{
					{Layer: cad.DefaultLayer, Start: geom.Vec2{}, End: geom.Vec2{X: 100, Y: 0}},
				},
			},
		},
		Inserts: []cad.Insert{
			{
				Layer:     "A-WALL-EXT",
				BlockName: "WALL-UNIT",
				Position:  geom.Vec2{X: 1000, Y: 500},
				XScale:    2,
				YScale:    2,
				Rotation:  90,
			},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 expanded segment, got %d", len(ex.Segments))
	}

	seg := ex.Segments[0]
	if seg.Layer != "A-WALL-EXT" {
		t.Errorf("layer-0 child must inherit the insert layer, got %q", seg.Layer)
	}
	if math.Abs(seg.Start.X-1000) > 1e-9 || math.Abs(seg.Start.Y-500) > 1e-9 {
		t.Errorf("unexpected transformed start %v", seg.Start)
	}
	if math.Abs(seg.End.X-1000) > 1e-6 || math.Abs(seg.End.Y-700) > 1e-6 {
		t.Errorf("unexpected transformed end %v", seg.End)
	}
	if math.Abs(seg.Length-200) > 1e-9 {
		t.Errorf("expected scaled length 200, got %v", seg.Length)
	}
}

func TestExtract_InsertKeepsExplicitChildLayer(t *testing.T) {
	d := &cad.Drawing{
		Blocks: []cad.Block{
			{
				Name: "FIXTURE",
				Lines: []cad.Line{
					{Layer: "A-WALL-RC", End: geom.Vec2{X: 100, Y: 0}},
				},
			},
		},
		Inserts: []cad.Insert{
			{Layer: "A-WALL-EXT", BlockName: "FIXTURE", XScale: 1, YScale: 1},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
	}
	if ex.Segments[0].Layer != "A-WALL-RC" {
		t.Errorf("explicit child layer must be kept, got %q", ex.Segments[0].Layer)
	}
}

func TestExtract_InsertScalesRadiusByLargerFactor(t *testing.T) {
	d := &cad.Drawing{
		Blocks: []cad.Block{
			{
				Name:    "COLUMN",
				Circles: []cad.Circle{{Layer: cad.DefaultLayer, Radius: 100}},
			},
		},
		Inserts: []cad.Insert{
			{Layer: "A-WALL", BlockName: "COLUMN", XScale: 3, YScale: -1},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(ex.Segments))
	}

	want := 2 * math.Pi * 300 // radius scaled by max(|3|, |-1|)
	if math.Abs(ex.Segments[0].Length-want) > 1e-9 {
		t.Errorf("expected circumference %.2f, got %.2f", want, ex.Segments[0].Length)
	}
}

func TestExtract_InsertMissingBlockWarns(t *testing.T) {
	d := &cad.Drawing{
		Inserts: []cad.Insert{
			{Layer: "A-WALL", BlockName: "NO-SUCH-BLOCK", XScale: 1, YScale: 1},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(ex.Segments))
	}
	if len(ex.Warnings) != 1 || !strings.Contains(ex.Warnings[0], "NO-SUCH-BLOCK") {
		t.Fatalf("expected a warning naming the missing block, got %v", ex.Warnings)
	}
}

func TestExtract_NestedInsertNotExpanded(t *testing.T) {
	d := &cad.Drawing{
		Blocks: []cad.Block{
			{
				Name:    "OUTER",
				Lines:   []cad.Line{{Layer: cad.DefaultLayer, End: geom.Vec2{X: 100, Y: 0}}},
				Inserts: []cad.Insert{{Layer: cad.DefaultLayer, BlockName: "INNER", XScale: 1, YScale: 1}},
			},
			{
				Name:  "INNER",
				Lines: []cad.Line{{Layer: cad.DefaultLayer, End: geom.Vec2{X: 50, Y: 0}}},
			},
		},
		Inserts: []cad.Insert{
			{Layer: "A-WALL", BlockName: "OUTER", XScale: 1, YScale: 1},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	if len(ex.Segments) != 1 {
		t.Fatalf("expected only one level of expansion, got %d segments", len(ex.Segments))
	}
	if len(ex.Warnings) != 1 {
		t.Errorf("expected a warning about the nested insert, got %v", ex.Warnings)
	}
}

func TestExtract_HeaderScalars(t *testing.T) {
	d := &cad.Drawing{
		Header: map[string]float64{cad.HeaderDimScale: 100, cad.HeaderInsUnits: 4},
	}

	ex := extract(t, d, ExtractOptions{})
	if ex.ScaleFactor != 100 {
		t.Errorf("expected scale factor 100, got %v", ex.ScaleFactor)
	}
	if ex.InsUnits != cad.UnitMillimeters {
		t.Errorf("expected INSUNITS millimeters, got %v", ex.InsUnits)
	}

	// Fallbacks when the header is absent.
	ex = extract(t, &cad.Drawing{}, ExtractOptions{})
	if ex.ScaleFactor != 1 {
		t.Errorf("expected default scale factor 1, got %v", ex.ScaleFactor)
	}
	if ex.InsUnits != cad.UnitUnspecified {
		t.Errorf("expected default INSUNITS unspecified, got %v", ex.InsUnits)
	}
}

func TestExtract_UIDsAreSequential(t *testing.T) {
	d := &cad.Drawing{
		Lines: []cad.Line{
			{Layer: "A-WALL", End: geom.Vec2{X: 1, Y: 0}},
			{Layer: "A-WALL", End: geom.Vec2{X: 2, Y: 0}},
			{Layer: "A-WALL", End: geom.Vec2{X: 3, Y: 0}},
		},
	}

	ex := extract(t, d, ExtractOptions{})
	want := []string{"seg_00001", "seg_00002", "seg_00003"}
	for i, seg := range ex.Segments {
		if seg.UID != want[i] {
			t.Errorf("segment %d: expected uid %s, got %s", i, want[i], seg.UID)
		}
	}
}
