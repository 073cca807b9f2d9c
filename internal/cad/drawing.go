// Package cad defines the in-memory model of a parsed 2D CAD drawing:
// layers, geometric entities, reusable block definitions, and header
// variables. Decoding a drawing file into this model is the job of an
// upstream reader; everything downstream (extraction, pairing, storage)
// consumes this representation only.
package cad

import "github.com/takeoff-data/wallquant/internal/geom"

// EntityKind identifies the drawing primitive an entity was read from.
type EntityKind string

const (
	KindLine       EntityKind = "LINE"
	KindPolyline   EntityKind = "LWPOLYLINE"
	KindPolyline2D EntityKind = "POLYLINE"
	KindArc        EntityKind = "ARC"
	KindCircle     EntityKind = "CIRCLE"
	KindSpline     EntityKind = "SPLINE"
	KindInsert     EntityKind = "INSERT"
)

// DefaultLayer is the drawing's unassigned layer. Entities inside a
// block that sit on this layer inherit the layer of the insert that
// placed them.
const DefaultLayer = "0"

// Layer describes one drawing layer.
type Layer struct {
	Name     string `json:"name"`
	Color    int    `json:"color"`
	IsOn     bool   `json:"is_on"`
	IsFrozen bool   `json:"is_frozen"`
}

// Visible reports whether the layer is both on and thawed.
func (l Layer) Visible() bool { return l.IsOn && !l.IsFrozen }

// Line is a straight two-point entity.
type Line struct {
	Layer string    `json:"layer"`
	Start geom.Vec2 `json:"start"`
	End   geom.Vec2 `json:"end"`
}

// Polyline is a multi-vertex entity (lightweight or old-style).
type Polyline struct {
	Layer    string      `json:"layer"`
	Vertices []geom.Vec2 `json:"vertices"`
	Closed   bool        `json:"closed"`
}

// Arc is a circular arc. Angles are in degrees, counter-clockwise from
// the positive X axis, matching the source format.
type Arc struct {
	Layer      string    `json:"layer"`
	Center     geom.Vec2 `json:"center"`
	Radius     float64   `json:"radius"`
	StartAngle float64   `json:"start_angle"`
	EndAngle   float64   `json:"end_angle"`
}

// Circle is a full circle entity.
type Circle struct {
	Layer  string    `json:"layer"`
	Center geom.Vec2 `json:"center"`
	Radius float64   `json:"radius"`
}

// Spline is a free-form curve. Only the control points are carried; the
// takeoff pipeline uses them directly as a polyline approximation.
type Spline struct {
	Layer         string      `json:"layer"`
	ControlPoints []geom.Vec2 `json:"control_points"`
}

// Insert places a named block definition at a point with independent
// X/Y scale factors and a rotation in degrees.
type Insert struct {
	Layer     string    `json:"layer"`
	BlockName string    `json:"block_name"`
	Position  geom.Vec2 `json:"position"`
	XScale    float64   `json:"x_scale"`
	YScale    float64   `json:"y_scale"`
	Rotation  float64   `json:"rotation"`
}

// Block is a reusable drawing fragment referenced by Insert entities.
// Blocks may themselves contain Insert entities; expansion depth is the
// extractor's concern.
type Block struct {
	Name      string     `json:"name"`
	Lines     []Line     `json:"lines,omitempty"`
	Polylines []Polyline `json:"polylines,omitempty"`
	Arcs      []Arc      `json:"arcs,omitempty"`
	Circles   []Circle   `json:"circles,omitempty"`
	Splines   []Spline   `json:"splines,omitempty"`
	Inserts   []Insert   `json:"inserts,omitempty"`
}

// Drawing is a fully parsed drawing: model-space entities, layer table,
// block definitions, and header variables.
type Drawing struct {
	SourceFile string             `json:"source_file,omitempty"`
	Layers     []Layer            `json:"layers"`
	Lines      []Line             `json:"lines,omitempty"`
	Polylines  []Polyline         `json:"polylines,omitempty"`
	Arcs       []Arc              `json:"arcs,omitempty"`
	Circles    []Circle           `json:"circles,omitempty"`
	Splines    []Spline           `json:"splines,omitempty"`
	Inserts    []Insert           `json:"inserts,omitempty"`
	Blocks     []Block            `json:"blocks,omitempty"`
	Header     map[string]float64 `json:"header,omitempty"`
}

// BlockByName returns the named block definition, or nil when the
// drawing has no such block.
func (d *Drawing) BlockByName(name string) *Block {
	for i := range d.Blocks {
		if d.Blocks[i].Name == name {
			return &d.Blocks[i]
		}
	}
	return nil
}

// HeaderFloat returns the named header variable, or fallback when the
// drawing does not carry it.
func (d *Drawing) HeaderFloat(name string, fallback float64) float64 {
	if v, ok := d.Header[name]; ok {
		return v
	}
	return fallback
}

// HeaderInt reads an integer-valued header variable with a fallback.
func (d *Drawing) HeaderInt(name string, fallback int) int {
	if v, ok := d.Header[name]; ok {
		return int(v)
	}
	return fallback
}

// ScaleFactor returns the drawing's overall dimensioning scale factor
// ($DIMSCALE), defaulting to 1.
func (d *Drawing) ScaleFactor() float64 {
	return d.HeaderFloat(HeaderDimScale, 1.0)
}

// InsertionUnits returns the drawing's $INSUNITS code, defaulting to
// UnitUnspecified.
func (d *Drawing) InsertionUnits() int {
	return d.HeaderInt(HeaderInsUnits, UnitUnspecified)
}
