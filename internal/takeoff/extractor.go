package takeoff

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/takeoff-data/wallquant/internal/cad"
	"github.com/takeoff-data/wallquant/internal/geom"
	"github.com/takeoff-data/wallquant/internal/monitoring"
)

const (
	// circlePointCount is the fixed polygon approximation used for
	// circle entities. Display-only; reported length stays analytic.
	circlePointCount = 32

	// arcMinSegments is the minimum number of tessellation segments
	// for an arc regardless of its subtended angle.
	arcMinSegments = 8

	// arcSegmentAngle is the target subtended angle per tessellation
	// segment (pi/16 rad = 11.25 degrees).
	arcSegmentAngle = math.Pi / 16
)

// ExtractOptions controls one extraction run.
type ExtractOptions struct {
	// LayerPrefix restricts extraction to layers whose name starts
	// with the prefix. Empty extracts every layer.
	LayerPrefix string
}

// Extraction is the result of normalizing one drawing.
type Extraction struct {
	RunID       string        `json:"run_id"`
	Segments    []WallSegment `json:"segments"`
	Warnings    []string      `json:"warnings,omitempty"`
	ScaleFactor float64       `json:"scale_factor"`
	InsUnits    int           `json:"ins_units"`
}

// Extractor normalizes drawing entities into wall segments. It is
// single-use: one extractor per extraction run, so segment uids stay
// stable within the run.
type Extractor struct {
	opts    ExtractOptions
	hidden  map[string]bool
	counter int
	out     []WallSegment
	warns   []string
}

// NewExtractor returns an extractor for one run.
func NewExtractor(opts ExtractOptions) *Extractor {
	return &Extractor{opts: opts}
}

// Extract flattens every wall-relevant entity in the drawing into wall
// segments. Malformed entities are skipped with a recorded warning;
// they never abort the run.
func (e *Extractor) Extract(d *cad.Drawing) *Extraction {
	e.hidden = make(map[string]bool, len(d.Layers))
	for _, l := range d.Layers {
		if !l.Visible() {
			e.hidden[l.Name] = true
		}
	}

	for _, ln := range d.Lines {
		e.emitLine(ln.Layer, ln.Start, ln.End)
	}
	for _, pl := range d.Polylines {
		e.emitPolyline(pl.Layer, pl.Vertices)
	}
	for _, arc := range d.Arcs {
		e.emitArc(arc)
	}
	for _, c := range d.Circles {
		e.emitCircle(c)
	}
	for _, sp := range d.Splines {
		e.emitSpline(sp)
	}
	for _, ins := range d.Inserts {
		e.expandInsert(d, ins)
	}

	if len(e.warns) > 0 {
		monitoring.Logf("extraction finished with %d warnings over %d segments", len(e.warns), len(e.out))
	}

	return &Extraction{
		RunID:       uuid.New().String(),
		Segments:    e.out,
		Warnings:    e.warns,
		ScaleFactor: d.ScaleFactor(),
		InsUnits:    d.InsertionUnits(),
	}
}

// layerAllowed applies the layer filters: entities on frozen or
// switched-off layers and on layers outside the optional name-prefix
// filter are silently skipped; this is not an error. Layers missing
// from the drawing's layer table count as visible.
func (e *Extractor) layerAllowed(layer string) bool {
	if e.hidden[layer] {
		return false
	}
	if e.opts.LayerPrefix == "" {
		return true
	}
	return strings.HasPrefix(layer, e.opts.LayerPrefix)
}

func (e *Extractor) nextUID() string {
	e.counter++
	return fmt.Sprintf("seg_%05d", e.counter)
}

func (e *Extractor) warnf(format string, v ...interface{}) {
	e.warns = append(e.warns, fmt.Sprintf(format, v...))
}

func (e *Extractor) emitLine(layer string, start, end geom.Vec2) {
	if !e.layerAllowed(layer) {
		return
	}
	e.out = append(e.out, WallSegment{
		UID:    e.nextUID(),
		Layer:  layer,
		Kind:   cad.KindLine,
		Start:  start,
		End:    end,
		Length: geom.Distance(start, end),
	})
}

func (e *Extractor) emitPolyline(layer string, vertices []geom.Vec2) {
	if !e.layerAllowed(layer) {
		return
	}
	if len(vertices) < 2 {
		return
	}
	e.out = append(e.out, WallSegment{
		UID:      e.nextUID(),
		Layer:    layer,
		Kind:     cad.KindPolyline,
		Start:    vertices[0],
		End:      vertices[len(vertices)-1],
		Length:   polylineLength(vertices),
		Vertices: vertices,
	})
}

// emitArc tessellates an arc into a polyline approximation. The
// reported length is the analytic radius * angle span, not the chord
// sum, so tessellation density never distorts quantities.
func (e *Extractor) emitArc(arc cad.Arc) {
	if !e.layerAllowed(arc.Layer) {
		return
	}
	if arc.Radius <= 0 {
		e.warnf("skipping degenerate arc on layer %q: radius %v", arc.Layer, arc.Radius)
		return
	}

	startRad := arc.StartAngle * math.Pi / 180
	endRad := arc.EndAngle * math.Pi / 180
	span := endRad - startRad
	if span < 0 {
		span += 2 * math.Pi
	}

	vertices := tessellateArc(arc.Center, arc.Radius, startRad, span)
	e.out = append(e.out, WallSegment{
		UID:      e.nextUID(),
		Layer:    arc.Layer,
		Kind:     cad.KindArc,
		Start:    vertices[0],
		End:      vertices[len(vertices)-1],
		Length:   arc.Radius * span,
		Vertices: vertices,
	})
}

// emitCircle approximates a circle as a fixed 32-point closed polygon
// for display; length is the analytic circumference.
func (e *Extractor) emitCircle(c cad.Circle) {
	if !e.layerAllowed(c.Layer) {
		return
	}
	if c.Radius <= 0 {
		e.warnf("skipping degenerate circle on layer %q: radius %v", c.Layer, c.Radius)
		return
	}

	vertices := tessellateCircle(c.Center, c.Radius)
	e.out = append(e.out, WallSegment{
		UID:      e.nextUID(),
		Layer:    c.Layer,
		Kind:     cad.KindCircle,
		Start:    vertices[0],
		End:      vertices[len(vertices)-1],
		Length:   2 * math.Pi * c.Radius,
		Vertices: vertices,
	})
}

// emitSpline uses the curve's control points directly as the vertex
// list; no re-sampling.
func (e *Extractor) emitSpline(sp cad.Spline) {
	if !e.layerAllowed(sp.Layer) {
		return
	}
	if len(sp.ControlPoints) < 2 {
		return
	}
	e.out = append(e.out, WallSegment{
		UID:      e.nextUID(),
		Layer:    sp.Layer,
		Kind:     cad.KindSpline,
		Start:    sp.ControlPoints[0],
		End:      sp.ControlPoints[len(sp.ControlPoints)-1],
		Length:   polylineLength(sp.ControlPoints),
		Vertices: sp.ControlPoints,
	})
}

// expandInsert re-emits every child entity of the referenced block as
// if drawn directly in the parent drawing. Points are transformed by
// scale, then rotation, then translation. Expansion is one level deep:
// inserts nested inside the block are not followed.
func (e *Extractor) expandInsert(d *cad.Drawing, ins cad.Insert) {
	if !e.layerAllowed(ins.Layer) {
		return
	}

	block := d.BlockByName(ins.BlockName)
	if block == nil {
		e.warnf("skipping insert of unknown block %q on layer %q", ins.BlockName, ins.Layer)
		return
	}

	xf := newBlockTransform(ins)

	for _, ln := range block.Lines {
		layer := e.effectiveLayer(ln.Layer, ins.Layer)
		e.emitLine(layer, xf.apply(ln.Start), xf.apply(ln.End))
	}

	for _, pl := range block.Polylines {
		layer := e.effectiveLayer(pl.Layer, ins.Layer)
		if !e.layerAllowed(layer) {
			continue
		}
		vertices := make([]geom.Vec2, len(pl.Vertices))
		for i, v := range pl.Vertices {
			vertices[i] = xf.apply(v)
		}
		e.emitPolyline(layer, vertices)
	}

	for _, arc := range block.Arcs {
		layer := e.effectiveLayer(arc.Layer, ins.Layer)
		// Non-uniform scaling would turn the arc into an ellipse;
		// the larger scale factor is an accepted approximation.
		e.emitArc(cad.Arc{
			Layer:      layer,
			Center:     xf.apply(arc.Center),
			Radius:     arc.Radius * xf.radiusScale,
			StartAngle: arc.StartAngle + ins.Rotation,
			EndAngle:   arc.EndAngle + ins.Rotation,
		})
	}

	for _, c := range block.Circles {
		layer := e.effectiveLayer(c.Layer, ins.Layer)
		e.emitCircle(cad.Circle{
			Layer:  layer,
			Center: xf.apply(c.Center),
			Radius: c.Radius * xf.radiusScale,
		})
	}

	for _, sp := range block.Splines {
		layer := e.effectiveLayer(sp.Layer, ins.Layer)
		if !e.layerAllowed(layer) {
			continue
		}
		points := make([]geom.Vec2, len(sp.ControlPoints))
		for i, p := range sp.ControlPoints {
			points[i] = xf.apply(p)
		}
		e.emitSpline(cad.Spline{Layer: layer, ControlPoints: points})
	}

	if len(block.Inserts) > 0 {
		e.warnf("block %q contains %d nested inserts; expansion is one level deep", block.Name, len(block.Inserts))
	}
}

// effectiveLayer resolves a block child's layer: children on the
// drawing's default layer inherit the insert's layer.
func (e *Extractor) effectiveLayer(childLayer, insertLayer string) string {
	if childLayer == "" || childLayer == cad.DefaultLayer {
		return insertLayer
	}
	return childLayer
}

// blockTransform carries the instance placement: independent X/Y scale,
// rotation, then translation, applied in that fixed order.
type blockTransform struct {
	xScale, yScale float64
	cosR, sinR     float64
	offset         geom.Vec2
	radiusScale    float64
}

func newBlockTransform(ins cad.Insert) blockTransform {
	xs, ys := ins.XScale, ins.YScale
	if xs == 0 {
		xs = 1
	}
	if ys == 0 {
		ys = 1
	}
	rot := ins.Rotation * math.Pi / 180
	return blockTransform{
		xScale:      xs,
		yScale:      ys,
		cosR:        math.Cos(rot),
		sinR:        math.Sin(rot),
		offset:      ins.Position,
		radiusScale: math.Max(math.Abs(xs), math.Abs(ys)),
	}
}

func (t blockTransform) apply(p geom.Vec2) geom.Vec2 {
	x := p.X * t.xScale
	y := p.Y * t.yScale
	rx := x*t.cosR - y*t.sinR
	ry := x*t.sinR + y*t.cosR
	return geom.Vec2{X: rx + t.offset.X, Y: ry + t.offset.Y}
}

// tessellateArc generates the polyline approximation of an arc. The
// point count scales with the subtended angle, with at least
// arcMinSegments segments.
func tessellateArc(center geom.Vec2, radius, startRad, span float64) []geom.Vec2 {
	n := int(span / arcSegmentAngle)
	if n < arcMinSegments {
		n = arcMinSegments
	}
	vertices := make([]geom.Vec2, n+1)
	for i := 0; i <= n; i++ {
		a := startRad + span*float64(i)/float64(n)
		vertices[i] = geom.Vec2{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		}
	}
	return vertices
}

func tessellateCircle(center geom.Vec2, radius float64) []geom.Vec2 {
	vertices := make([]geom.Vec2, circlePointCount+1)
	for i := 0; i <= circlePointCount; i++ {
		a := 2 * math.Pi * float64(i) / circlePointCount
		vertices[i] = geom.Vec2{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		}
	}
	return vertices
}
