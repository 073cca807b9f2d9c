// Package takeoff turns parsed CAD drawings into wall quantity-takeoff
// data: it normalizes heterogeneous drawing entities into flat wall
// segments and detects parallel segment pairs that represent the two
// faces of one physical wall.
package takeoff

import (
	"github.com/takeoff-data/wallquant/internal/cad"
	"github.com/takeoff-data/wallquant/internal/geom"
)

// WallSegment is one drawn geometric element reduced to a line
// approximation. Length is always derived from the source geometry,
// never supplied by the caller; for arcs and circles it is the analytic
// value rather than the tessellated chord sum.
type WallSegment struct {
	UID      string         `json:"id"`
	Layer    string         `json:"layer"`
	Kind     cad.EntityKind `json:"entity_kind"`
	Start    geom.Vec2      `json:"start_point"`
	End      geom.Vec2      `json:"end_point"`
	Length   float64        `json:"length"`
	Vertices []geom.Vec2    `json:"vertices,omitempty"`
}

// AsSegment returns the two-point line approximation used by the pair
// detector.
func (s WallSegment) AsSegment() geom.Segment {
	return geom.Segment{Start: s.Start, End: s.End}
}

// polylineLength sums the Euclidean distances between consecutive
// vertices.
func polylineLength(vertices []geom.Vec2) float64 {
	var total float64
	for i := 0; i < len(vertices)-1; i++ {
		total += geom.Distance(vertices[i], vertices[i+1])
	}
	return total
}
