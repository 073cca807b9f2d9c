// Package geom provides stateless 2D vector and line-segment primitives
// used by the parallel-wall pair detector. All functions are pure; an
// operation that has no defined answer (zero-length reference segment,
// no projection overlap) reports ok=false rather than an error.
package geom

import "math"

// Epsilon below which a vector is treated as zero-length.
const Epsilon = 1e-10

// DefaultAngleToleranceDeg is the angular tolerance for parallelism checks.
const DefaultAngleToleranceDeg = 1.0

// Vec2 is a 2D vector in drawing units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot returns the dot product of v and w.
func (v Vec2) Dot(w Vec2) float64 { return v.X*w.X + v.Y*w.Y }

// Cross returns the z component of the 3D cross product of v and w.
func (v Vec2) Cross(w Vec2) float64 { return v.X*w.Y - v.Y*w.X }

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v is shorter than Epsilon.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l < Epsilon {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Distance returns the Euclidean distance between points p and q.
func Distance(p, q Vec2) float64 {
	return p.Sub(q).Length()
}

// Segment is a directed line segment between two points.
type Segment struct {
	Start Vec2 `json:"start"`
	End   Vec2 `json:"end"`
}

// Direction returns the (unnormalized) direction vector of s.
func (s Segment) Direction() Vec2 { return s.End.Sub(s.Start) }

// Length returns the length of s.
func (s Segment) Length() float64 { return s.Direction().Length() }

// Midpoint returns the midpoint of s.
func (s Segment) Midpoint() Vec2 {
	return Vec2{(s.Start.X + s.End.X) / 2, (s.Start.Y + s.End.Y) / 2}
}

// AreParallel reports whether a and b are parallel within
// angleToleranceDeg degrees. Anti-parallel segments count as parallel.
// A segment shorter than Epsilon is not parallel to anything.
func AreParallel(a, b Segment, angleToleranceDeg float64) bool {
	da := a.Direction()
	db := b.Direction()
	if da.Length() < Epsilon || db.Length() < Epsilon {
		return false
	}
	dot := math.Abs(da.Normalize().Dot(db.Normalize()))
	return dot >= math.Cos(angleToleranceDeg*math.Pi/180)
}

// PerpendicularDistance returns the perpendicular distance from the start
// point of b to the infinite line through a, using the 2D cross-product
// distance formula. ok is false when a has zero length.
func PerpendicularDistance(a, b Segment) (dist float64, ok bool) {
	l := a.Length()
	if l < Epsilon {
		return 0, false
	}
	cross := math.Abs(a.Direction().Cross(a.Start.Sub(b.Start)))
	return cross / l, true
}

// PerpendicularDistanceAveraged returns the mean of the perpendicular
// distances from both endpoints of b to the infinite line through a.
// Averaging both endpoints tolerates slight non-parallelism better than
// a single-point distance. ok is false when a has zero length.
func PerpendicularDistanceAveraged(a, b Segment) (dist float64, ok bool) {
	l := a.Length()
	if l < Epsilon {
		return 0, false
	}
	d := a.Direction()
	d1 := math.Abs(d.Cross(a.Start.Sub(b.Start))) / l
	d2 := math.Abs(d.Cross(a.Start.Sub(b.End))) / l
	return (d1 + d2) / 2, true
}

// Overlap describes the shared span of two segments measured along the
// reference segment's direction.
type Overlap struct {
	Start  Vec2    `json:"start"`   // overlap start on the reference line
	End    Vec2    `json:"end"`     // overlap end on the reference line
	Length float64 `json:"length"`  // overlap extent
	TStart float64 `json:"t_start"` // parameter on the reference line
	TEnd   float64 `json:"t_end"`
}

// OverlapRegion projects the endpoints of b onto the direction of a and
// intersects the resulting parameter interval with [0, |a|]. ok is false
// when a has zero length or the segments do not overlap along a.
func OverlapRegion(a, b Segment) (Overlap, bool) {
	d := a.Direction()
	l := d.Length()
	if l < Epsilon {
		return Overlap{}, false
	}
	u := Vec2{d.X / l, d.Y / l}

	t1 := b.Start.Sub(a.Start).Dot(u)
	t2 := b.End.Sub(a.Start).Dot(u)
	if t1 > t2 {
		t1, t2 = t2, t1
	}

	lo := math.Max(0, t1)
	hi := math.Min(l, t2)
	if lo >= hi {
		return Overlap{}, false
	}

	return Overlap{
		Start:  a.Start.Add(u.Scale(lo)),
		End:    a.Start.Add(u.Scale(hi)),
		Length: hi - lo,
		TStart: lo,
		TEnd:   hi,
	}, true
}

// EndpointsTooClose reports whether any endpoint of a lies within
// threshold of any endpoint of b. Used as an optional proximity check to
// reject T-joint neighbours that would otherwise pair.
func EndpointsTooClose(a, b Segment, threshold float64) bool {
	for _, p := range [2]Vec2{a.Start, a.End} {
		for _, q := range [2]Vec2{b.Start, b.End} {
			if Distance(p, q) < threshold {
				return true
			}
		}
	}
	return false
}
