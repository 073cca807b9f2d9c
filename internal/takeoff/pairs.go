package takeoff

import (
	"github.com/takeoff-data/wallquant/internal/geom"
)

const (
	// DefaultDistanceTolerance is the +/- band around the nominal wall
	// thickness, in drawing units.
	DefaultDistanceTolerance = 1.0

	// DefaultMinOverlap is the minimum shared span, in drawing units,
	// for two segments to count as faces of one wall.
	DefaultMinOverlap = 10.0
)

// PairSegment is the detector's view of one stored segment: geometry
// plus the merge flags that gate pairing.
type PairSegment struct {
	ID            int64
	CategoryID    int64
	Start         geom.Vec2
	End           geom.Vec2
	Length        float64
	IsMerged      bool
	MergeExcluded bool
}

// ParallelPair is a candidate merge decision between two segments that
// represent the two faces of one physical wall. The longer segment is
// always the primary; the shorter one is the secondary to be absorbed.
type ParallelPair struct {
	PrimaryID     int64        `json:"primary_id"`
	SecondaryID   int64        `json:"secondary_id"`
	Distance      float64      `json:"distance"`
	OverlapLength float64      `json:"overlap_length"`
	Overlap       geom.Overlap `json:"overlap_region"`
}

// Thickness is the expected face-to-face wall distance for one
// category, with its +/- tolerance band.
type Thickness struct {
	Nominal   float64
	Tolerance float64
}

// matchPair checks one unordered segment pair against the wall
// thickness band. It returns false when the segments are not parallel,
// incorrectly spaced, or share no overlap of at least minOverlap.
func matchPair(a, b PairSegment, thickness, tolerance float64) (ParallelPair, bool) {
	la := geom.Segment{Start: a.Start, End: a.End}
	lb := geom.Segment{Start: b.Start, End: b.End}

	if !geom.AreParallel(la, lb, geom.DefaultAngleToleranceDeg) {
		return ParallelPair{}, false
	}

	dist, ok := geom.PerpendicularDistanceAveraged(la, lb)
	if !ok {
		return ParallelPair{}, false
	}
	if dist < thickness-tolerance || dist > thickness+tolerance {
		return ParallelPair{}, false
	}

	overlap, ok := geom.OverlapRegion(la, lb)
	if !ok || overlap.Length < DefaultMinOverlap {
		return ParallelPair{}, false
	}

	primary, secondary := a, b
	if b.Length > a.Length || (b.Length == a.Length && b.ID < a.ID) {
		primary, secondary = b, a
	}

	return ParallelPair{
		PrimaryID:     primary.ID,
		SecondaryID:   secondary.ID,
		Distance:      dist,
		OverlapLength: overlap.Length,
		Overlap:       overlap,
	}, true
}

// eligible filters out segments that must never appear in a pair:
// user-excluded ones and segments still merged from a prior run.
func eligible(s PairSegment) bool {
	return !s.MergeExcluded && !s.IsMerged
}

// FindParallelPairs evaluates every unordered pair of segments against
// the expected wall thickness and returns the candidate pairs. The
// search is quadratic; per-category wall counts are in the hundreds, so
// this is not the dominant cost of the pipeline.
func FindParallelPairs(segments []PairSegment, thickness, tolerance float64) []ParallelPair {
	var pairs []ParallelPair
	for i := 0; i < len(segments); i++ {
		if !eligible(segments[i]) {
			continue
		}
		for j := i + 1; j < len(segments); j++ {
			if !eligible(segments[j]) {
				continue
			}
			if pair, ok := matchPair(segments[i], segments[j], thickness, tolerance); ok {
				pairs = append(pairs, pair)
			}
		}
	}
	return pairs
}

// FindAllParallelPairs groups segments by category and detects pairs
// independently within each group; segments never pair across
// categories. Categories without a thickness entry are skipped.
func FindAllParallelPairs(segments []PairSegment, thicknesses map[int64]Thickness) map[int64][]ParallelPair {
	byCategory := make(map[int64][]PairSegment)
	for _, s := range segments {
		byCategory[s.CategoryID] = append(byCategory[s.CategoryID], s)
	}

	result := make(map[int64][]ParallelPair)
	for categoryID, group := range byCategory {
		th, ok := thicknesses[categoryID]
		if !ok || th.Nominal <= 0 {
			continue
		}
		if pairs := FindParallelPairs(group, th.Nominal, th.Tolerance); len(pairs) > 0 {
			result[categoryID] = pairs
		}
	}
	return result
}
