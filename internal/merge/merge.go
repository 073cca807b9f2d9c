// Package merge runs parallel-pair consolidation for a project: it
// detects double-drawn walls via the takeoff geometry matcher, applies
// the result to the stored segments, and reports the effect on the
// takeoff totals.
package merge

import (
	"fmt"
	"sort"
	"sync"

	"github.com/takeoff-data/wallquant/internal/db"
	"github.com/takeoff-data/wallquant/internal/monitoring"
	"github.com/takeoff-data/wallquant/internal/takeoff"
)

// Merger coordinates merge detection and application against one
// database. The mutex serializes apply and clear passes so two requests
// cannot interleave their pair updates.
type Merger struct {
	db *db.DB
	mu sync.Mutex
}

// NewMerger returns a Merger backed by the given database.
func NewMerger(database *db.DB) *Merger {
	return &Merger{db: database}
}

// Result summarizes one apply pass.
type Result struct {
	PairsDetected    int     `json:"pairs_detected"`
	PairsApplied     int     `json:"pairs_applied"`
	SegmentsMerged   int     `json:"segments_merged"`
	TotalLengthSaved float64 `json:"total_length_saved"`
}

// Statistics is the project-wide merge state rollup.
type Statistics struct {
	TotalSegments     int64   `json:"total_segments"`
	MergedSegments    int64   `json:"merged_segments"`
	ExcludedSegments  int64   `json:"excluded_segments"`
	EffectiveSegments int64   `json:"effective_segments"`
	TotalLength       float64 `json:"total_length"`
	EffectiveLength   float64 `json:"effective_length"`
	MergeRatio        float64 `json:"merge_ratio"`
}

// DetectPairs finds parallel pairs for one category using its stored
// thickness band. Categories without a thickness cannot be detected
// against and return an error.
func (m *Merger) DetectPairs(projectID, categoryID int64) ([]takeoff.ParallelPair, error) {
	category, err := m.db.GetCategory(categoryID)
	if err != nil {
		return nil, err
	}
	if category.WallThickness == nil || *category.WallThickness <= 0 {
		return nil, fmt.Errorf("category %d has no wall thickness assigned", categoryID)
	}

	segments, err := m.db.PairSegments(projectID, categoryID)
	if err != nil {
		return nil, err
	}
	return takeoff.FindParallelPairs(segments, *category.WallThickness, category.WallThicknessTolerance), nil
}

// DetectAllPairs finds parallel pairs across every category of a
// project that has a thickness assigned, keyed by category ID.
func (m *Merger) DetectAllPairs(projectID int64) (map[int64][]takeoff.ParallelPair, error) {
	thicknesses, err := m.db.CategoryThicknesses(projectID)
	if err != nil {
		return nil, err
	}
	segments, err := m.db.AllPairSegments(projectID)
	if err != nil {
		return nil, err
	}
	return takeoff.FindAllParallelPairs(segments, thicknesses), nil
}

// ApplyPairs marks the secondary of each detected pair as merged.
// Pairs whose secondary is already merged are counted as detected but
// not re-applied, so running apply twice never double-subtracts.
func (m *Merger) ApplyPairs(projectID int64, pairs []takeoff.ParallelPair) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(projectID, pairs)
}

func (m *Merger) applyLocked(projectID int64, pairs []takeoff.ParallelPair) (Result, error) {
	result := Result{PairsDetected: len(pairs)}

	lengths, err := m.segmentLengths(projectID)
	if err != nil {
		return Result{}, err
	}

	for _, pair := range pairs {
		applied, err := m.db.MarkSegmentMerged(projectID, pair.PrimaryID, pair.SecondaryID,
			pair.Distance, pair.OverlapLength)
		if err != nil {
			return Result{}, err
		}
		if !applied {
			continue
		}
		result.PairsApplied++
		result.SegmentsMerged++
		result.TotalLengthSaved += lengths[pair.SecondaryID]
	}

	monitoring.Logf("merge: project %d applied %d of %d pairs, %.1f length saved",
		projectID, result.PairsApplied, result.PairsDetected, result.TotalLengthSaved)
	return result, nil
}

// DetectAndApply runs detection across all thickness-assigned
// categories and applies the result in one pass.
func (m *Merger) DetectAndApply(projectID int64) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byCategory, err := m.DetectAllPairs(projectID)
	if err != nil {
		return Result{}, err
	}

	categoryIDs := make([]int64, 0, len(byCategory))
	for id := range byCategory {
		categoryIDs = append(categoryIDs, id)
	}
	sort.Slice(categoryIDs, func(i, j int) bool { return categoryIDs[i] < categoryIDs[j] })

	var pairs []takeoff.ParallelPair
	for _, id := range categoryIDs {
		pairs = append(pairs, byCategory[id]...)
	}
	return m.applyLocked(projectID, pairs)
}

// Clear resets merge state for the whole project, or for one category
// when categoryID is non-nil. Returns the number of segments restored;
// clearing an already-clear project returns zero.
func (m *Merger) Clear(projectID int64, categoryID *int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleared, err := m.db.ClearMergeFlags(projectID, categoryID)
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		monitoring.Logf("merge: project %d cleared %d merged segments", projectID, cleared)
	}
	return cleared, nil
}

// SetExcluded pins a segment out of (or back into) detection. The flag
// does not touch existing merge state; use Clear to restore a merged
// segment.
func (m *Merger) SetExcluded(segmentID int64, excluded bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.SetMergeExcluded(segmentID, excluded)
}

// GetStatistics returns the project-wide merge rollup.
func (m *Merger) GetStatistics(projectID int64) (Statistics, error) {
	counts, err := m.db.GetMergeCounts(projectID)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		TotalSegments:     counts.TotalSegments,
		MergedSegments:    counts.MergedSegments,
		ExcludedSegments:  counts.ExcludedSegments,
		EffectiveSegments: counts.TotalSegments - counts.MergedSegments,
		TotalLength:       counts.TotalLength,
		EffectiveLength:   counts.TotalLength - counts.MergedLength,
	}
	if counts.TotalSegments > 0 {
		stats.MergeRatio = float64(counts.MergedSegments) / float64(counts.TotalSegments)
	}
	return stats, nil
}

func (m *Merger) segmentLengths(projectID int64) (map[int64]float64, error) {
	segments, err := m.db.AllPairSegments(projectID)
	if err != nil {
		return nil, err
	}
	lengths := make(map[int64]float64, len(segments))
	for _, s := range segments {
		lengths[s.ID] = s.Length
	}
	return lengths, nil
}
