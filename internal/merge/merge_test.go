package merge

import (
	"os"
	"testing"

	"github.com/takeoff-data/wallquant/internal/db"
	"github.com/takeoff-data/wallquant/internal/geom"
	"github.com/takeoff-data/wallquant/internal/takeoff"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	fname := t.Name() + ".db"
	_ = os.Remove(fname)

	database, err := db.NewDB(fname)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	return database
}

func cleanupTestDB(t *testing.T, database *db.DB) {
	t.Helper()
	fname := t.Name() + ".db"
	database.Close()
	_ = os.Remove(fname)
	_ = os.Remove(fname + "-shm")
	_ = os.Remove(fname + "-wal")
}

func floatPtr(f float64) *float64 {
	return &f
}

// setupDoubleWallProject seeds a project with one 200mm category and a
// 10m wall drawn as both faces, 200 apart, the second face 9.5m long.
// Returns the project ID, category ID, and the two segment row IDs.
func setupDoubleWallProject(t *testing.T, database *db.DB) (int64, int64, []int64) {
	t.Helper()

	project := &db.Project{Name: t.Name()}
	if err := database.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	category := &db.WallCategory{
		ProjectID:     project.ID,
		CategoryCode:  "EXT",
		CategoryName:  "Exterior walls",
		WallThickness: floatPtr(200),
	}
	if err := database.CreateCategory(category); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	segments := []takeoff.WallSegment{
		{UID: "seg_00001", Layer: "A-WALL", Kind: "LINE",
			Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 10000, Y: 0}, Length: 10000},
		{UID: "seg_00002", Layer: "A-WALL", Kind: "LINE",
			Start: geom.Vec2{X: 0, Y: 200}, End: geom.Vec2{X: 9500, Y: 200}, Length: 9500},
	}
	if _, err := database.ImportSegments(project.ID, nil, segments); err != nil {
		t.Fatalf("ImportSegments failed: %v", err)
	}

	records, err := database.SegmentsByProject(project.ID)
	if err != nil {
		t.Fatalf("SegmentsByProject failed: %v", err)
	}
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
		if err := database.UpdateSegmentCategory(r.ID, &category.ID); err != nil {
			t.Fatalf("UpdateSegmentCategory failed: %v", err)
		}
	}

	return project.ID, category.ID, ids
}

// TestDetectPairs_DoubleWall tests detection of the classic two-face
// wall with the longer face as primary
func TestDetectPairs_DoubleWall(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	projectID, categoryID, ids := setupDoubleWallProject(t, database)

	merger := NewMerger(database)
	pairs, err := merger.DetectPairs(projectID, categoryID)
	if err != nil {
		t.Fatalf("DetectPairs failed: %v", err)
	}

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	pair := pairs[0]
	if pair.PrimaryID != ids[0] || pair.SecondaryID != ids[1] {
		t.Errorf("Expected primary %d / secondary %d, got %d / %d",
			ids[0], ids[1], pair.PrimaryID, pair.SecondaryID)
	}
	if pair.Distance != 200 {
		t.Errorf("Expected distance 200, got %v", pair.Distance)
	}
	if pair.OverlapLength != 9500 {
		t.Errorf("Expected overlap 9500, got %v", pair.OverlapLength)
	}
}

// TestDetectPairs_NoThickness tests that detection refuses a category
// without a thickness
func TestDetectPairs_NoThickness(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	project := &db.Project{Name: "No Thickness"}
	if err := database.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	category := &db.WallCategory{ProjectID: project.ID, CategoryCode: "INT", CategoryName: "Interior"}
	if err := database.CreateCategory(category); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	merger := NewMerger(database)
	if _, err := merger.DetectPairs(project.ID, category.ID); err == nil {
		t.Error("Expected error for category without thickness")
	}
}

// TestApplyPairs_EffectiveTotals tests that applying a pair reduces the
// effective takeoff to the primary only
func TestApplyPairs_EffectiveTotals(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	projectID, categoryID, _ := setupDoubleWallProject(t, database)

	merger := NewMerger(database)
	pairs, err := merger.DetectPairs(projectID, categoryID)
	if err != nil {
		t.Fatalf("DetectPairs failed: %v", err)
	}

	result, err := merger.ApplyPairs(projectID, pairs)
	if err != nil {
		t.Fatalf("ApplyPairs failed: %v", err)
	}
	if result.PairsApplied != 1 || result.SegmentsMerged != 1 {
		t.Errorf("Expected 1 pair applied, got %+v", result)
	}
	if result.TotalLengthSaved != 9500 {
		t.Errorf("Expected 9500 length saved, got %v", result.TotalLengthSaved)
	}

	summaries, err := database.SummaryByProject(projectID, false)
	if err != nil {
		t.Fatalf("SummaryByProject failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].TotalLength != 10000 {
		t.Errorf("Expected effective length 10000, got %v", summaries[0].TotalLength)
	}
	if summaries[0].SegmentCount != 1 {
		t.Errorf("Expected 1 effective segment, got %d", summaries[0].SegmentCount)
	}
}

// TestApplyPairs_Reapply tests that a second apply pass is a no-op
func TestApplyPairs_Reapply(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	projectID, categoryID, _ := setupDoubleWallProject(t, database)

	merger := NewMerger(database)
	pairs, err := merger.DetectPairs(projectID, categoryID)
	if err != nil {
		t.Fatalf("DetectPairs failed: %v", err)
	}

	if _, err := merger.ApplyPairs(projectID, pairs); err != nil {
		t.Fatalf("first ApplyPairs failed: %v", err)
	}

	result, err := merger.ApplyPairs(projectID, pairs)
	if err != nil {
		t.Fatalf("second ApplyPairs failed: %v", err)
	}
	if result.PairsApplied != 0 {
		t.Errorf("Expected 0 pairs applied on re-run, got %d", result.PairsApplied)
	}
	if result.TotalLengthSaved != 0 {
		t.Errorf("Expected 0 length saved on re-run, got %v", result.TotalLengthSaved)
	}
}

// TestClear_RoundTrip tests apply then clear restores raw totals, and
// that a second clear returns zero
func TestClear_RoundTrip(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	projectID, _, _ := setupDoubleWallProject(t, database)

	merger := NewMerger(database)
	if _, err := merger.DetectAndApply(projectID); err != nil {
		t.Fatalf("DetectAndApply failed: %v", err)
	}

	cleared, err := merger.Clear(projectID, nil)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cleared != 1 {
		t.Errorf("Expected 1 segment cleared, got %d", cleared)
	}

	summaries, err := database.SummaryByProject(projectID, false)
	if err != nil {
		t.Fatalf("SummaryByProject failed: %v", err)
	}
	if summaries[0].TotalLength != 19500 {
		t.Errorf("Expected raw length 19500 after clear, got %v", summaries[0].TotalLength)
	}

	cleared, err = merger.Clear(projectID, nil)
	if err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if cleared != 0 {
		t.Errorf("Expected 0 cleared on second pass, got %d", cleared)
	}
}

// TestSetExcluded_BlocksDetection tests that an excluded segment never
// pairs
func TestSetExcluded_BlocksDetection(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	projectID, categoryID, ids := setupDoubleWallProject(t, database)

	merger := NewMerger(database)
	if err := merger.SetExcluded(ids[1], true); err != nil {
		t.Fatalf("SetExcluded failed: %v", err)
	}

	pairs, err := merger.DetectPairs(projectID, categoryID)
	if err != nil {
		t.Fatalf("DetectPairs failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("Expected no pairs with secondary excluded, got %d", len(pairs))
	}
}

// TestGetStatistics tests the merge rollup before and after an apply
func TestGetStatistics(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	projectID, _, _ := setupDoubleWallProject(t, database)

	merger := NewMerger(database)

	stats, err := merger.GetStatistics(projectID)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.TotalSegments != 2 || stats.MergedSegments != 0 || stats.EffectiveSegments != 2 {
		t.Errorf("Unexpected pre-merge stats: %+v", stats)
	}
	if stats.MergeRatio != 0 {
		t.Errorf("Expected merge ratio 0, got %v", stats.MergeRatio)
	}

	if _, err := merger.DetectAndApply(projectID); err != nil {
		t.Fatalf("DetectAndApply failed: %v", err)
	}

	stats, err = merger.GetStatistics(projectID)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.MergedSegments != 1 || stats.EffectiveSegments != 1 {
		t.Errorf("Unexpected post-merge stats: %+v", stats)
	}
	if stats.MergeRatio != 0.5 {
		t.Errorf("Expected merge ratio 0.5, got %v", stats.MergeRatio)
	}
	if stats.EffectiveLength != 10000 {
		t.Errorf("Expected effective length 10000, got %v", stats.EffectiveLength)
	}
}
