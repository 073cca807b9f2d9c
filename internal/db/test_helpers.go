package db

import (
	"testing"

	"github.com/takeoff-data/wallquant/internal/geom"
	"github.com/takeoff-data/wallquant/internal/takeoff"
)

// Helper functions for creating pointer values
func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}

func int64Ptr(i int64) *int64 {
	return &i
}

// createTestProject creates a project with a single building and floor,
// for tests that need the full hierarchy in place.
func createTestProject(t *testing.T, db *DB, name string) (*Project, *Building, *Floor) {
	t.Helper()

	project := &Project{Name: name, SourceFile: strPtr(name + ".dxf")}
	if err := db.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	building := &Building{
		ProjectID:    project.ID,
		BuildingCode: "A",
		BuildingName: "Building A",
	}
	if err := db.CreateBuilding(building); err != nil {
		t.Fatalf("CreateBuilding failed: %v", err)
	}

	floor := &Floor{
		BuildingID: building.ID,
		FloorCode:  "1F",
		FloorName:  "First Floor",
		FloorLevel: intPtr(1),
	}
	if err := db.CreateFloor(floor); err != nil {
		t.Fatalf("CreateFloor failed: %v", err)
	}

	return project, building, floor
}

func intPtr(i int) *int {
	return &i
}

// createTestCategory creates a wall category with a merge thickness
// assigned.
func createTestCategory(t *testing.T, db *DB, projectID int64, code string, thickness float64) *WallCategory {
	t.Helper()

	category := &WallCategory{
		ProjectID:     projectID,
		CategoryCode:  code,
		CategoryName:  code + " walls",
		WallThickness: floatPtr(thickness),
	}
	if err := db.CreateCategory(category); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	return category
}

// importTestSegments stores a set of line segments and returns their
// row IDs in insertion order.
func importTestSegments(t *testing.T, db *DB, projectID int64, floorID *int64, segments []takeoff.WallSegment) []int64 {
	t.Helper()

	n, err := db.ImportSegments(projectID, floorID, segments)
	if err != nil {
		t.Fatalf("ImportSegments failed: %v", err)
	}
	if n != len(segments) {
		t.Fatalf("ImportSegments inserted %d of %d segments", n, len(segments))
	}

	records, err := db.SegmentsByProject(projectID)
	if err != nil {
		t.Fatalf("SegmentsByProject failed: %v", err)
	}
	byUID := make(map[string]int64, len(records))
	for _, r := range records {
		byUID[r.SegmentUID] = r.ID
	}
	ids := make([]int64, len(segments))
	for i, s := range segments {
		ids[i] = byUID[s.UID]
	}
	return ids
}

func vec(x, y float64) geom.Vec2 {
	return geom.Vec2{X: x, Y: y}
}

// lineSegment builds a minimal extracted line segment for tests.
func lineSegment(uid, layer string, start, end geom.Vec2) takeoff.WallSegment {
	return takeoff.WallSegment{
		UID:    uid,
		Layer:  layer,
		Kind:   "LINE",
		Start:  start,
		End:    end,
		Length: geom.Distance(start, end),
	}
}
