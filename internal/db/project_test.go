package db

import (
	"os"
	"testing"

	"github.com/takeoff-data/wallquant/internal/takeoff"
)

// TestCreateProject_Success tests successful project creation
func TestCreateProject_Success(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	project := &Project{
		Name:       "Office Tower",
		SourceFile: strPtr("tower_l3.dxf"),
		Notes:      strPtr("Level 3 plan"),
	}

	err := db.CreateProject(project)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	if project.ID == 0 {
		t.Error("Expected project ID to be set after creation")
	}

	retrieved, err := db.GetProject(project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}

	if retrieved.Name != "Office Tower" {
		t.Errorf("Expected name 'Office Tower', got %q", retrieved.Name)
	}
	if retrieved.SourceFile == nil || *retrieved.SourceFile != "tower_l3.dxf" {
		t.Errorf("Expected source file 'tower_l3.dxf', got %v", retrieved.SourceFile)
	}
	if retrieved.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt timestamp to be set")
	}
}

// TestGetProject_NotFound tests lookup of a missing project
func TestGetProject_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	_, err := db.GetProject(9999)
	if err == nil {
		t.Error("Expected error for missing project")
	}
}

// TestListProjects tests that projects come back newest first
func TestListProjects(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	for _, name := range []string{"First", "Second", "Third"} {
		if err := db.CreateProject(&Project{Name: name}); err != nil {
			t.Fatalf("CreateProject(%s) failed: %v", name, err)
		}
	}

	projects, err := db.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}

	if len(projects) != 3 {
		t.Fatalf("Expected 3 projects, got %d", len(projects))
	}
}

// TestDeleteProject_CascadesToSegments tests that deleting a project
// removes its dependent rows
func TestDeleteProject_CascadesToSegments(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	project, _, floor := createTestProject(t, db, "Cascade Test")

	importTestSegments(t, db, project.ID, &floor.ID, []takeoff.WallSegment{
		lineSegment("seg_00001", "A-WALL", vec(0, 0), vec(100, 0)),
		lineSegment("seg_00002", "A-WALL", vec(0, 50), vec(100, 50)),
	})

	if err := db.DeleteProject(project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}

	var count int
	err := db.DB.QueryRow(`SELECT COUNT(*) FROM wall_segments WHERE project_id = ?`, project.ID).Scan(&count)
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 segments after project delete, got %d", count)
	}
}

// Helper functions

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	fname := t.Name() + ".db"
	_ = os.Remove(fname)

	db, err := NewDB(fname)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	return db
}

func cleanupTestDB(t *testing.T, db *DB) {
	t.Helper()
	fname := t.Name() + ".db"
	db.Close()
	_ = os.Remove(fname)
	_ = os.Remove(fname + "-shm")
	_ = os.Remove(fname + "-wal")
}
