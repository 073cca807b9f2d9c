package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/takeoff-data/wallquant/internal/geom"
	"github.com/takeoff-data/wallquant/internal/takeoff"
)

// SegmentRecord is one stored wall segment. It mirrors the extraction
// output plus the assignment and merge state layered on afterwards.
type SegmentRecord struct {
	ID            int64       `json:"id"`
	ProjectID     int64       `json:"project_id"`
	FloorID       *int64      `json:"floor_id"`
	SegmentUID    string      `json:"segment_uid"`
	CADLayer      string      `json:"cad_layer"`
	CategoryID    *int64      `json:"category_id"`
	EntityKind    string      `json:"entity_kind"`
	Start         geom.Vec2   `json:"start_point"`
	End           geom.Vec2   `json:"end_point"`
	Length        float64     `json:"length"`
	Vertices      []geom.Vec2 `json:"vertices,omitempty"`
	IsModified    bool        `json:"is_modified"`
	Notes         *string     `json:"notes"`
	IsMerged      bool        `json:"is_merged"`
	MergedIntoID  *int64      `json:"merged_into_id"`
	MergeExcluded bool        `json:"merge_excluded"`
}

const segmentColumns = `id, project_id, floor_id, segment_uid, cad_layer, category_id, entity_kind,
	start_x, start_y, end_x, end_y, length, vertices_json, is_modified, notes,
	is_merged, merged_into_id, merge_excluded`

func scanSegment(rows rowScanner) (SegmentRecord, error) {
	var s SegmentRecord
	var verticesJSON *string
	var modified, merged, excluded int
	if err := rows.Scan(&s.ID, &s.ProjectID, &s.FloorID, &s.SegmentUID, &s.CADLayer, &s.CategoryID, &s.EntityKind,
		&s.Start.X, &s.Start.Y, &s.End.X, &s.End.Y, &s.Length, &verticesJSON, &modified, &s.Notes,
		&merged, &s.MergedIntoID, &excluded); err != nil {
		return SegmentRecord{}, fmt.Errorf("failed to scan segment: %w", err)
	}
	s.IsModified = modified != 0
	s.IsMerged = merged != 0
	s.MergeExcluded = excluded != 0
	if verticesJSON != nil && *verticesJSON != "" {
		if err := json.Unmarshal([]byte(*verticesJSON), &s.Vertices); err != nil {
			return SegmentRecord{}, fmt.Errorf("failed to decode vertices for segment %d: %w", s.ID, err)
		}
	}
	return s, nil
}

// ImportSegments stores an extraction batch for a project inside one
// transaction. Segments whose UID already exists in the project are
// skipped so a re-parse never duplicates rows. Returns the number of
// segments inserted.
func (db *DB) ImportSegments(projectID int64, floorID *int64, segments []takeoff.WallSegment) (int, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO wall_segments (project_id, floor_id, segment_uid, cad_layer, entity_kind,
			start_x, start_y, end_x, end_y, length, vertices_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, segment_uid) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare segment insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, seg := range segments {
		var verticesJSON *string
		if len(seg.Vertices) > 0 {
			encoded, err := json.Marshal(seg.Vertices)
			if err != nil {
				return 0, fmt.Errorf("failed to encode vertices for %s: %w", seg.UID, err)
			}
			s := string(encoded)
			verticesJSON = &s
		}
		result, err := stmt.Exec(projectID, floorID, seg.UID, seg.Layer, string(seg.Kind),
			seg.Start.X, seg.Start.Y, seg.End.X, seg.End.Y, seg.Length, verticesJSON)
		if err != nil {
			return 0, fmt.Errorf("failed to insert segment %s: %w", seg.UID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return inserted, nil
}

// GetSegment looks up one segment by ID.
func (db *DB) GetSegment(id int64) (*SegmentRecord, error) {
	row := db.DB.QueryRow(`SELECT `+segmentColumns+` FROM wall_segments WHERE id = ?`, id)
	s, err := scanSegment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("segment %d not found", id)
		}
		return nil, err
	}
	return &s, nil
}

// SegmentsByProject returns every segment of a project ordered by ID.
func (db *DB) SegmentsByProject(projectID int64) ([]SegmentRecord, error) {
	return db.querySegments(`SELECT `+segmentColumns+` FROM wall_segments WHERE project_id = ? ORDER BY id`, projectID)
}

// SegmentsByCategory returns a project's segments for one category.
func (db *DB) SegmentsByCategory(projectID, categoryID int64) ([]SegmentRecord, error) {
	return db.querySegments(`SELECT `+segmentColumns+` FROM wall_segments
		WHERE project_id = ? AND category_id = ? ORDER BY id`, projectID, categoryID)
}

func (db *DB) querySegments(query string, args ...interface{}) ([]SegmentRecord, error) {
	rows, err := db.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []SegmentRecord
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

// UpdateSegmentCategory reassigns one segment to a category (nil clears
// the assignment), marks it hand-modified, and records the change in
// the edit history.
func (db *DB) UpdateSegmentCategory(segmentID int64, categoryID *int64) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin category update: %w", err)
	}
	defer tx.Rollback()

	var projectID int64
	var oldCategory *int64
	err = tx.QueryRow(`SELECT project_id, category_id FROM wall_segments WHERE id = ?`, segmentID).
		Scan(&projectID, &oldCategory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("segment %d not found", segmentID)
		}
		return fmt.Errorf("failed to look up segment %d: %w", segmentID, err)
	}

	if _, err := tx.Exec(`UPDATE wall_segments SET category_id = ?, is_modified = 1 WHERE id = ?`,
		categoryID, segmentID); err != nil {
		return fmt.Errorf("failed to update segment %d category: %w", segmentID, err)
	}

	if _, err := tx.Exec(`
		INSERT INTO edit_history (project_id, segment_id, action, old_value, new_value)
		VALUES (?, ?, 'category_change', ?, ?)`,
		projectID, segmentID, categoryIDString(oldCategory), categoryIDString(categoryID)); err != nil {
		return fmt.Errorf("failed to record edit history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category update: %w", err)
	}
	return nil
}

func categoryIDString(id *int64) *string {
	if id == nil {
		return nil
	}
	s := fmt.Sprintf("%d", *id)
	return &s
}

// PairSegments returns the reduced geometry view the parallel-pair
// detector works on, for one category of a project.
func (db *DB) PairSegments(projectID, categoryID int64) ([]takeoff.PairSegment, error) {
	return db.queryPairSegments(`
		SELECT id, category_id, start_x, start_y, end_x, end_y, length, is_merged, merge_excluded
		FROM wall_segments
		WHERE project_id = ? AND category_id = ?
		ORDER BY id`, projectID, categoryID)
}

// AllPairSegments returns the detector view for every categorized
// segment of a project.
func (db *DB) AllPairSegments(projectID int64) ([]takeoff.PairSegment, error) {
	return db.queryPairSegments(`
		SELECT id, category_id, start_x, start_y, end_x, end_y, length, is_merged, merge_excluded
		FROM wall_segments
		WHERE project_id = ? AND category_id IS NOT NULL
		ORDER BY id`, projectID)
}

func (db *DB) queryPairSegments(query string, args ...interface{}) ([]takeoff.PairSegment, error) {
	rows, err := db.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pair segments: %w", err)
	}
	defer rows.Close()

	var segments []takeoff.PairSegment
	for rows.Next() {
		var s takeoff.PairSegment
		var merged, excluded int
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Start.X, &s.Start.Y, &s.End.X, &s.End.Y,
			&s.Length, &merged, &excluded); err != nil {
			return nil, fmt.Errorf("failed to scan pair segment: %w", err)
		}
		s.IsMerged = merged != 0
		s.MergeExcluded = excluded != 0
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

// MarkSegmentMerged flags the secondary segment of an applied pair and
// records the pair in the audit table. Returns false without error when
// the secondary was already merged, so re-applying a detection result
// never double-counts.
func (db *DB) MarkSegmentMerged(projectID, primaryID, secondaryID int64, distance, overlapLength float64) (bool, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin merge: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE wall_segments SET is_merged = 1, merged_into_id = ?
		WHERE id = ? AND project_id = ? AND is_merged = 0`,
		primaryID, secondaryID, projectID)
	if err != nil {
		return false, fmt.Errorf("failed to mark segment %d merged: %w", secondaryID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`
		INSERT INTO merged_segments (project_id, primary_segment_id, secondary_segment_id, distance, overlap_length)
		VALUES (?, ?, ?, ?, ?)`,
		projectID, primaryID, secondaryID, distance, overlapLength); err != nil {
		return false, fmt.Errorf("failed to record merged pair: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit merge: %w", err)
	}
	return true, nil
}

// ClearMergeFlags resets merge state for a project, or for one category
// when categoryID is non-nil, and drops the matching audit rows.
// Returns the number of segments un-merged.
func (db *DB) ClearMergeFlags(projectID int64, categoryID *int64) (int64, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin merge clear: %w", err)
	}
	defer tx.Rollback()

	var result sql.Result
	if categoryID != nil {
		if _, err := tx.Exec(`
			DELETE FROM merged_segments
			WHERE project_id = ? AND secondary_segment_id IN (
				SELECT id FROM wall_segments WHERE project_id = ? AND category_id = ?
			)`, projectID, projectID, *categoryID); err != nil {
			return 0, fmt.Errorf("failed to clear merge audit: %w", err)
		}
		result, err = tx.Exec(`
			UPDATE wall_segments SET is_merged = 0, merged_into_id = NULL
			WHERE project_id = ? AND category_id = ? AND is_merged = 1`,
			projectID, *categoryID)
	} else {
		if _, err := tx.Exec(`DELETE FROM merged_segments WHERE project_id = ?`, projectID); err != nil {
			return 0, fmt.Errorf("failed to clear merge audit: %w", err)
		}
		result, err = tx.Exec(`
			UPDATE wall_segments SET is_merged = 0, merged_into_id = NULL
			WHERE project_id = ? AND is_merged = 1`,
			projectID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear merge flags: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit merge clear: %w", err)
	}
	return n, nil
}

// SetMergeExcluded pins a segment out of (or back into) merge
// detection. It only toggles the override flag; a segment that is
// already merged stays merged until ClearMergeFlags restores it.
func (db *DB) SetMergeExcluded(segmentID int64, excluded bool) error {
	result, err := db.Exec(`UPDATE wall_segments SET merge_excluded = ? WHERE id = ?`,
		boolToInt(excluded), segmentID)
	if err != nil {
		return fmt.Errorf("failed to update exclusion for segment %d: %w", segmentID, err)
	}
	return checkOneRow(result, "segment", segmentID)
}

// MergeCounts summarizes a project's merge state.
type MergeCounts struct {
	TotalSegments    int64   `json:"total_segments"`
	MergedSegments   int64   `json:"merged_segments"`
	ExcludedSegments int64   `json:"excluded_segments"`
	TotalLength      float64 `json:"total_length"`
	MergedLength     float64 `json:"merged_length"`
}

// GetMergeCounts returns segment and length totals split by merge
// state for one project.
func (db *DB) GetMergeCounts(projectID int64) (MergeCounts, error) {
	var c MergeCounts
	err := db.DB.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(is_merged), 0),
		       COALESCE(SUM(merge_excluded), 0),
		       COALESCE(SUM(length), 0),
		       COALESCE(SUM(CASE WHEN is_merged = 1 THEN length ELSE 0 END), 0)
		FROM wall_segments WHERE project_id = ?`, projectID,
	).Scan(&c.TotalSegments, &c.MergedSegments, &c.ExcludedSegments, &c.TotalLength, &c.MergedLength)
	if err != nil {
		return MergeCounts{}, fmt.Errorf("failed to count merge state: %w", err)
	}
	return c, nil
}
