package db

import "fmt"

// CategorySummary is the takeoff rollup for one wall category. Totals
// exclude merged secondaries unless the caller asks for raw figures.
type CategorySummary struct {
	CategoryID   *int64  `json:"category_id"`
	CategoryCode string  `json:"category_code"`
	CategoryName string  `json:"category_name"`
	SegmentCount int64   `json:"segment_count"`
	TotalLength  float64 `json:"total_length"`
	MergedCount  int64   `json:"merged_count"`
	MergedLength float64 `json:"merged_length"`
}

// FloorSummary groups category rollups under one floor.
type FloorSummary struct {
	FloorID    int64             `json:"floor_id"`
	FloorCode  string            `json:"floor_code"`
	FloorName  string            `json:"floor_name"`
	Categories []CategorySummary `json:"categories"`
}

// BuildingSummary groups floor rollups under one building.
type BuildingSummary struct {
	BuildingID   int64          `json:"building_id"`
	BuildingCode string         `json:"building_code"`
	BuildingName string         `json:"building_name"`
	Floors       []FloorSummary `json:"floors"`
}

// SummaryByProject returns per-category totals for a project. With
// includeMerged false (the usual takeoff view), merged secondaries are
// left out of the count and total length so a double-drawn wall is
// measured once.
func (db *DB) SummaryByProject(projectID int64, includeMerged bool) ([]CategorySummary, error) {
	filter := "AND s.is_merged = 0"
	if includeMerged {
		filter = ""
	}
	rows, err := db.DB.Query(`
		SELECT c.id, c.category_code, c.category_name,
		       COUNT(s.id),
		       COALESCE(SUM(s.length), 0),
		       (SELECT COUNT(*) FROM wall_segments m
		        WHERE m.project_id = ? AND m.category_id = c.id AND m.is_merged = 1),
		       (SELECT COALESCE(SUM(m.length), 0) FROM wall_segments m
		        WHERE m.project_id = ? AND m.category_id = c.id AND m.is_merged = 1)
		FROM wall_categories c
		LEFT JOIN wall_segments s
		       ON s.category_id = c.id AND s.project_id = c.project_id `+filter+`
		WHERE c.project_id = ?
		GROUP BY c.id
		ORDER BY c.display_order`,
		projectID, projectID, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query project summary: %w", err)
	}
	defer rows.Close()

	var summaries []CategorySummary
	for rows.Next() {
		var s CategorySummary
		var id int64
		if err := rows.Scan(&id, &s.CategoryCode, &s.CategoryName,
			&s.SegmentCount, &s.TotalLength, &s.MergedCount, &s.MergedLength); err != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", err)
		}
		s.CategoryID = &id
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	uncategorized, err := db.uncategorizedSummary(projectID, includeMerged)
	if err != nil {
		return nil, err
	}
	if uncategorized.SegmentCount > 0 {
		summaries = append(summaries, uncategorized)
	}
	return summaries, nil
}

// uncategorizedSummary rolls up segments with no category assignment.
func (db *DB) uncategorizedSummary(projectID int64, includeMerged bool) (CategorySummary, error) {
	filter := "AND is_merged = 0"
	if includeMerged {
		filter = ""
	}
	s := CategorySummary{CategoryCode: "UNCAT", CategoryName: "Uncategorized"}
	err := db.DB.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(length), 0)
		FROM wall_segments
		WHERE project_id = ? AND category_id IS NULL `+filter,
		projectID,
	).Scan(&s.SegmentCount, &s.TotalLength)
	if err != nil {
		return CategorySummary{}, fmt.Errorf("failed to query uncategorized summary: %w", err)
	}
	return s, nil
}

// SummaryByFloor returns per-category totals for one floor, merged
// secondaries excluded.
func (db *DB) SummaryByFloor(projectID, floorID int64) ([]CategorySummary, error) {
	rows, err := db.DB.Query(`
		SELECT c.id, c.category_code, c.category_name,
		       COUNT(s.id), COALESCE(SUM(s.length), 0)
		FROM wall_categories c
		JOIN wall_segments s
		  ON s.category_id = c.id AND s.project_id = c.project_id
		WHERE c.project_id = ? AND s.floor_id = ? AND s.is_merged = 0
		GROUP BY c.id
		ORDER BY c.display_order`,
		projectID, floorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query floor summary: %w", err)
	}
	defer rows.Close()

	var summaries []CategorySummary
	for rows.Next() {
		var s CategorySummary
		var id int64
		if err := rows.Scan(&id, &s.CategoryCode, &s.CategoryName, &s.SegmentCount, &s.TotalLength); err != nil {
			return nil, fmt.Errorf("failed to scan floor summary: %w", err)
		}
		s.CategoryID = &id
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// HierarchySummary returns the full building/floor/category rollup for
// a project, merged secondaries excluded.
func (db *DB) HierarchySummary(projectID int64) ([]BuildingSummary, error) {
	buildings, err := db.GetBuildings(projectID)
	if err != nil {
		return nil, err
	}

	var result []BuildingSummary
	for _, b := range buildings {
		bs := BuildingSummary{
			BuildingID:   b.ID,
			BuildingCode: b.BuildingCode,
			BuildingName: b.BuildingName,
		}
		floors, err := db.GetFloors(b.ID)
		if err != nil {
			return nil, err
		}
		for _, f := range floors {
			categories, err := db.SummaryByFloor(projectID, f.ID)
			if err != nil {
				return nil, err
			}
			bs.Floors = append(bs.Floors, FloorSummary{
				FloorID:    f.ID,
				FloorCode:  f.FloorCode,
				FloorName:  f.FloorName,
				Categories: categories,
			})
		}
		result = append(result, bs)
	}
	return result, nil
}
