package db

import (
	"fmt"

	"github.com/takeoff-data/wallquant/internal/takeoff"
)

// WallCategory is one wall type within a project (e.g. exterior 200mm
// block). WallThickness is nil until the estimator assigns one; merge
// detection skips categories without a thickness.
type WallCategory struct {
	ID                     int64    `json:"id"`
	ProjectID              int64    `json:"project_id"`
	CategoryCode           string   `json:"category_code"`
	CategoryName           string   `json:"category_name"`
	HeightType             *string  `json:"height_type"`
	HeightFormula          *string  `json:"height_formula"`
	Color                  string   `json:"color"`
	LineWeight             float64  `json:"line_weight"`
	DisplayOrder           int      `json:"display_order"`
	WallThickness          *float64 `json:"wall_thickness"`
	WallThicknessTolerance float64  `json:"wall_thickness_tolerance"`
}

// LayerMapping binds one CAD layer name to a wall category.
type LayerMapping struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"project_id"`
	CADLayerName string `json:"cad_layer_name"`
	CategoryID   *int64 `json:"category_id"`
	AutoDetected bool   `json:"auto_detected"`
}

const categoryColumns = `id, project_id, category_code, category_name, height_type, height_formula,
	color, line_weight, display_order, wall_thickness, wall_thickness_tolerance`

// CreateCategory adds a wall category and sets its ID.
func (db *DB) CreateCategory(c *WallCategory) error {
	if c.Color == "" {
		c.Color = "#888888"
	}
	if c.LineWeight == 0 {
		c.LineWeight = 1.0
	}
	if c.WallThicknessTolerance == 0 {
		c.WallThicknessTolerance = takeoff.DefaultDistanceTolerance
	}
	result, err := db.DB.Exec(`
		INSERT INTO wall_categories (project_id, category_code, category_name, height_type, height_formula,
			color, line_weight, display_order, wall_thickness, wall_thickness_tolerance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ProjectID, c.CategoryCode, c.CategoryName, c.HeightType, c.HeightFormula,
		c.Color, c.LineWeight, c.DisplayOrder, c.WallThickness, c.WallThicknessTolerance,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	c.ID = id
	return nil
}

// GetCategory looks up one wall category by ID.
func (db *DB) GetCategory(id int64) (*WallCategory, error) {
	var c WallCategory
	err := db.DB.QueryRow(`
		SELECT `+categoryColumns+` FROM wall_categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.ProjectID, &c.CategoryCode, &c.CategoryName, &c.HeightType, &c.HeightFormula,
		&c.Color, &c.LineWeight, &c.DisplayOrder, &c.WallThickness, &c.WallThicknessTolerance)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return &c, nil
}

// GetCategories returns a project's wall categories in display order.
func (db *DB) GetCategories(projectID int64) ([]WallCategory, error) {
	rows, err := db.DB.Query(`
		SELECT `+categoryColumns+` FROM wall_categories WHERE project_id = ? ORDER BY display_order`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []WallCategory
	for rows.Next() {
		var c WallCategory
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.CategoryCode, &c.CategoryName, &c.HeightType, &c.HeightFormula,
			&c.Color, &c.LineWeight, &c.DisplayOrder, &c.WallThickness, &c.WallThicknessTolerance); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory rewrites a category's mutable fields, thickness
// included.
func (db *DB) UpdateCategory(c *WallCategory) error {
	result, err := db.DB.Exec(`
		UPDATE wall_categories
		SET category_code = ?, category_name = ?, height_type = ?, height_formula = ?,
		    color = ?, line_weight = ?, display_order = ?, wall_thickness = ?, wall_thickness_tolerance = ?
		WHERE id = ?`,
		c.CategoryCode, c.CategoryName, c.HeightType, c.HeightFormula,
		c.Color, c.LineWeight, c.DisplayOrder, c.WallThickness, c.WallThicknessTolerance, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category %d: %w", c.ID, err)
	}
	return checkOneRow(result, "category", c.ID)
}

// SetCategoryThickness assigns just the merge-detection thickness band
// for a category.
func (db *DB) SetCategoryThickness(id int64, thickness *float64, tolerance float64) error {
	result, err := db.DB.Exec(`
		UPDATE wall_categories SET wall_thickness = ?, wall_thickness_tolerance = ? WHERE id = ?`,
		thickness, tolerance, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set thickness for category %d: %w", id, err)
	}
	return checkOneRow(result, "category", id)
}

// CategoryThicknesses returns the thickness band per category for a
// project, keyed by category ID. Categories without an assigned
// thickness are omitted.
func (db *DB) CategoryThicknesses(projectID int64) (map[int64]takeoff.Thickness, error) {
	rows, err := db.DB.Query(`
		SELECT id, wall_thickness, wall_thickness_tolerance
		FROM wall_categories
		WHERE project_id = ? AND wall_thickness IS NOT NULL`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query category thicknesses: %w", err)
	}
	defer rows.Close()

	thicknesses := make(map[int64]takeoff.Thickness)
	for rows.Next() {
		var id int64
		var t takeoff.Thickness
		if err := rows.Scan(&id, &t.Nominal, &t.Tolerance); err != nil {
			return nil, fmt.Errorf("failed to scan category thickness: %w", err)
		}
		thicknesses[id] = t
	}
	return thicknesses, rows.Err()
}

// SetLayerMapping binds a CAD layer to a category, replacing any
// previous binding for that layer. A nil categoryID unmaps the layer
// while keeping the row.
func (db *DB) SetLayerMapping(projectID int64, cadLayerName string, categoryID *int64, autoDetected bool) error {
	_, err := db.DB.Exec(`
		INSERT INTO layer_mappings (project_id, cad_layer_name, category_id, auto_detected)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, cad_layer_name) DO UPDATE SET
			category_id = excluded.category_id,
			auto_detected = excluded.auto_detected`,
		projectID, cadLayerName, categoryID, boolToInt(autoDetected),
	)
	if err != nil {
		return fmt.Errorf("failed to set layer mapping: %w", err)
	}
	return nil
}

// GetLayerMappings returns a project's layer-to-category bindings keyed
// by CAD layer name.
func (db *DB) GetLayerMappings(projectID int64) (map[string]*int64, error) {
	rows, err := db.DB.Query(`
		SELECT cad_layer_name, category_id FROM layer_mappings WHERE project_id = ?`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list layer mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[string]*int64)
	for rows.Next() {
		var layer string
		var categoryID *int64
		if err := rows.Scan(&layer, &categoryID); err != nil {
			return nil, fmt.Errorf("failed to scan layer mapping: %w", err)
		}
		mappings[layer] = categoryID
	}
	return mappings, rows.Err()
}

// ApplyLayerMappings assigns categories to every unmodified segment
// whose CAD layer has a mapping. Segments an estimator already
// reclassified by hand (is_modified) are left alone. Returns the number
// of segments updated.
func (db *DB) ApplyLayerMappings(projectID int64) (int64, error) {
	result, err := db.DB.Exec(`
		UPDATE wall_segments
		SET category_id = (
			SELECT m.category_id FROM layer_mappings m
			WHERE m.project_id = wall_segments.project_id
			  AND m.cad_layer_name = wall_segments.cad_layer
		)
		WHERE project_id = ?
		  AND is_modified = 0
		  AND cad_layer IN (
			SELECT cad_layer_name FROM layer_mappings
			WHERE project_id = ? AND category_id IS NOT NULL
		  )`,
		projectID, projectID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to apply layer mappings: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
