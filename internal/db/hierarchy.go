package db

import "fmt"

// Building is one structure within a project; a project may contain
// several (towers, basements, annexes).
type Building struct {
	ID           int64   `json:"id"`
	ProjectID    int64   `json:"project_id"`
	BuildingCode string  `json:"building_code"`
	BuildingName string  `json:"building_name"`
	IsBasement   bool    `json:"is_basement"`
	DisplayOrder int     `json:"display_order"`
	Notes        *string `json:"notes"`
}

// Floor is one storey of a building.
type Floor struct {
	ID           int64   `json:"id"`
	BuildingID   int64   `json:"building_id"`
	FloorCode    string  `json:"floor_code"`
	FloorName    string  `json:"floor_name"`
	FloorLevel   *int    `json:"floor_level"`
	IsCombined   bool    `json:"is_combined"`
	DisplayOrder int     `json:"display_order"`
	Notes        *string `json:"notes"`
}

// FloorWithBuilding joins a floor with its building attributes for
// project-wide listings.
type FloorWithBuilding struct {
	Floor
	BuildingCode string `json:"building_code"`
	BuildingName string `json:"building_name"`
	IsBasement   bool   `json:"is_basement"`
}

// CreateBuilding adds a building to a project and sets its ID.
func (db *DB) CreateBuilding(b *Building) error {
	result, err := db.DB.Exec(`
		INSERT INTO buildings (project_id, building_code, building_name, is_basement, display_order, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ProjectID, b.BuildingCode, b.BuildingName, boolToInt(b.IsBasement), b.DisplayOrder, b.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create building: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	b.ID = id
	return nil
}

// GetBuildings returns a project's buildings in display order.
func (db *DB) GetBuildings(projectID int64) ([]Building, error) {
	rows, err := db.DB.Query(`
		SELECT id, project_id, building_code, building_name, is_basement, display_order, notes
		FROM buildings WHERE project_id = ? ORDER BY display_order`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	var buildings []Building
	for rows.Next() {
		var b Building
		var basement int
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.BuildingCode, &b.BuildingName, &basement, &b.DisplayOrder, &b.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		b.IsBasement = basement != 0
		buildings = append(buildings, b)
	}
	return buildings, rows.Err()
}

// UpdateBuilding rewrites a building's mutable fields.
func (db *DB) UpdateBuilding(b *Building) error {
	result, err := db.DB.Exec(`
		UPDATE buildings
		SET building_code = ?, building_name = ?, is_basement = ?, display_order = ?, notes = ?
		WHERE id = ?`,
		b.BuildingCode, b.BuildingName, boolToInt(b.IsBasement), b.DisplayOrder, b.Notes, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update building %d: %w", b.ID, err)
	}
	return checkOneRow(result, "building", b.ID)
}

// CreateFloor adds a floor to a building and sets its ID.
func (db *DB) CreateFloor(f *Floor) error {
	result, err := db.DB.Exec(`
		INSERT INTO floors (building_id, floor_code, floor_name, floor_level, is_combined, display_order, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.BuildingID, f.FloorCode, f.FloorName, f.FloorLevel, boolToInt(f.IsCombined), f.DisplayOrder, f.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create floor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	f.ID = id
	return nil
}

// GetFloors returns a building's floors in display order.
func (db *DB) GetFloors(buildingID int64) ([]Floor, error) {
	rows, err := db.DB.Query(`
		SELECT id, building_id, floor_code, floor_name, floor_level, is_combined, display_order, notes
		FROM floors WHERE building_id = ? ORDER BY display_order`,
		buildingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}
	defer rows.Close()

	var floors []Floor
	for rows.Next() {
		f, err := scanFloor(rows)
		if err != nil {
			return nil, err
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

// GetProjectFloors returns every floor of a project joined with its
// building, ordered building-first.
func (db *DB) GetProjectFloors(projectID int64) ([]FloorWithBuilding, error) {
	rows, err := db.DB.Query(`
		SELECT f.id, f.building_id, f.floor_code, f.floor_name, f.floor_level,
		       f.is_combined, f.display_order, f.notes,
		       b.building_code, b.building_name, b.is_basement
		FROM floors f
		JOIN buildings b ON f.building_id = b.id
		WHERE b.project_id = ?
		ORDER BY b.display_order, f.display_order`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list project floors: %w", err)
	}
	defer rows.Close()

	var floors []FloorWithBuilding
	for rows.Next() {
		var f FloorWithBuilding
		var combined, basement int
		if err := rows.Scan(&f.ID, &f.BuildingID, &f.FloorCode, &f.FloorName, &f.FloorLevel,
			&combined, &f.DisplayOrder, &f.Notes,
			&f.BuildingCode, &f.BuildingName, &basement); err != nil {
			return nil, fmt.Errorf("failed to scan project floor: %w", err)
		}
		f.IsCombined = combined != 0
		f.IsBasement = basement != 0
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

// UpdateFloor rewrites a floor's mutable fields.
func (db *DB) UpdateFloor(f *Floor) error {
	result, err := db.DB.Exec(`
		UPDATE floors
		SET floor_code = ?, floor_name = ?, floor_level = ?, is_combined = ?, display_order = ?, notes = ?
		WHERE id = ?`,
		f.FloorCode, f.FloorName, f.FloorLevel, boolToInt(f.IsCombined), f.DisplayOrder, f.Notes, f.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update floor %d: %w", f.ID, err)
	}
	return checkOneRow(result, "floor", f.ID)
}

func scanFloor(rows rowScanner) (Floor, error) {
	var f Floor
	var combined int
	if err := rows.Scan(&f.ID, &f.BuildingID, &f.FloorCode, &f.FloorName, &f.FloorLevel,
		&combined, &f.DisplayOrder, &f.Notes); err != nil {
		return Floor{}, fmt.Errorf("failed to scan floor: %w", err)
	}
	f.IsCombined = combined != 0
	return f, nil
}
