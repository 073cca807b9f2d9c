package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Project groups everything extracted from one drawing file.
type Project struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	SourceFile *string   `json:"source_file"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateProject creates a new project and sets its ID.
func (db *DB) CreateProject(p *Project) error {
	result, err := db.DB.Exec(
		"INSERT INTO projects (name, source_file, notes) VALUES (?, ?, ?)",
		p.Name, p.SourceFile, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	p.ID = id
	return nil
}

// GetProject retrieves a project by ID. Returns sql.ErrNoRows when the
// project does not exist.
func (db *DB) GetProject(id int64) (*Project, error) {
	var p Project
	err := db.DB.QueryRow(
		"SELECT id, name, source_file, notes, created_at, updated_at FROM projects WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.SourceFile, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return &p, nil
}

// ListProjects returns all projects, most recently updated first.
func (db *DB) ListProjects() ([]Project, error) {
	rows, err := db.DB.Query(
		"SELECT id, name, source_file, notes, created_at, updated_at FROM projects ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.SourceFile, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and, via foreign keys, everything
// under it.
func (db *DB) DeleteProject(id int64) error {
	result, err := db.DB.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
