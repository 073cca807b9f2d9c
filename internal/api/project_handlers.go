package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/takeoff-data/wallquant/internal/db"
)

// handleProjects handles GET (list) and POST (create) /api/projects
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projects, err := s.db.ListProjects()
		if err != nil {
			log.Printf("Error listing projects: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to list projects")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "projects": projects})
	case http.MethodPost:
		var req struct {
			Name       string  `json:"name"`
			SourceFile *string `json:"source_file"`
			Notes      *string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" {
			s.writeJSONError(w, http.StatusBadRequest, "Name is required")
			return
		}
		project := &db.Project{Name: req.Name, SourceFile: req.SourceFile, Notes: req.Notes}
		if err := s.db.CreateProject(project); err != nil {
			log.Printf("Error creating project: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to create project")
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "project": project})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProjectByID handles GET and DELETE /api/projects/:id
func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request, projectID int64) {
	switch r.Method {
	case http.MethodGet:
		project, err := s.db.GetProject(projectID)
		if err != nil {
			s.writeJSONError(w, http.StatusNotFound, "Project not found")
			return
		}
		summary, err := s.db.SummaryByProject(projectID, false)
		if err != nil {
			log.Printf("Error summarizing project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to summarize project")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"project": project,
			"summary": summary,
		})
	case http.MethodDelete:
		if err := s.db.DeleteProject(projectID); err != nil {
			log.Printf("Error deleting project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusNotFound, "Project not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleBuildings handles GET and POST /api/projects/:id/buildings
func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request, projectID int64) {
	switch r.Method {
	case http.MethodGet:
		buildings, err := s.db.GetBuildings(projectID)
		if err != nil {
			log.Printf("Error listing buildings for project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to list buildings")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "buildings": buildings})
	case http.MethodPost:
		var building db.Building
		if err := json.NewDecoder(r.Body).Decode(&building); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if building.BuildingCode == "" || building.BuildingName == "" {
			s.writeJSONError(w, http.StatusBadRequest, "Building code and name are required")
			return
		}
		building.ProjectID = projectID
		if err := s.db.CreateBuilding(&building); err != nil {
			log.Printf("Error creating building: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to create building")
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "building": building})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleFloors handles GET and POST /api/projects/:id/floors. Creation
// takes the building ID in the body since floors hang off buildings.
func (s *Server) handleFloors(w http.ResponseWriter, r *http.Request, projectID int64) {
	switch r.Method {
	case http.MethodGet:
		floors, err := s.db.GetProjectFloors(projectID)
		if err != nil {
			log.Printf("Error listing floors for project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to list floors")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "floors": floors})
	case http.MethodPost:
		var floor db.Floor
		if err := json.NewDecoder(r.Body).Decode(&floor); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if floor.BuildingID == 0 || floor.FloorCode == "" || floor.FloorName == "" {
			s.writeJSONError(w, http.StatusBadRequest, "Building ID, floor code, and name are required")
			return
		}
		if err := s.db.CreateFloor(&floor); err != nil {
			log.Printf("Error creating floor: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to create floor")
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "floor": floor})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleCategories handles GET and POST /api/projects/:id/categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, projectID int64) {
	switch r.Method {
	case http.MethodGet:
		categories, err := s.db.GetCategories(projectID)
		if err != nil {
			log.Printf("Error listing categories for project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to list categories")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "categories": categories})
	case http.MethodPost:
		var category db.WallCategory
		if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if category.CategoryCode == "" || category.CategoryName == "" {
			s.writeJSONError(w, http.StatusBadRequest, "Category code and name are required")
			return
		}
		category.ProjectID = projectID
		if err := s.db.CreateCategory(&category); err != nil {
			log.Printf("Error creating category: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to create category")
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "category": category})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleCategoryByID handles PUT /api/categories/:id
func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := trailingID(r.URL.Path, "/api/categories/")
	if !ok {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := s.db.GetCategory(id)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, "Category not found")
		return
	}

	// Decode over the existing record so omitted fields keep their
	// stored values.
	if err := json.NewDecoder(r.Body).Decode(category); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	category.ID = id

	if err := s.db.UpdateCategory(category); err != nil {
		log.Printf("Error updating category %d: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "category": category})
}

// handleMappings handles GET and POST /api/projects/:id/mappings
func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request, projectID int64) {
	switch r.Method {
	case http.MethodGet:
		mappings, err := s.db.GetLayerMappings(projectID)
		if err != nil {
			log.Printf("Error listing mappings for project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to list layer mappings")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "mappings": mappings})
	case http.MethodPost:
		var req struct {
			CADLayerName string `json:"cad_layer_name"`
			CategoryID   *int64 `json:"category_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.CADLayerName == "" {
			s.writeJSONError(w, http.StatusBadRequest, "CAD layer name is required")
			return
		}
		if err := s.db.SetLayerMapping(projectID, req.CADLayerName, req.CategoryID, false); err != nil {
			log.Printf("Error setting mapping: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to set layer mapping")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleApplyMappings handles POST /api/projects/:id/mappings/apply
func (s *Server) handleApplyMappings(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	updated, err := s.db.ApplyLayerMappings(projectID)
	if err != nil {
		log.Printf("Error applying mappings for project %d: %v", projectID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to apply layer mappings")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "segments_updated": updated})
}

// handleSegments handles GET /api/projects/:id/segments with an
// optional category_id filter
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var segments []db.SegmentRecord
	var err error
	if categoryID, ok := queryInt64(r, "category_id"); ok {
		segments, err = s.db.SegmentsByCategory(projectID, categoryID)
	} else {
		segments, err = s.db.SegmentsByProject(projectID)
	}
	if err != nil {
		log.Printf("Error listing segments for project %d: %v", projectID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list segments")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"segments": segments,
		"count":    len(segments),
	})
}

// handleGetSegment handles GET /api/segments/:id
func (s *Server) handleGetSegment(w http.ResponseWriter, r *http.Request, segmentID int64) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	segment, err := s.db.GetSegment(segmentID)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, "Segment not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "segment": segment})
}

// handleSegmentCategory handles PUT /api/segments/:id/category
func (s *Server) handleSegmentCategory(w http.ResponseWriter, r *http.Request, segmentID int64) {
	if r.Method != http.MethodPut {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req struct {
		CategoryID *int64 `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.db.UpdateSegmentCategory(segmentID, req.CategoryID); err != nil {
		log.Printf("Error updating segment %d category: %v", segmentID, err)
		s.writeJSONError(w, http.StatusNotFound, "Segment not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
