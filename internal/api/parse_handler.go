package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/takeoff-data/wallquant/internal/cad"
	"github.com/takeoff-data/wallquant/internal/db"
	"github.com/takeoff-data/wallquant/internal/takeoff"
	"github.com/takeoff-data/wallquant/internal/units"
)

// ParseRequest carries one already-decoded drawing plus import options.
type ParseRequest struct {
	ProjectName string       `json:"project_name"`
	SourceFile  *string      `json:"source_file"`
	LayerPrefix string       `json:"layer_prefix"`
	Drawing     *cad.Drawing `json:"drawing"`
}

// handleParse handles POST /api/parse: extract wall segments from the
// drawing, create a project, store the batch, and seed one unmapped
// layer-mapping row per distinct CAD layer seen.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProjectName == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Project name is required")
		return
	}
	if req.Drawing == nil {
		s.writeJSONError(w, http.StatusBadRequest, "Drawing is required")
		return
	}

	extractor := takeoff.NewExtractor(takeoff.ExtractOptions{LayerPrefix: req.LayerPrefix})
	extraction := extractor.Extract(req.Drawing)

	project := &db.Project{Name: req.ProjectName, SourceFile: req.SourceFile}
	if err := s.db.CreateProject(project); err != nil {
		log.Printf("Error creating project: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	inserted, err := s.db.ImportSegments(project.ID, nil, extraction.Segments)
	if err != nil {
		log.Printf("Error importing segments: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to import segments")
		return
	}

	// Seed an unmapped row per layer so the mapping UI has the full
	// layer list without re-reading the drawing.
	seen := make(map[string]bool)
	for _, seg := range extraction.Segments {
		if seen[seg.Layer] {
			continue
		}
		seen[seg.Layer] = true
		if err := s.db.SetLayerMapping(project.ID, seg.Layer, nil, true); err != nil {
			log.Printf("Error seeding layer mapping %q: %v", seg.Layer, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to seed layer mappings")
			return
		}
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":           true,
		"project":           project,
		"run_id":            extraction.RunID,
		"segments_imported": inserted,
		"warnings":          extraction.Warnings,
		"scale_factor":      extraction.ScaleFactor,
		"ins_units":         extraction.InsUnits,
		"unit_name":         cad.UnitName(extraction.InsUnits),
		"unit_factor_mm":    units.FactorToMillimeters(extraction.InsUnits),
	})
}
