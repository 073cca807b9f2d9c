package api

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"

	"github.com/takeoff-data/wallquant/internal/units"
)

// handleSummary handles GET /api/projects/:id/summary. Merged
// secondaries are excluded unless include_merged=true is passed.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	includeMerged := r.URL.Query().Get("include_merged") == "true"
	summary, err := s.db.SummaryByProject(projectID, includeMerged)
	if err != nil {
		log.Printf("Error summarizing project %d: %v", projectID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to summarize project")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": summary})
}

// handleHierarchySummary handles GET /api/projects/:id/hierarchy-summary
func (s *Server) handleHierarchySummary(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	hierarchy, err := s.db.HierarchySummary(projectID)
	if err != nil {
		log.Printf("Error building hierarchy summary for project %d: %v", projectID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to build hierarchy summary")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "buildings": hierarchy})
}

// handleExportCSV handles GET /api/projects/:id/export/csv. Lengths
// are reported in drawing units (millimeters) and meters.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

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

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("takeoff_%d.csv", projectID)))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"project", "category_code", "category_name",
		"segment_count", "total_length_mm", "total_length_m", "merged_count", "merged_length_mm"})
	for _, row := range summary {
		_ = cw.Write([]string{
			project.Name,
			row.CategoryCode,
			row.CategoryName,
			fmt.Sprintf("%d", row.SegmentCount),
			fmt.Sprintf("%.1f", row.TotalLength),
			fmt.Sprintf("%.3f", units.MillimetersToMeters(row.TotalLength)),
			fmt.Sprintf("%d", row.MergedCount),
			fmt.Sprintf("%.1f", row.MergedLength),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("Error writing CSV for project %d: %v", projectID, err)
	}
}
