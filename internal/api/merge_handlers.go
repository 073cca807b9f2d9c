package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/takeoff-data/wallquant/internal/takeoff"
)

// handleMerge dispatches /api/projects/:id/merge/{detect,apply,clear,stats}
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request, projectID int64, action string) {
	switch action {
	case "detect":
		s.handleMergeDetect(w, r, projectID)
	case "apply":
		s.handleMergeApply(w, r, projectID)
	case "clear":
		s.handleMergeClear(w, r, projectID)
	case "stats":
		s.handleMergeStats(w, r, projectID)
	default:
		s.writeJSONError(w, http.StatusNotFound, "Unknown merge endpoint")
	}
}

// handleMergeDetect handles POST /api/projects/:id/merge/detect.
// Without a category_id it detects across every thickness-assigned
// category; with apply=true the result is applied in the same pass.
func (s *Server) handleMergeDetect(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		CategoryID *int64 `json:"category_id"`
		Apply      bool   `json:"apply"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	var pairs []takeoff.ParallelPair
	if req.CategoryID != nil {
		detected, err := s.merger.DetectPairs(projectID, *req.CategoryID)
		if err != nil {
			log.Printf("Error detecting pairs for project %d category %d: %v", projectID, *req.CategoryID, err)
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		pairs = detected
	} else {
		byCategory, err := s.merger.DetectAllPairs(projectID)
		if err != nil {
			log.Printf("Error detecting pairs for project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to detect parallel pairs")
			return
		}
		for _, detected := range byCategory {
			pairs = append(pairs, detected...)
		}
	}

	response := map[string]interface{}{
		"success": true,
		"pairs":   pairs,
		"count":   len(pairs),
	}

	if req.Apply {
		result, err := s.merger.ApplyPairs(projectID, pairs)
		if err != nil {
			log.Printf("Error applying pairs for project %d: %v", projectID, err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to apply merge")
			return
		}
		response["result"] = result
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleMergeApply handles POST /api/projects/:id/merge/apply: detect
// across all categories and apply in one pass.
func (s *Server) handleMergeApply(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	result, err := s.merger.DetectAndApply(projectID)
	if err != nil {
		log.Printf("Error applying merge for project %d: %v", projectID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to apply merge")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "result": result})
}

// handleMergeClear handles POST /api/projects/:id/merge/clear with an
// optional category_id in the body
func (s *Server) handleMergeClear(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		CategoryID *int64 `json:"category_id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	cleared, err := s.merger.Clear(projectID, req.CategoryID)
	if err != nil {
		log.Printf("Error clearing merge for project %d: %v", projectID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to clear merge")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "segments_cleared": cleared})
}

// handleMergeStats handles GET /api/projects/:id/merge/stats
func (s *Server) handleMergeStats(w http.ResponseWriter, r *http.Request, projectID int64) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	stats, err := s.merger.GetStatistics(projectID)
	if err != nil {
		log.Printf("Error getting merge stats for project %d: %v", projectID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to get merge statistics")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "statistics": stats})
}

// handleMergeExclude handles POST /api/segments/:id/merge-exclude
func (s *Server) handleMergeExclude(w http.ResponseWriter, r *http.Request, segmentID int64) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Excluded bool `json:"excluded"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.merger.SetExcluded(segmentID, req.Excluded); err != nil {
		log.Printf("Error setting exclusion for segment %d: %v", segmentID, err)
		s.writeJSONError(w, http.StatusNotFound, "Segment not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
