// Package api exposes the takeoff pipeline over HTTP: project and
// hierarchy management, drawing import, segment categorization, merge
// consolidation, and summary export.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/takeoff-data/wallquant/internal/db"
	"github.com/takeoff-data/wallquant/internal/merge"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db     *db.DB
	merger *merge.Merger
}

func NewServer(database *db.DB) *Server {
	return &Server{
		db:     database,
		merger: merge.NewMerger(database),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/parse", s.handleParse)
	mux.HandleFunc("/api/projects", s.handleProjects)
	mux.HandleFunc("/api/projects/", s.handleProjectSubresource)
	mux.HandleFunc("/api/categories/", s.handleCategoryByID)
	mux.HandleFunc("/api/segments/", s.handleSegmentSubresource)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// trailingID extracts the numeric ID from a path like prefix + ":id".
func trailingID(path, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// queryInt64 reads an optional integer query parameter.
func queryInt64(r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// handleProjectSubresource dispatches /api/projects/:id and everything
// nested under it.
func (s *Server) handleProjectSubresource(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/projects/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing project ID")
		return
	}

	projectID, err := strconv.ParseInt(pathParts[0], 10, 64)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	rest := pathParts[1:]
	if len(rest) == 0 || rest[0] == "" {
		s.handleProjectByID(w, r, projectID)
		return
	}

	switch rest[0] {
	case "buildings":
		s.handleBuildings(w, r, projectID)
	case "floors":
		s.handleFloors(w, r, projectID)
	case "categories":
		s.handleCategories(w, r, projectID)
	case "mappings":
		if len(rest) > 1 && rest[1] == "apply" {
			s.handleApplyMappings(w, r, projectID)
			return
		}
		s.handleMappings(w, r, projectID)
	case "segments":
		s.handleSegments(w, r, projectID)
	case "summary":
		s.handleSummary(w, r, projectID)
	case "hierarchy-summary":
		s.handleHierarchySummary(w, r, projectID)
	case "export":
		s.handleExportCSV(w, r, projectID)
	case "preview":
		s.handlePreview(w, r, projectID)
	case "merge":
		if len(rest) < 2 {
			s.writeJSONError(w, http.StatusNotFound, "Unknown merge endpoint")
			return
		}
		s.handleMerge(w, r, projectID, rest[1])
	default:
		s.writeJSONError(w, http.StatusNotFound, "Unknown project resource")
	}
}

// handleSegmentSubresource dispatches /api/segments/:id/category and
// /api/segments/:id/merge-exclude.
func (s *Server) handleSegmentSubresource(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/segments/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing segment ID")
		return
	}

	segmentID, err := strconv.ParseInt(pathParts[0], 10, 64)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid segment ID")
		return
	}

	if len(pathParts) < 2 {
		s.handleGetSegment(w, r, segmentID)
		return
	}

	switch pathParts[1] {
	case "category":
		s.handleSegmentCategory(w, r, segmentID)
	case "merge-exclude":
		s.handleMergeExclude(w, r, segmentID)
	default:
		s.writeJSONError(w, http.StatusNotFound, "Unknown segment resource")
	}
}
