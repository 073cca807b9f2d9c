package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/takeoff-data/wallquant/internal/db"
)

// handlePreview renders a quick XY plot (HTML) of a project's segment
// endpoints using go-echarts. This is a debugging-only endpoint to
// eyeball an import without the frontend. Query params:
//   - category_id (optional) to restrict to one category
//   - max_points (optional; default 8000) to reduce payload size
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, projectID int64) {
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
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list segments")
		return
	}
	if len(segments) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "No segments to preview")
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	// Two endpoints per segment; downsample by stride to stay within
	// maxPoints.
	stride := 1
	if len(segments)*2 > maxPoints {
		stride = int(math.Ceil(float64(len(segments)*2) / float64(maxPoints)))
	}

	var active, merged []opts.ScatterData
	maxAbs := 0.0
	for i := 0; i < len(segments); i += stride {
		seg := segments[i]
		for _, p := range [][2]float64{{seg.Start.X, seg.Start.Y}, {seg.End.X, seg.End.Y}} {
			if math.Abs(p[0]) > maxAbs {
				maxAbs = math.Abs(p[0])
			}
			if math.Abs(p[1]) > maxAbs {
				maxAbs = math.Abs(p[1])
			}
			point := opts.ScatterData{Value: []interface{}{p[0], p[1]}}
			if seg.IsMerged {
				merged = append(merged, point)
			} else {
				active = append(active, point)
			}
		}
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Wall Segment Preview", Theme: "dark", Width: "900px", Height: "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Wall Segment Endpoints",
			Subtitle: fmt.Sprintf("project=%d segments=%d stride=%d", projectID, len(segments), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (mm)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("active", active, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	if len(merged) > 0 {
		scatter.AddSeries("merged", merged, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
