// Command planview renders a project's stored wall segments to a PNG
// plan for offline review. Merged secondaries are drawn grey so the
// effect of a consolidation pass is visible at a glance.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/takeoff-data/wallquant/internal/db"
)

var (
	dbPath     = flag.String("db", "wallquant.db", "Path to the takeoff database")
	projectID  = flag.Int64("project", 0, "Project ID to render")
	categoryID = flag.Int64("category", 0, "Restrict to one category ID (0 = all)")
	output     = flag.String("out", "plan.png", "Output PNG path")
	width      = flag.Float64("width", 12, "Plot width in inches")
	height     = flag.Float64("height", 12, "Plot height in inches")
)

func main() {
	flag.Parse()

	if *projectID == 0 {
		fmt.Fprintln(os.Stderr, "usage: planview -db <path> -project <id> [-category <id>] [-out plan.png]")
		os.Exit(2)
	}

	database, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := render(database); err != nil {
		log.Fatalf("Failed to render plan: %v", err)
	}
	log.Printf("Wrote %s", *output)
}

func render(database *db.DB) error {
	var segments []db.SegmentRecord
	var err error
	if *categoryID != 0 {
		segments, err = database.SegmentsByCategory(*projectID, *categoryID)
	} else {
		segments, err = database.SegmentsByProject(*projectID)
	}
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return fmt.Errorf("project %d has no segments", *projectID)
	}

	project, err := database.GetProject(*projectID)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (project %d, %d segments)", project.Name, *projectID, len(segments))
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"

	activeColor := color.RGBA{R: 30, G: 30, B: 200, A: 255}
	mergedColor := color.RGBA{R: 170, G: 170, B: 170, A: 255}

	for _, seg := range segments {
		pts := segmentPoints(seg)
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build line for segment %d: %w", seg.ID, err)
		}
		line.Width = vg.Points(1)
		if seg.IsMerged {
			line.Color = mergedColor
			line.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		} else {
			line.Color = activeColor
		}
		p.Add(line)
	}

	return p.Save(vg.Length(*width)*vg.Inch, vg.Length(*height)*vg.Inch, *output)
}

// segmentPoints returns the polyline vertices when stored, start/end
// otherwise.
func segmentPoints(seg db.SegmentRecord) plotter.XYs {
	if len(seg.Vertices) >= 2 {
		pts := make(plotter.XYs, len(seg.Vertices))
		for i, v := range seg.Vertices {
			pts[i].X = v.X
			pts[i].Y = v.Y
		}
		return pts
	}
	return plotter.XYs{
		{X: seg.Start.X, Y: seg.Start.Y},
		{X: seg.End.X, Y: seg.End.Y},
	}
}
