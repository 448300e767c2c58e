// Command labeldemo paints a labeled scene headlessly and writes the
// resulting overlay PNG and project file.
package main

import (
	"flag"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/pixtag/labelmask"
	"github.com/pixtag/labelmask/history"
	"github.com/pixtag/labelmask/present"
	"github.com/pixtag/labelmask/project"
)

func main() {
	var (
		width   = flag.Int("width", 800, "image width")
		height  = flag.Int("height", 600, "image height")
		overlay = flag.String("overlay", "overlay.png", "overlay output file")
		output  = flag.String("output", "demo.json", "project output file")
	)
	flag.Parse()

	p := project.New()
	p.ImageWidth = *width
	p.ImageHeight = *height

	pres := present.NewImagePresenter(*width, *height)
	s := labelmask.NewSession(p,
		labelmask.WithPresenter(pres),
		labelmask.WithHistory(history.NewStack(0)),
	)
	defer s.Close()

	layer := s.ActiveLayer()
	paintScene(s, *width, *height)
	probeScene(s, *width, *height)

	// Force everything pending onto the presenter before reading it back.
	s.Compositor().FlushAll()
	if err := savePNG(*overlay, pres, layer.ID); err != nil {
		log.Fatalf("Failed to save overlay: %v", err)
	}
	if err := s.SaveProject(*output); err != nil {
		log.Fatalf("Failed to save project: %v", err)
	}

	log.Printf("Demo saved to %s and %s (%dx%d)\n", *overlay, *output, *width, *height)
}

func paintScene(s *labelmask.Session, w, h int) {
	sky, err := s.AddCategory("sky", project.Color{80, 160, 230, 170})
	if err != nil {
		log.Fatalf("Failed to add category: %v", err)
	}
	road, err := s.AddCategory("road", project.Color{90, 90, 90, 200})
	if err != nil {
		log.Fatalf("Failed to add category: %v", err)
	}
	tree, err := s.AddCategory("tree", project.Color{40, 150, 60, 200})
	if err != nil {
		log.Fatalf("Failed to add category: %v", err)
	}

	s.SetTool(labelmask.ToolBrush)

	// Sky: broad horizontal strokes across the top third.
	s.SelectCategory(sky.ID)
	s.SetBrushRadius(40)
	for y := 40; y < h/3; y += 50 {
		stroke(s, 0, y, w-1, y)
	}

	// Road: a curve sweeping across the lower half.
	s.SelectCategory(road.ID)
	s.SetBrushRadius(25)
	prevX, prevY := 0, h-40
	for x := 20; x < w; x += 20 {
		y := h - 40 - int(80*math.Sin(float64(x)/float64(w)*math.Pi))
		stroke(s, prevX, prevY, x, y)
		prevX, prevY = x, y
	}

	// Trees: dabs along the horizon.
	s.SelectCategory(tree.ID)
	s.SetBrushRadius(18)
	for x := 60; x < w; x += 120 {
		stroke(s, x, h/3+30, x, h/3+30)
	}

	// Erase a clearing in the middle of the trees, then undo it.
	s.SetTool(labelmask.ToolErase)
	s.SetEraseMode(labelmask.EraseOnlyCategory)
	s.SetEraseRadius(30)
	stroke(s, w/2, h/3+30, w/2, h/3+30)
	if cmd := s.History().Undo(); cmd != nil {
		log.Printf("Undid %s", cmd.Name())
	}
}

func probeScene(s *labelmask.Session, w, h int) {
	s.SetProbeRadius(30)
	results, ents, err := s.ProbeAt(float64(w/2), float64(h/6))
	if err != nil {
		log.Fatalf("Probe failed: %v", err)
	}
	for _, r := range results {
		log.Printf("probe: %s %.1f%%", r.Name, r.Percent)
	}
	for _, e := range ents {
		log.Printf("probe: entity %s at (%.0f, %.0f)", e.Name, e.X, e.Y)
	}
}

func stroke(s *labelmask.Session, x0, y0, x1, y1 int) {
	if err := s.BeginStroke(float64(x0), float64(y0)); err != nil {
		log.Fatalf("Failed to stroke: %v", err)
	}
	s.ContinueStroke(float64(x1), float64(y1))
	s.EndStroke()
}

func savePNG(path string, pres *present.ImagePresenter, layerID string) error {
	img := pres.Snapshot(layerID)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
