// Package labelmask is a raster label-mask engine: per-pixel category
// painting over images, with throttled overlay compositing and tile-based
// stroke undo.
//
// # Overview
//
// Every layer of a project carries an index mask, a byte raster the size
// of the image where 0 means unlabeled and 1..255 name the layer's
// categories. Painting writes indices into the mask with circular
// stamps; display is derived by mapping indices through a 256-entry RGBA
// lookup table into an overlay image, rebuilt only for dirty regions and
// pushed to a presenter at most ~30 times a second.
//
// # Quick Start
//
//	import (
//		"github.com/pixtag/labelmask"
//		"github.com/pixtag/labelmask/history"
//		"github.com/pixtag/labelmask/present"
//		"github.com/pixtag/labelmask/project"
//	)
//
//	p := project.New()
//	p.ImageWidth, p.ImageHeight = 640, 480
//
//	s := labelmask.NewSession(p,
//		labelmask.WithPresenter(present.NewImagePresenter(640, 480)),
//		labelmask.WithHistory(history.NewStack(0)),
//	)
//	defer s.Close()
//
//	cat, _ := s.AddCategory("road", project.Color{200, 60, 60, 255})
//	_ = cat
//	s.SetTool(labelmask.ToolBrush)
//	s.SetBrushRadius(8)
//
//	_ = s.BeginStroke(100, 100)
//	s.ContinueStroke(180, 140)
//	s.EndStroke()
//
//	s.History().Undo()
//
// # Packages
//
//   - project: persisted model (layers, categories, entities) and its
//     JSON codec
//   - history: generic undo/redo command stack
//   - present: display backends the compositor pushes overlays to
//   - cache: sharded LRU used for derived per-layer state
//   - integration/gpupresent: presenter targeting GPU textures through
//     gpucontext
package labelmask
