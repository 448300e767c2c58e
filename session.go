package labelmask

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/pixtag/labelmask/cache"
	"github.com/pixtag/labelmask/history"
	"github.com/pixtag/labelmask/project"
)

// Precondition errors. All are rejected before any pixel is mutated so
// the caller can surface them to the user.
var (
	// ErrNoImage is returned when an operation needs loaded image
	// dimensions and the project has none.
	ErrNoImage = errors.New("labelmask: project has no image")

	// ErrNoActiveLayer is returned when an operation needs an active
	// layer and none is selected.
	ErrNoActiveLayer = errors.New("labelmask: no active layer")

	// ErrNoCategorySelected is returned when the active tool requires a
	// selected category and none is selected (or the selected one no
	// longer exists).
	ErrNoCategorySelected = errors.New("labelmask: no category selected")

	// ErrInvalidRadius is returned when a stroke is begun with a
	// non-positive tool radius.
	ErrInvalidRadius = errors.New("labelmask: tool radius must be positive")

	// ErrOutsideImage is returned when a stroke is begun outside the
	// image bounds.
	ErrOutsideImage = errors.New("labelmask: point outside image")

	// ErrNotPaintTool is returned when a stroke is begun while a
	// non-painting tool (probe) is active.
	ErrNotPaintTool = errors.New("labelmask: active tool does not paint")

	// ErrUnknownLayer is returned when a layer id resolves to nothing.
	ErrUnknownLayer = errors.New("labelmask: unknown layer")
)

// Tool identifies the active editing tool.
type Tool uint8

const (
	// ToolBrush paints the selected category.
	ToolBrush Tool = iota

	// ToolErase clears labels according to the erase mode.
	ToolErase

	// ToolProbe samples coverage without mutating anything.
	ToolProbe
)

// Session is the runtime engine for one open project.
//
// It owns the per-layer runtime companions (decoded masks, overlay
// buffers, LUT cache) keyed by layer id, keeps them strictly apart from
// the persisted records, and arbitrates all mask mutation: strokes,
// category deletion scans, and undo/redo all go through here.
//
// A Session is driven from a single goroutine; only the compositor's
// flush timer runs concurrently, and the compositor serializes that
// itself.
type Session struct {
	proj       *project.Project
	masks      map[string]*IndexMask
	luts       *cache.Sharded[string, *LUT]
	compositor *Compositor
	recorder   *StrokeRecorder
	history    *history.Stack

	// Selection.
	activeLayerID      string
	selectedCategoryID string
	selectedEntityID   string

	// Tool state.
	tool        Tool
	brushRadius int
	eraseRadius int
	probeRadius int
	eraseMode   EraseMode

	// In-progress stroke.
	strokeActive bool
	lastX, lastY int
}

// NewSession creates a session for the given project. A project without
// layers gets a default "Layer 1", mirroring a fresh document.
func NewSession(p *project.Project, opts ...Option) *Session {
	if p == nil {
		p = project.New()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.presenter != nil {
		if ls, ok := o.presenter.(loggerSetter); ok {
			ls.SetLogger(Logger())
		}
	}

	s := &Session{
		proj:        p,
		masks:       make(map[string]*IndexMask),
		luts:        cache.NewSharded[string, *LUT](0, cache.StringHasher),
		compositor:  newCompositor(p.ImageWidth, p.ImageHeight, o.flushInterval, o.presenter),
		recorder:    NewStrokeRecorder(o.tileSize),
		history:     o.history,
		brushRadius: 6,
		eraseRadius: 6,
		probeRadius: 6,
	}

	if len(p.Layers) == 0 {
		p.AddLayer("Layer 1")
	}
	s.activeLayerID = p.Layers[0].ID
	s.showLayer(s.ActiveLayer())

	Logger().Info("session opened",
		"layers", len(p.Layers), "width", p.ImageWidth, "height", p.ImageHeight)
	return s
}

// Project returns the persisted model backing this session.
func (s *Session) Project() *project.Project { return s.proj }

// Compositor returns the session's overlay compositor.
func (s *Session) Compositor() *Compositor { return s.compositor }

// History returns the configured undo stack, or nil.
func (s *Session) History() *history.Stack { return s.history }

// Close releases the compositor and its presenter.
func (s *Session) Close() error {
	return s.compositor.Close()
}

// SetImageSize fixes new image dimensions. Every layer's runtime state is
// invalidated together: masks reallocate blank on next access, overlays
// and pending pushes are dropped, and the undo history is cleared since
// its tile snapshots no longer fit the raster.
func (s *Session) SetImageSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("labelmask: invalid dimensions %dx%d", width, height)
	}
	s.proj.ImageWidth = width
	s.proj.ImageHeight = height
	s.masks = make(map[string]*IndexMask)
	// Presenter surfaces are sized to the image; drop them too.
	for _, l := range s.proj.Layers {
		s.compositor.Remove(l.ID)
	}
	s.compositor.Resize(width, height)
	if s.history != nil {
		s.history.Clear()
	}
	Logger().Info("image size set", "width", width, "height", height)
	return nil
}

// SetProject replaces the open project wholesale: all runtime state is
// dropped, the undo history is cleared, and the first layer of the new
// project (created if none exists) becomes active.
func (s *Session) SetProject(p *project.Project) {
	if p == nil {
		p = project.New()
	}
	for _, l := range s.proj.Layers {
		s.compositor.Remove(l.ID)
	}
	s.proj = p
	s.masks = make(map[string]*IndexMask)
	s.luts.Clear()
	s.compositor.Resize(p.ImageWidth, p.ImageHeight)
	if s.history != nil {
		s.history.Clear()
	}
	s.selectedCategoryID = ""
	s.selectedEntityID = ""
	s.strokeActive = false
	s.recorder.Abort()

	if len(p.Layers) == 0 {
		p.AddLayer("Layer 1")
	}
	s.activeLayerID = p.Layers[0].ID
	s.showLayer(s.ActiveLayer())
	Logger().Info("project replaced",
		"layers", len(p.Layers), "width", p.ImageWidth, "height", p.ImageHeight)
}

// --- selection and tool state ---

// ActiveLayer returns the active layer, or nil.
func (s *Session) ActiveLayer() *project.Layer {
	return s.proj.Layer(s.activeLayerID)
}

// SetActiveLayer switches the active layer and refreshes the display:
// all other layers' surfaces are hidden and the new one is built and
// force-flushed so the switch feels instant. Passing "" hides everything.
//
// Switching the layer clears the category and entity selection.
func (s *Session) SetActiveLayer(id string) error {
	var layer *project.Layer
	if id != "" {
		layer = s.proj.Layer(id)
		if layer == nil {
			return fmt.Errorf("%w: %s", ErrUnknownLayer, id)
		}
	}
	s.activeLayerID = id
	s.selectedCategoryID = ""
	s.selectedEntityID = ""
	s.showLayer(layer)
	return nil
}

// SelectedCategory returns the selected category of the active layer, or
// nil when nothing valid is selected.
func (s *Session) SelectedCategory() *project.Category {
	layer := s.ActiveLayer()
	if layer == nil || s.selectedCategoryID == "" {
		return nil
	}
	return layer.Category(s.selectedCategoryID)
}

// SelectCategory selects a category by id. The reference is weak: a
// dangling id simply reads as "nothing selected".
func (s *Session) SelectCategory(id string) { s.selectedCategoryID = id }

// SelectEntity selects an entity by id (weak reference, like categories).
func (s *Session) SelectEntity(id string) { s.selectedEntityID = id }

// SetTool switches the active tool.
func (s *Session) SetTool(t Tool) { s.tool = t }

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// SetBrushRadius sets the paint stamp radius in pixels.
func (s *Session) SetBrushRadius(r int) { s.brushRadius = r }

// SetEraseRadius sets the erase stamp radius in pixels.
func (s *Session) SetEraseRadius(r int) { s.eraseRadius = r }

// SetProbeRadius sets the probe sampling radius in pixels.
func (s *Session) SetProbeRadius(r int) { s.probeRadius = r }

// SetEraseMode selects which pixels the eraser clears.
func (s *Session) SetEraseMode(m EraseMode) { s.eraseMode = m }

// --- runtime companions ---

// Mask returns the materialized mask for a layer id, or nil for an
// unknown layer. The mask is decoded or allocated on first access.
func (s *Session) Mask(layerID string) *IndexMask {
	layer := s.proj.Layer(layerID)
	if layer == nil {
		return nil
	}
	return s.mask(layer)
}

// mask is the single site reconciling persisted mask bytes against the
// live image dimensions. It returns a mask matching the project size,
// decoding the layer's persisted bytes once and falling back to blank on
// any decode failure or size mismatch.
func (s *Session) mask(layer *project.Layer) *IndexMask {
	w, h := s.proj.ImageWidth, s.proj.ImageHeight
	if m := s.masks[layer.ID]; m != nil && m.Width() == w && m.Height() == h {
		return m
	}
	m := DecodeMask(layer.MaskPNG, w, h)
	s.masks[layer.ID] = m
	return m
}

// lut returns the cached LUT for a layer, building it on demand.
func (s *Session) lut(layer *project.Layer) *LUT {
	return s.luts.GetOrCreate(layer.ID, func() *LUT {
		return BuildLUT(layer.Categories)
	})
}

// InvalidateLUT drops a layer's cached LUT so the next composite rebuilds
// it. Every mutation of the layer's category set must call this.
func (s *Session) InvalidateLUT(layerID string) {
	s.luts.Delete(layerID)
}

// recomposite rebuilds the overlay pixels for a dirty region of a layer.
func (s *Session) recomposite(layer *project.Layer, dirty image.Rectangle) {
	s.compositor.Recomposite(layer.ID, s.mask(layer), s.lut(layer), dirty)
}

// showLayer hides all surfaces, then builds and shows the given layer.
func (s *Session) showLayer(layer *project.Layer) {
	s.compositor.HideAll()
	if layer == nil || !s.proj.HasImage() {
		return
	}
	if s.compositor.Overlay(layer.ID) == nil {
		s.recomposite(layer, image.Rect(0, 0, s.proj.ImageWidth, s.proj.ImageHeight))
	}
	s.compositor.FlushNow(layer.ID)
	s.compositor.SetVisible(layer.ID, true)
	Logger().Info("layer shown", "layer", layer.ID, "name", layer.Name)
}

// --- layer and category CRUD ---

// AddLayer appends a new layer and makes it active.
func (s *Session) AddLayer(name string) *project.Layer {
	layer := s.proj.AddLayer(name)
	_ = s.SetActiveLayer(layer.ID)
	return layer
}

// DeleteLayer removes a layer and all its runtime state. If it was the
// active layer, the first remaining layer becomes active.
func (s *Session) DeleteLayer(id string) error {
	if !s.proj.RemoveLayer(id) {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, id)
	}
	delete(s.masks, id)
	s.luts.Delete(id)
	s.compositor.Remove(id)

	if s.activeLayerID == id {
		next := ""
		if len(s.proj.Layers) > 0 {
			next = s.proj.Layers[0].ID
		}
		return s.SetActiveLayer(next)
	}
	return nil
}

// AddCategory creates a category on the active layer, selects it, and
// invalidates the layer's LUT. No pixels change, so no recomposite is
// needed; future paints pick up the new color.
func (s *Session) AddCategory(name string, c project.Color) (*project.Category, error) {
	layer := s.ActiveLayer()
	if layer == nil {
		return nil, ErrNoActiveLayer
	}
	cat, err := layer.AddCategory(name, c)
	if err != nil {
		return nil, err
	}
	s.InvalidateLUT(layer.ID)
	s.selectedCategoryID = cat.ID
	return cat, nil
}

// RecolorCategory changes a category's color and refreshes the whole
// overlay, since every pixel holding its index changes on screen.
func (s *Session) RecolorCategory(id string, c project.Color) error {
	layer := s.ActiveLayer()
	if layer == nil {
		return ErrNoActiveLayer
	}
	cat := layer.Category(id)
	if cat == nil {
		return fmt.Errorf("labelmask: unknown category %s", id)
	}
	cat.Color = c
	s.InvalidateLUT(layer.ID)
	if s.proj.HasImage() {
		s.recomposite(layer, image.Rect(0, 0, s.proj.ImageWidth, s.proj.ImageHeight))
	}
	return nil
}

// DeleteCategory removes a category from the active layer and enforces
// the index-cleanliness invariant synchronously: every pixel holding the
// freed index is scanned out of the mask, entities referencing the
// category are detached, the LUT is invalidated, and the full overlay is
// rebuilt. After this returns, the freed index exists nowhere.
func (s *Session) DeleteCategory(id string) error {
	layer := s.ActiveLayer()
	if layer == nil {
		return ErrNoActiveLayer
	}
	index, ok := layer.RemoveCategory(id)
	if !ok {
		return fmt.Errorf("labelmask: unknown category %s", id)
	}
	s.InvalidateLUT(layer.ID)
	if s.selectedCategoryID == id {
		s.selectedCategoryID = ""
	}

	if s.proj.HasImage() {
		cleared := s.mask(layer).ClearIndex(index)
		s.recomposite(layer, image.Rect(0, 0, s.proj.ImageWidth, s.proj.ImageHeight))
		Logger().Info("category deleted",
			"layer", layer.ID, "index", int(index), "pixels_cleared", cleared)
	}
	return nil
}

// AddEntity creates a point entity on the active layer, initially at the
// image center, referencing the selected category if any.
func (s *Session) AddEntity(name string) (*project.Entity, error) {
	layer := s.ActiveLayer()
	if layer == nil {
		return nil, ErrNoActiveLayer
	}
	x := float64(s.proj.ImageWidth) / 2
	y := float64(s.proj.ImageHeight) / 2
	e := layer.AddEntity(name, x, y)
	e.CategoryID = s.selectedCategoryID
	s.selectedEntityID = e.ID
	return e, nil
}

// PlaceEntity moves the selected entity to (x, y).
func (s *Session) PlaceEntity(x, y float64) error {
	layer := s.ActiveLayer()
	if layer == nil {
		return ErrNoActiveLayer
	}
	e := layer.Entity(s.selectedEntityID)
	if e == nil {
		return fmt.Errorf("labelmask: no entity selected")
	}
	e.X = x
	e.Y = y
	return nil
}

// --- probe ---

// ProbeResult reports one category's share of the pixels sampled by a
// probe.
type ProbeResult struct {
	Index   uint8
	Name    string
	Percent float64
}

// ProbeAt samples the circle of the probe radius around (x, y) on the
// active layer.
//
// Category percentages are relative to the sampled pixel count (the
// circle area inside the image), filtered to > 0.2%, and sorted by
// percentage descending; equal percentages keep the layer's category
// creation order, which is stable. Entities whose position lies within
// the same radius are returned in layer order. Empty results are normal,
// not an error.
func (s *Session) ProbeAt(x, y float64) ([]ProbeResult, []*project.Entity, error) {
	layer := s.ActiveLayer()
	if layer == nil {
		return nil, nil, ErrNoActiveLayer
	}
	r := s.probeRadius
	if r <= 0 {
		return nil, nil, nil
	}
	ix, iy := int(x), int(y)

	counts, order, total := SampleCircle(s.mask(layer), ix, iy, r)

	var results []ProbeResult
	if total > 0 {
		// Walk categories in creation order so equal percentages sort
		// stably by age.
		seen := make(map[uint8]bool, len(counts))
		for _, cat := range layer.Categories {
			n, ok := counts[cat.Index]
			if !ok {
				continue
			}
			seen[cat.Index] = true
			pct := float64(n) / float64(total) * 100
			if pct > 0.2 {
				results = append(results, ProbeResult{Index: cat.Index, Name: cat.Name, Percent: pct})
			}
		}
		// Indices with no live category cannot normally exist (deletion
		// clears them synchronously); report them anyway rather than
		// hiding raster content.
		for _, idx := range order {
			if seen[idx] {
				continue
			}
			pct := float64(counts[idx]) / float64(total) * 100
			if pct > 0.2 {
				results = append(results, ProbeResult{Index: idx, Name: fmt.Sprintf("unknown(%d)", idx), Percent: pct})
			}
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Percent > results[j].Percent
		})
	}

	var ents []*project.Entity
	rr := float64(r * r)
	for _, e := range layer.Entities {
		dx := e.X - float64(ix)
		dy := e.Y - float64(iy)
		if dx*dx+dy*dy <= rr {
			ents = append(ents, e)
		}
	}
	return results, ents, nil
}

// --- strokes ---

// strokeRadius returns the stamp radius of the active tool.
func (s *Session) strokeRadius() int {
	if s.tool == ToolErase {
		return s.eraseRadius
	}
	return s.brushRadius
}

// BeginStroke starts a paint or erase stroke at the given pointer
// position (fractional coordinates are truncated to the pixel grid).
//
// All tool preconditions are checked here, before any mutation: the
// active tool must paint, a category must be selected for the brush and
// for the category-filtering erase modes, the radius must be positive,
// and the point must lie inside the image. On success the first stamp is
// applied immediately.
func (s *Session) BeginStroke(x, y float64) error {
	if s.strokeActive {
		panic("labelmask: BeginStroke during an active stroke")
	}
	if !s.proj.HasImage() {
		return ErrNoImage
	}
	layer := s.ActiveLayer()
	if layer == nil {
		return ErrNoActiveLayer
	}
	if s.tool != ToolBrush && s.tool != ToolErase {
		return ErrNotPaintTool
	}
	if s.strokeRadius() <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, s.strokeRadius())
	}
	if s.tool == ToolBrush || s.eraseMode.NeedsCategory() {
		if s.SelectedCategory() == nil {
			return ErrNoCategorySelected
		}
	}

	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= s.proj.ImageWidth || iy >= s.proj.ImageHeight {
		return ErrOutsideImage
	}

	s.recorder.Begin(layer.ID)
	s.strokeActive = true
	s.lastX, s.lastY = ix, iy

	// First dab lands immediately; waiting for motion would make slow
	// clicks feel dead.
	s.applySegment(layer, ix, iy, ix, iy)
	return nil
}

// ContinueStroke extends the current stroke to a new pointer position.
// The segment from the previous position is resampled into stamps whose
// dirty rects are unioned and recomposited once. Calls without an active
// stroke, or with out-of-bounds points, are ignored.
func (s *Session) ContinueStroke(x, y float64) {
	if !s.strokeActive {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= s.proj.ImageWidth || iy >= s.proj.ImageHeight {
		return
	}
	if ix == s.lastX && iy == s.lastY {
		return
	}
	layer := s.proj.Layer(s.recorder.LayerID())
	if layer == nil {
		return
	}
	s.applySegment(layer, s.lastX, s.lastY, ix, iy)
	s.lastX, s.lastY = ix, iy
}

// EndStroke finishes the stroke and returns its undo command, pushing it
// onto the configured history stack. A stroke that changed nothing
// returns nil and leaves no history entry.
func (s *Session) EndStroke() *StrokeCommand {
	if !s.strokeActive {
		return nil
	}
	s.strokeActive = false

	layer := s.proj.Layer(s.recorder.LayerID())
	if layer == nil {
		s.recorder.Abort()
		return nil
	}
	cmd := s.recorder.BuildCommand(s.mask(layer), s)
	if cmd != nil && s.history != nil {
		s.history.Push(cmd)
	}
	return cmd
}

// applySegment stamps along one resampled stroke segment and pushes the
// combined dirty region to the compositor in a single recomposite.
func (s *Session) applySegment(layer *project.Layer, x0, y0, x1, y1 int) {
	r := s.strokeRadius()
	m := s.mask(layer)

	// Snapshot the tiles this segment can touch before any stamp lands.
	s.recorder.CaptureRect(m, segmentRect(x0, y0, x1, y1, r))

	var index uint8
	if s.tool == ToolBrush || s.eraseMode.NeedsCategory() {
		cat := s.SelectedCategory()
		if cat == nil {
			// Selection vanished mid-stroke (category deleted); stop
			// stamping, the stroke resolves at EndStroke.
			return
		}
		index = cat.Index
	}

	var dirty image.Rectangle
	for _, p := range ResampleSegment(x0, y0, x1, y1, r) {
		var dr image.Rectangle
		if s.tool == ToolBrush {
			dr = Paint(m, p.X, p.Y, r, index)
		} else {
			dr = Erase(m, p.X, p.Y, r, s.eraseMode, index)
		}
		dirty = dirty.Union(dr)
	}
	if !dirty.Empty() {
		s.recomposite(layer, dirty)
	}
}

// --- persistence ---

// SyncMasks encodes every materialized mask back into its layer record.
// Called at save time only; untouched layers keep their stored bytes.
func (s *Session) SyncMasks() error {
	for _, layer := range s.proj.Layers {
		m := s.masks[layer.ID]
		if m == nil || m.Width() == 0 || m.Height() == 0 {
			// PNG cannot encode a zero-size image; a mask materialized
			// before any image was set stays unpersisted.
			continue
		}
		encoded, err := EncodeMask(m)
		if err != nil {
			return fmt.Errorf("labelmask: sync mask for layer %s: %w", layer.ID, err)
		}
		layer.MaskPNG = encoded
	}
	return nil
}

// SaveProject syncs all masks and writes the project file.
func (s *Session) SaveProject(path string) error {
	if err := s.SyncMasks(); err != nil {
		return err
	}
	return project.Save(path, s.proj)
}

var _ history.Command = (*StrokeCommand)(nil)
