package labelmask

import (
	"bytes"
	"fmt"
	"image"
)

// DefaultTileSize is the edge length of the undo-snapshot grid, aligned
// to pixel (0,0). 128 keeps a full tile at 16KB, small enough to snapshot
// eagerly and large enough that a stroke touches few of them.
const DefaultTileSize = 128

type tileKey struct {
	tx, ty int
}

// StrokeRecorder captures the mask state under a stroke so the whole
// stroke can be undone as one unit without full-image snapshots.
//
// Lifecycle: Begin → CaptureRect before each mutation → BuildCommand.
// Each tile overlapping a captured rect is snapshotted once per stroke,
// on first contact, so its "before" bytes reflect the mask prior to the
// entire stroke. Memory is bounded by tiles touched, not stroke length.
type StrokeRecorder struct {
	tile    int
	layerID string
	before  map[tileKey][]uint8
	rects   map[tileKey]image.Rectangle
	dirty   image.Rectangle
}

// NewStrokeRecorder creates a recorder with the given tile edge.
// If tile <= 0, DefaultTileSize is used.
func NewStrokeRecorder(tile int) *StrokeRecorder {
	if tile <= 0 {
		tile = DefaultTileSize
	}
	return &StrokeRecorder{tile: tile}
}

// Active reports whether a stroke is being recorded.
func (r *StrokeRecorder) Active() bool { return r.layerID != "" }

// LayerID returns the id of the layer being recorded, or "".
func (r *StrokeRecorder) LayerID() string { return r.layerID }

// Begin starts recording a stroke on the given layer.
//
// Precondition: no stroke is recording. The controller ends every stroke
// before starting the next, so a nested Begin is a programming error and
// panics.
func (r *StrokeRecorder) Begin(layerID string) {
	if r.Active() {
		panic("labelmask: StrokeRecorder.Begin during an active stroke")
	}
	r.layerID = layerID
	r.before = make(map[tileKey][]uint8)
	r.rects = make(map[tileKey]image.Rectangle)
	r.dirty = image.Rectangle{}
}

// CaptureRect snapshots the "before" bytes of every tile overlapping rect
// that has not been captured this stroke. Must be called before the
// corresponding mutation touches the mask.
func (r *StrokeRecorder) CaptureRect(m *IndexMask, rect image.Rectangle) {
	if !r.Active() {
		return
	}
	rect = rect.Intersect(m.Bounds())
	if rect.Empty() {
		return
	}
	r.dirty = r.dirty.Union(rect)

	tx0 := rect.Min.X / r.tile
	ty0 := rect.Min.Y / r.tile
	tx1 := (rect.Max.X - 1) / r.tile
	ty1 := (rect.Max.Y - 1) / r.tile

	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			key := tileKey{tx, ty}
			if _, done := r.before[key]; done {
				continue
			}
			tr := r.tileRect(tx, ty).Intersect(m.Bounds())
			r.rects[key] = tr
			r.before[key] = m.CopyRect(tr)
		}
	}
}

// Abort discards the recording without building a command. Used when the
// recorded layer disappears mid-stroke.
func (r *StrokeRecorder) Abort() {
	r.layerID = ""
	r.before = nil
	r.rects = nil
	r.dirty = image.Rectangle{}
}

// BuildCommand finishes the stroke and returns an undoable command, or
// nil when no captured tile changed (a no-op stroke leaves no history
// entry). The recorder returns to idle either way.
func (r *StrokeRecorder) BuildCommand(m *IndexMask, s *Session) *StrokeCommand {
	if !r.Active() {
		return nil
	}
	layerID := r.layerID
	before := r.before
	rects := r.rects
	dirty := r.dirty
	r.layerID = ""
	r.before = nil
	r.rects = nil

	if len(before) == 0 {
		return nil
	}

	changed := false
	tiles := make([]strokeTile, 0, len(before))
	for key, b := range before {
		tr := rects[key]
		after := m.CopyRect(tr)
		if !bytes.Equal(after, b) {
			changed = true
		}
		tiles = append(tiles, strokeTile{rect: tr, before: b, after: after})
	}
	if !changed {
		return nil
	}

	Logger().Debug("stroke recorded",
		"layer", layerID, "tiles", len(tiles), "dirty", dirty.String())

	return &StrokeCommand{
		session: s,
		layerID: layerID,
		tiles:   tiles,
		dirty:   dirty,
	}
}

func (r *StrokeRecorder) tileRect(tx, ty int) image.Rectangle {
	x := tx * r.tile
	y := ty * r.tile
	return image.Rect(x, y, x+r.tile, y+r.tile)
}

type strokeTile struct {
	rect   image.Rectangle
	before []uint8
	after  []uint8
}

// StrokeCommand restores the tiles touched by one stroke to their before
// or after state, byte for byte. It implements history.Command.
//
// The owning layer is resolved by id at execution time: if the layer no
// longer exists (deleted, or the project was replaced), undo and redo are
// silent no-ops.
type StrokeCommand struct {
	session *Session
	layerID string
	tiles   []strokeTile
	dirty   image.Rectangle
}

// Name describes the command for undo menus.
func (c *StrokeCommand) Name() string { return "Stroke" }

// DirtyRect returns the union of all regions the stroke touched.
func (c *StrokeCommand) DirtyRect() image.Rectangle { return c.dirty }

// Undo writes every tile's pre-stroke bytes back and refreshes the
// display immediately.
func (c *StrokeCommand) Undo() { c.apply(false) }

// Redo writes every tile's post-stroke bytes back and refreshes the
// display immediately.
func (c *StrokeCommand) Redo() { c.apply(true) }

func (c *StrokeCommand) apply(after bool) {
	layer := c.session.Project().Layer(c.layerID)
	if layer == nil {
		Logger().Debug("stroke command skipped, layer gone", "layer", c.layerID)
		return
	}
	m := c.session.mask(layer)
	for _, t := range c.tiles {
		// Tile rects were clamped at capture time; a mismatch here means
		// the mask was resized behind the recorder's back.
		tr := t.rect.Intersect(m.Bounds())
		if tr != t.rect {
			panic(fmt.Sprintf("labelmask: stroke tile %v outside mask %v", t.rect, m.Bounds()))
		}
		if after {
			m.WriteRect(t.rect, t.after)
		} else {
			m.WriteRect(t.rect, t.before)
		}
	}
	// Undo/redo must feel instant: recomposite and push synchronously.
	c.session.recomposite(layer, c.dirty)
	c.session.compositor.FlushNow(layer.ID)
}
