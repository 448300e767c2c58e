package labelmask

import (
	"image"
	"sync"
	"time"

	"github.com/pixtag/labelmask/present"
)

// DefaultFlushInterval is the target delay between display pushes, about
// 30 per second. Overlay pixels are always updated immediately; only the
// expensive push to the presenter is throttled.
const DefaultFlushInterval = 33 * time.Millisecond

// Compositor converts dirty regions of index masks into RGBA overlay
// buffers through a category LUT, and coalesces presenter pushes behind a
// single-shot rearming timer.
//
// Many fast writers (stamps during a drag) collapse into one periodic
// consumer (the flush tick); a forced flush consumes the same pending
// entries, so every recomposited region reaches the display at least
// once.
type Compositor struct {
	mu        sync.Mutex
	width     int
	height    int
	interval  time.Duration
	presenter present.Presenter

	overlays map[string]*image.RGBA
	pending  map[string]image.Rectangle
	timer    *time.Timer
	armed    bool
	closed   bool
}

func newCompositor(width, height int, interval time.Duration, p present.Presenter) *Compositor {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Compositor{
		width:     width,
		height:    height,
		interval:  interval,
		presenter: p,
		overlays:  make(map[string]*image.RGBA),
		pending:   make(map[string]image.Rectangle),
	}
}

// Overlay returns the overlay buffer for a layer, or nil if the layer has
// never been composited. The buffer is live; treat it as read-only.
func (c *Compositor) Overlay(layerID string) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlays[layerID]
}

// Recomposite rewrites the overlay pixels for a dirty region of a layer's
// mask and schedules a throttled presenter push for it.
//
// The region is clamped to the image bounds. Pixel writes are a tight
// per-row loop with no allocation; this runs once per stroke segment.
func (c *Compositor) Recomposite(layerID string, m *IndexMask, lut *LUT, dirty image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	overlay := c.overlays[layerID]
	if overlay == nil || overlay.Bounds().Dx() != c.width || overlay.Bounds().Dy() != c.height {
		overlay = image.NewRGBA(image.Rect(0, 0, c.width, c.height))
		c.overlays[layerID] = overlay
		dirty = overlay.Bounds()
	}

	dirty = dirty.Intersect(image.Rect(0, 0, c.width, c.height)).Intersect(m.Bounds())
	if dirty.Empty() {
		return
	}

	data := m.Data()
	for y := dirty.Min.Y; y < dirty.Max.Y; y++ {
		mi := y*m.Stride() + dirty.Min.X
		oi := y*overlay.Stride + dirty.Min.X*4
		for x := dirty.Min.X; x < dirty.Max.X; x++ {
			rgba := lut[data[mi]]
			overlay.Pix[oi+0] = rgba.R
			overlay.Pix[oi+1] = rgba.G
			overlay.Pix[oi+2] = rgba.B
			overlay.Pix[oi+3] = rgba.A
			mi++
			oi += 4
		}
	}

	c.scheduleLocked(layerID, dirty)
}

// scheduleLocked unions dirty into the layer's pending push and arms the
// flush timer if it is not already running. Caller holds c.mu.
func (c *Compositor) scheduleLocked(layerID string, dirty image.Rectangle) {
	if prev, ok := c.pending[layerID]; ok {
		dirty = prev.Union(dirty)
	}
	c.pending[layerID] = dirty

	if !c.armed {
		c.armed = true
		c.timer = time.AfterFunc(c.interval, c.flushTick)
	}
}

// flushTick is the timer callback: push every pending layer, then go
// idle until the next Recomposite arms the timer again.
func (c *Compositor) flushTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = false
	if c.closed {
		return
	}
	c.flushPendingLocked()
}

// FlushNow forces an immediate synchronous push for one layer, consuming
// its pending entry. Used when switching layers and when finalizing
// undo/redo, so those feel instantaneous.
func (c *Compositor) FlushNow(layerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	dirty, ok := c.pending[layerID]
	if !ok {
		// Still force a push so a newly shown layer appears right away.
		dirty = image.Rect(0, 0, c.width, c.height)
	}
	delete(c.pending, layerID)
	c.pushLocked(layerID, dirty)
}

// FlushAll forces an immediate synchronous push of everything pending.
func (c *Compositor) FlushAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.flushPendingLocked()
}

func (c *Compositor) flushPendingLocked() {
	for layerID, dirty := range c.pending {
		c.pushLocked(layerID, dirty)
	}
	clear(c.pending)
}

func (c *Compositor) pushLocked(layerID string, dirty image.Rectangle) {
	overlay := c.overlays[layerID]
	if overlay == nil || c.presenter == nil {
		return
	}
	if err := c.presenter.Present(layerID, overlay, dirty); err != nil {
		Logger().Warn("presenter push failed", "layer", layerID, "err", err)
	}
}

// Pending returns the number of layers awaiting a push. Mostly useful in
// tests and diagnostics.
func (c *Compositor) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Resize drops every overlay buffer and pending push. Called when the
// project image dimensions change; overlays are rebuilt lazily.
func (c *Compositor) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
	c.overlays = make(map[string]*image.RGBA)
	clear(c.pending)
}

// SetVisible toggles a layer's presenter surface.
func (c *Compositor) SetVisible(layerID string, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presenter != nil {
		c.presenter.SetVisible(layerID, visible)
	}
}

// HideAll hides every presenter surface.
func (c *Compositor) HideAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presenter != nil {
		c.presenter.HideAll()
	}
}

// Remove drops all state held for a layer, including its presenter
// surface.
func (c *Compositor) Remove(layerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.overlays, layerID)
	delete(c.pending, layerID)
	if c.presenter != nil {
		c.presenter.Remove(layerID)
	}
}

// Close stops the flush timer and releases the presenter.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	clear(c.pending)
	c.overlays = nil
	if c.presenter != nil {
		return c.presenter.Close()
	}
	return nil
}
