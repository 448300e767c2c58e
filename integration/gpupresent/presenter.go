// Copyright 2026 The pixtag Authors
// SPDX-License-Identifier: MIT

package gpupresent

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"golang.org/x/image/draw"

	"github.com/pixtag/labelmask/present"
)

// Common errors returned by TexturePresenter operations.
var (
	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("gpupresent: nil DeviceProvider")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("gpupresent: invalid dimensions")

	// ErrInvalidRenderer is returned when the draw context has no
	// texture creator.
	ErrInvalidRenderer = errors.New("gpupresent: draw context has no texture creator")
)

// textureDestroyer is the interface for destroying textures.
// This matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// layerTexture is the per-layer upload state.
type layerTexture struct {
	staging *image.RGBA
	texture any // nil until created in RenderVisible
	visible bool
	dirty   bool
}

// TexturePresenter implements present.Presenter on top of GPU textures.
//
// Present blits dirty overlay regions into a CPU staging buffer and marks
// the layer dirty; RenderVisible, called from the host's frame callback,
// creates or updates the GPU texture and draws every visible layer. GPU
// textures are created lazily there because texture creation needs the
// renderer behind the draw context.
//
// Old textures are not destroyed inline: a texture removed or replaced
// may still be referenced by in-flight GPU command buffers, so it is
// queued and destroyed on the next RenderVisible, after the upload path
// has waited for the GPU.
type TexturePresenter struct {
	mu       sync.Mutex
	provider gpucontext.DeviceProvider
	width    int
	height   int
	layers   map[string]*layerTexture
	retired  []any // textures awaiting deferred destruction
	logger   *slog.Logger
	closed   bool
}

// New creates a presenter for overlays of the given size.
// The provider should come from the host, e.g. gogpu.App.GPUContextProvider().
func New(provider gpucontext.DeviceProvider, width, height int) (*TexturePresenter, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	return &TexturePresenter{
		provider: provider,
		width:    width,
		height:   height,
		layers:   make(map[string]*layerTexture),
	}, nil
}

// MustNew is like New but panics on error.
// Use only when errors are programming mistakes (e.g., hardcoded dimensions).
func MustNew(provider gpucontext.DeviceProvider, width, height int) *TexturePresenter {
	p, err := New(provider, width, height)
	if err != nil {
		panic(err)
	}
	return p
}

// SetLogger configures diagnostic logging. A nil logger disables it.
func (p *TexturePresenter) SetLogger(l *slog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = l
}

// Provider returns the DeviceProvider this presenter was created with.
// Returns nil after Close.
func (p *TexturePresenter) Provider() gpucontext.DeviceProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	return p.provider
}

// Size returns the overlay dimensions in pixels.
func (p *TexturePresenter) Size() (width, height int) {
	return p.width, p.height
}

// Present copies the dirty region of img into the layer's staging buffer
// and flags it for upload on the next RenderVisible.
func (p *TexturePresenter) Present(layerID string, img *image.RGBA, dirty image.Rectangle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return present.ErrClosed
	}
	if img == nil {
		return nil
	}

	lt, ok := p.layers[layerID]
	if !ok {
		lt = &layerTexture{staging: image.NewRGBA(image.Rect(0, 0, p.width, p.height))}
		p.layers[layerID] = lt
		// First push fills the whole staging buffer so the texture never
		// shows a partial overlay.
		dirty = lt.staging.Bounds()
	}

	dirty = dirty.Intersect(lt.staging.Bounds())
	if dirty.Empty() {
		return nil
	}
	draw.Draw(lt.staging, dirty, img, dirty.Min, draw.Src)
	lt.dirty = true
	return nil
}

// SetVisible shows or hides a layer's texture. Hidden layers keep their
// staging buffer and texture so showing them again is instant.
func (p *TexturePresenter) SetVisible(layerID string, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lt, ok := p.layers[layerID]; ok {
		lt.visible = visible
	}
}

// HideAll hides every layer.
func (p *TexturePresenter) HideAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, lt := range p.layers {
		lt.visible = false
	}
}

// Remove discards all state held for a layer. The GPU texture is retired,
// not destroyed: it is released on the next RenderVisible.
func (p *TexturePresenter) Remove(layerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lt, ok := p.layers[layerID]
	if !ok {
		return
	}
	delete(p.layers, layerID)
	if lt.texture != nil {
		p.retired = append(p.retired, lt.texture)
	}
}

// Close destroys every texture immediately. The caller must ensure the
// GPU is idle, e.g. by closing after the render loop has stopped.
// Close is idempotent.
func (p *TexturePresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	for _, tex := range p.retired {
		if d, ok := tex.(textureDestroyer); ok {
			d.Destroy()
		}
	}
	p.retired = nil
	for _, lt := range p.layers {
		if d, ok := lt.texture.(textureDestroyer); ok {
			d.Destroy()
		}
	}
	p.layers = nil
	p.provider = nil
	return nil
}

// RenderVisible uploads every dirty layer and draws the visible ones at
// (0, 0). Call it from the host's frame callback with the window's
// texture drawer.
func (p *TexturePresenter) RenderVisible(dc gpucontext.TextureDrawer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return present.ErrClosed
	}

	for layerID, lt := range p.layers {
		if lt.texture == nil {
			creator := dc.TextureCreator()
			if creator == nil {
				return ErrInvalidRenderer
			}
			tex, err := creator.NewTextureFromRGBA(p.width, p.height, lt.staging.Pix)
			if err != nil {
				return fmt.Errorf("gpupresent: NewTextureFromRGBA failed: %w", err)
			}
			lt.texture = tex
			lt.dirty = false
			// Texture creation waits for the GPU internally, so retired
			// textures are no longer referenced by in-flight work.
			p.destroyRetiredLocked()
			if p.logger != nil {
				p.logger.Debug("texture created", "layer", layerID)
			}
			continue
		}
		if lt.dirty {
			if updater, ok := lt.texture.(gpucontext.TextureUpdater); ok {
				if err := updater.UpdateData(lt.staging.Pix); err != nil {
					return fmt.Errorf("gpupresent: texture update failed: %w", err)
				}
			}
			lt.dirty = false
		}
	}

	for _, lt := range p.layers {
		if !lt.visible {
			continue
		}
		tex, ok := lt.texture.(gpucontext.Texture)
		if !ok {
			continue
		}
		if err := dc.DrawTexture(tex, 0, 0); err != nil {
			return fmt.Errorf("gpupresent: draw failed: %w", err)
		}
	}
	return nil
}

func (p *TexturePresenter) destroyRetiredLocked() {
	for _, tex := range p.retired {
		if d, ok := tex.(textureDestroyer); ok {
			d.Destroy()
		}
	}
	p.retired = nil
}

// Staging returns the CPU staging buffer for a layer, or nil. The image
// is live; treat it as read-only. Mostly useful in tests.
func (p *TexturePresenter) Staging(layerID string) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	lt, ok := p.layers[layerID]
	if !ok {
		return nil
	}
	return lt.staging
}

// Visible reports whether a layer is currently shown.
func (p *TexturePresenter) Visible(layerID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	lt, ok := p.layers[layerID]
	return ok && lt.visible
}

var _ present.Presenter = (*TexturePresenter)(nil)

func init() {
	// Priority 100: preferred over the in-memory image backend when a
	// device provider is supplied.
	present.Register("gpu", 100, func(opts present.Options) (present.Presenter, error) {
		provider, ok := opts.Backend.(gpucontext.DeviceProvider)
		if !ok || provider == nil {
			return nil, ErrNilProvider
		}
		return New(provider, opts.Width, opts.Height)
	}, nil)
}
