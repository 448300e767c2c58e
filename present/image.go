// Copyright 2026 The pixtag Authors
// SPDX-License-Identifier: MIT

package present

import (
	"image"

	"golang.org/x/image/draw"
)

// ImagePresenter keeps a CPU-side copy of each presented layer overlay.
//
// It stands in for a windowing pixmap: Present blits the dirty region into
// the layer's retained image, and Snapshot exposes what would be on
// screen. It is also the fallback backend when nothing else is registered.
type ImagePresenter struct {
	width  int
	height int

	surfaces map[string]*layerSurface
	closed   bool
}

type layerSurface struct {
	img     *image.RGBA
	visible bool
}

// NewImagePresenter creates a presenter for overlays of the given size.
func NewImagePresenter(width, height int) *ImagePresenter {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &ImagePresenter{
		width:    width,
		height:   height,
		surfaces: make(map[string]*layerSurface),
	}
}

// Present copies the dirty region of img into the layer's retained surface.
func (p *ImagePresenter) Present(layerID string, img *image.RGBA, dirty image.Rectangle) error {
	if p.closed {
		return ErrClosed
	}
	if img == nil {
		return nil
	}

	s, ok := p.surfaces[layerID]
	if !ok {
		s = &layerSurface{img: image.NewRGBA(image.Rect(0, 0, p.width, p.height))}
		p.surfaces[layerID] = s
		// First push fills the whole retained surface so it never shows
		// a partial overlay.
		dirty = s.img.Bounds()
	}

	dirty = dirty.Intersect(s.img.Bounds())
	if dirty.Empty() {
		return nil
	}
	draw.Draw(s.img, dirty, img, dirty.Min, draw.Src)
	return nil
}

// SetVisible shows or hides a layer's surface.
func (p *ImagePresenter) SetVisible(layerID string, visible bool) {
	if s, ok := p.surfaces[layerID]; ok {
		s.visible = visible
	}
}

// HideAll hides every surface.
func (p *ImagePresenter) HideAll() {
	for _, s := range p.surfaces {
		s.visible = false
	}
}

// Remove discards the surface held for a layer.
func (p *ImagePresenter) Remove(layerID string) {
	delete(p.surfaces, layerID)
}

// Close releases all surfaces.
func (p *ImagePresenter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.surfaces = nil
	return nil
}

// Visible reports whether a layer's surface is currently shown.
func (p *ImagePresenter) Visible(layerID string) bool {
	s, ok := p.surfaces[layerID]
	return ok && s.visible
}

// Snapshot returns the retained surface for a layer, or nil if the layer
// has never been presented. The returned image is live; treat it as
// read-only.
func (p *ImagePresenter) Snapshot(layerID string) *image.RGBA {
	s, ok := p.surfaces[layerID]
	if !ok {
		return nil
	}
	return s.img
}

func init() {
	Register("image", 10, func(opts Options) (Presenter, error) {
		return NewImagePresenter(opts.Width, opts.Height), nil
	}, nil)
}
