// Copyright 2026 The pixtag Authors
// SPDX-License-Identifier: MIT

// Package present abstracts the display surface the engine pushes layer
// overlays to.
//
// The engine itself never talks to a window system. It recomposites
// overlay pixels and hands dirty regions to a Presenter; what "showing a
// surface" means is up to the backend (an in-memory image, a toolkit
// pixmap, a GPU texture). Backends register themselves in a Registry so
// front-ends can pick the best one available.
package present

import (
	"errors"
	"fmt"
	"image"
)

// Common errors returned by presenters.
var (
	// ErrClosed is returned when operations are attempted on a closed
	// presenter.
	ErrClosed = errors.New("present: presenter is closed")

	// ErrNoBackend is returned when no registered backend is available.
	ErrNoBackend = errors.New("present: no backend available")
)

// BackendNotFoundError is returned when a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return fmt.Sprintf("present: backend %q not registered", e.Name)
}

// BackendUnavailableError is returned when a backend is registered but not
// usable on this system.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("present: backend %q not available", e.Name)
}

// Options configures presenter creation.
type Options struct {
	// Width and Height are the image dimensions in pixels. Every
	// presented overlay has exactly these dimensions.
	Width  int
	Height int

	// Backend carries backend-specific configuration, e.g. a GPU device
	// provider. Backends that need nothing ignore it.
	Backend any
}

// Presenter receives layer overlays for display.
//
// Presenters are NOT safe for concurrent use; the engine serializes all
// calls behind its compositor lock.
type Presenter interface {
	// Present pushes the overlay for a layer. img is the full overlay
	// buffer; dirty is the region that changed since the previous push.
	// Backends are free to ignore dirty and push everything.
	//
	// The engine retains ownership of img: backends must copy what they
	// keep.
	Present(layerID string, img *image.RGBA, dirty image.Rectangle) error

	// SetVisible shows or hides a layer's surface. Presenting a layer
	// does not make it visible by itself.
	SetVisible(layerID string, visible bool)

	// HideAll hides every layer's surface.
	HideAll()

	// Remove discards all resources held for a layer, e.g. after layer
	// deletion.
	Remove(layerID string)

	// Close releases the presenter. Further calls return ErrClosed.
	Close() error
}
