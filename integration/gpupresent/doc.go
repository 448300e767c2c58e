// Copyright 2026 The pixtag Authors
// SPDX-License-Identifier: MIT

// Package gpupresent presents layer overlays as GPU textures in a
// gogpu-hosted window.
//
// The data flow per layer is:
//
//	overlay (*image.RGBA) -> staging copy (CPU) -> GPU texture -> window
//
// # Architecture
//
// TexturePresenter implements present.Presenter. The engine's compositor
// pushes dirty overlay regions into a CPU staging buffer; the actual GPU
// upload is deferred to RenderVisible, called from the host's frame
// callback, because texture creation needs a renderer that only exists
// there.
//
// # Usage
//
//	pres, err := gpupresent.New(app.GPUContextProvider(), 1920, 1080)
//	if err != nil { ... }
//	s := labelmask.NewSession(proj, labelmask.WithPresenter(pres))
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    pres.RenderVisible(dc.AsTextureDrawer())
//	})
//
// # Integration Without Circular Imports
//
// Like the rest of the gpucontext ecosystem, this package never imports
// the host framework. It receives a gpucontext.DeviceProvider and
// drives uploads through the gpucontext.TextureUpdater and
// gpucontext.TextureDrawer interfaces, so any host implementing those
// works.
//
// # Thread Safety
//
// Present arrives on the engine's goroutines and RenderVisible on the
// host's render goroutine, so TexturePresenter guards its state with an
// internal mutex. No external synchronization is needed.
package gpupresent
