// Copyright 2026 The pixtag Authors
// SPDX-License-Identifier: MIT

package gpupresent

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/pixtag/labelmask/present"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	device  gpucontext.Device
	queue   gpucontext.Queue
	adapter gpucontext.Adapter
	format  gputypes.TextureFormat
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		device:  &mockDevice{},
		queue:   &mockQueue{},
		adapter: &mockAdapter{},
		format:  gputypes.TextureFormatBGRA8Unorm,
	}
}

func (m *mockProvider) Device() gpucontext.Device             { return m.device }
func (m *mockProvider) Queue() gpucontext.Queue               { return m.queue }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return m.adapter }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }

func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

// mockTexture records destruction and updates.
type mockTexture struct {
	data      []byte
	destroyed bool
	updated   int
}

func (m *mockTexture) UpdateData(data []byte) error {
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.updated++
	return nil
}

func (m *mockTexture) Destroy() {
	m.destroyed = true
}

func TestNew(t *testing.T) {
	provider := newMockProvider()

	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		width    int
		height   int
		wantErr  error
	}{
		{"valid", provider, 640, 480, nil},
		{"nil provider", nil, 640, 480, ErrNilProvider},
		{"zero width", provider, 0, 480, ErrInvalidDimensions},
		{"negative height", provider, 640, -1, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.provider, tt.width, tt.height)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}
			defer p.Close()
			if w, h := p.Size(); w != tt.width || h != tt.height {
				t.Errorf("expected %dx%d, got %dx%d", tt.width, tt.height, w, h)
			}
			if p.Provider() != tt.provider {
				t.Error("expected provider retained")
			}
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil provider")
		}
	}()
	MustNew(nil, 10, 10)
}

func TestPresentStagesDirtyRegion(t *testing.T) {
	p := MustNew(newMockProvider(), 32, 32)
	defer p.Close()

	overlay := image.NewRGBA(image.Rect(0, 0, 32, 32))
	overlay.SetRGBA(5, 5, color.RGBA{255, 0, 0, 255})
	overlay.SetRGBA(20, 20, color.RGBA{0, 255, 0, 255})

	// First push fills everything regardless of dirty.
	if err := p.Present("a", overlay, image.Rect(0, 0, 8, 8)); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	staging := p.Staging("a")
	if staging == nil {
		t.Fatal("expected staging buffer")
	}
	if got := staging.RGBAAt(20, 20); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("expected full first push, got %v at (20,20)", got)
	}

	// Later pushes copy only the dirty region.
	overlay.SetRGBA(5, 5, color.RGBA{0, 0, 255, 255})
	overlay.SetRGBA(20, 20, color.RGBA{0, 0, 255, 255})
	if err := p.Present("a", overlay, image.Rect(0, 0, 8, 8)); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if got := staging.RGBAAt(5, 5); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("expected dirty pixel updated, got %v", got)
	}
	if got := staging.RGBAAt(20, 20); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("expected pixel outside dirty rect untouched, got %v", got)
	}
}

func TestVisibility(t *testing.T) {
	p := MustNew(newMockProvider(), 16, 16)
	defer p.Close()

	overlay := image.NewRGBA(image.Rect(0, 0, 16, 16))
	if err := p.Present("a", overlay, overlay.Bounds()); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if p.Visible("a") {
		t.Error("expected layers hidden by default")
	}
	p.SetVisible("a", true)
	if !p.Visible("a") {
		t.Error("expected layer visible")
	}
	p.HideAll()
	if p.Visible("a") {
		t.Error("expected HideAll to hide the layer")
	}
	// Unknown layers are ignored.
	p.SetVisible("nope", true)
	if p.Visible("nope") {
		t.Error("expected unknown layer to stay invisible")
	}
}

func TestRemoveRetiresTexture(t *testing.T) {
	p := MustNew(newMockProvider(), 16, 16)

	overlay := image.NewRGBA(image.Rect(0, 0, 16, 16))
	if err := p.Present("a", overlay, overlay.Bounds()); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	// Simulate a texture created by an earlier RenderVisible.
	tex := &mockTexture{}
	p.layers["a"].texture = tex

	p.Remove("a")
	if tex.destroyed {
		t.Error("expected deferred destruction, not inline")
	}
	if p.Staging("a") != nil {
		t.Error("expected staging dropped")
	}

	// Close destroys retired textures.
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !tex.destroyed {
		t.Error("expected retired texture destroyed on close")
	}
}

func TestCloseIdempotent(t *testing.T) {
	p := MustNew(newMockProvider(), 16, 16)

	overlay := image.NewRGBA(image.Rect(0, 0, 16, 16))
	if err := p.Present("a", overlay, overlay.Bounds()); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	tex := &mockTexture{}
	p.layers["a"].texture = tex

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !tex.destroyed {
		t.Error("expected texture destroyed on close")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if err := p.Present("a", overlay, overlay.Bounds()); !errors.Is(err, present.ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
	if p.Provider() != nil {
		t.Error("expected nil provider after close")
	}
}

func TestRegistryFactory(t *testing.T) {
	opts := present.Options{Width: 32, Height: 32, Backend: newMockProvider()}
	pres, err := present.NewByName("gpu", opts)
	if err != nil {
		t.Fatalf("expected gpu backend to build, got %v", err)
	}
	pres.Close()

	// Without a provider the factory must refuse.
	if _, err := present.NewByName("gpu", present.Options{Width: 32, Height: 32}); !errors.Is(err, ErrNilProvider) {
		t.Errorf("expected ErrNilProvider, got %v", err)
	}
}
