package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	p := New()
	p.ImagePath = "field.png"
	p.ImageWidth = 640
	p.ImageHeight = 480

	l := p.AddLayer("terrain")
	cat, _ := l.AddCategory("water", Color{0, 0, 255, 200})
	e := l.AddEntity("dock", 12, 34)
	e.CategoryID = cat.ID
	e.Props = map[string]any{"owner": "harbor"}

	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ImageWidth != 640 || got.ImageHeight != 480 {
		t.Errorf("dimensions: got %dx%d", got.ImageWidth, got.ImageHeight)
	}
	if len(got.Layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(got.Layers))
	}
	gl := got.Layers[0]
	if gl.ID != l.ID || gl.Name != "terrain" {
		t.Errorf("layer mismatch: %+v", gl)
	}
	gc := gl.Category(cat.ID)
	if gc == nil || gc.Index != 1 || gc.Color != (Color{0, 0, 255, 200}) {
		t.Errorf("category mismatch: %+v", gc)
	}
	ge := gl.Entity(e.ID)
	if ge == nil || ge.CategoryID != cat.ID || ge.X != 12 || ge.Y != 34 {
		t.Errorf("entity mismatch: %+v", ge)
	}
	if ge.Props["owner"] != "harbor" {
		t.Errorf("props mismatch: %+v", ge.Props)
	}
}

func TestDecodeLegacyAssignsIndices(t *testing.T) {
	// Older files carry categories without an index field.
	data := []byte(`{
		"image_width": 10,
		"image_height": 10,
		"layers": [{
			"id": "l1",
			"name": "legacy",
			"categories": [
				{"id": "a", "name": "first", "color": [255,0,0,255]},
				{"id": "b", "name": "pinned", "color": [0,255,0,255], "index": 1},
				{"id": "c", "name": "second", "color": [0,0,255,255]}
			],
			"entities": []
		}]
	}`)

	p, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	l := p.Layers[0]
	if got := l.Category("b").Index; got != 1 {
		t.Errorf("declared index must be kept, got %d", got)
	}
	ia := l.Category("a").Index
	ic := l.Category("c").Index
	if ia == 0 || ic == 0 {
		t.Fatalf("indices not assigned: a=%d c=%d", ia, ic)
	}
	if ia == ic || ia == 1 || ic == 1 {
		t.Errorf("assigned indices must be unique and avoid 1: a=%d c=%d", ia, ic)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proj.json")

	p := New()
	p.ImageWidth = 8
	p.ImageHeight = 8
	p.AddLayer("only")

	if err := Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Layers) != 1 || got.Layers[0].Name != "only" {
		t.Errorf("round trip mismatch: %+v", got.Layers)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	_ = os.Remove(path)
}
