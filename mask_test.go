package labelmask

import (
	"image"
	"testing"
)

func TestNewIndexMaskBlank(t *testing.T) {
	m := NewIndexMask(7, 5)
	if m.Width() != 7 || m.Height() != 5 {
		t.Fatalf("expected 7x5, got %dx%d", m.Width(), m.Height())
	}
	if m.Stride() < m.Width() {
		t.Fatalf("stride %d smaller than width %d", m.Stride(), m.Width())
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			if m.At(x, y) != 0 {
				t.Fatalf("expected blank mask, got %d at (%d,%d)", m.At(x, y), x, y)
			}
		}
	}
}

func TestIndexMaskSetAt(t *testing.T) {
	m := NewIndexMask(4, 4)
	m.Set(2, 3, 9)
	if got := m.At(2, 3); got != 9 {
		t.Errorf("expected 9, got %d", got)
	}
	// Out of bounds reads are 0, writes are dropped.
	if got := m.At(-1, 0); got != 0 {
		t.Errorf("expected 0 out of bounds, got %d", got)
	}
	m.Set(4, 0, 5)
	m.Set(0, -1, 5)
	if got := m.CountIndex(5); got != 0 {
		t.Errorf("expected out-of-bounds writes dropped, got %d pixels", got)
	}
}

func TestIndexMaskCopyWriteRect(t *testing.T) {
	m := NewIndexMask(10, 10)
	m.Fill(1)
	rect := image.Rect(2, 3, 6, 7)
	before := m.CopyRect(rect)
	if len(before) != rect.Dx()*rect.Dy() {
		t.Fatalf("expected %d bytes, got %d", rect.Dx()*rect.Dy(), len(before))
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			m.Set(x, y, 2)
		}
	}
	m.WriteRect(rect, before)
	if got := m.CountIndex(2); got != 0 {
		t.Errorf("expected restore to remove all 2s, got %d", got)
	}
	if got := m.CountIndex(1); got != 100 {
		t.Errorf("expected 100 pixels of 1, got %d", got)
	}
}

func TestIndexMaskWriteRectLengthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on length mismatch")
		}
	}()
	m := NewIndexMask(8, 8)
	m.WriteRect(image.Rect(0, 0, 4, 4), make([]uint8, 3))
}

func TestIndexMaskClearIndex(t *testing.T) {
	m := NewIndexMask(6, 6)
	m.Set(0, 0, 3)
	m.Set(5, 5, 3)
	m.Set(2, 2, 4)
	if got := m.ClearIndex(3); got != 2 {
		t.Errorf("expected 2 cleared, got %d", got)
	}
	if got := m.CountIndex(3); got != 0 {
		t.Errorf("expected index 3 gone, got %d", got)
	}
	if got := m.At(2, 2); got != 4 {
		t.Errorf("expected other indices untouched, got %d", got)
	}
}

func TestIndexMaskClone(t *testing.T) {
	m := NewIndexMask(5, 5)
	m.Set(1, 1, 7)
	c := m.Clone()
	if !c.EqualBytes(m) {
		t.Fatal("expected clone equal to source")
	}
	c.Set(1, 1, 8)
	if m.At(1, 1) != 7 {
		t.Error("expected clone to be independent of source")
	}
}
