package labelmask

import "image"

// IndexMask is a per-pixel category raster. Each byte holds a category
// index: 0 means unlabeled, 1..255 name a category of the owning layer.
//
// The raster is row-major with a stride that may exceed the width; all
// accessors take image-space coordinates.
type IndexMask struct {
	width  int
	height int
	stride int
	data   []uint8
}

// NewIndexMask creates a blank (all zero) mask with the given dimensions.
func NewIndexMask(width, height int) *IndexMask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &IndexMask{
		width:  width,
		height: height,
		stride: width,
		data:   make([]uint8, width*height),
	}
}

// Width returns the mask width in pixels.
func (m *IndexMask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *IndexMask) Height() int { return m.height }

// Stride returns the number of bytes per row.
func (m *IndexMask) Stride() int { return m.stride }

// Bounds returns the mask dimensions as an image.Rectangle.
func (m *IndexMask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// Data returns the raw raster bytes. Rows are stride apart.
func (m *IndexMask) Data() []uint8 { return m.data }

// At returns the index at (x, y), or 0 outside the mask bounds.
func (m *IndexMask) At(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.stride+x]
}

// Set writes the index at (x, y). Out-of-bounds coordinates are ignored.
func (m *IndexMask) Set(x, y int, index uint8) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.data[y*m.stride+x] = index
}

// Fill sets every pixel to the given index.
func (m *IndexMask) Fill(index uint8) {
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.stride : y*m.stride+m.width]
		for x := range row {
			row[x] = index
		}
	}
}

// Clone returns a deep copy of the mask.
func (m *IndexMask) Clone() *IndexMask {
	c := &IndexMask{
		width:  m.width,
		height: m.height,
		stride: m.stride,
		data:   make([]uint8, len(m.data)),
	}
	copy(c.data, m.data)
	return c
}

// EqualBytes reports whether both masks hold identical pixels.
func (m *IndexMask) EqualBytes(o *IndexMask) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for y := 0; y < m.height; y++ {
		a := m.data[y*m.stride : y*m.stride+m.width]
		b := o.data[y*o.stride : y*o.stride+o.width]
		for x := range a {
			if a[x] != b[x] {
				return false
			}
		}
	}
	return true
}

// CopyRect returns the pixels of rect packed tightly (rect.Dx()*rect.Dy()
// bytes, no stride padding). rect is clamped to the mask bounds.
func (m *IndexMask) CopyRect(rect image.Rectangle) []uint8 {
	rect = rect.Intersect(m.Bounds())
	if rect.Empty() {
		return nil
	}
	w := rect.Dx()
	out := make([]uint8, w*rect.Dy())
	oi := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		start := y*m.stride + rect.Min.X
		copy(out[oi:oi+w], m.data[start:start+w])
		oi += w
	}
	return out
}

// WriteRect writes packed pixel bytes (as produced by CopyRect for the
// same rect) back into the mask.
//
// A length mismatch means a broken snapshot invariant, not bad input, so
// WriteRect panics rather than returning an error.
func (m *IndexMask) WriteRect(rect image.Rectangle, data []uint8) {
	rect = rect.Intersect(m.Bounds())
	if rect.Empty() {
		if len(data) != 0 {
			panic("labelmask: WriteRect: bytes for an empty rect")
		}
		return
	}
	w := rect.Dx()
	if len(data) != w*rect.Dy() {
		panic("labelmask: WriteRect: rect byte length mismatch")
	}
	di := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		start := y*m.stride + rect.Min.X
		copy(m.data[start:start+w], data[di:di+w])
		di += w
	}
}

// ClearIndex zeroes every pixel holding the given index and returns how
// many were cleared. Used when a category is deleted so its freed index
// can never linger in the raster.
func (m *IndexMask) ClearIndex(index uint8) int {
	if index == 0 {
		return 0
	}
	cleared := 0
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.stride : y*m.stride+m.width]
		for x := range row {
			if row[x] == index {
				row[x] = 0
				cleared++
			}
		}
	}
	return cleared
}

// CountIndex returns the number of pixels holding the given index.
func (m *IndexMask) CountIndex(index uint8) int {
	n := 0
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.stride : y*m.stride+m.width]
		for x := range row {
			if row[x] == index {
				n++
			}
		}
	}
	return n
}
