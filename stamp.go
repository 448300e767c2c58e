package labelmask

import "image"

// EraseMode selects which pixels an erase stamp clears.
type EraseMode uint8

const (
	// EraseAll clears every labeled pixel within the stamp.
	EraseAll EraseMode = iota

	// EraseOnlyCategory clears only pixels holding the selected index.
	EraseOnlyCategory

	// EraseAllBut clears labeled pixels except the selected index.
	EraseAllBut
)

// String returns the mode name used in project files and logs.
func (m EraseMode) String() string {
	switch m {
	case EraseAll:
		return "erase_all"
	case EraseOnlyCategory:
		return "erase_only_category"
	case EraseAllBut:
		return "erase_all_but_category"
	}
	return "unknown"
}

// NeedsCategory reports whether the mode filters on a selected category.
func (m EraseMode) NeedsCategory() bool {
	return m == EraseOnlyCategory || m == EraseAllBut
}

// stampRect returns the circle's bounding box clamped to the mask.
func stampRect(m *IndexMask, x, y, r int) image.Rectangle {
	return image.Rect(x-r, y-r, x+r+1, y+r+1).Intersect(m.Bounds())
}

// Paint writes index into every pixel within radius r of (x, y),
// overwriting whatever was there. Membership is the inclusive test
// dx²+dy² ≤ r²; the stamp boundary is hard, never antialiased.
//
// Returns the clamped bounding rectangle actually touched; the zero
// rectangle when r <= 0 or the stamp lies outside the mask.
func Paint(m *IndexMask, x, y, r int, index uint8) image.Rectangle {
	if r <= 0 {
		return image.Rectangle{}
	}
	rect := stampRect(m, x, y, r)
	if rect.Empty() {
		return image.Rectangle{}
	}

	rr := r * r
	data := m.Data()
	for yy := rect.Min.Y; yy < rect.Max.Y; yy++ {
		dy := yy - y
		row := yy * m.Stride()
		for xx := rect.Min.X; xx < rect.Max.X; xx++ {
			dx := xx - x
			if dx*dx+dy*dy <= rr {
				data[row+xx] = index
			}
		}
	}
	return rect
}

// Erase clears pixels within radius r of (x, y) according to mode.
// selected is the category index the filtering modes compare against; it
// is ignored by EraseAll. Returns the clamped touched rectangle.
//
// Callers must validate that a category is selected before using a
// filtering mode; Erase itself treats selected as plain data.
func Erase(m *IndexMask, x, y, r int, mode EraseMode, selected uint8) image.Rectangle {
	if r <= 0 {
		return image.Rectangle{}
	}
	rect := stampRect(m, x, y, r)
	if rect.Empty() {
		return image.Rectangle{}
	}

	rr := r * r
	data := m.Data()
	for yy := rect.Min.Y; yy < rect.Max.Y; yy++ {
		dy := yy - y
		row := yy * m.Stride()
		for xx := rect.Min.X; xx < rect.Max.X; xx++ {
			dx := xx - x
			if dx*dx+dy*dy > rr {
				continue
			}
			cur := data[row+xx]
			if cur == 0 {
				continue
			}
			switch mode {
			case EraseAll:
				data[row+xx] = 0
			case EraseOnlyCategory:
				if cur == selected {
					data[row+xx] = 0
				}
			case EraseAllBut:
				if cur != selected {
					data[row+xx] = 0
				}
			}
		}
	}
	return rect
}

// SampleCircle counts the labels present within radius r of (x, y),
// clamped to the mask. It returns per-index pixel counts in first-seen
// order (scanning rows top to bottom) and the total number of sampled
// pixels, labeled or not.
//
// Total counts the circle area inside the mask, not the bounding box, so
// percentages derived from it reflect real coverage near image edges.
func SampleCircle(m *IndexMask, x, y, r int) (counts map[uint8]int, order []uint8, total int) {
	counts = make(map[uint8]int)
	if r <= 0 {
		return counts, nil, 0
	}
	rect := stampRect(m, x, y, r)
	if rect.Empty() {
		return counts, nil, 0
	}

	rr := r * r
	data := m.Data()
	for yy := rect.Min.Y; yy < rect.Max.Y; yy++ {
		dy := yy - y
		row := yy * m.Stride()
		for xx := rect.Min.X; xx < rect.Max.X; xx++ {
			dx := xx - x
			if dx*dx+dy*dy > rr {
				continue
			}
			total++
			idx := data[row+xx]
			if idx == 0 {
				continue
			}
			if _, seen := counts[idx]; !seen {
				order = append(order, idx)
			}
			counts[idx]++
		}
	}
	return counts, order, total
}
