package labelmask

import (
	"image/color"

	"github.com/pixtag/labelmask/project"
)

// LUT maps a mask index to its display color. Entry 0 and every entry
// without a category stay fully transparent, so indices freed by category
// deletion can never leak visible pixels.
type LUT [256]color.RGBA

// BuildLUT builds the lookup table for a layer's category set.
func BuildLUT(categories []*project.Category) *LUT {
	var lut LUT
	for _, c := range categories {
		lut[c.Index] = c.Color.RGBA()
	}
	return &lut
}
