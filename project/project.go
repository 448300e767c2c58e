// Package project holds the persisted data model for a labeling project:
// the source image dimensions, layers, per-layer categories and entities,
// and the encoded form of each layer's index mask.
//
// The model is plain data plus identity-based lookups. Runtime state
// (decoded masks, overlay buffers, lookup tables) never lives here; it is
// rebuilt by the engine and keyed by layer id, so the persisted records
// stay serializable as-is.
package project

import (
	"errors"
	"fmt"
	"image/color"
)

// MaxCategories is the number of assignable category indices per layer.
// Index 0 is reserved to mean "no category", leaving 1..255.
const MaxCategories = 255

// ErrCategoryLimit is returned when a layer already uses all 255 indices.
var ErrCategoryLimit = errors.New("project: layer has no free category index")

// Color is an RGBA color with 0-255 components.
// It serializes as a four-element JSON array.
type Color [4]uint8

// RGBA converts the color to the standard library representation.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// Category is a paintable label within a layer. Its Index is the byte
// value written into the layer's index mask; it is unique within the
// owning layer and never 0.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
	Index uint8  `json:"index"`
}

// Entity is a named point marker. CategoryID is a weak reference: it may
// name a category that no longer exists, in which case it reads as "none".
type Entity struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	CategoryID string         `json:"category_id,omitempty"`
	Props      map[string]any `json:"props,omitempty"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
}

// Layer groups categories, entities and one index mask. MaskPNG holds the
// persisted mask as base64-encoded grayscale PNG; it is empty until the
// layer has been painted and saved.
type Layer struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Categories []*Category `json:"categories"`
	Entities   []*Entity   `json:"entities"`
	MaskPNG    string      `json:"mask_index_png_b64,omitempty"`
}

// Project is the root container. ImageWidth and ImageHeight are fixed once
// an image is loaded; every layer's mask matches these dimensions.
type Project struct {
	ImagePath   string   `json:"image_path,omitempty"`
	ImageWidth  int      `json:"image_width"`
	ImageHeight int      `json:"image_height"`
	Layers      []*Layer `json:"layers"`
}

// New creates an empty project with no image.
func New() *Project {
	return &Project{}
}

// HasImage reports whether an image has been loaded.
func (p *Project) HasImage() bool {
	return p.ImageWidth > 0 && p.ImageHeight > 0
}

// Layer returns the layer with the given id, or nil.
func (p *Project) Layer(id string) *Layer {
	for _, l := range p.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// AddLayer appends a new empty layer and returns it.
func (p *Project) AddLayer(name string) *Layer {
	l := &Layer{ID: NewID(), Name: name}
	p.Layers = append(p.Layers, l)
	return l
}

// RemoveLayer deletes the layer with the given id.
// Returns true if a layer was removed.
func (p *Project) RemoveLayer(id string) bool {
	for i, l := range p.Layers {
		if l.ID == id {
			p.Layers = append(p.Layers[:i], p.Layers[i+1:]...)
			return true
		}
	}
	return false
}

// Category returns the category with the given id, or nil.
func (l *Layer) Category(id string) *Category {
	for _, c := range l.Categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CategoryByIndex returns the category holding the given mask index, or nil.
func (l *Layer) CategoryByIndex(index uint8) *Category {
	for _, c := range l.Categories {
		if c.Index == index {
			return c
		}
	}
	return nil
}

// Entity returns the entity with the given id, or nil.
func (l *Layer) Entity(id string) *Entity {
	for _, e := range l.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// AddCategory creates a category with the lowest free index in 1..255.
// Returns ErrCategoryLimit when every index is taken.
func (l *Layer) AddCategory(name string, c Color) (*Category, error) {
	idx, ok := l.freeIndex()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryLimit, l.Name)
	}
	cat := &Category{ID: NewID(), Name: name, Color: c, Index: idx}
	l.Categories = append(l.Categories, cat)
	return cat, nil
}

// RemoveCategory deletes the category with the given id, detaches every
// entity referencing it, and returns the freed mask index.
// The second result is false if no such category exists.
//
// Clearing the freed index out of the layer's mask is the caller's job;
// the model has no access to runtime rasters.
func (l *Layer) RemoveCategory(id string) (uint8, bool) {
	for i, c := range l.Categories {
		if c.ID != id {
			continue
		}
		l.Categories = append(l.Categories[:i], l.Categories[i+1:]...)
		for _, e := range l.Entities {
			if e.CategoryID == id {
				e.CategoryID = ""
			}
		}
		return c.Index, true
	}
	return 0, false
}

// AddEntity appends a point entity at (x, y).
func (l *Layer) AddEntity(name string, x, y float64) *Entity {
	e := &Entity{ID: NewID(), Name: name, X: x, Y: y}
	l.Entities = append(l.Entities, e)
	return e
}

// RemoveEntity deletes the entity with the given id.
// Returns true if an entity was removed.
func (l *Layer) RemoveEntity(id string) bool {
	for i, e := range l.Entities {
		if e.ID == id {
			l.Entities = append(l.Entities[:i], l.Entities[i+1:]...)
			return true
		}
	}
	return false
}

// freeIndex returns the lowest unused index in 1..255.
func (l *Layer) freeIndex() (uint8, bool) {
	var used [256]bool
	for _, c := range l.Categories {
		used[c.Index] = true
	}
	for i := 1; i <= MaxCategories; i++ {
		if !used[i] {
			return uint8(i), true
		}
	}
	return 0, false
}
