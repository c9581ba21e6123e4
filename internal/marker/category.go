package marker

import (
	"image/color"
	"slices"
)

// Ratios of the base image width used when drawing and hit-testing markers.
const (
	DrawRadiusRatio = 0.012
	FontScaleRatio  = 0.020
	HitRadius       = 0.015
)

// Category pairs a marker label with its fill colour.
type Category struct {
	Label string
	Color color.RGBA
}

var defaultCategories = []Category{
	{"商品", color.RGBA{0xFF, 0x52, 0x52, 0xFF}},
	{"價格", color.RGBA{0xFF, 0xD7, 0x40, 0xFF}},
	{"清潔", color.RGBA{0x69, 0xF0, 0xAE, 0xFF}},
	{"備品", color.RGBA{0x44, 0x8A, 0xFF, 0xFF}},
	{"流程", color.RGBA{0xE0, 0x40, 0xFB, 0xFF}},
	{"其他", color.RGBA{0x90, 0xA4, 0xAE, 0xFF}},
}

var locations = []string{"騎樓", "收銀", "生鮮", "日配", "加一", "加二", "百貨", "菸酒"}

// Categories returns the fixed category labels in display order.
func Categories() []string {
	out := make([]string, len(defaultCategories))
	for i, c := range defaultCategories {
		out[i] = c.Label
	}
	return out
}

// IsCategory reports whether label names a known category.
func IsCategory(label string) bool {
	return slices.Contains(Categories(), label)
}

// Locations returns the fixed site zones in display order.
func Locations() []string {
	return slices.Clone(locations)
}

// IsLocation reports whether tag names a known zone.
func IsLocation(tag string) bool {
	return slices.Contains(locations, tag)
}

// Palette maps category labels to fill colours.
type Palette struct {
	entries []Category
}

// DefaultPalette returns the built-in category colours.
func DefaultPalette() Palette {
	return Palette{entries: slices.Clone(defaultCategories)}
}

// Entries returns the categories in display order.
func (p Palette) Entries() []Category {
	if p.entries == nil {
		return slices.Clone(defaultCategories)
	}
	return slices.Clone(p.entries)
}

// Color returns the fill for label, or black when the label is unknown.
func (p Palette) Color(label string) color.RGBA {
	entries := p.entries
	if entries == nil {
		entries = defaultCategories
	}
	for _, c := range entries {
		if c.Label == label {
			return c.Color
		}
	}
	return color.RGBA{A: 0xFF}
}

// WithColor returns a copy of p where label uses col. Labels outside the fixed
// category set are ignored.
func (p Palette) WithColor(label string, col color.RGBA) Palette {
	out := Palette{entries: p.Entries()}
	for i := range out.entries {
		if out.entries[i].Label == label {
			out.entries[i].Color = col
		}
	}
	return out
}
