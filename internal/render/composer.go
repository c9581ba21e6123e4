// Package render draws markers onto plan bitmaps at any resolution.
package render

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/view"
)

// OutlineWidth is the stroke drawn around every marker disc.
const OutlineWidth = 2.0

// Composer draws numbered marker discs. Sizes are fractions of the target
// width so the same marker set looks identical at display and export scale.
type Composer struct {
	Palette marker.Palette
	Fonts   *FontSet
}

// NewComposer returns a Composer. A nil font set resolves the default fonts.
func NewComposer(p marker.Palette, fonts *FontSet) *Composer {
	if fonts == nil {
		fonts = NewFontSet(nil, nil)
	}
	return &Composer{Palette: p, Fonts: fonts}
}

// Render rotates src clockwise by a, resamples it to size when size is
// non-zero, and draws ms on top. src is never modified.
func (c *Composer) Render(src image.Image, ms []marker.Marker, a view.Angle, size image.Point) *image.RGBA {
	dst := Rotate(src, a)
	if size.X > 0 && size.Y > 0 && size != dst.Bounds().Size() {
		dst = Scale(dst, size.X, size.Y)
	}
	c.Draw(dst, ms, a)
	return dst
}

// Compose copies an already rotated background and draws ms on the copy.
func (c *Composer) Compose(rotated image.Image, ms []marker.Marker, a view.Angle) *image.RGBA {
	dst := Clone(rotated)
	c.Draw(dst, ms, a)
	return dst
}

// Draw paints ms onto dst in list order, so later markers cover earlier ones.
// dst must show the base image rotated by a.
func (c *Composer) Draw(dst *image.RGBA, ms []marker.Marker, a view.Angle) {
	if len(ms) == 0 {
		return
	}
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	radius := w * marker.DrawRadiusRatio
	face := c.fonts().Face(math.Floor(w * marker.FontScaleRatio))

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)
	dc.SetLineWidth(OutlineWidth)
	for _, m := range ms {
		x, y := view.ToDisplay(m.Point, a, w, h)
		x += float64(b.Min.X)
		y += float64(b.Min.Y)
		dc.DrawCircle(x, y, radius)
		dc.SetColor(c.Palette.Color(m.Category))
		dc.FillPreserve()
		dc.SetColor(color.White)
		dc.Stroke()
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(strconv.Itoa(m.Seq), x, y, 0.5, 0.5)
	}
}

func (c *Composer) fonts() *FontSet {
	if c.Fonts == nil {
		c.Fonts = NewFontSet(nil, nil)
	}
	return c.Fonts
}
