package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// DefaultDisplayWidth caps the width of the interactive display copy.
const DefaultDisplayWidth = 1000

// Thumbnail returns a copy of src no wider than maxWidth, keeping the aspect
// ratio. Images already within the limit are copied unscaled.
func Thumbnail(src image.Image, maxWidth int) *image.RGBA {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return Clone(src)
	}
	h := int(float64(b.Dy()) * float64(maxWidth) / float64(b.Dx()))
	if h < 1 {
		h = 1
	}
	return Scale(src, maxWidth, h)
}

// Scale resamples src to exactly w×h.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
