package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/example/floormark/internal/view"
)

// Clone returns a zero-origin copy of img that the caller may draw on.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Flatten composites img over an opaque bg and returns a zero-origin copy.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// Rotate returns a copy of src turned clockwise by a with the frame expanded
// to fit, so a 90 or 270 degree turn swaps width and height.
func Rotate(src image.Image, a view.Angle) *image.RGBA {
	sb := src.Bounds()
	w, h := float64(sb.Dx()), float64(sb.Dy())
	dw, dh := view.RotatedSize(sb.Dx(), sb.Dy(), a)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	// s2d maps source coordinates (relative to sb.Min) to destination pixels.
	var m f64.Aff3
	switch a {
	case view.Angle90:
		m = f64.Aff3{0, -1, h, 1, 0, 0}
	case view.Angle180:
		m = f64.Aff3{-1, 0, w, 0, -1, h}
	case view.Angle270:
		m = f64.Aff3{0, 1, 0, -1, 0, w}
	default:
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}
	m[2] -= m[0]*float64(sb.Min.X) + m[1]*float64(sb.Min.Y)
	m[5] -= m[3]*float64(sb.Min.X) + m[4]*float64(sb.Min.Y)
	xdraw.NearestNeighbor.Transform(dst, m, src, sb, xdraw.Src, nil)
	return dst
}
