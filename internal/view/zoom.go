package view

import "math"

const (
	DefaultZoom Zoom = 1.0
	ZoomStep         = 0.2
	MinZoom     Zoom = 0.4
)

// Zoom scales the rendered bitmap for presentation only.
type Zoom float64

// In returns z one step larger. There is no upper bound.
func (z Zoom) In() Zoom {
	return z.round(float64(z) + ZoomStep)
}

// Out returns z one step smaller, never going below MinZoom.
func (z Zoom) Out() Zoom {
	return z.round(math.Max(float64(MinZoom), float64(z)-ZoomStep))
}

// Unzoom converts a click reported on the zoomed bitmap back to the pixel
// grid of the unzoomed render.
func (z Zoom) Unzoom(px, py float64) (float64, float64) {
	if z <= 0 {
		return px, py
	}
	return px / float64(z), py / float64(z)
}

// Scale returns the presentation size of a w×h render.
func (z Zoom) Scale(w, h int) (int, int) {
	return int(float64(w) * float64(z)), int(float64(h) * float64(z))
}

// round trims accumulated float error so repeated steps land on tenths.
func (z Zoom) round(v float64) Zoom {
	return Zoom(math.Round(v*1e6) / 1e6)
}
