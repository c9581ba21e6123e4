// Package view maps marker positions between normalized image space and the
// rotated, zoomed bitmap shown to the user.
package view

import (
	"fmt"

	"github.com/example/floormark/internal/marker"
)

// Angle is a clockwise rotation in degrees. Only right angles are valid.
type Angle int

const (
	Angle0   Angle = 0
	Angle90  Angle = 90
	Angle180 Angle = 180
	Angle270 Angle = 270
)

// Angles lists the supported rotations in order.
func Angles() []Angle { return []Angle{Angle0, Angle90, Angle180, Angle270} }

// ParseAngle validates deg as one of the supported rotations.
func ParseAngle(deg int) (Angle, error) {
	switch a := Angle(deg); a {
	case Angle0, Angle90, Angle180, Angle270:
		return a, nil
	}
	return Angle0, fmt.Errorf("unsupported rotation %d: must be 0, 90, 180 or 270", deg)
}

// Next returns the rotation a quarter turn clockwise from a.
func (a Angle) Next() Angle {
	return Angle((int(a) + 90) % 360)
}

// Swaps reports whether the rotation exchanges width and height.
func (a Angle) Swaps() bool { return a == Angle90 || a == Angle270 }

// RotatedSize returns the bounding box of a w×h image after rotating by a.
func RotatedSize(w, h int, a Angle) (int, int) {
	if a.Swaps() {
		return h, w
	}
	return w, h
}

// ToDisplay projects a normalized point onto a bitmap of size dw×dh that shows
// the base image rotated clockwise by a. dw and dh are the rotated dimensions.
func ToDisplay(p marker.Point, a Angle, dw, dh float64) (float64, float64) {
	var u, v float64
	switch a {
	case Angle90:
		u, v = 1-p.Y, p.X
	case Angle180:
		u, v = 1-p.X, 1-p.Y
	case Angle270:
		u, v = p.Y, 1-p.X
	default:
		u, v = p.X, p.Y
	}
	return u * dw, v * dh
}

// FromDisplay is the inverse of ToDisplay.
func FromDisplay(px, py, dw, dh float64, a Angle) marker.Point {
	if dw <= 0 || dh <= 0 {
		return marker.Point{}
	}
	u, v := px/dw, py/dh
	switch a {
	case Angle90:
		return marker.Point{X: v, Y: 1 - u}
	case Angle180:
		return marker.Point{X: 1 - u, Y: 1 - v}
	case Angle270:
		return marker.Point{X: 1 - v, Y: u}
	default:
		return marker.Point{X: u, Y: v}
	}
}
