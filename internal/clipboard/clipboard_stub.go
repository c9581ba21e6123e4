//go:build !(((linux || freebsd || openbsd || netbsd || dragonfly || darwin) && cgo) || windows)

package clipboard

import (
	"errors"
	"image"
)

var errUnsupported = errors.New("clipboard operations need cgo on this platform")

func WriteImage(image.Image) error {
	return errUnsupported
}

func ReadImage() (image.Image, []byte, error) {
	return nil, nil, errUnsupported
}

func WriteText(string) error {
	return errUnsupported
}
