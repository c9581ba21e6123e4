package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"

	"github.com/gen2brain/go-fitz"
	pdflib "github.com/ledongthuc/pdf"
)

// Rasterizer renders one page (0-based) of a PDF at dpi.
type Rasterizer interface {
	Rasterize(data []byte, page int, dpi float64) (image.Image, error)
}

// RasterizerFunc adapts a function to Rasterizer.
type RasterizerFunc func(data []byte, page int, dpi float64) (image.Image, error)

func (f RasterizerFunc) Rasterize(data []byte, page int, dpi float64) (image.Image, error) {
	return f(data, page, dpi)
}

// DefaultRasterizer renders with MuPDF and falls back to pdftoppm when it is
// installed.
func DefaultRasterizer() Rasterizer {
	return Fallback{FitzRasterizer{}, PdftoppmRasterizer{}}
}

// FitzRasterizer renders pages through MuPDF.
type FitzRasterizer struct{}

func (FitzRasterizer) Rasterize(data []byte, page int, dpi float64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("page %d of %d", page+1, doc.NumPage())
	}
	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	return img, nil
}

// PdftoppmRasterizer shells out to poppler's pdftoppm.
type PdftoppmRasterizer struct {
	// Path is the pdftoppm binary; empty means look it up on PATH.
	Path string
}

func (p PdftoppmRasterizer) Rasterize(data []byte, page int, dpi float64) (image.Image, error) {
	bin := p.Path
	if bin == "" {
		var err error
		if bin, err = exec.LookPath("pdftoppm"); err != nil {
			return nil, fmt.Errorf("pdftoppm: %w", err)
		}
	}
	tmp, err := os.CreateTemp("", "floormark-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	n := fmt.Sprint(page + 1)
	cmd := exec.Command(bin, "-png", "-singlefile", "-f", n, "-l", n, "-r", fmt.Sprintf("%.0f", dpi), tmpPath)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("pdftoppm output: %w", err)
	}
	return img, nil
}

// Fallback tries each rasterizer in order and returns the first success.
type Fallback []Rasterizer

func (f Fallback) Rasterize(data []byte, page int, dpi float64) (image.Image, error) {
	var errs []error
	for _, r := range f {
		img, err := r.Rasterize(data, page, dpi)
		if err == nil {
			return img, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no rasterizer configured")
	}
	return nil, errors.Join(errs...)
}

// PageCount reads the page tree of a PDF without rendering it.
func PageCount(data []byte) (n int, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("parse pdf: %v: %w", r, ErrCorrupt)
		}
	}()
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %v: %w", err, ErrCorrupt)
	}
	n = r.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("pdf has no pages: %w", ErrCorrupt)
	}
	return n, nil
}

func decodePDF(data []byte, opts Options) (image.Image, int, error) {
	pages, err := PageCount(data)
	if err != nil {
		return nil, 0, err
	}
	if pages > 1 {
		opts.Log.Warn("pdf has several pages, using the first", "pages", pages)
	}
	img, err := opts.Rasterizer.Rasterize(data, 0, 72*opts.PDFScale)
	if err != nil {
		return nil, 0, fmt.Errorf("rasterize pdf: %v: %w", err, ErrCorrupt)
	}
	if b := img.Bounds(); b.Dx()*b.Dy() > opts.MaxPixels {
		return nil, 0, fmt.Errorf("%dx%d pixels: %w", b.Dx(), b.Dy(), ErrTooLarge)
	}
	return img, pages, nil
}
