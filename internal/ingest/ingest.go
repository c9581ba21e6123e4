// Package ingest decodes uploaded floor plans into a full-resolution base
// image and a display copy.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/example/floormark/internal/render"
	"github.com/example/floormark/internal/session"
)

var (
	// ErrUnsupported is returned for files that are neither a known image
	// format nor a PDF.
	ErrUnsupported = errors.New("unsupported document format")
	// ErrCorrupt is returned when a recognised file cannot be decoded.
	ErrCorrupt = errors.New("corrupt document")
	// ErrTooLarge is returned when the decoded image would exceed MaxPixels.
	ErrTooLarge = errors.New("document too large")
)

// Format names a supported input format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	WebP Format = "webp"
	PDF  Format = "pdf"
)

// DefaultPDFScale is the zoom applied when rasterizing the first PDF page.
const DefaultPDFScale = 1.5

// DefaultMaxPixels bounds the decoded base image.
const DefaultMaxPixels = 180_000_000

var decoders = map[Format]func(io.Reader) (image.Image, error){
	PNG:  png.Decode,
	JPEG: jpeg.Decode,
	GIF:  gif.Decode,
	BMP:  bmp.Decode,
	TIFF: tiff.Decode,
	WebP: webp.Decode,
}

var configDecoders = map[Format]func(io.Reader) (image.Config, error){
	PNG:  png.DecodeConfig,
	JPEG: jpeg.DecodeConfig,
	GIF:  gif.DecodeConfig,
	BMP:  bmp.DecodeConfig,
	TIFF: tiff.DecodeConfig,
	WebP: webp.DecodeConfig,
}

var extensions = map[string]Format{
	".png":  PNG,
	".jpg":  JPEG,
	".jpeg": JPEG,
	".gif":  GIF,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".webp": WebP,
	".pdf":  PDF,
}

// Options control decoding. The zero value uses the defaults.
type Options struct {
	// DisplayWidth caps the display copy; 0 means render.DefaultDisplayWidth.
	DisplayWidth int
	// PDFScale is the page zoom for PDFs; 0 means DefaultPDFScale.
	PDFScale float64
	// MaxPixels bounds width×height of the base image; 0 means DefaultMaxPixels.
	MaxPixels int
	// Rasterizer renders PDF pages; nil means DefaultRasterizer().
	Rasterizer Rasterizer
	Log        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.DisplayWidth <= 0 {
		o.DisplayWidth = render.DefaultDisplayWidth
	}
	if o.PDFScale <= 0 {
		o.PDFScale = DefaultPDFScale
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	if o.Rasterizer == nil {
		o.Rasterizer = DefaultRasterizer()
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	return o
}

// Document is a decoded upload.
type Document struct {
	Name   string
	Size   int64
	Format Format
	// Pages is the page count for PDFs and 1 for images.
	Pages   int
	Base    *image.RGBA
	Display *image.RGBA
}

// Info returns the session view of d.
func (d *Document) Info() session.Document {
	bb, db := d.Base.Bounds(), d.Display.Bounds()
	return session.Document{
		Name:          d.Name,
		Size:          d.Size,
		Width:         bb.Dx(),
		Height:        bb.Dy(),
		DisplayWidth:  db.Dx(),
		DisplayHeight: db.Dy(),
	}
}

// Key is the document identity used for caching.
func (d *Document) Key() string {
	return d.Info().Key()
}

// Key returns the identity key of an upload of size bytes called name, as
// Document.Key would report it after decoding.
func Key(name string, size int64) string {
	return session.Document{Name: name, Size: size}.Key()
}

// BaseName returns the upload name without directory or extension.
func (d *Document) BaseName() string {
	return BaseName(d.Name)
}

// BaseName strips the directory and extension from name.
func BaseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ReadFile decodes the document at path.
func ReadFile(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(filepath.Base(path), data, opts)
}

// Decode turns raw upload bytes into a Document. name is used for the
// identity and as a format hint when the content is not recognised.
func Decode(name string, data []byte, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty file: %w", name, ErrCorrupt)
	}
	format, err := Sniff(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	doc := &Document{Name: name, Size: int64(len(data)), Format: format, Pages: 1}
	var img image.Image
	if format == PDF {
		img, doc.Pages, err = decodePDF(data, opts)
	} else {
		img, err = decodeImage(format, data, opts.MaxPixels)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if b := img.Bounds(); b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("%s: empty image: %w", name, ErrCorrupt)
	}

	doc.Base = render.Flatten(img, color.White)
	doc.Display = render.Thumbnail(doc.Base, opts.DisplayWidth)
	opts.Log.Debug("decoded document",
		"name", name,
		"format", format,
		"size", doc.Size,
		"base", doc.Base.Bounds().Size(),
		"display", doc.Display.Bounds().Size(),
	)
	return doc, nil
}

func decodeImage(format Format, data []byte, maxPixels int) (image.Image, error) {
	cfg, err := configDecoders[format](bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read %s header: %v: %w", format, err, ErrCorrupt)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%dx%d pixels: %w", cfg.Width, cfg.Height, ErrTooLarge)
	}
	img, err := decoders[format](bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", format, err, ErrCorrupt)
	}
	return img, nil
}

// Sniff identifies the format of data from its leading bytes, falling back to
// the extension of name.
func Sniff(name string, data []byte) (Format, error) {
	if f, ok := sniffMagic(data); ok {
		return f, nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	if ext == "" {
		return "", ErrUnsupported
	}
	return "", fmt.Errorf("extension %s: %w", ext, ErrUnsupported)
}

func sniffMagic(b []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return PNG, true
	case bytes.HasPrefix(b, []byte{0xff, 0xd8, 0xff}):
		return JPEG, true
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return GIF, true
	case bytes.HasPrefix(b, []byte("BM")) && len(b) >= 14:
		return BMP, true
	case bytes.HasPrefix(b, []byte("II*\x00")), bytes.HasPrefix(b, []byte("MM\x00*")):
		return TIFF, true
	case len(b) >= 12 && bytes.HasPrefix(b, []byte("RIFF")) && string(b[8:12]) == "WEBP":
		return WebP, true
	}
	// PDF readers accept a header anywhere in the first kilobyte.
	head := b
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, []byte("%PDF-")) {
		return PDF, true
	}
	return "", false
}

// Formats lists the accepted extensions in a stable order.
func Formats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".pdf"}
}
