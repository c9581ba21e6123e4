// Package export writes annotated plans as JPEG images, CSV marker tables and
// YAML marker sheets.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/render"
	"github.com/example/floormark/internal/session"
)

// DefaultJPEGQuality is the quality used for exported images.
const DefaultJPEGQuality = 95

// DateLayout prefixes every exported file name.
const DateLayout = "20060102"

var (
	// ErrNoDocument is returned when exporting a session without a plan.
	ErrNoDocument = errors.New("no document loaded")
	// ErrNoMarkers is returned when a marker table is requested for an
	// empty list.
	ErrNoMarkers = errors.New("no markers to export")
)

// Filename returns "{YYYYMMDD}_{base}.{ext}".
func Filename(base, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", now.Format(DateLayout), base, ext)
}

// CSVHeader is the column row of the marker table.
func CSVHeader() []string {
	return []string{"序號", "位置", "標籤", "備註"}
}

// WriteCSV writes ms as a UTF-8 table with a byte order mark so spreadsheet
// programs pick the right encoding.
func WriteCSV(w io.Writer, ms []marker.Marker) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	bw := bufio.NewWriter(tw)
	cw := csv.NewWriter(bw)
	if err := cw.Write(CSVHeader()); err != nil {
		return err
	}
	for _, m := range ms {
		if err := cw.Write([]string{strconv.Itoa(m.Seq), m.Location, m.Category, m.Note}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return tw.Close()
}

// WriteJPEG encodes img at quality, or DefaultJPEGQuality when quality is out
// of range.
func WriteJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

// Exporter renders sessions at full resolution and writes their outputs.
type Exporter struct {
	Composer *render.Composer
	Quality  int
	Dir      string
	Now      func() time.Time
	Log      *slog.Logger
}

// Paths lists the files written by Save. CSV is empty when there were no
// markers.
type Paths struct {
	Image string
	CSV   string
	Sheet string
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// Image draws the session's markers onto the rotated full-resolution plan.
func (e *Exporter) Image(doc *ingest.Document, st session.State) (*image.RGBA, error) {
	if doc == nil || st.Doc == nil {
		return nil, ErrNoDocument
	}
	return e.Composer.Render(doc.Base, st.Markers.Markers(), st.Angle, image.Point{}), nil
}

// Names returns the export file names for doc on the current day.
func (e *Exporter) Names(doc *ingest.Document) Paths {
	now := e.now()
	base := doc.BaseName()
	return Paths{
		Image: Filename(base, "jpg", now),
		CSV:   Filename(base, "csv", now),
		Sheet: Filename(base, "yaml", now),
	}
}

// Save writes the annotated image, the marker table and the marker sheet
// into e.Dir.
func (e *Exporter) Save(doc *ingest.Document, st session.State) (Paths, error) {
	img, err := e.Image(doc, st)
	if err != nil {
		return Paths{}, err
	}
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create export directory: %w", err)
	}
	names := e.Names(doc)
	var out Paths

	out.Image = filepath.Join(dir, names.Image)
	if err := writeFile(out.Image, func(w io.Writer) error { return WriteJPEG(w, img, e.Quality) }); err != nil {
		return out, err
	}
	ms := st.Markers.Markers()
	if len(ms) > 0 {
		out.CSV = filepath.Join(dir, names.CSV)
		if err := writeFile(out.CSV, func(w io.Writer) error { return WriteCSV(w, ms) }); err != nil {
			return out, err
		}
	}
	out.Sheet = filepath.Join(dir, names.Sheet)
	sheet := NewSheet(st, e.now())
	if err := writeFile(out.Sheet, func(w io.Writer) error { return WriteSheet(w, sheet) }); err != nil {
		return out, err
	}
	e.logger().Info("exported", "image", out.Image, "csv", out.CSV, "sheet", out.Sheet, "markers", len(ms))
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
