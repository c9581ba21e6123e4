package export

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/session"
	"github.com/example/floormark/internal/view"
)

// SheetVersion is written into every marker sheet.
const SheetVersion = 1

// Sheet is the YAML form of an annotated plan. It carries the normalized
// coordinates the CSV table omits, so a plan can be re-rendered later.
type Sheet struct {
	Version  int             `yaml:"version"`
	Document SheetDocument   `yaml:"document"`
	Angle    int             `yaml:"angle"`
	Exported string          `yaml:"exported,omitempty"`
	Markers  []marker.Marker `yaml:"markers"`
}

// SheetDocument identifies the plan a sheet belongs to.
type SheetDocument struct {
	Name   string `yaml:"name"`
	Size   int64  `yaml:"size"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
}

// NewSheet captures the markers and view angle of st.
func NewSheet(st session.State, now time.Time) Sheet {
	s := Sheet{
		Version:  SheetVersion,
		Angle:    int(st.Angle),
		Exported: now.Format(time.RFC3339),
		Markers:  st.Markers.Markers(),
	}
	if st.Doc != nil {
		s.Document = SheetDocument{Name: st.Doc.Name, Size: st.Doc.Size, Width: st.Doc.Width, Height: st.Doc.Height}
	}
	return s
}

// WriteSheet encodes s as YAML.
func WriteSheet(w io.Writer, s Sheet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode sheet: %w", err)
	}
	return enc.Close()
}

// ReadSheet decodes a marker sheet. Points are clamped to the unit square and
// sequence numbers are rebuilt from list order.
func ReadSheet(r io.Reader) (Sheet, error) {
	var s Sheet
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Sheet{}, fmt.Errorf("decode sheet: %w", err)
	}
	if s.Version > SheetVersion {
		return Sheet{}, fmt.Errorf("sheet version %d is newer than %d", s.Version, SheetVersion)
	}
	if _, err := view.ParseAngle(s.Angle); err != nil {
		return Sheet{}, fmt.Errorf("sheet: %w", err)
	}
	for i := range s.Markers {
		s.Markers[i].Point = s.Markers[i].Point.Clamp()
	}
	l := marker.NewList(s.Markers)
	s.Markers = l.Markers()
	return s, nil
}

// View returns the sheet's angle.
func (s Sheet) View() view.Angle {
	a, _ := view.ParseAngle(s.Angle)
	return a
}

// Matches reports whether the sheet was made for doc. Sheets without a size
// match on name alone.
func (s Sheet) Matches(doc session.Document) bool {
	if s.Document.Name != doc.Name {
		return false
	}
	return s.Document.Size == 0 || s.Document.Size == doc.Size
}
