// Package session holds the per-user editing state and the event handler that
// turns clicks and control changes into marker mutations.
package session

import (
	"fmt"
	"strings"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/view"
)

// Mode selects what a click on the plan does.
type Mode int

const (
	ModeAdd Mode = iota
	ModeRemove
)

func (m Mode) String() string {
	switch m {
	case ModeRemove:
		return "remove"
	default:
		return "add"
	}
}

// ParseMode accepts "add" or "remove".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return ModeAdd, nil
	case "remove":
		return ModeRemove, nil
	}
	return ModeAdd, fmt.Errorf("unknown mode %q", s)
}

// Document describes the loaded plan. Name and Size form its identity.
type Document struct {
	Name string
	Size int64
	// Width and Height are the full-resolution base image dimensions.
	Width, Height int
	// DisplayWidth and DisplayHeight are the unrotated thumbnail dimensions
	// that clicks are reported against.
	DisplayWidth, DisplayHeight int
}

// SameFile reports whether d and o refer to the same upload.
func (d Document) SameFile(o Document) bool {
	return d.Name == o.Name && d.Size == o.Size
}

// Key returns the identity string of the document.
func (d Document) Key() string {
	return fmt.Sprintf("%s_%d", d.Name, d.Size)
}

// ClickKey identifies a processed click by its raw coordinates.
type ClickKey struct {
	X, Y float64
}

// State is the complete editing state of one session. Values are treated as
// immutable by Handle; mutate only through events.
type State struct {
	Doc      *Document
	Markers  marker.List
	Angle    view.Angle
	Zoom     view.Zoom
	Category string
	Location string
	// Insert is 0 to append, or the 1-based position a new marker is inserted
	// before.
	Insert    int
	Note      string
	Mode      Mode
	LastClick *ClickKey
}

// New returns the state of a fresh session with no document.
func New() State {
	return State{
		Zoom:     view.DefaultZoom,
		Location: marker.Locations()[0],
	}
}

func (s State) clone() State {
	out := s
	out.Markers = s.Markers.Clone()
	if s.Doc != nil {
		d := *s.Doc
		out.Doc = &d
	}
	if s.LastClick != nil {
		k := *s.LastClick
		out.LastClick = &k
	}
	return out
}

// DisplaySize returns the size of the rotated, unzoomed display render.
func (s State) DisplaySize() (int, int) {
	if s.Doc == nil {
		return 0, 0
	}
	return view.RotatedSize(s.Doc.DisplayWidth, s.Doc.DisplayHeight, s.Angle)
}

// InsertOptions returns the insert-position labels for the current markers.
func (s State) InsertOptions() []string {
	return s.Markers.InsertOptions()
}

// insertIndex converts the 1-based Insert selection into a List index.
func (s State) insertIndex() int {
	if s.Insert <= 0 || s.Insert > s.Markers.Len() {
		return marker.Append
	}
	return s.Insert - 1
}
