package marker

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Append inserts a marker at the end of a List.
const Append = -1

// Point is a position in normalized image space. Both axes run from 0 at the
// top-left corner of the unrotated base image to 1 at the opposite edge.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Clamp limits p to the unit square.
func (p Point) Clamp() Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Marker is a single numbered annotation.
type Marker struct {
	Seq      int    `json:"seq" yaml:"seq"`
	Location string `json:"location" yaml:"location"`
	Category string `json:"category" yaml:"category"`
	Note     string `json:"note" yaml:"note,omitempty"`
	Point    `yaml:",inline"`
}

func (m Marker) String() string {
	return fmt.Sprintf("#%d %s/%s (%.4f, %.4f) %s", m.Seq, m.Location, m.Category, m.X, m.Y, m.Note)
}

// List keeps markers in display order with sequence numbers 1..N.
// The zero value is an empty list ready to use.
type List struct {
	items []Marker
}

// NewList builds a list from ms, renumbering them in the given order.
func NewList(ms []Marker) List {
	l := List{items: make([]Marker, len(ms))}
	copy(l.items, ms)
	l.renumber()
	return l
}

// Len reports the number of markers.
func (l *List) Len() int { return len(l.items) }

// Markers returns a copy of the markers in list order.
func (l *List) Markers() []Marker {
	out := make([]Marker, len(l.items))
	copy(out, l.items)
	return out
}

// At returns the marker at index i.
func (l *List) At(i int) (Marker, bool) {
	if i < 0 || i >= len(l.items) {
		return Marker{}, false
	}
	return l.items[i], true
}

// Clone returns an independent copy of l.
func (l *List) Clone() List {
	return NewList(l.items)
}

// Add inserts m before the 0-based index at. Append, or any index outside the
// list, adds m to the end.
func (l *List) Add(m Marker, at int) {
	m.Note = normalizeNote(m.Note)
	m.Point = m.Point.Clamp()
	if at < 0 || at >= len(l.items) {
		l.items = append(l.items, m)
	} else {
		l.items = append(l.items, Marker{})
		copy(l.items[at+1:], l.items[at:])
		l.items[at] = m
	}
	l.renumber()
}

// RemoveAt deletes the marker at index i.
func (l *List) RemoveAt(i int) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.renumber()
	return true
}

// RemoveNearest deletes the marker closest to p, provided it lies within
// radius. Among equally close markers the earliest in the list is removed.
func (l *List) RemoveNearest(p Point, radius float64) (Marker, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, m := range l.items {
		d := m.Point.Dist(p)
		if d > radius {
			continue
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Marker{}, false
	}
	removed := l.items[best]
	l.RemoveAt(best)
	return removed, true
}

// Clear removes every marker.
func (l *List) Clear() {
	l.items = nil
}

// InsertOptions returns the insert-position labels offered to the user: the
// append slot first, followed by one "insert before" slot per marker.
func (l *List) InsertOptions() []string {
	opts := make([]string, 0, len(l.items)+1)
	opts = append(opts, fmt.Sprintf("#%d", len(l.items)+1))
	for i := range l.items {
		opts = append(opts, fmt.Sprintf("insert:%d", i+1))
	}
	return opts
}

func (l *List) renumber() {
	for i := range l.items {
		l.items[i].Seq = i + 1
	}
}

func normalizeNote(s string) string {
	return strings.TrimRight(norm.NFC.String(s), "\r\n")
}
