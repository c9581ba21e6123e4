package session

import (
	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/view"
)

// Event is an input to Handle.
type Event interface {
	apply(s *State) Result
}

// Outcome classifies what an event did.
type Outcome int

const (
	Ignored Outcome = iota
	Changed
	Added
	Removed
	Missed
	Loaded
	Reloaded
	Cleared
)

var outcomeNames = map[Outcome]string{
	Ignored:  "ignored",
	Changed:  "changed",
	Added:    "added",
	Removed:  "removed",
	Missed:   "missed",
	Loaded:   "loaded",
	Reloaded: "reloaded",
	Cleared:  "cleared",
}

func (o Outcome) String() string { return outcomeNames[o] }

// Result reports the effect of one event. Marker is set for Added and Removed.
type Result struct {
	Outcome Outcome
	Marker  marker.Marker
}

// Handle applies ev to s and returns the resulting state. s is not modified.
func Handle(s State, ev Event) State {
	next, _ := Apply(s, ev)
	return next
}

// Apply is Handle that also reports what happened.
func Apply(s State, ev Event) (State, Result) {
	next := s.clone()
	if ev == nil {
		return next, Result{}
	}
	res := ev.apply(&next)
	return next, res
}

// Load switches the session to a document. Loading the same file again keeps
// the markers; a different file starts over with the default view.
type Load struct {
	Doc Document
}

func (e Load) apply(s *State) Result {
	doc := e.Doc
	if s.Doc != nil && s.Doc.SameFile(doc) {
		s.Doc = &doc
		return Result{Outcome: Reloaded}
	}
	s.Doc = &doc
	s.Markers.Clear()
	s.Angle = view.Angle0
	s.Zoom = view.DefaultZoom
	s.Insert = 0
	s.Note = ""
	s.LastClick = nil
	return Result{Outcome: Loaded}
}

// Click is a pointer press on the displayed plan, in pixels of the zoomed
// bitmap. When Width and Height are set they give the size of the bitmap the
// click was measured on; otherwise the session zoom and display size are used.
type Click struct {
	X, Y          float64
	Width, Height float64
}

func (e Click) apply(s *State) Result {
	key := ClickKey{X: e.X, Y: e.Y}
	if s.LastClick != nil && *s.LastClick == key {
		return Result{}
	}
	p, ok := e.normalize(s)
	if !ok {
		return Result{}
	}
	switch s.Mode {
	case ModeRemove:
		s.LastClick = &key
		removed, hit := s.Markers.RemoveNearest(p, marker.HitRadius)
		if !hit {
			return Result{Outcome: Missed}
		}
		if s.Insert > s.Markers.Len() {
			s.Insert = 0
		}
		return Result{Outcome: Removed, Marker: removed}
	default:
		if s.Category == "" {
			return Result{}
		}
		at := s.insertIndex()
		s.Markers.Add(marker.Marker{
			Location: s.Location,
			Category: s.Category,
			Note:     s.Note,
			Point:    p,
		}, at)
		s.Note = ""
		s.LastClick = &key
		idx := at
		if idx == marker.Append {
			idx = s.Markers.Len() - 1
		}
		added, _ := s.Markers.At(idx)
		return Result{Outcome: Added, Marker: added}
	}
}

// normalize maps the click into marker space, rejecting clicks that land
// outside the displayed bitmap.
func (e Click) normalize(s *State) (marker.Point, bool) {
	if s.Doc == nil {
		return marker.Point{}, false
	}
	dw, dh := s.DisplaySize()
	if dw <= 0 || dh <= 0 {
		return marker.Point{}, false
	}
	px, py := e.X, e.Y
	if e.Width > 0 && e.Height > 0 {
		px = e.X / e.Width * float64(dw)
		py = e.Y / e.Height * float64(dh)
	} else {
		px, py = s.Zoom.Unzoom(px, py)
	}
	if px < 0 || py < 0 || px > float64(dw) || py > float64(dh) {
		return marker.Point{}, false
	}
	return view.FromDisplay(px, py, float64(dw), float64(dh), s.Angle), true
}

// SetMode switches between adding and removing markers.
type SetMode struct{ Mode Mode }

func (e SetMode) apply(s *State) Result {
	if e.Mode != ModeAdd && e.Mode != ModeRemove {
		return Result{}
	}
	s.Mode = e.Mode
	return Result{Outcome: Changed}
}

// SelectCategory sets the category applied by the next Add.
type SelectCategory struct{ Label string }

func (e SelectCategory) apply(s *State) Result {
	if !marker.IsCategory(e.Label) {
		return Result{}
	}
	s.Category = e.Label
	return Result{Outcome: Changed}
}

// SelectLocation sets the zone recorded on new markers.
type SelectLocation struct{ Tag string }

func (e SelectLocation) apply(s *State) Result {
	if !marker.IsLocation(e.Tag) {
		return Result{}
	}
	s.Location = e.Tag
	return Result{Outcome: Changed}
}

// SelectInsert picks where the next marker goes: 0 appends, k inserts before
// the marker currently numbered k.
type SelectInsert struct{ Position int }

func (e SelectInsert) apply(s *State) Result {
	if e.Position < 0 || e.Position > s.Markers.Len() {
		return Result{}
	}
	s.Insert = e.Position
	return Result{Outcome: Changed}
}

// SetNote replaces the pending note text.
type SetNote struct{ Text string }

func (e SetNote) apply(s *State) Result {
	s.Note = e.Text
	return Result{Outcome: Changed}
}

// ZoomIn enlarges the presentation by one step.
type ZoomIn struct{}

func (ZoomIn) apply(s *State) Result {
	s.Zoom = s.Zoom.In()
	return Result{Outcome: Changed}
}

// ZoomOut shrinks the presentation by one step down to the floor.
type ZoomOut struct{}

func (ZoomOut) apply(s *State) Result {
	z := s.Zoom.Out()
	if z == s.Zoom {
		return Result{}
	}
	s.Zoom = z
	return Result{Outcome: Changed}
}

// Rotate sets the view rotation.
type Rotate struct{ Angle view.Angle }

func (e Rotate) apply(s *State) Result {
	a, err := view.ParseAngle(int(e.Angle))
	if err != nil || a == s.Angle {
		return Result{}
	}
	s.Angle = a
	return Result{Outcome: Changed}
}

// ClearAll removes every marker.
type ClearAll struct{}

func (ClearAll) apply(s *State) Result {
	if s.Markers.Len() == 0 {
		return Result{}
	}
	s.Markers.Clear()
	s.Insert = 0
	return Result{Outcome: Cleared}
}

// Restore replaces the markers and rotation with a saved set, for example
// from a marker sheet. It is ignored until a document is loaded.
type Restore struct {
	Markers []marker.Marker
	Angle   view.Angle
}

func (e Restore) apply(s *State) Result {
	if s.Doc == nil {
		return Result{}
	}
	a, err := view.ParseAngle(int(e.Angle))
	if err != nil {
		return Result{}
	}
	ms := make([]marker.Marker, len(e.Markers))
	for i, m := range e.Markers {
		m.Point = m.Point.Clamp()
		ms[i] = m
	}
	s.Markers = marker.NewList(ms)
	s.Angle = a
	s.Insert = 0
	s.LastClick = nil
	return Result{Outcome: Loaded}
}
