package session

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/view"
)

func planDoc(name string, size int64) Document {
	return Document{Name: name, Size: size, Width: 1000, Height: 800, DisplayWidth: 1000, DisplayHeight: 800}
}

func run(s State, evs ...Event) State {
	for _, ev := range evs {
		s = Handle(s, ev)
	}
	return s
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAddMarkerScenario(t *testing.T) {
	s := run(New(),
		Load{Doc: planDoc("plan.png", 1234)},
		SelectCategory{Label: "商品"},
		SelectLocation{Tag: "收銀"},
		Click{X: 500, Y: 400},
	)
	ms := s.Markers.Markers()
	want := []marker.Marker{{Seq: 1, Location: "收銀", Category: "商品", Point: marker.Point{X: 0.5, Y: 0.5}}}
	if diff := cmp.Diff(want, ms); diff != "" {
		t.Fatalf("markers mismatch (-want +got):\n%s", diff)
	}

	// Rotating never touches stored coordinates.
	s = Handle(s, Rotate{Angle: view.Angle90})
	if got, _ := s.Markers.At(0); got.Point != (marker.Point{X: 0.5, Y: 0.5}) {
		t.Fatalf("rotation changed marker coordinates: %+v", got.Point)
	}
	if w, h := s.DisplaySize(); w != 800 || h != 1000 {
		t.Fatalf("rotated display size %dx%d", w, h)
	}
}

func TestDuplicateClickIgnored(t *testing.T) {
	s := run(New(), Load{Doc: planDoc("a.png", 1)}, SelectCategory{Label: "價格"})
	s, res := Apply(s, Click{X: 10, Y: 10})
	if res.Outcome != Added {
		t.Fatalf("first click: got %v", res.Outcome)
	}
	s, res = Apply(s, Click{X: 10, Y: 10})
	if res.Outcome != Ignored {
		t.Fatalf("repeated click: got %v", res.Outcome)
	}
	if s.Markers.Len() != 1 {
		t.Fatalf("expected exactly one mutation, got %d markers", s.Markers.Len())
	}

	// Switching mode keeps the idempotency key.
	s = Handle(s, SetMode{Mode: ModeRemove})
	s = Handle(s, Click{X: 10, Y: 10})
	if s.Markers.Len() != 1 {
		t.Fatalf("mode switch must not reset the processed click")
	}
}

func TestAddWithoutCategoryIsNoop(t *testing.T) {
	s := run(New(), Load{Doc: planDoc("a.png", 1)})
	s, res := Apply(s, Click{X: 100, Y: 100})
	if res.Outcome != Ignored || s.Markers.Len() != 0 {
		t.Fatalf("expected no-op, got %v with %d markers", res.Outcome, s.Markers.Len())
	}
	if s.LastClick != nil {
		t.Fatalf("ignored add must not mark the click processed")
	}
	s = run(s, SelectCategory{Label: "清潔"}, Click{X: 100, Y: 100})
	if s.Markers.Len() != 1 {
		t.Fatalf("click after selecting a category should add")
	}
}

func TestClickWithoutDocumentIgnored(t *testing.T) {
	s := run(New(), SelectCategory{Label: "商品"}, Click{X: 1, Y: 1})
	if s.Markers.Len() != 0 {
		t.Fatalf("click without a document added a marker")
	}
}

func TestClickOutsideDisplayIgnored(t *testing.T) {
	s := run(New(), Load{Doc: planDoc("a.png", 1)}, SelectCategory{Label: "商品"}, Click{X: 1001, Y: 10})
	if s.Markers.Len() != 0 {
		t.Fatalf("click outside the bitmap added a marker")
	}
}

func TestInsertPositionAndNote(t *testing.T) {
	s := run(New(), Load{Doc: planDoc("a.png", 1)}, SelectCategory{Label: "商品"},
		SetNote{Text: "first"}, Click{X: 100, Y: 100},
		SetNote{Text: "second"}, Click{X: 200, Y: 100},
		SelectInsert{Position: 1}, SetNote{Text: "inserted"}, Click{X: 300, Y: 100},
	)
	var got []string
	for _, m := range s.Markers.Markers() {
		got = append(got, m.Note)
	}
	if diff := cmp.Diff([]string{"inserted", "first", "second"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if s.Note != "" {
		t.Fatalf("note not cleared after add: %q", s.Note)
	}
	if diff := cmp.Diff([]string{"#4", "insert:1", "insert:2", "insert:3"}, s.InsertOptions()); diff != "" {
		t.Fatalf("insert options mismatch (-want +got):\n%s", diff)
	}

	// Out of range selections are rejected.
	s = Handle(s, SelectInsert{Position: 9})
	if s.Insert != 1 {
		t.Fatalf("invalid insert position accepted: %d", s.Insert)
	}
}

func TestRemoveMarksProcessedOnMiss(t *testing.T) {
	s := run(New(), Load{Doc: planDoc("a.png", 1)}, SelectCategory{Label: "商品"}, Click{X: 500, Y: 400},
		SetMode{Mode: ModeRemove})
	s, res := Apply(s, Click{X: 900, Y: 100})
	if res.Outcome != Missed {
		t.Fatalf("expected miss, got %v", res.Outcome)
	}
	if s.LastClick == nil || *s.LastClick != (ClickKey{X: 900, Y: 100}) {
		t.Fatalf("miss must mark the click processed, got %+v", s.LastClick)
	}
	s, res = Apply(s, Click{X: 505, Y: 400})
	if res.Outcome != Removed || res.Marker.Seq != 1 || s.Markers.Len() != 0 {
		t.Fatalf("expected hit removal, got %v with %d markers", res.Outcome, s.Markers.Len())
	}
}

func TestRemoveClosestHit(t *testing.T) {
	// Hit radius 0.015 of width; markers at 0.010 and 0.014 from the click.
	s := New()
	s = Handle(s, Load{Doc: planDoc("a.png", 1)})
	s.Markers = marker.NewList([]marker.Marker{
		{Note: "farther", Point: marker.Point{X: 0.514, Y: 0.5}},
		{Note: "closer", Point: marker.Point{X: 0.49, Y: 0.5}},
	})
	s = run(s, SetMode{Mode: ModeRemove}, Click{X: 500, Y: 400})
	if s.Markers.Len() != 1 {
		t.Fatalf("expected one removal, got %d left", s.Markers.Len())
	}
	if m, _ := s.Markers.At(0); m.Note != "farther" || m.Seq != 1 {
		t.Fatalf("wrong marker removed, left %+v", m)
	}
}

func TestClickIsZoomIndependent(t *testing.T) {
	base := run(New(), Load{Doc: planDoc("a.png", 1)}, SelectCategory{Label: "商品"})
	plain := Handle(base, Click{X: 350, Y: 200})
	zoomed := run(base, ZoomIn{}, ZoomIn{})
	zoomed = Handle(zoomed, Click{X: 350 * float64(zoomed.Zoom), Y: 200 * float64(zoomed.Zoom)})
	reported := Handle(base, Click{X: 35, Y: 20, Width: 100, Height: 80})

	want, _ := plain.Markers.At(0)
	for name, s := range map[string]State{"zoomed": zoomed, "reported": reported} {
		got, _ := s.Markers.At(0)
		if !near(got.X, want.X) || !near(got.Y, want.Y) {
			t.Errorf("%s: got %+v, want %+v", name, got.Point, want.Point)
		}
	}
	if !near(want.X, 0.35) || !near(want.Y, 0.25) {
		t.Fatalf("unexpected normalized point %+v", want.Point)
	}
}

func TestClickUnderRotation(t *testing.T) {
	s := run(New(), Load{Doc: planDoc("a.png", 1)}, SelectCategory{Label: "商品"}, Rotate{Angle: view.Angle90})
	// Rotated display is 800x1000; the base image's top-right corner
	// region (x≈0.9, y≈0.1) appears near the bottom-right after a clockwise turn.
	px, py := view.ToDisplay(marker.Point{X: 0.9, Y: 0.1}, view.Angle90, 800, 1000)
	s = Handle(s, Click{X: px, Y: py})
	got, _ := s.Markers.At(0)
	if !near(got.X, 0.9) || !near(got.Y, 0.1) {
		t.Fatalf("click did not invert the rotation: %+v", got.Point)
	}
}

func TestDocumentSwitchAndReload(t *testing.T) {
	a := planDoc("a.png", 100)
	s := run(New(), Load{Doc: a}, SelectCategory{Label: "商品"}, Click{X: 1, Y: 1}, Click{X: 2, Y: 2},
		Rotate{Angle: view.Angle180}, ZoomIn{})

	reloaded, res := Apply(s, Load{Doc: a})
	if res.Outcome != Reloaded || reloaded.Markers.Len() != 2 {
		t.Fatalf("reload: got %v with %d markers", res.Outcome, reloaded.Markers.Len())
	}

	switched, res := Apply(s, Load{Doc: planDoc("b.png", 200)})
	if res.Outcome != Loaded || switched.Markers.Len() != 0 {
		t.Fatalf("switch: got %v with %d markers", res.Outcome, switched.Markers.Len())
	}
	if switched.Angle != view.Angle0 || switched.Zoom != view.DefaultZoom || switched.LastClick != nil {
		t.Fatalf("switch did not reset the view: %+v", switched)
	}

	// Same name, different size is a different file.
	other, _ := Apply(s, Load{Doc: planDoc("a.png", 101)})
	if other.Markers.Len() != 0 {
		t.Fatalf("size change should clear markers")
	}
}

func TestHandleDoesNotMutateInput(t *testing.T) {
	s := run(New(), Load{Doc: planDoc("a.png", 1)}, SelectCategory{Label: "商品"}, Click{X: 1, Y: 1})
	_ = run(s, Click{X: 5, Y: 5}, ClearAll{}, Load{Doc: planDoc("b.png", 2)})
	if s.Markers.Len() != 1 || s.Doc.Name != "a.png" {
		t.Fatalf("input state was modified: %d markers, doc %s", s.Markers.Len(), s.Doc.Name)
	}
}

func TestControls(t *testing.T) {
	s := New()
	if s.Location != "騎樓" || s.Zoom != view.DefaultZoom || s.Mode != ModeAdd {
		t.Fatalf("unexpected defaults %+v", s)
	}
	s = run(s, SelectCategory{Label: "bogus"}, SelectLocation{Tag: "bogus"}, Rotate{Angle: 45})
	if s.Category != "" || s.Location != "騎樓" || s.Angle != view.Angle0 {
		t.Fatalf("invalid selections were applied: %+v", s)
	}
	for i := 0; i < 5; i++ {
		s = Handle(s, ZoomOut{})
	}
	if s.Zoom != view.MinZoom {
		t.Fatalf("zoom floor not enforced: %v", s.Zoom)
	}
	if _, res := Apply(s, ClearAll{}); res.Outcome != Ignored {
		t.Fatalf("clearing an empty list should be a no-op")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"add": ModeAdd, " Remove ": ModeRemove} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("erase"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}

func TestRestore(t *testing.T) {
	saved := []marker.Marker{
		{Seq: 7, Location: "生鮮", Category: "清潔", Point: marker.Point{X: 1.5, Y: 0.25}},
		{Seq: 3, Location: "收銀", Category: "商品", Point: marker.Point{X: 0.1, Y: 0.2}},
	}
	if _, res := Apply(New(), Restore{Markers: saved}); res.Outcome != Ignored {
		t.Fatalf("restore without document: got %v", res.Outcome)
	}

	s := run(New(), Load{Doc: planDoc("plan.png", 1)}, SelectInsert{Position: 0})
	s, res := Apply(s, Restore{Markers: saved, Angle: view.Angle270})
	if res.Outcome != Loaded {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	want := []marker.Marker{
		{Seq: 1, Location: "生鮮", Category: "清潔", Point: marker.Point{X: 1, Y: 0.25}},
		{Seq: 2, Location: "收銀", Category: "商品", Point: marker.Point{X: 0.1, Y: 0.2}},
	}
	if diff := cmp.Diff(want, s.Markers.Markers()); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}
	if s.Angle != view.Angle270 {
		t.Errorf("angle = %v", s.Angle)
	}
	if saved[0].X != 1.5 {
		t.Errorf("input slice modified")
	}
}
