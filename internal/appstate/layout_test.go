package appstate

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/mobile/event/key"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/session"
	"github.com/example/floormark/internal/view"
)

func loaded() session.State {
	return session.Handle(session.New(), session.Load{Doc: session.Document{
		Name: "plan.png", Size: 10, Width: 2000, Height: 1600, DisplayWidth: 1000, DisplayHeight: 800,
	}})
}

func TestLayoutToolbarControlsDoNotOverlap(t *testing.T) {
	st := session.Handle(loaded(), session.SelectCategory{Label: "清潔"})
	sections := layoutToolbar(st, marker.DefaultPalette(), headerHeight)

	var rects []image.Rectangle
	for _, s := range sections {
		for _, c := range s.Controls {
			if c.Rect.Min.X < 0 || c.Rect.Max.X > toolbarWidth || c.Rect.Min.Y < headerHeight {
				t.Errorf("%q at %v leaves the toolbar", c.Label, c.Rect)
			}
			for _, r := range rects {
				if r.Overlaps(c.Rect) {
					t.Errorf("%q at %v overlaps %v", c.Label, c.Rect, r)
				}
			}
			rects = append(rects, c.Rect)
		}
	}

	var selected []string
	for _, s := range sections {
		for _, c := range s.Controls {
			if c.Selected {
				selected = append(selected, c.Label)
			}
		}
	}
	want := []string{"新增 Add", "3 清潔", "騎樓"}
	if diff := cmp.Diff(want, selected); diff != "" {
		t.Errorf("selected controls mismatch (-want +got):\n%s", diff)
	}
}

func TestHitControl(t *testing.T) {
	sections := layoutToolbar(loaded(), marker.DefaultPalette(), headerHeight)
	var target control
	for _, c := range sections[1].Controls {
		if c.Label == "4 備品" {
			target = c
		}
	}
	if target.Rect.Empty() {
		t.Fatal("category button not laid out")
	}
	c, ok := hitControl(sections, target.Rect.Min.Add(image.Pt(2, 2)))
	if !ok {
		t.Fatal("no control hit")
	}
	if diff := cmp.Diff(session.Event(session.SelectCategory{Label: "備品"}), c.Event); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
	if _, ok := hitControl(sections, image.Pt(toolbarWidth+10, headerHeight+10)); ok {
		t.Error("hit outside the toolbar")
	}
}

func TestPlanRectAndPoint(t *testing.T) {
	st := session.Handle(loaded(), session.Rotate{Angle: view.Angle90})
	st = session.Handle(st, session.ZoomIn{})
	r := planRect(st)
	zw, zh := st.Zoom.Scale(800, 1000)
	if r.Min != image.Pt(toolbarWidth, headerHeight) || r.Dx() != zw || r.Dy() != zh {
		t.Fatalf("plan rect %v, want origin %d,%d size %dx%d", r, toolbarWidth, headerHeight, zw, zh)
	}

	x, y, ok := planPoint(r, float32(r.Min.X+30), float32(r.Min.Y+40))
	if !ok || x != 30 || y != 40 {
		t.Errorf("planPoint inside = %v,%v,%v", x, y, ok)
	}
	if _, _, ok := planPoint(r, float32(r.Min.X-1), float32(r.Min.Y+10)); ok {
		t.Error("point left of the plan accepted")
	}
	if _, _, ok := planPoint(r, float32(r.Max.X+1), float32(r.Min.Y+10)); ok {
		t.Error("point right of the plan accepted")
	}
}

func TestClickThroughPlanPoint(t *testing.T) {
	st := session.Handle(loaded(), session.SelectCategory{Label: "商品"})
	st = session.Handle(st, session.ZoomIn{})
	r := planRect(st)
	x, y, ok := planPoint(r, float32(r.Min.X)+float32(r.Dx())/2, float32(r.Min.Y)+float32(r.Dy())/2)
	if !ok {
		t.Fatal("centre rejected")
	}
	st = session.Handle(st, session.Click{X: x, Y: y})
	ms := st.Markers.Markers()
	if len(ms) != 1 {
		t.Fatalf("markers %v", ms)
	}
	if d := ms[0].Point.Dist(marker.Point{X: 0.5, Y: 0.5}); d > 0.002 {
		t.Errorf("marker at %v, want the centre", ms[0].Point)
	}
}

func TestCycles(t *testing.T) {
	st := loaded()
	if got := nextInsert(st); got != 0 {
		t.Errorf("nextInsert on empty list = %d", got)
	}
	st = session.Handle(st, session.SelectCategory{Label: "商品"})
	st = session.Handle(st, session.Click{X: 10, Y: 10})
	st = session.Handle(st, session.Click{X: 20, Y: 20})
	var got []int
	for range 4 {
		st = session.Handle(st, session.SelectInsert{Position: nextInsert(st)})
		got = append(got, st.Insert)
	}
	if diff := cmp.Diff([]int{1, 2, 0, 1}, got); diff != "" {
		t.Errorf("insert cycle mismatch (-want +got):\n%s", diff)
	}
	if l := insertLabel(st); l != "insert:1" {
		t.Errorf("insertLabel = %q", l)
	}

	if got := nextLocation("菸酒"); got != "騎樓" {
		t.Errorf("nextLocation wraps to %q", got)
	}
	if got := nextLocation("收銀"); got != "生鮮" {
		t.Errorf("nextLocation(收銀) = %q", got)
	}
	if toggleMode(session.ModeAdd) != session.ModeRemove || toggleMode(session.ModeRemove) != session.ModeAdd {
		t.Error("toggleMode")
	}
}

func TestCategoryByKey(t *testing.T) {
	pal := marker.DefaultPalette()
	for r, want := range map[rune]string{'1': "商品", '6': "其他"} {
		if got, ok := categoryByKey(r, pal); !ok || got != want {
			t.Errorf("categoryByKey(%q) = %q, %v", r, got, ok)
		}
	}
	if _, ok := categoryByKey('7', pal); ok {
		t.Error("categoryByKey('7') accepted")
	}
}

func TestShortcutOf(t *testing.T) {
	tests := []struct {
		ev   key.Event
		want string
	}{
		{key.Event{Rune: 's', Code: key.CodeS, Modifiers: key.ModControl}, actionExport},
		{key.Event{Rune: 0x13, Code: key.CodeS, Modifiers: key.ModControl}, actionExport},
		{key.Event{Rune: 'X', Code: key.CodeX, Modifiers: key.ModControl | key.ModShift}, actionClear},
		{key.Event{Rune: 'c', Code: key.CodeC, Modifiers: key.ModControl | key.ModAlt}, actionCopy},
		{key.Event{Rune: 's', Code: key.CodeS}, ""},
	}
	for _, tt := range tests {
		if got := defaultKeys[shortcutOf(tt.ev)]; got != tt.want {
			t.Errorf("%+v: action %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestLayoutShortcuts(t *testing.T) {
	list := layoutShortcuts(1200, 800, 1.5, false)
	if len(list) == 0 || list[0].label != "+/-:zoom (150%)" {
		t.Fatalf("shortcuts %+v", list)
	}
	for i := 1; i < len(list); i++ {
		if list[i].rect.Min.X < list[i-1].rect.Max.X {
			t.Errorf("%q overlaps %q", list[i].label, list[i-1].label)
		}
		if list[i].rect.Max.Y > 800 || list[i].rect.Min.Y < 800-bottomHeight {
			t.Errorf("%q outside the bottom bar: %v", list[i].label, list[i].rect)
		}
	}
	if note := layoutShortcuts(1200, 800, 1, true); len(note) != 2 {
		t.Errorf("note mode shortcuts %+v", note)
	}
}

func TestWindowSizeFitsToolbar(t *testing.T) {
	pal := marker.DefaultPalette()
	w, h := windowSize(session.New(), pal)
	if need := toolbarHeight(layoutToolbar(session.New(), pal, headerHeight)) + bottomHeight; h < need || w < toolbarWidth {
		t.Errorf("empty window %dx%d, toolbar needs height %d", w, h, need)
	}
	w, h = windowSize(loaded(), pal)
	if w != toolbarWidth+1000 || h < headerHeight+800+bottomHeight {
		t.Errorf("window %dx%d for a 1000x800 plan", w, h)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("缺貨補標請於明日前完成處理", 6); got != "缺貨補標請…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 6); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
}
