package appstate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/session"
)

const (
	headerHeight = 24
	bottomHeight = 24
	toolbarWidth = 132
	rowHeight    = 22
	sectionGap   = 18
	padding      = 4
)

// controlKind groups toolbar controls for drawing.
type controlKind int

const (
	kindButton controlKind = iota
	kindCategory
)

// control is one clickable toolbar entry. Exactly one of Event and Action is
// set: Event goes through session.Handle, Action names a window command.
type control struct {
	Label    string
	Kind     controlKind
	Fill     color.RGBA
	Selected bool
	Rect     image.Rectangle
	Event    session.Event
	Action   string
}

// section is a labelled group of controls.
type section struct {
	Title    string
	TitleY   int
	Controls []control
}

// layoutToolbar places the toolbar controls for st below y0. Categories and
// locations use two columns.
func layoutToolbar(st session.State, pal marker.Palette, y0 int) []section {
	full := func(y int) image.Rectangle {
		return image.Rect(padding, y, toolbarWidth-padding, y+rowHeight-2)
	}
	half := func(y, col int) image.Rectangle {
		w := (toolbarWidth - 3*padding) / 2
		x := padding + col*(w+padding)
		return image.Rect(x, y, x+w, y+rowHeight-2)
	}

	var out []section
	y := y0

	add := func(title string, build func(y int) ([]control, int)) {
		s := section{Title: title, TitleY: y + 12}
		y += sectionGap
		s.Controls, y = build(y)
		y += padding
		out = append(out, s)
	}

	add("模式 Mode", func(y int) ([]control, int) {
		cs := []control{
			{Label: "新增 Add", Selected: st.Mode == session.ModeAdd, Rect: half(y, 0), Event: session.SetMode{Mode: session.ModeAdd}},
			{Label: "刪除 Del", Selected: st.Mode == session.ModeRemove, Rect: half(y, 1), Event: session.SetMode{Mode: session.ModeRemove}},
		}
		return cs, y + rowHeight
	})

	add("類別 Category", func(y int) ([]control, int) {
		var cs []control
		for i, c := range pal.Entries() {
			cs = append(cs, control{
				Label:    fmt.Sprintf("%d %s", i+1, c.Label),
				Kind:     kindCategory,
				Fill:     c.Color,
				Selected: st.Category == c.Label,
				Rect:     half(y+(i/2)*rowHeight, i%2),
				Event:    session.SelectCategory{Label: c.Label},
			})
		}
		return cs, y + (len(cs)+1)/2*rowHeight
	})

	add("位置 Location", func(y int) ([]control, int) {
		var cs []control
		for i, l := range marker.Locations() {
			cs = append(cs, control{
				Label:    l,
				Selected: st.Location == l,
				Rect:     half(y+(i/2)*rowHeight, i%2),
				Event:    session.SelectLocation{Tag: l},
			})
		}
		return cs, y + (len(cs)+1)/2*rowHeight
	})

	add("插入 Insert", func(y int) ([]control, int) {
		return []control{{Label: insertLabel(st), Rect: full(y), Event: session.SelectInsert{Position: nextInsert(st)}}}, y + rowHeight
	})

	add("備註 Note", func(y int) ([]control, int) {
		label := "N: 輸入備註"
		if st.Note != "" {
			label = truncate(st.Note, 12)
		}
		return []control{{Label: label, Selected: st.Note != "", Rect: full(y), Action: actionNote}}, y + rowHeight
	})

	add("檢視 View", func(y int) ([]control, int) {
		cs := []control{
			{Label: "放大 +", Rect: half(y, 0), Event: session.ZoomIn{}},
			{Label: "縮小 -", Rect: half(y, 1), Event: session.ZoomOut{}},
			{Label: fmt.Sprintf("旋轉 %d°", st.Angle.Next()), Rect: full(y + rowHeight), Event: session.Rotate{Angle: st.Angle.Next()}},
		}
		return cs, y + 2*rowHeight
	})

	add("輸出 Output", func(y int) ([]control, int) {
		cs := []control{
			{Label: "匯出 ^S", Rect: half(y, 0), Action: actionExport},
			{Label: "複製 ^C", Rect: half(y, 1), Action: actionCopy},
			{Label: "清除全部", Rect: full(y + rowHeight), Action: actionClear},
		}
		return cs, y + 2*rowHeight
	})
	return out
}

// hitControl returns the control under p.
func hitControl(sections []section, p image.Point) (control, bool) {
	for _, s := range sections {
		for _, c := range s.Controls {
			if p.In(c.Rect) {
				return c, true
			}
		}
	}
	return control{}, false
}

// toolbarHeight is the height needed to show every section.
func toolbarHeight(sections []section) int {
	h := 0
	for _, s := range sections {
		for _, c := range s.Controls {
			if c.Rect.Max.Y > h {
				h = c.Rect.Max.Y
			}
		}
	}
	return h + padding
}

// planRect is where the zoomed plan is drawn inside the window.
func planRect(st session.State) image.Rectangle {
	w, h := st.Zoom.Scale(st.DisplaySize())
	return image.Rect(toolbarWidth, headerHeight, toolbarWidth+w, headerHeight+h)
}

// planPoint converts a window position into pixels of the zoomed plan.
func planPoint(r image.Rectangle, x, y float32) (float64, float64, bool) {
	px, py := float64(x)-float64(r.Min.X), float64(y)-float64(r.Min.Y)
	if px < 0 || py < 0 || px > float64(r.Dx()) || py > float64(r.Dy()) {
		return 0, 0, false
	}
	return px, py, true
}

// nextInsert cycles the insert selection: append, then before #1..#N.
func nextInsert(st session.State) int {
	n := st.Markers.Len()
	if n == 0 {
		return 0
	}
	return (st.Insert + 1) % (n + 1)
}

func insertLabel(st session.State) string {
	opts := st.InsertOptions()
	if st.Insert > 0 && st.Insert < len(opts) {
		return opts[st.Insert]
	}
	return opts[0]
}

// nextLocation returns the zone after the current one, wrapping around.
func nextLocation(current string) string {
	locs := marker.Locations()
	for i, l := range locs {
		if l == current {
			return locs[(i+1)%len(locs)]
		}
	}
	return locs[0]
}

// categoryByKey maps the digit keys 1-6 to categories.
func categoryByKey(r rune, pal marker.Palette) (string, bool) {
	entries := pal.Entries()
	i := int(r - '1')
	if i < 0 || i >= len(entries) {
		return "", false
	}
	return entries[i].Label, true
}

func toggleMode(m session.Mode) session.Mode {
	if m == session.ModeAdd {
		return session.ModeRemove
	}
	return session.ModeAdd
}

func statusLine(st session.State, name string) string {
	cat := st.Category
	if cat == "" {
		cat = "-"
	}
	return fmt.Sprintf("%s | %d 個標記 | %s | %s/%s | %s | %d°", name, st.Markers.Len(), st.Mode, st.Location, cat, insertLabel(st), int(st.Angle))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// windowSize fits the toolbar and the plan at its current zoom.
func windowSize(st session.State, pal marker.Palette) (int, int) {
	plan := planRect(st)
	w := plan.Max.X
	if w < 720 {
		w = 720
	}
	h := plan.Max.Y + bottomHeight
	if th := toolbarHeight(layoutToolbar(st, pal, headerHeight)) + bottomHeight; th > h {
		h = th
	}
	return w, h
}
