// Package appstate runs the desktop annotation window.
package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/render"
	"github.com/example/floormark/internal/theme"
	"github.com/example/floormark/internal/view"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// Window commands triggered by toolbar buttons, the shortcut bar and keys.
const (
	actionNote      = "note"
	actionNoteEsc   = "noteesc"
	actionExport    = "export"
	actionCopy      = "copy"
	actionCopyTable = "copytable"
	actionPaste     = "paste"
	actionClear     = "clear"
	actionZoomIn    = "zoomin"
	actionZoomOut   = "zoomout"
	actionRotate    = "rotate"
	actionMode      = "mode"
	actionLocation  = "location"
	actionInsert    = "insert"
	actionQuit      = "quit"
)

// KeyShortcut is a key press that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// defaultKeys maps modifier shortcuts to actions. Plain letter keys are
// handled directly in the event loop.
var defaultKeys = map[KeyShortcut]string{
	{Rune: 's', Modifiers: key.ModControl}:                actionExport,
	{Rune: 'c', Modifiers: key.ModControl}:                actionCopy,
	{Rune: 'c', Modifiers: key.ModControl | key.ModShift}: actionCopyTable,
	{Rune: 'v', Modifiers: key.ModControl}:                actionPaste,
	{Rune: 'x', Modifiers: key.ModControl | key.ModShift}: actionClear,
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// shortcut is an entry of the bottom bar.
type shortcut struct {
	label  string
	action string
	rect   image.Rectangle
}

// layoutShortcuts places the bottom bar entries for a window of the given
// size. The zoom is shown in the zoom entry.
func layoutShortcuts(width, height int, z view.Zoom, noteActive bool) []shortcut {
	var list []shortcut
	if noteActive {
		list = []shortcut{
			{label: "Enter:set note", action: actionNote},
			{label: "Esc:cancel", action: actionNoteEsc},
		}
	} else {
		list = []shortcut{
			{label: zoomLabel(z), action: actionZoomIn},
			{label: "R:rotate", action: actionRotate},
			{label: "M:mode", action: actionMode},
			{label: "1-6:category", action: ""},
			{label: "L:location", action: actionLocation},
			{label: "I:insert", action: actionInsert},
			{label: "N:note", action: actionNote},
			{label: "^S:export", action: actionExport},
			{label: "^C:copy", action: actionCopy},
			{label: "^V:paste plan", action: actionPaste},
			{label: "^Shift+X:clear", action: actionClear},
			{label: "Q:quit", action: actionQuit},
		}
	}
	meas := &font.Drawer{Face: basicfont.Face7x13}
	x := padding + 2
	y := height - bottomHeight + 16
	for i := range list {
		w := meas.MeasureString(list[i].label).Ceil()
		list[i].rect = image.Rect(x-2, y-14, x+w+2, y+4)
		x = list[i].rect.Max.X + 6
	}
	return list
}

func zoomLabel(z view.Zoom) string {
	return fmt.Sprintf("+/-:zoom (%.0f%%)", float64(z)*100)
}

type paintState struct {
	width, height int
	theme         *theme.Theme
	labelFace     font.Face
	composer      *render.Composer

	// background is the rotated display bitmap shared with the cache; it is
	// never drawn on.
	background *image.RGBA
	markers    []marker.Marker
	angle      view.Angle
	zoom       view.Zoom
	plan       image.Rectangle

	sections   []section
	hover      image.Point
	status     string
	noteActive bool
	noteInput  string

	message      string
	messageUntil time.Time
	log          *slog.Logger
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		st.log.Error("new buffer", "error", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()
	th := st.theme

	fill(dst, dst.Bounds(), th.Background)
	if st.background != nil {
		img := st.composer.Compose(st.background, st.markers, st.angle)
		if ctx.Err() != nil {
			return
		}
		xdraw.ApproxBiLinear.Scale(dst, st.plan, img, img.Bounds(), draw.Src, nil)
		strokeRect(dst, st.plan.Inset(-1), th.PlanBorder, 1)
	} else {
		drawText(dst, st.labelFace, "Ctrl+V 貼上平面圖, 或以 -file 開啟檔案", toolbarWidth+16, headerHeight+32, th.Foreground)
	}
	if ctx.Err() != nil {
		return
	}

	drawToolbar(dst, st)
	drawHeader(dst, st)
	drawShortcuts(dst, st)
	if ctx.Err() != nil {
		return
	}

	if st.noteActive {
		box := image.Rect(toolbarWidth+16, st.height/2-20, st.width-16, st.height/2+20)
		fill(dst, box, th.ButtonBackground)
		strokeRect(dst, box, th.ActiveBorder, 2)
		drawText(dst, st.labelFace, "備註: "+st.noteInput+"|", box.Min.X+8, box.Min.Y+26, th.ButtonText)
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		d := &font.Drawer{Face: st.labelFace}
		wmsg := d.MeasureString(st.message).Ceil()
		px := (st.width - wmsg) / 2
		py := st.height - bottomHeight - 24
		rect := image.Rect(px-8, py-18, px+wmsg+8, py+8)
		draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
		strokeRect(dst, rect, color.RGBA{0, 0, 0, 255}, 2)
		drawText(dst, st.labelFace, st.message, px, py, color.RGBA{0, 0, 0, 255})
	}

	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawToolbar(dst *image.RGBA, st paintState) {
	th := st.theme
	fill(dst, image.Rect(0, 0, toolbarWidth, st.height-bottomHeight), th.ToolbarBackground)
	for _, s := range st.sections {
		drawText(dst, st.labelFace, s.Title, padding, s.TitleY, th.SectionText)
		for _, c := range s.Controls {
			state := StateDefault
			if c.Selected && c.Kind == kindButton {
				state = StatePressed
			} else if st.hover.In(c.Rect) {
				state = StateHover
			}
			drawControl(dst, c, state, th, st.labelFace)
		}
	}
}

func drawControl(dst *image.RGBA, c control, state ButtonState, th *theme.Theme, face font.Face) {
	bg := th.ButtonBackground
	switch state {
	case StateHover:
		bg = th.ButtonBackgroundHover
	case StatePressed:
		bg = th.ButtonBackgroundPress
	}
	text := th.ButtonText
	if c.Kind == kindCategory {
		bg = c.Fill
		text = color.RGBA{0, 0, 0, 255}
		if state == StateHover {
			bg = blend(bg, color.RGBA{255, 255, 255, 255}, 0.3)
		}
	}
	fill(dst, c.Rect, bg)
	if c.Kind == kindCategory && c.Selected {
		strokeRect(dst, c.Rect, th.ActiveBorder, 3)
	} else {
		strokeRect(dst, c.Rect, th.ButtonBorder, 1)
	}
	drawText(dst, face, c.Label, c.Rect.Min.X+4, c.Rect.Min.Y+15, text)
}

func drawHeader(dst *image.RGBA, st paintState) {
	th := st.theme
	r := image.Rect(toolbarWidth, 0, st.width, headerHeight)
	fill(dst, r, th.StatusBackground)
	drawText(dst, st.labelFace, st.status, r.Min.X+6, 17, th.StatusText)
	fill(dst, image.Rect(0, 0, toolbarWidth, headerHeight), th.ToolbarBackground)
	drawText(dst, basicfont.Face7x13, "Floormark", padding+2, 16, th.Foreground)
}

func drawShortcuts(dst *image.RGBA, st paintState) {
	th := st.theme
	rect := image.Rect(0, st.height-bottomHeight, st.width, st.height)
	fill(dst, rect, th.StatusBackground)
	for _, sc := range layoutShortcuts(st.width, st.height, st.zoom, st.noteActive) {
		bg := th.ButtonBackground
		if st.hover.In(sc.rect) {
			bg = th.ButtonBackgroundHover
		}
		fill(dst, sc.rect, bg)
		strokeRect(dst, sc.rect, th.ButtonBorder, 1)
		drawText(dst, basicfont.Face7x13, sc.label, sc.rect.Min.X+2, sc.rect.Min.Y+14, th.ButtonText)
	}
}

func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.RGBA, thick int) {
	for i := 0; i < thick; i++ {
		in := r.Inset(i)
		if in.Empty() {
			return
		}
		fill(dst, image.Rect(in.Min.X, in.Min.Y, in.Max.X, in.Min.Y+1), c)
		fill(dst, image.Rect(in.Min.X, in.Max.Y-1, in.Max.X, in.Max.Y), c)
		fill(dst, image.Rect(in.Min.X, in.Min.Y, in.Min.X+1, in.Max.Y), c)
		fill(dst, image.Rect(in.Max.X-1, in.Min.Y, in.Max.X, in.Max.Y), c)
	}
}

func drawText(dst *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	if s == "" {
		return
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x)*(1-t) + float64(y)*t) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}
