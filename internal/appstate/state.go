package appstate

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/floormark/internal/clipboard"
	"github.com/example/floormark/internal/export"
	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/notify"
	"github.com/example/floormark/internal/render"
	"github.com/example/floormark/internal/session"
	"github.com/example/floormark/internal/theme"
)

// messageDuration is how long a status message stays on screen.
const messageDuration = 2 * time.Second

// AppState holds the window's document, editing state and collaborators.
type AppState struct {
	Doc      *ingest.Document
	State    session.State
	Composer *render.Composer
	Exporter *export.Exporter
	Theme    *theme.Theme
	Notifier *notify.Notifier
	Ingest   ingest.Options
	Log      *slog.Logger

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithDocument sets the plan shown when the window opens.
func WithDocument(doc *ingest.Document) Option { return func(a *AppState) { a.Doc = doc } }

// WithState starts from st instead of a fresh session, for example one
// restored from a marker sheet.
func WithState(st session.State) Option { return func(a *AppState) { a.State = st } }

// WithComposer sets the marker composer.
func WithComposer(c *render.Composer) Option { return func(a *AppState) { a.Composer = c } }

// WithExporter sets where and how Ctrl+S writes its files.
func WithExporter(e *export.Exporter) Option { return func(a *AppState) { a.Exporter = e } }

// WithTheme sets the window colours.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithNotifier sets the desktop notifier for exports and copies.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

// WithIngest sets the decoding options for pasted plans.
func WithIngest(o ingest.Options) Option { return func(a *AppState) { a.Ingest = o } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(a *AppState) { a.Log = l } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{State: session.New()}
	for _, o := range opts {
		o(a)
	}
	if a.Log == nil {
		a.Log = slog.Default()
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	if a.Composer == nil {
		a.Composer = render.NewComposer(marker.DefaultPalette(), nil)
	}
	if a.Composer.Fonts == nil {
		a.Composer.Fonts = render.NewFontSet(nil, nil)
	}
	if a.Exporter == nil {
		a.Exporter = &export.Exporter{Composer: a.Composer, Log: a.Log}
	}
	if a.Doc != nil && (a.State.Doc == nil || !a.State.Doc.SameFile(a.Doc.Info())) {
		a.State = session.Handle(a.State, session.Load{Doc: a.Doc.Info()})
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the window on s until it is closed. State mutation stays on this
// goroutine; frames are drawn by a separate painter from snapshots.
func (a *AppState) Main(s screen.Screen) {
	log := a.Log
	pal := a.Composer.Palette
	labelFace := a.Composer.Fonts.Face(13)

	cache := render.NewCache[*ingest.Document]()
	doc := a.Doc
	if doc != nil {
		_, _ = cache.Load(doc.Key(), func() (*ingest.Document, error) { return doc, nil })
	}
	st := a.State
	defer func() {
		a.Doc, a.State = doc, st
		hits, misses := cache.Stats()
		log.Debug("render cache", "hits", hits, "misses", misses)
	}()

	width, height := windowSize(st, pal)
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "Floormark"})
	if err != nil {
		log.Error("new window", "error", err)
		return
	}
	defer w.Release()
	defer a.notifyClose()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for ps := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, ps)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	var (
		message      string
		messageUntil time.Time
		hover        image.Point
		noteActive   bool
		noteInput    []rune
		confirmClear bool
		quit         bool
	)
	say := func(format string, args ...any) {
		message = fmt.Sprintf(format, args...)
		messageUntil = time.Now().Add(messageDuration)
		log.Info(message)
	}

	apply := func(ev session.Event) {
		var res session.Result
		st, res = session.Apply(st, ev)
		switch res.Outcome {
		case session.Added:
			say("#%d %s/%s", res.Marker.Seq, res.Marker.Location, res.Marker.Category)
		case session.Removed:
			say("removed #%d", res.Marker.Seq)
		case session.Cleared:
			say("cleared all markers")
		default:
			log.Debug("event", "type", fmt.Sprintf("%T", ev), "outcome", res.Outcome)
		}
	}

	commands := map[string]func(){
		actionZoomIn:   func() { apply(session.ZoomIn{}) },
		actionZoomOut:  func() { apply(session.ZoomOut{}) },
		actionRotate:   func() { apply(session.Rotate{Angle: st.Angle.Next()}) },
		actionMode:     func() { apply(session.SetMode{Mode: toggleMode(st.Mode)}) },
		actionLocation: func() { apply(session.SelectLocation{Tag: nextLocation(st.Location)}) },
		actionInsert:   func() { apply(session.SelectInsert{Position: nextInsert(st)}) },
		actionQuit:     func() { quit = true },
		actionNote: func() {
			if noteActive {
				apply(session.SetNote{Text: string(noteInput)})
				noteActive = false
				return
			}
			noteActive, noteInput = true, []rune(st.Note)
		},
		actionNoteEsc: func() { noteActive = false },
		actionExport: func() {
			if doc == nil {
				say("no plan loaded")
				return
			}
			paths, err := a.Exporter.Save(doc, st)
			if err != nil {
				say("export failed: %v", err)
				return
			}
			say("exported %s", filepath.Base(paths.Image))
			a.Notifier.Export(paths.Image)
		},
		actionCopy: func() {
			img, err := a.Exporter.Image(doc, st)
			if err != nil {
				say("copy: %v", err)
				return
			}
			if err := clipboard.WriteImage(img); err != nil {
				say("copy: %v", err)
				return
			}
			say("image copied to clipboard")
			a.Notifier.Copy("annotated plan")
		},
		actionCopyTable: func() {
			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, st.Markers.Markers()); err != nil {
				say("copy table: %v", err)
				return
			}
			if err := clipboard.WriteText(strings.TrimPrefix(buf.String(), "\ufeff")); err != nil {
				say("copy table: %v", err)
				return
			}
			say("marker table copied to clipboard")
			a.Notifier.Copy("marker table")
		},
		actionPaste: func() {
			_, data, err := clipboard.ReadImage()
			if err != nil {
				say("paste: %v", err)
				return
			}
			const name = "clipboard.png"
			next, err := cache.Load(ingest.Key(name, int64(len(data))), func() (*ingest.Document, error) {
				return ingest.Decode(name, data, a.Ingest)
			})
			if err != nil {
				say("paste: %v", err)
				return
			}
			doc = next
			apply(session.Load{Doc: doc.Info()})
			say("pasted plan %dx%d", doc.Base.Bounds().Dx(), doc.Base.Bounds().Dy())
		},
		actionClear: func() {
			if !confirmClear {
				confirmClear = true
				say("press Ctrl+Shift+X again to clear all markers")
				return
			}
			confirmClear = false
			apply(session.ClearAll{})
		},
	}
	run := func(action string) {
		if action != actionClear {
			confirmClear = false
		}
		if fn, ok := commands[action]; ok {
			fn()
		}
		w.Send(paint.Event{})
	}

	for {
		if quit {
			stopPaint()
			return
		}
		e := w.NextEvent()
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			ps := paintState{
				width:        width,
				height:       height,
				theme:        a.Theme,
				labelFace:    labelFace,
				composer:     a.Composer,
				markers:      st.Markers.Markers(),
				angle:        st.Angle,
				zoom:         st.Zoom,
				plan:         planRect(st),
				sections:     layoutToolbar(st, pal, headerHeight),
				hover:        hover,
				status:       statusLine(st, documentName(doc)),
				noteActive:   noteActive,
				noteInput:    string(noteInput),
				message:      message,
				messageUntil: messageUntil,
				log:          log,
			}
			if doc != nil {
				ps.background = cache.Rotated("display", doc.Display, st.Angle)
			}
			select {
			case paintCh <- ps:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- ps
			}
		case mouse.Event:
			p := image.Point{int(e.X), int(e.Y)}
			press := e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress
			if e.Direction == mouse.DirNone {
				if p != hover {
					hover = p
					if p.X < toolbarWidth || p.Y >= height-bottomHeight {
						w.Send(paint.Event{})
					}
				}
				continue
			}
			if !press {
				continue
			}
			if message != "" && time.Now().Before(messageUntil) {
				messageUntil = time.Time{}
			}
			switch {
			case p.Y >= height-bottomHeight:
				for _, sc := range layoutShortcuts(width, height, st.Zoom, noteActive) {
					if p.In(sc.rect) {
						run(sc.action)
						break
					}
				}
			case p.X < toolbarWidth:
				if c, ok := hitControl(layoutToolbar(st, pal, headerHeight), p); ok {
					if c.Event != nil {
						confirmClear = false
						apply(c.Event)
						w.Send(paint.Event{})
					} else {
						run(c.Action)
					}
				}
			default:
				if x, y, ok := planPoint(planRect(st), e.X, e.Y); ok {
					confirmClear = false
					apply(session.Click{X: x, Y: y})
					w.Send(paint.Event{})
				}
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if noteActive {
				switch e.Code {
				case key.CodeReturnEnter:
					run(actionNote)
				case key.CodeEscape:
					run(actionNoteEsc)
				case key.CodeDeleteBackspace:
					if len(noteInput) > 0 {
						noteInput = noteInput[:len(noteInput)-1]
						w.Send(paint.Event{})
					}
				default:
					if e.Rune > 0 && unicode.IsPrint(e.Rune) {
						noteInput = append(noteInput, e.Rune)
						w.Send(paint.Event{})
					}
				}
				continue
			}
			if action, ok := defaultKeys[shortcutOf(e)]; ok {
				run(action)
				continue
			}
			if e.Modifiers&key.ModControl != 0 {
				continue
			}
			switch e.Rune {
			case '+', '=':
				run(actionZoomIn)
			case '-':
				run(actionZoomOut)
			case 'r', 'R':
				run(actionRotate)
			case 'm', 'M':
				run(actionMode)
			case 'l', 'L':
				run(actionLocation)
			case 'i', 'I':
				run(actionInsert)
			case 'n', 'N':
				run(actionNote)
			case 'q', 'Q':
				run(actionQuit)
			case '1', '2', '3', '4', '5', '6', '7', '8', '9':
				if label, ok := categoryByKey(e.Rune, pal); ok {
					confirmClear = false
					apply(session.SelectCategory{Label: label})
					w.Send(paint.Event{})
				}
			}
		}
	}
}

// shortcutOf normalizes a key press for lookup in defaultKeys. Letter keys
// are identified by code because some drivers report control characters as
// the rune while Ctrl is held.
func shortcutOf(e key.Event) KeyShortcut {
	r := unicode.ToLower(e.Rune)
	if e.Code >= key.CodeA && e.Code <= key.CodeZ {
		r = 'a' + rune(e.Code-key.CodeA)
	}
	return KeyShortcut{Rune: r, Modifiers: e.Modifiers & (key.ModControl | key.ModShift)}
}

func documentName(doc *ingest.Document) string {
	if doc == nil {
		return "-"
	}
	return doc.Name
}
