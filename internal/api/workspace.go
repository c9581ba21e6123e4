package api

import (
	"image"

	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/render"
	"github.com/example/floormark/internal/session"
)

// Workspace is everything one session owns: its editing state, the decoded
// plan and the rotated backgrounds derived from it.
type Workspace struct {
	State session.State
	cache *render.Cache[*ingest.Document]
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() Workspace {
	return Workspace{State: session.New(), cache: render.NewCache[*ingest.Document]()}
}

// NewStore returns a session store of workspaces.
func NewStore() *session.Store[Workspace] {
	return session.NewStore(NewWorkspace)
}

// Document returns the decoded plan, or nil before the first upload.
func (w *Workspace) Document() *ingest.Document {
	if w.cache == nil {
		return nil
	}
	_, doc, ok := w.cache.Current()
	if !ok {
		return nil
	}
	return doc
}

// loadDocument applies the Load event for an upload. The bytes are decoded
// only when name and size differ from the plan already held, so a re-upload
// of the same file reuses the decoded plan and its cached rotations. A failed
// decode leaves the workspace untouched.
func (w *Workspace) loadDocument(name string, data []byte, opts ingest.Options) (*ingest.Document, session.Result, error) {
	if w.cache == nil {
		w.cache = render.NewCache[*ingest.Document]()
	}
	doc, err := w.cache.Load(ingest.Key(name, int64(len(data))), func() (*ingest.Document, error) {
		return ingest.Decode(name, data, opts)
	})
	if err != nil {
		return nil, session.Result{}, err
	}
	var res session.Result
	w.State, res = session.Apply(w.State, session.Load{Doc: doc.Info()})
	return doc, res, nil
}

// view composes the display bitmap at the session's rotation and zoom.
func (w *Workspace) view(c *render.Composer) (*image.RGBA, bool) {
	doc := w.Document()
	if doc == nil {
		return nil, false
	}
	st := w.State
	bg := w.cache.Rotated("display", doc.Display, st.Angle)
	img := c.Compose(bg, st.Markers.Markers(), st.Angle)
	dw, dh := st.DisplaySize()
	zw, zh := st.Zoom.Scale(dw, dh)
	if zw != dw || zh != dh {
		img = render.Scale(img, zw, zh)
	}
	return img, true
}

// export composes the full-resolution annotated plan.
func (w *Workspace) export(c *render.Composer) (*image.RGBA, bool) {
	doc := w.Document()
	if doc == nil {
		return nil, false
	}
	bg := w.cache.Rotated("base", doc.Base, w.State.Angle)
	return c.Compose(bg, w.State.Markers.Markers(), w.State.Angle), true
}
