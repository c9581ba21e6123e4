package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/session"
	"github.com/example/floormark/internal/theme"
	"github.com/example/floormark/internal/view"
)

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	type category struct {
		Label string `json:"label"`
		Color string `json:"color"`
	}
	var cats []category
	for _, c := range s.opts.Composer.Palette.Entries() {
		cats = append(cats, category{Label: c.Label, Color: theme.Hex(c.Color)})
	}
	var angles []int
	for _, a := range view.Angles() {
		angles = append(angles, int(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": cats,
		"locations":  marker.Locations(),
		"angles":     angles,
		"formats":    ingest.Formats(),
		"max_upload": s.opts.MaxUpload,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.Create()
	var out stateJSON
	s.sessions.With(id, func(ws *Workspace) error {
		out = newStateJSON(id, ws)
		return nil
	})
	s.log.Debug("session created", "session", id, "live", s.sessions.Len())
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		jsonError(w, session.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var out stateJSON
	err := s.sessions.With(id, func(ws *Workspace) error {
		out = newStateJSON(id, ws)
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxUpload), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUpload+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.opts.MaxUpload {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxUpload), http.StatusRequestEntityTooLarge)
		return
	}

	name := sanitizeFilename(header.Filename)
	var (
		out       eventResponse
		doc       *ingest.Document
		decodeErr error
	)
	err = s.sessions.With(id, func(ws *Workspace) error {
		var res session.Result
		doc, res, decodeErr = ws.loadDocument(name, data, s.opts.Ingest)
		if decodeErr == nil {
			out = newEventResponse(id, ws, res)
		}
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if decodeErr != nil {
		code := http.StatusBadRequest
		if errors.Is(decodeErr, ingest.ErrTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		s.log.Info("upload rejected", "session", id, "error", decodeErr)
		jsonError(w, decodeErr.Error(), code)
		return
	}
	s.log.Info("document loaded", "session", id, "name", doc.Name, "format", doc.Format, "outcome", out.Outcome)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req eventRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		jsonError(w, "invalid event: "+err.Error(), http.StatusBadRequest)
		return
	}
	ev, err := req.event()
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var out eventResponse
	err = s.sessions.With(id, func(ws *Workspace) error {
		var res session.Result
		ws.State, res = session.Apply(ws.State, ev)
		out = newEventResponse(id, ws, res)
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.log.Debug("event", "session", id, "type", req.Type, "outcome", out.Outcome)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	err := s.sessions.With(id, func(ws *Workspace) error {
		img, ok := ws.view(s.opts.Composer)
		if !ok {
			return errNoDocument
		}
		return png.Encode(&buf, img)
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

var errNoDocument = errors.New("no document loaded")

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, errNoDocument):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		s.log.Error("request failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func sanitizeFilename(name string) string {
	// Keep only the base name, whichever separator the client used.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
