package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/example/floormark/internal/export"
	"github.com/example/floormark/internal/session"
)

// maxSheetSize bounds marker sheet uploads.
const maxSheetSize = 4 << 20

func (s *Server) handleExportJPEG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	var name string
	err := s.sessions.With(id, func(ws *Workspace) error {
		img, ok := ws.export(s.opts.Composer)
		if !ok {
			return errNoDocument
		}
		name = export.Filename(ws.Document().BaseName(), "jpg", s.opts.Now())
		return export.WriteJPEG(&buf, img, s.opts.JPEGQuality)
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.log.Info("export", "session", id, "kind", "jpg", "bytes", buf.Len())
	attachment(w, "image/jpeg", name, &buf)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	var name string
	err := s.sessions.With(id, func(ws *Workspace) error {
		doc := ws.Document()
		if doc == nil {
			return errNoDocument
		}
		ms := ws.State.Markers.Markers()
		if len(ms) == 0 {
			return export.ErrNoMarkers
		}
		name = export.Filename(doc.BaseName(), "csv", s.opts.Now())
		return export.WriteCSV(&buf, ms)
	})
	if errors.Is(err, export.ErrNoMarkers) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.sessionError(w, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", name, &buf)
}

func (s *Server) handleExportSheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	var name string
	err := s.sessions.With(id, func(ws *Workspace) error {
		doc := ws.Document()
		if doc == nil {
			return errNoDocument
		}
		now := s.opts.Now()
		name = export.Filename(doc.BaseName(), "yaml", now)
		return export.WriteSheet(&buf, export.NewSheet(ws.State, now))
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	attachment(w, "application/yaml", name, &buf)
}

// handleImportSheet replaces the session's markers and rotation with those
// from a previously exported sheet for the same plan.
func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sheet, err := export.ReadSheet(io.LimitReader(r.Body, maxSheetSize))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var out eventResponse
	var mismatch bool
	err = s.sessions.With(id, func(ws *Workspace) error {
		if ws.State.Doc == nil {
			return errNoDocument
		}
		if !sheet.Matches(*ws.State.Doc) {
			mismatch = true
			return nil
		}
		var res session.Result
		ws.State, res = session.Apply(ws.State, session.Restore{Markers: sheet.Markers, Angle: sheet.View()})
		out = newEventResponse(id, ws, res)
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if mismatch {
		jsonError(w, fmt.Sprintf("sheet belongs to %q", sheet.Document.Name), http.StatusConflict)
		return
	}
	s.log.Info("sheet imported", "session", id, "markers", len(sheet.Markers))
	writeJSON(w, http.StatusOK, out)
}

func attachment(w http.ResponseWriter, contentType, name string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	w.Header().Set("Content-Length", fmt.Sprint(body.Len()))
	w.WriteHeader(http.StatusOK)
	body.WriteTo(w)
}
