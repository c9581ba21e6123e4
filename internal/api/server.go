// Package api serves annotation sessions over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/render"
	"github.com/example/floormark/internal/session"
)

// DefaultMaxUpload bounds document uploads when Options leaves it unset.
const DefaultMaxUpload = 50 << 20

// Options configures a Server.
type Options struct {
	MaxUpload   int64
	JPEGQuality int
	Ingest      ingest.Options
	Composer    *render.Composer
	Now         func() time.Time
}

// Server is the HTTP API server for annotation sessions.
type Server struct {
	router   chi.Router
	sessions *session.Store[Workspace]
	log      *slog.Logger
	opts     Options
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Store[Workspace], log *slog.Logger, opts Options) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	if opts.Composer == nil {
		opts.Composer = render.NewComposer(marker.DefaultPalette(), nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Ingest.Log == nil {
		opts.Ingest.Log = log
	}
	s := &Server{
		sessions: sessions,
		log:      log,
		opts:     opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/meta", s.handleMeta)

	r.Post("/api/sessions", s.handleCreateSession)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetState)
		r.Delete("/", s.handleDeleteSession)
		r.Post("/document", s.handleUpload)
		r.Post("/events", s.handleEvent)
		r.Get("/view.png", s.handleView)
		r.Get("/export.jpg", s.handleExportJPEG)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.yaml", s.handleExportSheet)
		r.Post("/sheet", s.handleImportSheet)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
