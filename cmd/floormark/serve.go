package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/floormark/internal/api"
)

type serveCmd struct {
	*root
	fs        *flag.FlagSet
	addr      string
	maxUpload int64
	ttl       time.Duration
}

func (s *serveCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	s := &serveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(s)
	fs.StringVar(&s.addr, "addr", r.config.Server.Addr, "listen address")
	fs.Int64Var(&s.maxUpload, "max-upload", r.config.Server.MaxUpload, "largest accepted plan upload in bytes")
	fs.DurationVar(&s.ttl, "session-ttl", r.config.Server.SessionTTL, "drop sessions idle for longer than this")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := api.NewStore()
	go store.Janitor(ctx, s.ttl/4, s.ttl, func(n int) {
		s.log.Info("expired sessions", "count", n, "live", store.Len())
	})

	srv := api.NewServer(store, s.log, api.Options{
		MaxUpload:   s.maxUpload,
		JPEGQuality: s.config.JPEGQuality,
		Ingest:      s.ingestOptions(),
		Composer:    s.composer,
	})

	httpServer := &http.Server{
		Addr:         s.addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		s.log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown", "error", err)
		}
	}()

	s.log.Info("starting floormark", "addr", s.addr, "max_upload", s.maxUpload, "session_ttl", s.ttl, "jpeg_quality", s.config.JPEGQuality)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
