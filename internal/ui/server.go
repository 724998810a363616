// Package ui provides the local web front end for an askdata session.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/askdata/internal/ui/notifier"
	"github.com/leapstack-labs/askdata/internal/ui/router"
	"github.com/leapstack-labs/askdata/internal/upload"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// Server is the main UI server.
type Server struct {
	workspace    *workspace.Workspace
	sessionStore *sessions.CookieStore
	port         int
	watchDir     string
	dev          bool
	logger       *slog.Logger
	notifier     *notifier.Notifier
	handler      http.Handler
}

// Config holds configuration for the UI server.
type Config struct {
	Service       workspace.Service
	Port          int
	SessionSecret string
	Logger        *slog.Logger
	// DiscardStale drops query results that arrive after their dataset was deselected
	DiscardStale bool
	// WatchDir, when set, uploads files dropped into the folder
	WatchDir string
	Dev      bool
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	notify := notifier.New()
	ws := workspace.New(cfg.Service, workspace.Options{
		Logger:       logger,
		DiscardStale: cfg.DiscardStale,
		OnChange:     notify.Broadcast,
	})

	s := &Server{
		workspace:    ws,
		sessionStore: sessionStore,
		port:         cfg.Port,
		watchDir:     cfg.WatchDir,
		dev:          cfg.Dev,
		logger:       logger,
		notifier:     notify,
	}

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	if err := router.SetupRoutes(r, ws, sessionStore, notify, logger, s.dev); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	s.handler = r

	return s, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
// The session bootstraps in the background; the page shows a loading screen until it finishes.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", s.URL())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		datasets := s.workspace.Bootstrap(egctx)
		s.logger.Debug("session bootstrapped", "datasets", len(datasets))
		s.notifier.Broadcast()
		return nil
	})

	if s.watchDir != "" {
		eg.Go(func() error {
			return s.watchUploads(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// URL is the address the server listens on.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Workspace returns the session the server fronts.
func (s *Server) Workspace() *workspace.Workspace {
	return s.workspace
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchUploads feeds files dropped into the watch folder through the upload zone.
// A missing folder is logged and the server keeps running.
func (s *Server) watchUploads(ctx context.Context) error {
	w := upload.NewWatcher(s.watchDir, s.workspace.Upload,
		upload.WithWatchLogger(s.logger.With("component", "watcher")),
		upload.WithResultHandler(func(res upload.DropResult) {
			if res.Err != nil {
				s.logger.Error("watched upload failed", "path", res.Path, "error", res.Err)
			}
		}),
	)
	if err := w.Run(ctx); err != nil {
		s.logger.Error("failed to watch upload folder", "dir", s.watchDir, "error", err)
	}
	return nil
}
