// Package server provides the HTTP dashboard of wavein: attendance, roster,
// enrollment control, the annotated video feed, and a live event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/wavein/internal/app"
	"github.com/ayusman/wavein/internal/attendance"
	"github.com/ayusman/wavein/internal/gallery"
	"github.com/ayusman/wavein/internal/plugin"
	"github.com/ayusman/wavein/internal/server/api"
	"github.com/ayusman/wavein/internal/store"
)

// FrameSource supplies the latest annotated frame as JPEG.
type FrameSource interface {
	LatestJPEG() []byte
}

// EventSource supplies live pipeline events.
type EventSource interface {
	Subscribe() (<-chan app.Event, func())
}

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Ledger    *attendance.Ledger
	Session   api.Registrar
	Gallery   *gallery.Gallery
	Plugins   *plugin.Manager
	Frames    FrameSource
	Events    EventSource
	// FrameInterval paces the MJPEG stream; zero means about 15 fps.
	FrameInterval time.Duration
}

// FromRuntime builds a Config serving every component of rt.
func FromRuntime(rt *app.Runtime, staticDir string) Config {
	return Config{
		StaticDir: staticDir,
		Store:     rt.Store,
		Ledger:    rt.Ledger,
		Session:   rt.Session,
		Gallery:   rt.Gallery,
		Plugins:   rt.Plugins,
		Frames:    rt.App,
		Events:    rt.App,
	}
}

// Server is the wavein HTTP server.
type Server struct {
	config Config
	router *chi.Mux
	start  time.Time

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.router.Use(chiMiddleware.RealIP)
	s.router.Use(chiMiddleware.Recoverer)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Get("/api/health", s.handleHealth)

	if s.config.Ledger != nil {
		h := api.NewAttendanceHandler(s.config.Ledger)
		r.Get("/api/attendance", h.List)
		r.Get("/api/attendance/export", h.Export)
	}

	if s.config.Store != nil {
		students := api.NewStudentHandler(s.config.Store, s.config.Session)
		r.Get("/api/students", students.List)
		r.Post("/api/students", students.Create)
		r.Get("/api/students/{id}", students.Get)
		r.Delete("/api/students/{id}", students.Delete)

		hooks := api.NewHookHandler(s.config.Store, s.config.Plugins)
		r.Get("/api/hooks", hooks.List)
		r.Post("/api/hooks", hooks.Create)
		r.Put("/api/hooks/{id}", hooks.Update)
		r.Delete("/api/hooks/{id}", hooks.Delete)
		r.Get("/api/plugins", hooks.Plugins)
	}

	if s.config.Session != nil {
		reg := api.NewRegistrationHandler(s.config.Session)
		r.Get("/api/registration_status", reg.Status)
		r.Post("/api/register/{name}", reg.Start)
		r.Post("/api/manual_capture/{name}", reg.ManualCapture)
		r.Post("/api/complete_registration/{name}", reg.Complete)
	}

	if s.config.Gallery != nil {
		r.Get("/api/gallery", api.NewGalleryHandler(s.config.Gallery).Info)
	}

	if s.config.Frames != nil {
		r.Handle("/video_feed", NewStreamHandler(s.config.Frames, s.config.FrameInterval))
	}

	if s.config.Events != nil {
		r.Handle("/api/events", NewEventsHandler(s.config.Events))
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("Starting web server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
