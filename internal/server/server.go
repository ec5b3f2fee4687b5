// Package server provides the HTTP server for the Mudra gesture service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/handtrack"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration. Every component is optional; the
// routes that need a missing component are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    *engine.Engine
	Plugins   *plugin.Manager
	Camera    handtrack.Camera
}

// Server represents the HTTP server for the Mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		recognizers := api.NewRecognizerHandler(s.config.Store, s.config.Engine)
		s.mux.Handle("/api/recognizers", recognizers)
		s.mux.Handle("/api/recognizers/", recognizers)

		actions := api.NewActionHandler(s.config.Store, s.config.Plugins)
		s.mux.Handle("/api/actions", actions)
		s.mux.Handle("/api/actions/", actions)

		s.mux.Handle("/api/events", api.NewEventsHandler(s.config.Store))
	}

	if s.config.Engine != nil {
		s.mux.Handle("/api/input", NewInputHandler(s.config.Engine))
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Engine != nil {
		response["recognizers"] = len(s.config.Engine.Recognizers())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
