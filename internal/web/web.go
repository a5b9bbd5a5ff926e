// Package web serves the HTML pages, JSON API and admin views.
package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// Config holds web server configuration.
type Config struct {
	AdminSecret string // empty disables the admin routes
	WindowDays  int
	Version     string
}

// Server is the HTTP front end.
type Server struct {
	deps  Deps
	cfg   Config
	pages *pages
	log   *slog.Logger
}

// New creates a web server. It fails if a required dependency is missing.
func New(deps Deps, cfg Config, logger *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:  deps,
		cfg:   cfg,
		pages: loadPages(),
		log:   logger.With("component", "web"),
	}, nil
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Pages
	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("GET /search", s.searchPage)
	mux.HandleFunc("POST /search", s.searchPage)
	mux.HandleFunc("GET /play", s.play)

	// JSON API
	mux.HandleFunc("GET /api/search", s.apiSearch)
	mux.HandleFunc("GET /api/sources", s.apiSources)
	mux.HandleFunc("GET /api/detail", s.apiDetail)

	// Liveness
	mux.HandleFunc("GET /heartbeat", s.heartbeat)
	mux.HandleFunc("POST /heartbeat", s.heartbeat)
	mux.HandleFunc("GET /healthz", s.healthz)

	// Admin
	mux.HandleFunc("GET /admin/dashboard", s.requireAdmin(s.requireReporter(s.dashboard)))
	mux.HandleFunc("GET /admin/export_csv", s.requireAdmin(s.requireReporter(s.exportCSV)))
	mux.HandleFunc("GET /api/admin/stats", s.requireAdmin(s.requireReporter(s.adminStats)))
}

// Handler returns the complete HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestID(logRequests(recoverPanics(mux, s.log), s.log))
}

func (s *Server) record(r *http.Request, action string) {
	if s.deps.Visits != nil {
		s.deps.Visits.Record(r, action)
	}
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from the query string or form.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := strings.TrimSpace(r.FormValue(name))
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func formString(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

func playAction(id string, ep int) string {
	return fmt.Sprintf("play: id=%s ep=%d", id, ep)
}
