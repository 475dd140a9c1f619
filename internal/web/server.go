// Package web serves the timeline REST API, the websocket relay, live
// Datastar signal streams and read-only export pages.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CAFxX/httpcompression"

	"planline/internal/logging"
	"planline/internal/relay"
	"planline/internal/store"
)

//go:embed templates/*.html
var assetsFS embed.FS

type ServerConfig struct {
	Addr    string
	Dir     string
	ActorID string
	Log     *logging.Logger

	// WatchInterval is the poll period the data-dir watcher falls back to
	// when no file events arrive. Zero means 2s.
	WatchInterval time.Duration
}

type Server struct {
	cfg   ServerConfig
	store store.Store
	log   *logging.Logger
	tmpl  *template.Template

	hub      *relay.Hub
	bc       *resourceBroadcaster
	compress func(http.Handler) http.Handler
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Dir = strings.TrimSpace(cfg.Dir)
	cfg.ActorID = strings.TrimSpace(cfg.ActorID)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Dir == "" {
		return nil, errors.New("web: dir is empty")
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = 2 * time.Second
	}
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}

	st := store.Store{Dir: cfg.Dir}
	if err := st.Ensure(); err != nil {
		return nil, err
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
		"ago":  humanAgo,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		store:    st,
		log:      log.With("web"),
		tmpl:     tmpl,
		hub:      relay.NewHub(log.With("relay")),
		bc:       newResourceBroadcaster(),
		compress: compress,
	}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Hub is the websocket relay mounted at /ws.
func (s *Server) Hub() *relay.Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/timelines", s.handleList)
	api.HandleFunc("POST /api/timelines", s.handleCreate)
	api.HandleFunc("GET /api/timelines/{id}", s.handleGet)
	api.HandleFunc("PUT /api/timelines/{id}", s.handleUpdate)
	api.HandleFunc("DELETE /api/timelines/{id}", s.handleDelete)
	api.HandleFunc("GET /api/timelines/{id}/export", s.handleExport)
	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", s.compress(api))
	// Streams stay outside the compression wrapper so events flush immediately.
	mux.HandleFunc("GET /api/timelines/{id}/events", s.handleTimelineEvents)
	mux.HandleFunc("GET /events", s.handleListEvents)
	mux.Handle("GET /ws", s.hub)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /timelines/{id}", s.handleTimelinePage)
	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		s.log.Errorf("render %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}
