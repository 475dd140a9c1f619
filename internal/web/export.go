package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"planline/internal/model"
	"planline/internal/publish"
	"planline/internal/store"
)

func humanAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func viewModeParam(r *http.Request) model.ViewMode {
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("view")), string(model.ViewMonthly)) {
		return model.ViewMonthly
	}
	return model.ViewWeekly
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "fetch timeline")
		return
	}
	md, err := publish.RenderTimelineMarkdown(rec, publish.RenderOptions{
		ViewMode:    viewModeParam(r),
		IncludeDone: r.URL.Query().Get("done") != "0",
	})
	if err != nil {
		s.storeError(w, err, "export timeline")
		return
	}
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(md))
	case "html":
		s.writeHTMLTemplate(w, "timeline.html", timelineVM{Record: rec, Body: exportHTML(md)})
	default:
		writeError(w, http.StatusBadRequest, "Unknown export format (expected md|html)")
	}
}

type indexVM struct {
	Timelines []model.Summary
}

type timelineVM struct {
	Record model.Record
	Body   template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.log.Errorf("list timelines: %v", err)
		http.Error(w, "failed to list timelines", http.StatusInternalServerError)
		return
	}
	s.writeHTMLTemplate(w, "index.html", indexVM{Timelines: list})
}

func (s *Server) handleTimelinePage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Errorf("get timeline: %v", err)
		http.Error(w, "failed to load timeline", http.StatusInternalServerError)
		return
	}
	md, err := publish.RenderTimelineMarkdown(rec, publish.RenderOptions{ViewMode: viewModeParam(r), IncludeDone: true})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.writeHTMLTemplate(w, "timeline.html", timelineVM{Record: rec, Body: exportHTML(md)})
}
