package web

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/vmunix/vodgate/internal/analytics"
)

func (s *Server) window(r *http.Request) int {
	w := queryInt(r, "window", s.cfg.WindowDays)
	if w <= 0 || w > 366 {
		return s.cfg.WindowDays
	}
	return w
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	window := s.window(r)
	sum, err := s.deps.Reporter.Summarize(r.Context(), window)
	if err != nil {
		s.log.Error("summarize failed", "error", err)
		http.Error(w, "failed to load statistics", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = analytics.RenderDashboard(&buf, analytics.DashboardPage{
		Summary:   sum,
		Window:    len(sum.Daily),
		ExportURL: "/admin/export_csv?key=" + url.QueryEscape(r.URL.Query().Get("key")),
	})
	if err != nil {
		s.log.Error("render failed", "template", "dashboard", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.deps.Reporter.ExportFilename()+`"`)
	w.Header().Set("Cache-Control", "no-store")

	// Rows stream straight to the client; a failure midway truncates the file.
	if _, err := s.deps.Reporter.WriteCSV(r.Context(), w); err != nil {
		s.log.Error("csv export failed", "error", err)
	}
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Reporter.Summarize(r.Context(), s.window(r))
	if err != nil {
		s.log.Error("summarize failed", "error", err)
		writeError(w, http.StatusInternalServerError, "STATS_FAILED", "failed to load statistics")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
