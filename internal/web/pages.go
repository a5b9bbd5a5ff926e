package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/search"
	"github.com/vmunix/vodgate/internal/source"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	home    *template.Template
	results *template.Template
	player  *template.Template
	failure *template.Template
}

func loadPages() *pages {
	parse := func(name string) *template.Template {
		return template.Must(template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return &pages{
		home:    parse("home.html"),
		results: parse("results.html"),
		player:  parse("player.html"),
		failure: parse("error.html"),
	}
}

type searchForm struct {
	Keyword   string
	Mode      search.Mode
	SourceAPI string
	Sources   []source.Source
}

type homePage struct {
	Form    searchForm
	Version string
}

type resultsPage struct {
	Form   searchForm
	Result *search.Result
	Error  string
}

type playerPage struct {
	Video   *media.VideoDetail
	Current media.Episode
	Index   int
	API     string
}

type errorPage struct {
	Title   string
	Message string
}

func (s *Server) render(w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		s.log.Error("render failed", "template", t.Name(), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.record(r, "home")
	form := searchForm{Mode: search.ModeFast, Sources: s.deps.Sources.All()}
	if src, ok := s.deps.Sources.Fast(); ok {
		form.SourceAPI = src.API
	}
	s.render(w, http.StatusOK, s.pages.home, homePage{Form: form, Version: s.cfg.Version})
}

func (s *Server) searchPage(w http.ResponseWriter, r *http.Request) {
	keyword := formString(r, "keyword")
	if keyword == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.record(r, "search: "+keyword)

	q := search.Query{
		Keyword:   keyword,
		Mode:      search.ParseMode(formString(r, "mode")),
		SourceAPI: formString(r, "source_api"),
	}
	page := resultsPage{Form: searchForm{Keyword: keyword, Mode: q.Mode, SourceAPI: q.SourceAPI, Sources: s.deps.Sources.All()}}

	res, err := s.deps.Searcher.Search(r.Context(), q)
	switch {
	case errors.Is(err, search.ErrUnknownSource):
		page.Error = "Unknown source."
		s.render(w, http.StatusBadRequest, s.pages.results, page)
		return
	case errors.Is(err, search.ErrNoSources):
		page.Error = "No sources are available right now."
		s.render(w, http.StatusServiceUnavailable, s.pages.results, page)
		return
	case err != nil:
		s.log.Error("search failed", "keyword", keyword, "error", err)
		page.Error = "Search failed."
		s.render(w, http.StatusInternalServerError, s.pages.results, page)
		return
	}

	page.Result = res
	if page.Form.SourceAPI == "" {
		if src, ok := s.deps.Sources.Fast(); ok {
			page.Form.SourceAPI = src.API
		}
	}
	s.render(w, http.StatusOK, s.pages.results, page)
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	id := formString(r, "id")
	if id == "" {
		s.render(w, http.StatusBadRequest, s.pages.failure, errorPage{Title: "Bad request", Message: "Missing video id."})
		return
	}
	ep := max(0, queryInt(r, "ep_index", 0))
	s.record(r, playAction(id, ep))

	api, ok := s.resolveSource(formString(r, "api"))
	if !ok {
		s.playbackUnavailable(w)
		return
	}

	video, err := s.deps.Detail.Get(r.Context(), api, id)
	if err != nil {
		s.log.Warn("playback unavailable", "api", api, "id", id, "error", err)
		s.playbackUnavailable(w)
		return
	}

	current, idx := video.Episode(ep)
	s.render(w, http.StatusOK, s.pages.player, playerPage{Video: video, Current: current, Index: idx, API: api})
}

func (s *Server) playbackUnavailable(w http.ResponseWriter) {
	s.render(w, http.StatusBadGateway, s.pages.failure, errorPage{
		Title:   "Playback unavailable",
		Message: "The source could not be loaded. Go back and try another source.",
	})
}

// resolveSource maps a requested API to a registered source, defaulting to
// the fast source when none is given.
func (s *Server) resolveSource(api string) (string, bool) {
	if api == "" {
		src, ok := s.deps.Sources.Fast()
		return src.API, ok
	}
	src, ok := s.deps.Sources.Lookup(api)
	return src.API, ok
}
