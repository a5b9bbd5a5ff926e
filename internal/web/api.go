package web

import (
	"errors"
	"net/http"

	"github.com/vmunix/vodgate/internal/detail"
	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/search"
	"github.com/vmunix/vodgate/internal/source"
)

type searchResponse struct {
	Keyword string               `json:"keyword"`
	Mode    search.Mode          `json:"mode"`
	Items   []media.SearchResult `json:"items"`
	Total   int                  `json:"total"`
	Sources int                  `json:"sources"`
	Failed  int                  `json:"failed"`
	Cached  bool                 `json:"cached"`
}

type sourcesResponse struct {
	Sources []source.Source `json:"sources"`
	Total   int             `json:"total"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Sources int    `json:"sources"`
}

func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	q := search.Query{
		Keyword:   formString(r, "keyword"),
		Mode:      search.ParseMode(formString(r, "mode")),
		SourceAPI: formString(r, "source_api"),
	}
	if q.Keyword == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "keyword is required")
		return
	}
	s.record(r, "api-search: "+q.Keyword)

	res, err := s.deps.Searcher.Search(r.Context(), q)
	switch {
	case errors.Is(err, search.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, "UNKNOWN_SOURCE", err.Error())
		return
	case errors.Is(err, search.ErrNoSources):
		writeError(w, http.StatusServiceUnavailable, "NO_SOURCES", err.Error())
		return
	case err != nil:
		s.log.Error("search failed", "keyword", q.Keyword, "error", err)
		writeError(w, http.StatusInternalServerError, "SEARCH_FAILED", "search failed")
		return
	}

	items := res.Items
	if items == nil {
		items = []media.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Keyword: q.Keyword,
		Mode:    q.Mode,
		Items:   items,
		Total:   len(items),
		Sources: res.Sources,
		Failed:  res.Failed,
		Cached:  res.Cached,
	})
}

func (s *Server) apiSources(w http.ResponseWriter, _ *http.Request) {
	all := s.deps.Sources.All()
	if all == nil {
		all = []source.Source{}
	}
	writeJSON(w, http.StatusOK, sourcesResponse{Sources: all, Total: len(all)})
}

func (s *Server) apiDetail(w http.ResponseWriter, r *http.Request) {
	id := formString(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id is required")
		return
	}
	api, ok := s.resolveSource(formString(r, "api"))
	if !ok {
		writeError(w, http.StatusBadRequest, "UNKNOWN_SOURCE", "unknown source")
		return
	}

	video, err := s.deps.Detail.Get(r.Context(), api, id)
	switch {
	case errors.Is(err, detail.ErrNoEpisodes):
		writeError(w, http.StatusNotFound, "NO_EPISODES", "no playable episodes")
		return
	case errors.Is(err, detail.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "video not found")
		return
	case err != nil:
		s.log.Error("detail failed", "api", api, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "DETAIL_FAILED", "detail lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (s *Server) heartbeat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.cfg.Version,
		Sources: len(s.deps.Sources.All()),
	})
}
