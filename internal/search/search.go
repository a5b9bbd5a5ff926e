package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/source"
	"github.com/vmunix/vodgate/internal/upstream"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_upstream.go -package=mocks github.com/vmunix/vodgate/internal/search Upstream

// Upstream performs a keyword search against one aggregator API.
type Upstream interface {
	Search(ctx context.Context, api, keyword string) ([]upstream.Item, error)
}

// Mode selects which sources a query fans out to.
type Mode string

const (
	// ModeFast queries a single source: the requested one, else the registry's fast source.
	ModeFast Mode = "fast"
	// ModeAll queries every registered source.
	ModeAll Mode = "all"
)

// ParseMode converts a request parameter to a Mode. Unknown values map to ModeFast.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeAll {
		return ModeAll
	}
	return ModeFast
}

// Query specifies what to search for.
type Query struct {
	Keyword   string
	Mode      Mode
	SourceAPI string // Restricts a fast query to one registered source
}

// Result is the merged, ranked output of one search.
type Result struct {
	Items   []media.SearchResult `json:"items"`
	Sources int                  `json:"sources"` // Sources queried
	Failed  int                  `json:"failed"`  // Sources that returned an error
	Cached  bool                 `json:"cached"`
}

// Options tune result filtering.
type Options struct {
	Denylist     []string // Titles containing any term are dropped
	MinRelevance float64  // Drop results scoring below this; 0 disables
}

// Searcher aggregates results across sources.
type Searcher struct {
	upstream Upstream
	registry *source.Registry
	cache    *Cache
	opts     Options
	denylist []string
	flight   singleflight.Group
	log      *slog.Logger
}

// NewSearcher creates a Searcher. cache may be nil to disable caching.
func NewSearcher(up Upstream, registry *source.Registry, cache *Cache, opts Options, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		upstream: up,
		registry: registry,
		cache:    cache,
		opts:     opts,
		denylist: foldTerms(opts.Denylist),
		log:      logger.With("component", "search"),
	}
}

// Search runs q against the selected sources. Individual source failures are
// absorbed; the result may be empty but is never an error once sources are selected.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if q.Mode == "" {
		q.Mode = ModeFast
	}

	sources, err := s.selectSources(q)
	if err != nil {
		return nil, err
	}

	key := cacheKey(keyword, string(q.Mode), q.SourceAPI)
	if items, ok := s.cache.Get(ctx, key); ok {
		s.log.Debug("search cache hit", "keyword", keyword, "mode", q.Mode, "results", len(items))
		return &Result{Items: items, Sources: len(sources), Cached: true}, nil
	}

	// Concurrent misses for the same key share one fan-out. It is detached
	// from the caller that started it; upstream timeouts still bound it.
	v, _, _ := s.flight.Do(key, func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)
		res := s.fanOut(flightCtx, keyword, sources)
		if len(res.Items) > 0 {
			s.cache.Set(flightCtx, key, res.Items)
		}
		return res, nil
	})
	res := *v.(*Result)
	res.Items = slices.Clone(res.Items)
	return &res, nil
}

func (s *Searcher) selectSources(q Query) ([]source.Source, error) {
	if q.SourceAPI != "" {
		src, ok := s.registry.Lookup(q.SourceAPI)
		if !ok {
			return nil, ErrUnknownSource
		}
		if q.Mode == ModeFast {
			return []source.Source{src}, nil
		}
	}
	if q.Mode == ModeAll {
		all := s.registry.All()
		if len(all) == 0 {
			return nil, ErrNoSources
		}
		return all, nil
	}
	src, ok := s.registry.Fast()
	if !ok {
		return nil, ErrNoSources
	}
	return []source.Source{src}, nil
}

func (s *Searcher) fanOut(ctx context.Context, keyword string, sources []source.Source) *Result {
	s.log.Debug("search started", "keyword", keyword, "sources", len(sources))
	start := time.Now()

	perSource, failed := s.querySources(ctx, keyword, sources)

	merged := merge(perSource)
	items := s.filter(keyword, merged)
	Rank(keyword, items)

	s.log.Info("search complete", "keyword", keyword, "sources", len(sources), "failed", failed,
		"results", len(items), "duration_ms", time.Since(start).Milliseconds())
	return &Result{Items: items, Sources: len(sources), Failed: failed}
}

// merge concatenates per-source results in source order, keeping the first
// occurrence of each (source API, id) pair.
func merge(perSource [][]media.SearchResult) []media.SearchResult {
	type key struct{ api, id string }
	seen := make(map[key]bool)
	var out []media.SearchResult
	for _, results := range perSource {
		for _, r := range results {
			k := key{r.SourceAPI, r.ID}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, r)
		}
	}
	return out
}

func (s *Searcher) filter(keyword string, items []media.SearchResult) []media.SearchResult {
	out := items[:0]
	for _, it := range items {
		if s.denied(it.Title) {
			continue
		}
		if s.opts.MinRelevance > 0 && it.Relevance < s.opts.MinRelevance && !strings.Contains(foldTitle(it.Title), foldTitle(keyword)) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (s *Searcher) denied(title string) bool {
	if len(s.denylist) == 0 {
		return false
	}
	folded := foldTitle(title)
	for _, term := range s.denylist {
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}

func toResult(src source.Source, keyword string, it upstream.Item) media.SearchResult {
	title := strings.TrimSpace(it.Name)
	return media.SearchResult{
		ID:         it.ID.String(),
		Title:      title,
		Cover:      strings.TrimSpace(it.Pic),
		Note:       strings.TrimSpace(it.Remarks),
		SourceName: src.Name,
		SourceAPI:  src.API,
		Category:   media.NormalizeCategory(it.TypeName),
		Relevance:  Relevance(keyword, title),
	}
}
