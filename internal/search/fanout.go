package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/source"
)

// querySources searches every source in parallel and waits for all of them.
// Results are returned per source, in source order. A failing source
// contributes nothing and never cancels the others.
func (s *Searcher) querySources(ctx context.Context, keyword string, sources []source.Source) ([][]media.SearchResult, int) {
	perSource := make([][]media.SearchResult, len(sources))
	errs := make([]error, len(sources))

	// Plain Group rather than WithContext: one failure must not cancel siblings.
	var g errgroup.Group
	g.SetLimit(len(sources))
	for i, src := range sources {
		g.Go(func() error {
			sourceStart := time.Now()
			items, err := s.upstream.Search(ctx, src.API, keyword)
			if err != nil {
				s.log.Warn("source failed", "source", src.Name, "error", err, "duration_ms", time.Since(sourceStart).Milliseconds())
				errs[i] = err
				return nil
			}
			s.log.Debug("source returned", "source", src.Name, "results", len(items), "duration_ms", time.Since(sourceStart).Milliseconds())
			results := make([]media.SearchResult, 0, len(items))
			for _, it := range items {
				if it.ID == "" || it.Name == "" {
					continue
				}
				results = append(results, toResult(src, keyword, it))
			}
			perSource[i] = results
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	return perSource, failed
}
