// Package detail resolves a single video record into a playable detail view.
package detail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/playlist"
	"github.com/vmunix/vodgate/internal/upstream"
)

// Fetcher fetches one record from an aggregator API.
type Fetcher interface {
	Detail(ctx context.Context, api, id string) (*upstream.Item, error)
}

// Service builds VideoDetail values from upstream records.
type Service struct {
	fetcher Fetcher
	filter  playlist.MediaFilter
	log     *slog.Logger
}

// NewService creates a detail service.
func NewService(fetcher Fetcher, filter playlist.MediaFilter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if filter == "" {
		filter = playlist.FilterKeep
	}
	return &Service{
		fetcher: fetcher,
		filter:  filter,
		log:     logger.With("component", "detail"),
	}
}

// Get fetches id from api and extracts its episode list.
// Upstream failures wrap ErrNotFound; a record without usable episodes
// returns ErrNoEpisodes.
func (s *Service) Get(ctx context.Context, api, id string) (*media.VideoDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	start := time.Now()
	item, err := s.fetcher.Detail(ctx, api, id)
	if err != nil {
		s.log.Warn("detail fetch failed", "api", api, "id", id, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	pl := playlist.Extract(item.PlayURL, item.PlayFrom, s.filter)
	if len(pl.Episodes) == 0 {
		s.log.Info("detail has no episodes", "api", api, "id", id)
		return nil, ErrNoEpisodes
	}
	if pl.Truncated {
		s.log.Warn("playlist truncated", "api", api, "id", id, "episodes", len(pl.Episodes))
	}

	title := strings.TrimSpace(item.Name)
	if title == "" {
		title = id
	}
	recordID := item.ID.String()
	if recordID == "" {
		recordID = id
	}

	s.log.Debug("detail resolved", "api", api, "id", id, "episodes", len(pl.Episodes), "playlist", pl.Source,
		"duration_ms", time.Since(start).Milliseconds())
	return &media.VideoDetail{
		ID:          recordID,
		Title:       title,
		Description: PlainText(item.Content),
		Cover:       strings.TrimSpace(item.Pic),
		Remarks:     strings.TrimSpace(item.Remarks),
		Category:    media.NormalizeCategory(item.TypeName),
		SourceAPI:   api,
		Episodes:    pl.Episodes,
		Truncated:   pl.Truncated,
	}, nil
}
