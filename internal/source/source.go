// Package source maintains the registry of aggregator endpoints.
package source

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Speed is an operator-assigned hint about how quickly a source responds.
type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedNormal Speed = "normal"
	SpeedSlow   Speed = "slow"
)

// Source is a named aggregator endpoint.
type Source struct {
	Name  string `json:"name"`
	API   string `json:"api"`
	Speed Speed  `json:"speed"`
}

// Bundle is a remote TVBox-style configuration listing additional sites.
type Bundle struct {
	Name string
	URL  string
}

// bundleSite types. Type 0 sites speak XML and are not supported.
const siteTypeJSON = 1

const maxBundleTimeout = 10 * time.Second

type bundleDoc struct {
	Sites []bundleSite `json:"sites"`
}

type bundleSite struct {
	Name string `json:"name"`
	API  string `json:"api"`
	Type int    `json:"type"`
}

// Fetcher retrieves and decodes a JSON document.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, params url.Values, v any) error
}

// Registry is the immutable list of known sources.
// It is built once at startup and safe for concurrent reads.
type Registry struct {
	sources []Source
	byAPI   map[string]Source
}

// NewRegistry builds a registry from built-in sources, deduplicating by API.
// Entries with an empty or non-http(s) API are dropped.
func NewRegistry(sources []Source) *Registry {
	valid := lo.FilterMap(sources, func(s Source, _ int) (Source, bool) {
		s.API = strings.TrimSpace(s.API)
		s.Name = strings.TrimSpace(s.Name)
		if !isHTTPURL(s.API) {
			return s, false
		}
		if s.Speed == "" {
			s.Speed = SpeedNormal
		}
		if s.Name == "" {
			s.Name = hostOf(s.API)
		}
		return s, true
	})
	uniq := lo.UniqBy(valid, func(s Source) string { return s.API })

	return &Registry{
		sources: uniq,
		byAPI:   lo.KeyBy(uniq, func(s Source) string { return s.API }),
	}
}

// Load builds a registry from the built-in list plus every bundle. Bundles are
// fetched concurrently; a failing bundle is skipped. Built-ins win on duplicate APIs.
func Load(ctx context.Context, fetcher Fetcher, builtin []Source, bundles []Bundle, timeout time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "source")

	if timeout <= 0 || timeout > maxBundleTimeout {
		timeout = maxBundleTimeout
	}

	// Results are kept per bundle so configuration order is preserved.
	fetched := make([][]Source, len(bundles))
	if fetcher != nil && len(bundles) > 0 {
		var g errgroup.Group
		g.SetLimit(3)
		for i, b := range bundles {
			g.Go(func() error {
				// Each bundle gets the full timeout, starting when its fetch does.
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				sites, err := fetchBundle(ctx, fetcher, b)
				if err != nil {
					log.Debug("bundle skipped", "bundle", b.Name, "url", b.URL, "error", err)
					return nil
				}
				log.Debug("bundle loaded", "bundle", b.Name, "sites", len(sites))
				fetched[i] = sites
				return nil
			})
		}
		_ = g.Wait()
	}

	all := append([]Source(nil), builtin...)
	all = append(all, lo.Flatten(fetched)...)
	reg := NewRegistry(all)
	log.Info("sources loaded", "builtin", len(builtin), "total", reg.Len())
	return reg
}

func fetchBundle(ctx context.Context, fetcher Fetcher, b Bundle) ([]Source, error) {
	var doc bundleDoc
	if err := fetcher.GetJSON(ctx, b.URL, nil, &doc); err != nil {
		return nil, err
	}
	prefix := b.Name
	if prefix == "" {
		prefix = hostOf(b.URL)
	}
	return lo.FilterMap(doc.Sites, func(s bundleSite, _ int) (Source, bool) {
		if s.Type != siteTypeJSON {
			return Source{}, false
		}
		return Source{
			Name:  "[" + prefix + "] " + strings.TrimSpace(s.Name),
			API:   s.API,
			Speed: SpeedNormal,
		}, true
	}), nil
}

// All returns a copy of every source in registry order.
func (r *Registry) All() []Source {
	return append([]Source(nil), r.sources...)
}

// Fast returns the first source marked fast, falling back to the first source.
func (r *Registry) Fast() (Source, bool) {
	if len(r.sources) == 0 {
		return Source{}, false
	}
	if s, ok := lo.Find(r.sources, func(s Source) bool { return s.Speed == SpeedFast }); ok {
		return s, true
	}
	return r.sources[0], true
}

// Lookup returns the source registered for api.
func (r *Registry) Lookup(api string) (Source, bool) {
	s, ok := r.byAPI[strings.TrimSpace(api)]
	return s, ok
}

// Len returns the number of sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func hostOf(s string) string {
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		return u.Host
	}
	return s
}
