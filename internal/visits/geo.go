package visits

import (
	"context"
	"log/slog"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, params url.Values, v any) error
}

// GeoOptions configures a Geolocator.
type GeoOptions struct {
	Enabled       bool
	Endpoint      string // must contain {ip}
	Lang          string
	Timeout       time.Duration
	RatePerMinute int
}

// Geolocator resolves IP addresses to a "country region city" string using
// an ip-api.com compatible endpoint. It never fails: errors yield UnknownLocation.
type Geolocator struct {
	client  JSONGetter
	opts    GeoOptions
	limiter *rate.Limiter
	log     *slog.Logger
}

type geoResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// NewGeolocator creates a Geolocator. A nil client disables lookups.
func NewGeolocator(client JSONGetter, opts GeoOptions, logger *slog.Logger) *Geolocator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	g := &Geolocator{
		client: client,
		opts:   opts,
		log:    logger.With("component", "geo"),
	}
	if opts.RatePerMinute > 0 {
		burst := max(1, opts.RatePerMinute/4)
		g.limiter = rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60), burst)
	}
	return g
}

// Locate returns a human-readable location for ip.
func (g *Geolocator) Locate(ctx context.Context, ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return UnknownLocation
	}
	if isLocal(addr) {
		return LocalLocation
	}
	if g == nil || !g.opts.Enabled || g.client == nil || g.opts.Endpoint == "" {
		return UnknownLocation
	}
	if g.limiter != nil && !g.limiter.Allow() {
		g.log.Debug("geo lookup rate limited", "ip", ip)
		return UnknownLocation
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	endpoint := strings.ReplaceAll(g.opts.Endpoint, "{ip}", url.PathEscape(addr.String()))
	var params url.Values
	if g.opts.Lang != "" {
		params = url.Values{"lang": {g.opts.Lang}}
	}

	var resp geoResponse
	if err := g.client.GetJSON(ctx, endpoint, params, &resp); err != nil {
		g.log.Debug("geo lookup failed", "ip", ip, "error", err)
		return UnknownLocation
	}
	if resp.Status != "success" {
		g.log.Debug("geo lookup rejected", "ip", ip, "message", resp.Message)
		return UnknownLocation
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{resp.Country, resp.RegionName, resp.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return UnknownLocation
	}
	return strings.Join(parts, " ")
}

func isLocal(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified() || addr.IsMulticast()
}
