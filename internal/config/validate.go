// internal/config/validate.go
package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve on minimal hosts
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validDrivers = map[string]bool{
	"sqlite": true, "postgres": true, "": true,
}

var validSpeeds = map[string]bool{
	"fast": true, "normal": true, "slow": true, "": true,
}

var validMediaFilters = map[string]bool{
	"keep": true, "drop": true, "": true,
}

var validSearchActions = map[string]bool{
	"list": true, "detail": true, "videolist": true, "": true,
}

const warningPrefix = "warning: "

func isWarning(msg string) bool {
	return strings.Contains(msg, warningPrefix)
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid). Messages containing
// "warning: " are advisory and do not fail Load.
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Server.Timezone != "" {
		if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("server.timezone: unknown zone %q", c.Server.Timezone))
		}
	}

	// Database validation
	if !validDrivers[c.Database.Driver] {
		errs = append(errs, fmt.Sprintf("database.driver: must be one of sqlite, postgres; got %q", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		errs = append(errs, "database.dsn: required when driver is postgres")
	}

	// Admin validation
	if c.Admin.Secret == "" {
		errs = append(errs, "admin.secret: "+warningPrefix+"empty secret disables the admin dashboard")
	}
	for _, ip := range c.Admin.IPDenylist {
		if _, err := netip.ParseAddr(ip); err != nil {
			errs = append(errs, fmt.Sprintf("admin.ip_denylist: invalid address %q", ip))
		}
	}

	// Upstream validation
	if c.Upstream.MaxRetries < 0 || c.Upstream.MaxRetries > 10 {
		errs = append(errs, fmt.Sprintf("upstream.max_retries: must be between 0 and 10, got %d", c.Upstream.MaxRetries))
	}
	if !validSearchActions[c.Upstream.SearchAction] {
		errs = append(errs, fmt.Sprintf("upstream.search_action: must be one of list, detail, videolist; got %q", c.Upstream.SearchAction))
	}
	if c.Upstream.InsecureSkipVerify {
		errs = append(errs, "upstream.insecure_skip_verify: "+warningPrefix+"TLS certificate verification is disabled")
	}

	// Sources validation
	for i, s := range c.Sources.Builtin {
		if !isHTTPURL(s.API) {
			errs = append(errs, fmt.Sprintf("sources.builtin[%d].api: must be an http(s) URL, got %q", i, s.API))
		}
		if !validSpeeds[s.Speed] {
			errs = append(errs, fmt.Sprintf("sources.builtin[%d].speed: must be one of fast, normal, slow; got %q", i, s.Speed))
		}
	}
	for i, b := range c.Sources.Bundles {
		if !isHTTPURL(b.URL) {
			errs = append(errs, fmt.Sprintf("sources.bundles[%d].url: must be an http(s) URL, got %q", i, b.URL))
		}
	}

	// Search validation
	if c.Search.CacheMaxEntries < 0 {
		errs = append(errs, fmt.Sprintf("search.cache_max_entries: must not be negative, got %d", c.Search.CacheMaxEntries))
	}
	if c.Search.MinRelevance < 0 || c.Search.MinRelevance > 1 {
		errs = append(errs, fmt.Sprintf("search.min_relevance: must be between 0 and 1, got %v", c.Search.MinRelevance))
	}

	// Playlist validation
	if !validMediaFilters[c.Playlist.MediaFilter] {
		errs = append(errs, fmt.Sprintf("playlist.media_filter: must be one of keep, drop; got %q", c.Playlist.MediaFilter))
	}

	// Geo validation
	if c.Geo.Endpoint != "" && !strings.Contains(c.Geo.Endpoint, "{ip}") {
		errs = append(errs, "geo.endpoint: must contain the {ip} placeholder")
	}
	if c.Geo.RatePerMinute < 0 {
		errs = append(errs, fmt.Sprintf("geo.rate_per_minute: must not be negative, got %d", c.Geo.RatePerMinute))
	}

	// Visits validation
	if c.Visits.Workers < 0 || c.Visits.Workers > 64 {
		errs = append(errs, fmt.Sprintf("visits.workers: must be between 1 and 64, got %d", c.Visits.Workers))
	}
	if c.Visits.QueueSize < 0 {
		errs = append(errs, fmt.Sprintf("visits.queue_size: must not be negative, got %d", c.Visits.QueueSize))
	}

	// Analytics validation
	if c.Analytics.WindowDays < 0 || c.Analytics.WindowDays > 366 {
		errs = append(errs, fmt.Sprintf("analytics.window_days: must be between 1 and 366, got %d", c.Analytics.WindowDays))
	}

	return errs
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
