// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Admin     AdminConfig     `toml:"admin"`
	Upstream  UpstreamConfig  `toml:"upstream"`
	Sources   SourcesConfig   `toml:"sources"`
	Search    SearchConfig    `toml:"search"`
	Playlist  PlaylistConfig  `toml:"playlist"`
	Cache     CacheConfig     `toml:"cache"`
	Geo       GeoConfig       `toml:"geo"`
	Visits    VisitsConfig    `toml:"visits"`
	Analytics AnalyticsConfig `toml:"analytics"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
	Timezone string `toml:"timezone"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

type AdminConfig struct {
	Secret     string   `toml:"secret"`
	IPDenylist []string `toml:"ip_denylist"`
}

type UpstreamConfig struct {
	Timeout            time.Duration `toml:"timeout"`
	MaxRetries         int           `toml:"max_retries"`
	RetryWait          time.Duration `toml:"retry_wait"`
	InsecureSkipVerify bool          `toml:"insecure_skip_verify"`
	UserAgent          string        `toml:"user_agent"`
	SearchAction       string        `toml:"search_action"`
	MaxBodyBytes       int64         `toml:"max_body_bytes"`
}

type SourcesConfig struct {
	Builtin       []SourceConfig `toml:"builtin"`
	Bundles       []BundleConfig `toml:"bundles"`
	BundleTimeout time.Duration  `toml:"bundle_timeout"`
}

type SourceConfig struct {
	Name  string `toml:"name"`
	API   string `toml:"api"`
	Speed string `toml:"speed"`
}

type BundleConfig struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

type SearchConfig struct {
	CacheTTL        time.Duration `toml:"cache_ttl"`
	CacheMaxEntries int           `toml:"cache_max_entries"`
	Denylist        []string      `toml:"denylist"`
	MinRelevance    float64       `toml:"min_relevance"`
}

type PlaylistConfig struct {
	MediaFilter string `toml:"media_filter"` // "keep" or "drop"
}

type CacheConfig struct {
	RedisURL string `toml:"redis_url"`
}

type GeoConfig struct {
	Enabled       *bool         `toml:"enabled"`
	Endpoint      string        `toml:"endpoint"`
	Lang          string        `toml:"lang"`
	Timeout       time.Duration `toml:"timeout"`
	RatePerMinute int           `toml:"rate_per_minute"`
}

// IsEnabled reports whether geolocation lookups are enabled (default true).
func (g GeoConfig) IsEnabled() bool {
	return g.Enabled == nil || *g.Enabled
}

type VisitsConfig struct {
	QueueSize int `toml:"queue_size"`
	Workers   int `toml:"workers"`
}

type AnalyticsConfig struct {
	WindowDays  int `toml:"window_days"`
	RecentLimit int `toml:"recent_limit"`
	TopN        int `toml:"top_n"`
}

// Load reads, parses, and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing}
	for _, msg := range cfg.Validate() {
		if isWarning(msg) {
			continue
		}
		cfgErr.Errors = append(cfgErr.Errors, msg)
	}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping validation. Used by tooling that inspects partial configs.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, missing, nil
}

// applyEnv applies process environment overrides. PORT follows the
// convention of PaaS platforms that assign the listening port.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.Timezone == "" {
		c.Server.Timezone = "Asia/Shanghai"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/vodgate.db"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 15 * time.Second
	}
	if c.Upstream.RetryWait == 0 {
		c.Upstream.RetryWait = 500 * time.Millisecond
	}
	if c.Upstream.SearchAction == "" {
		c.Upstream.SearchAction = "detail"
	}
	if c.Upstream.MaxBodyBytes == 0 {
		c.Upstream.MaxBodyBytes = 8 << 20
	}
	if len(c.Sources.Builtin) == 0 {
		c.Sources.Builtin = DefaultSources()
	}
	if c.Sources.BundleTimeout == 0 || c.Sources.BundleTimeout > 10*time.Second {
		c.Sources.BundleTimeout = 10 * time.Second
	}
	if c.Search.CacheTTL == 0 {
		c.Search.CacheTTL = 30 * time.Minute
	}
	if c.Search.CacheMaxEntries == 0 {
		c.Search.CacheMaxEntries = 500
	}
	if c.Playlist.MediaFilter == "" {
		c.Playlist.MediaFilter = "keep"
	}
	if c.Geo.Endpoint == "" {
		c.Geo.Endpoint = "http://ip-api.com/json/{ip}"
	}
	if c.Geo.Lang == "" {
		c.Geo.Lang = "zh-CN"
	}
	if c.Geo.Timeout == 0 {
		c.Geo.Timeout = 3 * time.Second
	}
	if c.Geo.RatePerMinute == 0 {
		c.Geo.RatePerMinute = 40
	}
	if c.Visits.QueueSize == 0 {
		c.Visits.QueueSize = 1024
	}
	if c.Visits.Workers == 0 {
		c.Visits.Workers = 2
	}
	if c.Analytics.WindowDays == 0 {
		c.Analytics.WindowDays = 7
	}
	if c.Analytics.RecentLimit == 0 {
		c.Analytics.RecentLimit = 200
	}
	if c.Analytics.TopN == 0 {
		c.Analytics.TopN = 10
	}
}

// DefaultSources returns the built-in aggregator sources used when none are configured.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "LZI", API: "https://cj.lziapi.com/api.php/provide/vod/from/lzm3u8/at/json", Speed: "fast"},
		{Name: "BF", API: "https://bfzyapi.com/api.php/provide/vod/at/json", Speed: "normal"},
		{Name: "FF", API: "https://cj.ffzyapi.com/api.php/provide/vod/at/json", Speed: "normal"},
		{Name: "SN", API: "https://suoniapi.com/api.php/provide/vod/at/json", Speed: "normal"},
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// ${VAR_NAME:-default} falls back to default when the variable is unset or empty.
// Unresolved variables are left in place and reported. Comment lines are skipped.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines[i] = envVarPattern.ReplaceAllStringFunc(line, func(match string) string {
			varName := match[2 : len(match)-1] // Strip ${ and }
			varName, def, hasDefault := strings.Cut(varName, ":-")
			if value, ok := os.LookupEnv(varName); ok && (value != "" || !hasDefault) {
				return value
			}
			if hasDefault {
				return def
			}
			if !seen[varName] {
				seen[varName] = true
				missing = append(missing, varName)
			}
			return match // Leave unchanged if not found
		})
	}
	return strings.Join(lines, "\n"), missing
}
