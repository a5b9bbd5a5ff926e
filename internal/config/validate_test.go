// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{Admin: AdminConfig{Secret: "s3cret"}}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_DefaultsValid(t *testing.T) {
	errs := validConfig().Validate()
	assert.Empty(t, errs, "expected no errors for defaulted config")
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 99999
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "server.port"), "expected port error, got %v", errs)
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Server.LogLevel = "verbose"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "log_level"), "expected log_level error, got %v", errs)
}

func TestValidate_UnknownTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Timezone = "Mars/Olympus"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "server.timezone"), "expected timezone error, got %v", errs)
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "database.dsn"), "expected dsn error, got %v", errs)

	cfg.Database.Driver = "mysql"
	errs = cfg.Validate()
	assert.True(t, containsError(errs, "database.driver"), "expected driver error, got %v", errs)
}

func TestValidate_EmptySecretIsWarning(t *testing.T) {
	cfg := validConfig()
	cfg.Admin.Secret = ""
	errs := cfg.Validate()
	assert.True(t, containsErrorBoth(errs, "admin.secret", warningPrefix), "expected secret warning, got %v", errs)
	for _, e := range errs {
		assert.True(t, isWarning(e), "unexpected hard error %q", e)
	}
}

func TestValidate_DenylistAddresses(t *testing.T) {
	cfg := validConfig()
	cfg.Admin.IPDenylist = []string{"10.0.0.1", "::1", "not-an-ip"}
	errs := cfg.Validate()
	assert.True(t, containsErrorBoth(errs, "admin.ip_denylist", "not-an-ip"), "expected denylist error, got %v", errs)
	assert.Len(t, errs, 1)
}

func TestValidate_BuiltinSource(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.Builtin = []SourceConfig{
		{Name: "ok", API: "https://ok.example.com/api.php/provide/vod/"},
		{Name: "bad", API: "ftp://bad.example.com/", Speed: "warp"},
	}
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "sources.builtin[1].api"), "expected api error, got %v", errs)
	assert.True(t, containsError(errs, "sources.builtin[1].speed"), "expected speed error, got %v", errs)
	assert.False(t, containsError(errs, "sources.builtin[0]"), "unexpected error for valid source: %v", errs)
}

func TestValidate_BundleURL(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.Bundles = []BundleConfig{{Name: "x", URL: "example.com/tvbox.json"}}
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "sources.bundles[0].url"), "expected bundle url error, got %v", errs)
}

func TestValidate_SearchAction(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.SearchAction = "everything"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "upstream.search_action"), "expected search_action error, got %v", errs)
}

func TestValidate_MinRelevance(t *testing.T) {
	cfg := validConfig()
	cfg.Search.MinRelevance = 1.5
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "search.min_relevance"), "expected min_relevance error, got %v", errs)
}

func TestValidate_MediaFilter(t *testing.T) {
	cfg := validConfig()
	cfg.Playlist.MediaFilter = "transcode"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "playlist.media_filter"), "expected media_filter error, got %v", errs)
}

func TestValidate_GeoEndpointPlaceholder(t *testing.T) {
	cfg := validConfig()
	cfg.Geo.Endpoint = "http://ip-api.com/json/"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "geo.endpoint"), "expected endpoint error, got %v", errs)
}

func TestValidate_Workers(t *testing.T) {
	cfg := validConfig()
	cfg.Visits.Workers = 100
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "visits.workers"), "expected workers error, got %v", errs)
}

// Helper functions to check for errors containing specific strings
func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func containsErrorBoth(errs []string, substr1, substr2 string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr1) && strings.Contains(e, substr2) {
			return true
		}
	}
	return false
}
