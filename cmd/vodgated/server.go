package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"

	"github.com/vmunix/vodgate/internal/analytics"
	"github.com/vmunix/vodgate/internal/config"
	"github.com/vmunix/vodgate/internal/detail"
	"github.com/vmunix/vodgate/internal/playlist"
	"github.com/vmunix/vodgate/internal/search"
	"github.com/vmunix/vodgate/internal/server"
	"github.com/vmunix/vodgate/internal/source"
	"github.com/vmunix/vodgate/internal/upstream"
	"github.com/vmunix/vodgate/internal/visits"
	"github.com/vmunix/vodgate/internal/web"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	for _, msg := range cfg.Validate() {
		logger.Warn("config", "message", msg)
	}

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", cfg.Server.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Database ===
	db, dialect, err := visits.Open(ctx, cfg.Database.Driver, cfg.Database.Path, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	visitStore := visits.NewStore(db, dialect)
	if err := visitStore.Migrate(ctx); err != nil {
		return err
	}

	// === Upstream ===
	client := upstream.NewClient(logger,
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithInsecureSkipVerify(cfg.Upstream.InsecureSkipVerify),
		upstream.WithRetry(upstream.RetryConfig{
			MaxRetries:  cfg.Upstream.MaxRetries,
			InitialWait: cfg.Upstream.RetryWait,
			MaxWait:     5 * time.Second,
			Multiplier:  2,
		}),
		upstream.WithUserAgent(cfg.Upstream.UserAgent),
		upstream.WithSearchAction(cfg.Upstream.SearchAction),
		upstream.WithMaxBodyBytes(cfg.Upstream.MaxBodyBytes),
	)

	// === Sources ===
	builtin := lo.Map(cfg.Sources.Builtin, func(s config.SourceConfig, _ int) source.Source {
		return source.Source{Name: s.Name, API: s.API, Speed: source.Speed(s.Speed)}
	})
	bundles := lo.Map(cfg.Sources.Bundles, func(b config.BundleConfig, _ int) source.Bundle {
		return source.Bundle{Name: b.Name, URL: b.URL}
	})
	registry := source.Load(ctx, client, builtin, bundles, cfg.Sources.BundleTimeout, logger)

	// === Search ===
	var l2 search.SecondTier
	if cfg.Cache.RedisURL != "" {
		tier, err := search.NewRedisTier(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis cache unavailable, using memory only", "error", err)
		} else {
			defer func() { _ = tier.Close() }()
			l2 = tier
		}
	}
	cache := search.NewCache(cfg.Search.CacheTTL, cfg.Search.CacheMaxEntries, l2, logger)
	searcher := search.NewSearcher(client, registry, cache, search.Options{
		Denylist:     cfg.Search.Denylist,
		MinRelevance: cfg.Search.MinRelevance,
	}, logger)

	details := detail.NewService(client, playlist.MediaFilter(cfg.Playlist.MediaFilter), logger)

	// === Visits ===
	geoClient := upstream.NewClient(logger,
		upstream.WithTimeout(cfg.Geo.Timeout),
		upstream.WithRetry(upstream.RetryConfig{}),
	)
	geo := visits.NewGeolocator(geoClient, visits.GeoOptions{
		Enabled:       cfg.Geo.IsEnabled(),
		Endpoint:      cfg.Geo.Endpoint,
		Lang:          cfg.Geo.Lang,
		Timeout:       cfg.Geo.Timeout,
		RatePerMinute: cfg.Geo.RatePerMinute,
	}, logger)
	recorder := visits.NewRecorder(visitStore, geo, visits.RecorderOptions{
		QueueSize: cfg.Visits.QueueSize,
		Workers:   cfg.Visits.Workers,
		Location:  loc,
		Denylist:  cfg.Admin.IPDenylist,
	}, logger)

	reporter := analytics.NewReporter(visitStore, analytics.Options{
		WindowDays:  cfg.Analytics.WindowDays,
		RecentLimit: cfg.Analytics.RecentLimit,
		TopN:        cfg.Analytics.TopN,
		Location:    loc,
	}, logger)

	// === HTTP ===
	webServer, err := web.New(web.Deps{
		Searcher: searcher,
		Detail:   details,
		Sources:  registry,
		Reporter: reporter,
		Visits:   recorder,
	}, web.Config{
		AdminSecret: cfg.Admin.Secret,
		WindowDays:  cfg.Analytics.WindowDays,
		Version:     "vodgated " + version,
	}, logger)
	if err != nil {
		return fmt.Errorf("web: %w", err)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	logger.Info("server starting",
		"addr", addr,
		"database", dialect,
		"sources", registry.Len(),
		"redis", l2 != nil,
		"geo", cfg.Geo.IsEnabled(),
		"admin", cfg.Admin.Secret != "",
		"timezone", loc.String(),
		"log_level", cfg.Server.LogLevel,
	)

	runner := server.NewRunner(webServer.Handler(), server.Config{
		Addr:            addr,
		ShutdownTimeout: 30 * time.Second,
	}, logger, recorder)
	return runner.Run(ctx)
}
