package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/content-signals/internal/api"
	"github.com/ignite/content-signals/internal/classifier"
	"github.com/ignite/content-signals/internal/config"
	"github.com/ignite/content-signals/internal/export"
	"github.com/ignite/content-signals/internal/feeds"
	"github.com/ignite/content-signals/internal/pkg/logger"
	"github.com/ignite/content-signals/internal/repository/postgres"
	"github.com/ignite/content-signals/internal/segment"
	"github.com/ignite/content-signals/internal/taxonomy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("config load failed", "path", *configPath, "error", err.Error())
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Taxonomy: block startup on the one-time load. Degraded is survivable;
	// validation will refuse code checks until a source appears.
	var source taxonomy.Source
	if cfg.Taxonomy.SourceLocation != "" {
		source = taxonomy.NewTSVSource(cfg.Taxonomy.SourceLocation)
	}
	taxonomySvc := taxonomy.NewService(source)
	taxonomySvc.Initialize(ctx)
	if taxonomySvc.State() == taxonomy.StateDegraded {
		logger.Warn("taxonomy degraded; segment validation will reject all codes")
	}

	opts := api.Options{
		Taxonomy:  taxonomySvc,
		Validator: segment.NewValidator(taxonomySvc),
	}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			logger.Error("postgres connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		opts.Segments = postgres.NewSegmentRepo(db)
	} else {
		logger.Warn("no database configured; segment persistence disabled")
	}

	if cfg.Classifier.BaseURL != "" || cfg.Classifier.DryRun {
		client := classifier.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.APIKey, cfg.Classifier.DryRun)

		var cache *classifier.Cache
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("redis unavailable; classification cache disabled", "error", err.Error())
			} else {
				defer rdb.Close()
				cache = classifier.NewCache(rdb, time.Duration(cfg.Redis.CacheTTLHours)*time.Hour)
			}
		}
		opts.Classifier = classifier.NewCachedClassifier(client, cache)
		opts.Cache = cache
	}

	if len(cfg.Feeds.URLs) > 0 {
		opts.Discoverer = feeds.NewDiscoverer(cfg.Feeds.URLs)
	}

	if cfg.Export.S3Enabled {
		archiver, err := export.NewS3Archiver(ctx, cfg.Export.S3Bucket, cfg.Export.S3Region, cfg.Export.S3Prefix)
		if err != nil {
			logger.Error("s3 archiver setup failed", "error", err.Error())
			os.Exit(1)
		}
		opts.Archiver = archiver
	}

	srv := api.NewServer(opts)
	if err := srv.Start(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		logger.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
