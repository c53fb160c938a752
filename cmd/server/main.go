package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/outreach-analytics/internal/api"
	"github.com/ignite/outreach-analytics/internal/cache"
	"github.com/ignite/outreach-analytics/internal/config"
	"github.com/ignite/outreach-analytics/internal/contacts"
	"github.com/ignite/outreach-analytics/internal/export"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
	"github.com/ignite/outreach-analytics/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactEnabled())

	ctx := context.Background()

	var batches *store.BatchStore
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		db, err := store.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer db.Close()

		batches = store.NewBatchStore(db)
		if err := batches.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate batch store: %v", err)
		}
		logger.Info("batch persistence enabled")
	} else {
		logger.Warn("batch persistence disabled; runs are not stored")
	}

	var results *cache.ResultCache
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()

		results = cache.New(client, cfg.Redis.TTL())
		logger.Info("result cache enabled", "ttl_hours", cfg.Redis.TTLHours)
	}

	var directory api.DirectorySource
	if cfg.Snowflake.Enabled {
		source, err := contacts.NewSnowflakeSource(cfg.Snowflake)
		if err != nil {
			log.Fatalf("Failed to open snowflake: %v", err)
		}
		defer source.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := source.Ping(pingCtx); err != nil {
			cancel()
			log.Fatalf("Failed to ping snowflake: %v", err)
		}
		cancel()

		directory = source
		logger.Info("contact directory source enabled", "table", cfg.Snowflake.Table)
	}

	var s3Exporter *export.S3Exporter
	if cfg.Export.S3Bucket != "" {
		s3Exporter, err = export.NewS3Exporter(ctx, cfg.Export.S3Bucket, cfg.Export.S3Region, cfg.Export.S3Prefix)
		if err != nil {
			log.Fatalf("Failed to configure s3 export: %v", err)
		}
		logger.Info("s3 export enabled", "bucket", cfg.Export.S3Bucket)
	}

	handlers := api.NewHandlers(batches, results, directory, s3Exporter, cfg.Export)
	server := api.NewServer(cfg.Server, handlers)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr())
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
