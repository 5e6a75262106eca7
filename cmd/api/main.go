package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mcclellann/jama/pkg/ads"
	"github.com/mcclellann/jama/pkg/auth"
	"github.com/mcclellann/jama/pkg/config"
	"github.com/mcclellann/jama/pkg/jobs"
	"github.com/mcclellann/jama/pkg/ledger"
	"github.com/mcclellann/jama/pkg/logging"
	"github.com/mcclellann/jama/pkg/media"
	"github.com/mcclellann/jama/pkg/report"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", os.Getenv("JAMA_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	loc := cfg.Location()

	storage, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("Failed to initialize store: %v", err)
	}
	defer storage.Close()

	authService := auth.NewService(storage, cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, logger)
	if cfg.Auth.AdminEmail != "" {
		if _, err := authService.EnsureSuperAdmin(context.Background(), cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatalf("Failed to bootstrap super admin: %v", err)
		}
	}

	clock := func() time.Time { return time.Now().In(loc) }
	book := ledger.NewLedger(storage, logger).WithClock(clock)

	var counter ads.Counter = ads.DiscardCounter{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable; ad counters will fail until it recovers")
		}
		counter = ads.NewRedisCounter(client)
	}

	mediaStore, archive, localDir, err := openMedia(cfg.Storage, func(bucket, folder string) (media.Store, error) {
		return media.NewGCSStore(context.Background(), bucket, folder, logger)
	})
	if err != nil {
		logger.Fatalf("Failed to initialize media storage: %v", err)
	}
	defer mediaStore.Close()
	defer archive.Close()

	adService := ads.NewService(storage, counter, mediaStore, logger).WithClock(clock)
	server := NewServer(authService, book, adService, logger)
	if cfg.Reports.PDFFont != "" {
		font, err := report.LoadFont(cfg.Reports.PDFFont, cfg.Reports.PDFFontBold)
		if err != nil {
			logger.Fatalf("Failed to load report font: %v", err)
		}
		server.reports.WithFont(font)
	}
	router := server.Routes()
	if localDir != "" {
		prefix := strings.TrimRight(cfg.Storage.MediaURL, "/") + "/"
		router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(localDir))))
	}

	runner := jobs.NewRunner(storage, book, server.reports, archive, loc, logger)
	if err := runner.Schedule(cfg.Jobs.OverdueSweep, cfg.Jobs.DailyArchive); err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	runner.Start()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("Server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	select {
	case <-runner.Stop().Done():
	case <-ctx.Done():
		logger.Warn("Scheduled jobs still running at shutdown")
	}
	logger.Info("Server stopped")
}

// openMedia returns the ad media store and the report archive. With a
// bucket configured both live in Cloud Storage, the archive in its own
// private bucket. On local disk they are separate directories, and the media
// directory is returned so it can be served.
func openMedia(cfg config.StorageConfig, openGCS func(bucket, folder string) (media.Store, error)) (media.Store, media.Store, string, error) {
	if cfg.Bucket != "" {
		if cfg.ArchiveBucket == "" || cfg.ArchiveBucket == cfg.Bucket {
			return nil, nil, "", fmt.Errorf("report archives need a bucket other than %q", cfg.Bucket)
		}
		public, err := openGCS(cfg.Bucket, cfg.Folder)
		if err != nil {
			return nil, nil, "", err
		}
		archive, err := openGCS(cfg.ArchiveBucket, cfg.ArchiveFolder)
		if err != nil {
			public.Close()
			return nil, nil, "", err
		}
		return public, archive, "", nil
	}
	local, err := media.NewLocalStore(cfg.MediaDir, cfg.MediaURL)
	if err != nil {
		return nil, nil, "", err
	}
	archive, err := media.NewLocalStore(cfg.ArchiveDir, "file://"+cfg.ArchiveDir)
	if err != nil {
		return nil, nil, "", err
	}
	return local, archive, local.Dir(), nil
}
