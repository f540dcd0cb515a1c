package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"comedyuo/showsync/internal/api"
	"comedyuo/showsync/internal/common"
	"comedyuo/showsync/internal/config"
	"comedyuo/showsync/internal/db"
	"comedyuo/showsync/internal/jobs"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/metrics"
	"comedyuo/showsync/internal/providers"
	"comedyuo/showsync/internal/routes"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("showsync starting up",
		"environment", cfg.AppEnv,
		"db_driver", cfg.Database.Driver,
		"sync_policy", cfg.Sync.Policy,
		"deletion_policy", cfg.Sync.DeletionPolicy,
	)

	gormDB, err := db.InitORM(cfg.Database)
	if err != nil {
		logging.Fatal("Failed to connect via GORM", "error", err)
	}

	if cfg.Database.Driver == "sqlite" {
		err = db.UseORMConnection(gormDB, "sqlite3")
	} else {
		err = db.InitPostgres(cfg.Database)
	}
	if err != nil {
		logging.Fatal("Failed to open health check connection", "error", err)
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	remote := providers.NewAirtableProvider(providers.AirtableOptions{
		BaseURL:   cfg.Airtable.BaseURL,
		APIKey:    cfg.Airtable.APIKey,
		BaseID:    cfg.Airtable.BaseID,
		TableName: cfg.Airtable.TableName,
		Timeout:   cfg.Airtable.Timeout,
		RPS:       cfg.Airtable.RPS,
		Metrics:   metricsReg,
	})
	if cfg.Airtable.APIKey == "" || cfg.Airtable.BaseID == "" {
		logging.Warn("Airtable credentials missing, serving the local mirror only")
	}

	cache := newCache(cfg)
	defer cache.Close()

	email := providers.NewSendGridProvider(providers.SendGridOptions{
		APIKey:            cfg.Email.SendGridAPIKey,
		BaseURL:           cfg.Email.SendGridBaseURL,
		FromEmail:         cfg.Email.FromEmail,
		TicketFallbackURL: cfg.Email.TicketFallbackURL,
	})

	deps, err := api.InitDependencies(cfg, gormDB, metricsReg, remote, cache, email)
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs.InitializeJobs(ctx, deps.Services.Sync, deps.Repo.SyncHistory)

	upSince := time.Now()
	router := routes.RegisterRoutes(cfg, deps, db.DB, prometheus.DefaultGatherer, upSince)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Port, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}

// newCache picks Redis for idempotency keys when configured and falls back
// to the in-process cache otherwise.
func newCache(cfg *config.Config) common.CacheInterface {
	if cfg.Redis.Enabled() {
		redisCache, err := common.NewRedisCacheService(cfg.Redis)
		if err == nil {
			return redisCache
		}
		logging.Warn("Redis unavailable, using in-memory cache", "error", err)
	}
	return common.NewCacheService(cfg.IdempotencyTTL, 10*time.Minute)
}
