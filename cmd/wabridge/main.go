package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ricardobn/wabridge/internal/api"
	"github.com/ricardobn/wabridge/internal/cache"
	"github.com/ricardobn/wabridge/internal/client"
	"github.com/ricardobn/wabridge/internal/config"
	"github.com/ricardobn/wabridge/internal/repo"
	"github.com/ricardobn/wabridge/internal/service"
	"github.com/ricardobn/wabridge/internal/sweeper"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Durable persistence is a correctness requirement: refuse to serve
	// webhooks we could not store.
	pool, err := repo.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	store := repo.NewPostgresMessageStore(pool)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("database: %v", err)
	}

	var dedup cache.Deduper
	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		dedup = cache.NewRedisDeduper(rdb, cfg.Redis.DedupTTL)
	}

	graph := client.NewGraphClient(cfg.Graph.BaseURL, cfg.Graph.APIVersion, cfg.Graph.PhoneNumberID, cfg.Graph.Token)

	ingestion := service.NewIngestion(store, dedup, logger)
	sending := service.NewSending(graph, store, cfg.Graph.PhoneNumberID, logger)

	handler := api.NewHandler(ingestion, sending, store, cfg.Webhook.VerifyToken, logger)

	var sw *sweeper.Sweeper
	if cfg.Retention.MaxAge > 0 {
		sw, err = sweeper.New(store, cfg.Retention.MaxAge, cfg.Retention.SweepInterval, logger)
		if err != nil {
			log.Fatalf("sweeper: %v", err)
		}
		sw.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      loggingMiddleware(api.Router(handler)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("wabridge listening", "addr", cfg.Server.Address, "redis", cfg.Redis.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("server: %v", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	if sw != nil {
		sw.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
}
