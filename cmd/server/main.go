package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"committrack/internal/config"
	"committrack/internal/generator"
	"committrack/internal/handler"
	"committrack/internal/httpserver"
	"committrack/internal/scheduler"
	"committrack/internal/service/enrich"
	"committrack/internal/service/goals"
	"committrack/internal/store"
	"committrack/internal/store/dynamo"
	"committrack/internal/store/memory"
	"committrack/internal/store/postgres"
	"committrack/pkg/circuitbreaker"
	"committrack/pkg/lock"
	"committrack/pkg/logger"
	"committrack/pkg/mq"
	"committrack/pkg/redis"
)

const runLockKey = "enrichment:run-lock"

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting committrack...",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("port", cfg.Server.Port),
	)

	ctx := context.Background()

	// Goal store
	var goalStore store.GoalStore
	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory goal store, data will not survive a restart")
		goalStore = memory.New()
	case config.DriverPostgres:
		pgStore, err := postgres.New(ctx, cfg.Store.Postgres, log)
		if err != nil {
			log.Fatal("Failed to init postgres store", zap.Error(err))
		}
		defer pgStore.Close()
		goalStore = pgStore
	case config.DriverDynamoDB, "":
		dynStore, err := dynamo.New(ctx, cfg.Store.Dynamo, log)
		if err != nil {
			log.Fatal("Failed to init dynamodb store", zap.Error(err))
		}
		goalStore = dynStore
	default:
		log.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}

	// Message generator
	gen, err := generator.NewBedrockGenerator(ctx, cfg.Bedrock, log)
	if err != nil {
		log.Fatal("Failed to init bedrock generator", zap.Error(err))
	}

	// Optional run lock
	var runLease *lock.Lease
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(cfg.Redis)
		defer rdb.Close()
		runLease = lock.NewLease(rdb, runLockKey, time.Duration(cfg.Enrichment.LockTTLSeconds)*time.Second)
		log.Info("Enrichment run lock enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	// Optional event publisher
	var publisher enrich.Publisher
	if cfg.MQ.URL != "" {
		pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
		log.Info("Event publishing enabled", zap.String("exchange", cfg.MQ.Exchange))
	}

	// Services
	goalService := goals.NewService(goalStore, log)
	runner := enrich.NewRunner(goalStore, gen, publisher, runLease, log, enrich.Config{
		Concurrency:   cfg.Enrichment.Concurrency,
		UpdateRetries: cfg.Enrichment.UpdateRetries,
		RetryBackoff:  time.Duration(cfg.Enrichment.RetryBackoffMS) * time.Millisecond,
		Breaker: circuitbreaker.Config{
			FailureThreshold:    cfg.Enrichment.Breaker.FailureThreshold,
			SuccessThreshold:    cfg.Enrichment.Breaker.SuccessThreshold,
			Timeout:             time.Duration(cfg.Enrichment.Breaker.TimeoutSeconds) * time.Second,
			HalfOpenMaxRequests: cfg.Enrichment.Breaker.HalfOpenMaxRequests,
		},
	})

	// Scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(runner, log, cfg.Scheduler)
		if err := sched.Start(); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	} else {
		log.Info("Scheduler disabled, enrichment runs only on demand")
	}

	// HTTP server
	goalHandler := handler.NewGoalHandler(goalService, log)
	enrichmentHandler := handler.NewEnrichmentHandler(runner, log)
	router := httpserver.NewRouter(goalHandler, enrichmentHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("committrack is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down committrack gracefully...")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("committrack shutdown complete")
}
