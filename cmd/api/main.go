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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/config"
	"github.com/floorcraft/floorplan-backend/internal/auth"
	authmw "github.com/floorcraft/floorplan-backend/internal/auth/middleware"
	"github.com/floorcraft/floorplan-backend/internal/bootstrap"
	"github.com/floorcraft/floorplan-backend/internal/db"
	"github.com/floorcraft/floorplan-backend/internal/logging"
	"github.com/floorcraft/floorplan-backend/internal/pipeline"
	"github.com/floorcraft/floorplan-backend/internal/storage/postgres"
)

const serviceName = "floorplan-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment, cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer sqlDB.Close()

	pool, err := db.OpenPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database pool", zap.Error(err))
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.Queue.Driver == config.QueueRedis {
		rdb, err = bootstrap.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	broker, err := bootstrap.OpenBroker(cfg.Queue, rdb, logger.Named("queue"))
	if err != nil {
		logger.Fatal("queue", zap.Error(err))
	}
	defer broker.Close()

	pipe := bootstrap.NewPipeline(cfg.Queue, broker, logger)

	// the memory broker only exists inside this process
	if cfg.Queue.Driver == config.QueueMemory {
		logger.Warn("memory queue driver: consuming events in-process")
		go func() {
			if err := pipe.Processor(pipeline.NewPgxWriter(pool)).Run(ctx, cfg.Queue.Group); err != nil {
				logger.Error("in-process consumer stopped", zap.Error(err))
			}
		}()
	}

	var verifier authmw.TokenVerifier
	if cfg.Firebase.CredentialsPath != "" {
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			logger.Fatal("firebase", zap.Error(err))
		}
		verifier = client
	} else {
		logger.Warn("FIREBASE_CREDENTIALS_PATH not set: trusting X-User-Id header")
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Server:      cfg.Server,
		SQL:         sqlDB,
		Pool:        pool,
		Redis:       rdb,
		Relay:       pipe.Relay,
		Verifier:    verifier,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("queue_driver", cfg.Queue.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
