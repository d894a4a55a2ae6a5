package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/config"
	"github.com/floorcraft/floorplan-backend/internal/bootstrap"
	"github.com/floorcraft/floorplan-backend/internal/db"
	"github.com/floorcraft/floorplan-backend/internal/logging"
	"github.com/floorcraft/floorplan-backend/internal/queue"
	"github.com/floorcraft/floorplan-backend/internal/storage/postgres"
)

// runtime holds the shared clients of one worker command.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	rdb    *redis.Client
	broker queue.Broker
	pipe   *bootstrap.Pipeline

	closers []func()
}

func withRuntime(ctx context.Context, needRedis bool, fn func(context.Context, *runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	rt := &runtime{cfg: cfg, log: logger}
	defer rt.close()

	if needRedis || cfg.Queue.Driver == config.QueueRedis {
		rt.rdb, err = bootstrap.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		rt.onClose(func() { _ = rt.rdb.Close() })
	}

	rt.broker, err = bootstrap.OpenBroker(cfg.Queue, rt.rdb, logger.Named("queue"))
	if err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	rt.onClose(func() { _ = rt.broker.Close() })
	if cfg.Queue.Driver == config.QueueMemory {
		logger.Warn("memory queue driver: events stay inside this process")
	}

	rt.pipe = bootstrap.NewPipeline(cfg.Queue, rt.broker, logger)
	return fn(ctx, rt)
}

var errProcessLocalQueue = errors.New("QUEUE_DRIVER=memory keeps events inside one process; run this command with redis, kafka or amqp, or use \"worker watch\"")

// sharedQueue refuses commands whose events would be lost with a
// process-local broker: nothing else can consume what they publish, and
// nothing else publishes what they consume.
func sharedQueue(fn func(context.Context, *runtime) error) func(context.Context, *runtime) error {
	return func(ctx context.Context, rt *runtime) error {
		if rt.cfg.Queue.Driver == config.QueueMemory {
			return errProcessLocalQueue
		}
		return fn(ctx, rt)
	}
}

func (rt *runtime) onClose(f func()) {
	rt.closers = append(rt.closers, f)
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func (rt *runtime) pool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.OpenPool(ctx, rt.cfg.Database)
	if err != nil {
		return nil, err
	}
	rt.onClose(pool.Close)
	return pool, nil
}

func (rt *runtime) sqlDB(ctx context.Context) (*sql.DB, error) {
	conn, err := postgres.NewConnection(ctx, &rt.cfg.Database)
	if err != nil {
		return nil, err
	}
	rt.onClose(func() { _ = conn.Close() })
	return conn, nil
}
