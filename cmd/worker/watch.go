package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/config"
	"github.com/floorcraft/floorplan-backend/internal/filedrop"
	auditrepo "github.com/floorcraft/floorplan-backend/internal/legacyaudit/repository"
	auditsvc "github.com/floorcraft/floorplan-backend/internal/legacyaudit/service"
)

func newWatcher(ctx context.Context, rt *runtime) (*filedrop.Watcher, error) {
	conn, err := rt.sqlDB(ctx)
	if err != nil {
		return nil, err
	}
	recorder := auditsvc.NewRecorder(auditrepo.NewAuditRepository(conn), rt.log.Named("audit"))

	fd := rt.cfg.FileDrop
	store, closeStore, err := filedrop.OpenStore(ctx, fd)
	if err != nil {
		return nil, fmt.Errorf("filedrop store: %w", err)
	}
	rt.onClose(func() { _ = closeStore() })

	claims := filedrop.NewRedisClaimer(rt.rdb, fd.Importer, fd.ClaimTTL)
	return filedrop.NewWatcher(store, claims, rt.pipe.Relay, recorder, filedrop.Options{
		IncomingPrefix:  fd.IncomingPrefix,
		ProcessedPrefix: fd.ProcessedPrefix,
		FailedPrefix:    fd.FailedPrefix,
		Importer:        fd.Importer,
	}, rt.log.Named("filedrop")), nil
}

func runWatch(ctx context.Context, rt *runtime) error {
	w, err := newWatcher(ctx, rt)
	if err != nil {
		return err
	}
	sched, err := filedrop.NewScheduler(rt.cfg.FileDrop.Schedule, w, rt.log.Named("filedrop"))
	if err != nil {
		return err
	}

	// with the memory driver nothing else can see the events, so consume here
	if rt.cfg.Queue.Driver == config.QueueMemory {
		go func() {
			if err := runConsume(ctx, rt); err != nil {
				rt.log.Error("in-process consumer stopped", zap.Error(err))
			}
		}()
	}

	sched.Run(ctx)
	return nil
}

func runImport(ctx context.Context, rt *runtime) error {
	w, err := newWatcher(ctx, rt)
	if err != nil {
		return err
	}
	res, err := w.Scan(ctx)
	if err != nil {
		return err
	}
	rt.log.Info("filedrop import finished",
		zap.Int("imported", res.Imported),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
	)
	return nil
}
