package main

import (
	"context"

	"github.com/floorcraft/floorplan-backend/internal/pipeline"
)

func runConsume(ctx context.Context, rt *runtime) error {
	pool, err := rt.pool(ctx)
	if err != nil {
		return err
	}
	proc := rt.pipe.Processor(pipeline.NewPgxWriter(pool))
	return proc.Run(ctx, rt.cfg.Queue.Group)
}
