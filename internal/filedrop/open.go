package filedrop

import (
	"context"
	"fmt"

	"github.com/floorcraft/floorplan-backend/config"
)

// OpenStore builds the store selected by FILEDROP_DRIVER. The returned close
// function releases the client, if any.
func OpenStore(ctx context.Context, cfg config.FileDropConfig) (ObjectStore, func() error, error) {
	nop := func() error { return nil }

	switch cfg.Driver {
	case config.FileDropLocal:
		s, err := NewLocalStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, nop, nil
	case config.FileDropS3:
		client, err := NewS3Client(ctx, cfg.Region, cfg.Endpoint)
		if err != nil {
			return nil, nil, err
		}
		return NewS3Store(client, cfg.Bucket), nop, nil
	case config.FileDropGCS:
		client, err := NewGCSClient(ctx, cfg.Endpoint)
		if err != nil {
			return nil, nil, err
		}
		return NewGCSStore(client, cfg.Bucket), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown filedrop driver %q", cfg.Driver)
}
