package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docverify/internal/config"
)

// Open builds the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, lg *zap.SugaredLogger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL, lg)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB, lg)
	case config.DriverMemory:
		lg.Warnw("using in-memory store; records are lost on restart")
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
