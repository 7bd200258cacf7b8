package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/TheDarkness2001/SMS-sub002/internal/config"
)

// OpenSession opens the session-scoped store selected by cfg.SessionDriver.
// When Redis is unreachable it falls back to the file store and logs a warning.
func OpenSession(cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.SessionDriver {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.SessionPath)
	case "redis":
		store, err := NewRedisStore(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err == nil {
			logger.Info("Using Redis session store", zap.String("addr", cfg.Redis.Addr))
			return store, nil
		}
		logger.Warn("Redis unavailable, falling back to file session store",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("path", cfg.SessionPath),
			zap.Error(err),
		)
		return NewFileStore(cfg.SessionPath)
	default:
		return nil, fmt.Errorf("storage: unknown session driver %q", cfg.SessionDriver)
	}
}

// OpenDurable opens the durable store selected by cfg.DurableDriver
func OpenDurable(cfg config.StorageConfig) (Store, error) {
	switch cfg.DurableDriver {
	case "file":
		return NewFileStore(cfg.DurablePath)
	case "sqlite":
		return NewSQLiteStore(cfg.DurablePath)
	default:
		return nil, fmt.Errorf("storage: unknown durable driver %q", cfg.DurableDriver)
	}
}
