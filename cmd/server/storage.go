package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/database"
	"github.com/learningcenter/marketing-site/internal/storage"
)

// newStorageBackend builds the configured consent storage and returns a
// function releasing its connections
func newStorageBackend(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (storage.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Consent.Storage {
	case config.StorageRedis:
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		client, err := storage.NewRedisClient(connectCtx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		repo := storage.NewRedisRepository(client, cfg.Redis.KeyTTL)
		return storage.NewServerBackend(config.StorageRedis, repo), client.Close, nil

	case config.StorageMySQL:
		db, err := database.Initialize(&cfg.Database, logger)
		if err != nil {
			return nil, noop, err
		}

		repo := storage.NewMySQLRepository(db, cfg.Consent.AuditEnabled, logger)
		return storage.NewServerBackend(config.StorageMySQL, repo), db.Close, nil

	default:
		return storage.NewCookieBackend(cfg.Consent), noop, nil
	}
}
