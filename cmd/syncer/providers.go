package main

import (
	"fmt"

	"github.com/dataspaces/syncer/internal/metrics"
	"github.com/dataspaces/syncer/internal/orm"
	"github.com/dataspaces/syncer/pkg/config"
	redis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func ProvideDatabaseConfig(cfg config.Config) config.DatabaseConfig {
	return cfg.Database
}

// ProvideStorage opens the store and closes it on cleanup.
func ProvideStorage(cfg config.DatabaseConfig, logger *zap.Logger) (*orm.Storage, func(), error) {
	storage, err := orm.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage, func() {
		if err := storage.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}, nil
}

// ProvideRedisClient builds a redis client from typed config.
// Returns nil when redis is disabled.
func ProvideRedisClient(cfg config.Config, logger *zap.Logger) (*redis.Client, func()) {
	if !cfg.Redis.Enabled {
		return nil, func() {}
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

// ProvidePrometheusRegistry builds the registry served on /metrics, with the
// runtime collectors and the store's pool statistics.
func ProvidePrometheusRegistry(storage *orm.Storage) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sqlDB, err := storage.DB().DB()
	if err != nil {
		return nil, err
	}
	metrics.RegisterDBStats(reg, sqlDB)
	return reg, nil
}
