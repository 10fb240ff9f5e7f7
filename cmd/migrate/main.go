package main

import (
	"context"
	"flag"
	"log"

	"github.com/dataspaces/syncer/internal/orm"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/dataspaces/syncer/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		status     bool
	)
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.BoolVar(&status, "status", false, "print migration status instead of migrating")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Database.Driver != "postgres" {
		zapLogger.Fatal("sql migrations target postgres; use database.auto_migrate for other drivers",
			zap.String("driver", cfg.Database.Driver))
	}

	ctx := context.Background()
	dsn := orm.PostgresDSN(cfg.Database)
	if status {
		if err := orm.MigrationStatus(ctx, dsn); err != nil {
			zapLogger.Fatal("failed to read migration status", zap.Error(err))
		}
		return
	}

	if err := orm.RunMigrations(ctx, dsn); err != nil {
		zapLogger.Fatal("migration failed", zap.Error(err))
	}
	zapLogger.Info("migration completed")
}
