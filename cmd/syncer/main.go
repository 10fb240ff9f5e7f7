package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/dataspaces/syncer/pkg/config"
	"github.com/dataspaces/syncer/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
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

	zapLogger.Info("starting syncer",
		zap.String("instance_id", cfg.Scheduler.InstanceID),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("tick_enabled", cfg.Scheduler.TickEnabled))

	app, cleanup, err := InitializeApp(*cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize", zap.Error(err))
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		zapLogger.Error("syncer stopped with error", zap.Error(err))
		return
	}
	zapLogger.Info("shutdown complete")
}
