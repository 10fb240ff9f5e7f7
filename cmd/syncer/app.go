package main

import (
	"context"
	"time"

	"github.com/dataspaces/syncer/internal/api"
	"github.com/dataspaces/syncer/internal/connector"
	"github.com/dataspaces/syncer/internal/events"
	"github.com/dataspaces/syncer/internal/scheduler"
	"github.com/dataspaces/syncer/pkg/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	cfg        config.Config
	server     *api.Server
	trigger    *scheduler.CronTrigger
	connectors *connector.Registry
	bus        *events.Bus
	logger     *zap.Logger
}

func NewApp(
	cfg config.Config,
	server *api.Server,
	trigger *scheduler.CronTrigger,
	connectors *connector.Registry,
	bus *events.Bus,
	logger *zap.Logger,
) *App {
	return &App{
		cfg:        cfg,
		server:     server,
		trigger:    trigger,
		connectors: connectors,
		bus:        bus,
		logger:     logger,
	}
}

// Run serves the API, and the in-process tick when enabled, until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Scheduler.TickEnabled {
		if err := a.trigger.Start(); err != nil {
			return err
		}
		defer a.trigger.Stop()
	}
	defer func() {
		if err := a.connectors.Close(); err != nil {
			a.logger.Warn("failed to close connectors", zap.Error(err))
		}
	}()

	if a.cfg.Redis.Enabled {
		go a.logEvents(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to shutdown api server", zap.Error(err))
	}
	return <-errCh
}

// logEvents traces execution events from every instance on the channel.
func (a *App) logEvents(ctx context.Context) {
	for ev := range a.bus.Subscribe(ctx) {
		a.logger.Debug("execution event received",
			zap.String("type", string(ev.Type)),
			zap.String("execution_id", ev.ExecutionID),
			zap.String("status", string(ev.Status)),
			zap.String("source", ev.Source))
	}
}
