//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/dataspaces/syncer/internal/api"
	"github.com/dataspaces/syncer/internal/biz/access"
	"github.com/dataspaces/syncer/internal/connector"
	"github.com/dataspaces/syncer/internal/events"
	"github.com/dataspaces/syncer/internal/guard"
	"github.com/dataspaces/syncer/internal/infra/persistence/connectionrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/datamodelrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/executionrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/memberrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/schedulerepo"
	"github.com/dataspaces/syncer/internal/metrics"
	"github.com/dataspaces/syncer/internal/orm"
	"github.com/dataspaces/syncer/internal/scheduler"
	"github.com/dataspaces/syncer/internal/stats"
	"github.com/dataspaces/syncer/internal/syncer"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func InitializeApp(cfg config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(
		NewApp,

		ProvideDatabaseConfig,
		ProvideStorage,
		ProvideRedisClient,
		ProvidePrometheusRegistry,

		wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
		wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
		wire.Bind(new(api.Pinger), new(*orm.Storage)),

		// http api providers
		api.Provider,

		// sync providers
		scheduler.Provider,
		syncer.Provider,
		guard.Provider,
		stats.Provider,
		access.Provider,
		connector.Provider,
		events.Provider,
		metrics.Provider,

		// infra providers
		orm.Provider,
		schedulerepo.Provider,
		executionrepo.Provider,
		datamodelrepo.Provider,
		connectionrepo.Provider,
		memberrepo.Provider,
	)
	return nil, nil, nil
}
