package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dataspaces/syncer/internal/api/middleware"
	"github.com/dataspaces/syncer/internal/metrics"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func NewServer(
	cfg config.Config,
	scheduleAPI *SyncScheduleAPI,
	commonAPI *CommonAPI,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	s := &Server{logger: logger.Named("http")}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.Metrics(m))
	s.router.Use(middleware.ErrorHandlingMiddleware(s.logger))
	s.router.Use(middleware.Cors())

	NewSyncScheduleAPIWrap(scheduleAPI).BindAll(s.router)
	NewCommonAPIWrap(commonAPI).BindAll(s.router)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s.http = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
