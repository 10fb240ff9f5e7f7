package api

import (
	"github.com/gin-gonic/gin"
)

type SyncScheduleAPIWrap struct {
	inner ISyncScheduleAPI
}

func NewSyncScheduleAPIWrap(inner ISyncScheduleAPI) *SyncScheduleAPIWrap {
	return &SyncScheduleAPIWrap{inner: inner}
}

func (a *SyncScheduleAPIWrap) BindAll(router gin.IRouter) {
	group := router.Group("/api/v1/sync-schedules")

	group.POST("/:id/execute", func(c *gin.Context) {
		resp, err := a.inner.Execute(c, c.Param("id"))
		onGinResponse(c, resp, err)
	})
	group.GET("/:id/executions", func(c *gin.Context) {
		var req ListExecutionsReq
		if !onGinBind(c, &req, "QUERY") {
			return
		}
		resp, err := a.inner.ListExecutions(c, c.Param("id"), req)
		onGinResponse(c, resp, err)
	})
	group.GET("/:id/executions/:execution_id", func(c *gin.Context) {
		resp, err := a.inner.GetExecution(c, c.Param("id"), c.Param("execution_id"))
		onGinResponse(c, resp, err)
	})
	group.POST("/:id/reset", func(c *gin.Context) {
		var req ResetReq
		if !onGinBind(c, &req, "QUERY") {
			return
		}
		resp, err := a.inner.Reset(c, c.Param("id"), req)
		onGinResponse(c, resp, err)
	})
	group.POST("/scheduler", func(c *gin.Context) {
		resp, err := a.inner.Tick(c)
		onGinResponse(c, resp, err)
	})
	group.GET("/scheduler", func(c *gin.Context) {
		resp, err := a.inner.SchedulerStatus(c)
		onGinResponse(c, resp, err)
	})
	group.GET("/stats", func(c *gin.Context) {
		var req StatsReq
		if !onGinBind(c, &req, "QUERY") {
			return
		}
		resp, err := a.inner.Stats(c, req)
		onGinResponse(c, resp, err)
	})
}

type CommonAPIWrap struct {
	inner ICommonAPI
}

func NewCommonAPIWrap(inner ICommonAPI) *CommonAPIWrap {
	return &CommonAPIWrap{inner: inner}
}

func (a *CommonAPIWrap) BindAll(router gin.IRouter) {
	router.GET("/health", func(c *gin.Context) {
		resp, err := a.inner.HealthCheck(c)
		onGinResponse(c, resp, err)
	})
}
