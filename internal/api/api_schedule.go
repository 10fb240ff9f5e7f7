package api

import (
	"fmt"
	"time"

	"github.com/dataspaces/syncer/internal/api/middleware"
	"github.com/dataspaces/syncer/internal/biz/access"
	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/guard"
	"github.com/dataspaces/syncer/internal/scheduler"
	"github.com/dataspaces/syncer/internal/stats"
	"github.com/dataspaces/syncer/internal/syncer"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

type ISyncScheduleAPI interface {
	// Execute runs one schedule now.
	// @POST(api/v1/sync-schedules/{id}/execute)
	Execute(ctx *gin.Context, id string) (ExecuteResp, error)

	// ListExecutions returns the schedule's executions, newest first.
	// @GET(api/v1/sync-schedules/{id}/executions)
	ListExecutions(ctx *gin.Context, id string, req ListExecutionsReq) (ListExecutionsResp, error)

	// GetExecution
	// @GET(api/v1/sync-schedules/{id}/executions/{execution_id})
	GetExecution(ctx *gin.Context, id string, executionID string) (ExecutionResp, error)

	// Reset fails a stuck run. With force the age threshold is ignored.
	// @POST(api/v1/sync-schedules/{id}/reset)
	Reset(ctx *gin.Context, id string, req ResetReq) (ResetResp, error)

	// Tick runs every due schedule.
	// @POST(api/v1/sync-schedules/scheduler)
	Tick(ctx *gin.Context) (*scheduler.TickResult, error)

	// SchedulerStatus reports how many schedules are due.
	// @GET(api/v1/sync-schedules/scheduler)
	SchedulerStatus(ctx *gin.Context) (SchedulerStatusResp, error)

	// Stats
	// @GET(api/v1/sync-schedules/stats)
	Stats(ctx *gin.Context, req StatsReq) (*stats.Stats, error)
}

var _ ISyncScheduleAPI = (*SyncScheduleAPI)(nil)

type SyncScheduleAPI struct {
	schedules  schedule.Repo
	executions execution.Repo
	executor   *syncer.Executor
	scheduler  *scheduler.Scheduler
	guard      *guard.Guard
	stats      *stats.Aggregator
	access     *access.Checker
	staleAfter time.Duration
	logger     *zap.Logger
}

func NewSyncScheduleAPI(
	cfg config.Config,
	schedules schedule.Repo,
	executions execution.Repo,
	executor *syncer.Executor,
	s *scheduler.Scheduler,
	g *guard.Guard,
	agg *stats.Aggregator,
	checker *access.Checker,
	logger *zap.Logger,
) *SyncScheduleAPI {
	return &SyncScheduleAPI{
		schedules:  schedules,
		executions: executions,
		executor:   executor,
		scheduler:  s,
		guard:      g,
		stats:      agg,
		access:     checker,
		staleAfter: cfg.Scheduler.StaleAfter,
		logger:     logger.Named("api"),
	}
}

func (a *SyncScheduleAPI) Execute(ctx *gin.Context, id string) (ExecuteResp, error) {
	res, err := a.executor.Execute(ctx.Request.Context(), id, execution.TriggerManual)
	if err != nil {
		return ExecuteResp{}, err
	}
	return toExecuteResp(res), nil
}

func (a *SyncScheduleAPI) ListExecutions(ctx *gin.Context, id string, req ListExecutionsReq) (ListExecutionsResp, error) {
	req = req.normalize()
	if _, err := a.schedules.GetByID(ctx.Request.Context(), id); err != nil {
		return ListExecutionsResp{}, err
	}

	query := execution.Query{ScheduleID: mo.Some(id)}
	total, err := a.executions.Count(ctx.Request.Context(), query)
	if err != nil {
		return ListExecutionsResp{}, err
	}
	list, err := a.executions.List(ctx.Request.Context(), query, req.Offset, req.Limit)
	if err != nil {
		return ListExecutionsResp{}, err
	}

	return ListExecutionsResp{
		Data: lo.Map(list, func(e *execution.SyncExecution, _ int) ExecutionResp {
			return toExecutionResp(e)
		}),
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

func (a *SyncScheduleAPI) GetExecution(ctx *gin.Context, id string, executionID string) (ExecutionResp, error) {
	exec, err := a.executions.GetByID(ctx.Request.Context(), executionID)
	if err != nil {
		return ExecutionResp{}, err
	}
	if exec.ScheduleID != id {
		return ExecutionResp{}, fmt.Errorf("%w: %s", execution.ErrExecutionNotFound, executionID)
	}
	return toExecutionResp(exec), nil
}

func (a *SyncScheduleAPI) Reset(ctx *gin.Context, id string, req ResetReq) (ResetResp, error) {
	olderThan := a.staleAfter
	if req.Force {
		olderThan = 0
	}
	reset, err := a.guard.ResetOne(ctx.Request.Context(), id, olderThan)
	if err != nil {
		return ResetResp{}, err
	}
	if reset {
		a.logger.Info("schedule reset",
			zap.String("schedule_id", id),
			zap.Bool("force", req.Force))
	}
	return ResetResp{ScheduleID: id, Reset: reset}, nil
}

func (a *SyncScheduleAPI) Tick(ctx *gin.Context) (*scheduler.TickResult, error) {
	return a.scheduler.Tick(ctx.Request.Context())
}

func (a *SyncScheduleAPI) SchedulerStatus(ctx *gin.Context) (SchedulerStatusResp, error) {
	due, err := a.scheduler.CountDue(ctx.Request.Context())
	if err != nil {
		return SchedulerStatusResp{}, err
	}
	return SchedulerStatusResp{DueCount: due, Time: time.Now().UTC()}, nil
}

func (a *SyncScheduleAPI) Stats(ctx *gin.Context, req StatsReq) (*stats.Stats, error) {
	spaceID, err := uuid.Parse(req.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("%w: space_id must be a UUID", middleware.ErrBadRequest)
	}
	userID := ctx.GetHeader(middleware.UserIDHeader)
	if err := a.access.RequireMember(ctx.Request.Context(), spaceID.String(), userID); err != nil {
		return nil, err
	}
	return a.stats.GetStats(ctx.Request.Context(), spaceID.String())
}
