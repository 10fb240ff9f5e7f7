package api

import (
	"net/http"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/syncer"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

///// execute //////

type ExecutionResultResp struct {
	execution.Counters
	DurationMs int64 `json:"duration_ms"`
}

type ExecuteResp struct {
	Success     bool                      `json:"success"`
	Result      *ExecutionResultResp      `json:"result,omitempty"`
	ExecutionID string                    `json:"execution_id,omitempty"`
	Status      execution.ExecutionStatus `json:"status"`
	Error       string                    `json:"error,omitempty"`

	alreadyRunning bool
}

func (r ExecuteResp) HTTPStatus() int {
	if r.alreadyRunning {
		return http.StatusConflict
	}
	return http.StatusOK
}

func toExecuteResp(res *syncer.Result) ExecuteResp {
	if res.AlreadyRunning {
		return ExecuteResp{
			Status:         execution.ExecutionStatusRunning,
			Error:          res.Error,
			alreadyRunning: true,
		}
	}
	return ExecuteResp{
		Success: res.Success,
		Result: &ExecutionResultResp{
			Counters:   res.Counters,
			DurationMs: res.DurationMs,
		},
		ExecutionID: res.ExecutionID,
		Status:      res.Status,
		Error:       res.Error,
	}
}

///// executions //////

type ListExecutionsReq struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// normalize applies the default and the cap to Limit.
func (r ListExecutionsReq) normalize() ListExecutionsReq {
	if r.Limit <= 0 {
		r.Limit = defaultListLimit
	}
	if r.Limit > maxListLimit {
		r.Limit = maxListLimit
	}
	return r
}

type ExecutionResp struct {
	ID           string                    `json:"id"`
	ScheduleID   string                    `json:"schedule_id"`
	SpaceID      string                    `json:"space_id"`
	TriggeredBy  execution.Trigger         `json:"triggered_by"`
	Status       execution.ExecutionStatus `json:"status"`
	StartedAt    time.Time                 `json:"started_at"`
	CompletedAt  *time.Time                `json:"completed_at"`
	DurationMs   int64                     `json:"duration_ms"`
	ErrorMessage *string                   `json:"error_message"`
	execution.Counters
}

func toExecutionResp(e *execution.SyncExecution) ExecutionResp {
	return ExecutionResp{
		ID:           e.ID,
		ScheduleID:   e.ScheduleID,
		SpaceID:      e.SpaceID,
		TriggeredBy:  e.TriggeredBy,
		Status:       e.Status,
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
		DurationMs:   e.DurationMs,
		ErrorMessage: e.ErrorMessage,
		Counters:     e.Counters,
	}
}

type ListExecutionsResp struct {
	Data   []ExecutionResp `json:"data"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

///// reset //////

type ResetReq struct {
	Force bool `form:"force"`
}

type ResetResp struct {
	ScheduleID string `json:"schedule_id"`
	Reset      bool   `json:"reset"`
}

///// scheduler //////

type SchedulerStatusResp struct {
	DueCount int64     `json:"due_count"`
	Time     time.Time `json:"time"`
}

///// stats //////

type StatsReq struct {
	SpaceID string `form:"space_id"`
}
