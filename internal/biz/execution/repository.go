package execution

import (
	"context"
	"time"

	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"github.com/samber/mo"
)

type Repo interface {
	commonrepo.Transaction

	Create(ctx context.Context, execution *SyncExecution) error
	GetByID(ctx context.Context, id string) (*SyncExecution, error)

	// UpdateProgress stores running counters. Only RUNNING rows are touched.
	UpdateProgress(ctx context.Context, id string, counters Counters) error
	// Finish writes the terminal status, completed_at, duration, counters and
	// error in one conditional update. It reports false when the row was no
	// longer RUNNING.
	Finish(ctx context.Context, execution *SyncExecution) (bool, error)
	// FailRunning fails every RUNNING execution of a schedule started at or
	// before cutoff and returns the number of rows changed.
	FailRunning(ctx context.Context, scheduleID string, cutoff time.Time, reason string, now time.Time) (int64, error)

	// List returns one page of matching executions, newest first.
	List(ctx context.Context, query Query, offset, limit int) ([]*SyncExecution, error)
	Count(ctx context.Context, query Query) (int64, error)
	// Aggregate groups the executions of a space started at or after since by
	// status.
	Aggregate(ctx context.Context, spaceID string, since time.Time) ([]StatusAggregate, error)
}

type Query struct {
	ScheduleID mo.Option[string]
	SpaceID    mo.Option[string]
	Status     mo.Option[ExecutionStatus]
	Since      mo.Option[time.Time]
}

type StatusAggregate struct {
	Status          ExecutionStatus
	Count           int64
	RecordsFetched  int64
	TotalDurationMs int64
}
