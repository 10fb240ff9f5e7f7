package schedule

import (
	"context"
	"time"

	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
)

type Repo interface {
	commonrepo.Transaction

	Create(ctx context.Context, schedule *SyncSchedule) error
	// GetByID returns ErrScheduleNotFound for unknown or soft-deleted schedules.
	GetByID(ctx context.Context, id string) (*SyncSchedule, error)

	// FindDue lists active, non-manual, non-running schedules whose next run is
	// unset or not after now, ordered by next_run_at with nulls last.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*SyncSchedule, error)
	CountDue(ctx context.Context, now time.Time) (int64, error)

	// TryMarkRunning is the compare-and-swap that acquires a schedule for one run.
	TryMarkRunning(ctx context.Context, id string, token string, now time.Time) (bool, error)
	IsHeldBy(ctx context.Context, id string, token string) (bool, error)
	// MarkFinished releases the schedule held by token and records the outcome.
	MarkFinished(ctx context.Context, id string, token string, outcome Outcome) (bool, error)

	// FindStaleRunning lists schedules, deleted or not, that have been RUNNING
	// since before cutoff.
	FindStaleRunning(ctx context.Context, cutoff time.Time) ([]*SyncSchedule, error)
	// ClearStale releases a stale hold as FAILED, provided the hold is still the
	// one identified by token and older than cutoff.
	ClearStale(ctx context.Context, id string, token string, cutoff time.Time, now time.Time) (bool, error)

	CountBySpace(ctx context.Context, spaceID string) (SpaceCounts, error)
}

type SpaceCounts struct {
	Total   int64
	Active  int64
	Running int64
}
