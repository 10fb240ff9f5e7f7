package execution

import (
	"errors"
	"time"
)

var ErrExecutionNotFound = errors.New("sync execution not found")

// Counters are the per-run record tallies. They only ever grow during a run.
type Counters struct {
	Fetched   int64 `json:"records_fetched"`
	Processed int64 `json:"records_processed"`
	Inserted  int64 `json:"records_inserted"`
	Updated   int64 `json:"records_updated"`
	Deleted   int64 `json:"records_deleted"`
	Failed    int64 `json:"records_failed"`
}

func (c *Counters) Add(other Counters) {
	c.Fetched += other.Fetched
	c.Processed += other.Processed
	c.Inserted += other.Inserted
	c.Updated += other.Updated
	c.Deleted += other.Deleted
	c.Failed += other.Failed
}

type SyncExecution struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	ScheduleID   string
	SpaceID      string
	TriggeredBy  Trigger
	StartedAt    time.Time
	CompletedAt  *time.Time
	Status       ExecutionStatus
	Counters     Counters
	DurationMs   int64
	ErrorMessage *string
}

// Start builds a RUNNING execution for a schedule.
func Start(id, scheduleID, spaceID string, trigger Trigger, now time.Time) *SyncExecution {
	return &SyncExecution{
		ID:          id,
		ScheduleID:  scheduleID,
		SpaceID:     spaceID,
		TriggeredBy: trigger,
		StartedAt:   now,
		Status:      ExecutionStatusRunning,
	}
}

// Complete marks the execution COMPLETED.
func (e *SyncExecution) Complete(now time.Time) *SyncExecution {
	e.finish(ExecutionStatusCompleted, now)
	e.ErrorMessage = nil
	return e
}

// Fail marks the execution FAILED with reason.
func (e *SyncExecution) Fail(reason string, now time.Time) *SyncExecution {
	e.finish(ExecutionStatusFailed, now)
	e.ErrorMessage = &reason
	return e
}

func (e *SyncExecution) finish(status ExecutionStatus, now time.Time) {
	e.Status = status
	e.CompletedAt = &now
	e.DurationMs = now.Sub(e.StartedAt).Milliseconds()
	if e.DurationMs < 0 {
		e.DurationMs = 0
	}
}
