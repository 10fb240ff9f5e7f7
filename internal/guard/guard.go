// Package guard keeps at most one execution in flight per schedule. The
// schedule row is the lock: acquisition is a conditional update whose
// affected-row count decides the winner.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/google/wire"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(New)

// ErrGuardLost means a run tried to release a schedule it no longer holds.
var ErrGuardLost = errors.New("concurrency guard lost")

// StaleReason is written to executions failed by a stale reset.
const StaleReason = "stale execution reset"

type Guard struct {
	schedules  schedule.Repo
	executions execution.Repo
	logger     *zap.Logger

	Now func() time.Time
}

func New(schedules schedule.Repo, executions execution.Repo, logger *zap.Logger) *Guard {
	return &Guard{
		schedules:  schedules,
		executions: executions,
		logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// TryAcquire marks the schedule RUNNING under token. It reports false when
// another run holds it or the schedule is deleted.
func (g *Guard) TryAcquire(ctx context.Context, scheduleID, token string) (bool, error) {
	ok, err := g.schedules.TryMarkRunning(ctx, scheduleID, token, g.Now())
	if err != nil {
		return false, fmt.Errorf("acquire guard for schedule %s: %w", scheduleID, err)
	}
	return ok, nil
}

// Held reports whether token still owns the schedule.
func (g *Guard) Held(ctx context.Context, scheduleID, token string) (bool, error) {
	ok, err := g.schedules.IsHeldBy(ctx, scheduleID, token)
	if err != nil {
		return false, fmt.Errorf("check guard for schedule %s: %w", scheduleID, err)
	}
	return ok, nil
}

// Release writes the run outcome and clears the token. The update is
// conditional on token; ErrGuardLost is returned when nothing matched.
func (g *Guard) Release(ctx context.Context, scheduleID, token string, outcome schedule.Outcome) error {
	ok, err := g.schedules.MarkFinished(ctx, scheduleID, token, outcome)
	if err != nil {
		return fmt.Errorf("release guard for schedule %s: %w", scheduleID, err)
	}
	if !ok {
		g.logger.Error("guard released by a run that no longer holds it",
			zap.String("schedule_id", scheduleID),
			zap.String("execution_id", token),
			zap.Bool("invariant_violation", true))
		return ErrGuardLost
	}
	return nil
}

// ResetStale fails runs that have held their schedule longer than olderThan
// and frees the schedules. It returns the number of schedules reset.
func (g *Guard) ResetStale(ctx context.Context, olderThan time.Duration) (int, error) {
	now := g.Now()
	cutoff := now.Add(-olderThan)

	stale, err := g.schedules.FindStaleRunning(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale schedules: %w", err)
	}

	var (
		reset int
		errs  []error
	)
	for _, s := range stale {
		ok, err := g.reset(ctx, s, cutoff, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			reset++
		}
	}
	return reset, errors.Join(errs...)
}

// ResetOne resets a single schedule if its run is older than olderThan. A zero
// olderThan resets any run.
func (g *Guard) ResetOne(ctx context.Context, scheduleID string, olderThan time.Duration) (bool, error) {
	s, err := g.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return false, err
	}
	if !s.IsRunning() {
		return false, nil
	}
	now := g.Now()
	return g.reset(ctx, s, now.Add(-olderThan), now)
}

func (g *Guard) reset(ctx context.Context, s *schedule.SyncSchedule, cutoff, now time.Time) (bool, error) {
	var (
		token   string
		cleared bool
		failed  int64
	)
	if s.CurrentExecutionID != nil {
		token = *s.CurrentExecutionID
	}

	err := g.schedules.Execute(ctx, func(ctx context.Context) error {
		var err error
		cleared, err = g.schedules.ClearStale(ctx, s.ID, token, cutoff, now)
		if err != nil || !cleared {
			return err
		}
		failed, err = g.executions.FailRunning(ctx, s.ID, now, StaleReason, now)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("reset stale schedule %s: %w", s.ID, err)
	}
	if cleared {
		g.logger.Warn("stale run reset",
			zap.String("schedule_id", s.ID),
			zap.String("execution_id", token),
			zap.Int64("executions_failed", failed))
	}
	return cleared, nil
}
