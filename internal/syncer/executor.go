// Package syncer runs one sync schedule to completion: fetch the remote
// records page by page, reconcile them against the stored rows, and record the
// outcome.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/dataspaces/syncer/internal/biz/datamodel"
	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/connector"
	"github.com/dataspaces/syncer/internal/events"
	"github.com/dataspaces/syncer/internal/guard"
	"github.com/dataspaces/syncer/internal/metrics"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/google/uuid"
	"github.com/google/wire"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(New)

// fallbackInterval is used for next_run_at when a schedule's cadence cannot be
// parsed, so a broken config does not make the schedule due on every tick.
const fallbackInterval = time.Hour

// Result is what a caller learns about one Execute call.
type Result struct {
	Success        bool
	ExecutionID    string
	Status         execution.ExecutionStatus
	Counters       execution.Counters
	DurationMs     int64
	Error          string
	AlreadyRunning bool
}

type Executor struct {
	schedules   schedule.Repo
	executions  execution.Repo
	models      datamodel.Repo
	connections connection.Repo
	fetcher     connector.Fetcher
	guard       *guard.Guard
	emitter     events.Emitter
	metrics     *metrics.Metrics
	cfg         config.SyncConfig
	logger      *zap.Logger

	Now   func() time.Time
	NewID func() string
}

func New(
	cfg config.Config,
	schedules schedule.Repo,
	executions execution.Repo,
	models datamodel.Repo,
	connections connection.Repo,
	fetcher connector.Fetcher,
	g *guard.Guard,
	emitter events.Emitter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		schedules:   schedules,
		executions:  executions,
		models:      models,
		connections: connections,
		fetcher:     fetcher,
		guard:       g,
		emitter:     emitter,
		metrics:     m,
		cfg:         cfg.Sync,
		logger:      logger.Named("syncer"),
		Now:         func() time.Time { return time.Now().UTC() },
		NewID:       uuid.NewString,
	}
}

// Execute runs the schedule once. The error is non-nil only when nothing was
// recorded: the schedule is unknown or the store failed before the guard was
// taken. Every later outcome is reported in the Result.
func (e *Executor) Execute(ctx context.Context, scheduleID string, trigger execution.Trigger) (*Result, error) {
	sched, err := e.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	token := e.NewID()
	acquired, err := e.guard.TryAcquire(ctx, sched.ID, token)
	if err != nil {
		return nil, err
	}
	if !acquired {
		e.metrics.GuardConflict()
		e.logger.Info("schedule already running",
			zap.String("schedule_id", sched.ID),
			zap.String("trigger", string(trigger)))
		return &Result{
			Status:         execution.ExecutionStatusRunning,
			Error:          AlreadyRunning,
			AlreadyRunning: true,
		}, nil
	}

	return e.run(ctx, sched, token, trigger), nil
}

func (e *Executor) run(ctx context.Context, sched *schedule.SyncSchedule, token string, trigger execution.Trigger) (res *Result) {
	exec := execution.Start(token, sched.ID, sched.SpaceID, trigger, e.Now())
	logger := e.logger.With(
		zap.String("schedule_id", sched.ID),
		zap.String("execution_id", exec.ID),
		zap.String("trigger", string(trigger)))

	var runErr error
	defer func() {
		if p := recover(); p != nil {
			logger.Error("sync panicked",
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			runErr = fmt.Errorf("panic: %v", p)
		}
		res = e.finalize(ctx, sched, exec, runErr, logger)
	}()

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.RunTimeout)
	defer cancel()

	if err := e.executions.Create(runCtx, exec); err != nil {
		runErr = fmt.Errorf("record execution: %w", err)
		return
	}
	logger.Info("sync started")
	e.emitter.Emit(runCtx, events.FromExecution(events.EventExecutionStarted, exec))

	runErr = e.sync(runCtx, sched, exec, logger)
	return
}

// finalize writes the terminal execution state and releases the guard in one
// transaction. It runs on a context detached from the caller so a cancelled
// request cannot leave the schedule RUNNING.
func (e *Executor) finalize(parent context.Context, sched *schedule.SyncSchedule, exec *execution.SyncExecution, runErr error, logger *zap.Logger) *Result {
	now := e.Now()
	if runErr == nil {
		exec.Complete(now)
	} else {
		exec.Fail(runErr.Error(), now)
	}

	outcome := schedule.Outcome{
		Status:     schedule.RunStatus(exec.Status),
		FinishedAt: now,
	}
	if !sched.IsManual() {
		outcome.NextRunAt = e.nextRun(sched, now, logger)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), e.cfg.StoreTimeout)
	defer cancel()

	err := e.executions.Execute(ctx, func(ctx context.Context) error {
		finished, err := e.executions.Finish(ctx, exec)
		if err != nil {
			return fmt.Errorf("finish execution: %w", err)
		}
		if !finished {
			logger.Warn("execution was no longer running when finalized")
		}
		return e.guard.Release(ctx, sched.ID, exec.ID, outcome)
	})
	if errors.Is(err, guard.ErrGuardLost) {
		// the schedule was reset under us; record the run on its own
		exec.Fail(guard.ErrGuardLost.Error(), now)
		if _, ferr := e.executions.Finish(ctx, exec); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}

	res := &Result{
		Success:     err == nil && exec.Status == execution.ExecutionStatusCompleted,
		ExecutionID: exec.ID,
		Status:      exec.Status,
		Counters:    exec.Counters,
		DurationMs:  exec.DurationMs,
	}
	if exec.ErrorMessage != nil {
		res.Error = *exec.ErrorMessage
	}
	if err != nil {
		logger.Error("failed to finalize execution", zap.Error(err))
		if res.Error == "" {
			res.Error = err.Error()
		}
	}

	fields := []zap.Field{
		zap.String("status", string(exec.Status)),
		zap.Int64("duration_ms", exec.DurationMs),
		zap.Int64("records_fetched", exec.Counters.Fetched),
		zap.Int64("records_processed", exec.Counters.Processed),
		zap.Int64("records_inserted", exec.Counters.Inserted),
		zap.Int64("records_updated", exec.Counters.Updated),
		zap.Int64("records_deleted", exec.Counters.Deleted),
		zap.Int64("records_failed", exec.Counters.Failed),
	}
	if runErr != nil {
		logger.Warn("sync failed", append(fields, zap.Error(runErr))...)
	} else {
		logger.Info("sync completed", fields...)
	}

	e.metrics.ObserveExecution(exec)
	e.emitter.Emit(ctx, events.FromExecution(events.EventExecutionFinished, exec))
	return res
}

func (e *Executor) nextRun(sched *schedule.SyncSchedule, now time.Time, logger *zap.Logger) *time.Time {
	next, err := sched.NextRun(now)
	if err == nil && next != nil {
		return next
	}
	logger.Warn("invalid schedule cadence, using fallback interval",
		zap.Duration("fallback", fallbackInterval),
		zap.Error(err))
	fallback := now.Add(fallbackInterval)
	return &fallback
}
