package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/guard"
	"github.com/dataspaces/syncer/internal/metrics"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ScheduleResult is the outcome of one schedule within a tick.
type ScheduleResult struct {
	ScheduleID     string                    `json:"schedule_id"`
	Name           string                    `json:"name"`
	Success        bool                      `json:"success"`
	ExecutionID    string                    `json:"execution_id,omitempty"`
	Status         execution.ExecutionStatus `json:"status,omitempty"`
	AlreadyRunning bool                      `json:"already_running,omitempty"`
	Counters       *execution.Counters       `json:"result,omitempty"`
	DurationMs     int64                     `json:"duration_ms,omitempty"`
	Error          string                    `json:"error,omitempty"`
}

type TickResult struct {
	ExecutedCount int              `json:"executed_count"`
	Results       []ScheduleResult `json:"results"`
}

// Scheduler selects due schedules and hands them to the Runner with bounded
// parallelism. It keeps no state between ticks.
type Scheduler struct {
	config    config.SchedulerConfig
	schedules schedule.Repo
	runner    Runner
	guard     *guard.Guard
	metrics   *metrics.Metrics
	logger    *zap.Logger

	Now func() time.Time
}

func New(
	cfg config.Config,
	schedules schedule.Repo,
	runner Runner,
	g *guard.Guard,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:    cfg.Scheduler,
		schedules: schedules,
		runner:    runner,
		guard:     g,
		metrics:   m,
		logger:    logger.Named("scheduler"),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Tick runs every due schedule once. A failure of one schedule is reported in
// its result and never aborts the batch.
func (s *Scheduler) Tick(ctx context.Context) (*TickResult, error) {
	start := time.Now()

	if s.config.AutoResetStale {
		n, err := s.guard.ResetStale(ctx, s.config.StaleAfter)
		if err != nil {
			s.logger.Error("failed to reset stale runs", zap.Error(err))
		}
		if n > 0 {
			s.metrics.StaleReset(n)
			s.logger.Warn("reset stale runs", zap.Int("count", n))
		}
	}

	due, err := s.schedules.FindDue(ctx, s.Now(), s.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("select due schedules: %w", err)
	}

	results := make([]ScheduleResult, len(due))
	p := pool.New().WithMaxGoroutines(max(s.config.MaxWorkers, 1))
	for i, sched := range due {
		p.Go(func() {
			results[i] = s.runOne(ctx, sched)
		})
	}
	p.Wait()

	executed := lo.CountBy(results, func(r ScheduleResult) bool {
		return r.ExecutionID != ""
	})
	s.metrics.ObserveTick(time.Since(start), executed)
	s.logger.Info("tick finished",
		zap.Int("due", len(due)),
		zap.Int("executed", executed),
		zap.Duration("elapsed", time.Since(start)))

	return &TickResult{ExecutedCount: executed, Results: results}, nil
}

func (s *Scheduler) runOne(ctx context.Context, sched *schedule.SyncSchedule) (result ScheduleResult) {
	result = ScheduleResult{ScheduleID: sched.ID, Name: sched.Name}
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("schedule panicked",
				zap.String("schedule_id", sched.ID),
				zap.Any("panic", p))
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", p)
		}
	}()

	res, err := s.runner.Execute(ctx, sched.ID, execution.TriggerScheduler)
	if err != nil {
		s.logger.Error("failed to execute schedule",
			zap.String("schedule_id", sched.ID),
			zap.Error(err))
		result.Error = err.Error()
		return result
	}

	result.Success = res.Success
	result.ExecutionID = res.ExecutionID
	result.Status = res.Status
	result.AlreadyRunning = res.AlreadyRunning
	result.Error = res.Error
	if !res.AlreadyRunning {
		counters := res.Counters
		result.Counters = &counters
		result.DurationMs = res.DurationMs
	}
	return result
}

// CountDue reports how many schedules the next tick would select, ignoring
// the batch limit.
func (s *Scheduler) CountDue(ctx context.Context) (int64, error) {
	return s.schedules.CountDue(ctx, s.Now())
}
