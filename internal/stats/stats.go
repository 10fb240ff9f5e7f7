// Package stats aggregates schedules and executions per space.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/google/wire"
)

var Provider = wire.NewSet(New)

type Stats struct {
	TotalSchedules    int64 `json:"total_schedules"`
	ActiveSchedules   int64 `json:"active_schedules"`
	RunningNow        int64 `json:"running_now"`
	CompletedToday    int64 `json:"completed_today"`
	FailedToday       int64 `json:"failed_today"`
	TotalRecordsToday int64 `json:"total_records_today"`
	AvgDurationMs     int64 `json:"avg_duration_ms"`
}

type Aggregator struct {
	schedules  schedule.Repo
	executions execution.Repo
	loc        *time.Location

	Now func() time.Time
}

func New(cfg config.Config, schedules schedule.Repo, executions execution.Repo) *Aggregator {
	return &Aggregator{
		schedules:  schedules,
		executions: executions,
		loc:        cfg.Scheduler.Location(),
		Now:        time.Now,
	}
}

// StartOfDay returns midnight of t's calendar day in loc, in UTC.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

func (a *Aggregator) GetStats(ctx context.Context, spaceID string) (*Stats, error) {
	counts, err := a.schedules.CountBySpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("count schedules: %w", err)
	}

	groups, err := a.executions.Aggregate(ctx, spaceID, StartOfDay(a.Now(), a.loc))
	if err != nil {
		return nil, fmt.Errorf("aggregate executions: %w", err)
	}

	out := &Stats{
		TotalSchedules:  counts.Total,
		ActiveSchedules: counts.Active,
		RunningNow:      counts.Running,
	}
	var terminal, totalDuration int64
	for _, g := range groups {
		out.TotalRecordsToday += g.RecordsFetched
		switch g.Status {
		case execution.ExecutionStatusCompleted:
			out.CompletedToday = g.Count
		case execution.ExecutionStatusFailed:
			out.FailedToday = g.Count
		}
		if g.Status.IsTerminal() {
			terminal += g.Count
			totalDuration += g.TotalDurationMs
		}
	}
	if terminal > 0 {
		out.AvgDurationMs = totalDuration / terminal
	}
	return out, nil
}
