package executionrepo

import (
	"context"
	"time"

	domain "github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"github.com/google/wire"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewRepositoryImpl)

type RepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &RepositoryImpl{
		DefaultRepo: commonrepo.NewDefaultRepo(db),
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, execution *domain.SyncExecution) error {
	po := new(SyncExecutionPo).FromDomain(execution)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	execution.ID = po.ID
	execution.CreatedAt = po.CreatedAt
	execution.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id string) (*domain.SyncExecution, error) {
	var po SyncExecutionPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, commonrepo.NotFound(err, domain.ErrExecutionNotFound)
	}
	return po.ToDomain(), nil
}

func (r *RepositoryImpl) UpdateProgress(ctx context.Context, id string, counters domain.Counters) error {
	return r.Db(ctx).Model(&SyncExecutionPo{}).
		Where("id = ? AND status = ?", id, domain.ExecutionStatusRunning).
		Updates(countersToMap(counters)).Error
}

func (r *RepositoryImpl) Finish(ctx context.Context, execution *domain.SyncExecution) (bool, error) {
	values := countersToMap(execution.Counters)
	values["status"] = execution.Status
	values["completed_at"] = execution.CompletedAt
	values["duration_ms"] = execution.DurationMs
	values["error_message"] = execution.ErrorMessage

	res := r.Db(ctx).Model(&SyncExecutionPo{}).
		Where("id = ? AND status = ?", execution.ID, domain.ExecutionStatusRunning).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RepositoryImpl) FailRunning(ctx context.Context, scheduleID string, cutoff time.Time, reason string, now time.Time) (int64, error) {
	var pos []SyncExecutionPo
	err := r.Db(ctx).
		Where("schedule_id = ? AND status = ? AND started_at <= ?", scheduleID, domain.ExecutionStatusRunning, cutoff).
		Find(&pos).Error
	if err != nil {
		return 0, err
	}

	var changed int64
	for i := range pos {
		exec := pos[i].ToDomain().Fail(reason, now)
		ok, err := r.Finish(ctx, exec)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

func (r *RepositoryImpl) query(ctx context.Context, query domain.Query) *gorm.DB {
	db := r.Db(ctx).Model(&SyncExecutionPo{})
	if query.ScheduleID.IsPresent() {
		db = db.Where("schedule_id = ?", query.ScheduleID.MustGet())
	}
	if query.SpaceID.IsPresent() {
		db = db.Where("space_id = ?", query.SpaceID.MustGet())
	}
	if query.Status.IsPresent() {
		db = db.Where("status = ?", query.Status.MustGet())
	}
	if query.Since.IsPresent() {
		db = db.Where("started_at >= ?", query.Since.MustGet())
	}
	return db
}

func (r *RepositoryImpl) List(ctx context.Context, query domain.Query, offset, limit int) ([]*domain.SyncExecution, error) {
	var pos []SyncExecutionPo
	if err := r.query(ctx, query).Order("started_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SyncExecutionPo, _ int) *domain.SyncExecution {
		return po.ToDomain()
	}), nil
}

func (r *RepositoryImpl) Count(ctx context.Context, query domain.Query) (int64, error) {
	var count int64
	if err := r.query(ctx, query).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RepositoryImpl) Aggregate(ctx context.Context, spaceID string, since time.Time) ([]domain.StatusAggregate, error) {
	var rows []struct {
		Status          domain.ExecutionStatus
		Cnt             int64
		RecordsFetched  int64
		TotalDurationMs int64
	}
	err := r.Db(ctx).Model(&SyncExecutionPo{}).
		Select("status, COUNT(*) AS cnt, " +
			"COALESCE(SUM(records_fetched), 0) AS records_fetched, " +
			"COALESCE(SUM(duration_ms), 0) AS total_duration_ms").
		Where("space_id = ? AND started_at >= ?", spaceID, since).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.StatusAggregate, len(rows))
	for i, row := range rows {
		out[i] = domain.StatusAggregate{
			Status:          row.Status,
			Count:           row.Cnt,
			RecordsFetched:  row.RecordsFetched,
			TotalDurationMs: row.TotalDurationMs,
		}
	}
	return out, nil
}
