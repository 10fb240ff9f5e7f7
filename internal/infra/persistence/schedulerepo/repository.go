package schedulerepo

import (
	"context"
	"time"

	domain "github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"github.com/google/wire"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewRepositoryImpl)

const notRunning = "(last_run_status IS NULL OR last_run_status <> ?)"

type RepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &RepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *RepositoryImpl) Create(ctx context.Context, schedule *domain.SyncSchedule) error {
	po := new(SyncSchedulePo).FromDomain(schedule)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	schedule.ID = po.ID
	schedule.CreatedAt = po.CreatedAt
	schedule.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id string) (*domain.SyncSchedule, error) {
	var po SyncSchedulePo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, commonrepo.NotFound(err, domain.ErrScheduleNotFound)
	}
	return po.ToDomain(), nil
}

func (r *RepositoryImpl) dueQuery(ctx context.Context, now time.Time) *gorm.DB {
	return r.Db(ctx).Model(&SyncSchedulePo{}).
		Where("is_active = ?", true).
		Where("schedule_type <> ?", domain.ScheduleTypeManual).
		Where("(next_run_at IS NULL OR next_run_at <= ?)", now).
		Where(notRunning, domain.RunStatusRunning)
}

func (r *RepositoryImpl) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.SyncSchedule, error) {
	var pos []SyncSchedulePo
	err := r.dueQuery(ctx, now).
		Order("next_run_at IS NULL").
		Order("next_run_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SyncSchedulePo, _ int) *domain.SyncSchedule {
		return po.ToDomain()
	}), nil
}

func (r *RepositoryImpl) CountDue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	if err := r.dueQuery(ctx, now).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RepositoryImpl) TryMarkRunning(ctx context.Context, id string, token string, now time.Time) (bool, error) {
	res := r.Db(ctx).Model(&SyncSchedulePo{}).
		Where("id = ?", id).
		Where(notRunning, domain.RunStatusRunning).
		Updates(map[string]any{
			"last_run_status":      domain.RunStatusRunning,
			"current_execution_id": token,
			"running_since":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RepositoryImpl) IsHeldBy(ctx context.Context, id string, token string) (bool, error) {
	var count int64
	err := r.Db(ctx).Model(&SyncSchedulePo{}).Unscoped().
		Where("id = ? AND current_execution_id = ? AND last_run_status = ?", id, token, domain.RunStatusRunning).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// MarkFinished also matches soft-deleted rows: a schedule deleted mid-run
// must still be released.
func (r *RepositoryImpl) MarkFinished(ctx context.Context, id string, token string, outcome domain.Outcome) (bool, error) {
	res := r.Db(ctx).Model(&SyncSchedulePo{}).Unscoped().
		Where("id = ? AND current_execution_id = ?", id, token).
		Updates(outcomeToMap(outcome))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RepositoryImpl) FindStaleRunning(ctx context.Context, cutoff time.Time) ([]*domain.SyncSchedule, error) {
	var pos []SyncSchedulePo
	err := r.Db(ctx).Unscoped().
		Where("last_run_status = ?", domain.RunStatusRunning).
		Where("(running_since IS NULL OR running_since < ?)", cutoff).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SyncSchedulePo, _ int) *domain.SyncSchedule {
		return po.ToDomain()
	}), nil
}

func (r *RepositoryImpl) ClearStale(ctx context.Context, id string, token string, cutoff time.Time, now time.Time) (bool, error) {
	q := r.Db(ctx).Model(&SyncSchedulePo{}).Unscoped().
		Where("id = ? AND last_run_status = ?", id, domain.RunStatusRunning).
		Where("(running_since IS NULL OR running_since < ?)", cutoff)
	if token == "" {
		q = q.Where("current_execution_id IS NULL")
	} else {
		q = q.Where("current_execution_id = ?", token)
	}
	res := q.Updates(map[string]any{
		"last_run_status":      domain.RunStatusFailed,
		"last_run_at":          now,
		"current_execution_id": nil,
		"running_since":        nil,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RepositoryImpl) CountBySpace(ctx context.Context, spaceID string) (domain.SpaceCounts, error) {
	var row struct {
		Total   int64
		Active  int64
		Running int64
	}
	err := r.Db(ctx).Model(&SyncSchedulePo{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN is_active = ? THEN 1 ELSE 0 END), 0) AS active, "+
				"COALESCE(SUM(CASE WHEN last_run_status = ? THEN 1 ELSE 0 END), 0) AS running",
			true, domain.RunStatusRunning,
		).
		Where("space_id = ?", spaceID).
		Scan(&row).Error
	if err != nil {
		return domain.SpaceCounts{}, err
	}
	return domain.SpaceCounts{Total: row.Total, Active: row.Active, Running: row.Running}, nil
}
