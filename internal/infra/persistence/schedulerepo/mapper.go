package schedulerepo

import (
	domain "github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"gorm.io/gorm"
)

func (po *SyncSchedulePo) ToDomain() *domain.SyncSchedule {
	return &domain.SyncSchedule{
		ID:                 po.ID,
		CreatedAt:          po.CreatedAt,
		UpdatedAt:          po.UpdatedAt,
		DeletedAt:          commonrepo.TimePtr(po.DeletedAt),
		Name:               po.Name,
		SpaceID:            po.SpaceID,
		DataModelID:        po.DataModelID,
		ConnectionID:       po.ConnectionID,
		ScheduleType:       po.ScheduleType,
		ScheduleConfig:     po.ScheduleConfig,
		IsActive:           po.IsActive,
		NextRunAt:          po.NextRunAt,
		LastRunStatus:      po.LastRunStatus,
		LastRunAt:          po.LastRunAt,
		CurrentExecutionID: po.CurrentExecutionID,
		RunningSince:       po.RunningSince,
	}
}

func (po *SyncSchedulePo) FromDomain(d *domain.SyncSchedule) *SyncSchedulePo {
	out := &SyncSchedulePo{
		Mode: commonrepo.Mode{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		Name:               d.Name,
		SpaceID:            d.SpaceID,
		DataModelID:        d.DataModelID,
		ConnectionID:       d.ConnectionID,
		ScheduleType:       d.ScheduleType,
		ScheduleConfig:     d.ScheduleConfig,
		IsActive:           d.IsActive,
		NextRunAt:          d.NextRunAt,
		LastRunStatus:      d.LastRunStatus,
		LastRunAt:          d.LastRunAt,
		CurrentExecutionID: d.CurrentExecutionID,
		RunningSince:       d.RunningSince,
	}
	if d.DeletedAt != nil {
		out.DeletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	}
	return out
}

func outcomeToMap(outcome domain.Outcome) map[string]any {
	values := map[string]any{
		"last_run_status":      outcome.Status,
		"last_run_at":          outcome.FinishedAt,
		"current_execution_id": nil,
		"running_since":        nil,
	}
	if outcome.NextRunAt != nil {
		values["next_run_at"] = *outcome.NextRunAt
	}
	return values
}
