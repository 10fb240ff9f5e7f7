package executionrepo

import (
	domain "github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
)

func (po *SyncExecutionPo) ToDomain() *domain.SyncExecution {
	return &domain.SyncExecution{
		ID:          po.ID,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
		ScheduleID:  po.ScheduleID,
		SpaceID:     po.SpaceID,
		TriggeredBy: po.TriggeredBy,
		StartedAt:   po.StartedAt,
		CompletedAt: po.CompletedAt,
		Status:      po.Status,
		Counters: domain.Counters{
			Fetched:   po.RecordsFetched,
			Processed: po.RecordsProcessed,
			Inserted:  po.RecordsInserted,
			Updated:   po.RecordsUpdated,
			Deleted:   po.RecordsDeleted,
			Failed:    po.RecordsFailed,
		},
		DurationMs:   po.DurationMs,
		ErrorMessage: po.ErrorMessage,
	}
}

func (po *SyncExecutionPo) FromDomain(d *domain.SyncExecution) *SyncExecutionPo {
	return &SyncExecutionPo{
		Mode: commonrepo.Mode{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		ScheduleID:       d.ScheduleID,
		SpaceID:          d.SpaceID,
		TriggeredBy:      d.TriggeredBy,
		StartedAt:        d.StartedAt,
		CompletedAt:      d.CompletedAt,
		Status:           d.Status,
		RecordsFetched:   d.Counters.Fetched,
		RecordsProcessed: d.Counters.Processed,
		RecordsInserted:  d.Counters.Inserted,
		RecordsUpdated:   d.Counters.Updated,
		RecordsDeleted:   d.Counters.Deleted,
		RecordsFailed:    d.Counters.Failed,
		DurationMs:       d.DurationMs,
		ErrorMessage:     d.ErrorMessage,
	}
}

func countersToMap(c domain.Counters) map[string]any {
	return map[string]any{
		"records_fetched":   c.Fetched,
		"records_processed": c.Processed,
		"records_inserted":  c.Inserted,
		"records_updated":   c.Updated,
		"records_deleted":   c.Deleted,
		"records_failed":    c.Failed,
	}
}
