package executionrepo

import (
	"time"

	domain "github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
)

type SyncExecutionPo struct {
	commonrepo.Mode
	ScheduleID  string                 `gorm:"column:schedule_id;size:36;not null;index:idx_sync_executions_schedule,priority:1"`
	SpaceID     string                 `gorm:"column:space_id;size:36;not null;index:idx_sync_executions_space,priority:1"`
	TriggeredBy domain.Trigger         `gorm:"column:triggered_by;size:16;not null"`
	StartedAt   time.Time              `gorm:"column:started_at;not null;index:idx_sync_executions_schedule,priority:2;index:idx_sync_executions_space,priority:2"`
	CompletedAt *time.Time             `gorm:"column:completed_at"`
	Status      domain.ExecutionStatus `gorm:"column:status;size:16;not null;index"`

	RecordsFetched   int64   `gorm:"column:records_fetched;not null;default:0"`
	RecordsProcessed int64   `gorm:"column:records_processed;not null;default:0"`
	RecordsInserted  int64   `gorm:"column:records_inserted;not null;default:0"`
	RecordsUpdated   int64   `gorm:"column:records_updated;not null;default:0"`
	RecordsDeleted   int64   `gorm:"column:records_deleted;not null;default:0"`
	RecordsFailed    int64   `gorm:"column:records_failed;not null;default:0"`
	DurationMs       int64   `gorm:"column:duration_ms;not null;default:0"`
	ErrorMessage     *string `gorm:"column:error_message;type:text"`
}

func (SyncExecutionPo) TableName() string {
	return "sync_executions"
}
