package schedulerepo

import (
	"time"

	domain "github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SyncSchedulePo struct {
	commonrepo.Mode
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Name           string              `gorm:"column:name;size:255;not null"`
	SpaceID        string              `gorm:"column:space_id;size:36;not null;index"`
	DataModelID    string              `gorm:"column:data_model_id;size:36;not null;index"`
	ConnectionID   string              `gorm:"column:connection_id;size:36;not null;index"`
	ScheduleType   domain.ScheduleType `gorm:"column:schedule_type;size:16;not null"`
	ScheduleConfig datatypes.JSONMap   `gorm:"column:schedule_config"`
	IsActive       bool                `gorm:"column:is_active;not null;index:idx_sync_schedules_due,priority:1"`

	NextRunAt          *time.Time        `gorm:"column:next_run_at;index:idx_sync_schedules_due,priority:2"`
	LastRunStatus      *domain.RunStatus `gorm:"column:last_run_status;size:16"`
	LastRunAt          *time.Time        `gorm:"column:last_run_at"`
	CurrentExecutionID *string           `gorm:"column:current_execution_id;size:36"`
	RunningSince       *time.Time        `gorm:"column:running_since"`
}

func (SyncSchedulePo) TableName() string {
	return "sync_schedules"
}
