package schedule

import (
	"errors"
	"time"
)

var (
	ErrScheduleNotFound = errors.New("sync schedule not found")
	ErrInvalidCadence   = errors.New("invalid schedule config")
)

type SyncSchedule struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	Name           string
	SpaceID        string
	DataModelID    string
	ConnectionID   string
	ScheduleType   ScheduleType
	ScheduleConfig map[string]any
	IsActive       bool

	NextRunAt          *time.Time
	LastRunStatus      *RunStatus
	LastRunAt          *time.Time
	CurrentExecutionID *string
	RunningSince       *time.Time
}

func (s *SyncSchedule) IsManual() bool {
	return s.ScheduleType == ScheduleTypeManual
}

func (s *SyncSchedule) IsDeleted() bool {
	return s.DeletedAt != nil
}

func (s *SyncSchedule) IsRunning() bool {
	return s.LastRunStatus != nil && *s.LastRunStatus == RunStatusRunning
}

// NextRun returns the next run instant strictly after now, or nil for MANUAL
// schedules.
func (s *SyncSchedule) NextRun(now time.Time) (*time.Time, error) {
	if s.IsManual() {
		return nil, nil
	}
	cadence, err := ParseCadence(s.ScheduleType, s.ScheduleConfig)
	if err != nil {
		return nil, err
	}
	next := cadence.Next(now)
	return &next, nil
}

// Outcome is the terminal state written back to the schedule when a run ends.
type Outcome struct {
	Status     RunStatus
	FinishedAt time.Time
	NextRunAt  *time.Time
}
