package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/dataspaces/syncer/internal/biz/datamodel"
	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/infra/persistence/connectionrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/datamodelrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/executionrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/memberrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/schedulerepo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Store bundles the repositories over one test database.
type Store struct {
	DB          *gorm.DB
	Schedules   schedule.Repo
	Executions  execution.Repo
	Models      datamodel.Repo
	Connections connection.Repo
	Members     *memberrepo.RepositoryImpl
}

func NewStore(t *testing.T) *Store {
	db := NewDB(t)
	return &Store{
		DB:          db,
		Schedules:   schedulerepo.NewRepositoryImpl(db),
		Executions:  executionrepo.NewRepositoryImpl(db),
		Models:      datamodelrepo.NewRepositoryImpl(db),
		Connections: connectionrepo.NewRepositoryImpl(db),
		Members:     memberrepo.NewRepositoryImpl(db).(*memberrepo.RepositoryImpl),
	}
}

// Target is a data model plus a connection in one space, ready to be synced.
type Target struct {
	SpaceID    string
	Model      *datamodel.DataModel
	Connection *connection.Connection
}

func (s *Store) NewTarget(t *testing.T) *Target {
	t.Helper()
	ctx := context.Background()
	spaceID := uuid.NewString()

	model := &datamodel.DataModel{
		SpaceID:           spaceID,
		Name:              "customers",
		ExternalKeyColumn: "id",
		DeletePolicy:      datamodel.DeletePolicyHard,
		Fields: []datamodel.FieldSpec{
			{Name: "id", Type: datamodel.FieldTypeString, Required: true},
			{Name: "name", Type: datamodel.FieldTypeString, Required: true},
			{Name: "age", Type: datamodel.FieldTypeInteger},
		},
	}
	require.NoError(t, s.Models.Create(ctx, model))

	conn := &connection.Connection{
		SpaceID: spaceID,
		Name:    "crm",
		Type:    connection.ConnectionTypeHTTP,
		Config:  map[string]any{"url": "http://crm.invalid/export"},
	}
	require.NoError(t, s.Connections.Create(ctx, conn))

	return &Target{SpaceID: spaceID, Model: model, Connection: conn}
}

// ScheduleOption adjusts a schedule before it is stored.
type ScheduleOption func(*schedule.SyncSchedule)

func Manual() ScheduleOption {
	return func(s *schedule.SyncSchedule) {
		s.ScheduleType = schedule.ScheduleTypeManual
		s.ScheduleConfig = nil
	}
}

func Inactive() ScheduleOption {
	return func(s *schedule.SyncSchedule) { s.IsActive = false }
}

func DueAt(t time.Time) ScheduleOption {
	return func(s *schedule.SyncSchedule) {
		at := t.UTC()
		s.NextRunAt = &at
	}
}

func Running(token string, since time.Time) ScheduleOption {
	return func(s *schedule.SyncSchedule) {
		status := schedule.RunStatusRunning
		at := since.UTC()
		s.LastRunStatus = &status
		s.CurrentExecutionID = &token
		s.RunningSince = &at
	}
}

func Named(name string) ScheduleOption {
	return func(s *schedule.SyncSchedule) { s.Name = name }
}

// NewSchedule stores an active INTERVAL (1h) schedule for target.
func (s *Store) NewSchedule(t *testing.T, target *Target, opts ...ScheduleOption) *schedule.SyncSchedule {
	t.Helper()
	sched := &schedule.SyncSchedule{
		Name:           "hourly import",
		SpaceID:        target.SpaceID,
		DataModelID:    target.Model.ID,
		ConnectionID:   target.Connection.ID,
		ScheduleType:   schedule.ScheduleTypeInterval,
		ScheduleConfig: map[string]any{"interval": "1h"},
		IsActive:       true,
	}
	for _, opt := range opts {
		opt(sched)
	}
	require.NoError(t, s.Schedules.Create(context.Background(), sched))
	return sched
}

// Reload reads a schedule back including soft-deleted rows.
func (s *Store) Reload(t *testing.T, id string) *schedule.SyncSchedule {
	t.Helper()
	var po schedulerepo.SyncSchedulePo
	require.NoError(t, s.DB.Unscoped().Where("id = ?", id).First(&po).Error)
	return po.ToDomain()
}

// Rows returns the live rows of target keyed by external key.
func (s *Store) Rows(t *testing.T, target *Target) map[string]*datamodel.Row {
	t.Helper()
	rows, err := s.Models.ListRows(context.Background(), target.Model.ID, target.Connection.ID)
	require.NoError(t, err)
	out := make(map[string]*datamodel.Row, len(rows))
	for _, r := range rows {
		out[r.ExternalKey] = r
	}
	return out
}

// ExecutionsOf lists a schedule's executions newest first.
func (s *Store) ExecutionsOf(t *testing.T, scheduleID string) []*execution.SyncExecution {
	t.Helper()
	var pos []executionrepo.SyncExecutionPo
	require.NoError(t, s.DB.Where("schedule_id = ?", scheduleID).Order("started_at DESC").Find(&pos).Error)
	out := make([]*execution.SyncExecution, len(pos))
	for i := range pos {
		out[i] = pos[i].ToDomain()
	}
	return out
}
