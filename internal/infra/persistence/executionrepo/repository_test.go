package executionrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/testutil"
	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

func start(t *testing.T, store *testutil.Store, scheduleID, spaceID string, at time.Time) *execution.SyncExecution {
	t.Helper()
	exec := execution.Start(uuid.NewString(), scheduleID, spaceID, execution.TriggerScheduler, at)
	require.NoError(t, store.Executions.Create(context.Background(), exec))
	return exec
}

func TestFinishIsConditional(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	exec := start(t, store, uuid.NewString(), uuid.NewString(), now)

	exec.Counters = execution.Counters{Fetched: 3, Processed: 3, Inserted: 3}
	ok, err := store.Executions.Finish(ctx, exec.Complete(now.Add(1500*time.Millisecond)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Executions.Finish(ctx, exec.Fail("late", now.Add(time.Minute)))
	require.NoError(t, err)
	assert.False(t, ok, "a terminal execution must not change again")

	require.NoError(t, store.Executions.UpdateProgress(ctx, exec.ID, execution.Counters{Fetched: 99}))

	got, err := store.Executions.GetByID(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.ExecutionStatusCompleted, got.Status)
	assert.EqualValues(t, 1500, got.DurationMs)
	assert.EqualValues(t, 3, got.Counters.Fetched)
	assert.Nil(t, got.ErrorMessage)
}

func TestUpdateProgress(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	exec := start(t, store, uuid.NewString(), uuid.NewString(), now)

	require.NoError(t, store.Executions.UpdateProgress(ctx, exec.ID, execution.Counters{Fetched: 10, Processed: 9, Failed: 1}))

	got, err := store.Executions.GetByID(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.Counters{Fetched: 10, Processed: 9, Failed: 1}, got.Counters)
	assert.Equal(t, execution.ExecutionStatusRunning, got.Status)
}

func TestFailRunning(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	scheduleID := uuid.NewString()
	old := start(t, store, scheduleID, uuid.NewString(), now.Add(-2*time.Hour))
	fresh := start(t, store, scheduleID, uuid.NewString(), now)

	changed, err := store.Executions.FailRunning(ctx, scheduleID, now.Add(-time.Hour), "stale", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	got, err := store.Executions.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.ExecutionStatusFailed, got.Status)
	assert.Equal(t, "stale", *got.ErrorMessage)
	assert.EqualValues(t, 2*time.Hour/time.Millisecond, got.DurationMs)

	got, err = store.Executions.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.ExecutionStatusRunning, got.Status)
}

func TestListAndCount(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	scheduleID, spaceID := uuid.NewString(), uuid.NewString()

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, start(t, store, scheduleID, spaceID, now.Add(time.Duration(i)*time.Minute)).ID)
	}
	start(t, store, uuid.NewString(), spaceID, now)

	page, err := store.Executions.List(ctx, execution.Query{ScheduleID: mo.Some(scheduleID)}, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	_, err = store.Executions.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, execution.ErrExecutionNotFound)

	count, err := store.Executions.Count(ctx, execution.Query{
		SpaceID: mo.Some(spaceID),
		Since:   mo.Some(now.Add(2 * time.Minute)),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	count, err = store.Executions.Count(ctx, execution.Query{
		SpaceID: mo.Some(spaceID),
		Status:  mo.Some(execution.ExecutionStatusRunning),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 6, count)

	count, err = store.Executions.Count(ctx, execution.Query{ScheduleID: mo.Some(scheduleID)})
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	recent, err := store.Executions.List(ctx, execution.Query{
		ScheduleID: mo.Some(scheduleID),
		Since:      mo.Some(now.Add(3 * time.Minute)),
	}, 0, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, []string{ids[4], ids[3]}, []string{recent[0].ID, recent[1].ID})
}

func TestAggregate(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	scheduleID, spaceID := uuid.NewString(), uuid.NewString()

	finish := func(exec *execution.SyncExecution, fetched int64) {
		exec.Counters.Fetched = fetched
		ok, err := store.Executions.Finish(ctx, exec)
		require.NoError(t, err)
		require.True(t, ok)
	}
	finish(start(t, store, scheduleID, spaceID, now).Complete(now.Add(time.Second)), 5)
	finish(start(t, store, scheduleID, spaceID, now).Complete(now.Add(3*time.Second)), 7)
	finish(start(t, store, scheduleID, spaceID, now).Fail("x", now.Add(2*time.Second)), 1)
	start(t, store, scheduleID, spaceID, now)
	finish(start(t, store, scheduleID, spaceID, now.Add(-48*time.Hour)).Complete(now), 100)

	groups, err := store.Executions.Aggregate(ctx, spaceID, now.Add(-time.Hour))
	require.NoError(t, err)

	byStatus := make(map[execution.ExecutionStatus]execution.StatusAggregate)
	for _, g := range groups {
		byStatus[g.Status] = g
	}
	require.Len(t, byStatus, 3)
	assert.Equal(t, execution.StatusAggregate{
		Status: execution.ExecutionStatusCompleted, Count: 2, RecordsFetched: 12, TotalDurationMs: 4000,
	}, byStatus[execution.ExecutionStatusCompleted])
	assert.Equal(t, execution.StatusAggregate{
		Status: execution.ExecutionStatusFailed, Count: 1, RecordsFetched: 1, TotalDurationMs: 2000,
	}, byStatus[execution.ExecutionStatusFailed])
	assert.EqualValues(t, 1, byStatus[execution.ExecutionStatusRunning].Count)
}
