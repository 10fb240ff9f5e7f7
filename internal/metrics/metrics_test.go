package metrics

import (
	"testing"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveExecution(t *testing.T) {
	m := New(prometheus.NewRegistry())

	exec := &execution.SyncExecution{
		Status:      execution.ExecutionStatusCompleted,
		TriggeredBy: execution.TriggerManual,
		DurationMs:  1500,
		Counters:    execution.Counters{Fetched: 10, Inserted: 9, Failed: 1},
	}
	m.ObserveExecution(exec)
	m.ObserveExecution(exec)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.executions.WithLabelValues("COMPLETED", "manual")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.records.WithLabelValues("fetched")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.records.WithLabelValues("failed")))
}

func TestTickAndConflicts(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveTick(200*time.Millisecond, 3)
	m.GuardConflict()
	m.StaleReset(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.tickExecuted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardConflicts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.staleResets))
}
