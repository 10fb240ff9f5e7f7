package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dataspaces/syncer/internal/api/middleware"
	"github.com/dataspaces/syncer/internal/biz/access"
	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/events"
	"github.com/dataspaces/syncer/internal/guard"
	"github.com/dataspaces/syncer/internal/metrics"
	"github.com/dataspaces/syncer/internal/scheduler"
	"github.com/dataspaces/syncer/internal/stats"
	"github.com/dataspaces/syncer/internal/syncer"
	"github.com/dataspaces/syncer/internal/testutil"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

type apiHarness struct {
	store   *testutil.Store
	fetcher *testutil.Fetcher
	clock   *testutil.Clock
	target  *testutil.Target
	router  *gin.Engine
}

func newAPIHarness(t *testing.T, ping error) *apiHarness {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	store := testutil.NewStore(t)
	clock := testutil.NewClock(time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC))
	fetcher := testutil.NewFetcher()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	g := guard.New(store.Schedules, store.Executions, zap.NewNop())
	g.Now = clock.Now
	exec := syncer.New(cfg, store.Schedules, store.Executions, store.Models, store.Connections,
		fetcher, g, &events.Recorder{}, m, zap.NewNop())
	exec.Now = clock.Now
	sched := scheduler.New(cfg, store.Schedules, exec, g, m, zap.NewNop())
	sched.Now = clock.Now
	agg := stats.New(cfg, store.Schedules, store.Executions)
	agg.Now = clock.Now

	scheduleAPI := NewSyncScheduleAPI(cfg, store.Schedules, store.Executions, exec, sched, g, agg,
		access.NewChecker(store.Members), zap.NewNop())
	server := NewServer(cfg, scheduleAPI, NewCommonAPI(pinger{err: ping}), m, reg, zap.NewNop())

	return &apiHarness{
		store:   store,
		fetcher: fetcher,
		clock:   clock,
		target:  store.NewTarget(t),
		router:  server.Router(),
	}
}

func (h *apiHarness) do(t *testing.T, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestExecute(t *testing.T) {
	h := newAPIHarness(t, nil)
	sched := h.store.NewSchedule(t, h.target)
	h.fetcher.Serve(h.target.Connection.ID, testutil.Records("a", "b"))

	w := h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+sched.ID+"/execute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "COMPLETED", body["status"])
	assert.NotEmpty(t, body["execution_id"])
	result := body["result"].(map[string]any)
	assert.EqualValues(t, 2, result["records_fetched"])
	assert.EqualValues(t, 2, result["records_inserted"])
	assert.Contains(t, result, "duration_ms")
	assert.NotContains(t, body, "error")
}

func TestExecute_AlreadyRunning(t *testing.T) {
	h := newAPIHarness(t, nil)
	sched := h.store.NewSchedule(t, h.target, testutil.Running("someone-else", h.clock.Now()))

	w := h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+sched.ID+"/execute", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"success":false,"status":"RUNNING","error":"already running"}`, w.Body.String())
}

func TestExecute_FailedRunIsStill200(t *testing.T) {
	h := newAPIHarness(t, nil)
	sched := h.store.NewSchedule(t, h.target)
	h.fetcher.Fail(h.target.Connection.ID, errors.New("upstream 502"))

	w := h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+sched.ID+"/execute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "FAILED", body["status"])
	assert.Contains(t, body["error"], "upstream 502")
}

func TestExecute_UnknownSchedule(t *testing.T) {
	h := newAPIHarness(t, nil)

	w := h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+uuid.NewString()+"/execute", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[middleware.ErrorResponse](t, w).Code)
}

func TestListExecutions(t *testing.T) {
	h := newAPIHarness(t, nil)
	sched := h.store.NewSchedule(t, h.target)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		exec := execution.Start(uuid.NewString(), sched.ID, h.target.SpaceID, execution.TriggerScheduler,
			h.clock.Now().Add(time.Duration(i)*time.Minute))
		require.NoError(t, h.store.Executions.Create(ctx, exec))
	}

	w := h.do(t, http.MethodGet, "/api/v1/sync-schedules/"+sched.ID+"/executions?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[ListExecutionsResp](t, w)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 0, page.Offset)
	require.Len(t, page.Data, 2)
	assert.True(t, page.Data[0].StartedAt.After(page.Data[1].StartedAt))

	w = h.do(t, http.MethodGet, "/api/v1/sync-schedules/"+sched.ID+"/executions?limit=500&offset=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[ListExecutionsResp](t, w)
	assert.Equal(t, maxListLimit, page.Limit)
	assert.Len(t, page.Data, 1)

	w = h.do(t, http.MethodGet, "/api/v1/sync-schedules/"+sched.ID+"/executions", nil)
	assert.Equal(t, defaultListLimit, decode[ListExecutionsResp](t, w).Limit)

	w = h.do(t, http.MethodGet, "/api/v1/sync-schedules/"+sched.ID+"/executions?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetExecution(t *testing.T) {
	h := newAPIHarness(t, nil)
	sched := h.store.NewSchedule(t, h.target)
	other := h.store.NewSchedule(t, h.target)
	h.fetcher.Serve(h.target.Connection.ID, testutil.Records("a"))

	res := decode[map[string]any](t, h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+sched.ID+"/execute", nil))
	execID := res["execution_id"].(string)

	w := h.do(t, http.MethodGet, "/api/v1/sync-schedules/"+sched.ID+"/executions/"+execID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[ExecutionResp](t, w)
	assert.Equal(t, execID, got.ID)
	assert.Equal(t, execution.TriggerManual, got.TriggeredBy)
	assert.EqualValues(t, 1, got.Inserted)

	w = h.do(t, http.MethodGet, "/api/v1/sync-schedules/"+other.ID+"/executions/"+execID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReset(t *testing.T) {
	h := newAPIHarness(t, nil)
	fresh := h.store.NewSchedule(t, h.target, testutil.Running("fresh", h.clock.Now().Add(-time.Minute)))

	w := h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+fresh.ID+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[ResetResp](t, w).Reset)
	assert.Equal(t, schedule.RunStatusRunning, *h.store.Reload(t, fresh.ID).LastRunStatus)

	w = h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+fresh.ID+"/reset?force=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[ResetResp](t, w).Reset)
	reloaded := h.store.Reload(t, fresh.ID)
	assert.Equal(t, schedule.RunStatusFailed, *reloaded.LastRunStatus)
	assert.Nil(t, reloaded.CurrentExecutionID)

	w = h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+uuid.NewString()+"/reset", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduler(t *testing.T) {
	h := newAPIHarness(t, nil)
	h.store.NewSchedule(t, h.target, testutil.DueAt(h.clock.Now().Add(-time.Minute)))
	h.store.NewSchedule(t, h.target, testutil.DueAt(h.clock.Now().Add(time.Hour)))
	h.fetcher.Serve(h.target.Connection.ID, testutil.Records("a"))

	w := h.do(t, http.MethodGet, "/api/v1/sync-schedules/scheduler", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[SchedulerStatusResp](t, w).DueCount)

	w = h.do(t, http.MethodPost, "/api/v1/sync-schedules/scheduler", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tick := decode[scheduler.TickResult](t, w)
	assert.Equal(t, 1, tick.ExecutedCount)
	require.Len(t, tick.Results, 1)
	assert.True(t, tick.Results[0].Success)

	w = h.do(t, http.MethodGet, "/api/v1/sync-schedules/scheduler", nil)
	assert.EqualValues(t, 0, decode[SchedulerStatusResp](t, w).DueCount)
}

func TestStats(t *testing.T) {
	h := newAPIHarness(t, nil)
	h.store.NewSchedule(t, h.target)
	require.NoError(t, h.store.Members.Add(context.Background(), h.target.SpaceID, "u-1", "viewer"))

	member := http.Header{middleware.UserIDHeader: []string{"u-1"}}
	stranger := http.Header{middleware.UserIDHeader: []string{"u-2"}}
	path := "/api/v1/sync-schedules/stats?space_id=" + h.target.SpaceID

	w := h.do(t, http.MethodGet, path, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[stats.Stats](t, w)
	assert.EqualValues(t, 1, got.TotalSchedules)
	assert.EqualValues(t, 1, got.ActiveSchedules)

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, path, stranger).Code)
	assert.Equal(t, http.StatusBadRequest,
		h.do(t, http.MethodGet, "/api/v1/sync-schedules/stats?space_id=not-a-uuid", member).Code)
	assert.Equal(t, http.StatusBadRequest,
		h.do(t, http.MethodGet, "/api/v1/sync-schedules/stats", member).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newAPIHarness(t, nil)
	w := h.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])

	w = h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))

	down := newAPIHarness(t, errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, down.do(t, http.MethodGet, "/health", nil).Code)
}

func TestRevokedConnectionFailsRun(t *testing.T) {
	h := newAPIHarness(t, nil)
	sched := h.store.NewSchedule(t, h.target)
	require.NoError(t, h.store.Connections.Revoke(context.Background(), h.target.Connection.ID, h.clock.Now()))

	w := h.do(t, http.MethodPost, "/api/v1/sync-schedules/"+sched.ID+"/execute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "FAILED", body["status"])
	assert.Contains(t, body["error"], connection.ErrConnectionRevoked.Error())
}
