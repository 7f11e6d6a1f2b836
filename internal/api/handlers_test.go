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

	"github.com/ignite/outreach-monitor/internal/agent"
	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/fixtures"
	"github.com/ignite/outreach-monitor/internal/outreach"
	"github.com/ignite/outreach-monitor/internal/pkg/distlock"
	"github.com/ignite/outreach-monitor/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// fakeCollector implements SnapshotSource for handler tests
type fakeCollector struct {
	snap       *outreach.Snapshot
	refreshErr error
	refreshed  int
	status     outreach.CollectorStatus
}

func (f *fakeCollector) Latest() (*outreach.Snapshot, bool) { return f.snap, f.snap != nil }
func (f *fakeCollector) Status() outreach.CollectorStatus   { return f.status }
func (f *fakeCollector) Refresh(context.Context) (*outreach.Snapshot, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.snap, nil
}

func testSnapshot() *outreach.Snapshot {
	clock := func() time.Time { return testNow }
	c := classifier.New(classifier.DefaultBenchmarks(), classifier.WithClock(clock))
	b := outreach.NewBuilder(c, tasks.NewGenerator(clock), 10,
		outreach.WithBuildClock(clock),
		outreach.WithRunIDs(func() string { return "run-test" }),
	)
	snap := b.BuildSnapshot(fixtures.Default(1, testNow))
	return &snap
}

type testEnv struct {
	handler   http.Handler
	handlers  *Handlers
	collector *fakeCollector
	store     *tasks.MemoryStore
}

func setupTestServer(t *testing.T, snap *outreach.Snapshot, responder agent.Responder) *testEnv {
	t.Helper()
	collector := &fakeCollector{snap: snap}
	store := tasks.NewMemoryStore()
	h := NewHandlers(collector, store, agent.NewRouter(responder))
	h.now = func() time.Time { return testNow }
	hc := NewHealthChecker(nil, nil, collector, 0)
	return &testEnv{
		handler:   SetupRoutes(h, hc, nil),
		handlers:  h,
		collector: collector,
		store:     store,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var status HealthStatus
	decode(t, rec, &status)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "up", status.Checks["collector"].Status)
	assert.Equal(t, notConfigured, status.Checks["database"].Message)
	assert.Equal(t, "outreach-monitor-v1", rec.Header().Get("X-Server-Identity"))

	rec = env.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestReadinessBeforeFirstSnapshot(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}

func TestHealthDegradedAfterFailedRefresh(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)
	env.collector.status.LastError = "fetching campaigns: 502"

	rec := env.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestGetDashboard(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	rec := env.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID           string                            `json:"run_id"`
		Portfolio       classifier.Portfolio              `json:"portfolio"`
		Classifications []classifier.ClientClassification `json:"classifications"`
		Tasks           tasks.TaskList                    `json:"tasks"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "run-test", body.RunID)
	assert.Len(t, body.Classifications, 8)
	assert.Equal(t, 8, body.Portfolio.Clients)
	assert.NotEmpty(t, body.Tasks.Daily)
	assert.NotEmpty(t, body.Tasks.Weekly)
	// Most urgent bucket first
	assert.Equal(t, classifier.DeliverabilityIssue, body.Classifications[0].Bucket)
}

func TestNotReady(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	for _, path := range []string{"/api/dashboard", "/api/classifications", "/api/clients/globex", "/api/tasks"} {
		rec := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestGetClassificationsFilter(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	var body struct {
		Count           int                               `json:"count"`
		Classifications []classifier.ClientClassification `json:"classifications"`
	}
	rec := env.do(t, http.MethodGet, "/api/classifications?bucket=COPY_ISSUE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "globex", body.Classifications[0].ClientID)

	rec = env.do(t, http.MethodGet, "/api/classifications?bucket=PERFORMING_WELL&severity=medium", "")
	decode(t, rec, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "hooli", body.Classifications[0].ClientID)

	rec = env.do(t, http.MethodGet, "/api/classifications?bucket=BOGUS", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/classifications?severity=urgent", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetClient(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	rec := env.do(t, http.MethodGet, "/api/clients/hooli", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail ClientDetail
	decode(t, rec, &detail)
	assert.Equal(t, "Hooli", detail.Classification.ClientName)
	require.NotNil(t, detail.Inbox)
	assert.Equal(t, 4, detail.Inbox.Inboxes)
	require.NotNil(t, detail.Trend)
	assert.Equal(t, "down", detail.Trend.Direction)
	for _, task := range detail.Tasks {
		assert.Equal(t, "hooli", task.ClientID)
	}

	rec = env.do(t, http.MethodGet, "/api/clients/initrode", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskCompletionFlow(t *testing.T) {
	snap := testSnapshot()
	env := setupTestServer(t, snap, nil)
	require.NotEmpty(t, snap.Tasks.Daily)
	taskID := snap.Tasks.Daily[0].ID

	rec := env.do(t, http.MethodPost, "/api/tasks/"+taskID+"/complete", `{"completed_by":"ops@agency.example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var task tasks.AutoTask
	decode(t, rec, &task)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, testNow, task.CompletedAt.UTC())

	// Generated tasks are untouched; completion lives in the store
	assert.False(t, snap.Tasks.Daily[0].Completed)

	var list struct {
		Tasks []tasks.AutoTask `json:"tasks"`
	}
	rec = env.do(t, http.MethodGet, "/api/tasks?type=daily&pending=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Len(t, list.Tasks, len(snap.Tasks.Daily)-1)

	rec = env.do(t, http.MethodDelete, "/api/tasks/"+taskID+"/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &task)
	assert.False(t, task.Completed)

	done, err := env.store.Completions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestCompleteTaskWithoutBody(t *testing.T) {
	snap := testSnapshot()
	env := setupTestServer(t, snap, nil)

	rec := env.do(t, http.MethodPost, "/api/tasks/"+snap.Tasks.Weekly[0].ID+"/complete", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskErrors(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	rec := env.do(t, http.MethodPost, "/api/tasks/nope-daily-0/complete", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/tasks/nope-daily-0/complete", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/tasks?type=monthly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingStore struct{}

func (failingStore) Complete(context.Context, tasks.Completion) error { return errors.New("redis: connection refused 10.0.0.7:6379") }
func (failingStore) Reopen(context.Context, string) error             { return errors.New("redis: connection refused 10.0.0.7:6379") }
func (failingStore) Completions(context.Context) (map[string]tasks.Completion, error) {
	return nil, errors.New("redis: connection refused 10.0.0.7:6379")
}

func TestCompletionStoreFailureIsSanitized(t *testing.T) {
	collector := &fakeCollector{snap: testSnapshot()}
	h := NewHandlers(collector, failingStore{}, nil)
	handler := SetupRoutes(h, NewHealthChecker(nil, nil, collector, 0), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
	assert.Contains(t, rec.Body.String(), "Service temporarily unavailable")
}

func TestQuery(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	rec := env.do(t, http.MethodPost, "/api/query", `{"query":"Any disconnected inboxes?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res agent.QueryResult
	decode(t, rec, &res)
	assert.Equal(t, "inbox_issues", res.Intent)
	assert.Contains(t, res.Response, "sender1@acme-logistics.example.com")
	assert.Empty(t, res.Error)

	rec = env.do(t, http.MethodPost, "/api/query", `{"query":"how is globex doing"}`)
	decode(t, rec, &res)
	assert.Equal(t, "client_detail", res.Intent)
	assert.Contains(t, res.Response, "Copy Issue")
}

func TestQueryValidation(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/query", `{"query":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/query", `{nope`).Code)
	long := `{"query":"` + strings.Repeat("a", maxQueryLength+1) + `"}`
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/query", long).Code)

	rec := env.do(t, http.MethodPost, "/api/query", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"bad_request"`)
}

func TestQueryWithoutResponder(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	rec := env.do(t, http.MethodPost, "/api/query", `{"query":"what's the weather"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res agent.QueryResult
	decode(t, rec, &res)
	assert.Equal(t, agent.ErrNoResponder.Error(), res.Error)
	assert.Equal(t, agent.SourceResponder, res.Source)
}

// blockingResponder waits for the request context to end
type blockingResponder struct{}

func (blockingResponder) Respond(ctx context.Context, _ string, _ *agent.ContextBundle) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestQueryTimeout(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), blockingResponder{})
	env.handlers.SetQueryTimeout(20 * time.Millisecond)

	rec := env.do(t, http.MethodPost, "/api/query", `{"query":"what's the weather"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res agent.QueryResult
	decode(t, rec, &res)
	assert.Equal(t, "query timed out", res.Error)
}

func TestQueryBeforeFirstSnapshot(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/query", `{"query":"portfolio overview"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res agent.QueryResult
	decode(t, rec, &res)
	assert.Equal(t, "portfolio", res.Intent)
}

func TestRefresh(t *testing.T) {
	env := setupTestServer(t, testSnapshot(), nil)

	rec := env.do(t, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-test"`)
	assert.Equal(t, 1, env.collector.refreshed)

	env.collector.refreshErr = errors.New("fetching campaigns: dial tcp 10.1.2.3:443: connection refused")
	rec = env.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.1.2.3")

	env.collector.refreshErr = distlock.ErrNotAcquired
	rec = env.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetBenchmarks(t *testing.T) {
	env := setupTestServer(t, nil, nil)
	custom := classifier.DefaultBenchmarks()
	custom.MinVolume = 2500
	env.handlers.SetBenchmarks(custom, classifier.DefaultWeights())

	rec := env.do(t, http.MethodGet, "/api/benchmarks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Benchmarks classifier.Benchmarks `json:"benchmarks"`
		Weights    classifier.Weights    `json:"health_weights"`
	}
	decode(t, rec, &body)
	assert.Equal(t, int64(2500), body.Benchmarks.MinVolume)
	assert.InDelta(t, 1.0, body.Weights.Sum(), 0.001)
}

func TestCORS(t *testing.T) {
	collector := &fakeCollector{snap: testSnapshot()}
	handler := SetupRoutes(NewHandlers(collector, nil, nil), NewHealthChecker(nil, nil, collector, 0), []string{"https://ops.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSafeErrorMessage(t *testing.T) {
	tests := []struct {
		code int
		err  error
		want string
	}{
		{400, errors.New("bad bucket"), "bad bucket"},
		{500, nil, "An internal error occurred"},
		{502, errors.New("dial tcp 1.2.3.4:443: connection refused"), "Service temporarily unavailable"},
		{504, context.DeadlineExceeded, "Request timed out"},
		{502, errors.New("outreach: unauthorized"), "Upstream access denied"},
		{500, errors.New("dynamodb: throttled"), "A storage error occurred"},
		{500, errors.New("something odd"), "An internal error occurred"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeErrorMessage(tt.code, tt.err))
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "45s", formatUptime(45*time.Second))
	assert.Equal(t, "2m 5s", formatUptime(125*time.Second))
	assert.Equal(t, "1h 0m 0s", formatUptime(time.Hour))
	assert.Equal(t, "2d 3h 0m", formatUptime(51*time.Hour))
}
