package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/outreach-monitor/internal/agent"
	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/outreach"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/tasks"
)

// SnapshotSource is the collector surface the handlers read from.
// *outreach.Collector satisfies it.
type SnapshotSource interface {
	Latest() (*outreach.Snapshot, bool)
	Refresh(ctx context.Context) (*outreach.Snapshot, error)
	Status() outreach.CollectorStatus
}

// Handlers contains all HTTP handlers
type Handlers struct {
	collector    SnapshotSource
	completions  tasks.CompletionStore
	router       *agent.Router
	benchmarks   classifier.Benchmarks
	weights      classifier.Weights
	queryTimeout time.Duration
	now          func() time.Time
}

// NewHandlers creates a new Handlers instance. A nil completion store keeps
// completions in memory; a nil router answers with intents only.
func NewHandlers(collector SnapshotSource, completions tasks.CompletionStore, router *agent.Router) *Handlers {
	if completions == nil {
		completions = tasks.NewMemoryStore()
	}
	if router == nil {
		router = agent.NewRouter(nil)
	}
	return &Handlers{
		collector:    collector,
		completions:  completions,
		router:       router,
		benchmarks:   classifier.DefaultBenchmarks(),
		weights:      classifier.DefaultWeights(),
		queryTimeout: 30 * time.Second,
		now:          time.Now,
	}
}

// SetBenchmarks sets the benchmarks reported by /api/benchmarks before the
// first snapshot exists.
func (h *Handlers) SetBenchmarks(b classifier.Benchmarks, w classifier.Weights) {
	h.benchmarks = b
	h.weights = w
}

// SetQueryTimeout bounds each /api/query call.
func (h *Handlers) SetQueryTimeout(d time.Duration) {
	if d > 0 {
		h.queryTimeout = d
	}
}

// latest writes 503 and returns false when no snapshot has been built yet.
func (h *Handlers) latest(w http.ResponseWriter) (*outreach.Snapshot, bool) {
	snap, ok := h.collector.Latest()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "data not loaded yet, retry after the first refresh")
		return nil, false
	}
	return snap, true
}

// taskList merges stored completions into the snapshot's generated tasks.
func (h *Handlers) taskList(ctx context.Context, snap *outreach.Snapshot) (tasks.TaskList, error) {
	done, err := h.completions.Completions(ctx)
	if err != nil {
		return tasks.TaskList{}, err
	}
	return tasks.ApplyCompletions(snap.Tasks, done), nil
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.JSON(w, status, data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	httputil.Error(w, status, message)
}
