package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/metrics"
	"github.com/ignite/outreach-monitor/internal/pkg/distlock"
	"github.com/ignite/outreach-monitor/internal/tasks"
)

// GetDashboard returns everything the dashboard renders in one call.
//
//	GET /api/dashboard
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w)
	if !ok {
		return
	}
	list, err := h.taskList(r.Context(), snap)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":          snap.RunID,
		"generated_at":    snap.GeneratedAt,
		"portfolio":       snap.Portfolio,
		"classifications": snap.Classifications,
		"tasks":           list,
		"inbox":           snap.Inbox,
		"trends":          snap.Trends,
		"benchmarks":      snap.Benchmarks,
		"collector":       h.collector.Status(),
	})
}

// GetClassifications lists classifications, optionally filtered by
// ?bucket=COPY_ISSUE and ?severity=critical.
//
//	GET /api/classifications
func (h *Handlers) GetClassifications(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w)
	if !ok {
		return
	}

	keep := func(classifier.ClientClassification) bool { return true }
	if v := r.URL.Query().Get("bucket"); v != "" {
		b, err := classifier.ParseBucket(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		prev := keep
		keep = func(c classifier.ClientClassification) bool { return prev(c) && c.Bucket == b }
	}
	if v := r.URL.Query().Get("severity"); v != "" {
		s, err := classifier.ParseSeverity(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		prev := keep
		keep = func(c classifier.ClientClassification) bool { return prev(c) && c.Severity == s }
	}

	out := []classifier.ClientClassification{}
	for _, c := range snap.Classifications {
		if keep(c) {
			out = append(out, c)
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at":    snap.GeneratedAt,
		"count":           len(out),
		"classifications": out,
	})
}

// ClientDetail is one client's full picture.
type ClientDetail struct {
	Classification classifier.ClientClassification `json:"classification"`
	Tasks          []tasks.AutoTask                `json:"tasks"`
	Inbox          *metrics.ClientInboxHealth      `json:"inbox,omitempty"`
	Trend          *metrics.ClientTrend            `json:"trend,omitempty"`
}

// GetClient returns one client's classification, tasks, inbox and trend.
//
//	GET /api/clients/{clientId}
func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w)
	if !ok {
		return
	}
	clientID := chi.URLParam(r, "clientId")
	c, found := snap.Classification(clientID)
	if !found {
		respondError(w, http.StatusNotFound, "client not found: "+clientID)
		return
	}

	list, err := h.taskList(r.Context(), snap)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "")
		return
	}

	detail := ClientDetail{Classification: c, Tasks: []tasks.AutoTask{}}
	for _, t := range list.All() {
		if t.ClientID == clientID {
			detail.Tasks = append(detail.Tasks, t)
		}
	}
	for i := range snap.Inbox.ByClient {
		if snap.Inbox.ByClient[i].ClientID == clientID {
			detail.Inbox = &snap.Inbox.ByClient[i]
			break
		}
	}
	for i := range snap.Trends.Clients {
		if snap.Trends.Clients[i].ClientID == clientID {
			detail.Trend = &snap.Trends.Clients[i]
			break
		}
	}
	respondJSON(w, http.StatusOK, detail)
}

// GetBenchmarks returns the active benchmarks and health score weights.
//
//	GET /api/benchmarks
func (h *Handlers) GetBenchmarks(w http.ResponseWriter, r *http.Request) {
	bench := h.benchmarks
	if snap, ok := h.collector.Latest(); ok {
		bench = snap.Benchmarks
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"benchmarks":     bench,
		"health_weights": h.weights,
	})
}

// Refresh rebuilds the snapshot now. When another instance holds the
// refresh lock the archived snapshot is returned instead.
//
//	POST /api/refresh
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.collector.Refresh(r.Context())
	if errors.Is(err, distlock.ErrNotAcquired) {
		respondError(w, http.StatusConflict, "refresh already in progress")
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusBadGateway, err, "refresh failed: "+safeErrorMessage(http.StatusBadGateway, err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       snap.RunID,
		"generated_at": snap.GeneratedAt,
		"clients":      len(snap.Classifications),
		"collector":    h.collector.Status(),
	})
}
