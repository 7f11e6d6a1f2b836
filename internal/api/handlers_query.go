package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/outreach-monitor/internal/agent"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
)

// QueryRequest is the body of /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

const maxQueryLength = 2000

// Query answers a natural-language operational question from the latest
// snapshot. Unmatched queries go to the configured responder.
//
//	POST /api/query
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(query) > maxQueryLength {
		respondError(w, http.StatusBadRequest, "query is too long")
		return
	}

	bundle := &agent.ContextBundle{Benchmarks: h.benchmarks}
	if snap, ok := h.collector.Latest(); ok {
		list, err := h.taskList(r.Context(), snap)
		if err != nil {
			respondSafeError(w, http.StatusInternalServerError, err, "")
			return
		}
		bundle = &agent.ContextBundle{
			Classifications: snap.Classifications,
			Inbox:           snap.Inbox,
			Trends:          snap.Trends,
			Tasks:           list,
			Benchmarks:      snap.Benchmarks,
			Portfolio:       snap.Portfolio,
			GeneratedAt:     snap.GeneratedAt,
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	result := h.router.Route(ctx, query, bundle)
	if result.Error != "" && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Error = "query timed out"
	}
	respondJSON(w, http.StatusOK, result)
}
