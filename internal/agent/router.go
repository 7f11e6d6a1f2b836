// Package agent answers operational questions about the portfolio. A query
// is matched against an ordered list of keyword intents, each rendering a
// report from the current snapshot; queries no intent claims go to a
// generative Responder.
package agent

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/metrics"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/ignite/outreach-monitor/internal/tasks"
)

// ErrNoResponder is reported when no intent matches and no fallback
// responder is configured.
var ErrNoResponder = errors.New("no responder configured for unmatched queries")

// Result sources.
const (
	SourceIntent    = "intent"
	SourceResponder = "responder"
)

// IntentFallback is the intent name reported for responder answers.
const IntentFallback = "fallback"

// ContextBundle is the read-only state a query is answered from.
type ContextBundle struct {
	Classifications []classifier.ClientClassification `json:"classifications"`
	Inbox           metrics.InboxHealthSummary        `json:"inbox"`
	Trends          metrics.WeeklyTrendSummary        `json:"trends"`
	Tasks           tasks.TaskList                    `json:"tasks"`
	Benchmarks      classifier.Benchmarks             `json:"benchmarks"`
	Portfolio       classifier.Portfolio              `json:"portfolio"`
	GeneratedAt     time.Time                         `json:"generated_at"`
}

// QueryResult is the answer to one query.
type QueryResult struct {
	Response string `json:"response"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Intent   string `json:"intent"`
	Source   string `json:"source"`
}

// Responder answers queries no intent matched.
type Responder interface {
	Respond(ctx context.Context, query string, bundle *ContextBundle) (string, error)
}

// WithTimeout bounds every Respond call of r to d. A nil r or a
// non-positive d returns r unchanged.
func WithTimeout(r Responder, d time.Duration) Responder {
	if r == nil || d <= 0 {
		return r
	}
	return timeoutResponder{next: r, timeout: d}
}

type timeoutResponder struct {
	next    Responder
	timeout time.Duration
}

func (t timeoutResponder) Respond(ctx context.Context, query string, bundle *ContextBundle) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Respond(ctx, query, bundle)
}

// Intent is one keyword rule. Match receives the lower-cased query.
type Intent struct {
	Name   string
	Match  func(q string, b *ContextBundle) bool
	Handle func(q string, b *ContextBundle) (string, any)
}

// Router dispatches queries to the first matching intent.
type Router struct {
	intents   []Intent
	responder Responder
}

// NewRouter creates a Router with the standard intents. responder may be nil.
func NewRouter(responder Responder) *Router {
	return &Router{intents: DefaultIntents(), responder: responder}
}

// DefaultIntents returns the intents in evaluation order. Earlier intents
// shadow later ones.
func DefaultIntents() []Intent {
	return []Intent{
		{Name: "benchmarks", Match: keywords("benchmark"), Handle: benchmarksReport},
		{Name: "meeting_ratio", Match: meetingRatioMatch, Handle: meetingRatioReport},
		{Name: "inbox_issues", Match: keywords("disconnect", "sending error", "inbox"), Handle: inboxReport},
		{Name: "declining_trends", Match: keywords("trend", "downward", "declin"), Handle: trendsReport},
		{Name: "deliverability", Match: keywords("bounce", "deliverab", "spam"), Handle: deliverabilityReport},
		{Name: "tam", Match: keywords("tam", "uncontacted", "leads left"), Handle: tamReport},
		{Name: "too_early", Match: keywords("too early", "ramp", "new client"), Handle: tooEarlyReport},
		{Name: "tasks", Match: keywords("task", "to do", "todo", "action item"), Handle: tasksReport},
		{Name: "reply_rate", Match: keywords("reply rate", "copy", "lowest repl"), Handle: replyRateReport},
		{Name: "top_performers", Match: keywords("performing well", "top", "best"), Handle: topPerformersReport},
		{Name: "portfolio", Match: keywords("portfolio", "overview", "summary", "health score"), Handle: portfolioReport},
		{Name: "client_detail", Match: func(q string, b *ContextBundle) bool {
			_, ok := mentionedClient(q, b)
			return ok
		}, Handle: clientDetailReport},
	}
}

// Intents lists intent names in evaluation order.
func (r *Router) Intents() []string {
	names := make([]string, len(r.intents))
	for i, in := range r.intents {
		names[i] = in.Name
	}
	return names
}

// Route answers query from bundle. Intent reports are rebuilt on every call.
func (r *Router) Route(ctx context.Context, query string, bundle *ContextBundle) QueryResult {
	if bundle == nil {
		bundle = &ContextBundle{}
	}
	q := strings.ToLower(strings.TrimSpace(query))

	for _, in := range r.intents {
		if in.Match(q, bundle) {
			resp, data := in.Handle(q, bundle)
			logger.Debug("query routed", "intent", in.Name)
			return QueryResult{Response: resp, Data: data, Intent: in.Name, Source: SourceIntent}
		}
	}

	res := QueryResult{Intent: IntentFallback, Source: SourceResponder}
	if r.responder == nil {
		res.Response = noResponderMessage
		res.Error = ErrNoResponder.Error()
		return res
	}
	answer, err := r.responder.Respond(ctx, query, bundle)
	if err != nil {
		logger.Warn("responder failed", "error", err)
		res.Error = err.Error()
		return res
	}
	res.Response = answer
	return res
}

const noResponderMessage = "I can answer questions about benchmarks, meeting ratios, inboxes, trends, " +
	"deliverability, TAM, ramping clients, tasks, reply rates, top performers, the portfolio, " +
	"or a specific client by name."

func keywords(words ...string) func(string, *ContextBundle) bool {
	return func(q string, _ *ContextBundle) bool {
		return containsAny(q, words)
	}
}

func meetingRatioMatch(q string, _ *ContextBundle) bool {
	return strings.Contains(q, "40%") || (strings.Contains(q, "reply") && strings.Contains(q, "meeting"))
}

// mentionedClient finds the classified client whose name appears in q,
// preferring the longest name so "Acme Labs" wins over "Acme".
func mentionedClient(q string, b *ContextBundle) (classifier.ClientClassification, bool) {
	var best classifier.ClientClassification
	bestLen := 0
	for _, c := range b.Classifications {
		name := strings.ToLower(strings.TrimSpace(c.ClientName))
		if name == "" || !strings.Contains(q, name) {
			continue
		}
		if len(name) > bestLen {
			best, bestLen = c, len(name)
		}
	}
	return best, bestLen > 0
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// sortedCopy returns a copy of cls sorted with less, ties broken by name.
func sortedCopy(cls []classifier.ClientClassification, less func(a, b classifier.ClientClassification) bool) []classifier.ClientClassification {
	out := make([]classifier.ClientClassification, len(cls))
	copy(out, cls)
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ClientName < out[j].ClientName
	})
	return out
}
