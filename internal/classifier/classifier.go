// Package classifier assigns every client exactly one issue bucket and
// severity using an ordered, first-match-wins rule chain, and computes the
// weighted portfolio health score.
package classifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ignite/outreach-monitor/internal/metrics"
)

// AutoTaskStub is the headline action attached to a classification.
type AutoTaskStub struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// ClientClassification is the result of classifying one client.
type ClientClassification struct {
	ClientID    string                `json:"client_id"`
	ClientName  string                `json:"client_name"`
	Bucket      Bucket                `json:"bucket"`
	Severity    Severity              `json:"severity"`
	Reasons     []string              `json:"reasons"`
	Reason      string                `json:"reason"`
	HealthScore int                   `json:"health_score"`
	Metrics     metrics.ClientMetrics `json:"metrics"`
	AutoTask    AutoTaskStub          `json:"auto_task"`
	AnalyzedAt  time.Time             `json:"analyzed_at"`
}

// ClientInput is one client's metrics awaiting classification.
type ClientInput struct {
	ClientID   string
	ClientName string
	Metrics    metrics.ClientMetrics
}

// Classifier evaluates the rule chain against a fixed benchmark set.
type Classifier struct {
	bench   Benchmarks
	weights Weights
	now     func() time.Time
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithWeights overrides the health score weights.
func WithWeights(w Weights) Option {
	return func(c *Classifier) { c.weights = w }
}

// WithClock overrides the clock used for AnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// New creates a Classifier. b is used as given, so a zero field is a zero
// threshold; an entirely empty Benchmarks means DefaultBenchmarks.
func New(b Benchmarks, opts ...Option) *Classifier {
	if b == (Benchmarks{}) {
		b = DefaultBenchmarks()
	}
	c := &Classifier{
		bench:   b,
		weights: DefaultWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.weights.IsZero() {
		c.weights = DefaultWeights()
	}
	return c
}

// Benchmarks returns the benchmark set in use.
func (c *Classifier) Benchmarks() Benchmarks { return c.bench }

// Weights returns the health score weights in use.
func (c *Classifier) Weights() Weights { return c.weights }

// Classify assigns one bucket, severity and reason to a client.
func (c *Classifier) Classify(clientID, clientName string, m metrics.ClientMetrics) ClientClassification {
	bucket, severity, reasons := c.evaluate(m)
	return ClientClassification{
		ClientID:    clientID,
		ClientName:  clientName,
		Bucket:      bucket,
		Severity:    severity,
		Reasons:     reasons,
		Reason:      strings.Join(reasons, "; "),
		HealthScore: HealthScore(m, c.bench, c.weights),
		Metrics:     m,
		AutoTask: AutoTaskStub{
			Title:    fmt.Sprintf("%s for %s", bucket.Action(), clientName),
			Category: bucket.Category(),
		},
		AnalyzedAt: c.now().UTC(),
	}
}

// ClassifyAll classifies every client and returns them most urgent first.
// All classifications in a batch share one AnalyzedAt.
func (c *Classifier) ClassifyAll(clients []ClientInput) []ClientClassification {
	at := c.now()
	fixed := &Classifier{bench: c.bench, weights: c.weights, now: func() time.Time { return at }}

	out := make([]ClientClassification, 0, len(clients))
	for _, in := range clients {
		out = append(out, fixed.Classify(in.ClientID, in.ClientName, in.Metrics))
	}
	SortByUrgency(out)
	return out
}

// SortByUrgency orders classifications by bucket rank, then severity
// (highest first), then client name.
func SortByUrgency(cls []ClientClassification) {
	sort.SliceStable(cls, func(i, j int) bool {
		a, b := cls[i], cls[j]
		if a.Bucket.Rank() != b.Bucket.Rank() {
			return a.Bucket.Rank() < b.Bucket.Rank()
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.ClientName < b.ClientName
	})
}

// evaluate runs the rule chain. Order matters: data sufficiency and
// deliverability gate every downstream signal, and top-of-funnel reply
// problems mask funnel problems, so they are checked first.
func (c *Classifier) evaluate(m metrics.ClientMetrics) (Bucket, Severity, []string) {
	b := c.bench

	if m.TotalSent < b.MinVolume {
		return TooEarly, Low, []string{
			fmt.Sprintf("Only %d emails sent (< %d): insufficient volume for analysis", m.TotalSent, b.MinVolume),
		}
	}

	highBounce := m.BounceRate > b.MaxBounceRate
	lowInbox := m.AvgInboxHealth < b.HealthyInboxThreshold
	if highBounce || lowInbox {
		var reasons []string
		if highBounce {
			reasons = append(reasons, fmt.Sprintf("Bounce rate %.2f%% exceeds %.2f%%", m.BounceRate, b.MaxBounceRate))
		}
		if lowInbox {
			reasons = append(reasons, fmt.Sprintf("Average inbox health %.2f is below %.0f", m.AvgInboxHealth, b.HealthyInboxThreshold))
		}
		sev := High
		if m.BounceRate > b.CriticalBounceRate || m.AvgInboxHealth < b.CriticalInboxHealth {
			sev = Critical
		}
		return DeliverabilityIssue, sev, reasons
	}

	if m.ReplyRate < b.CriticalReplyRate {
		sev := High
		if m.ReplyRate < b.SevereReplyRate {
			sev = Critical
		}
		return CopyIssue, sev, []string{
			fmt.Sprintf("Reply rate %.2f%% is below the %.2f%% floor", m.ReplyRate, b.CriticalReplyRate),
		}
	}

	goodReplies := m.ReplyRate >= b.GoodReplyRate

	if goodReplies && m.PosReplyToMeeting < b.MeetingRatioTarget {
		sev := Medium
		if m.PosReplyToMeeting < b.LowMeetingRatio {
			sev = High
		}
		return SubsequenceIssue, sev, []string{
			fmt.Sprintf("Reply rate %.2f%% meets benchmark", m.ReplyRate),
			fmt.Sprintf("Only %.2f%% of positive replies book meetings (target %.0f%%)", m.PosReplyToMeeting, b.MeetingRatioTarget),
		}
	}

	if m.TotalSent < b.ScaleVolume && goodReplies {
		return VolumeIssue, Medium, []string{
			fmt.Sprintf("Reply rate %.2f%% meets benchmark", m.ReplyRate),
			fmt.Sprintf("Only %d emails sent (< %d): volume is the constraint", m.TotalSent, b.ScaleVolume),
		}
	}

	if m.UncontactedLeads < b.WarningUncontacted {
		sev := High
		if m.UncontactedLeads < b.CriticalUncontacted {
			sev = Critical
		}
		return TAMExhausted, sev, []string{
			fmt.Sprintf("Only %d uncontacted leads remain (< %d)", m.UncontactedLeads, b.WarningUncontacted),
		}
	}

	if goodReplies && m.ConversionRate >= b.TargetConversion {
		return PerformingWell, Low, []string{
			fmt.Sprintf("Reply rate %.2f%% meets benchmark", m.ReplyRate),
			fmt.Sprintf("Conversion rate %.2f%% meets %.0f%% target", m.ConversionRate, b.TargetConversion),
		}
	}

	return PerformingWell, Medium, []string{"Metrics acceptable but improvable"}
}
