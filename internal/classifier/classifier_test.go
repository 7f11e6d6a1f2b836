package classifier

import (
	"testing"
	"time"

	"github.com/ignite/outreach-monitor/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return New(DefaultBenchmarks(), WithClock(func() time.Time { return fixedNow }))
}

// healthyMetrics passes every rule up to PERFORMING_WELL/low.
func healthyMetrics() metrics.ClientMetrics {
	return metrics.ClientMetrics{
		TotalSent:         20000,
		ReplyRate:         1.5,
		BounceRate:        1,
		AvgInboxHealth:    90,
		PosReplyToMeeting: 60,
		ConversionRate:    20,
		UncontactedLeads:  10000,
	}
}

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(m *metrics.ClientMetrics)
		bucket   Bucket
		severity Severity
	}{
		{
			name:     "A: low volume is too early",
			mutate:   func(m *metrics.ClientMetrics) { m.TotalSent = 500 },
			bucket:   TooEarly,
			severity: Low,
		},
		{
			name: "B: high bounce and poor inboxes is critical deliverability",
			mutate: func(m *metrics.ClientMetrics) {
				m.TotalSent = 50000
				m.BounceRate = 12
				m.AvgInboxHealth = 40
			},
			bucket:   DeliverabilityIssue,
			severity: Critical,
		},
		{
			name:     "C: very low reply rate is critical copy issue",
			mutate:   func(m *metrics.ClientMetrics) { m.ReplyRate = 0.25 },
			bucket:   CopyIssue,
			severity: Critical,
		},
		{
			name:     "D: good replies but few meetings is subsequence issue",
			mutate:   func(m *metrics.ClientMetrics) { m.PosReplyToMeeting = 15 },
			bucket:   SubsequenceIssue,
			severity: High,
		},
		{
			name:     "E: strong metrics perform well",
			mutate:   func(m *metrics.ClientMetrics) {},
			bucket:   PerformingWell,
			severity: Low,
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := healthyMetrics()
			tt.mutate(&m)

			got := c.Classify("client-1", "Acme", m)

			assert.Equal(t, tt.bucket, got.Bucket)
			assert.Equal(t, tt.severity, got.Severity)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestClassify_RuleChain(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(m *metrics.ClientMetrics)
		bucket   Bucket
		severity Severity
	}{
		{"bounce alone is high", func(m *metrics.ClientMetrics) { m.BounceRate = 7 }, DeliverabilityIssue, High},
		{"bounce over 10 is critical", func(m *metrics.ClientMetrics) { m.BounceRate = 10.5 }, DeliverabilityIssue, Critical},
		{"weak inboxes alone is high", func(m *metrics.ClientMetrics) { m.AvgInboxHealth = 65 }, DeliverabilityIssue, High},
		{"inbox under 50 is critical", func(m *metrics.ClientMetrics) { m.AvgInboxHealth = 49 }, DeliverabilityIssue, Critical},
		{"reply rate under floor is high", func(m *metrics.ClientMetrics) { m.ReplyRate = 0.4 }, CopyIssue, High},
		{"meeting ratio 30 is medium", func(m *metrics.ClientMetrics) { m.PosReplyToMeeting = 30 }, SubsequenceIssue, Medium},
		{"small volume with good replies", func(m *metrics.ClientMetrics) { m.TotalSent = 3000 }, VolumeIssue, Medium},
		{"few uncontacted leads", func(m *metrics.ClientMetrics) { m.UncontactedLeads = 1500 }, TAMExhausted, High},
		{"almost no uncontacted leads", func(m *metrics.ClientMetrics) { m.UncontactedLeads = 100 }, TAMExhausted, Critical},
		{"low conversion falls back", func(m *metrics.ClientMetrics) { m.ConversionRate = 5 }, PerformingWell, Medium},
		{"middling replies fall back", func(m *metrics.ClientMetrics) { m.ReplyRate = 0.8 }, PerformingWell, Medium},
		{"deliverability outranks copy", func(m *metrics.ClientMetrics) {
			m.BounceRate = 6
			m.ReplyRate = 0.1
		}, DeliverabilityIssue, High},
		{"copy outranks tam", func(m *metrics.ClientMetrics) {
			m.ReplyRate = 0.1
			m.UncontactedLeads = 0
		}, CopyIssue, Critical},
		{"middling replies skip volume rule", func(m *metrics.ClientMetrics) {
			m.ReplyRate = 0.8
			m.TotalSent = 3000
		}, PerformingWell, Medium},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := healthyMetrics()
			tt.mutate(&m)

			got := c.Classify("client-1", "Acme", m)

			assert.Equal(t, tt.bucket, got.Bucket, got.Reason)
			assert.Equal(t, tt.severity, got.Severity, got.Reason)
		})
	}
}

func TestClassify_BounceBoundaryIsStrict(t *testing.T) {
	c := newTestClassifier()

	m := healthyMetrics()
	m.BounceRate = 5.00
	assert.NotEqual(t, DeliverabilityIssue, c.Classify("c", "Acme", m).Bucket)

	m.BounceRate = 5.01
	assert.Equal(t, DeliverabilityIssue, c.Classify("c", "Acme", m).Bucket)
}

func TestClassify_VolumeGateIsMonotonic(t *testing.T) {
	c := newTestClassifier()

	m := healthyMetrics()
	m.TotalSent = 999
	require.Equal(t, TooEarly, c.Classify("c", "Acme", m).Bucket)

	for _, sent := range []int64{1000, 1001, 4999, 5000, 100000} {
		m.TotalSent = sent
		assert.NotEqual(t, TooEarly, c.Classify("c", "Acme", m).Bucket, "sent=%d", sent)
	}
}

func TestClassify_DeliverabilityListsEveryTrigger(t *testing.T) {
	m := healthyMetrics()
	m.BounceRate = 8
	m.AvgInboxHealth = 60

	got := newTestClassifier().Classify("c", "Acme", m)

	require.Len(t, got.Reasons, 2)
	assert.Contains(t, got.Reasons[0], "Bounce rate 8.00%")
	assert.Contains(t, got.Reasons[1], "inbox health 60.00")
	assert.Equal(t, got.Reasons[0]+"; "+got.Reasons[1], got.Reason)
}

func TestClassify_IsTotal(t *testing.T) {
	c := newTestClassifier()
	sents := []int64{0, 999, 1000, 4999, 5000, 50000}
	replies := []float64{0, 0.29, 0.3, 0.5, 0.99, 1, 3}
	bounces := []float64{0, 5, 5.01, 10, 10.01}
	inboxes := []float64{0, 49.99, 50, 69.99, 70, 100}
	meetings := []float64{0, 19.99, 20, 39.99, 40}
	leads := []int64{0, 499, 500, 1999, 2000}

	for _, s := range sents {
		for _, r := range replies {
			for _, b := range bounces {
				for _, in := range inboxes {
					for _, mt := range meetings {
						for _, l := range leads {
							m := metrics.ClientMetrics{
								TotalSent: s, ReplyRate: r, BounceRate: b, AvgInboxHealth: in,
								PosReplyToMeeting: mt, UncontactedLeads: l, ConversionRate: 15,
							}
							got := c.Classify("c", "Acme", m)
							if !got.Bucket.Valid() || !got.Severity.Valid() || got.Reason == "" {
								t.Fatalf("incomplete classification for %+v: %+v", m, got)
							}
						}
					}
				}
			}
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier()
	m := healthyMetrics()
	assert.Equal(t, c.Classify("c", "Acme", m), c.Classify("c", "Acme", m))
}

func TestClassify_PopulatesStubAndTimestamp(t *testing.T) {
	m := healthyMetrics()
	m.ReplyRate = 0.2

	got := newTestClassifier().Classify("acme", "Acme", m)

	assert.Equal(t, "acme", got.ClientID)
	assert.Equal(t, "Rewrite campaign copy for Acme", got.AutoTask.Title)
	assert.Equal(t, "copy", got.AutoTask.Category)
	assert.Equal(t, fixedNow, got.AnalyzedAt)
	assert.Equal(t, m, got.Metrics)
}

func TestClassifyAll_SortsByUrgency(t *testing.T) {
	healthy := healthyMetrics()
	copyHigh := healthyMetrics()
	copyHigh.ReplyRate = 0.4
	copyCritical := healthyMetrics()
	copyCritical.ReplyRate = 0.1
	early := healthyMetrics()
	early.TotalSent = 10

	got := newTestClassifier().ClassifyAll([]ClientInput{
		{ClientID: "w", ClientName: "Wonka", Metrics: healthy},
		{ClientID: "e", ClientName: "Early", Metrics: early},
		{ClientID: "b", ClientName: "Beta", Metrics: copyHigh},
		{ClientID: "a", ClientName: "Alpha", Metrics: copyCritical},
	})

	require.Len(t, got, 4)
	assert.Equal(t, []string{"Alpha", "Beta", "Early", "Wonka"},
		[]string{got[0].ClientName, got[1].ClientName, got[2].ClientName, got[3].ClientName})
}

func TestClassifyAll_Empty(t *testing.T) {
	got := newTestClassifier().ClassifyAll(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNew_EmptyBenchmarksUseDefaults(t *testing.T) {
	c := New(Benchmarks{})

	assert.Equal(t, DefaultBenchmarks(), c.Benchmarks())
	assert.Equal(t, DefaultWeights(), c.Weights())
}

func TestNew_KeepsExplicitZeroThreshold(t *testing.T) {
	b := DefaultBenchmarks()
	b.CriticalUncontacted = 0
	c := New(b, WithClock(func() time.Time { return fixedNow }))
	assert.Equal(t, int64(0), c.Benchmarks().CriticalUncontacted)

	// With no critical floor, a nearly exhausted TAM is only high severity
	m := healthyMetrics()
	m.UncontactedLeads = 100
	got := c.Classify("x", "X", m)
	assert.Equal(t, TAMExhausted, got.Bucket)
	assert.Equal(t, High, got.Severity)
}
