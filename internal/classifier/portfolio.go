package classifier

import "github.com/ignite/outreach-monitor/internal/metrics"

// Portfolio is the account-wide aggregate across every classified client.
type Portfolio struct {
	Clients        int   `json:"clients"`
	TotalSent      int64 `json:"total_sent"`
	TotalReplied   int64 `json:"total_replied"`
	TotalBounced   int64 `json:"total_bounced"`
	TotalPositive  int64 `json:"total_positive_replies"`
	Opportunities  int64 `json:"opportunities"`
	MeetingsBooked int64 `json:"meetings_booked"`
	Uncontacted    int64 `json:"uncontacted_leads"`

	ReplyRate      float64 `json:"reply_rate"`
	BounceRate     float64 `json:"bounce_rate"`
	ConversionRate float64 `json:"conversion_rate"`

	AvgReplyRate   float64 `json:"avg_reply_rate"`
	AvgInboxHealth float64 `json:"avg_inbox_health"`
	AvgHealthScore float64 `json:"avg_health_score"`
	HealthScore    int     `json:"health_score"`

	ByBucket   map[string]int `json:"by_bucket"`
	BySeverity map[string]int `json:"by_severity"`
}

// SummarizePortfolio sums counts and averages per-client figures. Rates on
// the summed counts are weighted by volume; the Avg* fields weight every
// client equally.
func SummarizePortfolio(cls []ClientClassification, b Benchmarks, w Weights) Portfolio {
	p := Portfolio{
		Clients:    len(cls),
		ByBucket:   make(map[string]int, bucketCount),
		BySeverity: make(map[string]int, 4),
	}
	for _, bk := range AllBuckets() {
		p.ByBucket[bk.String()] = 0
	}
	for s := Low; s <= Critical; s++ {
		p.BySeverity[s.String()] = 0
	}
	if len(cls) == 0 {
		return p
	}

	var replySum, inboxSum, scoreSum float64
	var combined metrics.ClientMetrics
	for _, c := range cls {
		m := c.Metrics
		p.TotalSent += m.TotalSent
		p.TotalReplied += m.TotalReplied
		p.TotalBounced += m.TotalBounced
		p.TotalPositive += m.PositiveReplies
		p.Opportunities += m.Opportunities
		p.MeetingsBooked += m.MeetingsBooked
		p.Uncontacted += m.UncontactedLeads

		replySum += m.ReplyRate
		inboxSum += m.AvgInboxHealth
		scoreSum += float64(c.HealthScore)

		p.ByBucket[c.Bucket.String()]++
		p.BySeverity[c.Severity.String()]++
	}

	n := float64(len(cls))
	p.ReplyRate = metrics.Percent(p.TotalReplied, p.TotalSent)
	p.BounceRate = metrics.Percent(p.TotalBounced, p.TotalSent)
	p.ConversionRate = metrics.Percent(p.Opportunities, p.TotalPositive)
	p.AvgReplyRate = metrics.Round2(replySum / n)
	p.AvgInboxHealth = metrics.Round2(inboxSum / n)
	p.AvgHealthScore = metrics.Round2(scoreSum / n)

	combined.ReplyRate = p.ReplyRate
	combined.BounceRate = p.BounceRate
	combined.ConversionRate = p.ConversionRate
	combined.AvgInboxHealth = p.AvgInboxHealth
	combined.PosReplyToMeeting = metrics.Percent(p.MeetingsBooked, p.TotalPositive)
	p.HealthScore = HealthScore(combined, b, w)

	return p
}
