package metrics

import "math"

// CampaignCounts holds the summed counters reported for a single campaign.
type CampaignCounts struct {
	Sent            int64 `json:"sent"`
	Opened          int64 `json:"opened"`
	Replied         int64 `json:"replied"`
	Bounced         int64 `json:"bounced"`
	Leads           int64 `json:"leads"`
	Contacted       int64 `json:"contacted"`
	PositiveReplies int64 `json:"positive_replies"`
	Opportunities   int64 `json:"opportunities"`
	MeetingsBooked  int64 `json:"meetings_booked"`
}

// CampaignRecord is one campaign belonging to a client. Analytics is nil when
// the upstream platform returned no analytics for the campaign.
type CampaignRecord struct {
	CampaignID string          `json:"campaign_id"`
	Name       string          `json:"name"`
	Active     bool            `json:"active"`
	Analytics  *CampaignCounts `json:"analytics,omitempty"`
}

// ClientMetrics is the normalized metrics tuple for one client. Rates are
// percentages rounded to two decimals.
type ClientMetrics struct {
	TotalSent       int64 `json:"total_sent"`
	TotalOpened     int64 `json:"total_opened"`
	TotalReplied    int64 `json:"total_replied"`
	TotalBounced    int64 `json:"total_bounced"`
	TotalLeads      int64 `json:"total_leads"`
	ContactedCount  int64 `json:"contacted_count"`
	PositiveReplies int64 `json:"positive_replies"`
	Opportunities   int64 `json:"opportunities"`
	MeetingsBooked  int64 `json:"meetings_booked"`

	ReplyRate         float64 `json:"reply_rate"`
	OpenRate          float64 `json:"open_rate"`
	BounceRate        float64 `json:"bounce_rate"`
	ConversionRate    float64 `json:"conversion_rate"`
	PositiveReplyRate float64 `json:"positive_reply_rate"`
	PosReplyToMeeting float64 `json:"pos_reply_to_meeting"`

	UncontactedLeads int64   `json:"uncontacted_leads"`
	AvgInboxHealth   float64 `json:"avg_inbox_health"`

	CampaignCount   int  `json:"campaign_count"`
	ActiveCampaigns int  `json:"active_campaigns"`
	InboxCount      int  `json:"inbox_count"`
	HasInboxData    bool `json:"has_inbox_data"`
}

// NeutralInboxHealth is reported for clients with no sending inboxes on
// record. Missing inbox data is not evidence of poor health.
const NeutralInboxHealth = 100.0

// Aggregate sums every counter across the client's campaigns and derives the
// rate fields. inboxScores are the health scores (0-100) of the client's
// sending inboxes.
func Aggregate(campaigns []CampaignRecord, inboxScores []float64) ClientMetrics {
	var m ClientMetrics
	m.CampaignCount = len(campaigns)

	for _, c := range campaigns {
		if c.Active {
			m.ActiveCampaigns++
		}
		a := c.Analytics
		if a == nil {
			continue
		}
		m.TotalSent += nonNegative(a.Sent)
		m.TotalOpened += nonNegative(a.Opened)
		m.TotalReplied += nonNegative(a.Replied)
		m.TotalBounced += nonNegative(a.Bounced)
		m.TotalLeads += nonNegative(a.Leads)
		m.ContactedCount += nonNegative(a.Contacted)
		m.PositiveReplies += nonNegative(a.PositiveReplies)
		m.Opportunities += nonNegative(a.Opportunities)
		m.MeetingsBooked += nonNegative(a.MeetingsBooked)
	}

	m.ReplyRate = Percent(m.TotalReplied, m.TotalSent)
	m.OpenRate = Percent(m.TotalOpened, m.TotalSent)
	m.BounceRate = Percent(m.TotalBounced, m.TotalSent)
	m.ConversionRate = Percent(m.Opportunities, m.PositiveReplies)
	m.PositiveReplyRate = Percent(m.PositiveReplies, m.TotalReplied)
	m.PosReplyToMeeting = Percent(m.MeetingsBooked, m.PositiveReplies)

	if m.TotalLeads > m.ContactedCount {
		m.UncontactedLeads = m.TotalLeads - m.ContactedCount
	}

	m.InboxCount = len(inboxScores)
	m.HasInboxData = len(inboxScores) > 0
	m.AvgInboxHealth = averageHealth(inboxScores)

	return m
}

// Percent returns num/den as a percentage rounded to two decimals, or 0 when
// den is zero.
func Percent(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return Round2(float64(num) / float64(den) * 100)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	// Nudge by a sub-ulp epsilon so values like 1.005 that are stored just
	// below the midpoint still round up.
	scaled := v * 100
	if scaled >= 0 {
		return math.Floor(scaled+0.5+1e-9) / 100
	}
	return -math.Floor(-scaled+0.5+1e-9) / 100
}

func averageHealth(scores []float64) float64 {
	if len(scores) == 0 {
		return NeutralInboxHealth
	}
	var sum float64
	for _, s := range scores {
		sum += clampScore(s)
	}
	return Round2(sum / float64(len(scores)))
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Negative upstream counters are treated as missing data.
func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
