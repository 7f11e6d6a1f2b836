package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_SumsCampaignsAndDerivesRates(t *testing.T) {
	campaigns := []CampaignRecord{
		{CampaignID: "c1", Active: true, Analytics: &CampaignCounts{
			Sent: 10000, Opened: 4000, Replied: 150, Bounced: 100,
			Leads: 8000, Contacted: 5000, PositiveReplies: 40, Opportunities: 8, MeetingsBooked: 20,
		}},
		{CampaignID: "c2", Analytics: &CampaignCounts{
			Sent: 10000, Opened: 2000, Replied: 50, Bounced: 100,
			Leads: 7000, Contacted: 5000, PositiveReplies: 10, Opportunities: 2, MeetingsBooked: 5,
		}},
	}

	m := Aggregate(campaigns, []float64{80, 90})

	assert.Equal(t, int64(20000), m.TotalSent)
	assert.Equal(t, int64(6000), m.TotalOpened)
	assert.Equal(t, int64(200), m.TotalReplied)
	assert.Equal(t, int64(200), m.TotalBounced)
	assert.Equal(t, int64(50), m.PositiveReplies)
	assert.Equal(t, 1.0, m.ReplyRate)
	assert.Equal(t, 30.0, m.OpenRate)
	assert.Equal(t, 1.0, m.BounceRate)
	assert.Equal(t, 20.0, m.ConversionRate)
	assert.Equal(t, 25.0, m.PositiveReplyRate)
	assert.Equal(t, 50.0, m.PosReplyToMeeting)
	assert.Equal(t, int64(5000), m.UncontactedLeads)
	assert.Equal(t, 85.0, m.AvgInboxHealth)
	assert.Equal(t, 2, m.CampaignCount)
	assert.Equal(t, 1, m.ActiveCampaigns)
	assert.Equal(t, 2, m.InboxCount)
	assert.True(t, m.HasInboxData)
}

func TestAggregate_EmptyInputIsAllZero(t *testing.T) {
	m := Aggregate(nil, nil)

	assert.Zero(t, m.TotalSent)
	assert.Zero(t, m.ReplyRate)
	assert.Zero(t, m.ConversionRate)
	assert.Zero(t, m.PosReplyToMeeting)
	assert.Zero(t, m.UncontactedLeads)
	assert.False(t, m.HasInboxData)
	assert.Equal(t, NeutralInboxHealth, m.AvgInboxHealth)
}

func TestAggregate_MissingAnalyticsContributeZero(t *testing.T) {
	campaigns := []CampaignRecord{
		{CampaignID: "c1", Analytics: nil},
		{CampaignID: "c2", Analytics: &CampaignCounts{Sent: 1000, Replied: 10}},
	}

	m := Aggregate(campaigns, nil)

	assert.Equal(t, int64(1000), m.TotalSent)
	assert.Equal(t, 1.0, m.ReplyRate)
	assert.Equal(t, 2, m.CampaignCount)
}

func TestAggregate_ZeroDenominators(t *testing.T) {
	m := Aggregate([]CampaignRecord{{Analytics: &CampaignCounts{Replied: 5, MeetingsBooked: 3, Opportunities: 2}}}, nil)

	assert.Zero(t, m.ReplyRate)
	assert.Zero(t, m.ConversionRate)
	assert.Zero(t, m.PosReplyToMeeting)
	assert.Zero(t, m.PositiveReplyRate)
}

func TestAggregate_NegativeCountsTreatedAsMissing(t *testing.T) {
	m := Aggregate([]CampaignRecord{{Analytics: &CampaignCounts{Sent: 2000, Bounced: -40, Replied: 20}}}, []float64{-10, 150})

	assert.Zero(t, m.TotalBounced)
	assert.Zero(t, m.BounceRate)
	assert.Equal(t, 1.0, m.ReplyRate)
	assert.Equal(t, 50.0, m.AvgInboxHealth)
}

func TestAggregate_UncontactedNeverNegative(t *testing.T) {
	m := Aggregate([]CampaignRecord{{Analytics: &CampaignCounts{Leads: 100, Contacted: 400}}}, nil)
	assert.Zero(t, m.UncontactedLeads)
}

func TestAggregate_Deterministic(t *testing.T) {
	campaigns := []CampaignRecord{{Analytics: &CampaignCounts{Sent: 12345, Replied: 67, Bounced: 89}}}
	assert.Equal(t, Aggregate(campaigns, []float64{70}), Aggregate(campaigns, []float64{70}))
}

func TestPercentAndRound2(t *testing.T) {
	tests := []struct {
		name     string
		num, den int64
		want     float64
	}{
		{"zero denominator", 5, 0, 0},
		{"exact", 1, 4, 25},
		{"one decimal", 1, 8, 12.5},
		{"two decimals", 1, 3, 33.33},
		{"bounce boundary", 50, 1000, 5},
		{"just over boundary", 501, 10000, 5.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percent(tt.num, tt.den))
		})
	}

	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, -1.01, Round2(-1.005))
}
