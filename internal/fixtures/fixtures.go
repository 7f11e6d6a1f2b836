// Package fixtures generates synthetic platform data for demos, the stub
// upstream API and tests. It is the only place in the module that uses
// randomness; output is fully determined by the seed and the clock.
package fixtures

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ignite/outreach-monitor/internal/outreach"
)

// Profile describes one synthetic client. Rates are percentages: ReplyRate
// and BounceRate of sends, PositiveShare of replies, ConversionRate and
// MeetingRatio of positive replies, ContactedPct of leads.
type Profile struct {
	Name           string
	Campaigns      int
	Sent           int64
	OpenRate       float64
	ReplyRate      float64
	BounceRate     float64
	PositiveShare  float64
	ConversionRate float64
	MeetingRatio   float64
	Leads          int64
	ContactedPct   float64
	Inboxes        int
	InboxHealth    float64
	Disconnected   int
	SendingErrors  int
	Declining      bool
}

// DefaultProfiles covers every bucket the rule chain emits. Values keep
// clear of the default benchmarks so jitter never moves a client across a
// threshold.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "Northwind Traders", Campaigns: 3, Sent: 24000, OpenRate: 48, ReplyRate: 2.0, BounceRate: 1.5,
			PositiveShare: 40, ConversionRate: 25, MeetingRatio: 55, Leads: 60000, ContactedPct: 40, Inboxes: 6, InboxHealth: 92},
		{Name: "Acme Logistics", Campaigns: 2, Sent: 30000, OpenRate: 30, ReplyRate: 1.1, BounceRate: 8,
			PositiveShare: 30, ConversionRate: 15, MeetingRatio: 40, Leads: 50000, ContactedPct: 60, Inboxes: 5, InboxHealth: 62,
			Disconnected: 1, SendingErrors: 1},
		{Name: "Globex", Campaigns: 2, Sent: 18000, OpenRate: 35, ReplyRate: 0.35, BounceRate: 2,
			PositiveShare: 25, ConversionRate: 10, MeetingRatio: 30, Leads: 40000, ContactedPct: 45, Inboxes: 4, InboxHealth: 88},
		{Name: "Initech", Campaigns: 2, Sent: 20000, OpenRate: 50, ReplyRate: 1.8, BounceRate: 1.2,
			PositiveShare: 35, ConversionRate: 30, MeetingRatio: 15, Leads: 45000, ContactedPct: 44, Inboxes: 4, InboxHealth: 90},
		{Name: "Umbrella Health", Campaigns: 1, Sent: 3200, OpenRate: 52, ReplyRate: 1.6, BounceRate: 1,
			PositiveShare: 45, ConversionRate: 20, MeetingRatio: 50, Leads: 12000, ContactedPct: 27, Inboxes: 2, InboxHealth: 94},
		{Name: "Stark Industries", Campaigns: 3, Sent: 40000, OpenRate: 44, ReplyRate: 1.4, BounceRate: 2,
			PositiveShare: 40, ConversionRate: 20, MeetingRatio: 50, Leads: 41000, ContactedPct: 97, Inboxes: 8, InboxHealth: 86},
		{Name: "Wayne Enterprises", Campaigns: 1, Sent: 600, OpenRate: 40, ReplyRate: 1.5, BounceRate: 1,
			PositiveShare: 40, ConversionRate: 20, MeetingRatio: 50, Leads: 8000, ContactedPct: 8, Inboxes: 2, InboxHealth: 80},
		{Name: "Hooli", Campaigns: 2, Sent: 24000, OpenRate: 41, ReplyRate: 1.2, BounceRate: 2.5,
			PositiveShare: 40, ConversionRate: 10, MeetingRatio: 45, Leads: 50000, ContactedPct: 48, Inboxes: 4, InboxHealth: 84,
			Declining: true},
	}
}

// Generator produces outreach.Input from profiles.
type Generator struct {
	rng   *rand.Rand
	now   time.Time
	weeks int
}

// Option customizes a Generator.
type Option func(*Generator)

// WithWeeks sets how many weeks of weekly analytics are generated.
func WithWeeks(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.weeks = n
		}
	}
}

// New creates a Generator. Identical seeds and clocks yield identical input.
func New(seed int64, now time.Time, opts ...Option) *Generator {
	g := &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		now:   now.UTC(),
		weeks: 8,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Default generates input for DefaultProfiles.
func Default(seed int64, now time.Time) outreach.Input {
	return New(seed, now).Input(DefaultProfiles())
}

// Input generates platform data for profiles, plus one untagged inbox.
func (g *Generator) Input(profiles []Profile) outreach.Input {
	var in outreach.Input
	for _, p := range profiles {
		g.client(&in, p)
	}
	in.Accounts = append(in.Accounts, outreach.Account{
		Email:       "spare@agency.example.com",
		Status:      outreach.AccountActive,
		WarmupScore: 75,
	})
	return in
}

func (g *Generator) client(in *outreach.Input, p Profile) {
	slug := outreach.Slug(p.Name)
	tagID := "tag-" + slug
	in.Tags = append(in.Tags, outreach.CustomTag{ID: tagID, Label: p.Name})

	sent := g.jitterInt(p.Sent, 0.08)
	replied := portion(sent, g.jitter(p.ReplyRate, 0.05))
	positive := portion(replied, g.jitter(p.PositiveShare, 0.05))
	totals := [...]int64{
		sent,
		portion(sent, g.jitter(p.OpenRate, 0.05)),
		replied,
		portion(sent, g.jitter(p.BounceRate, 0.05)),
		positive,
		portion(positive, g.jitter(p.ConversionRate, 0.05)),
		portion(positive, g.jitter(p.MeetingRatio, 0.05)),
	}
	leads := g.jitterInt(p.Leads, 0.08)
	contacted := portion(leads, p.ContactedPct)

	n := max(p.Campaigns, 1)
	weights := g.weights(n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-c%d", slug, i+1)
		status := outreach.CampaignActive
		if i > 0 && i == n-1 {
			status = outreach.CampaignPaused
		}
		in.Campaigns = append(in.Campaigns, outreach.Campaign{
			ID:        id,
			Name:      fmt.Sprintf("%s - Sequence %d", p.Name, i+1),
			Status:    status,
			CreatedAt: g.now.AddDate(0, 0, -30*(n-i)),
		})
		in.Mappings = append(in.Mappings, outreach.TagMapping{TagID: tagID, ResourceID: id, ResourceType: outreach.ResourceCampaign})

		var part [len(totals)]int64
		for k, total := range totals {
			part[k] = share(total, weights, i)
		}
		in.Analytics = append(in.Analytics, outreach.CampaignAnalytics{
			CampaignID:         id,
			CampaignName:       fmt.Sprintf("%s - Sequence %d", p.Name, i+1),
			EmailsSentCount:    part[0],
			OpenCountUnique:    part[1],
			ReplyCountUnique:   part[2],
			BouncedCount:       part[3],
			TotalInterested:    part[4],
			TotalOpportunities: part[5],
			TotalMeetingBooked: part[6],
			LeadsCount:         share(leads, weights, i),
			ContactedCount:     share(contacted, weights, i),
		})
	}

	for i := 0; i < p.Inboxes; i++ {
		email := fmt.Sprintf("sender%d@%s.example.com", i+1, slug)
		status := outreach.AccountActive
		switch {
		case i < p.Disconnected:
			status = outreach.AccountConnectionError
		case i < p.Disconnected+p.SendingErrors:
			status = outreach.AccountSendingError
		}
		score := math.Round(math.Min(100, math.Max(0, p.InboxHealth+(g.rng.Float64()*6-3))))
		in.Accounts = append(in.Accounts, outreach.Account{Email: email, Status: status, WarmupScore: score})
		in.Mappings = append(in.Mappings, outreach.TagMapping{TagID: tagID, ResourceID: email, ResourceType: outreach.ResourceAccount})
	}

	g.weekly(in, fmt.Sprintf("%s-c1", slug), sent, p)
}

// weekly spreads a client's sends evenly over the trailing weeks on its
// first campaign. Declining profiles lose reply rate in the latest week.
func (g *Generator) weekly(in *outreach.Input, campaignID string, sent int64, p Profile) {
	perWeek := sent / int64(g.weeks)
	if perWeek == 0 {
		return
	}
	for w := g.weeks - 1; w >= 0; w-- {
		rate := p.ReplyRate
		if p.Declining && w == 0 {
			rate *= 0.6
		}
		in.Weekly = append(in.Weekly, outreach.WeeklyPoint{
			CampaignID: campaignID,
			WeekStart:  outreach.WeekStart(g.now.AddDate(0, 0, -7*w)),
			Sent:       perWeek,
			Replied:    portion(perWeek, rate),
		})
	}
}

func (g *Generator) jitter(v, pct float64) float64 {
	return v * (1 + (g.rng.Float64()*2-1)*pct)
}

func (g *Generator) jitterInt(v int64, pct float64) int64 {
	return int64(math.Round(g.jitter(float64(v), pct)))
}

// weights returns n positive weights summing to 1.
func (g *Generator) weights(n int) []float64 {
	w := make([]float64, n)
	var sum float64
	for i := range w {
		w[i] = 0.5 + g.rng.Float64()
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// share splits total by weights. The last index takes the remainder so the
// parts sum to total exactly.
func share(total int64, weights []float64, i int) int64 {
	if i == len(weights)-1 {
		var taken int64
		for j := 0; j < i; j++ {
			taken += int64(float64(total) * weights[j])
		}
		return total - taken
	}
	return int64(float64(total) * weights[i])
}

func portion(n int64, pct float64) int64 {
	return int64(math.Round(float64(n) * pct / 100))
}
