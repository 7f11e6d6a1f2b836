package outreach

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/metrics"
	"github.com/ignite/outreach-monitor/internal/tasks"
)

// Snapshot is the full result of one refresh.
type Snapshot struct {
	RunID           string                            `json:"run_id"`
	GeneratedAt     time.Time                         `json:"generated_at"`
	Clients         []ClientRef                       `json:"clients"`
	Classifications []classifier.ClientClassification `json:"classifications"`
	Tasks           tasks.TaskList                    `json:"tasks"`
	Portfolio       classifier.Portfolio              `json:"portfolio"`
	Inbox           metrics.InboxHealthSummary        `json:"inbox"`
	Trends          metrics.WeeklyTrendSummary        `json:"trends"`
	Benchmarks      classifier.Benchmarks             `json:"benchmarks"`
}

// Classification returns the classification for a client ID.
func (s *Snapshot) Classification(clientID string) (classifier.ClientClassification, bool) {
	for _, c := range s.Classifications {
		if c.ClientID == clientID {
			return c, true
		}
	}
	return classifier.ClientClassification{}, false
}

// Builder turns fetched Input into a Snapshot. Building is pure given the
// builder's clock and run ID source.
type Builder struct {
	classifier   *classifier.Classifier
	generator    *tasks.Generator
	trendDropPct float64
	now          func() time.Time
	newRunID     func() string
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithBuildClock sets the clock stamped on snapshots.
func WithBuildClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithRunIDs sets the run ID source.
func WithRunIDs(next func() string) BuilderOption {
	return func(b *Builder) { b.newRunID = next }
}

// NewBuilder creates a Builder. trendDropPct is the relative week-over-week
// reply rate drop that flags a client as declining.
func NewBuilder(c *classifier.Classifier, g *tasks.Generator, trendDropPct float64, opts ...BuilderOption) *Builder {
	b := &Builder{
		classifier:   c,
		generator:    g,
		trendDropPct: trendDropPct,
		now:          time.Now,
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Benchmarks returns the benchmarks snapshots are classified against.
func (b *Builder) Benchmarks() classifier.Benchmarks { return b.classifier.Benchmarks() }

// BuildSnapshot attributes, aggregates, classifies and plans tasks for in.
// Every attributed client gets exactly one classification, including
// clients whose tag has no campaigns yet.
func (b *Builder) BuildSnapshot(in Input) Snapshot {
	att := Attribute(in.Tags, in.Mappings, in.Campaigns)
	bench := b.classifier.Benchmarks()

	analytics := make(map[string]*metrics.CampaignCounts, len(in.Analytics))
	for _, a := range in.Analytics {
		analytics[a.CampaignID] = &metrics.CampaignCounts{
			Sent:            a.EmailsSentCount,
			Opened:          a.OpenCountUnique,
			Replied:         a.ReplyCountUnique,
			Bounced:         a.BouncedCount,
			Leads:           a.LeadsCount,
			Contacted:       a.ContactedCount,
			PositiveReplies: a.TotalInterested,
			Opportunities:   a.TotalOpportunities,
			MeetingsBooked:  a.TotalMeetingBooked,
		}
	}

	campaigns := make(map[string][]metrics.CampaignRecord)
	for _, c := range in.Campaigns {
		clientID, ok := att.CampaignClient[c.ID]
		if !ok {
			continue
		}
		campaigns[clientID] = append(campaigns[clientID], metrics.CampaignRecord{
			CampaignID: c.ID,
			Name:       c.Name,
			Active:     c.Active(),
			Analytics:  analytics[c.ID],
		})
	}

	inboxes := make([]metrics.InboxRecord, 0, len(in.Accounts))
	for _, acc := range in.Accounts {
		rec := metrics.InboxRecord{
			Email:        acc.Email,
			HealthScore:  acc.WarmupScore,
			Connected:    acc.Connected(),
			SendingError: acc.SendingError(),
			ClientName:   UnassignedClient,
		}
		if id, ok := att.AccountClient[strings.ToLower(acc.Email)]; ok {
			rec.ClientID = id
			rec.ClientName = att.ClientName(id)
		}
		inboxes = append(inboxes, rec)
	}
	scores := metrics.HealthScoresByClient(inboxes)

	inputs := make([]classifier.ClientInput, 0, len(att.Clients))
	for _, c := range att.Clients {
		inputs = append(inputs, classifier.ClientInput{
			ClientID:   c.ID,
			ClientName: c.Name,
			Metrics:    metrics.Aggregate(campaigns[c.ID], scores[c.ID]),
		})
	}

	cls := b.classifier.ClassifyAll(inputs)
	return Snapshot{
		RunID:           b.newRunID(),
		GeneratedAt:     b.now().UTC(),
		Clients:         att.Clients,
		Classifications: cls,
		Tasks:           b.generator.Generate(cls),
		Portfolio:       classifier.SummarizePortfolio(cls, bench, b.classifier.Weights()),
		Inbox:           metrics.SummarizeInboxes(inboxes, bench.HealthyInboxThreshold),
		Trends:          metrics.SummarizeTrends(clientWeeks(in.Weekly, att), b.trendDropPct),
		Benchmarks:      bench,
	}
}

// clientWeeks re-keys campaign weeks by client. SummarizeTrends sums the
// campaigns of one client within a week.
func clientWeeks(weekly []WeeklyPoint, att Attribution) []metrics.WeeklyPoint {
	out := make([]metrics.WeeklyPoint, 0, len(weekly))
	for _, w := range weekly {
		clientID, ok := att.CampaignClient[w.CampaignID]
		if !ok {
			continue
		}
		out = append(out, metrics.WeeklyPoint{
			ClientID:   clientID,
			ClientName: att.ClientName(clientID),
			WeekStart:  w.WeekStart,
			Sent:       w.Sent,
			Replied:    w.Replied,
		})
	}
	return out
}
