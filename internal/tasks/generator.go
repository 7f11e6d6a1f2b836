// Package tasks expands classified clients into dated, prioritized daily and
// weekly action items.
//
// Generation is a pure function of the classifications and the clock: task
// IDs are derived from the client, cadence and template position, so running
// it twice over the same input yields identical tasks. Completion state
// lives in a CompletionStore and is merged in afterwards with
// ApplyCompletions.
package tasks

import (
	"fmt"
	"sort"
	"time"

	"github.com/ignite/outreach-monitor/internal/classifier"
)

// Type is the cadence of a task.
type Type string

const (
	Daily  Type = "daily"
	Weekly Type = "weekly"
)

// DateLayout is the due date format.
const DateLayout = "2006-01-02"

// AutoTask is one generated action item.
type AutoTask struct {
	ID          string              `json:"id"`
	Type        Type                `json:"type"`
	Bucket      classifier.Bucket   `json:"bucket"`
	Severity    classifier.Severity `json:"severity"`
	ClientID    string              `json:"client_id"`
	ClientName  string              `json:"client_name"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Metrics     map[string]float64  `json:"metrics"`
	DueDate     string              `json:"due_date"`
	Completed   bool                `json:"completed"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// TaskList is the generator output.
type TaskList struct {
	Daily  []AutoTask `json:"daily"`
	Weekly []AutoTask `json:"weekly"`
}

// All returns daily tasks followed by weekly tasks.
func (l TaskList) All() []AutoTask {
	out := make([]AutoTask, 0, len(l.Daily)+len(l.Weekly))
	out = append(out, l.Daily...)
	return append(out, l.Weekly...)
}

// Find returns the task with the given ID.
func (l TaskList) Find(id string) (AutoTask, bool) {
	for _, t := range l.All() {
		if t.ID == id {
			return t, true
		}
	}
	return AutoTask{}, false
}

// TaskID builds the deterministic identifier of a task.
func TaskID(clientID string, typ Type, index int) string {
	return fmt.Sprintf("%s-%s-%d", clientID, typ, index)
}

// Generator turns classifications into tasks.
type Generator struct {
	now        func() time.Time
	weeklyDays int
}

// NewGenerator creates a Generator. A nil clock uses time.Now.
func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now, weeklyDays: 7}
}

// Generate builds the daily and weekly lists. Daily tasks are only emitted
// for high and critical severity; weekly tasks are always emitted and their
// priority is capped at high.
func (g *Generator) Generate(cls []classifier.ClientClassification) TaskList {
	today := g.now()
	dailyDue := today.Format(DateLayout)
	weeklyDue := today.AddDate(0, 0, g.weeklyDays).Format(DateLayout)

	list := TaskList{Daily: []AutoTask{}, Weekly: []AutoTask{}}
	for _, c := range cls {
		set := Templates(c.Bucket)

		if c.Severity.Urgent() {
			for i, tpl := range set.Daily {
				list.Daily = append(list.Daily, build(c, Daily, i, tpl, c.Severity, dailyDue))
			}
		}
		for i, tpl := range set.Weekly {
			list.Weekly = append(list.Weekly, build(c, Weekly, i, tpl, c.Severity.Cap(classifier.High), weeklyDue))
		}
	}

	sortTasks(list.Daily)
	sortTasks(list.Weekly)
	return list
}

// build gives every task its own metrics map.
func build(c classifier.ClientClassification, typ Type, index int, tpl Template, sev classifier.Severity, due string) AutoTask {
	return AutoTask{
		ID:          TaskID(c.ClientID, typ, index),
		Type:        typ,
		Bucket:      c.Bucket,
		Severity:    sev,
		ClientID:    c.ClientID,
		ClientName:  c.ClientName,
		Title:       fmt.Sprintf(tpl.Title, c.ClientName),
		Description: fmt.Sprintf(tpl.Description, c.ClientName),
		Category:    c.Bucket.Category(),
		Metrics:     metricsSnapshot(c),
		DueDate:     due,
	}
}

func metricsSnapshot(c classifier.ClientClassification) map[string]float64 {
	m := c.Metrics
	return map[string]float64{
		"total_sent":           float64(m.TotalSent),
		"reply_rate":           m.ReplyRate,
		"bounce_rate":          m.BounceRate,
		"conversion_rate":      m.ConversionRate,
		"pos_reply_to_meeting": m.PosReplyToMeeting,
		"avg_inbox_health":     m.AvgInboxHealth,
		"uncontacted_leads":    float64(m.UncontactedLeads),
		"health_score":         float64(c.HealthScore),
	}
}

// sortTasks orders by severity (highest first), bucket rank, client name,
// then ID so template order is preserved within a client.
func sortTasks(list []AutoTask) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Bucket.Rank() != b.Bucket.Rank() {
			return a.Bucket.Rank() < b.Bucket.Rank()
		}
		if a.ClientName != b.ClientName {
			return a.ClientName < b.ClientName
		}
		return a.ID < b.ID
	})
}
