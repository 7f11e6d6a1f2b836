package agent

import (
	"fmt"
	"strings"

	"github.com/ignite/outreach-monitor/internal/tasks"
)

const systemPrompt = `You are an operations analyst for an email outreach agency.
Answer the operator's question using only the portfolio data provided.
Be concise. Cite client names and figures. If the data does not answer
the question, say so rather than guessing.`

// maxPromptClients bounds the per-client lines sent to a responder.
const maxPromptClients = 40

// BuildContext renders bundle as the plain-text data block sent alongside a
// free-form question.
func BuildContext(b *ContextBundle) string {
	var sb strings.Builder
	if !b.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Data as of %s.\n\n", b.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	}

	p := b.Portfolio
	sb.WriteString("PORTFOLIO\n")
	sb.WriteString(fmt.Sprintf("clients=%d health_score=%d sent=%d reply_rate=%.2f%% bounce_rate=%.2f%% meetings=%d\n\n",
		p.Clients, p.HealthScore, p.TotalSent, p.ReplyRate, p.BounceRate, p.MeetingsBooked))

	sb.WriteString("CLIENTS (most urgent first)\n")
	for i, c := range b.Classifications {
		if i >= maxPromptClients {
			sb.WriteString(fmt.Sprintf("... %d more clients omitted\n", len(b.Classifications)-maxPromptClients))
			break
		}
		m := c.Metrics
		sb.WriteString(fmt.Sprintf("- %s: %s/%s score=%d sent=%d reply=%.2f%% bounce=%.2f%% conv=%.2f%% meeting_ratio=%.2f%% uncontacted=%d inbox=%.0f | %s\n",
			c.ClientName, c.Bucket, c.Severity, c.HealthScore, m.TotalSent, m.ReplyRate, m.BounceRate,
			m.ConversionRate, m.PosReplyToMeeting, m.UncontactedLeads, m.AvgInboxHealth, c.Reason))
	}

	in := b.Inbox
	sb.WriteString(fmt.Sprintf("\nINBOXES total=%d disconnected=%d sending_errors=%d unhealthy=%d avg_health=%.1f\n",
		in.TotalInboxes, in.Disconnected, in.WithSendingErrors, in.Unhealthy, in.AvgHealth))

	if len(b.Trends.Declining) > 0 {
		sb.WriteString("\nDECLINING REPLY TRENDS\n")
		for _, t := range b.Trends.Declining {
			sb.WriteString(fmt.Sprintf("- %s: %.1f%% week over week\n", t.ClientName, t.ChangePct))
		}
	}

	open := tasks.Pending(b.Tasks.All())
	sb.WriteString(fmt.Sprintf("\nOPEN TASKS %d\n", len(open)))
	for i, t := range open {
		if i >= maxPromptClients {
			break
		}
		sb.WriteString(fmt.Sprintf("- [%s/%s] %s (due %s)\n", t.Type, t.Severity, t.Title, t.DueDate))
	}
	return sb.String()
}

func userPrompt(query string, b *ContextBundle) string {
	return BuildContext(b) + "\nQuestion: " + query
}
