package agent

import (
	"fmt"
	"strings"

	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/tasks"
)

const noClients = "No clients have been classified yet. Wait for the next data refresh."

func header(sb *strings.Builder, title string) {
	sb.WriteString(title + "\n")
	sb.WriteString(rule)
}

func clientLine(sb *strings.Builder, c classifier.ClientClassification, detail string) {
	sb.WriteString(fmt.Sprintf("%s **%s** (%s, %s): %s\n",
		severityIcon(c.Severity), c.ClientName, c.Bucket.Label(), c.Severity, detail))
}

func filter(cls []classifier.ClientClassification, keep func(classifier.ClientClassification) bool) []classifier.ClientClassification {
	out := []classifier.ClientClassification{}
	for _, c := range cls {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func inBucket(b classifier.Bucket) func(classifier.ClientClassification) bool {
	return func(c classifier.ClientClassification) bool { return c.Bucket == b }
}

func listed(list []classifier.ClientClassification) []classifier.ClientClassification {
	if len(list) > maxListed {
		return list[:maxListed]
	}
	return list
}

// missingBenchmarks reports whether a client falls short on reply rate or
// conversion, regardless of volume.
func missingBenchmarks(c classifier.ClientClassification, bm classifier.Benchmarks) bool {
	return c.Metrics.ReplyRate < bm.GoodReplyRate || c.Metrics.ConversionRate < bm.TargetConversion
}

func benchmarksReport(_ string, b *ContextBundle) (string, any) {
	bm := b.Benchmarks
	missing := filter(b.Classifications, func(c classifier.ClientClassification) bool {
		return missingBenchmarks(c, bm)
	})
	missing = sortedCopy(missing, func(x, y classifier.ClientClassification) bool {
		return x.HealthScore < y.HealthScore
	})

	var sb strings.Builder
	header(&sb, "📏 **Benchmark Adherence**")
	sb.WriteString(fmt.Sprintf("Targets: reply rate ≥ %s, conversion ≥ %s, bounce ≤ %s, meeting ratio ≥ %s\n\n",
		formatPct(bm.GoodReplyRate), formatPct(bm.TargetConversion), formatPct(bm.MaxBounceRate), formatPct(bm.MeetingRatioTarget)))
	if len(missing) == 0 {
		sb.WriteString("✅ Every client is hitting reply and conversion benchmarks.\n")
		return sb.String(), missing
	}
	sb.WriteString(fmt.Sprintf("%d client(s) missing benchmarks:\n\n", len(missing)))
	for _, c := range listed(missing) {
		clientLine(&sb, c, fmt.Sprintf("reply %s, conversion %s", formatPct(c.Metrics.ReplyRate), formatPct(c.Metrics.ConversionRate)))
	}
	if len(missing) > maxListed {
		sb.WriteString(fmt.Sprintf("  …and %d more\n", len(missing)-maxListed))
	}
	return sb.String(), missing
}

func meetingRatioReport(_ string, b *ContextBundle) (string, any) {
	bm := b.Benchmarks
	below := filter(b.Classifications, func(c classifier.ClientClassification) bool {
		return c.Metrics.PositiveReplies > 0 && c.Metrics.PosReplyToMeeting < bm.MeetingRatioTarget
	})
	below = sortedCopy(below, func(x, y classifier.ClientClassification) bool {
		return x.Metrics.PosReplyToMeeting < y.Metrics.PosReplyToMeeting
	})

	var sb strings.Builder
	header(&sb, fmt.Sprintf("🤝 **Positive Reply → Meeting (target %s)**", formatPct(bm.MeetingRatioTarget)))
	if len(below) == 0 {
		sb.WriteString("Every client with positive replies is converting them to meetings at or above target.\n")
		return sb.String(), below
	}
	sb.WriteString(fmt.Sprintf("%d client(s) below target:\n\n", len(below)))
	for _, c := range listed(below) {
		clientLine(&sb, c, fmt.Sprintf("%s of %s positive replies booked (%s meetings)",
			formatPct(c.Metrics.PosReplyToMeeting), formatNumber(c.Metrics.PositiveReplies), formatNumber(c.Metrics.MeetingsBooked)))
	}
	return sb.String(), below
}

func inboxReport(_ string, b *ContextBundle) (string, any) {
	in := b.Inbox
	var sb strings.Builder
	header(&sb, "📬 **Inbox Health**")
	if in.TotalInboxes == 0 {
		sb.WriteString("No sending inboxes on record.\n")
		return sb.String(), in
	}
	sb.WriteString(fmt.Sprintf("**Inboxes:** %s (%s connected, %s disconnected)\n",
		formatNumber(int64(in.TotalInboxes)), formatNumber(int64(in.Connected)), formatNumber(int64(in.Disconnected))))
	sb.WriteString(fmt.Sprintf("**Sending errors:** %d\n", in.WithSendingErrors))
	sb.WriteString(fmt.Sprintf("**Below health threshold:** %d\n", in.Unhealthy))
	sb.WriteString(fmt.Sprintf("**Average health:** %.1f\n", in.AvgHealth))

	if len(in.Issues) == 0 {
		sb.WriteString("\n✅ No inbox issues.\n")
		return sb.String(), in
	}
	sb.WriteString("\n**Issues:**\n")
	for i, issue := range in.Issues {
		if i >= maxListed {
			sb.WriteString(fmt.Sprintf("  …and %d more\n", len(in.Issues)-maxListed))
			break
		}
		sb.WriteString(fmt.Sprintf("  ⚠️ %s (%s): %s, health %.0f\n", issue.Email, issue.ClientName, issue.Problem, issue.HealthScore))
	}
	return sb.String(), in
}

func trendsReport(_ string, b *ContextBundle) (string, any) {
	declining := b.Trends.Declining
	var sb strings.Builder
	header(&sb, "📉 **Declining Reply Trends**")
	if len(declining) == 0 {
		sb.WriteString("No client's reply rate is trending down week over week.\n")
		return sb.String(), declining
	}
	for i, t := range declining {
		if i >= maxListed {
			break
		}
		line := fmt.Sprintf("  ↘️ **%s**: %.1f%% week over week", t.ClientName, t.ChangePct)
		if n := len(t.Points); n >= 2 {
			line += fmt.Sprintf(" (%s → %s)", formatPct(t.Points[n-2].ReplyRate), formatPct(t.Points[n-1].ReplyRate))
		}
		sb.WriteString(line + "\n")
	}
	return sb.String(), declining
}

func deliverabilityReport(_ string, b *ContextBundle) (string, any) {
	flagged := filter(b.Classifications, inBucket(classifier.DeliverabilityIssue))
	var sb strings.Builder
	header(&sb, "🚨 **Deliverability**")
	if len(flagged) == 0 {
		sb.WriteString(fmt.Sprintf("No deliverability issues. Portfolio bounce rate is %s.\n", formatPct(b.Portfolio.BounceRate)))
		return sb.String(), flagged
	}
	for _, c := range listed(flagged) {
		clientLine(&sb, c, fmt.Sprintf("bounce %s, inbox health %.0f", formatPct(c.Metrics.BounceRate), c.Metrics.AvgInboxHealth))
	}
	return sb.String(), flagged
}

func tamReport(_ string, b *ContextBundle) (string, any) {
	bm := b.Benchmarks
	low := filter(b.Classifications, func(c classifier.ClientClassification) bool {
		return c.Metrics.TotalSent >= bm.MinVolume && c.Metrics.UncontactedLeads < bm.WarningUncontacted
	})
	low = sortedCopy(low, func(x, y classifier.ClientClassification) bool {
		return x.Metrics.UncontactedLeads < y.Metrics.UncontactedLeads
	})

	var sb strings.Builder
	header(&sb, "📉 **Lead Runway (TAM)**")
	if len(low) == 0 {
		sb.WriteString(fmt.Sprintf("Every active client has at least %s uncontacted leads.\n", formatNumber(bm.WarningUncontacted)))
		return sb.String(), low
	}
	for _, c := range listed(low) {
		clientLine(&sb, c, fmt.Sprintf("%s uncontacted of %s leads", formatNumber(c.Metrics.UncontactedLeads), formatNumber(c.Metrics.TotalLeads)))
	}
	return sb.String(), low
}

func tooEarlyReport(_ string, b *ContextBundle) (string, any) {
	ramping := filter(b.Classifications, inBucket(classifier.TooEarly))
	var sb strings.Builder
	header(&sb, "⏳ **Ramping Clients**")
	if len(ramping) == 0 {
		sb.WriteString("No clients are below the minimum analysis volume.\n")
		return sb.String(), ramping
	}
	for _, c := range listed(ramping) {
		clientLine(&sb, c, fmt.Sprintf("%s of %s sends needed", formatNumber(c.Metrics.TotalSent), formatNumber(b.Benchmarks.MinVolume)))
	}
	return sb.String(), ramping
}

func tasksReport(q string, b *ContextBundle) (string, any) {
	daily := tasks.Pending(b.Tasks.Daily)
	weekly := tasks.Pending(b.Tasks.Weekly)
	list := tasks.TaskList{Daily: daily, Weekly: weekly}

	var sb strings.Builder
	header(&sb, "📋 **Open Tasks**")
	if len(daily) == 0 && len(weekly) == 0 {
		sb.WriteString("✅ Nothing open.\n")
		return sb.String(), list
	}
	section := func(title string, items []tasks.AutoTask) {
		if len(items) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("**%s (%d):**\n", title, len(items)))
		for i, t := range items {
			if i >= maxListed {
				sb.WriteString(fmt.Sprintf("  …and %d more\n", len(items)-maxListed))
				break
			}
			sb.WriteString(fmt.Sprintf("  %s %s (due %s)\n", severityIcon(t.Severity), t.Title, t.DueDate))
		}
		sb.WriteString("\n")
	}
	if !strings.Contains(q, "week") {
		section("Today", daily)
	}
	section("This week", weekly)
	return sb.String(), list
}

func replyRateReport(_ string, b *ContextBundle) (string, any) {
	bm := b.Benchmarks
	eligible := filter(b.Classifications, func(c classifier.ClientClassification) bool {
		return c.Metrics.TotalSent >= bm.MinVolume
	})
	eligible = sortedCopy(eligible, func(x, y classifier.ClientClassification) bool {
		return x.Metrics.ReplyRate < y.Metrics.ReplyRate
	})

	var sb strings.Builder
	header(&sb, fmt.Sprintf("✍️ **Lowest Reply Rates (good ≥ %s)**", formatPct(bm.GoodReplyRate)))
	if len(eligible) == 0 {
		sb.WriteString("No client has enough volume for a reply rate comparison.\n")
		return sb.String(), eligible
	}
	for _, c := range listed(eligible) {
		clientLine(&sb, c, fmt.Sprintf("%s reply rate on %s sent", formatPct(c.Metrics.ReplyRate), formatNumber(c.Metrics.TotalSent)))
	}
	return sb.String(), listed(eligible)
}

func topPerformersReport(_ string, b *ContextBundle) (string, any) {
	top := filter(b.Classifications, func(c classifier.ClientClassification) bool {
		return c.Bucket == classifier.PerformingWell && c.Severity == classifier.Low
	})
	title := "✅ **Top Performers**"
	if len(top) == 0 {
		top = filter(b.Classifications, func(c classifier.ClientClassification) bool { return c.Bucket != classifier.TooEarly })
		title = "✅ **Highest Health Scores**"
	}
	top = sortedCopy(top, func(x, y classifier.ClientClassification) bool { return x.HealthScore > y.HealthScore })
	if len(top) > 5 {
		top = top[:5]
	}

	var sb strings.Builder
	header(&sb, title)
	if len(top) == 0 {
		sb.WriteString(noClients + "\n")
		return sb.String(), top
	}
	for i, c := range top {
		sb.WriteString(fmt.Sprintf("%d. **%s**: health %d, reply %s, conversion %s\n",
			i+1, c.ClientName, c.HealthScore, formatPct(c.Metrics.ReplyRate), formatPct(c.Metrics.ConversionRate)))
	}
	return sb.String(), top
}

func portfolioReport(_ string, b *ContextBundle) (string, any) {
	p := b.Portfolio
	var sb strings.Builder
	header(&sb, "📊 **Portfolio Overview**")
	if p.Clients == 0 {
		sb.WriteString(noClients + "\n")
		return sb.String(), p
	}
	sb.WriteString(fmt.Sprintf("**Health score:** %d/100\n", p.HealthScore))
	sb.WriteString(fmt.Sprintf("**Clients:** %d\n", p.Clients))
	sb.WriteString(fmt.Sprintf("**Sent:** %s\n", formatNumber(p.TotalSent)))
	sb.WriteString(fmt.Sprintf("**Reply rate:** %s (client average %s)\n", formatPct(p.ReplyRate), formatPct(p.AvgReplyRate)))
	sb.WriteString(fmt.Sprintf("**Bounce rate:** %s\n", formatPct(p.BounceRate)))
	sb.WriteString(fmt.Sprintf("**Opportunities:** %s, **meetings booked:** %s\n", formatNumber(p.Opportunities), formatNumber(p.MeetingsBooked)))
	sb.WriteString(fmt.Sprintf("**Average inbox health:** %.1f\n", p.AvgInboxHealth))

	sb.WriteString("\n**By bucket:**\n")
	for _, bk := range classifier.AllBuckets() {
		if n := p.ByBucket[bk.String()]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %s %s: %d\n", bk.Icon(), bk.Label(), n))
		}
	}
	return sb.String(), p
}

func clientDetailReport(q string, b *ContextBundle) (string, any) {
	c, _ := mentionedClient(q, b)
	m := c.Metrics

	var sb strings.Builder
	header(&sb, fmt.Sprintf("%s **%s**", c.Bucket.Icon(), c.ClientName))
	sb.WriteString(fmt.Sprintf("**Status:** %s (%s)\n", c.Bucket.Label(), c.Severity))
	sb.WriteString(fmt.Sprintf("**Health score:** %d/100\n", c.HealthScore))
	sb.WriteString(fmt.Sprintf("**Why:** %s\n\n", c.Reason))
	sb.WriteString(fmt.Sprintf("**Sent:** %s across %d campaign(s), %d active\n", formatNumber(m.TotalSent), m.CampaignCount, m.ActiveCampaigns))
	sb.WriteString(fmt.Sprintf("**Reply rate:** %s, **bounce rate:** %s\n", formatPct(m.ReplyRate), formatPct(m.BounceRate)))
	sb.WriteString(fmt.Sprintf("**Positive replies:** %s, **meetings:** %s (%s)\n",
		formatNumber(m.PositiveReplies), formatNumber(m.MeetingsBooked), formatPct(m.PosReplyToMeeting)))
	sb.WriteString(fmt.Sprintf("**Uncontacted leads:** %s\n", formatNumber(m.UncontactedLeads)))
	if m.HasInboxData {
		sb.WriteString(fmt.Sprintf("**Inbox health:** %.1f over %d inbox(es)\n", m.AvgInboxHealth, m.InboxCount))
	} else {
		sb.WriteString("**Inbox health:** no inboxes attributed\n")
	}

	var open []tasks.AutoTask
	for _, t := range tasks.Pending(b.Tasks.All()) {
		if t.ClientID == c.ClientID {
			open = append(open, t)
		}
	}
	if len(open) > 0 {
		sb.WriteString("\n**Open tasks:**\n")
		for _, t := range open {
			sb.WriteString(fmt.Sprintf("  %s [%s] %s (due %s)\n", severityIcon(t.Severity), t.Type, t.Title, t.DueDate))
		}
	}
	return sb.String(), clientDetail{Classification: c, Tasks: open}
}

type clientDetail struct {
	Classification classifier.ClientClassification `json:"classification"`
	Tasks          []tasks.AutoTask                `json:"tasks"`
}
