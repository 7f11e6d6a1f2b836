package tasks

import "github.com/ignite/outreach-monitor/internal/classifier"

// Template is one task blueprint. Title and Description are fmt patterns
// receiving the client name.
type Template struct {
	Title       string
	Description string
}

// TemplateSet holds the daily and weekly blueprints of a bucket.
type TemplateSet struct {
	Daily  []Template
	Weekly []Template
}

var templates = map[classifier.Bucket]TemplateSet{
	classifier.DeliverabilityIssue: {
		Daily: []Template{
			{Title: "Check inbox health for %s", Description: "Review every sending inbox for %s: reconnect disconnected inboxes, clear sending errors and pause any inbox below the health threshold."},
			{Title: "Audit bounce sources for %s", Description: "Pull the bounced leads for %s, verify the list source and remove invalid domains before the next send."},
		},
		Weekly: []Template{
			{Title: "Deliverability review for %s", Description: "Confirm SPF, DKIM and DMARC for %s sending domains, review warmup progress and rotate burnt inboxes."},
		},
	},
	classifier.CopyIssue: {
		Daily: []Template{
			{Title: "Rewrite opening email for %s", Description: "Reply rate for %s is below the floor. Draft a new first touch with a sharper hook and a single clear ask."},
		},
		Weekly: []Template{
			{Title: "A/B test new copy for %s", Description: "Launch at least two subject line and opener variants for %s and compare reply rates at the end of the week."},
			{Title: "Review ICP targeting for %s", Description: "Check the lead filters for %s against the replies received to confirm the copy is reaching the right persona."},
		},
	},
	classifier.SubsequenceIssue: {
		Daily: []Template{
			{Title: "Follow up on open positive replies for %s", Description: "Work through every interested reply for %s that has not booked a meeting yet and send a calendar link."},
		},
		Weekly: []Template{
			{Title: "Rework meeting-booking subsequence for %s", Description: "Positive replies for %s are not converting to meetings. Rebuild the post-reply sequence and shorten time-to-first-response."},
		},
	},
	classifier.VolumeIssue: {
		Daily: []Template{
			{Title: "Raise daily send limits for %s", Description: "Reply quality for %s is proven. Increase per-inbox daily limits within the warmup plan."},
		},
		Weekly: []Template{
			{Title: "Add sending inboxes for %s", Description: "Plan additional domains and inboxes for %s so volume can scale past the current ceiling."},
		},
	},
	classifier.TAMExhausted: {
		Daily: []Template{
			{Title: "Upload fresh leads for %s", Description: "Uncontacted leads for %s are nearly gone. Source and upload a new lead batch before campaigns stall."},
		},
		Weekly: []Template{
			{Title: "Expand TAM for %s", Description: "Broaden titles, industries or geographies for %s and size the new addressable market."},
		},
	},
	classifier.NotViable: {
		Daily: []Template{
			{Title: "Escalate account status for %s", Description: "Flag %s to the account owner with the metrics behind the viability concern."},
		},
		Weekly: []Template{
			{Title: "Viability review for %s", Description: "Decide with the client owner whether %s should be restructured, paused or offboarded."},
		},
	},
	classifier.TooEarly: {
		Weekly: []Template{
			{Title: "Monitor ramp-up for %s", Description: "%s has not reached analysis volume yet. Confirm campaigns are live and sending on schedule."},
		},
	},
	classifier.PerformingWell: {
		Weekly: []Template{
			{Title: "Scale review for %s", Description: "%s is performing. Review whether to add volume, new segments or new offers while keeping metrics stable."},
		},
	},
}

// Templates returns the blueprint set of a bucket.
func Templates(b classifier.Bucket) TemplateSet {
	return templates[b]
}
