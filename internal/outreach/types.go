package outreach

import "time"

// Campaign status codes reported by the platform.
const (
	CampaignDraft        = 0
	CampaignActive       = 1
	CampaignPaused       = 2
	CampaignCompleted    = 3
	CampaignSubsequences = 4
)

// Campaign is a sending campaign as listed by the platform.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"timestamp_created,omitempty"`
}

// Active reports whether the campaign is still sending.
func (c Campaign) Active() bool {
	return c.Status == CampaignActive || c.Status == CampaignSubsequences
}

// CampaignAnalytics is the lifetime counter set for one campaign.
type CampaignAnalytics struct {
	CampaignID         string `json:"campaign_id"`
	CampaignName       string `json:"campaign_name"`
	LeadsCount         int64  `json:"leads_count"`
	ContactedCount     int64  `json:"contacted_count"`
	EmailsSentCount    int64  `json:"emails_sent_count"`
	OpenCountUnique    int64  `json:"open_count_unique"`
	ReplyCountUnique   int64  `json:"reply_count_unique"`
	BouncedCount       int64  `json:"bounced_count"`
	TotalInterested    int64  `json:"total_interested"`
	TotalOpportunities int64  `json:"total_opportunities"`
	TotalMeetingBooked int64  `json:"total_meeting_booked"`
}

// Account status codes. Negative values are error states.
const (
	AccountActive          = 1
	AccountPaused          = 2
	AccountConnectionError = -1
	AccountSoftBounceError = -2
	AccountSendingError    = -3
)

// Account is a sending inbox connected to the platform.
type Account struct {
	Email       string  `json:"email"`
	Status      int     `json:"status"`
	WarmupScore float64 `json:"stat_warmup_score"`
}

// Connected reports whether the inbox can reach its mail provider.
func (a Account) Connected() bool { return a.Status != AccountConnectionError }

// SendingError describes the inbox's sending fault, if any.
func (a Account) SendingError() string {
	switch a.Status {
	case AccountSoftBounceError:
		return "soft bounce error"
	case AccountSendingError:
		return "sending error"
	}
	return ""
}

// CustomTag labels campaigns and accounts. Each tag names one agency client.
type CustomTag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Tag mapping resource types.
const (
	ResourceAccount  = 1
	ResourceCampaign = 2
)

// TagMapping attaches a tag to an account (by email) or a campaign (by ID).
type TagMapping struct {
	TagID        string `json:"tag_id"`
	ResourceID   string `json:"resource_id"`
	ResourceType int    `json:"resource_type"`
}

// DailyAnalytics is one campaign's sends and replies on one day.
type DailyAnalytics struct {
	Date       string `json:"date"`
	CampaignID string `json:"campaign_id"`
	Sent       int64  `json:"sent"`
	Replies    int64  `json:"replies"`
}

// WeeklyPoint is a campaign's activity rolled up to an ISO week. WeekStart
// is the Monday of the week.
type WeeklyPoint struct {
	CampaignID string `json:"campaign_id"`
	WeekStart  string `json:"week_start"`
	Sent       int64  `json:"sent"`
	Replied    int64  `json:"replied"`
}

// Input is everything fetched from the platform for one refresh.
type Input struct {
	Campaigns []Campaign          `json:"campaigns"`
	Analytics []CampaignAnalytics `json:"analytics"`
	Accounts  []Account           `json:"accounts"`
	Tags      []CustomTag         `json:"tags"`
	Mappings  []TagMapping        `json:"mappings"`
	Weekly    []WeeklyPoint       `json:"weekly"`
}

type page[T any] struct {
	Items             []T    `json:"items"`
	NextStartingAfter string `json:"next_starting_after"`
}
