package classifier

import (
	"math"

	"github.com/ignite/outreach-monitor/internal/metrics"
)

// ScoreBreakdown holds the 0-100 sub-scores behind a health score.
type ScoreBreakdown struct {
	Reply      float64 `json:"reply"`
	Conversion float64 `json:"conversion"`
	Bounce     float64 `json:"bounce"`
	Inbox      float64 `json:"inbox"`
	Meeting    float64 `json:"meeting"`
	Total      int     `json:"total"`
}

// HealthScore computes the 0-100 weighted health score of a client.
func HealthScore(m metrics.ClientMetrics, b Benchmarks, w Weights) int {
	return Breakdown(m, b, w).Total
}

// Breakdown computes every sub-score and the weighted total.
func Breakdown(m metrics.ClientMetrics, b Benchmarks, w Weights) ScoreBreakdown {
	sb := ScoreBreakdown{
		Reply:      ratioScore(m.ReplyRate, b.GoodReplyRate),
		Conversion: ratioScore(m.ConversionRate, b.TargetConversion),
		Bounce:     math.Max(0, 100-m.BounceRate*10),
		Inbox:      ratioScore(m.AvgInboxHealth, b.HealthyInboxThreshold),
		Meeting:    ratioScore(m.PosReplyToMeeting, b.MeetingRatioTarget),
	}
	total := sb.Reply*w.Reply +
		sb.Conversion*w.Conversion +
		sb.Bounce*w.Bounce +
		sb.Inbox*w.Inbox +
		sb.Meeting*w.Meeting
	sb.Total = int(math.Round(math.Min(100, math.Max(0, total))))
	return sb
}

// ratioScore normalizes value against its benchmark and caps at 100.
func ratioScore(value, benchmark float64) float64 {
	if benchmark <= 0 || value <= 0 {
		return 0
	}
	return math.Min(100, value/benchmark*100)
}
