package metrics

import "sort"

// WeeklyPoint is one client's activity for one week. WeekStart is an ISO
// date (YYYY-MM-DD) so points order lexically.
type WeeklyPoint struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	WeekStart  string `json:"week_start"`
	Sent       int64  `json:"sent"`
	Replied    int64  `json:"replied"`
}

// TrendPoint is a WeeklyPoint with its derived reply rate.
type TrendPoint struct {
	WeekStart string  `json:"week_start"`
	Sent      int64   `json:"sent"`
	Replied   int64   `json:"replied"`
	ReplyRate float64 `json:"reply_rate"`
}

// Trend directions.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// ClientTrend is the week-over-week reply-rate series for one client.
// ChangePct is the relative change between the last two weeks.
type ClientTrend struct {
	ClientID   string       `json:"client_id"`
	ClientName string       `json:"client_name"`
	Points     []TrendPoint `json:"points"`
	ChangePct  float64      `json:"change_pct"`
	Direction  string       `json:"direction"`
}

// WeeklyTrendSummary holds every client's trend plus the declining subset.
type WeeklyTrendSummary struct {
	Clients   []ClientTrend `json:"clients"`
	Declining []ClientTrend `json:"declining"`
}

// SummarizeTrends groups weekly points per client and flags clients whose
// reply rate fell by at least dropPct percent (relative) in the latest week.
// Clients with fewer than two weeks of data are reported flat.
func SummarizeTrends(points []WeeklyPoint, dropPct float64) WeeklyTrendSummary {
	s := WeeklyTrendSummary{Clients: []ClientTrend{}, Declining: []ClientTrend{}}

	order := []string{}
	byClient := make(map[string]*ClientTrend)
	weekTotals := make(map[string]map[string]*TrendPoint)

	for _, p := range points {
		key := p.ClientID
		if key == "" {
			key = p.ClientName
		}
		ct, ok := byClient[key]
		if !ok {
			ct = &ClientTrend{ClientID: p.ClientID, ClientName: p.ClientName}
			byClient[key] = ct
			weekTotals[key] = make(map[string]*TrendPoint)
			order = append(order, key)
		}
		tp, ok := weekTotals[key][p.WeekStart]
		if !ok {
			tp = &TrendPoint{WeekStart: p.WeekStart}
			weekTotals[key][p.WeekStart] = tp
		}
		tp.Sent += nonNegative(p.Sent)
		tp.Replied += nonNegative(p.Replied)
	}

	for _, key := range order {
		ct := byClient[key]
		for _, tp := range weekTotals[key] {
			tp.ReplyRate = Percent(tp.Replied, tp.Sent)
			ct.Points = append(ct.Points, *tp)
		}
		sort.Slice(ct.Points, func(i, j int) bool { return ct.Points[i].WeekStart < ct.Points[j].WeekStart })

		ct.Direction = TrendFlat
		if n := len(ct.Points); n >= 2 {
			prev, last := ct.Points[n-2].ReplyRate, ct.Points[n-1].ReplyRate
			if prev > 0 {
				ct.ChangePct = Round2((last - prev) / prev * 100)
			}
			switch {
			case prev > 0 && ct.ChangePct <= -dropPct:
				ct.Direction = TrendDown
			case ct.ChangePct >= dropPct:
				ct.Direction = TrendUp
			}
		}

		s.Clients = append(s.Clients, *ct)
		if ct.Direction == TrendDown {
			s.Declining = append(s.Declining, *ct)
		}
	}

	byChange := func(list []ClientTrend) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].ChangePct != list[j].ChangePct {
				return list[i].ChangePct < list[j].ChangePct
			}
			return list[i].ClientName < list[j].ClientName
		}
	}
	sort.Slice(s.Clients, byChange(s.Clients))
	sort.Slice(s.Declining, byChange(s.Declining))

	return s
}
