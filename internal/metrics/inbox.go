package metrics

import (
	"sort"
	"strings"
)

// InboxRecord is one sending inbox (account) as reported upstream.
type InboxRecord struct {
	Email        string  `json:"email"`
	ClientID     string  `json:"client_id"`
	ClientName   string  `json:"client_name"`
	HealthScore  float64 `json:"health_score"`
	Connected    bool    `json:"connected"`
	SendingError string  `json:"sending_error,omitempty"`
}

// InboxIssue describes one inbox that needs an operator's attention.
type InboxIssue struct {
	Email       string  `json:"email"`
	ClientName  string  `json:"client_name"`
	Problem     string  `json:"problem"`
	HealthScore float64 `json:"health_score"`
}

// ClientInboxHealth is the per-client roll-up of inbox state.
type ClientInboxHealth struct {
	ClientID     string  `json:"client_id"`
	ClientName   string  `json:"client_name"`
	Inboxes      int     `json:"inboxes"`
	AvgHealth    float64 `json:"avg_health"`
	Disconnected int     `json:"disconnected"`
	Errors       int     `json:"errors"`
}

// InboxHealthSummary is the account-wide view of sending inboxes.
type InboxHealthSummary struct {
	TotalInboxes      int                 `json:"total_inboxes"`
	Connected         int                 `json:"connected"`
	Disconnected      int                 `json:"disconnected"`
	WithSendingErrors int                 `json:"with_sending_errors"`
	Unhealthy         int                 `json:"unhealthy"`
	AvgHealth         float64             `json:"avg_health"`
	Issues            []InboxIssue        `json:"issues"`
	ByClient          []ClientInboxHealth `json:"by_client"`
}

// Problem labels used in InboxIssue.Problem.
const (
	ProblemDisconnected = "disconnected"
	ProblemSendingError = "sending error"
	ProblemLowHealth    = "low health"
)

// SummarizeInboxes builds the inbox view. An inbox below healthyThreshold
// counts as unhealthy. Each inbox yields at most one issue, with
// disconnection taking precedence over sending errors and low health.
func SummarizeInboxes(inboxes []InboxRecord, healthyThreshold float64) InboxHealthSummary {
	s := InboxHealthSummary{
		TotalInboxes: len(inboxes),
		Issues:       []InboxIssue{},
		ByClient:     []ClientInboxHealth{},
	}
	if len(inboxes) == 0 {
		return s
	}

	type acc struct {
		ClientInboxHealth
		sum float64
	}
	byClient := make(map[string]*acc)
	var total float64

	for _, in := range inboxes {
		score := clampScore(in.HealthScore)
		total += score

		key := in.ClientID
		if key == "" {
			key = strings.ToLower(in.ClientName)
		}
		a, ok := byClient[key]
		if !ok {
			a = &acc{ClientInboxHealth: ClientInboxHealth{ClientID: in.ClientID, ClientName: in.ClientName}}
			byClient[key] = a
		}
		a.Inboxes++
		a.sum += score

		problem := ""
		switch {
		case !in.Connected:
			s.Disconnected++
			a.Disconnected++
			problem = ProblemDisconnected
		default:
			s.Connected++
		}
		if in.SendingError != "" {
			s.WithSendingErrors++
			a.Errors++
			if problem == "" {
				problem = ProblemSendingError
			}
		}
		if score < healthyThreshold {
			s.Unhealthy++
			if problem == "" {
				problem = ProblemLowHealth
			}
		}
		if problem != "" {
			s.Issues = append(s.Issues, InboxIssue{
				Email:       in.Email,
				ClientName:  in.ClientName,
				Problem:     problem,
				HealthScore: score,
			})
		}
	}

	s.AvgHealth = Round2(total / float64(len(inboxes)))

	for _, a := range byClient {
		c := a.ClientInboxHealth
		c.AvgHealth = Round2(a.sum / float64(a.Inboxes))
		s.ByClient = append(s.ByClient, c)
	}
	sort.Slice(s.ByClient, func(i, j int) bool {
		if s.ByClient[i].AvgHealth != s.ByClient[j].AvgHealth {
			return s.ByClient[i].AvgHealth < s.ByClient[j].AvgHealth
		}
		return s.ByClient[i].ClientName < s.ByClient[j].ClientName
	})
	sort.SliceStable(s.Issues, func(i, j int) bool {
		pi, pj := problemRank(s.Issues[i].Problem), problemRank(s.Issues[j].Problem)
		if pi != pj {
			return pi < pj
		}
		if s.Issues[i].ClientName != s.Issues[j].ClientName {
			return s.Issues[i].ClientName < s.Issues[j].ClientName
		}
		return s.Issues[i].Email < s.Issues[j].Email
	})

	return s
}

// HealthScoresByClient groups inbox health scores by client key, the input
// Aggregate expects.
func HealthScoresByClient(inboxes []InboxRecord) map[string][]float64 {
	out := make(map[string][]float64)
	for _, in := range inboxes {
		if in.ClientID == "" {
			continue
		}
		out[in.ClientID] = append(out[in.ClientID], in.HealthScore)
	}
	return out
}

func problemRank(p string) int {
	switch p {
	case ProblemDisconnected:
		return 0
	case ProblemSendingError:
		return 1
	default:
		return 2
	}
}
