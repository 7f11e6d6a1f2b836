package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeTrends_FlagsDecliningClients(t *testing.T) {
	points := []WeeklyPoint{
		{ClientID: "acme", ClientName: "Acme", WeekStart: "2026-09-28", Sent: 1000, Replied: 20},
		{ClientID: "acme", ClientName: "Acme", WeekStart: "2026-10-05", Sent: 1000, Replied: 10},
		{ClientID: "globex", ClientName: "Globex", WeekStart: "2026-10-05", Sent: 1000, Replied: 15},
		{ClientID: "globex", ClientName: "Globex", WeekStart: "2026-09-28", Sent: 1000, Replied: 10},
		{ClientID: "initech", ClientName: "Initech", WeekStart: "2026-10-05", Sent: 500, Replied: 5},
	}

	s := SummarizeTrends(points, 10)

	require.Len(t, s.Clients, 3)
	require.Len(t, s.Declining, 1)
	assert.Equal(t, "Acme", s.Declining[0].ClientName)
	assert.Equal(t, -50.0, s.Declining[0].ChangePct)
	assert.Equal(t, TrendDown, s.Declining[0].Direction)

	byName := map[string]ClientTrend{}
	for _, c := range s.Clients {
		byName[c.ClientName] = c
	}
	assert.Equal(t, TrendUp, byName["Globex"].Direction)
	assert.Equal(t, "2026-09-28", byName["Globex"].Points[0].WeekStart)
	assert.Equal(t, TrendFlat, byName["Initech"].Direction)
}

func TestSummarizeTrends_MergesDuplicateWeeks(t *testing.T) {
	points := []WeeklyPoint{
		{ClientID: "acme", ClientName: "Acme", WeekStart: "2026-10-05", Sent: 500, Replied: 5},
		{ClientID: "acme", ClientName: "Acme", WeekStart: "2026-10-05", Sent: 500, Replied: 15},
	}

	s := SummarizeTrends(points, 10)

	require.Len(t, s.Clients, 1)
	require.Len(t, s.Clients[0].Points, 1)
	assert.Equal(t, 2.0, s.Clients[0].Points[0].ReplyRate)
}

func TestSummarizeTrends_SmallDropIsFlat(t *testing.T) {
	points := []WeeklyPoint{
		{ClientID: "acme", ClientName: "Acme", WeekStart: "2026-09-28", Sent: 1000, Replied: 20},
		{ClientID: "acme", ClientName: "Acme", WeekStart: "2026-10-05", Sent: 1000, Replied: 19},
	}

	s := SummarizeTrends(points, 10)

	assert.Empty(t, s.Declining)
	assert.Equal(t, TrendFlat, s.Clients[0].Direction)
}
