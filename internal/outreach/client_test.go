package outreach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/outreach-monitor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.OutreachConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		TimeoutSeconds: 5,
		PageSize:       2,
		MaxRetries:     1,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestClient_ListCampaigns_FollowsCursor(t *testing.T) {
	var cursors []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/campaigns", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		after := r.URL.Query().Get("starting_after")
		cursors = append(cursors, after)
		switch after {
		case "":
			writeJSON(w, page[Campaign]{
				Items:             []Campaign{{ID: "c1", Name: "Acme - Q4"}, {ID: "c2", Name: "Acme - Q3"}},
				NextStartingAfter: "c2",
			})
		case "c2":
			writeJSON(w, page[Campaign]{Items: []Campaign{{ID: "c3", Name: "Beta | Outbound", Status: CampaignActive}}})
		default:
			t.Errorf("unexpected cursor %q", after)
		}
	})

	campaigns, err := client.ListCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 3)
	assert.Equal(t, "c3", campaigns[2].ID)
	assert.True(t, campaigns[2].Active())
	assert.Equal(t, []string{"", "c2"}, cursors)
}

func TestClient_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := client.ListAccounts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such route"))
	})

	_, err := client.CampaignAnalytics(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestClient_WeeklyAnalytics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/analytics/daily", r.URL.Path)
		assert.Equal(t, "2026-09-01", r.URL.Query().Get("start_date"))
		writeJSON(w, []DailyAnalytics{
			{Date: "2026-10-12", CampaignID: "c1", Sent: 100, Replies: 2}, // Monday
			{Date: "2026-10-14", CampaignID: "c1", Sent: 50, Replies: 1},
			{Date: "2026-10-09", CampaignID: "c1", Sent: 80, Replies: 0},
			{Date: "garbage", CampaignID: "c1", Sent: 999},
		})
	})

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	weeks, err := client.WeeklyAnalytics(context.Background(), from, from.AddDate(0, 1, 13))
	require.NoError(t, err)
	assert.Equal(t, []WeeklyPoint{
		{CampaignID: "c1", WeekStart: "2026-10-05", Sent: 80, Replied: 0},
		{CampaignID: "c1", WeekStart: "2026-10-12", Sent: 150, Replied: 3},
	}, weeks)
}

func TestClient_FetchInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/campaigns":
			writeJSON(w, page[Campaign]{Items: []Campaign{{ID: "c1", Name: "Acme - Q4"}}})
		case "/campaigns/analytics":
			writeJSON(w, []CampaignAnalytics{{CampaignID: "c1", EmailsSentCount: 10}})
		case "/campaigns/analytics/daily":
			writeJSON(w, []DailyAnalytics{})
		case "/accounts":
			writeJSON(w, page[Account]{Items: []Account{{Email: "a@acme.io", Status: AccountActive}}})
		case "/custom-tags":
			writeJSON(w, page[CustomTag]{Items: []CustomTag{{ID: "t1", Label: "Acme"}}})
		case "/custom-tag-mappings":
			writeJSON(w, page[TagMapping]{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	in, err := client.FetchInput(context.Background(), time.Now().AddDate(0, 0, -56))
	require.NoError(t, err)
	assert.Len(t, in.Campaigns, 1)
	assert.Len(t, in.Analytics, 1)
	assert.Len(t, in.Accounts, 1)
	assert.Len(t, in.Tags, 1)
	assert.Empty(t, in.Mappings)
}

func TestClient_FetchInputFailsOnAnyEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/accounts" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, page[Campaign]{})
	})

	_, err := client.FetchInput(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching accounts")
}

func TestWeekStart(t *testing.T) {
	tests := map[string]string{
		"2026-10-12": "2026-10-12", // Monday
		"2026-10-14": "2026-10-12",
		"2026-10-18": "2026-10-12", // Sunday
		"2026-10-19": "2026-10-19",
	}
	for day, want := range tests {
		d, err := time.Parse(dateLayout, day)
		require.NoError(t, err)
		assert.Equal(t, want, WeekStart(d), day)
	}
}
