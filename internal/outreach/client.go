package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ignite/outreach-monitor/internal/config"
	"github.com/ignite/outreach-monitor/internal/pkg/httpretry"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// ErrUnauthorized is returned when the platform rejects the API key.
var ErrUnauthorized = errors.New("outreach: unauthorized")

const dateLayout = "2006-01-02"

// maxPages bounds cursor pagination against a misbehaving upstream.
const maxPages = 1000

// Client is the outreach platform API client
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new outreach platform API client
func NewClient(cfg config.OutreachConfig) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated GET against the platform API
func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (status %d on %s)", ErrUnauthorized, resp.StatusCode, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("API error (status %d on %s): %s", resp.StatusCode, endpoint, truncate(body, 256))
	}
	return body, nil
}

// listAll follows starting_after / next_starting_after cursors until the
// platform returns an empty cursor.
func listAll[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(c.pageSize))

	var out []T
	cursor := ""
	for i := 0; i < maxPages; i++ {
		if cursor != "" {
			query.Set("starting_after", cursor)
		}
		body, err := c.doRequest(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}
		var p page[T]
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("failed to parse %s page: %w", endpoint, err)
		}
		out = append(out, p.Items...)
		if p.NextStartingAfter == "" || p.NextStartingAfter == cursor {
			return out, nil
		}
		cursor = p.NextStartingAfter
	}
	return nil, fmt.Errorf("%s: pagination exceeded %d pages", endpoint, maxPages)
}

// ListCampaigns returns every campaign in the workspace.
func (c *Client) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	return listAll[Campaign](ctx, c, "/campaigns", nil)
}

// ListAccounts returns every sending inbox.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	return listAll[Account](ctx, c, "/accounts", nil)
}

// ListCustomTags returns every custom tag.
func (c *Client) ListCustomTags(ctx context.Context) ([]CustomTag, error) {
	return listAll[CustomTag](ctx, c, "/custom-tags", nil)
}

// ListTagMappings returns every tag-to-resource mapping.
func (c *Client) ListTagMappings(ctx context.Context) ([]TagMapping, error) {
	return listAll[TagMapping](ctx, c, "/custom-tag-mappings", nil)
}

// CampaignAnalytics returns lifetime analytics for every campaign. The
// endpoint answers with a bare array.
func (c *Client) CampaignAnalytics(ctx context.Context) ([]CampaignAnalytics, error) {
	body, err := c.doRequest(ctx, "/campaigns/analytics", nil)
	if err != nil {
		return nil, err
	}
	var out []CampaignAnalytics
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse campaign analytics: %w", err)
	}
	return out, nil
}

// DailyAnalytics returns per-campaign daily counters between from and to
// inclusive.
func (c *Client) DailyAnalytics(ctx context.Context, from, to time.Time) ([]DailyAnalytics, error) {
	query := url.Values{}
	query.Set("start_date", from.UTC().Format(dateLayout))
	query.Set("end_date", to.UTC().Format(dateLayout))

	body, err := c.doRequest(ctx, "/campaigns/analytics/daily", query)
	if err != nil {
		return nil, err
	}
	var out []DailyAnalytics
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse daily analytics: %w", err)
	}
	return out, nil
}

// WeeklyAnalytics rolls DailyAnalytics up to Monday-based weeks.
func (c *Client) WeeklyAnalytics(ctx context.Context, from, to time.Time) ([]WeeklyPoint, error) {
	daily, err := c.DailyAnalytics(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return RollupWeekly(daily), nil
}

// FetchInput fetches every resource needed for a snapshot concurrently.
// Weekly analytics cover since..now. Any failed fetch fails the whole input.
func (c *Client) FetchInput(ctx context.Context, since time.Time) (Input, error) {
	var (
		in   Input
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	startTime := time.Now()

	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("fetching %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	run("campaigns", func() (err error) { in.Campaigns, err = c.ListCampaigns(ctx); return })
	run("analytics", func() (err error) { in.Analytics, err = c.CampaignAnalytics(ctx); return })
	run("accounts", func() (err error) { in.Accounts, err = c.ListAccounts(ctx); return })
	run("tags", func() (err error) { in.Tags, err = c.ListCustomTags(ctx); return })
	run("tag mappings", func() (err error) { in.Mappings, err = c.ListTagMappings(ctx); return })
	run("weekly analytics", func() (err error) { in.Weekly, err = c.WeeklyAnalytics(ctx, since, time.Now()); return })
	wg.Wait()

	if len(errs) > 0 {
		return Input{}, errors.Join(errs...)
	}
	logger.Info("outreach input fetched",
		"campaigns", len(in.Campaigns), "accounts", len(in.Accounts),
		"tags", len(in.Tags), "weeks", len(in.Weekly), "duration", time.Since(startTime).String())
	return in, nil
}

// RollupWeekly sums daily points into per-campaign weeks, ordered by
// campaign then week. Undated points are dropped.
func RollupWeekly(daily []DailyAnalytics) []WeeklyPoint {
	type key struct{ campaign, week string }
	sums := make(map[key]*WeeklyPoint)
	for _, d := range daily {
		day, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			continue
		}
		k := key{d.CampaignID, WeekStart(day)}
		p, ok := sums[k]
		if !ok {
			p = &WeeklyPoint{CampaignID: d.CampaignID, WeekStart: k.week}
			sums[k] = p
		}
		p.Sent += d.Sent
		p.Replied += d.Replies
	}

	out := make([]WeeklyPoint, 0, len(sums))
	for _, p := range sums {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CampaignID != out[j].CampaignID {
			return out[i].CampaignID < out[j].CampaignID
		}
		return out[i].WeekStart < out[j].WeekStart
	})
	return out
}

// WeekStart returns the Monday of t's week as YYYY-MM-DD.
func WeekStart(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(dateLayout)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
