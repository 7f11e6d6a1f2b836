package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/outreach-monitor/internal/fixtures"
	"github.com/ignite/outreach-monitor/internal/outreach"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  WARNING: This is a STUB outreach platform API.           ║")
	log.Println("║  All data is GENERATED from seeded client profiles.       ║")
	log.Println("║                                                           ║")
	log.Println("║  Point the monitor at it with:                            ║")
	log.Println("║    OUTREACH_BASE_URL=http://localhost:8099/api/v2         ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	port := envOr("STUB_PORT", "8099")
	seed, err := strconv.ParseInt(envOr("STUB_SEED", "1"), 10, 64)
	if err != nil {
		log.Fatalf("Invalid STUB_SEED: %v", err)
	}
	apiKey := os.Getenv("STUB_API_KEY")

	in := fixtures.Default(seed, time.Now().UTC())
	daily := dailyFromWeekly(in.Weekly)
	logger.Info("stub data generated",
		"seed", seed, "campaigns", len(in.Campaigns), "accounts", len(in.Accounts), "tags", len(in.Tags))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "outreach-stub-api",
			"warning": "THIS IS A STUB - data is generated",
		})
	})

	mux.HandleFunc("GET /api/v2/campaigns", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, in.Campaigns, func(c outreach.Campaign) string { return c.ID })
	})
	mux.HandleFunc("GET /api/v2/accounts", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, in.Accounts, func(a outreach.Account) string { return a.Email })
	})
	mux.HandleFunc("GET /api/v2/custom-tags", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, in.Tags, func(t outreach.CustomTag) string { return t.ID })
	})
	mux.HandleFunc("GET /api/v2/custom-tag-mappings", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, in.Mappings, func(m outreach.TagMapping) string { return m.TagID + ":" + m.ResourceID })
	})
	mux.HandleFunc("GET /api/v2/campaigns/analytics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, in.Analytics)
	})
	mux.HandleFunc("GET /api/v2/campaigns/analytics/daily", func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("start_date")
		to := r.URL.Query().Get("end_date")
		out := []outreach.DailyAnalytics{}
		for _, d := range daily {
			if (from == "" || d.Date >= from) && (to == "" || d.Date <= to) {
				out = append(out, d)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})

	handler := requireKey(apiKey, mux)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("stub api listening", "port", port, "auth", apiKey != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("stub api stopped")
	_ = logger.Sync()
}

// requireKey enforces the bearer key on /api routes when one is set.
func requireKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key != "" && strings.HasPrefix(r.URL.Path, "/api/") && r.Header.Get("Authorization") != "Bearer "+key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// paginate serves items in ?limit sized pages, resuming after the item
// whose key equals ?starting_after.
func paginate[T any](w http.ResponseWriter, r *http.Request, items []T, key func(T) string) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 100
	}

	start := 0
	if after := r.URL.Query().Get("starting_after"); after != "" {
		start = len(items)
		for i, it := range items {
			if key(it) == after {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(items))

	next := ""
	if end < len(items) {
		next = key(items[end-1])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":               items[start:end],
		"next_starting_after": next,
	})
}

// dailyFromWeekly books each campaign week on its Monday, which rolls back
// up to the same weekly series.
func dailyFromWeekly(weekly []outreach.WeeklyPoint) []outreach.DailyAnalytics {
	out := make([]outreach.DailyAnalytics, 0, len(weekly))
	for _, p := range weekly {
		out = append(out, outreach.DailyAnalytics{
			Date:       p.WeekStart,
			CampaignID: p.CampaignID,
			Sent:       p.Sent,
			Replies:    p.Replied,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CampaignID < out[j].CampaignID
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding stub response", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
