package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

const notConfigured = "not configured"

// HealthChecker reports on the collector and on the optional Postgres and
// Redis dependencies.
type HealthChecker struct {
	db          *sql.DB
	redisClient *redis.Client
	collector   SnapshotSource
	maxAge      time.Duration
	startTime   time.Time
}

// NewHealthChecker creates a new HealthChecker. db and redisClient may be
// nil. A snapshot older than maxAge marks the collector degraded.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client, collector SnapshotSource, maxAge time.Duration) *HealthChecker {
	return &HealthChecker{
		db:          db,
		redisClient: redisClient,
		collector:   collector,
		maxAge:      maxAge,
		startTime:   time.Now(),
	}
}

const healthVersion = "1.0.0"

// HandleHealth returns the status of every component. Always 200; the
// status field carries health.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	respondJSON(w, http.StatusOK, HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness always returns 200 while the process is running.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness returns 503 until the service can answer from a snapshot.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := determineOverallStatus(checks)

	ready := overall != "unhealthy"
	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, httpStatus, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	type result struct {
		name  string
		check ComponentCheck
	}
	ch := make(chan result, 3)

	go func() { ch <- result{"database", hc.checkDatabase(ctx)} }()
	go func() { ch <- result{"redis", hc.checkRedis(ctx)} }()
	go func() { ch <- result{"collector", hc.checkCollector()} }()

	checks := make(map[string]ComponentCheck, 3)
	for i := 0; i < 3; i++ {
		r := <-ch
		checks[r.name] = r.check
	}
	return checks
}

// checkDatabase pings PostgreSQL with a 3-second timeout.
func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: "down", Message: notConfigured}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return timedCheck(time.Second, func() error { return hc.db.PingContext(pingCtx) })
}

// checkRedis pings Redis with a 2-second timeout.
func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redisClient == nil {
		return ComponentCheck{Status: "down", Message: notConfigured}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return timedCheck(500*time.Millisecond, func() error { return hc.redisClient.Ping(pingCtx).Err() })
}

// checkCollector is down until a first snapshot exists and degraded when
// the last refresh failed or the snapshot is stale.
func (hc *HealthChecker) checkCollector() ComponentCheck {
	snap, ok := hc.collector.Latest()
	st := hc.collector.Status()
	if !ok {
		msg := "no snapshot yet"
		if st.LastError != "" {
			msg = "no snapshot yet, last refresh failed"
		}
		return ComponentCheck{Status: "down", Message: msg}
	}

	age := time.Since(snap.GeneratedAt)
	switch {
	case st.LastError != "":
		return ComponentCheck{Status: "degraded", Message: fmt.Sprintf("last refresh failed, serving snapshot %s old", formatUptime(age))}
	case hc.maxAge > 0 && age > hc.maxAge:
		return ComponentCheck{Status: "degraded", Message: fmt.Sprintf("snapshot is %s old", formatUptime(age))}
	}
	return ComponentCheck{Status: "up", Message: fmt.Sprintf("%d clients, run %s", len(snap.Classifications), snap.RunID)}
}

func timedCheck(slow time.Duration, ping func() error) ComponentCheck {
	start := time.Now()
	err := ping()
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	if latency > slow {
		return ComponentCheck{Status: "degraded", Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	}
	return ComponentCheck{Status: "up", Latency: latency.String(), Message: "connected"}
}

// determineOverallStatus derives the aggregate status from individual checks.
//
// Rules:
//   - "unhealthy" if the collector has no snapshot to serve
//   - "degraded"  if any check is degraded or a configured dependency is down
//   - "healthy"   otherwise
func determineOverallStatus(checks map[string]ComponentCheck) string {
	if c, ok := checks["collector"]; ok && c.Status == "down" {
		return "unhealthy"
	}
	for _, c := range checks {
		if c.Status == "degraded" {
			return "degraded"
		}
		if c.Status == "down" && c.Message != notConfigured {
			return "degraded"
		}
	}
	return "healthy"
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
