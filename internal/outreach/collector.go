package outreach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/outreach-monitor/internal/config"
	"github.com/ignite/outreach-monitor/internal/pkg/distlock"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/ignite/outreach-monitor/internal/storage"
)

// Source supplies the raw platform data for a refresh. *Client is the
// production Source.
type Source interface {
	FetchInput(ctx context.Context, since time.Time) (Input, error)
}

// CollectorStatus reports the collector's health for /health.
type CollectorStatus struct {
	Running     bool      `json:"running"`
	LastFetch   time.Time `json:"last_fetch,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	RunID       string    `json:"run_id,omitempty"`
}

// Collector periodically rebuilds the snapshot. Only one instance across
// the fleet refreshes at a time; the others pick up the archived result.
// A failed refresh keeps the previous snapshot.
type Collector struct {
	source  Source
	builder *Builder
	archive storage.Archive
	lock    distlock.DistLock
	config  config.PollingConfig

	mu          sync.RWMutex
	latest      *Snapshot
	lastFetch   time.Time
	lastSuccess time.Time
	lastErr     error
	isRunning   bool
}

// NewCollector creates a collector. A nil archive or lock defaults to a
// no-op archive and a process-local lock.
func NewCollector(source Source, builder *Builder, archive storage.Archive, lock distlock.DistLock, cfg config.PollingConfig) *Collector {
	if archive == nil {
		archive = storage.NopArchive{}
	}
	if lock == nil {
		lock = distlock.NewLocalLock()
	}
	return &Collector{
		source:  source,
		builder: builder,
		archive: archive,
		lock:    lock,
		config:  cfg,
	}
}

// Start loads the archived snapshot, refreshes, then refreshes on every
// polling interval until ctx is done.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.isRunning = true
	c.mu.Unlock()

	logger.Info("starting outreach collector", "interval", c.config.Interval().String())
	if err := c.Warm(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("could not load archived snapshot", "error", err)
	}
	c.refreshAndLog(ctx)

	ticker := time.NewTicker(c.config.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping outreach collector")
			c.mu.Lock()
			c.isRunning = false
			c.mu.Unlock()
			return
		case <-ticker.C:
			c.refreshAndLog(ctx)
		}
	}
}

func (c *Collector) refreshAndLog(ctx context.Context) {
	if _, err := c.Refresh(ctx); err != nil {
		logger.Error("outreach refresh failed", "error", err)
	}
}

// Warm installs the archived latest snapshot if none is loaded yet.
func (c *Collector) Warm(ctx context.Context) error {
	var snap Snapshot
	if err := c.archive.Get(ctx, storage.LatestKey, &snap); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil || snap.GeneratedAt.After(c.latest.GeneratedAt) {
		c.latest = &snap
		logger.Info("loaded archived snapshot", "run_id", snap.RunID, "clients", len(snap.Classifications))
	}
	return nil
}

// Refresh fetches, rebuilds and archives a snapshot. When another instance
// holds the refresh lock it returns the archived snapshot instead.
func (c *Collector) Refresh(ctx context.Context) (*Snapshot, error) {
	var built *Snapshot
	err := distlock.Run(ctx, c.lock, func(ctx context.Context) error {
		snap, err := c.refresh(ctx)
		built = snap
		return err
	})
	if errors.Is(err, distlock.ErrNotAcquired) {
		logger.Info("refresh in progress elsewhere, using archived snapshot")
		if werr := c.Warm(ctx); werr != nil && !errors.Is(werr, storage.ErrNotFound) {
			return nil, werr
		}
		if snap, ok := c.Latest(); ok {
			return snap, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return built, nil
}

func (c *Collector) refresh(ctx context.Context) (*Snapshot, error) {
	startTime := time.Now()
	since := startTime.AddDate(0, 0, -7*c.config.TrendWeeks)

	in, err := c.source.FetchInput(ctx, since)

	c.mu.Lock()
	c.lastFetch = startTime
	c.lastErr = err
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("fetching outreach input: %w", err)
	}

	snap := c.builder.BuildSnapshot(in)
	c.mu.Lock()
	c.latest = &snap
	c.lastSuccess = time.Now()
	c.mu.Unlock()

	if err := storage.SaveSnapshot(ctx, c.archive, snap.GeneratedAt, snap.RunID, snap); err != nil {
		logger.Warn("snapshot archive failed", "run_id", snap.RunID, "error", err)
	}
	logger.Info("outreach snapshot built",
		"run_id", snap.RunID,
		"clients", len(snap.Classifications),
		"daily_tasks", len(snap.Tasks.Daily),
		"weekly_tasks", len(snap.Tasks.Weekly),
		"health_score", snap.Portfolio.HealthScore,
		"duration", time.Since(startTime).String())
	return &snap, nil
}

// Latest returns the most recent good snapshot.
func (c *Collector) Latest() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.latest != nil
}

// Status reports the collector's refresh state.
func (c *Collector) Status() CollectorStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := CollectorStatus{
		Running:     c.isRunning,
		LastFetch:   c.lastFetch,
		LastSuccess: c.lastSuccess,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	if c.latest != nil {
		st.RunID = c.latest.RunID
	}
	return st
}
