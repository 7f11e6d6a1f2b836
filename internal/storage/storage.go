// Package storage archives snapshots so the last known state survives a
// restart and past runs stay inspectable.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ignite/outreach-monitor/internal/config"
	"github.com/ignite/outreach-monitor/internal/pkg/awsutil"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// LatestKey always holds the most recently archived snapshot.
const LatestKey = "latest.json"

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("storage: object not found")

// Archive stores JSON documents by key.
type Archive interface {
	Put(ctx context.Context, key string, v any) error
	Get(ctx context.Context, key string, target any) error
}

// SnapshotKey returns the dated key a run is archived under.
func SnapshotKey(at time.Time, runID string) string {
	at = at.UTC()
	return fmt.Sprintf("%s/%s-%s.json", at.Format("2006/01/02"), at.Format("150405"), runID)
}

// SaveSnapshot writes v under its dated key and under LatestKey.
func SaveSnapshot(ctx context.Context, a Archive, at time.Time, runID string, v any) error {
	if err := a.Put(ctx, SnapshotKey(at, runID), v); err != nil {
		return err
	}
	return a.Put(ctx, LatestKey, v)
}

// New builds the Archive selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Archive, error) {
	switch cfg.Type {
	case "aws":
		awsCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
			Region:  cfg.AWSRegion,
			Profile: cfg.GetAWSProfile(),
		})
		if err != nil {
			return nil, fmt.Errorf("initializing AWS storage: %w", err)
		}
		logger.Info("snapshot archive on S3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return NewS3ArchiveFromConfig(awsCfg, cfg.S3Bucket, cfg.S3Prefix), nil
	case "local":
		logger.Info("snapshot archive on disk", "path", cfg.LocalPath)
		return NewLocalArchive(cfg.LocalPath)
	case "none", "":
		return NopArchive{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// LocalArchive writes documents as indented JSON files below a root directory.
type LocalArchive struct {
	root string
	mu   sync.Mutex
}

// NewLocalArchive creates root if needed.
func NewLocalArchive(root string) (*LocalArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

func (a *LocalArchive) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(a.root, clean), nil
}

// Put writes v to key, replacing the file atomically.
func (a *LocalArchive) Put(_ context.Context, key string, v any) error {
	p, err := a.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Get decodes the document at key into target.
func (a *LocalArchive) Get(_ context.Context, key string, target any) error {
	p, err := a.path(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", key, err)
	}
	return nil
}

// NopArchive discards writes and finds nothing.
type NopArchive struct{}

func (NopArchive) Put(context.Context, string, any) error { return nil }
func (NopArchive) Get(context.Context, string, any) error { return ErrNotFound }
