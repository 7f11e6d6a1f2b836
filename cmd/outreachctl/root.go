package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/config"
	"github.com/ignite/outreach-monitor/internal/fixtures"
	"github.com/ignite/outreach-monitor/internal/outreach"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/ignite/outreach-monitor/internal/tasks"
	"github.com/spf13/cobra"
)

var (
	inputPath  string
	configPath string
	seed       int64
	format     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "outreachctl",
	Short: "Classify outreach clients and generate tasks offline",
	Long: `outreachctl runs the classification pipeline over a JSON export of the
outreach platform, or over generated fixture data when no input is given.

Examples:
  outreachctl fixtures --seed 7 > input.json
  outreachctl classify --input input.json
  outreachctl tasks --type daily --format json
  outreachctl ask "which inboxes are disconnected?"`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevel(logger.ParseLevel(logLevel))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "JSON input file (default: generated fixtures)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config with benchmarks and weights")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 1, "Fixture seed when no input file is given")
	rootCmd.PersistentFlags().StringVar(&format, "format", "human", "Output format (human, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// loadInput reads --input, or generates fixtures for --seed.
func loadInput(now time.Time) (outreach.Input, error) {
	if inputPath == "" {
		return fixtures.Default(seed, now), nil
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return outreach.Input{}, err
	}
	var in outreach.Input
	if err := json.Unmarshal(data, &in); err != nil {
		return outreach.Input{}, fmt.Errorf("parsing %s: %w", inputPath, err)
	}
	return in, nil
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildSnapshot runs the full pipeline over the selected input.
func buildSnapshot() (outreach.Snapshot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return outreach.Snapshot{}, err
	}
	now := time.Now()
	in, err := loadInput(now)
	if err != nil {
		return outreach.Snapshot{}, err
	}
	clock := func() time.Time { return now }
	cls := classifier.New(cfg.Benchmarks, classifier.WithWeights(cfg.HealthWeights), classifier.WithClock(clock))
	b := outreach.NewBuilder(cls, tasks.NewGenerator(clock), cfg.Polling.TrendDropPct, outreach.WithBuildClock(clock))
	return b.BuildSnapshot(in), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
