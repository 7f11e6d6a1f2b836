package main

import (
	"time"

	"github.com/ignite/outreach-monitor/internal/fixtures"
	"github.com/spf13/cobra"
)

var fixtureWeeks int

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Write a generated platform export as JSON",
	Long: `Generate a deterministic platform export for --seed, covering one client
per diagnostic bucket. The output can be fed back with --input.

Examples:
  outreachctl fixtures --seed 3 > input.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := fixtures.New(seed, time.Now(), fixtures.WithWeeks(fixtureWeeks)).Input(fixtures.DefaultProfiles())
		return writeJSON(cmd.OutOrStdout(), in)
	},
}

func init() {
	fixturesCmd.Flags().IntVar(&fixtureWeeks, "weeks", 8, "Weeks of weekly analytics to generate")
	rootCmd.AddCommand(fixturesCmd)
}
