package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/spf13/cobra"
)

var classifyBucket string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify every client into a diagnostic bucket",
	Long: `Classify every client and print the portfolio, most urgent first.

Examples:
  outreachctl classify
  outreachctl classify --bucket DELIVERABILITY_ISSUE
  outreachctl classify --input input.json --format json`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyBucket, "bucket", "", "Only show clients in this bucket (e.g. COPY_ISSUE)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	snap, err := buildSnapshot()
	if err != nil {
		return err
	}
	cls := snap.Classifications
	if classifyBucket != "" {
		b, err := classifier.ParseBucket(strings.ToUpper(classifyBucket))
		if err != nil {
			return err
		}
		cls = filterBucket(cls, b)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, map[string]interface{}{
			"portfolio":       snap.Portfolio,
			"classifications": cls,
		})
	}
	printClassifications(out, snap.Portfolio, cls)
	return nil
}

func filterBucket(cls []classifier.ClientClassification, b classifier.Bucket) []classifier.ClientClassification {
	out := []classifier.ClientClassification{}
	for _, c := range cls {
		if c.Bucket == b {
			out = append(out, c)
		}
	}
	return out
}

func printClassifications(w io.Writer, p classifier.Portfolio, cls []classifier.ClientClassification) {
	fmt.Fprintf(w, "Portfolio: %d clients, health %d/100, reply rate %.2f%%, bounce rate %.2f%%\n\n",
		p.Clients, p.HealthScore, p.ReplyRate, p.BounceRate)
	if len(cls) == 0 {
		fmt.Fprintln(w, "No clients match.")
		return
	}
	fmt.Fprintf(w, "%-28s %-22s %-9s %6s  %s\n", "CLIENT", "BUCKET", "SEVERITY", "SCORE", "REASON")
	for _, c := range cls {
		fmt.Fprintf(w, "%-28s %-22s %-9s %6d  %s\n", c.ClientName, c.Bucket, c.Severity, c.HealthScore, c.Reason)
	}
}
