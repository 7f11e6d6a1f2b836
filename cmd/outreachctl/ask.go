package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/outreach-monitor/internal/agent"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer an operational question from the current data",
	Long: `Route a natural-language question through the built-in reports.

Offline there is no generative fallback, so questions no report covers get
the list of supported topics.

Examples:
  outreachctl ask "which clients are not hitting benchmarks?"
  outreachctl ask "how is Globex doing"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	snap, err := buildSnapshot()
	if err != nil {
		return err
	}
	bundle := &agent.ContextBundle{
		Classifications: snap.Classifications,
		Inbox:           snap.Inbox,
		Trends:          snap.Trends,
		Tasks:           snap.Tasks,
		Benchmarks:      snap.Benchmarks,
		Portfolio:       snap.Portfolio,
		GeneratedAt:     snap.GeneratedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res := agent.NewRouter(nil).Route(ctx, strings.Join(args, " "), bundle)

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, res)
	}
	fmt.Fprintln(out, res.Response)
	return nil
}
