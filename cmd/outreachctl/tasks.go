package main

import (
	"fmt"
	"io"

	"github.com/ignite/outreach-monitor/internal/tasks"
	"github.com/spf13/cobra"
)

var tasksType string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Generate the daily and weekly task lists",
	Long: `Generate tasks from the current classifications.

Daily tasks exist only for high and critical clients; every classified
client gets weekly tasks.

Examples:
  outreachctl tasks
  outreachctl tasks --type daily`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().StringVar(&tasksType, "type", "", "Only print one cadence (daily, weekly)")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	snap, err := buildSnapshot()
	if err != nil {
		return err
	}

	list := snap.Tasks
	switch tasks.Type(tasksType) {
	case "":
	case tasks.Daily:
		list.Weekly = nil
	case tasks.Weekly:
		list.Daily = nil
	default:
		return fmt.Errorf("unknown task type %q, want daily or weekly", tasksType)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, list)
	}
	if tasksType != string(tasks.Weekly) {
		printTasks(out, "Daily", list.Daily)
	}
	if tasksType != string(tasks.Daily) {
		printTasks(out, "Weekly", list.Weekly)
	}
	return nil
}

func printTasks(w io.Writer, title string, list []tasks.AutoTask) {
	fmt.Fprintf(w, "%s tasks (%d)\n", title, len(list))
	for _, t := range list {
		fmt.Fprintf(w, "  [%s] %s: %s (due %s)\n", t.Severity, t.ClientName, t.Title, t.DueDate)
	}
	fmt.Fprintln(w)
}
