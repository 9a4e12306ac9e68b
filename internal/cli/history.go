package cli

import (
	"fmt"
	"io"

	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	"github.com/ariel-frischer/tasknotify/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "View raised task notifications",
		Long: `List the task notifications raised by 'tasknotify watch', newest first, with
whether each was delivered, skipped or failed.`,
		GroupID: shared.GroupMonitoring,
		Args:    cobra.NoArgs,
		RunE:    runHistory,
	}
	cmd.Flags().IntP("limit", "n", 20, "Show the last N entries (0 for all)")
	cmd.Flags().String("status", "", "Filter by status (delivered, skipped, failed)")
	cmd.Flags().String("task", "", "Filter by task ID")
	cmd.Flags().Bool("clear", false, "Clear all history")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	clearFlag, _ := cmd.Flags().GetBool("clear")
	statusFilter, _ := cmd.Flags().GetString("status")
	taskFilter, _ := cmd.Flags().GetString("task")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	if clearFlag {
		if err := history.ClearHistory(a.cfg.StateDir); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(a.cfg.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := histFile.Find(history.Query{Status: statusFilter, TaskID: taskFilter, Limit: limit})
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), buildEmptyMessage(statusFilter, taskFilter))
		return nil
	}

	displayEntries(cmd.OutOrStdout(), entries)
	return nil
}

// buildEmptyMessage creates an appropriate message when no entries match filters.
func buildEmptyMessage(statusFilter, taskFilter string) string {
	switch {
	case statusFilter != "" && taskFilter != "":
		return fmt.Sprintf("No matching entries for task '%s' and status '%s'.", taskFilter, statusFilter)
	case taskFilter != "":
		return fmt.Sprintf("No matching entries for task '%s'.", taskFilter)
	case statusFilter != "":
		return fmt.Sprintf("No matching entries for status '%s'.", statusFilter)
	default:
		return "No notifications recorded yet."
	}
}

// displayEntries formats and displays history entries.
func displayEntries(out io.Writer, entries []history.HistoryEntry) {
	c := shared.NewColors()

	for _, entry := range entries {
		timestamp := entry.EmittedAt.Local().Format("2006-01-02 15:04:05")

		kind := "today"
		if entry.Kind == "overdue" {
			kind = fmt.Sprintf("overdue %dd", entry.DaysOverdue)
		}

		line := fmt.Sprintf("%s  %s  %-11s  %-10s  %s",
			c.Cyan(timestamp),
			formatStatus(c, entry.Status),
			kind,
			shared.Truncate(entry.TaskID, 10),
			entry.TaskName,
		)
		if entry.Error != "" {
			line += "  " + c.Dim("("+entry.Error+")")
		}
		fmt.Fprintln(out, line)
	}
}

// formatStatus returns a color-coded, padded status string.
func formatStatus(c *shared.Colors, status string) string {
	padded := fmt.Sprintf("%-9s", status)
	switch status {
	case history.StatusDelivered:
		return c.Green(padded)
	case history.StatusSkipped:
		return c.Yellow(padded)
	case history.StatusFailed:
		return c.Red(padded)
	default:
		return padded
	}
}
