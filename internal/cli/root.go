// tasknotify - Task deadline notifications for the CRM
// Author: Ariel Frischer

// Package cli provides the Cobra-based commands of tasknotify: the
// long-running watcher, one-shot checks, identity management, history and
// diagnostics.
package cli

import (
	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	"github.com/spf13/cobra"
)

// Persistent flag names.
const (
	flagConfig   = "config"
	flagEmployee = "employee"
	flagDebug    = "debug"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tasknotify",
		Short: "Desktop notifications for CRM task deadlines",
		Long: `tasknotify watches your CRM tasks and raises a desktop notification with a
chime whenever a task is due today or overdue.

Deadlines close at 13:30 for MORNING tasks and 18:30 for EVENING tasks,
in your local time zone unless 'timezone' is configured.`,
		Example: `  # Sign in once
  tasknotify login E-1042

  # Watch for due and overdue tasks until interrupted
  tasknotify watch

  # List what is due right now
  tasknotify check

  # Diagnose notification, sound and API problems
  tasknotify doctor`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupMonitoring, Title: "Monitoring:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupIdentity, Title: "Identity:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupDiagnostics, Title: "Diagnostics:"})
	rootCmd.SetHelpCommandGroupID(shared.GroupDiagnostics)
	rootCmd.SetCompletionCommandGroupID(shared.GroupDiagnostics)

	rootCmd.PersistentFlags().StringP(flagConfig, "c", "", "Path to an additional JSON config file")
	rootCmd.PersistentFlags().String(flagEmployee, "", "Employee ID (overrides the signed-in identity)")
	rootCmd.PersistentFlags().BoolP(flagDebug, "d", false, "Enable debug logging")

	rootCmd.AddCommand(
		newWatchCmd(),
		newCheckCmd(),
		newHistoryCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newDoctorCmd(),
		newNotifyTestCmd(),
		newUninstallCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command, prints any error and returns the process
// exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	if err != nil && !shared.IsExitError(err) {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return shared.ExitCode(err)
}
