package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	"github.com/ariel-frischer/tasknotify/internal/config"
	"github.com/ariel-frischer/tasknotify/internal/uninstall"
	"github.com/spf13/cobra"
)

// binaryLocation resolves the executable to remove. Tests replace it.
var binaryLocation = uninstall.DetectBinaryLocation

func newUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove tasknotify and its data from this machine",
		Long: `Remove the tasknotify binary, ~/.tasknotify (config, identity, history)
and a state_dir configured outside it.

If the binary is installed in a system directory (e.g., /usr/local/bin),
you may need to run this command with sudo.`,
		Example: `  # Preview what would be removed
  tasknotify uninstall --dry-run

  # Remove without confirmation
  tasknotify uninstall --yes`,
		GroupID: shared.GroupDiagnostics,
		Args:    cobra.NoArgs,
		RunE:    runUninstall,
	}
	cmd.Flags().BoolP("dry-run", "n", false, "Show what would be removed without removing")
	cmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func runUninstall(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")
	out := cmd.OutOrStdout()

	binary, err := binaryLocation()
	if err != nil {
		return fmt.Errorf("locating binary: %w", err)
	}
	globalDir, err := config.GlobalDir()
	if err != nil {
		return err
	}
	// An unreadable config still lets the default locations be removed.
	var stateDir string
	if cfg, err := config.Load(""); err == nil {
		stateDir = cfg.StateDir
	}

	targets := uninstall.GetTargets(binary, globalDir, stateDir)
	existing := 0
	for _, target := range targets {
		if target.Exists {
			existing++
		}
	}
	if existing == 0 {
		fmt.Fprintln(out, "No tasknotify files found to remove.")
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, "Would remove:")
	} else {
		fmt.Fprintln(out, "The following will be removed:")
	}
	var requiresSudo bool
	for _, target := range targets {
		status := "exists"
		if !target.Exists {
			status = "not found"
		}
		hint := ""
		if target.RequiresSudo {
			hint = " (requires sudo)"
			requiresSudo = true
		}
		fmt.Fprintf(out, "  [%s] %s - %s%s\n", target.Type, target.Path, status, hint)
	}
	if dryRun {
		return nil
	}

	if requiresSudo {
		fmt.Fprintln(out, "\nWarning: Some files require elevated privileges to remove.")
	}
	if !yes && !promptYesNo(cmd, "Uninstall tasknotify?") {
		fmt.Fprintln(out, "Uninstall cancelled.")
		return nil
	}

	fmt.Fprintln(out)
	var removed, failed int
	for _, result := range uninstall.RemoveTargets(targets) {
		switch {
		case !result.Target.Exists:
			fmt.Fprintf(out, "- Skipped: %s (not found)\n", result.Target.Path)
		case result.Success:
			removed++
			fmt.Fprintf(out, "✓ Removed: %s\n", result.Target.Path)
		default:
			failed++
			fmt.Fprintf(out, "✗ Failed: %s (%v)\n", result.Target.Path, result.Error)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d items could not be removed", failed)
	}
	fmt.Fprintf(out, "\n%d removed. tasknotify has been uninstalled.\n", removed)
	return nil
}

// promptYesNo asks a question on the command's input and accepts y or yes.
func promptYesNo(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
