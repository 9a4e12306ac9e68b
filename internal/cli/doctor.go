package cli

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	"github.com/ariel-frischer/tasknotify/internal/health"
	"github.com/ariel-frischer/tasknotify/internal/notify"
	"github.com/ariel-frischer/tasknotify/internal/state"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run health checks for tasknotify",
		Long: `Run health checks to verify that tasknotify can notify you.

This command checks:
  - Configuration
  - Signed-in employee
  - State directory
  - Task API reachability
  - Desktop notification and sound tools
  - Stored notification permission

Each check displays a ✓ if passed or ✗ with an error message if failed.`,
		GroupID: shared.GroupDiagnostics,
		Args:    cobra.NoArgs,
		RunE:    runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	in := health.Inputs{Permission: notify.PermissionDefault}

	who, idErr := resolveEmployee(cmd)
	in.EmployeeID, in.IdentityErr = who.EmployeeID, idErr

	a, err := loadApp(cmd)
	in.ConfigErr = err
	if err == nil {
		in.StateDir = a.cfg.StateDir
		in.Sender = a.sender()
		if client, err := a.apiClient(); err == nil {
			in.API = client
		}
		in.Permission = a.desktop(in.Sender).Permission()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report := health.RunHealthChecks(ctx, in)
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

	if !report.Passed {
		return shared.NewExitError(shared.ExitFailure)
	}
	return nil
}

// resetPermission forgets the stored permission decision.
func resetPermission(stateDir string) error {
	return state.NewPermissionFile(stateDir).ResetPermission()
}
