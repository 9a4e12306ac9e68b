package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	apperrors "github.com/ariel-frischer/tasknotify/internal/errors"
	"github.com/ariel-frischer/tasknotify/internal/identity"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <employee-id>",
		Short: "Sign in as an employee",
		Long: `Store the employee ID used by 'watch' and 'check' in ~/.tasknotify/identity.yaml.
The --employee flag and TASKNOTIFY_EMPLOYEE_ID still take precedence.`,
		GroupID: shared.GroupIdentity,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return apperrors.MissingLoginArgument()
			}
			_, store, err := identityStores()
			if err != nil {
				return apperrors.WrapWithMessage(err, apperrors.Runtime, "cannot locate the identity file")
			}

			name, _ := cmd.Flags().GetString("name")
			id := identity.Identity{
				EmployeeID: strings.TrimSpace(args[0]),
				Name:       name,
				SavedAt:    time.Now().UTC(),
			}
			if err := store.Save(id); err != nil {
				notWritable := apperrors.FileNotWritable(store.Path)
				notWritable.Err = err
				return notWritable
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", id.EmployeeID)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Display name to remember with the ID")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Forget the signed-in employee",
		GroupID: shared.GroupIdentity,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := identityStores()
			if err != nil {
				return apperrors.WrapWithMessage(err, apperrors.Runtime, "cannot locate the identity file")
			}
			if err := store.Clear(); err != nil {
				return apperrors.WrapWithMessage(err, apperrors.Runtime, "cannot remove identity")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
