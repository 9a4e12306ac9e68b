package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/audio"
	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	apperrors "github.com/ariel-frischer/tasknotify/internal/errors"
	"github.com/ariel-frischer/tasknotify/internal/gesture"
	"github.com/ariel-frischer/tasknotify/internal/notify"
	"github.com/ariel-frischer/tasknotify/internal/task"
	"github.com/spf13/cobra"
)

func newNotifyTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify-test",
		Short: "Raise a sample overdue notification and play the chime",
		Long: `Raise a sample overdue task notification and play the chime, using the same
backends and permission as 'watch'. The permission is requested if it has not
been decided yet.`,
		GroupID: shared.GroupDiagnostics,
		Args:    cobra.NoArgs,
		RunE:    runNotifyTest,
	}
	cmd.Flags().Bool("reset-permission", false, "Forget the stored permission decision first")
	cmd.Flags().Bool("no-sound", false, "Skip the chime")
	return cmd
}

// sampleTask is the task shown by notify-test.
func sampleTask(now time.Time) task.Task {
	return task.Task{
		ID:           "sample",
		Name:         "Sample task",
		CompanyName:  "tasknotify",
		ProjectName:  "Notification test",
		Status:       task.StatusInProgress,
		Progress:     40,
		Assignee:     "you",
		DeadlineDate: now.AddDate(0, 0, -2).Format("2006-01-02"),
		DeadlineSlot: task.SlotEvening,
	}
}

func runNotifyTest(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if reset, _ := cmd.Flags().GetBool("reset-permission"); reset {
		if err := resetPermission(a.cfg.StateDir); err != nil {
			return apperrors.WrapWithMessage(err, apperrors.Runtime, "cannot reset permission")
		}
		fmt.Fprintln(out, "Stored permission cleared.")
	}

	sender := a.sender()
	desktop := a.desktop(sender)
	if desktop.Permission() == notify.PermissionDefault {
		fmt.Fprintf(out, "Permission: %s\n", desktop.RequestPermission())
	}

	if noSound, _ := cmd.Flags().GetBool("no-sound"); !noSound && a.cfg.Notifications.Type.Sound() {
		bus := gesture.NewBus()
		engine := audio.NewEngine(audio.NewSystemDevice(sender, ""), bus, a.chime(),
			audio.WithGain(a.cfg.Sound.Gain), audio.WithLogger(a.log))
		engine.TryPlay()
		// Running notify-test is itself the user gesture.
		if engine.Armed() {
			bus.Emit(gesture.KindKeydown)
			engine.TryPlay()
		}
		fmt.Fprintf(out, "Chime: %s\n", engine.State())
		defer engine.Close()
	}

	if !a.cfg.Notifications.Type.Visual() {
		return nil
	}

	now := time.Now()
	n := notify.TaskNotification(notify.KindOverdue, sampleTask(now), 2, now, a.cfg.Notifications)
	shown, err := desktop.Show(n, func() { fmt.Fprintln(out, "Notification clicked.") })
	if errors.Is(err, notify.ErrPermissionDenied) {
		return apperrors.NewPrerequisiteError("desktop notifications are denied",
			"Run 'tasknotify notify-test --reset-permission' to ask again",
			"Or set notifications.permission to 'granted'")
	}
	if err != nil {
		cliErr := apperrors.NotificationsUnavailable(notify.Platform())
		cliErr.Err = err
		return cliErr
	}
	fmt.Fprintf(out, "Notification raised (tag %s).\n", shown.Tag())
	return nil
}
