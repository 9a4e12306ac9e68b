package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	apperrors "github.com/ariel-frischer/tasknotify/internal/errors"
	"github.com/ariel-frischer/tasknotify/internal/progress"
	"github.com/ariel-frischer/tasknotify/internal/task"
	"github.com/spf13/cobra"
)

// nowFunc is the clock used by check. Tests replace it.
var nowFunc = time.Now

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "List tasks that are due today or overdue",
		Long: `Fetch your tasks once and list the ones a watcher would notify about.
Exits with status 0 even when tasks are listed; use --fail-on-due to exit 1.`,
		GroupID: shared.GroupMonitoring,
		Args:    cobra.NoArgs,
		RunE:    runCheck,
	}
	cmd.Flags().Bool("all", false, "Also list tasks that need no notification")
	cmd.Flags().Bool("fail-on-due", false, "Exit 1 when any task is due today or overdue")
	return cmd
}

// checkRow is one classified task.
type checkRow struct {
	task   task.Task
	result task.Result
	err    error
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return apperrors.InvalidConfig(err)
	}

	display := progress.NewDisplay(progress.DetectTerminalCapabilities(), cmd.ErrOrStderr())
	steps := []progress.StepInfo{
		{Name: "resolving identity", Number: 1, Total: 3},
		{Name: "contacting task API", Number: 2, Total: 3},
		{Name: "fetching tasks", Number: 3, Total: 3},
	}

	display.Start(steps[0])
	who, err := requireEmployee(cmd)
	if err != nil {
		display.Fail(steps[0], err)
		return err
	}
	display.Complete(steps[0], fmt.Sprintf("%s (%s)", who.EmployeeID, who.Source))

	display.Start(steps[1])
	client, err := a.apiClient()
	if err != nil {
		display.Fail(steps[1], err)
		return err
	}
	if err := ping(cmd.Context(), client); err != nil {
		display.Fail(steps[1], err)
		return err
	}
	display.Complete(steps[1], client.BaseURL())

	display.Start(steps[2])
	tasks, err := client.FetchTasks(cmd.Context(), who.EmployeeID)
	if err != nil {
		display.Fail(steps[2], err)
		return apperrors.WrapWithMessage(err, apperrors.Runtime, "fetching tasks failed")
	}
	display.Complete(steps[2], fmt.Sprintf("%d tasks", len(tasks)))

	now := nowFunc().In(loc)
	rows := classifyAll(tasks, now)
	showAll, _ := cmd.Flags().GetBool("all")
	due := printCheck(cmd.OutOrStdout(), rows, showAll)

	a.log.Debug().Int("tasks", len(tasks)).Int("due", due).Time("now", now).Msg("check complete")

	if failOnDue, _ := cmd.Flags().GetBool("fail-on-due"); failOnDue && due > 0 {
		return shared.NewExitError(shared.ExitFailure)
	}
	return nil
}

// classifyAll classifies tasks at now, most overdue first, then due today,
// then the rest, keeping API order within a class.
func classifyAll(tasks []task.Task, now time.Time) []checkRow {
	rows := make([]checkRow, 0, len(tasks))
	for _, t := range tasks {
		res, err := task.Classify(t, now)
		rows = append(rows, checkRow{task: t, result: res, err: err})
	}
	rank := func(r checkRow) int {
		switch {
		case r.err != nil:
			return 3
		case r.result.Class == task.ClassOverdue:
			return 0
		case r.result.Class == task.ClassEndingToday:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank(rows[i]), rank(rows[j])
		if ri != rj {
			return ri < rj
		}
		if ri == 0 {
			return rows[i].result.DaysOverdue > rows[j].result.DaysOverdue
		}
		return false
	})
	return rows
}

// printCheck writes the table and returns the number of due or overdue rows.
func printCheck(w io.Writer, rows []checkRow, showAll bool) int {
	c := shared.NewColors()
	nameWidth := shared.GetTerminalWidth() - 48
	if nameWidth < 20 {
		nameWidth = 20
	}

	due := 0
	for _, r := range rows {
		var label string
		switch {
		case r.err != nil:
			if !showAll {
				continue
			}
			label = c.Dim(fmt.Sprintf("%-9s", "INVALID"))
		case r.result.Class == task.ClassOverdue:
			label = c.Red(fmt.Sprintf("%-9s", "OVERDUE"))
			due++
		case r.result.Class == task.ClassEndingToday:
			label = c.Yellow(fmt.Sprintf("%-9s", "TODAY"))
			due++
		default:
			if !showAll {
				continue
			}
			label = c.Dim(fmt.Sprintf("%-9s", "-"))
		}

		detail := deadlineDetail(r)
		fmt.Fprintf(w, "%s  %-10s  %-*s  %s\n",
			label,
			shared.Truncate(r.task.ID, 10),
			nameWidth, shared.Truncate(r.task.Name, nameWidth),
			detail,
		)
	}

	if due == 0 {
		fmt.Fprintln(w, c.Green("No tasks due today or overdue."))
	}
	return due
}

func deadlineDetail(r checkRow) string {
	if r.err != nil {
		return r.err.Error()
	}
	when := fmt.Sprintf("%s %s", r.task.DeadlineDate, r.task.DeadlineSlot)
	if r.result.Class == task.ClassOverdue && r.result.DaysOverdue > 0 {
		return fmt.Sprintf("%s (%dd late)", when, r.result.DaysOverdue)
	}
	return when
}
