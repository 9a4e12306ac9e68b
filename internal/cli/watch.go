package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/audio"
	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	"github.com/ariel-frischer/tasknotify/internal/config"
	"github.com/ariel-frischer/tasknotify/internal/coordinator"
	apperrors "github.com/ariel-frischer/tasknotify/internal/errors"
	"github.com/ariel-frischer/tasknotify/internal/gesture"
	"github.com/ariel-frischer/tasknotify/internal/history"
	"github.com/ariel-frischer/tasknotify/internal/logging"
	"github.com/ariel-frischer/tasknotify/internal/poller"
	"github.com/ariel-frischer/tasknotify/internal/progress"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch tasks and notify when they are due or overdue",
		Long: `Poll the task API every fetch_interval and raise a desktop notification with a
chime for every task that is due today or overdue. Runs until interrupted.

The chime needs one user gesture before it can play on some systems: press
Enter in this terminal or click any tasknotify notification.

Send SIGHUP to re-read the configuration and apply a changed fetch_interval.`,
		GroupID: shared.GroupMonitoring,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(cmd, ctx)
		},
	}
	cmd.Flags().Duration("interval", 0, "Override fetch_interval (e.g. 30s)")
	cmd.Flags().Bool("no-status", false, "Do not show the status line")
	return cmd
}

// runWatch runs the coordinator until ctx is done.
func runWatch(cmd *cobra.Command, ctx context.Context) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	who, err := requireEmployee(cmd)
	if err != nil {
		return err
	}
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return apperrors.InvalidConfig(err)
	}

	interval := a.cfg.FetchEvery()
	override, _ := cmd.Flags().GetDuration("interval")
	if override > 0 {
		interval = override
	}

	a.log.Info().
		Str("employee_id", who.EmployeeID).
		Str("identity_source", who.Source).
		Dur("fetch_interval", interval).
		Dur("notification_interval", a.cfg.NotifyEvery()).
		Msg("starting watcher")

	sender := a.sender()
	bus := gesture.NewBus()
	engine := audio.NewEngine(
		audio.NewSystemDevice(sender, ""),
		bus,
		a.chime(),
		audio.WithGain(a.cfg.Sound.Gain),
		audio.WithLogger(a.log),
	)

	status := newWatchStatus(cmd, who.EmployeeID)
	if noStatus, _ := cmd.Flags().GetBool("no-status"); noStatus {
		status = nil
	}

	spawn := coordinator.PollerSpawner(client, poller.Config{
		FetchInterval:        interval,
		NotificationInterval: a.cfg.NotifyEvery(),
		EnableDebug:          a.cfg.EnableDebug,
		Location:             loc,
	}, poller.WithLogger(a.log))

	opts := []coordinator.Option{
		coordinator.WithLogger(a.log),
		coordinator.WithRecorder(history.NewWriter(a.cfg.StateDir, history.DefaultMaxEntries, logging.Component(a.log, "history"))),
		coordinator.WithGestures(bus),
		coordinator.WithNotificationConfig(a.cfg.Notifications),
	}
	if status != nil {
		opts = append(opts, coordinator.WithObserver(status.observe))
	}
	c := coordinator.New(who.EmployeeID, spawn, a.desktop(sender), engine, opts...)

	// The poller outlives ctx so Unmount can stop it gracefully.
	if err := c.Mount(context.WithoutCancel(ctx)); err != nil {
		return apperrors.WrapWithMessage(err, apperrors.Runtime, "cannot start the task poller")
	}
	if gesture.Interactive() {
		go gesture.ForwardKeys(ctx, cmd.InOrStdin(), bus)
	}
	if status != nil {
		status.start()
	}

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-reload:
			if override > 0 {
				a.log.Info().Dur("fetch_interval", override).Msg("reload ignored: --interval is set")
				continue
			}
			reloadInterval(cmd, a, c)
		}
	}

	if status != nil {
		status.stop()
	}
	c.Unmount()
	a.log.Info().Msg("watcher stopped")
	return nil
}

// reloadInterval re-reads the configuration and applies a changed
// fetch_interval to the running poller.
func reloadInterval(cmd *cobra.Command, a *app, c *coordinator.Coordinator) {
	path, _ := cmd.Flags().GetString(flagConfig)
	cfg, err := config.Load(path)
	if err != nil {
		a.log.Warn().Err(err).Msg("reload failed, keeping current configuration")
		return
	}
	if !c.IsReady() {
		a.log.Warn().Msg("poller not ready, fetch interval unchanged")
		return
	}
	c.UpdateInterval(cfg.FetchEvery())
	a.log.Info().Dur("fetch_interval", cfg.FetchEvery()).Msg("fetch interval reloaded")
}

// watchStatus renders a one-line summary of the latest poll.
type watchStatus struct {
	mu       sync.Mutex
	line     *progress.Status
	employee string
	overdue  int
	today    int
	lastPoll time.Time
	errText  string
}

func newWatchStatus(cmd *cobra.Command, employeeID string) *watchStatus {
	return &watchStatus{
		line:     progress.NewStatus(progress.DetectTerminalCapabilities(), cmd.OutOrStdout()),
		employee: employeeID,
	}
}

func (s *watchStatus) start() {
	s.line.Update(s.render())
}

func (s *watchStatus) stop() {
	s.line.Stop()
}

// observe tallies events per poll. A poll's events share one timestamp;
// a newer timestamp starts a new tally.
func (s *watchStatus) observe(msg poller.Message) {
	s.mu.Lock()
	if msg.Timestamp.After(s.lastPoll) && msg.Type != poller.TypeWorkerStarted {
		s.lastPoll = msg.Timestamp
		s.overdue, s.today, s.errText = 0, 0, ""
	}
	switch msg.Type {
	case poller.TypeWorkerStarted:
		if name := msg.Employee.DisplayName(); name != "" {
			s.employee = name
		}
	case poller.TypeTaskOverdue:
		s.overdue++
	case poller.TypeTaskEndingToday:
		s.today++
	case poller.TypeWorkerError:
		s.errText = msg.Error
	}
	s.mu.Unlock()

	s.line.Update(s.render())
}

func (s *watchStatus) render() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastPoll.IsZero() {
		return fmt.Sprintf("Watching tasks for %s", s.employee)
	}
	line := fmt.Sprintf("Watching tasks for %s · %s: %d overdue, %d due today",
		s.employee, s.lastPoll.Local().Format("15:04"), s.overdue, s.today)
	if s.errText != "" {
		line += " · " + s.errText
	}
	return line
}
