package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/cli/shared"
	"github.com/ariel-frischer/tasknotify/internal/config"
	"github.com/ariel-frischer/tasknotify/internal/coordinator"
	"github.com/ariel-frischer/tasknotify/internal/history"
	"github.com/ariel-frischer/tasknotify/internal/identity"
	"github.com/ariel-frischer/tasknotify/internal/notify"
	"github.com/ariel-frischer/tasknotify/internal/poller"
	"github.com/ariel-frischer/tasknotify/internal/task"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests set HOME and replace package-level hooks, so none of them
// run in parallel.

type recordingSender struct {
	mu     sync.Mutex
	visual []notify.Notification
	sounds []string
	sound  bool
}

func (s *recordingSender) SendVisual(n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visual = append(s.visual, n)
	return nil
}

func (s *recordingSender) SendSound(file string, _ float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds = append(s.sounds, file)
	return nil
}

func (s *recordingSender) VisualAvailable() bool { return true }
func (s *recordingSender) SoundAvailable() bool  { return s.sound }

func (s *recordingSender) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visual), len(s.sounds)
}

var fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

func sampleTasks() []task.Task {
	return []task.Task{
		{ID: "T-1", Name: "Quarterly report", Status: task.StatusInProgress, DeadlineDate: "2026-03-08", DeadlineSlot: task.SlotMorning},
		{ID: "T-2", Name: "Client call", Status: task.StatusNotStarted, DeadlineDate: "2026-03-10", DeadlineSlot: task.SlotEvening},
		{ID: "T-3", Name: "Roadmap", Status: task.StatusInProgress, DeadlineDate: "2026-03-20", DeadlineSlot: task.SlotMorning},
		{ID: "T-4", Name: "Invoice", Status: task.StatusCompleted, DeadlineDate: "2026-03-01", DeadlineSlot: task.SlotMorning},
	}
}

// setup isolates HOME, serves tasks from a test API and installs a
// recording sender. It returns the HOME directory.
func setup(t *testing.T, tasks []task.Task) (string, *recordingSender) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(identity.EnvVar, "")
	t.Setenv("NO_COLOR", "1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/tasks":
			json.NewEncoder(w).Encode(map[string]any{"tasks": tasks})
		case strings.HasPrefix(r.URL.Path, "/employees/"):
			json.NewEncoder(w).Encode(task.Employee{Name: "Asha"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TASKNOTIFY_API_URL", srv.URL)

	sender := &recordingSender{}
	origSender, origNow := senderFactory, nowFunc
	senderFactory = func(string) notify.Sender { return sender }
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		senderFactory, nowFunc = origSender, origNow
	})
	return home, sender
}

// syncBuffer is written by the logger and the status line from several
// goroutines during watch.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func pollerMsg(typ string, at time.Time, name string) poller.Message {
	return poller.Message{Type: poller.MessageType(typ), Timestamp: at, Employee: task.Employee{Name: name}}
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out syncBuffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	setup(t, nil)
	out, err := run(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tasknotify version dev")
	assert.Contains(t, out, "Go version: go")
}

func TestLoginLogout(t *testing.T) {
	home, _ := setup(t, nil)
	path := filepath.Join(home, ".tasknotify", identity.FileName)

	out, err := run(t, context.Background(), "login", "E-7", "--name", "Asha")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as E-7.")

	id, err := identity.NewFileStore(filepath.Dir(path)).Load()
	require.NoError(t, err)
	assert.Equal(t, "E-7", id.EmployeeID)
	assert.Equal(t, "Asha", id.Name)

	_, err = run(t, context.Background(), "logout")
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestLogin_MissingArgument(t *testing.T) {
	setup(t, nil)
	_, err := run(t, context.Background(), "login")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidArguments, shared.ExitCode(err))
}

func TestCheck(t *testing.T) {
	tests := map[string]struct {
		args       []string
		wantErr    bool
		wantCode   int
		contains   []string
		notContain []string
	}{
		"lists due tasks": {
			args:       []string{"check", "--employee", "E-1"},
			contains:   []string{"OVERDUE", "T-1", "2026-03-08 MORNING (2d late)", "TODAY", "T-2"},
			notContain: []string{"T-3", "T-4"},
		},
		"all tasks": {
			args:     []string{"check", "--employee", "E-1", "--all"},
			contains: []string{"T-1", "T-2", "T-3", "T-4"},
		},
		"fail on due": {
			args:     []string{"check", "--employee", "E-1", "--fail-on-due"},
			wantErr:  true,
			wantCode: shared.ExitFailure,
		},
		"no identity": {
			args:     []string{"check"},
			wantErr:  true,
			wantCode: shared.ExitMissingDependency,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			setup(t, sampleTasks())
			out, err := run(t, context.Background(), tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, shared.ExitCode(err))
				return
			}
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContain {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestCheck_NothingDue(t *testing.T) {
	setup(t, []task.Task{sampleTasks()[2]})
	out, err := run(t, context.Background(), "check", "--employee", "E-1", "--fail-on-due")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks due today or overdue.")
}

func TestClassifyAll_Order(t *testing.T) {
	tasks := []task.Task{
		{ID: "future", DeadlineDate: "2026-03-20", DeadlineSlot: task.SlotMorning},
		{ID: "today", DeadlineDate: "2026-03-10", DeadlineSlot: task.SlotEvening},
		{ID: "late1", DeadlineDate: "2026-03-09", DeadlineSlot: task.SlotMorning},
		{ID: "bad", DeadlineDate: "soon", DeadlineSlot: task.SlotMorning},
		{ID: "late5", DeadlineDate: "2026-03-05", DeadlineSlot: task.SlotMorning},
	}
	rows := classifyAll(tasks, fixedNow)

	var ids []string
	for _, r := range rows {
		ids = append(ids, r.task.ID)
	}
	assert.Equal(t, []string{"late5", "late1", "today", "future", "bad"}, ids)
}

func TestHistoryCmd(t *testing.T) {
	home, _ := setup(t, nil)
	stateDir := filepath.Join(home, ".tasknotify", "state")
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, history.SaveHistory(stateDir, &history.HistoryFile{Entries: []history.HistoryEntry{
		{ID: "1", Kind: "overdue", TaskID: "T-1", TaskName: "Quarterly report", DaysOverdue: 2, EmittedAt: base, Status: history.StatusDelivered},
		{ID: "2", Kind: "deadline_today", TaskID: "T-2", TaskName: "Client call", EmittedAt: base.Add(time.Minute), Status: history.StatusSkipped, Error: "notification permission not granted"},
	}}))

	out, err := run(t, context.Background(), "history")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Client call"), strings.Index(out, "Quarterly report"), "newest first")
	assert.Contains(t, out, "overdue 2d")
	assert.Contains(t, out, "(notification permission not granted)")

	out, err = run(t, context.Background(), "history", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Client call")
	assert.NotContains(t, out, "Quarterly report")

	out, err = run(t, context.Background(), "history", "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching entries for status 'failed'.")

	_, err = run(t, context.Background(), "history", "--limit=-1")
	assert.Error(t, err)

	out, err = run(t, context.Background(), "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared.")

	out, err = run(t, context.Background(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No notifications recorded yet.")
}

func TestDoctorCmd(t *testing.T) {
	setup(t, nil)

	out, err := run(t, context.Background(), "doctor", "--employee", "E-1")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Task API: task API reachable")
	assert.Contains(t, out, "✓ Identity: employee E-1")
	assert.Contains(t, out, "! Warning: Sound")

	out, err = run(t, context.Background(), "doctor")
	require.Error(t, err)
	assert.True(t, shared.IsExitError(err))
	assert.Contains(t, out, "✗ Error: Identity")
}

func TestNotifyTestCmd(t *testing.T) {
	home, sender := setup(t, nil)
	sender.sound = true

	out, err := run(t, context.Background(), "notify-test")
	require.NoError(t, err)
	assert.Contains(t, out, "Permission: granted")
	assert.Contains(t, out, "Chime: ready")
	assert.Contains(t, out, "Notification raised (tag task-overdue-sample-")

	visual, sounds := sender.counts()
	assert.Equal(t, 1, visual)
	assert.Equal(t, 1, sounds)
	assert.FileExists(t, filepath.Join(home, ".tasknotify", "state", "permission.json"))

	out, err = run(t, context.Background(), "notify-test", "--no-sound")
	require.NoError(t, err)
	assert.NotContains(t, out, "Permission:", "decision is remembered")
	assert.NotContains(t, out, "Chime:")
}

func TestWatchCmd(t *testing.T) {
	home, sender := setup(t, sampleTasks())
	sender.sound = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	var out string
	go func() {
		var err error
		out, err = run(t, ctx, "watch", "--employee", "E-1", "--interval", "50ms", "--no-status")
		done <- err
	}()

	require.Eventually(t, func() bool {
		visual, _ := sender.counts()
		return visual >= 2
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, out)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	_, sounds := sender.counts()
	assert.GreaterOrEqual(t, sounds, 1)

	hist, err := history.LoadHistory(filepath.Join(home, ".tasknotify", "state"))
	require.NoError(t, err)
	require.NotEmpty(t, hist.Entries)
	assert.Equal(t, history.StatusDelivered, hist.Entries[0].Status)
}

func TestWatchCmd_NoIdentity(t *testing.T) {
	setup(t, nil)
	_, err := run(t, context.Background(), "watch")
	require.Error(t, err)
	assert.Equal(t, shared.ExitMissingDependency, shared.ExitCode(err))
}

func TestWatchStatus(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	s := newWatchStatus(cmd, "E-1")
	s.start()

	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	s.observe(pollerMsg("WORKER_STARTED", at, "Asha"))
	s.observe(pollerMsg("TASK_OVERDUE", at, ""))
	s.observe(pollerMsg("TASK_ENDING_TODAY", at, ""))
	assert.Equal(t, "Watching tasks for Asha · 12:00: 1 overdue, 1 due today", s.line.Last())

	next := at.Add(time.Minute)
	s.observe(pollerMsg("NO_TASKS", next, ""))
	assert.Equal(t, "Watching tasks for Asha · 12:01: 0 overdue, 0 due today", s.line.Last())
	s.stop()

	assert.True(t, strings.HasPrefix(buf.String(), "Watching tasks for E-1\n"))
}

func TestUninstallCmd(t *testing.T) {
	home, _ := setup(t, nil)
	binary := filepath.Join(t.TempDir(), "tasknotify")
	require.NoError(t, os.WriteFile(binary, []byte("bin"), 0o755))
	orig := binaryLocation
	binaryLocation = func() (string, error) { return binary, nil }
	t.Cleanup(func() { binaryLocation = orig })

	_, err := run(t, context.Background(), "login", "E-7")
	require.NoError(t, err)
	global := filepath.Join(home, ".tasknotify")
	require.DirExists(t, global)

	out, err := run(t, context.Background(), "uninstall", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would remove:")
	assert.Contains(t, out, "[global_dir] "+global+" - exists")
	assert.FileExists(t, binary)

	out, err = run(t, context.Background(), "uninstall")
	require.NoError(t, err)
	assert.Contains(t, out, "Uninstall cancelled.")
	assert.DirExists(t, global)

	out, err = run(t, context.Background(), "uninstall", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "tasknotify has been uninstalled.")
	assert.NoFileExists(t, binary)
	assert.NoDirExists(t, global)

	out, err = run(t, context.Background(), "uninstall", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasknotify files found to remove.")
}

type staticSource struct{}

func (staticSource) FetchTasks(context.Context, string) ([]task.Task, error) { return nil, nil }
func (staticSource) FetchEmployee(context.Context, string) (task.Employee, error) {
	return task.Employee{Name: "Asha"}, nil
}

func TestReloadInterval(t *testing.T) {
	setup(t, nil)

	newApp := func() (*app, *syncBuffer) {
		var logs syncBuffer
		cfg, err := config.Load("")
		require.NoError(t, err)
		return &app{cfg: cfg, log: zerolog.New(&logs)}, &logs
	}

	withConfig := func(path string) *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().String(flagConfig, path, "")
		return cmd
	}

	t.Run("not ready", func(t *testing.T) {
		a, logs := newApp()
		c := coordinator.New("E-7", nil, nil, nil)
		reloadInterval(withConfig(""), a, c)
		assert.Contains(t, logs.String(), "poller not ready")
	})

	t.Run("invalid config keeps current", func(t *testing.T) {
		a, logs := newApp()
		cmd := withConfig(filepath.Join(t.TempDir(), "missing.json"))
		reloadInterval(cmd, a, coordinator.New("E-7", nil, nil, nil))
		assert.Contains(t, logs.String(), "reload failed")
	})

	t.Run("ready poller gets the new interval", func(t *testing.T) {
		a, logs := newApp()
		spawn := coordinator.PollerSpawner(staticSource{}, poller.Config{FetchInterval: time.Hour})
		c := coordinator.New("E-7", spawn, nil, nil)
		require.NoError(t, c.Mount(context.Background()))
		t.Cleanup(c.Unmount)
		require.Eventually(t, c.IsReady, time.Second, 5*time.Millisecond)

		t.Setenv("TASKNOTIFY_FETCH_INTERVAL", "5000")
		reloadInterval(withConfig(""), a, c)
		assert.Contains(t, logs.String(), "fetch interval reloaded")
		assert.Contains(t, logs.String(), `"fetch_interval":5000`)
	})
}
