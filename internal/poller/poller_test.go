package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/tasknotify/internal/task"
)

var testLoc = time.FixedZone("IST", 5*3600+1800)

// stubSource is a TaskSource whose responses are set per test.
type stubSource struct {
	mu          sync.Mutex
	tasks       []task.Task
	taskErr     error
	employee    task.Employee
	employeeErr error
	fetchCalls  int
	panicOnce   bool
}

func (s *stubSource) FetchTasks(_ context.Context, _ string) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.panicOnce {
		s.panicOnce = false
		panic("decoder exploded")
	}
	if s.taskErr != nil {
		err := s.taskErr
		s.taskErr = nil
		return nil, err
	}
	return s.tasks, nil
}

func (s *stubSource) FetchEmployee(_ context.Context, id string) (task.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.employeeErr != nil {
		return task.Employee{}, s.employeeErr
	}
	emp := s.employee
	emp.ID = id
	return emp, nil
}

func (s *stubSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

func recv(t *testing.T, p *Poller) Message {
	t.Helper()
	select {
	case msg, ok := <-p.Messages():
		require.True(t, ok, "messages channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller message")
		return Message{}
	}
}

func assertQuiet(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case msg, ok := <-p.Messages():
		if ok {
			t.Fatalf("unexpected message %s", msg.Type)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func startPoller(t *testing.T, src *stubSource, cfg Config, now time.Time) (*Poller, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	if cfg.Location == nil {
		cfg.Location = testLoc
	}
	p := Spawn(context.Background(), src, "emp-1", cfg, WithClock(clock), WithID("poller-test"))
	t.Cleanup(p.Terminate)

	require.NoError(t, p.Post(Request{Action: ActionStart}))
	msg := recv(t, p)
	require.Equal(t, TypeWorkerStarted, msg.Type)
	return p, clock
}

func TestPoller_StartCarriesEmployee(t *testing.T) {
	t.Parallel()
	src := &stubSource{employee: task.Employee{Name: "Asha", Designation: "Lead", IsTeamHead: true}}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))
	p := Spawn(context.Background(), src, "emp-1", Config{}, WithClock(clock), WithID("poller-test"))
	defer p.Terminate()

	require.NoError(t, p.Post(Request{Action: ActionStart}))
	msg := recv(t, p)
	assert.Equal(t, TypeWorkerStarted, msg.Type)
	assert.Equal(t, "poller-test", msg.PollerID)
	assert.Equal(t, "Asha", msg.Employee.Name)
	assert.Equal(t, "emp-1", msg.Employee.ID)
	assert.True(t, msg.Employee.IsTeamHead)
	assert.Equal(t, DefaultFetchInterval, p.Interval())
}

func TestPoller_NoImmediateFetchThenOneMessagePerTick(t *testing.T) {
	t.Parallel()
	src := &stubSource{}
	p, clock := startPoller(t, src, Config{FetchInterval: 60 * time.Second}, time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))

	clock.BlockUntil(1)
	assert.Equal(t, 0, src.calls())

	clock.Advance(60 * time.Second)
	msg := recv(t, p)
	assert.Equal(t, TypeNoTasks, msg.Type)

	clock.BlockUntil(1)
	clock.Advance(1 * time.Second)
	assertQuiet(t, p)
	assert.Equal(t, 1, src.calls())
}

func TestPoller_UpdateIntervalCountsFromRequest(t *testing.T) {
	t.Parallel()
	src := &stubSource{}
	p, clock := startPoller(t, src, Config{FetchInterval: 60 * time.Second}, time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)

	require.NoError(t, p.Post(Request{Action: ActionUpdateInterval, Interval: 30 * time.Second}))
	require.Eventually(t, func() bool { return p.Interval() == 30*time.Second }, time.Second, 5*time.Millisecond)

	clock.Advance(29 * time.Second)
	assertQuiet(t, p)

	clock.Advance(1 * time.Second)
	msg := recv(t, p)
	assert.Equal(t, TypeNoTasks, msg.Type)
}

func TestPoller_IgnoresNonPositiveInterval(t *testing.T) {
	t.Parallel()
	src := &stubSource{}
	p, clock := startPoller(t, src, Config{FetchInterval: 60 * time.Second}, time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))

	require.NoError(t, p.Post(Request{Action: ActionUpdateInterval, Interval: 0}))
	require.NoError(t, p.Post(Request{Action: ActionUpdateInterval, Interval: -time.Second}))

	clock.BlockUntil(1)
	clock.Advance(60 * time.Second)
	msg := recv(t, p)
	assert.Equal(t, TypeNoTasks, msg.Type)
	assert.Equal(t, 60*time.Second, p.Interval())
}

func TestPoller_ClassifiesTasks(t *testing.T) {
	t.Parallel()
	src := &stubSource{tasks: []task.Task{
		{ID: "today", Status: task.StatusInProgress, DeadlineDate: "2025-03-10", DeadlineSlot: task.SlotEvening},
		{ID: "late", Status: task.StatusNotStarted, DeadlineDate: "2025-03-08", DeadlineSlot: task.SlotMorning},
		{ID: "done", Status: task.StatusCompleted, DeadlineDate: "2025-03-01", DeadlineSlot: task.SlotMorning},
		{ID: "future", Status: task.StatusInProgress, DeadlineDate: "2025-03-20", DeadlineSlot: task.SlotMorning},
	}}
	p, clock := startPoller(t, src, Config{FetchInterval: time.Minute}, time.Date(2025, 3, 10, 11, 59, 0, 0, testLoc))

	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	first := recv(t, p)
	assert.Equal(t, TypeTaskEndingToday, first.Type)
	assert.Equal(t, "today", first.Task.ID)

	second := recv(t, p)
	assert.Equal(t, TypeTaskOverdue, second.Type)
	assert.Equal(t, "late", second.Task.ID)
	assert.Equal(t, 2, second.DaysOverdue)
	assert.True(t, first.Timestamp.Equal(second.Timestamp), "events of one cycle share its classification time")
	assert.Equal(t, 0, first.Seq)
	assert.Equal(t, 1, second.Seq, "events of one cycle are numbered")

	assertQuiet(t, p)
}

func TestPoller_ReemitsEveryCycle(t *testing.T) {
	t.Parallel()
	src := &stubSource{tasks: []task.Task{
		{ID: "today", Status: task.StatusInProgress, DeadlineDate: "2025-03-10", DeadlineSlot: task.SlotMorning},
	}}
	p, clock := startPoller(t, src, Config{FetchInterval: time.Minute}, time.Date(2025, 3, 10, 10, 0, 0, 0, testLoc))

	for i := 0; i < 2; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Minute)
		msg := recv(t, p)
		assert.Equal(t, TypeTaskEndingToday, msg.Type, "cycle %d", i)
		assert.Equal(t, "today", msg.Task.ID)
	}
}

func TestPoller_FetchErrorDoesNotStopLoop(t *testing.T) {
	t.Parallel()
	src := &stubSource{taskErr: errors.New("connection refused")}
	p, clock := startPoller(t, src, Config{FetchInterval: time.Minute}, time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	msg := recv(t, p)
	assert.Equal(t, TypeWorkerError, msg.Type)
	assert.Contains(t, msg.Error, "connection refused")

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	msg = recv(t, p)
	assert.Equal(t, TypeNoTasks, msg.Type)
}

func TestPoller_PanicInCycleIsReported(t *testing.T) {
	t.Parallel()
	src := &stubSource{panicOnce: true}
	p, clock := startPoller(t, src, Config{FetchInterval: time.Minute}, time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	msg := recv(t, p)
	assert.Equal(t, TypeWorkerError, msg.Type)
	assert.Contains(t, msg.Error, "decoder exploded")

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	assert.Equal(t, TypeNoTasks, recv(t, p).Type)
}

func TestPoller_InvalidTasksReportedAfterValidOnes(t *testing.T) {
	t.Parallel()
	src := &stubSource{tasks: []task.Task{
		{ID: "broken", Status: task.StatusInProgress, DeadlineDate: "soon"},
		{ID: "late", Status: task.StatusInProgress, DeadlineDate: "2025-03-09", DeadlineSlot: task.SlotEvening},
	}}
	p, clock := startPoller(t, src, Config{FetchInterval: time.Minute}, time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	assert.Equal(t, TypeTaskOverdue, recv(t, p).Type)

	msg := recv(t, p)
	assert.Equal(t, TypeWorkerError, msg.Type)
	assert.Contains(t, msg.Error, "broken")
}

func TestPoller_StopIsTerminal(t *testing.T) {
	t.Parallel()
	src := &stubSource{tasks: []task.Task{
		{ID: "late", Status: task.StatusInProgress, DeadlineDate: "2025-03-01", DeadlineSlot: task.SlotEvening},
	}}
	p, clock := startPoller(t, src, Config{FetchInterval: time.Minute}, time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))

	require.NoError(t, p.Post(Request{Action: ActionStop}))
	assert.Equal(t, TypeWorkerStopped, recv(t, p).Type)

	clock.Advance(10 * time.Minute)
	require.NoError(t, p.Post(Request{Action: ActionStart}))
	require.NoError(t, p.Post(Request{Action: ActionUpdateInterval, Interval: time.Second}))
	clock.Advance(10 * time.Minute)

	assertQuiet(t, p)
	assert.Equal(t, 0, src.calls())
}

func TestPoller_EmployeeFailureStillStarts(t *testing.T) {
	t.Parallel()
	src := &stubSource{employeeErr: errors.New("404")}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc))
	p := Spawn(context.Background(), src, "emp-9", Config{}, WithClock(clock))
	defer p.Terminate()

	require.NoError(t, p.Post(Request{Action: ActionStart}))
	assert.Equal(t, TypeWorkerError, recv(t, p).Type)

	msg := recv(t, p)
	assert.Equal(t, TypeWorkerStarted, msg.Type)
	assert.Equal(t, "emp-9", msg.Employee.DisplayName())
}

func TestPoller_StartValidation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		source     TaskSource
		employeeID string
		wantErr    string
	}{
		"missing employee": {source: &stubSource{}, employeeID: "", wantErr: "missing employee id"},
		"missing source":   {source: nil, employeeID: "emp-1", wantErr: "missing task source"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			clock := clockwork.NewFakeClock()
			p := Spawn(context.Background(), tt.source, tt.employeeID, Config{}, WithClock(clock))
			defer p.Terminate()

			require.NoError(t, p.Post(Request{Action: ActionStart}))
			msg := recv(t, p)
			assert.Equal(t, TypeWorkerError, msg.Type)
			assert.Contains(t, msg.Error, tt.wantErr)
			assertQuiet(t, p)
		})
	}
}

func TestPoller_TerminateClosesMessages(t *testing.T) {
	t.Parallel()
	p := Spawn(context.Background(), &stubSource{}, "emp-1", Config{}, WithClock(clockwork.NewFakeClock()))
	p.Terminate()

	_, ok := <-p.Messages()
	assert.False(t, ok)
	assert.ErrorIs(t, p.Post(Request{Action: ActionStart}), ErrTerminated)
}

func TestMessageType_IsTaskEvent(t *testing.T) {
	t.Parallel()
	assert.True(t, TypeTaskEndingToday.IsTaskEvent())
	assert.True(t, TypeTaskOverdue.IsTaskEvent())
	assert.False(t, TypeNoTasks.IsTaskEvent())
	assert.False(t, TypeWorkerStarted.IsTaskEvent())
}
