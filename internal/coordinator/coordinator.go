// Package coordinator owns the poller's lifecycle and turns its task events
// into a chime and a desktop notification.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/gesture"
	"github.com/ariel-frischer/tasknotify/internal/history"
	"github.com/ariel-frischer/tasknotify/internal/notify"
	"github.com/ariel-frischer/tasknotify/internal/poller"
	"github.com/ariel-frischer/tasknotify/internal/task"
	"github.com/rs/zerolog"
)

// State is the coordinator lifecycle state.
type State int

const (
	StateUnstarted State = iota
	StateStarting
	StateReady
	StateFailed
	StateStopped
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAlreadyMounted is returned by a second Mount.
var ErrAlreadyMounted = errors.New("coordinator already mounted")

// maxTracked bounds the notifications kept for click handling.
const maxTracked = 64

// Worker is the poller as seen by the coordinator.
type Worker interface {
	ID() string
	Post(req poller.Request) error
	Messages() <-chan poller.Message
	Terminate()
}

// SpawnFunc creates the worker for an employee.
type SpawnFunc func(ctx context.Context, employeeID string) (Worker, error)

// PollerSpawner returns a SpawnFunc backed by poller.Spawn.
func PollerSpawner(source poller.TaskSource, cfg poller.Config, opts ...poller.Option) SpawnFunc {
	return func(ctx context.Context, employeeID string) (Worker, error) {
		if source == nil {
			return nil, errors.New("no task source")
		}
		return poller.Spawn(ctx, source, employeeID, cfg, opts...), nil
	}
}

// Player plays the chime; audio.Engine implements it.
type Player interface {
	TryPlay()
	Close() error
}

// Window is the host application window.
type Window interface {
	Focus() error
}

// Recorder stores raised notifications; history.Writer implements it.
type Recorder interface {
	Record(entry history.HistoryEntry)
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l.With().Str("component", "coordinator").Logger() }
}

// WithWindow sets the window focused when a notification is clicked.
func WithWindow(w Window) Option {
	return func(c *Coordinator) { c.window = w }
}

// WithRecorder records every task notification.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithGestures forwards notification clicks to bus as click gestures.
func WithGestures(bus *gesture.Bus) Option {
	return func(c *Coordinator) { c.gestures = bus }
}

// WithNotificationConfig sets notification presentation preferences.
func WithNotificationConfig(cfg notify.NotificationConfig) Option {
	return func(c *Coordinator) { c.cfg = cfg }
}

// WithObserver is called on the relay goroutine for every poller message,
// before the coordinator acts on it. It must not block.
func WithObserver(fn func(poller.Message)) Option {
	return func(c *Coordinator) { c.observer = fn }
}

// Coordinator mounts one poller per session and dispatches its events.
type Coordinator struct {
	employeeID string
	spawn      SpawnFunc
	desktop    notify.Desktop
	player     Player
	window     Window
	recorder   Recorder
	gestures   *gesture.Bus
	cfg        notify.NotificationConfig
	observer   func(poller.Message)
	log        zerolog.Logger

	mu            sync.Mutex
	state         State
	worker        Worker
	employee      task.Employee
	stopRequested bool
	shown         map[string]notify.Shown
	shownOrder    []string

	relayDone chan struct{}
	effects   sync.WaitGroup
	watchers  sync.WaitGroup
}

// New creates a coordinator. employeeID is resolved by the caller; an empty
// ID keeps the coordinator from ever starting.
func New(employeeID string, spawn SpawnFunc, desktop notify.Desktop, player Player, opts ...Option) *Coordinator {
	c := &Coordinator{
		employeeID: employeeID,
		spawn:      spawn,
		desktop:    desktop,
		player:     player,
		cfg:        notify.DefaultConfig(),
		log:        zerolog.Nop(),
		shown:      make(map[string]notify.Shown),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsReady reports whether the poller has confirmed it started and has not
// stopped since.
func (c *Coordinator) IsReady() bool {
	return c.State() == StateReady
}

// Employee returns the employee metadata reported by the poller.
func (c *Coordinator) Employee() task.Employee {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.employee
}

// Mount requests notification permission if still undecided, spawns the
// poller and starts relaying its messages. Without an employee ID it logs
// and returns nil, leaving the coordinator unstarted. A spawn failure
// leaves it failed for good.
func (c *Coordinator) Mount(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUnstarted {
		return ErrAlreadyMounted
	}
	if c.employeeID == "" {
		c.log.Error().Msg("no employee identity; task notifications are disabled")
		return nil
	}

	if c.desktop != nil && c.desktop.Permission() == notify.PermissionDefault {
		p := c.desktop.RequestPermission()
		c.log.Info().Str("permission", string(p)).Msg("notification permission requested")
	}

	c.state = StateStarting
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("spawning poller: panic: %v", r)
		}
		if err != nil {
			c.state = StateFailed
			c.log.Error().Err(err).Msg("poller construction failed")
		}
	}()

	w, err := c.spawn(ctx, c.employeeID)
	if err != nil {
		return fmt.Errorf("spawning poller: %w", err)
	}
	if err := w.Post(poller.Request{Action: poller.ActionStart}); err != nil {
		w.Terminate()
		return fmt.Errorf("starting poller: %w", err)
	}

	c.worker = w
	c.relayDone = make(chan struct{})
	go c.relay(w)

	c.log.Debug().Str("poller_id", w.ID()).Str("employee_id", c.employeeID).Msg("poller spawned")
	return nil
}

// relay delivers worker messages in order until the worker exits.
func (c *Coordinator) relay(w Worker) {
	defer close(c.relayDone)
	for msg := range w.Messages() {
		if c.observer != nil {
			c.observer(msg)
		}
		c.handle(msg)
	}
}

func (c *Coordinator) handle(msg poller.Message) {
	switch msg.Type {
	case poller.TypeWorkerStarted:
		c.mu.Lock()
		if c.state == StateStarting {
			c.state = StateReady
		}
		c.employee = msg.Employee
		c.mu.Unlock()
		c.log.Info().Str("poller_id", msg.PollerID).Str("employee", c.Employee().DisplayName()).Msg("task poller started")

	case poller.TypeWorkerStopped:
		c.mu.Lock()
		if c.state == StateStarting || c.state == StateReady {
			c.state = StateStopped
		}
		c.mu.Unlock()
		c.log.Info().Str("poller_id", msg.PollerID).Msg("task poller stopped")

	case poller.TypeWorkerError:
		c.log.Warn().Str("poller_id", msg.PollerID).Str("error", msg.Error).Msg("task poller error")

	case poller.TypeNoTasks:
		c.log.Debug().Str("poller_id", msg.PollerID).Msg("no tasks due")

	case poller.TypeTaskEndingToday, poller.TypeTaskOverdue:
		c.mu.Lock()
		drop := c.stopRequested || c.state != StateReady
		c.mu.Unlock()
		if drop {
			c.log.Debug().Str("type", string(msg.Type)).Msg("dropping task event after stop")
			return
		}
		c.dispatch(msg)
	}
}

// dispatch runs the sound and the notification independently; neither
// waits for or depends on the other.
func (c *Coordinator) dispatch(msg poller.Message) {
	if c.cfg.Type.Sound() {
		c.goEffect("sound", c.PlaySound)
	}
	c.goEffect("notification", func() { c.notify(msg) })
}

func (c *Coordinator) goEffect(name string, fn func()) {
	c.effects.Add(1)
	go func() {
		defer c.effects.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Warn().Str("effect", name).Interface("panic", r).Msg("effect panicked")
			}
		}()
		fn()
	}()
}

func kindOf(t poller.MessageType) notify.Kind {
	if t == poller.TypeTaskOverdue {
		return notify.KindOverdue
	}
	return notify.KindDeadlineToday
}

func (c *Coordinator) notify(msg poller.Message) {
	kind := kindOf(msg.Type)
	n := notify.TaskNotification(kind, msg.Task, msg.DaysOverdue, msg.Timestamp, c.cfg)
	n.Tag = notify.TaskTag(kind, msg.Task.ID, msg.Timestamp, msg.Seq)
	entry := history.HistoryEntry{
		Tag:         n.Tag,
		Kind:        string(kind),
		TaskID:      msg.Task.ID,
		TaskName:    msg.Task.Name,
		DaysOverdue: msg.DaysOverdue,
		EmittedAt:   msg.Timestamp,
		PollerID:    msg.PollerID,
		Status:      history.StatusDelivered,
	}

	switch {
	case !c.cfg.Enabled || !c.cfg.Type.Visual():
		c.record(skipped(entry, "desktop notifications disabled"))
		return
	case c.desktop == nil:
		c.record(skipped(entry, "no desktop notification backend"))
		return
	case c.desktop.Permission() != notify.PermissionGranted:
		c.log.Debug().Str("tag", n.Tag).Msg("notification skipped: permission not granted")
		c.record(skipped(entry, notify.ErrPermissionDenied.Error()))
		return
	}

	tag := n.Tag
	shown, err := c.desktop.Show(n, func() { c.HandleClick(tag) })
	if err != nil {
		c.log.Warn().Err(err).Str("tag", tag).Msg("notification failed")
		c.record(failed(entry, err))
		return
	}
	c.record(entry)
	c.track(shown)
	c.log.Debug().Str("tag", tag).Str("task_id", msg.Task.ID).Msg("notification raised")

	if d, ok := shown.(notify.Delivery); ok {
		c.watchers.Add(1)
		go func() {
			defer c.watchers.Done()
			<-d.Done()
			c.forget(tag)
			if err := d.Err(); err != nil {
				c.log.Warn().Err(err).Str("tag", tag).Msg("notification failed after dispatch")
				c.record(failed(entry, err))
			}
		}()
	}
}

func skipped(e history.HistoryEntry, reason string) history.HistoryEntry {
	e.Status = history.StatusSkipped
	e.Error = reason
	return e
}

func failed(e history.HistoryEntry, err error) history.HistoryEntry {
	e.Status = history.StatusFailed
	e.Error = err.Error()
	return e
}

func (c *Coordinator) record(entry history.HistoryEntry) {
	if c.recorder != nil {
		c.recorder.Record(entry)
	}
}

// track keeps the handle for click handling. Beyond maxTracked the oldest
// handles are dismissed and forgotten.
func (c *Coordinator) track(s notify.Shown) {
	if s == nil {
		return
	}
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		s.Close()
		return
	}
	var evicted []notify.Shown
	if prev, ok := c.shown[s.Tag()]; ok {
		c.removeOrder(s.Tag())
		evicted = append(evicted, prev)
	}
	c.shown[s.Tag()] = s
	c.shownOrder = append(c.shownOrder, s.Tag())
	for len(c.shownOrder) > maxTracked {
		oldest := c.shownOrder[0]
		evicted = append(evicted, c.shown[oldest])
		delete(c.shown, oldest)
		c.shownOrder = c.shownOrder[1:]
	}
	c.mu.Unlock()

	for _, old := range evicted {
		if err := old.Close(); err != nil {
			c.log.Warn().Err(err).Str("tag", old.Tag()).Msg("closing notification failed")
		}
	}
}

// forget drops tag from the tracked handles and returns its handle.
func (c *Coordinator) forget(tag string) (notify.Shown, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.shown[tag]
	if ok {
		delete(c.shown, tag)
		c.removeOrder(tag)
	}
	return s, ok
}

func (c *Coordinator) removeOrder(tag string) {
	for i, t := range c.shownOrder {
		if t == tag {
			c.shownOrder = append(c.shownOrder[:i], c.shownOrder[i+1:]...)
			return
		}
	}
}

// HandleClick focuses the window and dismisses the notification with tag.
// A click also counts as a user gesture for the audio engine. It reports
// whether the tag was known.
func (c *Coordinator) HandleClick(tag string) bool {
	s, ok := c.forget(tag)

	if c.gestures != nil {
		c.gestures.Emit(gesture.KindClick)
	}
	if !ok {
		return false
	}

	if c.window != nil {
		if err := c.window.Focus(); err != nil {
			c.log.Warn().Err(err).Msg("focusing window failed")
		}
	}
	if err := s.Close(); err != nil {
		c.log.Warn().Err(err).Str("tag", tag).Msg("closing notification failed")
	}
	return true
}

// PlaySound plays the chime. It never fails; without audio support it logs
// a warning and returns.
func (c *Coordinator) PlaySound() {
	if c.player == nil {
		c.log.Warn().Msg("no audio support; chime skipped")
		return
	}
	c.player.TryPlay()
}

// UpdateInterval changes the poll period of the live poller. It is ignored
// when d <= 0 or no poller is running.
func (c *Coordinator) UpdateInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	w := c.worker
	live := c.state == StateStarting || c.state == StateReady
	c.mu.Unlock()
	if w == nil || !live {
		return
	}
	if err := w.Post(poller.Request{Action: poller.ActionUpdateInterval, Interval: d}); err != nil {
		c.log.Warn().Err(err).Msg("updating poll interval failed")
	}
}

// Unmount stops and terminates the poller, waits for in-flight effects,
// dismisses tracked notifications, waits for their delivery to settle and
// closes the audio engine. Task events arriving after Unmount begins are
// dropped.
func (c *Coordinator) Unmount() {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return
	}
	c.stopRequested = true
	w := c.worker
	relayDone := c.relayDone
	c.mu.Unlock()

	if w != nil {
		if err := w.Post(poller.Request{Action: poller.ActionStop}); err != nil && !errors.Is(err, poller.ErrTerminated) {
			c.log.Warn().Err(err).Msg("stopping poller failed")
		}
		w.Terminate()
		<-relayDone
	}

	c.effects.Wait()

	c.mu.Lock()
	shown := c.shown
	c.shown = make(map[string]notify.Shown)
	c.shownOrder = nil
	c.state = StateDisposed
	c.mu.Unlock()

	for _, s := range shown {
		s.Close()
	}
	c.watchers.Wait()
	if c.player != nil {
		if err := c.player.Close(); err != nil {
			c.log.Warn().Err(err).Msg("closing audio engine failed")
		}
	}
	c.log.Debug().Msg("coordinator disposed")
}
