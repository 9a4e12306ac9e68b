// Package poller runs the background task poller: a single goroutine that
// owns a repeating timer, fetches the employee's tasks every period,
// classifies them against their deadline slots and emits one message per
// event. It communicates with its host only through Request and Message
// channels.
package poller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariel-frischer/tasknotify/internal/task"
)

// DefaultFetchInterval is the polling period used when none is configured.
const DefaultFetchInterval = 60 * time.Second

// ErrTerminated is returned by Post after the poller goroutine has exited.
var ErrTerminated = errors.New("poller terminated")

// TaskSource is the remote API the poller reads from.
type TaskSource interface {
	FetchTasks(ctx context.Context, employeeID string) ([]task.Task, error)
	FetchEmployee(ctx context.Context, employeeID string) (task.Employee, error)
}

// Config holds the options recognised at start.
type Config struct {
	// NotificationInterval is accepted for compatibility; re-notification
	// cadence follows FetchInterval.
	NotificationInterval time.Duration
	// FetchInterval is the polling period (default 60s)
	FetchInterval time.Duration
	// EnableDebug turns on debug-level logging for this poller
	EnableDebug bool
	// Location is the wall clock deadlines are evaluated in (default Local)
	Location *time.Location
}

// Option customises a Poller.
type Option func(*Poller)

// WithClock replaces the real clock (tests use a fake clock).
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the parent logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithID overrides the generated poller ID.
func WithID(id string) Option {
	return func(p *Poller) { p.id = id }
}

// Poller is a running poll loop. Create one with Spawn.
type Poller struct {
	id         string
	source     TaskSource
	employeeID string
	cfg        Config
	clock      clockwork.Clock
	log        zerolog.Logger

	requests chan Request
	messages chan Message
	done     chan struct{}
	cancel   context.CancelFunc

	interval atomic.Int64

	// owned by the loop goroutine
	started bool
	stopped bool
	timer   clockwork.Timer
}

// Spawn starts the poller goroutine. It does nothing until it receives an
// ActionStart request. The goroutine exits when ctx is cancelled or
// Terminate is called; Messages is closed on exit.
func Spawn(ctx context.Context, source TaskSource, employeeID string, cfg Config, opts ...Option) *Poller {
	p := &Poller{
		id:         uuid.NewString(),
		source:     source,
		employeeID: employeeID,
		cfg:        cfg,
		clock:      clockwork.NewRealClock(),
		log:        zerolog.Nop(),
		requests:   make(chan Request, 16),
		messages:   make(chan Message, 64),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.FetchInterval <= 0 {
		p.cfg.FetchInterval = DefaultFetchInterval
	}
	if p.cfg.Location == nil {
		p.cfg.Location = time.Local
	}

	level := zerolog.InfoLevel
	if p.cfg.EnableDebug {
		level = zerolog.DebugLevel
	}
	p.log = p.log.With().Str("component", "poller").Str("poller_id", p.id).Logger().Level(level)
	p.interval.Store(int64(p.cfg.FetchInterval))

	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
	return p
}

// ID returns the poller instance ID carried on every message.
func (p *Poller) ID() string {
	return p.id
}

// Interval returns the fetch period currently in effect.
func (p *Poller) Interval() time.Duration {
	return time.Duration(p.interval.Load())
}

// Messages returns the outbound message channel. Messages from one poller
// are delivered in emission order.
func (p *Poller) Messages() <-chan Message {
	return p.messages
}

// Post delivers a control request to the poller.
func (p *Poller) Post(req Request) error {
	select {
	case <-p.done:
		return ErrTerminated
	default:
	}

	select {
	case p.requests <- req:
		return nil
	case <-p.done:
		return ErrTerminated
	}
}

// Terminate cancels the goroutine, aborting any in-flight fetch, and waits
// for it to exit.
func (p *Poller) Terminate() {
	p.cancel()
	<-p.done
}

// Done is closed once the poller goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer close(p.messages)
	defer p.stopTimer()

	for {
		var tick <-chan time.Time
		if p.timer != nil {
			tick = p.timer.Chan()
		}

		select {
		case <-ctx.Done():
			p.log.Debug().Msg("poller goroutine exiting")
			return
		case req := <-p.requests:
			p.handle(ctx, req)
		case <-tick:
			p.timer = nil
			p.cycle(ctx)
			if p.started && !p.stopped {
				p.schedule()
			}
		}
	}
}

func (p *Poller) handle(ctx context.Context, req Request) {
	if p.stopped {
		p.log.Debug().Str("action", string(req.Action)).Msg("ignoring request after stop")
		return
	}

	switch req.Action {
	case ActionStart:
		p.start(ctx)
	case ActionStop:
		p.stopTimer()
		p.stopped = true
		p.log.Info().Msg("poller stopped")
		p.emit(ctx, Message{Type: TypeWorkerStopped})
	case ActionUpdateInterval:
		if req.Interval <= 0 {
			p.log.Warn().Dur("interval", req.Interval).Msg("ignoring non-positive interval")
			return
		}
		p.cfg.FetchInterval = req.Interval
		if p.started {
			p.stopTimer()
			p.schedule()
		} else {
			p.interval.Store(int64(req.Interval))
		}
		p.log.Info().Dur("interval", req.Interval).Msg("fetch interval updated")
	default:
		p.log.Warn().Str("action", string(req.Action)).Msg("unknown request")
	}
}

func (p *Poller) start(ctx context.Context) {
	if p.started {
		p.log.Debug().Msg("start requested while already running")
		return
	}
	if err := p.validate(); err != nil {
		p.emitError(ctx, err)
		return
	}

	if p.cfg.NotificationInterval > 0 && p.cfg.NotificationInterval != p.cfg.FetchInterval {
		p.log.Debug().
			Dur("notification_interval", p.cfg.NotificationInterval).
			Dur("fetch_interval", p.cfg.FetchInterval).
			Msg("notification interval is informational; notifications repeat every fetch")
	}

	emp, err := p.source.FetchEmployee(ctx, p.employeeID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.Warn().Err(err).Msg("fetching employee metadata")
		p.emitError(ctx, fmt.Errorf("fetching employee: %w", err))
		emp = task.Employee{ID: p.employeeID}
	}

	p.started = true
	p.schedule()
	p.log.Info().Str("employee", emp.DisplayName()).Dur("interval", p.cfg.FetchInterval).Msg("poller started")
	p.emit(ctx, Message{Type: TypeWorkerStarted, Employee: emp})
}

func (p *Poller) validate() error {
	if p.employeeID == "" {
		return errors.New("missing employee id")
	}
	if p.source == nil {
		return errors.New("missing task source")
	}
	return nil
}

// schedule arms the timer for one full period from now. The interval is
// published only after the timer exists.
func (p *Poller) schedule() {
	p.timer = p.clock.NewTimer(p.cfg.FetchInterval)
	p.interval.Store(int64(p.cfg.FetchInterval))
}

func (p *Poller) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// cycle performs one fetch-classify-emit pass. Errors are reported as
// WORKER_ERROR and never end the loop.
func (p *Poller) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("poll cycle panicked")
			p.emitError(ctx, fmt.Errorf("poll cycle panicked: %v", r))
		}
	}()

	tasks, err := p.source.FetchTasks(ctx, p.employeeID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.Warn().Err(err).Msg("fetching tasks")
		p.emitError(ctx, fmt.Errorf("fetching tasks: %w", err))
		return
	}

	now := p.clock.Now().In(p.cfg.Location)
	var invalid []error
	emitted := 0
	for _, t := range tasks {
		res, err := task.Classify(t, now)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}

		switch res.Class {
		case task.ClassEndingToday:
			p.emit(ctx, Message{Type: TypeTaskEndingToday, Timestamp: now, Task: t, Deadline: res.Deadline, Seq: emitted})
			emitted++
		case task.ClassOverdue:
			p.emit(ctx, Message{Type: TypeTaskOverdue, Timestamp: now, Task: t, Deadline: res.Deadline, DaysOverdue: res.DaysOverdue, Seq: emitted})
			emitted++
		}
	}

	p.log.Debug().Int("tasks", len(tasks)).Int("events", emitted).Int("invalid", len(invalid)).Msg("poll cycle complete")

	if emitted == 0 {
		p.emit(ctx, Message{Type: TypeNoTasks, Timestamp: now})
	}
	if len(invalid) > 0 {
		err := fmt.Errorf("classifying tasks: %w", errors.Join(invalid...))
		p.emit(ctx, Message{Type: TypeWorkerError, Timestamp: now, Error: err.Error()})
	}
}

func (p *Poller) emitError(ctx context.Context, err error) {
	p.emit(ctx, Message{Type: TypeWorkerError, Error: err.Error()})
}

// emit stamps msg with the poller ID and, unless set, the current time.
// Messages of one cycle carry the cycle's classification time.
func (p *Poller) emit(ctx context.Context, msg Message) {
	msg.PollerID = p.id
	if msg.Timestamp.IsZero() {
		msg.Timestamp = p.clock.Now()
	}
	select {
	case p.messages <- msg:
	case <-ctx.Done():
	}
}
