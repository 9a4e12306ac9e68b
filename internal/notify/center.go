package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrPermissionDenied is returned by Show when permission is not granted.
var ErrPermissionDenied = errors.New("notification permission not granted")

// DefaultDispatchTimeout bounds how long Show waits for the OS tool.
const DefaultDispatchTimeout = 5 * time.Second

// DefaultStartupWindow is how long Show waits for a click-reporting sender
// to fail before treating the notification as raised.
const DefaultStartupWindow = 300 * time.Millisecond

// Desktop is the desktop notification capability used by the coordinator.
type Desktop interface {
	// Permission returns the current permission state
	Permission() Permission
	// RequestPermission asks for permission when the state is default and
	// returns the resulting state
	RequestPermission() Permission
	// Show raises n. onClick, when non-nil, is called at most once if the
	// user clicks the notification.
	Show(n Notification, onClick func()) (Shown, error)
}

// Shown is a handle on a raised notification.
type Shown interface {
	// Tag returns the notification tag
	Tag() string
	// Close dismisses the notification; safe to call more than once
	Close() error
}

// Delivery is implemented by handles whose sender keeps running after Show
// returns. Done is closed once the notification is clicked, dismissed or
// fails; Err then reports a failure that happened after Show returned.
type Delivery interface {
	Done() <-chan struct{}
	Err() error
}

// PermissionStore persists the permission decision across runs.
type PermissionStore interface {
	LoadPermission() (Permission, error)
	SavePermission(p Permission) error
}

// CenterOption customises a Center.
type CenterOption func(*Center)

// WithDispatchTimeout overrides DefaultDispatchTimeout.
func WithDispatchTimeout(d time.Duration) CenterOption {
	return func(c *Center) { c.timeout = d }
}

// WithStartupWindow overrides DefaultStartupWindow.
func WithStartupWindow(d time.Duration) CenterOption {
	return func(c *Center) { c.startup = d }
}

// WithCenterLogger sets the logger.
func WithCenterLogger(l zerolog.Logger) CenterOption {
	return func(c *Center) { c.log = l.With().Str("component", "notify").Logger() }
}

// Center implements Desktop on top of a Sender.
type Center struct {
	mu         sync.Mutex
	sender     Sender
	store      PermissionStore
	permission Permission
	timeout    time.Duration
	startup    time.Duration
	log        zerolog.Logger
}

// NewCenter creates a Center. An explicit granted or denied initial state
// wins over the store; default defers to a previously saved decision.
func NewCenter(sender Sender, store PermissionStore, initial Permission, opts ...CenterOption) *Center {
	c := &Center{
		sender:     sender,
		store:      store,
		permission: PermissionDefault,
		timeout:    DefaultDispatchTimeout,
		startup:    DefaultStartupWindow,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch initial {
	case PermissionGranted, PermissionDenied:
		c.permission = initial
	default:
		if store != nil {
			saved, err := store.LoadPermission()
			if err != nil {
				c.log.Warn().Err(err).Msg("loading saved notification permission")
			} else if ValidPermission(string(saved)) {
				c.permission = saved
			}
		}
	}
	return c
}

// Permission returns the current permission state.
func (c *Center) Permission() Permission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permission
}

// RequestPermission resolves a default permission. Desktop sessions grant
// permission when a visual backend is available and deny it otherwise.
func (c *Center) RequestPermission() Permission {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.permission != PermissionDefault {
		return c.permission
	}

	if c.sender != nil && c.sender.VisualAvailable() {
		c.permission = PermissionGranted
	} else {
		c.permission = PermissionDenied
	}
	c.log.Info().Str("permission", string(c.permission)).Msg("notification permission resolved")

	if c.store != nil {
		if err := c.store.SavePermission(c.permission); err != nil {
			c.log.Warn().Err(err).Msg("saving notification permission")
		}
	}
	return c.permission
}

// Show raises n if permission is granted.
//
// Senders that report clicks run in the background until the notification
// is clicked or closed; a failure within the startup window is returned,
// a later one is reported through the handle's Delivery. Other senders are
// dispatched with a timeout so a hung OS tool never blocks the caller.
func (c *Center) Show(n Notification, onClick func()) (Shown, error) {
	if c.Permission() != PermissionGranted {
		return nil, ErrPermissionDenied
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{tag: n.Tag, cancel: cancel, done: make(chan struct{})}

	if cs, ok := c.sender.(ClickSender); ok && onClick != nil {
		result := make(chan error, 1)
		go func() {
			defer cancel()
			clicked, err := cs.SendVisualAwaitClick(ctx, n)
			result <- err
			if err == nil && clicked && !h.isClosed() {
				onClick()
			}
		}()

		timer := time.NewTimer(c.startup)
		defer timer.Stop()
		select {
		case err := <-result:
			if err != nil {
				return nil, err
			}
			h.settle(nil)
		case <-timer.C:
			go func() {
				err := <-result
				if err != nil {
					c.log.Warn().Err(err).Str("tag", n.Tag).Msg("notification failed")
				}
				h.settle(err)
			}()
		}
		return h, nil
	}

	defer cancel()
	if err := c.dispatch(ctx, n); err != nil {
		return nil, err
	}
	h.settle(nil)
	return h, nil
}

// dispatch sends a notification asynchronously with a timeout.
// A timed out send is abandoned, not reported as an error.
func (c *Center) dispatch(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.sender.SendVisual(n)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		c.log.Debug().Str("tag", n.Tag).Dur("timeout", c.timeout).Msg("notification dispatch timed out")
		return nil
	}
}

type handle struct {
	mu     sync.Mutex
	tag    string
	closed bool
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

func (h *handle) Tag() string { return h.tag }

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.cancel()
	return nil
}

func (h *handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *handle) settle(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

func (h *handle) Done() <-chan struct{} { return h.done }

func (h *handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
