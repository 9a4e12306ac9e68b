// Package audio owns the notification chime: a lazily opened playback
// device and one decoded buffer, unlocked by a user gesture when the
// platform refuses to start playback on its own.
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/gesture"
	"github.com/rs/zerolog"
)

// DeviceState is the state a device reports after Open or Resume.
type DeviceState int

const (
	// DeviceSuspended means playback is blocked until a user gesture
	DeviceSuspended DeviceState = iota
	// DeviceRunning means the device can play
	DeviceRunning
)

func (s DeviceState) String() string {
	if s == DeviceRunning {
		return "running"
	}
	return "suspended"
}

// Buffer is a decoded, playable sound.
type Buffer interface {
	Duration() time.Duration
}

// Device is the platform playback capability.
type Device interface {
	// Open constructs the device. It is called at most once per engine
	// unless it fails.
	Open() (DeviceState, error)
	// Resume retries a suspended device
	Resume() (DeviceState, error)
	// Decode turns the named asset into a playable buffer
	Decode(name string, data []byte) (Buffer, error)
	// Play plays buf once at gain (0..1)
	Play(buf Buffer, gain float64) error
	// Close releases the device
	Close() error
}

// State is the engine state.
type State int

const (
	StateUninitialized State = iota
	StateAttempting
	StateAwaitingGesture
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAttempting:
		return "attempting"
	case StateAwaitingGesture:
		return "awaiting_gesture"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrClosed is reported by Play on a closed engine.
var ErrClosed = errors.New("audio engine closed")

// Option customises an Engine.
type Option func(*Engine)

// WithGain sets the playback gain, clamped to 0..1.
func WithGain(g float64) Option {
	return func(e *Engine) {
		switch {
		case g < 0:
			e.gain = 0
		case g > 1:
			e.gain = 1
		default:
			e.gain = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "audio").Logger() }
}

// Engine plays the chime. The zero value is not usable; use NewEngine.
//
// Only the first TryPlay constructs the device. If that fails or the device
// starts suspended, the engine waits for one click or keydown, whichever
// comes first, and retries from there. The asset is decoded once and the
// buffer reused for every play.
type Engine struct {
	mu       sync.Mutex
	device   Device
	gestures gesture.Source
	asset    Asset
	gain     float64
	log      zerolog.Logger

	state     State
	attempted bool
	opened    bool
	running   bool
	buf       Buffer
	disarm    []func()
}

// NewEngine creates an engine; nothing is opened until the first TryPlay.
func NewEngine(device Device, gestures gesture.Source, asset Asset, opts ...Option) *Engine {
	e := &Engine{
		device:   device,
		gestures: gestures,
		asset:    asset,
		gain:     1,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Armed reports whether gesture listeners are registered.
func (e *Engine) Armed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.disarm) > 0
}

// TryPlay plays the chime if the engine is, or can become, ready. It never
// panics and never returns an error; failures are logged as warnings.
func (e *Engine) TryPlay() {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Interface("panic", r).Msg("audio playback panicked")
		}
	}()

	buf, ok := e.prepare()
	if !ok {
		return
	}
	if err := e.device.Play(buf, e.gain); err != nil {
		e.log.Warn().Err(err).Msg("audio playback failed")
	}
}

// prepare advances the state machine and returns the buffer to play.
func (e *Engine) prepare() (Buffer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateClosed:
		return nil, false
	case StateReady:
		return e.buf, true
	case StateAwaitingGesture:
		e.arm()
		return nil, false
	}

	if e.device == nil {
		e.log.Warn().Msg("no audio device available")
		return nil, false
	}

	if !e.attempted {
		e.attempted = true
		e.state = StateAttempting
		e.settle(e.device.Open)
	} else if e.running {
		// Device is up but an earlier decode failed
		e.decode()
	}

	if e.state == StateReady {
		return e.buf, true
	}
	return nil, false
}

// settle runs open or resume and moves to Ready or AwaitingGesture.
// Callers hold e.mu.
func (e *Engine) settle(start func() (DeviceState, error)) {
	st, err := start()
	if err != nil {
		e.log.Warn().Err(err).Msg("audio device unavailable, waiting for a user gesture")
		e.running = false
		e.state = StateAwaitingGesture
		e.arm()
		return
	}
	e.opened = true
	e.log.Debug().Str("device", st.String()).Msg("audio device started")

	if st != DeviceRunning {
		e.running = false
		e.state = StateAwaitingGesture
		e.arm()
		return
	}
	e.running = true
	e.decode()
}

// decode loads and decodes the asset once. On failure the engine stays in
// Attempting with a running device so the next TryPlay retries the decode.
// Callers hold e.mu.
func (e *Engine) decode() {
	if e.buf != nil {
		e.state = StateReady
		return
	}
	e.state = StateAttempting

	data, err := e.asset.Load()
	if err != nil {
		e.log.Warn().Err(err).Str("asset", e.asset.Name).Msg("loading sound asset failed")
		return
	}
	buf, err := e.device.Decode(e.asset.Name, data)
	if err != nil {
		e.log.Warn().Err(err).Str("asset", e.asset.Name).Msg("decoding sound asset failed")
		return
	}
	e.buf = buf
	e.state = StateReady
	e.log.Debug().Dur("duration", buf.Duration()).Msg("sound asset decoded")
}

// arm registers one click and one keydown listener unless already armed.
// Callers hold e.mu.
func (e *Engine) arm() {
	if len(e.disarm) > 0 || e.gestures == nil {
		return
	}
	e.disarm = []func(){
		e.gestures.Once(gesture.KindClick, e.onGesture),
		e.gestures.Once(gesture.KindKeydown, e.onGesture),
	}
}

// disarmLocked removes any listener that has not fired. Callers hold e.mu.
func (e *Engine) disarmLocked() {
	for _, cancel := range e.disarm {
		cancel()
	}
	e.disarm = nil
}

func (e *Engine) onGesture() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.disarmLocked()
	if e.state != StateAwaitingGesture {
		return
	}

	e.state = StateAttempting
	if e.opened {
		e.settle(e.device.Resume)
	} else {
		e.settle(e.device.Open)
	}
}

// Close releases the device and drops gesture listeners. Further TryPlay
// calls do nothing.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateClosed {
		return nil
	}
	e.disarmLocked()
	e.state = StateClosed
	e.buf = nil
	if e.device == nil || !e.opened {
		return nil
	}
	return e.device.Close()
}
