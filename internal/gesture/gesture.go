// Package gesture delivers user gestures (clicks and key presses) to
// one-shot subscribers.
package gesture

import (
	"sync"
)

// Kind is a gesture type.
type Kind string

const (
	// KindClick is a pointer click, including a click on a notification
	KindClick Kind = "click"
	// KindKeydown is a key press in the terminal
	KindKeydown Kind = "keydown"
)

// Source registers one-shot gesture listeners.
type Source interface {
	// Once calls fn the next time a gesture of kind occurs, then forgets it.
	// The returned cancel removes the listener if it has not fired yet.
	Once(kind Kind, fn func()) (cancel func())
}

// Bus is an in-process Source fed by Emit.
type Bus struct {
	mu   sync.Mutex
	next uint64
	subs map[Kind]map[uint64]func()
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind]map[uint64]func())}
}

// Once implements Source.
func (b *Bus) Once(kind Kind, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[uint64]func())
	}
	b.subs[kind][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[kind], id)
	}
}

// Emit fires and removes every listener of kind. Listeners run on the
// caller's goroutine, outside the bus lock, so they may subscribe again.
// It returns the number of listeners fired.
func (b *Bus) Emit(kind Kind) int {
	b.mu.Lock()
	fired := b.subs[kind]
	delete(b.subs, kind)
	b.mu.Unlock()

	for _, fn := range fired {
		fn()
	}
	return len(fired)
}

// Pending returns the number of listeners waiting for kind.
func (b *Bus) Pending(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}
