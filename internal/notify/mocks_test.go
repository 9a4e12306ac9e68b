package notify

import (
	"context"
	"errors"
	"sync"
)

// MockSender records every notification and chime it is asked to deliver.
type MockSender struct {
	mu sync.Mutex

	visualErr       error
	visualFunc      func(Notification) error
	visualAvailable bool
	clickResult     bool

	visuals []Notification
	sounds  []string
}

// NewMockSender returns a sender with both backends available and no errors
func NewMockSender() *MockSender {
	return &MockSender{visualAvailable: true}
}

func (m *MockSender) WithVisualError(err error) *MockSender {
	m.visualErr = err
	return m
}

func (m *MockSender) WithVisualAvailable(available bool) *MockSender {
	m.visualAvailable = available
	return m
}

// WithVisualFunc replaces SendVisual's result; fn runs outside the lock so
// it may block.
func (m *MockSender) WithVisualFunc(fn func(Notification) error) *MockSender {
	m.visualFunc = fn
	return m
}

func (m *MockSender) SendVisual(n Notification) error {
	m.mu.Lock()
	m.visuals = append(m.visuals, n)
	fn, err := m.visualFunc, m.visualErr
	m.mu.Unlock()

	if fn != nil {
		return fn(n)
	}
	return err
}

func (m *MockSender) SendSound(soundFile string, _ float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sounds = append(m.sounds, soundFile)
	return nil
}

func (m *MockSender) VisualAvailable() bool { return m.visualAvailable }
func (m *MockSender) SoundAvailable() bool  { return true }

// VisualCount returns the number of SendVisual calls
func (m *MockSender) VisualCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visuals)
}

// AssertVisualCalled reports whether SendVisual was called at all
func (m *MockSender) AssertVisualCalled() bool {
	return m.VisualCount() > 0
}

// AssertVisualCalledWith reports whether a notification of kind was sent
func (m *MockSender) AssertVisualCalledWith(kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.visuals {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

// clickMockSender reports a click, or lateErr, once release is closed.
type clickMockSender struct {
	*MockSender
	release chan struct{}
	lateErr error
}

func newClickMockSender(clicked bool) *clickMockSender {
	m := NewMockSender()
	m.clickResult = clicked
	return &clickMockSender{MockSender: m, release: make(chan struct{})}
}

func (m *clickMockSender) SendVisualAwaitClick(ctx context.Context, n Notification) (bool, error) {
	if err := m.SendVisual(n); err != nil {
		return false, err
	}
	select {
	case <-m.release:
		if m.lateErr != nil {
			return false, m.lateErr
		}
		return m.clickResult, nil
	case <-ctx.Done():
		return false, nil
	}
}

// memoryPermissionStore is an in-memory PermissionStore
type memoryPermissionStore struct {
	mu      sync.Mutex
	saved   Permission
	loadErr error
	saves   int
}

func (s *memoryPermissionStore) LoadPermission() (Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved, s.loadErr
}

func (s *memoryPermissionStore) SavePermission(p Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = p
	s.saves++
	return nil
}

var ErrMockVisual = errors.New("mock visual notification error")
