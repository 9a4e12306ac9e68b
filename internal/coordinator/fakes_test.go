package coordinator

import (
	"errors"
	"sync"

	"github.com/ariel-frischer/tasknotify/internal/history"
	"github.com/ariel-frischer/tasknotify/internal/notify"
	"github.com/ariel-frischer/tasknotify/internal/poller"
)

var errFake = errors.New("fake failure")

// fakeWorker stands in for the poller. Tests push messages with send.
type fakeWorker struct {
	mu       sync.Mutex
	posts    []poller.Request
	messages chan poller.Message
	once     sync.Once
	// onStop, when set, runs inside Post for the stop action
	onStop     func(w *fakeWorker)
	terminated bool
}

func newFakeWorker() *fakeWorker {
	return &fakeWorker{messages: make(chan poller.Message, 16)}
}

func (w *fakeWorker) ID() string { return "worker-1" }

func (w *fakeWorker) Post(req poller.Request) error {
	w.mu.Lock()
	w.posts = append(w.posts, req)
	onStop := w.onStop
	w.mu.Unlock()
	if req.Action == poller.ActionStop && onStop != nil {
		onStop(w)
	}
	return nil
}

func (w *fakeWorker) Messages() <-chan poller.Message { return w.messages }

func (w *fakeWorker) Terminate() {
	w.once.Do(func() {
		w.mu.Lock()
		w.terminated = true
		w.mu.Unlock()
		close(w.messages)
	})
}

func (w *fakeWorker) setOnStop(fn func(w *fakeWorker)) {
	w.mu.Lock()
	w.onStop = fn
	w.mu.Unlock()
}

func (w *fakeWorker) send(msg poller.Message) {
	msg.PollerID = w.ID()
	w.messages <- msg
}

func (w *fakeWorker) actions() []poller.Action {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]poller.Action, 0, len(w.posts))
	for _, p := range w.posts {
		out = append(out, p.Action)
	}
	return out
}

func (w *fakeWorker) lastPost() poller.Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.posts[len(w.posts)-1]
}

func (w *fakeWorker) isTerminated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminated
}

type fakeShown struct {
	tag string
	mu  sync.Mutex
	n   int
}

func (s *fakeShown) Tag() string { return s.tag }

func (s *fakeShown) Close() error {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	return nil
}

func (s *fakeShown) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// deliveringShown settles when fail or Close is called.
type deliveringShown struct {
	*fakeShown
	once sync.Once
	done chan struct{}
	err  error
}

func (s *deliveringShown) Close() error {
	s.fakeShown.Close()
	s.settle(nil)
	return nil
}

func (s *deliveringShown) fail(err error) { s.settle(err) }

func (s *deliveringShown) settle(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *deliveringShown) Done() <-chan struct{} { return s.done }
func (s *deliveringShown) Err() error            { return s.err }

type fakeDesktop struct {
	mu         sync.Mutex
	delivering bool
	permission notify.Permission
	grantOnAsk notify.Permission
	requests   int
	showErr    error
	shown      []notify.Notification
	handles    []*fakeShown
	deliveries []*deliveringShown
	clicks     []func()
}

func newFakeDesktop(p notify.Permission) *fakeDesktop {
	return &fakeDesktop{permission: p, grantOnAsk: notify.PermissionGranted}
}

func (d *fakeDesktop) Permission() notify.Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permission
}

func (d *fakeDesktop) RequestPermission() notify.Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++
	if d.permission == notify.PermissionDefault {
		d.permission = d.grantOnAsk
	}
	return d.permission
}

func (d *fakeDesktop) Show(n notify.Notification, onClick func()) (notify.Shown, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.showErr != nil {
		return nil, d.showErr
	}
	h := &fakeShown{tag: n.Tag}
	d.shown = append(d.shown, n)
	d.handles = append(d.handles, h)
	d.clicks = append(d.clicks, onClick)
	if d.delivering {
		ds := &deliveringShown{fakeShown: h, done: make(chan struct{})}
		d.deliveries = append(d.deliveries, ds)
		return ds, nil
	}
	return h, nil
}

func (d *fakeDesktop) delivery(i int) *deliveringShown {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deliveries[i]
}

func (d *fakeDesktop) totalCloses() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, h := range d.handles {
		n += h.closes()
	}
	return n
}

func (d *fakeDesktop) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.shown)
}

func (d *fakeDesktop) at(i int) (notify.Notification, *fakeShown, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown[i], d.handles[i], d.clicks[i]
}

type fakePlayer struct {
	mu     sync.Mutex
	plays  int
	closed bool
}

func (p *fakePlayer) TryPlay() {
	p.mu.Lock()
	p.plays++
	p.mu.Unlock()
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

func (p *fakePlayer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeWindow struct {
	mu    sync.Mutex
	focus int
}

func (w *fakeWindow) Focus() error {
	w.mu.Lock()
	w.focus++
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focus
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []history.HistoryEntry
}

func (r *fakeRecorder) Record(e history.HistoryEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func (r *fakeRecorder) all() []history.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.HistoryEntry(nil), r.entries...)
}
