// Package toast implements a transient, self-expiring notification.
//
// A toast moves through three phases: Idle (no message), Showing and Fading.
// Show starts the sequence; after Duration the toast starts fading and after a
// further Fade it clears. Calling Show again restarts the sequence and any timer
// from the previous call is discarded without firing.
package toast

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultDuration = 2500 * time.Millisecond
	DefaultFade     = 500 * time.Millisecond
)

// Phase is the lifecycle position of the toast.
type Phase int

const (
	Idle Phase = iota
	Showing
	Fading
)

func (p Phase) String() string {
	switch p {
	case Showing:
		return "showing"
	case Fading:
		return "fading"
	default:
		return "idle"
	}
}

// State is a snapshot of what the view should render.
type State struct {
	Message string
	Fading  bool
}

func (s State) Phase() Phase {
	switch {
	case s.Message == "":
		return Idle
	case s.Fading:
		return Fading
	default:
		return Showing
	}
}

// Timer is a cancelable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d elapses.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type runtimeScheduler struct{}

func (runtimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options tune a Toast. Zero values select the defaults.
type Options struct {
	Duration  time.Duration
	Fade      time.Duration
	Scheduler Scheduler
	// OnChange is invoked after every state transition, outside the lock.
	OnChange func(State)
	Logger   *zap.Logger
}

// Toast is safe for concurrent use; timer callbacks run on their own goroutines.
type Toast struct {
	duration  time.Duration
	fade      time.Duration
	scheduler Scheduler
	onChange  func(State)
	logger    *zap.Logger

	mu      sync.Mutex
	state   State
	pending Timer
	gen     uint64
	closed  bool
}

func New(opts Options) *Toast {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Fade <= 0 {
		opts.Fade = DefaultFade
	}
	if opts.Scheduler == nil {
		opts.Scheduler = runtimeScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Toast{
		duration:  opts.Duration,
		fade:      opts.Fade,
		scheduler: opts.Scheduler,
		onChange:  opts.OnChange,
		logger:    opts.Logger,
	}
}

// Show displays msg immediately and restarts the fade/clear sequence.
func (t *Toast) Show(msg string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.cancelLocked()
	t.state = State{Message: msg}
	gen := t.gen
	t.pending = t.scheduler.AfterFunc(t.duration, func() { t.startFade(gen) })
	state := t.state
	t.mu.Unlock()

	t.logger.Debug("toast shown", zap.String("message", msg))
	t.notify(state)
}

// State returns the current snapshot.
func (t *Toast) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Close cancels pending transitions without firing them. It is idempotent.
func (t *Toast) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.cancelLocked()
}

func (t *Toast) startFade(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.state.Fading = true
	t.pending = t.scheduler.AfterFunc(t.fade, func() { t.clear(gen) })
	state := t.state
	t.mu.Unlock()

	t.notify(state)
}

func (t *Toast) clear(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.state = State{}
	t.pending = nil
	state := t.state
	t.mu.Unlock()

	t.notify(state)
}

// cancelLocked stops the pending timer and invalidates callbacks that already
// escaped Stop.
func (t *Toast) cancelLocked() {
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *Toast) notify(state State) {
	if t.onChange != nil {
		t.onChange(state)
	}
}
