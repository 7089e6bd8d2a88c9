package toast

import (
	"sort"
	"testing"
	"time"
)

// manualScheduler fires callbacks synchronously as virtual time advances.
type manualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (m *manualTimer) Stop() bool {
	active := !m.stopped && !m.fired
	m.stopped = true
	return active
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.seq++
	timer := &manualTimer{at: s.now + d, seq: s.seq, fn: f}
	s.timers = append(s.timers, timer)
	return timer
}

func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.at
		next.fired = true
		next.fn()
	}
	s.now = target
}

func (s *manualScheduler) nextDue(target time.Duration) *manualTimer {
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at == s.timers[j].at {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].at < s.timers[j].at
	})
	for _, timer := range s.timers {
		if timer.stopped || timer.fired {
			continue
		}
		if timer.at <= target {
			return timer
		}
		return nil
	}
	return nil
}

func (s *manualScheduler) active() int {
	n := 0
	for _, timer := range s.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}

func newTestToast(sched *manualScheduler, changes *[]State) *Toast {
	return New(Options{
		Scheduler: sched,
		OnChange: func(s State) {
			if changes != nil {
				*changes = append(*changes, s)
			}
		},
	})
}

func TestShowFadesThenClears(t *testing.T) {
	sched := &manualScheduler{}
	toast := newTestToast(sched, nil)

	toast.Show("Milk is already in your list")
	if got := toast.State(); got.Message != "Milk is already in your list" || got.Fading {
		t.Fatalf("unexpected state after show: %+v", got)
	}

	sched.Advance(2499 * time.Millisecond)
	if toast.State().Fading {
		t.Fatal("toast must not fade before the duration elapses")
	}

	sched.Advance(time.Millisecond)
	if got := toast.State(); got.Message != "Milk is already in your list" || !got.Fading {
		t.Fatalf("expected fading with message kept, got %+v", got)
	}

	sched.Advance(500 * time.Millisecond)
	if got := toast.State(); got.Message != "" || got.Phase() != Idle {
		t.Fatalf("expected cleared toast, got %+v", got)
	}
}

func TestShowRestartsSequence(t *testing.T) {
	sched := &manualScheduler{}
	toast := newTestToast(sched, nil)

	toast.Show("A")
	sched.Advance(2000 * time.Millisecond)
	toast.Show("B")

	if got := toast.State(); got.Message != "B" || got.Fading {
		t.Fatalf("unexpected state after second show: %+v", got)
	}

	sched.Advance(600 * time.Millisecond)
	if toast.State().Fading {
		t.Fatal("first schedule must not fire after being replaced")
	}

	sched.Advance(1900 * time.Millisecond)
	if got := toast.State(); got.Message != "B" || !got.Fading {
		t.Fatalf("expected B fading 2500ms after second show, got %+v", got)
	}
}

func TestShowWhileFadingRestarts(t *testing.T) {
	sched := &manualScheduler{}
	toast := newTestToast(sched, nil)

	toast.Show("A")
	sched.Advance(2700 * time.Millisecond)
	if !toast.State().Fading {
		t.Fatal("expected fading phase")
	}

	toast.Show("B")
	sched.Advance(400 * time.Millisecond)
	if got := toast.State(); got.Message != "B" || got.Fading {
		t.Fatalf("stale clear delivered: %+v", got)
	}
	if sched.active() != 1 {
		t.Fatalf("expected exactly one pending timer, got %d", sched.active())
	}
}

func TestStaleCallbackIsIgnored(t *testing.T) {
	sched := &manualScheduler{}
	toast := newTestToast(sched, nil)

	toast.Show("A")
	stale := sched.timers[0]
	toast.Show("B")

	// Simulate a timer that escaped Stop and fires anyway.
	stale.fn()
	if got := toast.State(); got.Message != "B" || got.Fading {
		t.Fatalf("stale callback changed state: %+v", got)
	}
}

func TestCloseReleasesPendingTimers(t *testing.T) {
	sched := &manualScheduler{}
	var changes []State
	toast := newTestToast(sched, &changes)

	toast.Show("A")
	toast.Close()
	toast.Close()

	if sched.active() != 0 {
		t.Fatalf("expected no pending timers after close, got %d", sched.active())
	}

	sched.Advance(5 * time.Second)
	if len(changes) != 1 {
		t.Fatalf("expected only the show notification, got %+v", changes)
	}

	toast.Show("after close")
	if toast.State().Message != "A" {
		t.Fatalf("show after close must be ignored, got %+v", toast.State())
	}
}

func TestOnChangeSequence(t *testing.T) {
	sched := &manualScheduler{}
	var changes []State
	toast := newTestToast(sched, &changes)

	toast.Show("A")
	sched.Advance(3 * time.Second)

	want := []Phase{Showing, Fading, Idle}
	if len(changes) != len(want) {
		t.Fatalf("expected %d notifications, got %+v", len(want), changes)
	}
	for i, phase := range want {
		if changes[i].Phase() != phase {
			t.Errorf("notification %d: expected %s, got %s", i, phase, changes[i].Phase())
		}
	}
}

func TestRuntimeSchedulerFires(t *testing.T) {
	done := make(chan State, 3)
	toast := New(Options{
		Duration: 10 * time.Millisecond,
		Fade:     10 * time.Millisecond,
		OnChange: func(s State) { done <- s },
	})
	defer toast.Close()

	toast.Show("A")
	deadline := time.After(time.Second)
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-deadline:
			t.Fatalf("timed out waiting for notification %d", i)
		}
	}
	if got := toast.State(); got.Message != "" {
		t.Fatalf("expected cleared toast, got %+v", got)
	}
}
