// Package debounce provides a cancellable timer that coalesces bursts of
// triggers into a single call once the triggers have been quiet for a fixed
// delay.
package debounce

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback.
type Handle interface {
	Stop() bool
}

// Scheduler arms callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

// RealScheduler schedules on the runtime timer.
func RealScheduler() Scheduler {
	return realScheduler{}
}

// Option customises a Timer.
type Option func(*Timer)

// WithScheduler swaps the scheduler, typically for a Manual one in tests.
func WithScheduler(s Scheduler) Option {
	return func(t *Timer) {
		if s != nil {
			t.scheduler = s
		}
	}
}

// Timer runs fn once after the last Reschedule has been quiet for delay.
// fn runs without the timer's lock held and must read any state it needs
// at call time.
type Timer struct {
	mu        sync.Mutex
	delay     time.Duration
	fn        func()
	scheduler Scheduler
	handle    Handle
	gen       uint64
	stopped   bool
}

// New constructs an idle Timer.
func New(delay time.Duration, fn func(), opts ...Option) *Timer {
	t := &Timer{delay: delay, fn: fn, scheduler: realScheduler{}}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Reschedule cancels any pending call and arms a new one. It is a no-op
// after Stop.
func (t *Timer) Reschedule() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.cancelLocked()
	t.gen++
	gen := t.gen
	t.handle = t.scheduler.AfterFunc(t.delay, func() { t.fire(gen) })
}

// Flush runs a pending call immediately and reports whether one was pending.
func (t *Timer) Flush() bool {
	t.mu.Lock()
	if t.handle == nil {
		t.mu.Unlock()
		return false
	}
	t.cancelLocked()
	t.gen++
	t.mu.Unlock()
	t.fn()
	return true
}

// Cancel drops a pending call without running it.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.gen++
}

// Stop cancels any pending call and disables the timer for good.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.gen++
	t.stopped = true
}

// Pending reports whether a call is armed.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle != nil
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.handle == nil {
		t.mu.Unlock()
		return
	}
	t.handle = nil
	t.mu.Unlock()
	t.fn()
}

func (t *Timer) cancelLocked() {
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
}
