// Package signal implements the shared scroll-activity signal: a single
// boolean ("is a scroll gesture in progress") fed by independent raw event
// sources, coalesced to at most one activation per animation frame and
// deactivated after an idle window with no events.
//
// The signal is an explicitly constructed shared service. Consumers hold it
// by reference and subscribe; the reference count is the sole arbiter of
// source-listener lifetime. The last unsubscribe detaches every source,
// stops the idle timer and cancels any pending frame request, leaving no
// outstanding callbacks.
//
// The refcount governs Source attachment on the Go side only. A Source
// backed by page-level DOM listeners (the browser agent) keeps those
// listeners installed for the life of the page and gates just its Go
// callback; detaching such a source silences the feed without touching
// the page.
package signal

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Source delivers raw scroll events. Attach registers fn as the event
// callback and returns a detach func. Attach failures are absorbed by the
// signal: a missing source means fewer events, never an error for consumers.
type Source interface {
	Attach(fn func()) (detach func(), err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(fn func()) (func(), error)

func (s SourceFunc) Attach(fn func()) (func(), error) { return s(fn) }

// FrameScheduler schedules a callback for the next animation frame. Request
// returns a cancel func; cancelling after the callback fired is a no-op.
type FrameScheduler interface {
	Request(fn func()) (cancel func())
}

// TimerScheduler approximates frame pacing with a fixed delay, for
// environments with no frame tick channel. Interval defaults to 16ms.
type TimerScheduler struct {
	Interval time.Duration
}

func (t TimerScheduler) Request(fn func()) func() {
	d := t.Interval
	if d <= 0 {
		d = 16 * time.Millisecond
	}
	tm := time.AfterFunc(d, fn)
	return func() { tm.Stop() }
}

// Config for the activity signal.
type Config struct {
	// Sources are the raw scroll event feeds. Typically two: native scroll
	// events and the scroll-bar library's own scrolled notification.
	Sources []Source

	// Scheduler coalesces activation to one transition per frame.
	Scheduler FrameScheduler

	// IdleTimeout is how long without events before the gesture is
	// considered over. Default: 150ms.
	IdleTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Scheduler == nil {
		c.Scheduler = TimerScheduler{}
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 150 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Activity is the shared scroll-activity signal.
type Activity struct {
	cfg Config

	mu          sync.Mutex
	active      bool
	refs        int
	detach      []func()
	idle        *time.Timer
	pending     bool
	cancelFrame func()
	observers   map[int]func(bool)
	nextID      int
}

// New creates the signal. One instance is shared by every consumer.
func New(cfg Config) *Activity {
	cfg.defaults()
	return &Activity{cfg: cfg, observers: make(map[int]func(bool))}
}

// Active reports whether a scroll gesture is currently in progress.
func (a *Activity) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Subscribe registers an observer for activity transitions (fn may be nil
// for consumers that only poll Active) and increments the reference count.
// The first subscription attaches the underlying source listeners. The
// returned unsubscribe func is idempotent; when the count reaches zero all
// listeners, timers and pending frame requests are torn down.
func (a *Activity) Subscribe(fn func(active bool)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	if fn != nil {
		a.observers[id] = fn
	}
	a.refs++
	if a.refs == 1 {
		a.attachLocked()
	}
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			delete(a.observers, id)
			a.refs--
			if a.refs == 0 {
				a.teardownLocked()
			}
		})
	}
}

func (a *Activity) attachLocked() {
	for _, src := range a.cfg.Sources {
		det, err := src.Attach(a.onEvent)
		if err != nil {
			a.cfg.Logger.Warn("signal: source attach failed", "error", err)
			continue
		}
		a.detach = append(a.detach, det)
	}
	a.cfg.Logger.Debug("signal: sources attached", "attached", len(a.detach))
}

func (a *Activity) teardownLocked() {
	for _, det := range a.detach {
		det()
	}
	a.detach = nil
	if a.idle != nil {
		a.idle.Stop()
		a.idle = nil
	}
	if a.cancelFrame != nil {
		a.cancelFrame()
		a.cancelFrame = nil
	}
	a.pending = false
	a.active = false
	a.cfg.Logger.Debug("signal: torn down")
}

// onEvent is the producer: any raw event from any source lands here. It
// schedules activation for the next frame (coalesced) and (re)arms the idle
// timer.
func (a *Activity) onEvent() {
	a.mu.Lock()
	if a.refs == 0 {
		a.mu.Unlock()
		return
	}
	schedule := false
	if !a.pending && !a.active {
		a.pending = true
		schedule = true
	}
	if a.idle != nil {
		a.idle.Stop()
	}
	a.idle = time.AfterFunc(a.cfg.IdleTimeout, a.deactivate)
	a.mu.Unlock()

	if !schedule {
		return
	}
	// Request outside the lock: schedulers may invoke the callback
	// synchronously.
	cancel := a.cfg.Scheduler.Request(a.activate)
	a.mu.Lock()
	if a.refs == 0 || !a.pending {
		// Fired already, or torn down mid-flight.
		a.mu.Unlock()
		cancel()
		return
	}
	a.cancelFrame = cancel
	a.mu.Unlock()
}

func (a *Activity) activate() {
	a.mu.Lock()
	a.pending = false
	a.cancelFrame = nil
	if a.active || a.refs == 0 {
		a.mu.Unlock()
		return
	}
	a.active = true
	obs := a.observersLocked()
	a.mu.Unlock()

	for _, fn := range obs {
		fn(true)
	}
}

func (a *Activity) deactivate() {
	a.mu.Lock()
	a.idle = nil
	if !a.active || a.refs == 0 {
		a.mu.Unlock()
		return
	}
	a.active = false
	obs := a.observersLocked()
	a.mu.Unlock()

	for _, fn := range obs {
		fn(false)
	}
}

// observersLocked snapshots observers in subscription order. Notification
// happens outside the lock so observers may call back into the signal.
func (a *Activity) observersLocked() []func(bool) {
	ids := make([]int, 0, len(a.observers))
	for id := range a.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		out = append(out, a.observers[id])
	}
	return out
}
