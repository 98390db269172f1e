// Package sampler implements the frame-performance sampling engine: frame
// deltas, rolling one-second FPS windows, dropped-second and long-frame
// anomaly detection, and a bounded FIFO buffer of recent samples.
//
// The sampler is fed by whoever owns the frame source (the page agent's
// requestAnimationFrame pump in production, synthetic timestamps in tests).
// Anomalies are observational: they log, they never fail.
package sampler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/scrollscope/scrollwatch/perf"
)

// Config controls sampling behaviour.
type Config struct {
	// Capacity bounds the frame-sample buffer. Default: 100.
	Capacity int

	// LowFPS is the dropped-second threshold. A one-second window whose FPS
	// falls below it during an active scroll counts as dropped. Default: 30.
	LowFPS float64

	// LongFrame flags any single frame longer than this while scrolling.
	// Default: 50ms.
	LongFrame time.Duration

	// FrameBudget is the Measure warn threshold. Default: 16ms (one frame
	// at 60Hz).
	FrameBudget time.Duration

	// MeasureLog is the Measure debug-log threshold. Default: 5ms.
	MeasureLog time.Duration

	// Scrolling reports whether a scroll gesture is currently active.
	// nil means never scrolling.
	Scrolling func() bool

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Capacity <= 0 {
		c.Capacity = 100
	}
	if c.LowFPS <= 0 {
		c.LowFPS = 30
	}
	if c.LongFrame <= 0 {
		c.LongFrame = 50 * time.Millisecond
	}
	if c.FrameBudget <= 0 {
		c.FrameBudget = 16 * time.Millisecond
	}
	if c.MeasureLog <= 0 {
		c.MeasureLog = 5 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Sampler consumes per-frame timestamps and maintains the rolling statistics.
type Sampler struct {
	cfg Config

	mu      sync.Mutex
	enabled bool

	hasLast bool
	lastTS  float64 // page clock, ms

	windowStart  float64
	windowFrames int

	totalFrames    uint64
	droppedSeconds uint64

	ring *ring
}

// New creates a Sampler. Call Enable to start accepting frames.
func New(cfg Config) *Sampler {
	cfg.defaults()
	return &Sampler{cfg: cfg, ring: newRing(cfg.Capacity)}
}

// Enable starts accepting frames. Idempotent. The frame clock is reseeded so
// the first frame after re-enable never produces a spurious delta.
func (s *Sampler) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	s.enabled = true
	s.hasLast = false
	s.windowFrames = 0
	s.cfg.Logger.Info("sampler: enabled")
}

// Disable stops accepting frames. Idempotent. Lifetime counters and the
// sample buffer are preserved.
func (s *Sampler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.enabled = false
	s.cfg.Logger.Info("sampler: disabled")
}

// Enabled reports whether the sampler is accepting frames.
func (s *Sampler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// OnFrame records one animation frame. ts is the page-monotonic timestamp in
// milliseconds; scrollOffset the resolved scroll position at that frame.
// Ignored while disabled. The first frame after enable only seeds the clock.
func (s *Sampler) OnFrame(ts, scrollOffset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}
	if !s.hasLast {
		s.hasLast = true
		s.lastTS = ts
		s.windowStart = ts
		return
	}

	frameTime := ts - s.lastTS
	s.lastTS = ts
	s.totalFrames++
	s.windowFrames++

	scrolling := s.cfg.Scrolling != nil && s.cfg.Scrolling()

	// Close the rolling one-second window.
	if elapsed := ts - s.windowStart; elapsed >= 1000 {
		fps := float64(s.windowFrames) * 1000 / elapsed
		if scrolling && fps < s.cfg.LowFPS {
			s.droppedSeconds++
			s.cfg.Logger.Warn("sampler: dropped second",
				"fps", fps, "threshold", s.cfg.LowFPS, "dropped_total", s.droppedSeconds)
		}
		s.windowFrames = 0
		s.windowStart = ts
	}

	// Clock anomalies still advance the counters above, but are never
	// recorded as samples.
	if frameTime <= 0 {
		return
	}

	if scrolling && frameTime > float64(s.cfg.LongFrame.Milliseconds()) {
		s.cfg.Logger.Warn("sampler: long frame",
			"frame_time_ms", frameTime, "threshold_ms", s.cfg.LongFrame.Milliseconds())
	}

	if scrolling {
		s.ring.push(perf.FrameSample{
			Timestamp:    ts,
			FrameTime:    frameTime,
			ScrollOffset: scrollOffset,
			FPS:          1000 / frameTime,
		})
	}
}

// Snapshot copies the current sample buffer oldest-first.
func (s *Sampler) Snapshot() []perf.FrameSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.snapshot()
}

// BufferLen returns the number of buffered samples.
func (s *Sampler) BufferLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.len()
}

// ResetBuffer clears the sample buffer. Lifetime counters are unaffected.
func (s *Sampler) ResetBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring.reset()
}

// DropBuffered removes the n oldest samples, leaving any newer ones in
// place. Callers that snapshot and then consume use this so frames arriving
// in between are carried forward instead of lost. Lifetime counters are
// unaffected.
func (s *Sampler) DropBuffered(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring.drop(n)
}

// Totals returns the lifetime frame count and dropped-second count.
func (s *Sampler) Totals() (frames, dropped uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalFrames, s.droppedSeconds
}
