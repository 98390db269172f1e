// Package diag implements the diagnostics controller: a small state machine
// over {disabled, enabled-idle, enabled-scrolling} that correlates the frame
// sampler with scroll-gesture boundaries and synthesises a performance
// report at the end of each gesture.
package diag

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/scrollscope/idgen"
	"github.com/hazyhaar/scrollscope/scrollwatch/internal/sampler"
	"github.com/hazyhaar/scrollscope/scrollwatch/perf"
)

// Config for the controller.
type Config struct {
	Sampler *sampler.Sampler

	// EndDelay is the debounce applied to end-of-scroll notifications: a
	// gesture only ends after this long with no new start. Default: 200ms.
	EndDelay time.Duration

	// Environment captures the rendering environment. Called once, on the
	// first Enable; failures are absorbed and leave a zero Environment.
	Environment func(ctx context.Context) (perf.Environment, error)

	// Emit delivers gesture-end reports. nil drops them.
	Emit func(perf.Report)

	PageURL string
	NewID   idgen.Generator
	Logger  *slog.Logger
}

func (c *Config) defaults() {
	if c.EndDelay <= 0 {
		c.EndDelay = 200 * time.Millisecond
	}
	if c.NewID == nil {
		c.NewID = idgen.Prefixed("rpt_", idgen.Default)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Controller orchestrates sampler lifecycle and report generation.
type Controller struct {
	cfg Config

	mu        sync.Mutex
	enabled   bool
	scrolling bool
	envDone   bool
	env       perf.Environment
	grid      perf.GridInfo
	endTimer  *time.Timer
}

// New creates a Controller in the disabled state.
func New(cfg Config) *Controller {
	cfg.defaults()
	return &Controller{cfg: cfg}
}

// Enable moves to enabled-idle and starts the sampler. Idempotent. The
// environment is recorded once per process.
func (c *Controller) Enable(ctx context.Context) {
	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = true
	capture := !c.envDone && c.cfg.Environment != nil
	c.mu.Unlock()

	if capture {
		env, err := c.cfg.Environment(ctx)
		if err != nil {
			c.cfg.Logger.Debug("diag: environment capture failed", "error", err)
		} else {
			c.mu.Lock()
			c.env = env
			c.envDone = true
			c.mu.Unlock()
		}
	}

	c.cfg.Sampler.Enable()
	c.cfg.Logger.Info("diag: enabled", "page_url", c.cfg.PageURL)
}

// Disable stops the sampler and cancels any pending gesture end. Start/end
// notifications become no-ops until re-enabled. Idempotent.
func (c *Controller) Disable() {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = false
	c.scrolling = false
	if c.endTimer != nil {
		c.endTimer.Stop()
		c.endTimer = nil
	}
	c.mu.Unlock()

	c.cfg.Sampler.Disable()
	c.cfg.Logger.Info("diag: disabled")
}

// Enabled reports whether diagnostics are running.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// OnScrollStart marks the gesture active and cancels a pending end.
func (c *Controller) OnScrollStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.endTimer != nil {
		c.endTimer.Stop()
		c.endTimer = nil
	}
	if !c.scrolling {
		c.scrolling = true
		c.cfg.Logger.Debug("diag: scroll gesture started")
	}
}

// OnScrollEnd (re)arms the end-of-gesture debounce timer. The report fires
// only if no OnScrollStart intervenes within EndDelay.
func (c *Controller) OnScrollEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.endTimer != nil {
		c.endTimer.Stop()
	}
	c.endTimer = time.AfterFunc(c.cfg.EndDelay, c.finishGesture)
}

// UpdateGridInfo records the host grid cardinality for report generation.
func (c *Controller) UpdateGridInfo(cards, columns int) {
	c.mu.Lock()
	c.grid = perf.GridInfo{Cards: cards, Columns: columns}
	enabled := c.enabled
	c.mu.Unlock()

	if enabled {
		c.cfg.Logger.Debug("diag: grid updated", "cards", cards, "columns", columns)
	}
}

// Report builds an on-demand report from the current sample buffer. The
// buffer is left intact. ok is false when there is nothing to report.
func (c *Controller) Report() (rep perf.Report, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildLocked("on_demand")
}

// finishGesture fires when the end debounce elapses without a new start.
func (c *Controller) finishGesture() {
	c.mu.Lock()
	c.endTimer = nil
	if !c.enabled || !c.scrolling {
		c.mu.Unlock()
		return
	}
	c.scrolling = false
	rep, ok := c.buildLocked("gesture")
	c.mu.Unlock()

	// Gesture reports consume exactly the snapshotted samples; frames that
	// arrive between snapshot and drop stay buffered for the next gesture.
	// An empty buffer is simply "nothing to report", not an error.
	if !ok {
		return
	}
	c.cfg.Sampler.DropBuffered(rep.Frames)

	if c.cfg.Emit != nil {
		c.cfg.Emit(rep)
	}
	c.cfg.Logger.Info("diag: gesture report",
		"id", rep.ID,
		"frames", rep.Frames,
		"avg_fps", rep.AvgFPS,
		"dropped_seconds", rep.DroppedSeconds)
}

func (c *Controller) buildLocked(trigger string) (perf.Report, bool) {
	samples := c.cfg.Sampler.Snapshot()
	if len(samples) == 0 {
		return perf.Report{}, false
	}

	total, dropped := c.cfg.Sampler.Totals()
	sum := perf.Summarize(samples)

	return perf.Report{
		ID:             c.cfg.NewID(),
		PageURL:        c.cfg.PageURL,
		GeneratedAt:    time.Now().UnixMilli(),
		Trigger:        trigger,
		Environment:    c.env,
		Grid:           c.grid,
		Frames:         len(samples),
		TotalFrames:    total,
		DroppedSeconds: dropped,
		AvgFPS:         sum.AvgFPS,
		MinFPS:         sum.MinFPS,
		MaxFPS:         sum.MaxFPS,
		AvgFrameTime:   sum.AvgFrameTime,
		MaxFrameTime:   sum.MaxFrameTime,
	}, true
}
