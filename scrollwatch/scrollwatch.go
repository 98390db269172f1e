// Package scrollwatch is a scroll-rendering diagnostics daemon. It drives a
// Chrome tab via Rod, injects a small page agent, and correlates three
// concerns around scroll gestures: per-frame performance sampling, a shared
// scroll-activity signal, and DPR-dependent CSS tuning of the scrolled grid.
//
// scrollwatch measures, it does not interpret. End-of-gesture performance
// reports are emitted to sinks (stdout, webhook, callback) for downstream
// consumers.
package scrollwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/scrollscope/scrollwatch/internal/browser"
	"github.com/hazyhaar/scrollscope/scrollwatch/internal/config"
	"github.com/hazyhaar/scrollscope/scrollwatch/internal/diag"
	"github.com/hazyhaar/scrollscope/scrollwatch/internal/dprtune"
	"github.com/hazyhaar/scrollscope/scrollwatch/internal/sampler"
	"github.com/hazyhaar/scrollscope/scrollwatch/internal/signal"
	"github.com/hazyhaar/scrollscope/scrollwatch/internal/sink"
	"github.com/hazyhaar/scrollscope/scrollwatch/perf"
)

// Watcher is the top-level orchestrator: one browser tab, one sampler, one
// activity signal, one diagnostics controller, one DPR tuner.
type Watcher struct {
	cfg    *config.Config
	logger *slog.Logger

	mgr   *browser.Manager
	sinkR *sink.Router

	sampler  *sampler.Sampler
	activity *signal.Activity
	diag     *diag.Controller
	tuner    *dprtune.Tuner

	sched     *schedulerProxy
	inj       *injectorProxy
	scrollSrc *eventSource

	mu          sync.Mutex
	started     bool
	runCtx      context.Context
	tab         *browser.Tab
	agent       *browser.Agent
	unsubSignal func()
	dpr         float64
}

// New creates a Watcher from configuration. The watcher is fully wired but
// detached from any browser until Start.
func New(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) *Watcher {
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		cfg:       cfg,
		logger:    logger,
		sinkR:     sink.NewRouter(logger, sinks...),
		sched:     &schedulerProxy{},
		inj:       &injectorProxy{},
		scrollSrc: &eventSource{},
		runCtx:    context.Background(),
	}

	w.activity = signal.New(signal.Config{
		Sources:     []signal.Source{w.scrollSrc},
		Scheduler:   w.sched,
		IdleTimeout: cfg.Signal.IdleTimeout,
		Logger:      logger,
	})

	w.sampler = sampler.New(sampler.Config{
		Capacity:    cfg.Diagnostics.Capacity,
		LowFPS:      cfg.Diagnostics.LowFPS,
		LongFrame:   time.Duration(cfg.Diagnostics.LongFrame) * time.Millisecond,
		FrameBudget: cfg.Diagnostics.FrameBudget,
		Scrolling:   w.activity.Active,
		Logger:      logger,
	})

	w.diag = diag.New(diag.Config{
		Sampler:     w.sampler,
		EndDelay:    cfg.Diagnostics.EndDelay,
		Environment: w.captureEnvironment,
		Emit:        w.emitReport,
		PageURL:     cfg.Page.URL,
		Logger:      logger,
	})

	w.tuner = dprtune.New(dprtune.Config{
		Injector:  w.inj,
		Signal:    w.activity,
		Container: cfg.Page.Container,
		Logger:    logger,
	})

	w.mgr = browser.NewManager(browser.Config{
		RemoteURL: cfg.Browser.Remote,
		Headful:   cfg.Browser.Headful,
		Logger:    logger,
	})

	return w
}

// Start launches the browser, opens the page, injects the agent, and mounts
// the DPR tuner. ctx bounds the whole watcher lifetime.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("scrollwatch: already started")
	}
	w.started = true
	w.runCtx = ctx
	w.mu.Unlock()

	if _, err := w.mgr.Start(ctx); err != nil {
		return fmt.Errorf("scrollwatch: start browser: %w", err)
	}

	tab, err := browser.OpenTab(ctx, w.mgr, w.cfg.Page.URL, w.cfg.Page.ID)
	if err != nil {
		w.mgr.Close()
		return fmt.Errorf("scrollwatch: open tab: %w", err)
	}

	agent := browser.NewAgent(tab, browser.AgentOptions{
		ViewportSelector:  w.cfg.Page.ViewportSelector,
		CustomScrollEvent: w.cfg.Page.CustomScrollEvent,
		Container:         w.cfg.Page.Container,
	}, browser.Handlers{
		OnFrame:       w.sampler.OnFrame,
		OnScroll:      func(float64, bool) { w.scrollSrc.fire() },
		OnDPRChange:   w.onDPRChange,
		OnGrid:        w.diag.UpdateGridInfo,
		OnDebugEnable: func() { w.Enable(ctx) },
		OnCommand:     func(cmd string) { w.onCommand(ctx, cmd) },
	}, w.logger)

	if err := agent.Start(ctx); err != nil {
		tab.Close()
		w.mgr.Close()
		return fmt.Errorf("scrollwatch: start agent: %w", err)
	}

	w.mu.Lock()
	w.tab = tab
	w.agent = agent
	w.mu.Unlock()

	w.sched.set(agent)
	w.inj.set(browser.NewStyleInjector(tab, dprtune.DefaultMarkerAttr))

	// Gesture boundaries come from the shared signal, not raw events.
	w.unsubSignal = w.activity.Subscribe(w.onActivity)

	dpr := 0.0
	if env, err := agent.Environment(ctx); err != nil {
		w.logger.Warn("scrollwatch: initial environment capture failed", "error", err)
	} else {
		dpr = env.DevicePixelRatio
	}
	w.mu.Lock()
	w.dpr = dpr
	w.mu.Unlock()
	w.tuner.Mount(ctx, dpr)

	w.logger.Info("scrollwatch: watching page",
		"url", w.cfg.Page.URL, "id", w.cfg.Page.ID, "dpr", dpr)

	if w.cfg.Diagnostics.AutoEnable {
		w.Enable(ctx)
	}
	return nil
}

// Enable turns diagnostics on and starts the page frame pump. Idempotent.
func (w *Watcher) Enable(ctx context.Context) {
	w.diag.Enable(ctx)

	w.mu.Lock()
	agent := w.agent
	w.mu.Unlock()
	if agent != nil {
		if err := agent.StartPump(ctx); err != nil {
			w.logger.Warn("scrollwatch: start frame pump failed", "error", err)
		}
	}
}

// Disable stops the frame pump and turns diagnostics off. Idempotent.
func (w *Watcher) Disable(ctx context.Context) {
	w.mu.Lock()
	agent := w.agent
	w.mu.Unlock()
	if agent != nil {
		if err := agent.StopPump(ctx); err != nil {
			w.logger.Warn("scrollwatch: stop frame pump failed", "error", err)
		}
	}

	w.diag.Disable()
}

// Report builds an on-demand report from the current buffer. The buffer is
// left intact. ok is false when no samples have been collected.
func (w *Watcher) Report() (perf.Report, bool) {
	return w.diag.Report()
}

// UpdateGrid records the host grid cardinality for subsequent reports.
func (w *Watcher) UpdateGrid(cards, columns int) {
	w.diag.UpdateGridInfo(cards, columns)
}

// Status is a point-in-time view of the watcher.
type Status struct {
	PageURL        string  `json:"page_url"`
	Enabled        bool    `json:"enabled"`
	Scrolling      bool    `json:"scrolling"`
	DPR            float64 `json:"dpr"`
	DPRMode        string  `json:"dpr_mode"`
	BufferLen      int     `json:"buffer_len"`
	TotalFrames    uint64  `json:"total_frames"`
	DroppedSeconds uint64  `json:"dropped_seconds"`
}

// Status reports the current watcher state.
func (w *Watcher) Status() Status {
	total, dropped := w.sampler.Totals()
	w.mu.Lock()
	dpr := w.dpr
	w.mu.Unlock()

	return Status{
		PageURL:        w.cfg.Page.URL,
		Enabled:        w.diag.Enabled(),
		Scrolling:      w.activity.Active(),
		DPR:            dpr,
		DPRMode:        w.tuner.Mode().String(),
		BufferLen:      w.sampler.BufferLen(),
		TotalFrames:    total,
		DroppedSeconds: dropped,
	}
}

// Stop gracefully shuts everything down: diagnostics, tuner, agent, tab,
// browser, sinks.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	tab := w.tab
	agent := w.agent
	unsub := w.unsubSignal
	w.tab = nil
	w.agent = nil
	w.unsubSignal = nil
	w.mu.Unlock()

	w.diag.Disable()
	w.tuner.Unmount()
	if unsub != nil {
		unsub()
	}
	if agent != nil {
		agent.Stop()
	}
	if tab != nil {
		tab.Close()
	}
	w.mgr.Close()
	w.sinkR.Close()
	w.logger.Info("scrollwatch: stopped")
}

// onActivity translates signal transitions into gesture boundaries.
func (w *Watcher) onActivity(active bool) {
	if active {
		w.diag.OnScrollStart()
	} else {
		w.diag.OnScrollEnd()
	}
}

func (w *Watcher) onDPRChange(dpr float64) {
	w.mu.Lock()
	w.dpr = dpr
	ctx := w.runCtx
	w.mu.Unlock()

	w.logger.Info("scrollwatch: device pixel ratio changed", "dpr", dpr)
	w.tuner.Reclassify(ctx, dpr)
}

// onCommand handles the page console escape hatch.
func (w *Watcher) onCommand(ctx context.Context, cmd string) {
	switch cmd {
	case "enable":
		w.Enable(ctx)
	case "disable":
		w.Disable(ctx)
	case "report":
		if rep, ok := w.diag.Report(); ok {
			w.emitReport(rep)
		}
	default:
		w.logger.Debug("scrollwatch: unknown command", "cmd", cmd)
	}
}

func (w *Watcher) captureEnvironment(ctx context.Context) (perf.Environment, error) {
	w.mu.Lock()
	agent := w.agent
	w.mu.Unlock()
	if agent == nil {
		return perf.Environment{}, fmt.Errorf("scrollwatch: no page agent")
	}
	return agent.Environment(ctx)
}

func (w *Watcher) emitReport(rep perf.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := sampler.MeasureCtx(ctx, w.sampler, "report_emit", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.sinkR.SendReport(ctx, rep)
	})
	if err != nil {
		w.logger.Error("scrollwatch: send report failed", "error", err)
	}
}

// eventSource feeds page scroll events into the activity signal.
type eventSource struct {
	mu sync.Mutex
	fn func()
}

func (s *eventSource) Attach(fn func()) (func(), error) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.fn = nil
		s.mu.Unlock()
	}, nil
}

func (s *eventSource) fire() {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// schedulerProxy defers the frame scheduler choice until the agent exists;
// before Start it falls back to timer pacing.
type schedulerProxy struct {
	mu   sync.Mutex
	impl signal.FrameScheduler
}

func (p *schedulerProxy) set(s signal.FrameScheduler) {
	p.mu.Lock()
	p.impl = s
	p.mu.Unlock()
}

func (p *schedulerProxy) Request(fn func()) func() {
	p.mu.Lock()
	impl := p.impl
	p.mu.Unlock()
	if impl == nil {
		impl = signal.TimerScheduler{}
	}
	return impl.Request(fn)
}

// injectorProxy is a nil-safe dprtune injector; before Start every call is a
// no-op success.
type injectorProxy struct {
	mu   sync.Mutex
	impl dprtune.Injector
}

func (p *injectorProxy) set(i dprtune.Injector) {
	p.mu.Lock()
	p.impl = i
	p.mu.Unlock()
}

func (p *injectorProxy) get() dprtune.Injector {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.impl
}

func (p *injectorProxy) ApplyStylesheet(ctx context.Context, id, css string) error {
	if i := p.get(); i != nil {
		return i.ApplyStylesheet(ctx, id, css)
	}
	return nil
}

func (p *injectorProxy) RemoveStylesheet(ctx context.Context, id string) error {
	if i := p.get(); i != nil {
		return i.RemoveStylesheet(ctx, id)
	}
	return nil
}

func (p *injectorProxy) SetScrollingMarker(ctx context.Context, on bool) error {
	if i := p.get(); i != nil {
		return i.SetScrollingMarker(ctx, on)
	}
	return nil
}
