package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod/lib/proto"
	"github.com/hazyhaar/scrollscope/scrollwatch/perf"
)

//go:embed agent.js
var agentJS []byte

const bindingName = "__scrollwatch_binding"

// Handlers receive page events. Nil handlers are skipped. All handlers are
// invoked on the binding listener goroutine.
type Handlers struct {
	// OnFrame is called once per animation frame while the pump runs.
	// ts is the page-monotonic performance.now() timestamp in ms.
	OnFrame func(ts, offset float64)
	// OnScroll is called for native and library scroll events.
	OnScroll func(offset float64, native bool)
	// OnDPRChange is called when devicePixelRatio changes (browser zoom,
	// window moved between monitors).
	OnDPRChange func(dpr float64)
	// OnGrid is called with card-grid cardinality at startup and after
	// resizes settle.
	OnGrid func(cards, columns int)
	// OnDebugEnable is called when the page URL carries a debug parameter.
	OnDebugEnable func()
	// OnCommand is called for console escape-hatch commands:
	// "enable", "disable", "report".
	OnCommand func(cmd string)
}

// AgentOptions configure the injected page agent.
type AgentOptions struct {
	ViewportSelector  string `json:"viewportSelector"`
	CustomScrollEvent string `json:"customScrollEvent"`
	Container         string `json:"container"`
}

// Agent owns the injected JS and the CDP binding that carries its events.
type Agent struct {
	tab      *Tab
	opts     AgentOptions
	handlers Handlers
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// One-shot frame callbacks for the Go-side frame scheduler.
	mu       sync.Mutex
	frameFns map[int64]func()
	nextID   int64
}

// NewAgent creates an Agent for the tab. Call Start to inject and listen.
func NewAgent(tab *Tab, opts AgentOptions, handlers Handlers, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		tab:      tab,
		opts:     opts,
		handlers: handlers,
		logger:   logger,
		frameFns: make(map[int64]func()),
	}
}

// Start registers the CDP binding, injects agent.js and starts the agent.
func (a *Agent) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	err := proto.RuntimeAddBinding{Name: bindingName}.Call(a.tab.Page)
	if err != nil {
		a.logger.Warn("agent: addBinding failed (may already exist)", "error", err)
	}

	go a.listenBinding()

	if _, err := a.tab.Eval(a.ctx, string(agentJS)); err != nil {
		return fmt.Errorf("agent: inject: %w", err)
	}
	if _, err := a.tab.Eval(a.ctx, `(o) => window.__scrollwatch_agent.start(o)`, a.opts); err != nil {
		return fmt.Errorf("agent: start: %w", err)
	}

	a.logger.Debug("agent: started", "url", a.tab.PageURL)
	return nil
}

// Stop detaches the page agent and the binding listener.
func (a *Agent) Stop() {
	if a.ctx != nil {
		if _, err := a.tab.Eval(a.ctx, `() => window.__scrollwatch_agent.stop()`); err != nil {
			a.logger.Debug("agent: stop eval failed", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// StartPump starts the per-frame sampling loop on the page.
func (a *Agent) StartPump(ctx context.Context) error {
	_, err := a.tab.Eval(ctx, `() => window.__scrollwatch_agent.startPump()`)
	return err
}

// StopPump stops the per-frame sampling loop.
func (a *Agent) StopPump(ctx context.Context) error {
	_, err := a.tab.Eval(ctx, `() => window.__scrollwatch_agent.stopPump()`)
	return err
}

// MeasureGrid asks the page to re-measure the card grid; the result arrives
// through Handlers.OnGrid.
func (a *Agent) MeasureGrid(ctx context.Context) error {
	_, err := a.tab.Eval(ctx, `() => window.__scrollwatch_agent.measureGrid()`)
	return err
}

// Environment captures the page rendering context.
func (a *Agent) Environment(ctx context.Context) (perf.Environment, error) {
	res, err := a.tab.Eval(ctx, `() => window.__scrollwatch_agent.environment()`)
	if err != nil {
		return perf.Environment{}, fmt.Errorf("agent: environment: %w", err)
	}

	v := res.Value
	env := perf.Environment{
		DevicePixelRatio: v.Get("dpr").Num(),
		ScreenWidth:      v.Get("screen_w").Int(),
		ScreenHeight:     v.Get("screen_h").Int(),
		WindowWidth:      v.Get("win_w").Int(),
		WindowHeight:     v.Get("win_h").Int(),
		UserAgent:        v.Get("user_agent").Str(),
	}
	env.Zoom = perf.ZoomFactor(v.Get("outer_w").Int(), env.WindowWidth)
	return env, nil
}

// Request implements the frame scheduler: fn runs on the page's next
// animation frame. The returned func cancels a not-yet-fired request.
func (a *Agent) Request(fn func()) func() {
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.frameFns[id] = fn
	a.mu.Unlock()

	// Eval is a network round-trip; never block the caller on it.
	go func() {
		if _, err := a.tab.Eval(a.ctx, `(id) => window.__scrollwatch_agent.requestFrame(id)`, id); err != nil {
			a.logger.Debug("agent: requestFrame failed", "error", err)
		}
	}()

	return func() {
		a.mu.Lock()
		_, ok := a.frameFns[id]
		delete(a.frameFns, id)
		a.mu.Unlock()
		if !ok {
			return
		}
		go func() {
			if _, err := a.tab.Eval(a.ctx, `(id) => window.__scrollwatch_agent.cancelFrame(id)`, id); err != nil {
				a.logger.Debug("agent: cancelFrame failed", "error", err)
			}
		}()
	}
}

// agentEvent is the wire shape of one binding payload.
type agentEvent struct {
	Type    string  `json:"type"`
	TS      float64 `json:"ts"`
	Offset  float64 `json:"offset"`
	Native  bool    `json:"native"`
	DPR     float64 `json:"dpr"`
	ID      int64   `json:"id"`
	Cards   int     `json:"cards"`
	Columns int     `json:"columns"`
	Enabled bool    `json:"enabled"`
	Cmd     string  `json:"cmd"`
}

// listenBinding receives agent events via Runtime.bindingCalled.
func (a *Agent) listenBinding() {
	a.tab.Page.Context(a.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}

		var ev agentEvent
		if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
			a.logger.Warn("agent: parse binding payload", "error", err)
			return
		}

		a.dispatch(ev)
	})()
}

func (a *Agent) dispatch(ev agentEvent) {
	h := a.handlers
	switch ev.Type {
	case "frame":
		if h.OnFrame != nil {
			h.OnFrame(ev.TS, ev.Offset)
		}
	case "frame_cb":
		a.mu.Lock()
		fn := a.frameFns[ev.ID]
		delete(a.frameFns, ev.ID)
		a.mu.Unlock()
		if fn != nil {
			fn()
		}
	case "scroll":
		if h.OnScroll != nil {
			h.OnScroll(ev.Offset, ev.Native)
		}
	case "dpr":
		if h.OnDPRChange != nil {
			h.OnDPRChange(ev.DPR)
		}
	case "grid":
		if h.OnGrid != nil {
			h.OnGrid(ev.Cards, ev.Columns)
		}
	case "debug":
		if ev.Enabled && h.OnDebugEnable != nil {
			h.OnDebugEnable()
		}
	case "command":
		if h.OnCommand != nil {
			h.OnCommand(ev.Cmd)
		}
	default:
		a.logger.Debug("agent: unknown event type", "type", ev.Type)
	}
}
