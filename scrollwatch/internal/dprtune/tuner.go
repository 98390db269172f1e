package dprtune

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/scrollscope/scrollwatch/internal/signal"
)

// Injector applies page-level style state. Implementations must tolerate
// removal of ids that are not present.
type Injector interface {
	// ApplyStylesheet installs css under the given element id, replacing any
	// existing element with that id.
	ApplyStylesheet(ctx context.Context, id, css string) error
	// RemoveStylesheet removes the element with the given id, if present.
	RemoveStylesheet(ctx context.Context, id string) error
	// SetScrollingMarker toggles the global scrolling attribute on the
	// document element.
	SetScrollingMarker(ctx context.Context, on bool) error
}

// Defaults for the injected style element and the scrolling marker.
const (
	DefaultStyleID    = "scrollwatch-dpr-css"
	DefaultMarkerAttr = "data-scrollwatch-scrolling"
)

// Config for the tuner.
type Config struct {
	Injector Injector
	Signal   *signal.Activity

	// StyleID identifies the injected stylesheet element. At most one such
	// element exists at a time. Default: "scrollwatch-dpr-css".
	StyleID string

	// MarkerAttr is the global scrolling attribute name.
	// Default: "data-scrollwatch-scrolling".
	MarkerAttr string

	// Container is the structural selector of the scrolled grid.
	// Default: ".card-grid".
	Container string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.StyleID == "" {
		c.StyleID = DefaultStyleID
	}
	if c.MarkerAttr == "" {
		c.MarkerAttr = DefaultMarkerAttr
	}
	if c.Container == "" {
		c.Container = ".card-grid"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Tuner owns the injected stylesheet and the scrolling marker. Style
// failures are logged and absorbed: the worst case is "optimization not
// applied", never a broken page.
type Tuner struct {
	cfg Config

	mu      sync.Mutex
	mounted bool
	ctx     context.Context
	unsub   func()
	mode    Mode
	dpr     float64
}

// New creates an unmounted Tuner.
func New(cfg Config) *Tuner {
	cfg.defaults()
	return &Tuner{cfg: cfg, ctx: context.Background()}
}

// Mount subscribes to the scroll-activity signal and applies the initial
// classification for dpr. Idempotent.
func (t *Tuner) Mount(ctx context.Context, dpr float64) {
	t.mu.Lock()
	if t.mounted {
		t.mu.Unlock()
		return
	}
	t.mounted = true
	t.ctx = ctx
	t.unsub = t.cfg.Signal.Subscribe(t.onScrollState)
	t.mu.Unlock()

	t.Reclassify(ctx, dpr)
}

// Mode returns the currently applied override mode.
func (t *Tuner) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Reclassify re-evaluates dpr and swaps the stylesheet. The old element is
// always removed first and a fresh one injected, so stale rules cannot
// survive a DPR transition; repeating the same classification still yields
// exactly one stylesheet element.
func (t *Tuner) Reclassify(ctx context.Context, dpr float64) {
	mode := Classify(dpr).Mode()

	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return
	}
	prev := t.mode
	t.mode = mode
	t.dpr = dpr
	t.mu.Unlock()

	if err := t.cfg.Injector.RemoveStylesheet(ctx, t.cfg.StyleID); err != nil {
		t.cfg.Logger.Warn("dprtune: stylesheet removal failed", "error", err)
	}

	if mode == ModeOff {
		if prev != ModeOff {
			t.cfg.Logger.Info("dprtune: overrides off", "dpr", dpr)
		}
		return
	}

	css := Stylesheet(mode, t.cfg.MarkerAttr, t.cfg.Container)
	if err := t.cfg.Injector.ApplyStylesheet(ctx, t.cfg.StyleID, css); err != nil {
		// Prior optimization state stands until the next reclassification.
		t.cfg.Logger.Warn("dprtune: stylesheet injection failed", "error", err)
		return
	}
	t.cfg.Logger.Info("dprtune: stylesheet applied", "mode", mode.String(), "dpr", dpr)
}

// Unmount unsubscribes from the signal and clears the stylesheet and marker
// unconditionally.
func (t *Tuner) Unmount() {
	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return
	}
	t.mounted = false
	t.mode = ModeOff
	unsub := t.unsub
	t.unsub = nil
	ctx := t.ctx
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if err := t.cfg.Injector.RemoveStylesheet(ctx, t.cfg.StyleID); err != nil {
		t.cfg.Logger.Warn("dprtune: stylesheet removal failed", "error", err)
	}
	if err := t.cfg.Injector.SetScrollingMarker(ctx, false); err != nil {
		t.cfg.Logger.Warn("dprtune: marker clear failed", "error", err)
	}
	t.cfg.Logger.Info("dprtune: unmounted")
}

// onScrollState toggles the global marker, once per signal transition.
func (t *Tuner) onScrollState(active bool) {
	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return
	}
	ctx := t.ctx
	t.mu.Unlock()

	if err := t.cfg.Injector.SetScrollingMarker(ctx, active); err != nil {
		t.cfg.Logger.Warn("dprtune: marker toggle failed", "error", err, "active", active)
	}
}
