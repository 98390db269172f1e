package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/scrollscope/dbopen"
)

func TestLoadFile(t *testing.T) {
	yaml := `
browser:
  remote: "ws://localhost:9222"
page:
  id: grid
  url: "https://example.com/library"
  viewport_selector: ".scroll-viewport"
signal:
  idle_timeout: 300ms
diagnostics:
  auto_enable: true
  low_fps: 25
sinks:
  - type: webhook
    url: "https://hooks.example.com/perf"
http:
  addr: ":8091"
`
	path := filepath.Join(t.TempDir(), "scrollwatch.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Browser.Remote != "ws://localhost:9222" {
		t.Errorf("browser.remote = %q", cfg.Browser.Remote)
	}
	if cfg.Page.ID != "grid" {
		t.Errorf("page.id = %q, want grid", cfg.Page.ID)
	}
	if cfg.Page.ViewportSelector != ".scroll-viewport" {
		t.Errorf("viewport_selector = %q", cfg.Page.ViewportSelector)
	}
	if cfg.Signal.IdleTimeout != 300*time.Millisecond {
		t.Errorf("idle_timeout = %v, want 300ms", cfg.Signal.IdleTimeout)
	}
	if !cfg.Diagnostics.AutoEnable {
		t.Error("auto_enable should be true")
	}
	if cfg.Diagnostics.LowFPS != 25 {
		t.Errorf("low_fps = %v, want 25", cfg.Diagnostics.LowFPS)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Type != "webhook" {
		t.Errorf("sinks = %+v", cfg.Sinks)
	}
	if cfg.HTTP.Addr != ":8091" {
		t.Errorf("http.addr = %q", cfg.HTTP.Addr)
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Page.Container != ".card-grid" {
		t.Errorf("container = %q, want .card-grid", cfg.Page.Container)
	}
	if cfg.Page.CustomScrollEvent != "ps-scroll-y" {
		t.Errorf("custom_scroll_event = %q, want ps-scroll-y", cfg.Page.CustomScrollEvent)
	}
	if cfg.Signal.IdleTimeout != 150*time.Millisecond {
		t.Errorf("idle_timeout = %v, want 150ms", cfg.Signal.IdleTimeout)
	}
	if cfg.Diagnostics.EndDelay != 200*time.Millisecond {
		t.Errorf("end_delay = %v, want 200ms", cfg.Diagnostics.EndDelay)
	}
	if cfg.Diagnostics.LowFPS != 30 {
		t.Errorf("low_fps = %v, want 30", cfg.Diagnostics.LowFPS)
	}
	if cfg.Diagnostics.LongFrame != 50 {
		t.Errorf("long_frame = %v, want 50", cfg.Diagnostics.LongFrame)
	}
	if cfg.Diagnostics.Capacity != 100 {
		t.Errorf("capacity = %d, want 100", cfg.Diagnostics.Capacity)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Type != "stdout" {
		t.Errorf("sinks = %+v, want single stdout", cfg.Sinks)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTargetsRoundTrip(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()

	want := DBTarget{
		ID:                "grid",
		URL:               "https://example.com/library",
		ViewportSelector:  ".scroll-viewport",
		Container:         ".card-grid",
		CustomScrollEvent: "ps-scroll-y",
		AutoEnable:        true,
	}
	if err := UpsertTarget(ctx, db, want); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}

	targets, err := LoadTargets(ctx, db)
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1", len(targets))
	}
	got := targets[0]
	if got.ID != want.ID || got.URL != want.URL || !got.AutoEnable {
		t.Errorf("target = %+v, want %+v", got, want)
	}

	page := got.Page()
	if page.ID != "grid" || page.ViewportSelector != ".scroll-viewport" {
		t.Errorf("page = %+v", page)
	}
}

func TestUpsertTargetUpdates(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()

	if err := UpsertTarget(ctx, db, DBTarget{ID: "a", URL: "https://one.example"}); err != nil {
		t.Fatal(err)
	}
	if err := UpsertTarget(ctx, db, DBTarget{ID: "a", URL: "https://two.example"}); err != nil {
		t.Fatal(err)
	}

	targets, err := LoadTargets(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1", len(targets))
	}
	if targets[0].URL != "https://two.example" {
		t.Errorf("url = %q, want updated value", targets[0].URL)
	}
}

func TestLoadTargetsSkipsInactive(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()

	if err := UpsertTarget(ctx, db, DBTarget{ID: "on", URL: "https://on.example"}); err != nil {
		t.Fatal(err)
	}
	if err := UpsertTarget(ctx, db, DBTarget{ID: "off", URL: "https://off.example", Status: "paused"}); err != nil {
		t.Fatal(err)
	}

	targets, err := LoadTargets(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].ID != "on" {
		t.Errorf("targets = %+v, want only the active row", targets)
	}
}
