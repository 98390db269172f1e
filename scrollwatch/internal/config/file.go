// Package config handles scrollwatch configuration from YAML files or SQLite.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level scrollwatch configuration.
type Config struct {
	Browser     BrowserConfig     `yaml:"browser"`
	Page        PageConfig        `yaml:"page"`
	Signal      SignalConfig      `yaml:"signal"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Sinks       []SinkConfig      `yaml:"sinks"`
	HTTP        HTTPConfig        `yaml:"http"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote  string `yaml:"remote"`  // ws:// debugger URL; empty launches a local browser
	Headful bool   `yaml:"headful"` // show the browser window
}

// PageConfig defines the page to instrument.
type PageConfig struct {
	ID                string `yaml:"id"`
	URL               string `yaml:"url"`
	ViewportSelector  string `yaml:"viewport_selector"`   // scroll container; empty means the window
	Container         string `yaml:"container"`           // card grid selector for scroll-state CSS
	CustomScrollEvent string `yaml:"custom_scroll_event"` // DOM event fired by virtual-scroll libraries
}

// SignalConfig tunes the scroll activity signal.
type SignalConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DiagnosticsConfig tunes frame sampling and report generation.
type DiagnosticsConfig struct {
	AutoEnable  bool          `yaml:"auto_enable"`
	EndDelay    time.Duration `yaml:"end_delay"`
	LowFPS      float64       `yaml:"low_fps"`
	LongFrame   float64       `yaml:"long_frame_ms"`
	FrameBudget time.Duration `yaml:"frame_budget"`
	Capacity    int           `yaml:"capacity"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook
	URL  string `yaml:"url"`  // for webhook
}

// HTTPConfig controls the local status API. Empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Page.ID == "" {
		c.Page.ID = "page"
	}
	if c.Page.Container == "" {
		c.Page.Container = ".card-grid"
	}
	if c.Page.CustomScrollEvent == "" {
		c.Page.CustomScrollEvent = "ps-scroll-y"
	}
	if c.Signal.IdleTimeout <= 0 {
		c.Signal.IdleTimeout = 150 * time.Millisecond
	}
	if c.Diagnostics.EndDelay <= 0 {
		c.Diagnostics.EndDelay = 200 * time.Millisecond
	}
	if c.Diagnostics.LowFPS <= 0 {
		c.Diagnostics.LowFPS = 30
	}
	if c.Diagnostics.LongFrame <= 0 {
		c.Diagnostics.LongFrame = 50
	}
	if c.Diagnostics.FrameBudget <= 0 {
		c.Diagnostics.FrameBudget = 16 * time.Millisecond
	}
	if c.Diagnostics.Capacity <= 0 {
		c.Diagnostics.Capacity = 100
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
}
