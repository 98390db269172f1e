package scrollwatch

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hazyhaar/scrollscope/scrollwatch/internal/config"
	"github.com/hazyhaar/scrollscope/watch"
)

// Config is the top-level scrollwatch configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines the page to instrument.
type PageConfig = config.PageConfig

// SignalConfig tunes the scroll activity signal.
type SignalConfig = config.SignalConfig

// DiagnosticsConfig tunes frame sampling and report generation.
type DiagnosticsConfig = config.DiagnosticsConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// HTTPConfig controls the local status API.
type HTTPConfig = config.HTTPConfig

// DBTarget is a scroll_targets row.
type DBTarget = config.DBTarget

// TargetsSchema is the scroll_targets table DDL.
const TargetsSchema = config.Schema

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// LoadTargets reads all active targets from the database.
func LoadTargets(ctx context.Context, db *sql.DB) ([]DBTarget, error) {
	return config.LoadTargets(ctx, db)
}

// UpsertTarget inserts or updates a target row.
func UpsertTarget(ctx context.Context, db *sql.DB, t DBTarget) error {
	return config.UpsertTarget(ctx, db, t)
}

// WatchTargets creates a watcher that detects scroll_targets changes.
func WatchTargets(db *sql.DB, logger *slog.Logger) *watch.Watcher {
	return config.WatchTargets(db, logger)
}
