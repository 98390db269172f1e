package config

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hazyhaar/scrollscope/dbopen"
	"github.com/hazyhaar/scrollscope/watch"
)

// Schema for the scroll_targets table.
const Schema = `
CREATE TABLE IF NOT EXISTS scroll_targets (
	id                  TEXT PRIMARY KEY,
	url                 TEXT NOT NULL,
	viewport_selector   TEXT DEFAULT '',
	container           TEXT DEFAULT '.card-grid',
	custom_scroll_event TEXT DEFAULT 'ps-scroll-y',
	auto_enable         INTEGER DEFAULT 0,
	status              TEXT DEFAULT 'active',
	updated_at          INTEGER NOT NULL
);
`

// DBTarget is a row from the scroll_targets table.
type DBTarget struct {
	ID                string
	URL               string
	ViewportSelector  string
	Container         string
	CustomScrollEvent string
	AutoEnable        bool
	Status            string
}

// Page converts a database row into a PageConfig.
func (t DBTarget) Page() PageConfig {
	return PageConfig{
		ID:                t.ID,
		URL:               t.URL,
		ViewportSelector:  t.ViewportSelector,
		Container:         t.Container,
		CustomScrollEvent: t.CustomScrollEvent,
	}
}

// UpsertTarget inserts or updates a target row.
func UpsertTarget(ctx context.Context, db *sql.DB, t DBTarget) error {
	status := t.Status
	if status == "" {
		status = "active"
	}
	autoInt := 0
	if t.AutoEnable {
		autoInt = 1
	}
	_, err := dbopen.Exec(ctx, db, `
		INSERT INTO scroll_targets
			(id, url, viewport_selector, container, custom_scroll_event,
			 auto_enable, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			viewport_selector = excluded.viewport_selector,
			container = excluded.container,
			custom_scroll_event = excluded.custom_scroll_event,
			auto_enable = excluded.auto_enable,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, t.ID, t.URL, t.ViewportSelector, t.Container, t.CustomScrollEvent,
		autoInt, status, time.Now().UnixMilli())
	return err
}

// LoadTargets reads all active targets from the database.
func LoadTargets(ctx context.Context, db *sql.DB) ([]DBTarget, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, url, viewport_selector, container,
		       custom_scroll_event, auto_enable, status
		FROM scroll_targets
		WHERE status = 'active'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []DBTarget
	for rows.Next() {
		var t DBTarget
		var autoInt int
		if err := rows.Scan(&t.ID, &t.URL, &t.ViewportSelector, &t.Container,
			&t.CustomScrollEvent, &autoInt, &t.Status); err != nil {
			return nil, err
		}
		t.AutoEnable = autoInt != 0
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// WatchTargets creates a watch.Watcher that detects changes to scroll_targets.
func WatchTargets(db *sql.DB, logger *slog.Logger) *watch.Watcher {
	return watch.New(db, watch.Options{
		Interval: 200 * time.Millisecond,
		Debounce: 500 * time.Millisecond,
		Detector: watch.PragmaDataVersion,
		Logger:   logger,
	})
}
