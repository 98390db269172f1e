// Package sink defines output backends for scrollwatch performance reports.
package sink

import (
	"context"

	"github.com/hazyhaar/scrollscope/scrollwatch/perf"
)

// Sink delivers reports to a backend (stdout, webhook, in-process callback).
type Sink interface {
	SendReport(ctx context.Context, rep perf.Report) error
	Close() error
}

// envelope wraps every emitted record with its type for stream consumers.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
