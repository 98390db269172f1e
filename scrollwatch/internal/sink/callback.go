package sink

import (
	"context"

	"github.com/hazyhaar/scrollscope/scrollwatch/perf"
)

// ReportFunc is called for each report.
type ReportFunc func(ctx context.Context, rep perf.Report) error

// Callback is an in-process sink with zero serialisation.
type Callback struct {
	onReport ReportFunc
}

// NewCallback creates a callback sink. A nil func drops reports.
func NewCallback(onReport ReportFunc) *Callback {
	return &Callback{onReport: onReport}
}

func (c *Callback) SendReport(ctx context.Context, rep perf.Report) error {
	if c.onReport == nil {
		return nil
	}
	return c.onReport(ctx, rep)
}

func (c *Callback) Close() error { return nil }
