package scrollwatch

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/scrollscope/scrollwatch/internal/sink"
)

// Sink delivers reports to a backend. Re-exported from internal.
type Sink = sink.Sink

// ReportFunc is the in-process callback sink signature.
type ReportFunc = sink.ReportFunc

// NewStdoutSink creates a JSON-lines sink. nil w means os.Stdout.
func NewStdoutSink(w io.Writer) Sink { return sink.NewStdout(w) }

// NewWebhookSink creates a webhook sink POSTing reports to url.
func NewWebhookSink(url string) Sink { return sink.NewWebhook(url) }

// NewCallbackSink creates an in-process callback sink.
func NewCallbackSink(fn ReportFunc) Sink { return sink.NewCallback(fn) }

// BuildSinks instantiates sinks from configuration.
func BuildSinks(cfgs []SinkConfig, logger *slog.Logger) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Type {
		case "stdout":
			sinks = append(sinks, sink.NewStdout(nil))
		case "webhook":
			if c.URL == "" {
				return nil, fmt.Errorf("scrollwatch: webhook sink requires a url")
			}
			sinks = append(sinks, sink.NewWebhook(c.URL, sink.WithWebhookLogger(logger)))
		default:
			return nil, fmt.Errorf("scrollwatch: unknown sink type %q", c.Type)
		}
	}
	return sinks, nil
}
