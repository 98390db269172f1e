package sampler

import (
	"context"
	"time"
)

// Measure runs fn and returns its result unchanged. While the sampler is
// enabled the duration is checked against the frame budget (warn) and the
// debug threshold (log); while disabled fn runs with no timing calls at all.
func Measure[T any](s *Sampler, name string, fn func() T) T {
	if !s.Enabled() {
		return fn()
	}
	start := time.Now()
	v := fn()
	s.observe(name, time.Since(start))
	return v
}

// MeasureCtx is the context-taking counterpart of Measure for operations
// that block or fail.
func MeasureCtx[T any](ctx context.Context, s *Sampler, name string, fn func(context.Context) (T, error)) (T, error) {
	if !s.Enabled() {
		return fn(ctx)
	}
	start := time.Now()
	v, err := fn(ctx)
	s.observe(name, time.Since(start))
	return v, err
}

func (s *Sampler) observe(name string, d time.Duration) {
	switch {
	case d > s.cfg.FrameBudget:
		s.cfg.Logger.Warn("sampler: operation over frame budget",
			"op", name, "duration_ms", float64(d.Microseconds())/1000, "budget_ms", s.cfg.FrameBudget.Milliseconds())
	case d > s.cfg.MeasureLog:
		s.cfg.Logger.Debug("sampler: slow operation",
			"op", name, "duration_ms", float64(d.Microseconds())/1000)
	}
}
