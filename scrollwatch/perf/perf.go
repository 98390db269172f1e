// Package perf defines the measurement types scrollwatch emits: per-frame
// samples captured during scroll gestures and the aggregate reports built
// from them. Reports have no persistence of their own; they are recomputed
// from the live sample buffer each time one is requested.
package perf

import (
	"encoding/json"
	"math"
)

// FrameSample is one measurement taken on an animation frame while a scroll
// gesture is active. Timestamps are page-monotonic milliseconds
// (performance.now), not wall-clock time.
type FrameSample struct {
	Timestamp    float64 `json:"ts"`
	FrameTime    float64 `json:"frame_time_ms"`
	ScrollOffset float64 `json:"scroll_offset"`
	// FPS is the instantaneous rate 1000/FrameTime. It is a different metric
	// from the windowed FPS the dropped-second detector computes; the two can
	// diverge and both are kept.
	FPS float64 `json:"fps"`
}

// Environment describes the rendering context at the time diagnostics were
// enabled. Captured once per process.
type Environment struct {
	DevicePixelRatio float64 `json:"dpr"`
	ScreenWidth      int     `json:"screen_w"`
	ScreenHeight     int     `json:"screen_h"`
	WindowWidth      int     `json:"win_w"`
	WindowHeight     int     `json:"win_h"`
	Zoom             float64 `json:"zoom"`
	UserAgent        string  `json:"user_agent"`
}

// GridInfo carries the card-grid cardinality the host application reports.
type GridInfo struct {
	Cards   int `json:"cards"`
	Columns int `json:"columns"`
}

// Report is an end-of-gesture (or on-demand) performance snapshot.
type Report struct {
	ID          string `json:"id"`
	PageURL     string `json:"page_url"`
	GeneratedAt int64  `json:"generated_at"` // unix milliseconds
	Trigger     string `json:"trigger"`      // "gesture" | "on_demand"

	Environment Environment `json:"environment"`
	Grid        GridInfo    `json:"grid"`

	Frames         int    `json:"frames"`          // samples behind this report
	TotalFrames    uint64 `json:"total_frames"`    // lifetime counter
	DroppedSeconds uint64 `json:"dropped_seconds"` // lifetime counter

	AvgFPS       float64 `json:"avg_fps"`
	MinFPS       float64 `json:"min_fps"`
	MaxFPS       float64 `json:"max_fps"`
	AvgFrameTime float64 `json:"avg_frame_time_ms"`
	MaxFrameTime float64 `json:"max_frame_time_ms"`
}

// Summary holds aggregates over a set of frame samples.
type Summary struct {
	AvgFPS       float64
	MinFPS       float64
	MaxFPS       float64
	AvgFrameTime float64
	MaxFrameTime float64
}

// Summarize computes FPS and frame-time aggregates over samples. The FPS
// figures derive from the instantaneous per-frame metric only. An empty
// input yields a zero Summary.
func Summarize(samples []FrameSample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	var s Summary
	s.MinFPS = math.MaxFloat64

	var fpsSum, ftSum float64
	for _, sm := range samples {
		fpsSum += sm.FPS
		ftSum += sm.FrameTime
		if sm.FPS < s.MinFPS {
			s.MinFPS = sm.FPS
		}
		if sm.FPS > s.MaxFPS {
			s.MaxFPS = sm.FPS
		}
		if sm.FrameTime > s.MaxFrameTime {
			s.MaxFrameTime = sm.FrameTime
		}
	}

	n := float64(len(samples))
	s.AvgFPS = fpsSum / n
	s.AvgFrameTime = ftSum / n
	return s
}

// ZoomFactor estimates the browser zoom as outerWidth/innerWidth rounded to
// two decimals. Returns 0 when innerWidth is unknown.
func ZoomFactor(outerWidth, innerWidth int) float64 {
	if innerWidth <= 0 {
		return 0
	}
	return math.Round(float64(outerWidth)/float64(innerWidth)*100) / 100
}

// MarshalReport serialises a report as JSON.
func MarshalReport(r *Report) ([]byte, error) {
	return json.Marshal(r)
}
