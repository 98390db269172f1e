package perf

import (
	"math"
	"testing"
)

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	if got != (Summary{}) {
		t.Errorf("Summarize(nil): got %+v, want zero Summary", got)
	}
}

func TestSummarize_UniformFrames(t *testing.T) {
	// 40 frames at 20ms each → 50 fps across the board.
	var samples []FrameSample
	for i := 0; i < 40; i++ {
		samples = append(samples, FrameSample{FrameTime: 20, FPS: 50})
	}

	s := Summarize(samples)
	if math.Abs(s.AvgFPS-50) > 1e-9 {
		t.Errorf("AvgFPS: got %v, want 50", s.AvgFPS)
	}
	if s.MinFPS != 50 || s.MaxFPS != 50 {
		t.Errorf("Min/MaxFPS: got %v/%v, want 50/50", s.MinFPS, s.MaxFPS)
	}
	if math.Abs(s.AvgFrameTime-20) > 1e-9 {
		t.Errorf("AvgFrameTime: got %v, want 20", s.AvgFrameTime)
	}
	if s.MaxFrameTime != 20 {
		t.Errorf("MaxFrameTime: got %v, want 20", s.MaxFrameTime)
	}
}

func TestSummarize_MixedFrames(t *testing.T) {
	samples := []FrameSample{
		{FrameTime: 10, FPS: 100},
		{FrameTime: 50, FPS: 20},
		{FrameTime: 25, FPS: 40},
	}

	s := Summarize(samples)
	if s.MinFPS != 20 {
		t.Errorf("MinFPS: got %v, want 20", s.MinFPS)
	}
	if s.MaxFPS != 100 {
		t.Errorf("MaxFPS: got %v, want 100", s.MaxFPS)
	}
	if s.MaxFrameTime != 50 {
		t.Errorf("MaxFrameTime: got %v, want 50", s.MaxFrameTime)
	}
	wantAvg := (100.0 + 20.0 + 40.0) / 3
	if math.Abs(s.AvgFPS-wantAvg) > 1e-9 {
		t.Errorf("AvgFPS: got %v, want %v", s.AvgFPS, wantAvg)
	}
}

func TestZoomFactor(t *testing.T) {
	cases := []struct {
		outer, inner int
		want         float64
	}{
		{1920, 1920, 1.0},
		{1920, 1536, 1.25},
		{1920, 1745, 1.1}, // 1.1003 rounds to 1.10
		{1280, 0, 0},
	}
	for _, c := range cases {
		if got := ZoomFactor(c.outer, c.inner); got != c.want {
			t.Errorf("ZoomFactor(%d, %d): got %v, want %v", c.outer, c.inner, got, c.want)
		}
	}
}

func TestMarshalReport_RoundTrips(t *testing.T) {
	r := &Report{ID: "rpt_1", Trigger: "gesture", Frames: 3, AvgFPS: 58.2}
	data, err := MarshalReport(r)
	if err != nil {
		t.Fatalf("MarshalReport: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("MarshalReport: empty output")
	}
}
