package sampler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"
)

func testSampler(scrolling *bool) *Sampler {
	s := New(Config{
		Scrolling: func() bool { return *scrolling },
		Logger:    slog.New(slog.NewTextHandler(new(bytes.Buffer), nil)),
	})
	s.Enable()
	return s
}

// feed pushes n frames spaced step ms apart, starting after the seed frame.
func feed(s *Sampler, start float64, n int, step float64) float64 {
	ts := start
	s.OnFrame(ts, 0) // seed
	for i := 0; i < n; i++ {
		ts += step
		s.OnFrame(ts, float64(i))
	}
	return ts
}

func TestOnFrame_BufferBoundedFIFO(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	feed(s, 0, 150, 10)

	if got := s.BufferLen(); got != 100 {
		t.Fatalf("buffer length: got %d, want 100", got)
	}

	samples := s.Snapshot()
	// 150 frames pushed into a 100-slot buffer: the oldest 50 are gone,
	// so the first surviving sample carries ScrollOffset 50.
	if samples[0].ScrollOffset != 50 {
		t.Errorf("oldest sample offset: got %v, want 50", samples[0].ScrollOffset)
	}
	if samples[99].ScrollOffset != 149 {
		t.Errorf("newest sample offset: got %v, want 149", samples[99].ScrollOffset)
	}
}

func TestOnFrame_NoSamplesWhileIdle(t *testing.T) {
	scrolling := false
	s := testSampler(&scrolling)

	feed(s, 0, 60, 100) // slow frames, but no gesture

	if got := s.BufferLen(); got != 0 {
		t.Errorf("buffer length: got %d, want 0", got)
	}
	frames, dropped := s.Totals()
	if frames != 60 {
		t.Errorf("total frames: got %d, want 60", frames)
	}
	if dropped != 0 {
		t.Errorf("dropped: got %d, want 0 (not scrolling)", dropped)
	}
}

func TestOnFrame_DroppedSecondAt25FPS(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	// 25 frames at 40ms each = one full second at 25 fps.
	feed(s, 0, 25, 40)

	_, dropped := s.Totals()
	if dropped != 1 {
		t.Fatalf("dropped seconds: got %d, want 1", dropped)
	}
}

func TestOnFrame_HealthyWindowNotDropped(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	// 50 frames at 20ms = 50 fps over one second.
	feed(s, 0, 50, 20)

	_, dropped := s.Totals()
	if dropped != 0 {
		t.Fatalf("dropped seconds: got %d, want 0", dropped)
	}
}

func TestOnFrame_IdleWindowNeverDropped(t *testing.T) {
	scrolling := false
	s := testSampler(&scrolling)

	feed(s, 0, 25, 40) // 25 fps, but idle

	_, dropped := s.Totals()
	if dropped != 0 {
		t.Fatalf("dropped seconds: got %d, want 0 while idle", dropped)
	}
}

func TestOnFrame_ZeroDeltaNotRecorded(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	s.OnFrame(100, 0) // seed
	s.OnFrame(100, 0) // zero delta
	s.OnFrame(90, 0)  // clock went backwards

	if got := s.BufferLen(); got != 0 {
		t.Errorf("buffer length: got %d, want 0", got)
	}
	frames, _ := s.Totals()
	if frames != 2 {
		t.Errorf("total frames: got %d, want 2 (counters still advance)", frames)
	}
}

func TestOnFrame_InstantaneousFPS(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	s.OnFrame(0, 0)
	s.OnFrame(20, 7)

	samples := s.Snapshot()
	if len(samples) != 1 {
		t.Fatalf("samples: got %d, want 1", len(samples))
	}
	if samples[0].FPS != 50 {
		t.Errorf("FPS: got %v, want 50", samples[0].FPS)
	}
	if samples[0].FrameTime != 20 {
		t.Errorf("FrameTime: got %v, want 20", samples[0].FrameTime)
	}
	if samples[0].ScrollOffset != 7 {
		t.Errorf("ScrollOffset: got %v, want 7", samples[0].ScrollOffset)
	}
}

func TestEnableDisable_Idempotent(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	s.Enable()
	s.Enable()
	if !s.Enabled() {
		t.Fatal("expected enabled")
	}

	s.Disable()
	s.Disable()
	if s.Enabled() {
		t.Fatal("expected disabled")
	}

	s.OnFrame(0, 0)
	s.OnFrame(16, 0)
	frames, _ := s.Totals()
	if frames != 0 {
		t.Errorf("frames while disabled: got %d, want 0", frames)
	}
}

func TestReenable_ReseedsClock(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	s.OnFrame(0, 0)
	s.OnFrame(16, 0)
	s.Disable()
	s.Enable()

	// A huge timestamp gap across the disabled period must not register as
	// one giant frame.
	s.OnFrame(100000, 0)
	s.OnFrame(100016, 0)

	samples := s.Snapshot()
	for _, sm := range samples {
		if sm.FrameTime > 100 {
			t.Fatalf("spurious frame delta after re-enable: %v ms", sm.FrameTime)
		}
	}
}

func TestResetBuffer_KeepsTotals(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	feed(s, 0, 10, 16)
	s.ResetBuffer()

	if got := s.BufferLen(); got != 0 {
		t.Errorf("buffer after reset: got %d, want 0", got)
	}
	frames, _ := s.Totals()
	if frames != 10 {
		t.Errorf("total frames after reset: got %d, want 10", frames)
	}
}

func TestDropBuffered_KeepsNewerFrames(t *testing.T) {
	scrolling := true
	s := testSampler(&scrolling)

	ts := feed(s, 0, 5, 16)
	snapshotted := len(s.Snapshot())

	// Frames landing after the snapshot but before the consumer clears.
	s.OnFrame(ts+16, 100)
	s.OnFrame(ts+32, 101)

	s.DropBuffered(snapshotted)

	if got := s.BufferLen(); got != 2 {
		t.Fatalf("buffer after drop: got %d, want 2", got)
	}
	samples := s.Snapshot()
	if samples[0].ScrollOffset != 100 || samples[1].ScrollOffset != 101 {
		t.Errorf("surviving samples: got %v, want offsets 100 and 101", samples)
	}
	frames, _ := s.Totals()
	if frames != 7 {
		t.Errorf("total frames after drop: got %d, want 7", frames)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Config{}
	cfg.defaults()
	if cfg.Capacity != 100 {
		t.Errorf("Capacity: got %d, want 100", cfg.Capacity)
	}
	if cfg.LowFPS != 30 {
		t.Errorf("LowFPS: got %v, want 30", cfg.LowFPS)
	}
	if cfg.LongFrame != 50*time.Millisecond {
		t.Errorf("LongFrame: got %v, want 50ms", cfg.LongFrame)
	}
	if cfg.FrameBudget != 16*time.Millisecond {
		t.Errorf("FrameBudget: got %v, want 16ms", cfg.FrameBudget)
	}
}
