package sampler

import (
	"testing"

	"github.com/hazyhaar/scrollscope/scrollwatch/perf"
)

func TestRing_PushAndSnapshot(t *testing.T) {
	r := newRing(3)
	if got := r.snapshot(); got != nil {
		t.Errorf("empty snapshot: got %v, want nil", got)
	}

	r.push(perf.FrameSample{Timestamp: 1})
	r.push(perf.FrameSample{Timestamp: 2})

	got := r.snapshot()
	if len(got) != 2 || got[0].Timestamp != 1 || got[1].Timestamp != 2 {
		t.Fatalf("snapshot: got %v", got)
	}
}

func TestRing_EvictsOldest(t *testing.T) {
	r := newRing(3)
	for i := 1; i <= 5; i++ {
		r.push(perf.FrameSample{Timestamp: float64(i)})
	}

	if r.len() != 3 {
		t.Fatalf("len: got %d, want 3", r.len())
	}
	got := r.snapshot()
	want := []float64{3, 4, 5}
	for i, w := range want {
		if got[i].Timestamp != w {
			t.Errorf("snapshot[%d]: got %v, want %v", i, got[i].Timestamp, w)
		}
	}
}

func TestRing_DropOldest(t *testing.T) {
	r := newRing(5)
	for i := 1; i <= 5; i++ {
		r.push(perf.FrameSample{Timestamp: float64(i)})
	}

	r.drop(3)
	if r.len() != 2 {
		t.Fatalf("len after drop: got %d, want 2", r.len())
	}
	got := r.snapshot()
	if got[0].Timestamp != 4 || got[1].Timestamp != 5 {
		t.Errorf("snapshot after drop: got %v, want [4 5]", got)
	}

	// Dropping more than buffered clears the ring.
	r.drop(10)
	if r.len() != 0 {
		t.Errorf("len after over-drop: got %d, want 0", r.len())
	}
	r.drop(-1)
	if r.len() != 0 {
		t.Errorf("len after negative drop: got %d, want 0", r.len())
	}
}

func TestRing_DropAfterWraparound(t *testing.T) {
	r := newRing(3)
	for i := 1; i <= 4; i++ { // head has advanced past slot 0
		r.push(perf.FrameSample{Timestamp: float64(i)})
	}

	r.drop(1)
	got := r.snapshot()
	if len(got) != 2 || got[0].Timestamp != 3 || got[1].Timestamp != 4 {
		t.Fatalf("snapshot after wrapped drop: got %v, want [3 4]", got)
	}
}

func TestRing_Reset(t *testing.T) {
	r := newRing(2)
	r.push(perf.FrameSample{Timestamp: 1})
	r.reset()

	if r.len() != 0 {
		t.Errorf("len after reset: got %d, want 0", r.len())
	}
	r.push(perf.FrameSample{Timestamp: 9})
	got := r.snapshot()
	if len(got) != 1 || got[0].Timestamp != 9 {
		t.Errorf("snapshot after reset: got %v", got)
	}
}
