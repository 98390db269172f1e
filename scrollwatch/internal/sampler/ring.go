package sampler

import "github.com/hazyhaar/scrollscope/scrollwatch/perf"

// ring is a fixed-capacity FIFO of frame samples. When full, pushing evicts
// the oldest entry.
type ring struct {
	buf  []perf.FrameSample
	head int // index of the oldest entry
	n    int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]perf.FrameSample, capacity)}
}

func (r *ring) push(s perf.FrameSample) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = s
		r.n++
		return
	}
	// Full: overwrite the oldest slot and advance.
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) len() int { return r.n }

// snapshot copies the buffered samples oldest-first.
func (r *ring) snapshot() []perf.FrameSample {
	if r.n == 0 {
		return nil
	}
	out := make([]perf.FrameSample, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// drop removes the n oldest entries, keeping anything newer.
func (r *ring) drop(n int) {
	if n <= 0 {
		return
	}
	if n >= r.n {
		r.reset()
		return
	}
	r.head = (r.head + n) % len(r.buf)
	r.n -= n
}

func (r *ring) reset() {
	r.head = 0
	r.n = 0
}
