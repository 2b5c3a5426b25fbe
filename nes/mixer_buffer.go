package nes

import "sync"

// audioRingSize is the ring capacity in samples: 11,025 at 44.1kHz is a
// quarter second, comfortably more than one video frame's worth (735
// samples) so the audio thread never starves under normal frame pacing.
const audioRingSize = 11025

// audioRing is the bounded single-producer/single-consumer buffer between
// the APU (producer, called from the CPU-driven emulation loop) and the
// audio device callback (consumer, called on its own thread). Overflow
// overwrites the oldest unread sample; underflow hands back silence rather
// than blocking the callback.
type audioRing struct {
	mu    sync.Mutex
	cond  *sync.Cond
	buf   [audioRingSize]float32
	head  int // next write position
	tail  int // next read position
	count int
}

func newAudioRing() *audioRing {
	r := &audioRing{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// push adds one sample, producer side. On overflow it advances tail,
// discarding the oldest unread sample, and logs under the apu zone.
func (r *audioRing) push(v float32) {
	r.mu.Lock()
	if r.count == len(r.buf) {
		r.tail = (r.tail + 1) % len(r.buf)
		r.count--
		logf(zoneApu, "audio ring overflow, dropping oldest sample")
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	r.count++
	r.mu.Unlock()
	r.cond.Signal()
}

// read fills out with up to len(out) samples, consumer side. Any slots it
// can't fill from the ring are left at their zero value (silence); it never
// blocks waiting for the producer, since the audio callback must return in
// bounded time.
func (r *audioRing) read(out []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(out)
	if n > r.count {
		n = r.count
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[r.tail]
		r.tail = (r.tail + 1) % len(r.buf)
	}
	r.count -= n
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	return n
}

// drained reports whether the ring currently holds no samples; it does not
// block.
func (r *audioRing) drained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count == 0
}
