package analyser

import (
	"sync"
	"time"
)

// RingBuffer is a thread-safe circular byte buffer holding the most recent
// interleaved 16-bit PCM written by the player.
type RingBuffer struct {
	buf  []byte
	size int
	w    int // write position
	len  int // current fill level
	last time.Time
	mu   sync.Mutex
}

// NewRingBuffer creates a ring buffer with the given capacity in bytes.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buf:  make([]byte, size),
		size: size,
	}
}

// Write appends p, overwriting the oldest data once full. It never fails,
// so the buffer can serve as the player's tap.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	if n == 0 {
		return 0, nil
	}
	rb.last = time.Now()
	if n >= rb.size {
		p = p[n-rb.size:]
	}
	for _, b := range p {
		rb.buf[rb.w] = b
		rb.w = (rb.w + 1) % rb.size
	}
	rb.len += len(p)
	if rb.len > rb.size {
		rb.len = rb.size
	}
	return n, nil
}

// Latest copies up to len(dst) of the most recent bytes into the tail of
// dst and returns how many were copied.
func (rb *RingBuffer) Latest(dst []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(dst)
	if n > rb.len {
		n = rb.len
	}
	start := (rb.w - n + rb.size) % rb.size
	off := len(dst) - n
	for i := range n {
		dst[off+i] = rb.buf[(start+i)%rb.size]
	}
	return n
}

// Len reports how many bytes are buffered.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.len
}

// Clear resets the buffer.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.w = 0
	rb.len = 0
	rb.last = time.Time{}
}

// LastWrite reports when data was last written. Zero means never, or not
// since Clear.
func (rb *RingBuffer) LastWrite() time.Time {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.last
}
