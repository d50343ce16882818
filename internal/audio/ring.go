package audio

// Ring is a fixed-capacity ring buffer of int16 samples. The wake detector
// uses it to keep the last second or so of audio so the keyword scan sees the
// full wake phrase, not just the tail. Not safe for concurrent use.
type Ring struct {
	buf    []int16
	head   int
	filled int
}

// NewRing returns a ring buffer holding at most size samples.
func NewRing(size int) *Ring {
	return &Ring{buf: make([]int16, size)}
}

// Add appends samples, overwriting the oldest when the buffer is full.
func (r *Ring) Add(samples []int16) {
	for _, s := range samples {
		r.buf[r.head] = s
		r.head = (r.head + 1) % len(r.buf)
		if r.filled < len(r.buf) {
			r.filled++
		}
	}
}

// Snapshot returns a copy of the buffered samples, oldest first. Only samples
// actually written are returned, so a freshly created ring yields nothing.
func (r *Ring) Snapshot() []int16 {
	out := make([]int16, r.filled)
	start := (r.head - r.filled + len(r.buf)) % len(r.buf)
	for i := 0; i < r.filled; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Clear discards all buffered samples.
func (r *Ring) Clear() {
	r.head = 0
	r.filled = 0
}
