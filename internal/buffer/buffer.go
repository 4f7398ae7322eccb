package buffer

import "sync"

// Samples is the hand-off point between the capture callback and the
// streaming loop. The lock is held only while samples are copied.
type Samples struct {
	mu   sync.Mutex
	data []float32
}

// New returns an empty buffer with room for capacity samples before the
// first reallocation.
func New(capacity int) *Samples {
	if capacity < 0 {
		capacity = 0
	}
	return &Samples{data: make([]float32, 0, capacity)}
}

// Append copies samples onto the end of the buffer.
func (b *Samples) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	b.mu.Lock()
	b.data = append(b.data, samples...)
	b.mu.Unlock()
}

func (b *Samples) IsEmpty() bool {
	return b.Len() == 0
}

func (b *Samples) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Drain returns everything currently buffered and leaves the buffer empty.
func (b *Samples) Drain() []float32 {
	return b.DrainInto(nil)
}

// DrainInto appends the buffered samples to dst[:0] and empties the buffer.
// The buffer keeps its backing array, so the producer does not allocate
// again once it has grown to its working size.
func (b *Samples) DrainInto(dst []float32) []float32 {
	dst = dst[:0]
	b.mu.Lock()
	dst = append(dst, b.data...)
	b.data = b.data[:0]
	b.mu.Unlock()
	return dst
}

// Snapshot copies the buffered samples without clearing them.
func (b *Samples) Snapshot() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out
}

func (b *Samples) Clear() {
	b.mu.Lock()
	b.data = b.data[:0]
	b.mu.Unlock()
}
