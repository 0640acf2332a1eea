package fifo

// ring is a fixed-capacity circular queue. Unlike a byte FIFO with a spare
// slot it tracks its count, so every slot is usable.
type ring[T any] struct {
	buf   []T
	read  int
	count int
}

func newRing[T any](capacity int) ring[T] {
	return ring[T]{buf: make([]T, capacity)}
}

// push appends v; it reports false and leaves the ring unchanged when full
func (r *ring[T]) push(v T) bool {
	if r.count == len(r.buf) {
		return false
	}
	r.buf[(r.read+r.count)%len(r.buf)] = v
	r.count++
	return true
}

// peek returns the oldest element without removing it
func (r *ring[T]) peek() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.buf[r.read], true
}

// pop removes and returns the oldest element
func (r *ring[T]) pop() (T, bool) {
	v, ok := r.peek()
	if !ok {
		return v, false
	}
	var zero T
	r.buf[r.read] = zero
	r.read = (r.read + 1) % len(r.buf)
	r.count--
	return v, true
}

func (r *ring[T]) len() int { return r.count }
func (r *ring[T]) cap() int { return len(r.buf) }
func (r *ring[T]) full() bool { return r.count == len(r.buf) }

// reset empties the ring
func (r *ring[T]) reset() {
	clear(r.buf)
	r.read = 0
	r.count = 0
}
