package rolling

// window is a fixed-capacity circular buffer with FIFO eviction: pushing
// into a full window overwrites the oldest element. Not goroutine-safe;
// the owning Store serializes access.
type window[T any] struct {
	buf   []T
	head  int // next write position
	count int // number of valid entries (0..cap)
}

func newWindow[T any](capacity int) *window[T] {
	return &window[T]{buf: make([]T, capacity)}
}

// push appends v, evicting the oldest element when full.
func (w *window[T]) push(v T) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
}

// snapshot returns a copy of the window contents in insertion order,
// oldest first. The returned slice shares no storage with the window.
func (w *window[T]) snapshot() []T {
	if w.count == 0 {
		return nil
	}
	out := make([]T, w.count)
	if w.count < len(w.buf) {
		copy(out, w.buf[:w.count])
	} else {
		n := copy(out, w.buf[w.head:])
		copy(out[n:], w.buf[:w.head])
	}
	return out
}

func (w *window[T]) len() int { return w.count }
