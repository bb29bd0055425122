// Package notify provides a broadcast wakeup primitive, used to tell
// renderers that new data landed without them having to busy-poll.
package notify

import "sync"

// Signal broadcasts wakeups. Waiters block on the channel from C(); each
// Notify closes the current channel and installs a fresh one, waking every
// waiter at once. Re-call C() after each wakeup for the next channel.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewSignal creates a ready-to-use Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Notify wakes all current waiters.
func (s *Signal) Notify() {
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.mu.Unlock()
}

// C returns a channel that is closed on the next Notify call.
func (s *Signal) C() <-chan struct{} {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	return ch
}
