package beam

import (
	"sync"
	"time"
)

// cond is the beam's condition variable, implemented with the
// close-and-replace broadcast channel trick rather than sync.Cond. This is
// not a stdlib fallback: it is lifted directly from
// proxy/stream/buffer/coordinator.go's subscribe/notifySubscribers,
// which reaches for exactly this shape to wake every waiter without
// needing a sync.Locker-compatible Cond. It composes with any Locker
// (including the lock-free and Redis-backed ones) because waiting only
// ever needs a channel receive, never a second lock type.
type cond struct {
	mu sync.Mutex // guards ch; independent of the beam's own Locker
	ch chan struct{}
}

func newCond() *cond {
	return &cond{ch: make(chan struct{})}
}

// subscribe returns the current generation's wake channel. Call before
// releasing the beam lock so no broadcast between the check and the wait
// is missed.
func (c *cond) subscribe() <-chan struct{} {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	return ch
}

// broadcast wakes every current waiter and starts a new generation.
func (c *cond) broadcast() {
	c.mu.Lock()
	close(c.ch)
	c.ch = make(chan struct{})
	c.mu.Unlock()
}

// wait blocks on ch until it closes or timeout elapses (0 = no timeout).
// Returns false on timeout.
func wait(ch <-chan struct{}, timeout time.Duration) bool {
	if timeout <= 0 {
		<-ch
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}
