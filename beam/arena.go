package beam

import (
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
	"h2beam/logger"
)

// Arena models a single thread's private memory pool. The producer and
// the consumer each own one; a Chunk of KindBytesBorrowed is only safe
// to read from the thread holding the arena it names in its residency
// field.
//
// Grounded on store/parser.go's use of github.com/edsrzf/mmap-go to back
// cached data with a real OS mapping: here the mapping stands in for the
// producer's heap, so arena death is a liveness flag backed by a real
// resource that gets freed, not just a boolean.
type Arena struct {
	ID uuid.UUID

	mu          sync.Mutex
	region      mmap.MMap
	allocOffset int
	alive       bool
	cleanup     []func()

	logger logger.Logger
}

// NewArena reserves a size-byte anonymous mapping to stand in for a
// thread's private heap.
func NewArena(size int, log logger.Logger) (*Arena, error) {
	if log == nil {
		log = logger.Default
	}
	if size <= 0 {
		size = 64 * 1024
	}
	region, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, err
	}
	return &Arena{ID: uuid.New(), region: region, alive: true, logger: log}, nil
}

// RegisterPreCleanup records a callback to run, in registration order, the
// moment this arena dies.
func (a *Arena) RegisterPreCleanup(fn func()) {
	a.mu.Lock()
	if !a.alive {
		a.mu.Unlock()
		fn()
		return
	}
	a.cleanup = append(a.cleanup, fn)
	a.mu.Unlock()
}

// UnregisterAll drops every pending pre-cleanup hook, used when a beam
// is destroyed through a path other than arena death and
// no longer wants its hook to fire later. Each Arena backs at most one
// beam side in this design, so there is no need to target a single hook.
func (a *Arena) UnregisterAll() {
	a.mu.Lock()
	a.cleanup = nil
	a.mu.Unlock()
}

// Alive reports whether the arena has been killed yet.
func (a *Arena) Alive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alive
}

// Kill marks the arena dead, runs every registered pre-cleanup hook in
// order, then releases its mapping. Idempotent.
func (a *Arena) Kill() {
	a.mu.Lock()
	if !a.alive {
		a.mu.Unlock()
		return
	}
	a.alive = false
	hooks := a.cleanup
	a.cleanup = nil
	region := a.region
	a.region = nil
	a.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	if region != nil {
		if err := region.Unmap(); err != nil {
			a.logger.Warnf("arena %s: unmap failed: %v", a.ID, err)
		}
	}
}

// alloc carves n bytes out of the arena's mapping for a borrowed chunk's
// backing storage. It's a bump allocator: arenas in this design are
// short-lived (one request/response lifetime), so there is no free list,
// matching the "memory belonging to one thread's arena" framing where
// individual frees don't matter, only whole-arena death does.
func (a *Arena) alloc(n int) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.alive || a.region == nil {
		return nil, false
	}
	if a.allocOffset+n > len(a.region) {
		return nil, false
	}
	b := a.region[a.allocOffset : a.allocOffset+n]
	a.allocOffset += n
	return b, true
}
